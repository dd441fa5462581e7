package client

import (
	"context"

	"github.com/dmitrijs2005/spotlight/internal/client/models"
)

// Client is the contract for talking to the Spotlight backend. All methods
// return *APIError on failure.
type Client interface {
	Register(ctx context.Context, fullName, email, password string) (models.AuthResult, error)
	Login(ctx context.Context, email, password string) (models.AuthResult, error)
	VerifyOTP(ctx context.Context, code string) (models.AuthResult, error)
	ResendOTP(ctx context.Context, email string) (string, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)

	// SaveIdentity persists a user record for an identity returned by the
	// external OAuth provider.
	SaveIdentity(ctx context.Context, id models.ExternalIdentity) error

	ListUsers(ctx context.Context, page, limit int) (models.TalentPage, error)
	SearchUsers(ctx context.Context, query string) ([]models.Talent, error)
	GetUser(ctx context.Context, id string) (models.Talent, error)

	// Me reads the signed-in user's profile as the backend sees it.
	Me(ctx context.Context) (models.Talent, error)

	GetProfile(ctx context.Context, id string) (models.ProfileDocument, error)
	UpdateProfile(ctx context.Context, id string, u models.ProfileUpdate) (models.ProfileDocument, error)

	// ReviewProfile asks the backend to assess a profile. An empty review
	// is not an error.
	ReviewProfile(ctx context.Context, userID string) (models.ProfileReview, error)

	GetLinks(ctx context.Context) (models.UserLinks, error)
	UpsertLinks(ctx context.Context, l models.UserLinks) (models.UserLinks, error)

	Skills() SubResource[models.Skill]
	Experiences() SubResource[models.Experience]
	Projects() SubResource[models.Project]
	Educations() SubResource[models.Education]
}

// SubResource is a collection owned by the authenticated user, managed item
// by item through its own endpoints.
type SubResource[T models.Entity] interface {
	List(ctx context.Context) ([]T, error)
	Add(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, id string, item T) (T, error)
	Delete(ctx context.Context, id string) error
}
