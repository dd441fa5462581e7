package models

import "encoding/json"

// User is the identity record held by the session.
type User struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (u User) EntityID() string { return u.ID }

// UnmarshalJSON accepts both "id" and "_id".
func (u *User) UnmarshalJSON(b []byte) error {
	type alias User
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(u)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = aux.MongoID
	}
	return nil
}

// Talent is a public profile shown in the directory and search views.
type Talent struct {
	ID          string            `json:"id"`
	FullName    string            `json:"fullName"`
	Email       string            `json:"email"`
	Bio         string            `json:"bio,omitempty"`
	ProfRole    string            `json:"profRole,omitempty"`
	Location    string            `json:"location,omitempty"`
	Avatar      string            `json:"avatar,omitempty"`
	Role        string            `json:"role,omitempty"`
	IsVerified  bool              `json:"isVerified,omitempty"`
	Skills      []Ref[Skill]      `json:"skills"`
	Projects    []Ref[Project]    `json:"projects"`
	Experiences []Ref[Experience] `json:"experiences"`
	Links       []Ref[UserLinks]  `json:"links,omitempty"`
}

func (t Talent) EntityID() string { return t.ID }

func (t *Talent) UnmarshalJSON(b []byte) error {
	type alias Talent
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = aux.MongoID
	}
	return nil
}

// TalentPage is one page of the public directory.
type TalentPage struct {
	Items      []Talent
	TotalPages int
}

// ProfileDocument is the parent profile record edited on the profile page.
type ProfileDocument struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	ProfRole string `json:"profRole"`
	Avatar   string `json:"avatar,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Location string `json:"location,omitempty"`
}

func (p ProfileDocument) EntityID() string { return p.ID }

func (p *ProfileDocument) UnmarshalJSON(b []byte) error {
	type alias ProfileDocument
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = aux.MongoID
	}
	return nil
}

// ProfileUpdate is a partial update of the profile document. Empty fields
// are not sent.
type ProfileUpdate struct {
	FullName string `json:"fullName,omitempty"`
	ProfRole string `json:"profRole,omitempty"`
	Location string `json:"location,omitempty"`
	Bio      string `json:"bio,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// Empty reports whether the update carries no fields.
func (u ProfileUpdate) Empty() bool {
	return u == ProfileUpdate{}
}

// ExternalIdentity is what the OAuth provider hands back after a redirect
// sign-in. It is forwarded to the backend to persist a user record.
type ExternalIdentity struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	ProviderID string `json:"clerkId"`
}

// AuthResult is the canonical outcome of login, register and OTP verification.
type AuthResult struct {
	Message string
	Token   string
	User    *User
}

// ProfileReview is the backend's assessment of a profile. Available is false
// when the backend had nothing to report.
type ProfileReview struct {
	Available       bool     `json:"-"`
	Score           int      `json:"score"`
	Strengths       []string `json:"strengths"`
	Missing         []string `json:"missing"`
	Recommendations []string `json:"recommendations"`
}
