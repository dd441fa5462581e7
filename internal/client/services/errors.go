package services

import "errors"

var (
	// ErrVerificationRequired is returned by Register when the backend
	// accepted the registration but wants the e-mail verified before it
	// hands out a session.
	ErrVerificationRequired = errors.New("email verification required")

	// ErrNotLoaded is returned by ProfileEditor operations that need a
	// loaded profile.
	ErrNotLoaded = errors.New("profile not loaded")

	ErrNoUploader = errors.New("avatar upload is not configured")
)
