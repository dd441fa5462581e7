package models

// Session is the client-held record of the authenticated user and their
// bearer credential. User and Token are always set and cleared together.
type Session struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// IsAuthenticated is derived from the presence of a user.
func (s Session) IsAuthenticated() bool {
	return s.User != nil
}

// Consistent reports whether user and token are either both present or both absent.
func (s Session) Consistent() bool {
	return (s.User == nil) == (s.Token == "")
}
