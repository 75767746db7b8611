package models

// User is the authenticated caller as seen by handlers.
type User struct {
	ID           uint
	Username     string
	FirstName    string
	LastName     string
	Email        string
	GravatarURL  string // empty if gravatar is disabled or the user has no email
	SessionToken string
}

// Profile is the public representation of a user returned by the me endpoint.
type Profile struct {
	UserName    string `json:"userName"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	GravatarURL string `json:"gravatarURL,omitempty"`
}
