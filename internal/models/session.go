package models

import "time"

// UserProfile is the signed-in user as returned at login.
type UserProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// Session is the authenticated context handed to every component.
type Session struct {
	Token     string      `json:"token"`
	User      UserProfile `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Valid reports whether the session can authorize backend calls.
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.User.ID != ""
}
