package models

import (
	"net/url"
	"time"
)

// User is an account row in Postgres. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"_id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Phone        string    `json:"phone,omitempty"`
	ProfileImage string    `json:"profileImage"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the optional fields of PUT /api/auth/update-profile.
type ProfileUpdate struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty"`
	Username  *string `json:"username,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// Empty reports whether no field is set.
func (p ProfileUpdate) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Username == nil && p.Phone == nil
}

// DefaultProfileImage is the generated avatar for a new account.
func DefaultProfileImage(email string) string {
	return "https://api.dicebear.com/9.x/fun-emoji/svg?seed=" + url.QueryEscape(email)
}
