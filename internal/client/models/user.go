// Package models defines the client-side domain types shared by the remote
// transports and the session and cart engines.
package models

import "time"

// User is the authenticated-user record returned by the remote service.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Verified  bool   `json:"isVerified"`
	FullName  string `json:"fullName,omitempty"`
	Phone     string `json:"phone,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Clone returns a copy of u, or nil for a nil receiver.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// SignupResult is the remote answer to a registration.
type SignupResult struct {
	User      *User     `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// OTPResult carries the expiry of a freshly issued code.
type OTPResult struct {
	ExpiresAt time.Time `json:"expiresAt"`
}

// VerifyResult is returned by a successful code verification. Which fields
// are set depends on the verification context.
type VerifyResult struct {
	User  *User  `json:"user,omitempty"`
	Token string `json:"token,omitempty"`
}

// LoginResult is returned by login. An empty Token means the account exists
// but has not verified its email yet.
type LoginResult struct {
	Token string `json:"token,omitempty"`
	User  *User  `json:"user,omitempty"`
}

// ResetResult is returned when a new password is submitted.
type ResetResult struct {
	Success bool `json:"success"`
}
