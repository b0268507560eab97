// Package domain contains core concepts of the messaging system.
// Entities here carry no storage, network, or UI logic.
package domain

import "time"

// User is a registered account. PasswordHash never leaves the auth layer.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	LastLogin    time.Time
}

// Profile is the public slice of a User attached to discussion summaries.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	LastLogin time.Time `json:"last_login"`
}

func (u User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, LastLogin: u.LastLogin}
}
