package model

import "time"

// User represents an application user record as stored in the `users`
// table (or users.json for the file store).  The password hash never
// leaves the repository/service layers; handlers respond with UserSummary.
//
// Fields:
//  ID           – UUID assigned at registration.
//  Username     – unique, case-sensitive login identifier.
//  PasswordHash – bcrypt hash of the password.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserSummary is the public view of a user.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Summary drops the password hash.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username}
}
