/*
Package user contains the data structures describing chat participants.

User is the normalized profile the client keeps for a selected conversation; Record is the
richer document the backend returns from its user listings.
*/
package user

import "strings"

// User is a conversation counterpart as held by the client.
type User struct {
	ID         string `json:"_id"`
	Username   string `json:"username"`
	Fullname   string `json:"fullname"`
	Email      string `json:"email"`
	ProfilePic string `json:"profilepic"`
	Gender     string `json:"gender"`
}

// Record is a user document as returned by the backend's list and search endpoints.
// Fields beyond the User subset are decoded but never carried into the selection.
type Record struct {
	ID         string `json:"_id"`
	Username   string `json:"username"`
	Fullname   string `json:"fullname"`
	Email      string `json:"email"`
	ProfilePic string `json:"profilepic,omitempty"`
	Gender     string `json:"gender"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// Normalize returns the conversation subset of r.
func (r Record) Normalize() User {
	return User{
		ID:         r.ID,
		Username:   r.Username,
		Fullname:   r.Fullname,
		Email:      r.Email,
		ProfilePic: r.ProfilePic,
		Gender:     r.Gender,
	}
}

// DisplayName returns the full name, falling back to the username.
func (u User) DisplayName() string {
	if strings.TrimSpace(u.Fullname) != "" {
		return u.Fullname
	}
	return u.Username
}

// Matches reports whether term occurs in the username or full name, ignoring case.
func (u User) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(u.Username), term) ||
		strings.Contains(strings.ToLower(u.Fullname), term)
}
