// Package mirrorapi defines the JSON wire types of the mirror's document
// API, shared by the client and the server so the two cannot drift.
//
// The mirror stores plain documents per collection, keyed by the id the
// client generated. It never assigns ids and never stores sync bookkeeping
// or password hashes.
package mirrorapi

import "time"

type Article struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Mould     string    `json:"mould"`
	Size      string    `json:"size"`
	Gender    string    `json:"gender"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ImageURL  string    `json:"image_url,omitempty"`
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ArticleList is one page of the articles collection. NextAfter is the
// cursor for the following page; empty means the listing is exhausted.
type ArticleList struct {
	Items     []Article `json:"items"`
	NextAfter string    `json:"next_after,omitempty"`
}

type UserList struct {
	Items     []User `json:"items"`
	NextAfter string `json:"next_after,omitempty"`
}

type SessionRequest struct {
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

type SessionResponse struct {
	Token string `json:"token"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
