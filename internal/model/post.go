package model

import "time"

// Post is a blog post owned by a single user.
//
// UserID references the owning User's ID. Ownership is the only mutation
// permission in the system: title and content may be changed, and the post
// deleted, exclusively by the user whose ID matches UserID. Reads are public.
//
// ID and CreatedAt are set by the store on creation and never change.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
