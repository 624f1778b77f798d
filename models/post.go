package models

import "time"

// Post is a single contribution within a thread. ModifiedAt stays nil for
// edits inside the two minute grace window after creation; only later edits
// get the visible "edited" marker.
type Post struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ThreadID   uint       `gorm:"index;not null" json:"thread_id"`
	AuthorID   uint       `gorm:"index;not null" json:"author_id"`
	AuthorName string     `gorm:"size:50;not null" json:"author_name"`
	Body       string     `gorm:"type:text;not null" json:"body"`
	CreatedAt  time.Time  `json:"created_at"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
}
