package models

import "time"

// Thread is a top-level discussion topic within one of the fixed categories.
// AuthorName is cached at creation time so listings render without a join.
// LastModified is bumped whenever a post is appended; it is managed by the
// forum service, not by gorm.
type Thread struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:50;not null" json:"title"`
	AuthorID     uint      `gorm:"index;not null" json:"author_id"`
	AuthorName   string    `gorm:"size:50;not null" json:"author_name"`
	Category     string    `gorm:"size:32;index;not null" json:"category"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `gorm:"index;not null" json:"last_modified"`
	Posts        []Post    `gorm:"foreignKey:ThreadID" json:"posts,omitempty"`
}
