package models

import "time"

// User represents a forum member. Passwords are stored as bcrypt hashes only.
// Accounts only exist after the email verification handshake completes; signup
// candidates live in the pending store, never in this table.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	AboutMe      string    `gorm:"type:text" json:"about_me"`
	PostCount    int       `gorm:"not null;default:0" json:"post_count"`
	IsAdmin      bool      `gorm:"not null;default:false" json:"is_admin"`
	IsOnline     bool      `gorm:"not null;default:false" json:"is_online"`
	CreatedAt    time.Time `json:"created_at"`
}
