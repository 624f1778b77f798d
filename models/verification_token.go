package models

import "time"

// VerificationToken holds the one-time numeric code mailed to a signup
// candidate. Consumed (deleted) on successful verification or once expiry is
// detected; resend overwrites code and expiry in place.
type VerificationToken struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SignupToken string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Email       string    `gorm:"size:255;index;not null" json:"email"`
	Code        string    `gorm:"size:8;not null" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `gorm:"not null" json:"expires_at"`
}

// Expired reports whether the code can no longer be redeemed at t.
func (v *VerificationToken) Expired(t time.Time) bool {
	return t.After(v.ExpiresAt)
}
