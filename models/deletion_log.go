package models

import "time"

// Entity kinds recorded in the deletion log.
const (
	EntityThread = "thread"
	EntityPost   = "post"
)

// DeletionLog is an append-only record of moderator deletions. The row is
// written and committed before the entity itself is removed.
type DeletionLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	EntityKind    string    `gorm:"size:16;not null" json:"entity_kind"`
	EntityID      uint      `gorm:"index;not null" json:"entity_id"`
	ModeratorID   uint      `gorm:"index;not null" json:"moderator_id"`
	ModeratorName string    `gorm:"size:50;not null" json:"moderator_name"`
	Reason        string    `gorm:"type:text;not null" json:"reason"`
	CreatedAt     time.Time `json:"created_at"`
}
