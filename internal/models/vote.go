package models

import "time"

// Vote is one ledger row: a single user's -1 or +1 on a single target.
// A neutral vote is represented by row absence, never by a stored zero.
type Vote struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	TargetType ContentType `gorm:"size:16;not null;uniqueIndex:idx_vote_target_user" json:"target_type"`
	TargetID   uint        `gorm:"not null;uniqueIndex:idx_vote_target_user" json:"target_id"`
	UserID     uint        `gorm:"not null;uniqueIndex:idx_vote_target_user" json:"user_id"`
	User       User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Value      int         `gorm:"not null" json:"value"`
	CreatedAt  time.Time   `json:"created_at"`
}
