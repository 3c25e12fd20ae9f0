package models

import "time"

// Topic is a forum board. LastActivityAt is bumped by any post or comment
// created or edited inside the topic.
type Topic struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Title          string    `gorm:"size:200;not null" json:"title"`
	Description    string    `gorm:"type:text" json:"description"`
	IsLocked       bool      `gorm:"not null;default:false" json:"is_locked"`
	IsDeleted      bool      `gorm:"not null;default:false;index" json:"-"`
	IsBanned       bool      `gorm:"not null;default:false" json:"is_banned"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`

	// The creator is recorded but never cascade-deleted with the topic.
	CreatedByID *uint `gorm:"index" json:"created_by_id,omitempty"`
	CreatedBy   *User `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`

	// FollowerCount is not persisted; computed at query time.
	FollowerCount int `gorm:"->;-:migration" json:"follower_count"`
}

// TopicFollow records that a user follows a topic. One row per (user, topic).
type TopicFollow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_topic_follow_user_topic" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TopicID   uint      `gorm:"not null;uniqueIndex:idx_topic_follow_user_topic" json:"topic_id"`
	Topic     Topic     `gorm:"foreignKey:TopicID" json:"topic,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
