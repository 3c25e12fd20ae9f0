package models

import "time"

// Post is a top-level content item inside a topic.
type Post struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	TopicID   uint       `gorm:"not null;index" json:"topic_id"`
	Topic     Topic      `gorm:"foreignKey:TopicID" json:"topic,omitempty"`
	AuthorID  uint       `gorm:"not null;index" json:"author_id"`
	Author    User       `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title     string     `gorm:"size:300;not null" json:"title"`
	Body      string     `gorm:"type:text;not null" json:"body"`
	IsDeleted bool       `gorm:"not null;default:false;index" json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`

	// Score is not persisted; computed from the vote ledger at query time.
	Score int `gorm:"->;-:migration" json:"score"`
	// MyVote is the requesting user's stored vote, if any (computed).
	MyVote int `gorm:"->;-:migration" json:"my_vote"`
}
