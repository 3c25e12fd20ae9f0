package models

import "time"

// Comment belongs to a post and optionally to a parent comment. Nesting is
// capped at one level: a comment whose parent already has a parent is invalid.
type Comment struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	PostID   uint `gorm:"not null;index" json:"post_id"`
	Post     Post `gorm:"foreignKey:PostID" json:"post,omitempty"`
	AuthorID uint `gorm:"not null;index" json:"author_id"`
	Author   User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	ParentCommentID *uint    `gorm:"index" json:"parent_comment_id,omitempty"`
	ParentComment   *Comment `gorm:"foreignKey:ParentCommentID" json:"parent_comment,omitempty"`

	Body      string     `gorm:"type:text;not null" json:"body"`
	IsDeleted bool       `gorm:"not null;default:false;index" json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`

	// Score is not persisted; computed from the vote ledger at query time.
	Score int `gorm:"->;-:migration" json:"score"`
	// MyVote is the requesting user's stored vote, if any (computed).
	MyVote int `gorm:"->;-:migration" json:"my_vote"`
}
