package models

import (
	"fmt"
	"time"
)

// Notification is a write-once row addressed to a user. Rows are immutable
// after creation; the read side filters to a recent window.
type Notification struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	TargetType ContentType `gorm:"size:16;not null" json:"target_type"`
	TargetID   uint        `gorm:"not null" json:"target_id"`
	UserID     uint        `gorm:"not null;index" json:"user_id"`
	Message    string      `gorm:"type:text;not null" json:"message"`
	CreatedAt  time.Time   `json:"created_at"`
}

const notificationSnippetLen = 120

func snippet(body string) string {
	runes := []rune(body)
	if len(runes) <= notificationSnippetLen {
		return body
	}
	return string(runes[:notificationSnippetLen]) + "…"
}

// NewPostCommentNotification notifies a post author about a new root comment.
func NewPostCommentNotification(postID, postAuthorID uint, postTitle, body string) *Notification {
	return &Notification{
		TargetType: ContentTypePost,
		TargetID:   postID,
		UserID:     postAuthorID,
		Message:    fmt.Sprintf("New comment on %q: %s", postTitle, snippet(body)),
		CreatedAt:  time.Now().UTC(),
	}
}

// NewCommentReplyNotification notifies a comment author about a reply.
func NewCommentReplyNotification(parentCommentID, parentAuthorID uint, body string) *Notification {
	return &Notification{
		TargetType: ContentTypeComment,
		TargetID:   parentCommentID,
		UserID:     parentAuthorID,
		Message:    fmt.Sprintf("New reply to your comment: %s", snippet(body)),
		CreatedAt:  time.Now().UTC(),
	}
}
