package models

import "time"

// ErrorLog is one error-sink entry recorded by the safe-execution wrapper.
type ErrorLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Source    string    `gorm:"size:255;not null" json:"source"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Stack     string    `gorm:"type:text" json:"stack"`
	Params    string    `gorm:"type:text" json:"params"`
	CreatedAt time.Time `json:"created_at"`
}
