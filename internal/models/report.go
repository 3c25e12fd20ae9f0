package models

import "time"

// ReportStatus is the report state machine. Closed is terminal.
type ReportStatus string

const (
	ReportStatusOpen   ReportStatus = "open"
	ReportStatusClosed ReportStatus = "closed"
)

// Report is a user complaint about a post or comment. Several reports may
// point at the same target; resolving the target closes all of them.
type Report struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	TargetType ContentType  `gorm:"size:16;not null;index:idx_report_target" json:"target_type"`
	TargetID   uint         `gorm:"not null;index:idx_report_target" json:"target_id"`
	ReporterID uint         `gorm:"not null;index" json:"reporter_id"`
	Reporter   User         `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	Reason     string       `gorm:"type:text;not null" json:"reason"`
	Status     ReportStatus `gorm:"size:16;not null;default:'open';index" json:"status"`

	ReviewedByID *uint      `json:"reviewed_by_id,omitempty"`
	ReviewedBy   *User      `gorm:"foreignKey:ReviewedByID" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	ReviewNote   *string    `json:"review_note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
