package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"levelforum/internal/models"

	"gorm.io/gorm"
)

// ReportService manages the moderation queue: filing reports against posts
// and comments, reviewing them, and removing reported content.
type ReportService struct {
	db   *gorm.DB
	safe *SafeExecutor
}

// NewReportService returns a new ReportService.
func NewReportService(db *gorm.DB, safe *SafeExecutor) *ReportService {
	return &ReportService{db: db, safe: safe}
}

// targetExists reports whether a live target row exists, failing closed on
// unknown target types.
func targetExists(tx *gorm.DB, targetType models.ContentType, targetID uint) (bool, error) {
	var count int64
	var err error
	switch targetType {
	case models.ContentTypePost:
		err = tx.Model(&models.Post{}).
			Where("id = ? AND is_deleted = ?", targetID, false).
			Count(&count).Error
	case models.ContentTypeComment:
		err = tx.Model(&models.Comment{}).
			Where("id = ? AND is_deleted = ?", targetID, false).
			Count(&count).Error
	default:
		return false, models.NewInvalidInputError("Unknown target type")
	}
	return count > 0, err
}

// CreateReport files a report against a live post or comment. The reporter
// must be a live user, and a reporter with an open report on the same target
// cannot file another.
func (s *ReportService) CreateReport(ctx context.Context, reporterID uint, targetType models.ContentType, targetID uint, reason string) (*models.Report, error) {
	return Execute(ctx, s.safe, "ReportService.CreateReport",
		opParams{"reporterId": reporterID, "targetType": targetType, "targetId": targetID},
		func(ctx context.Context) (*models.Report, error) {
			if strings.TrimSpace(reason) == "" {
				return nil, models.NewInvalidInputError("Reason is required")
			}

			report := models.Report{
				TargetType: targetType,
				TargetID:   targetID,
				ReporterID: reporterID,
				Reason:     reason,
				Status:     models.ReportStatusOpen,
			}

			err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var reporters int64
				if err := tx.Model(&models.User{}).
					Where("id = ? AND is_deleted = ?", reporterID, false).
					Count(&reporters).Error; err != nil {
					return err
				}
				if reporters == 0 {
					return models.NewNotFoundError("User")
				}

				exists, err := targetExists(tx, targetType, targetID)
				if err != nil {
					return err
				}
				if !exists {
					return models.NewNotFoundError("Target")
				}

				var count int64
				if err := tx.Model(&models.Report{}).
					Where("target_type = ? AND target_id = ? AND reporter_id = ? AND status = ?",
						targetType, targetID, reporterID, models.ReportStatusOpen).
					Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					return models.NewConflictError("You already have an open report on this target")
				}

				return tx.Create(&report).Error
			})
			if err != nil {
				return nil, err
			}
			return &report, nil
		})
}

// GetReport returns a report by id.
func (s *ReportService) GetReport(ctx context.Context, id uint) (*models.Report, error) {
	return Execute(ctx, s.safe, "ReportService.GetReport", opParams{"id": id},
		func(ctx context.Context) (*models.Report, error) {
			var report models.Report
			err := s.db.WithContext(ctx).
				Preload("Reporter").
				First(&report, id).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("Report")
			}
			if err != nil {
				return nil, err
			}
			return &report, nil
		})
}

// ListReports pages through reports, newest first, optionally filtered by
// status and by a substring of the reason text.
func (s *ReportService) ListReports(ctx context.Context, status models.ReportStatus, search string, page, pageSize int) (*PagedResult[models.Report], error) {
	return Execute(ctx, s.safe, "ReportService.ListReports",
		opParams{"status": status, "search": search, "page": page},
		func(ctx context.Context) (*PagedResult[models.Report], error) {
			page, pageSize := normalizePage(page, pageSize)

			base := s.db.WithContext(ctx).Model(&models.Report{})
			if status != "" {
				if status != models.ReportStatusOpen && status != models.ReportStatusClosed {
					return nil, models.NewInvalidInputError("Unknown report status")
				}
				base = base.Where("status = ?", status)
			}
			if search = strings.TrimSpace(search); search != "" {
				base = base.Where("reason LIKE ?", "%"+search+"%")
			}

			var total int64
			if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
				return nil, err
			}

			var reports []models.Report
			err := base.
				Preload("Reporter").
				Order("created_at DESC").
				Offset((page - 1) * pageSize).
				Limit(pageSize).
				Find(&reports).Error
			if err != nil {
				return nil, err
			}

			return &PagedResult[models.Report]{
				Items:    reports,
				Total:    total,
				Page:     page,
				PageSize: pageSize,
			}, nil
		})
}

// ListReportsForTarget lists every report ever filed against a target,
// newest first.
func (s *ReportService) ListReportsForTarget(ctx context.Context, targetType models.ContentType, targetID uint) ([]models.Report, error) {
	return Execute(ctx, s.safe, "ReportService.ListReportsForTarget",
		opParams{"targetType": targetType, "targetId": targetID},
		func(ctx context.Context) ([]models.Report, error) {
			var reports []models.Report
			err := s.db.WithContext(ctx).
				Preload("Reporter").
				Where("target_type = ? AND target_id = ?", targetType, targetID).
				Order("created_at DESC").
				Find(&reports).Error
			return reports, err
		})
}

const targetSnippetLen = 320

func targetSnippet(body string) string {
	runes := []rune(body)
	if len(runes) <= targetSnippetLen {
		return body
	}
	return string(runes[:targetSnippetLen]) + "…"
}

// ReportTargetInfo locates reported content for the moderation queue view.
type ReportTargetInfo struct {
	TargetType models.ContentType `json:"target_type"`
	TargetID   uint               `json:"target_id"`
	PostID     uint               `json:"post_id"`
	TopicID    uint               `json:"topic_id"`
	AuthorID   uint               `json:"author_id"`
	Snippet    string             `json:"snippet"`
}

// GetReportTargetInfo resolves a target to its post, topic and author, with
// a body snippet. The target must still be live.
func (s *ReportService) GetReportTargetInfo(ctx context.Context, targetType models.ContentType, targetID uint) (*ReportTargetInfo, error) {
	return Execute(ctx, s.safe, "ReportService.GetReportTargetInfo",
		opParams{"targetType": targetType, "targetId": targetID},
		func(ctx context.Context) (*ReportTargetInfo, error) {
			info := ReportTargetInfo{TargetType: targetType, TargetID: targetID}

			switch targetType {
			case models.ContentTypePost:
				var post models.Post
				err := s.db.WithContext(ctx).
					Where("id = ? AND is_deleted = ?", targetID, false).
					First(&post).Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, models.NewNotFoundError("Target")
				}
				if err != nil {
					return nil, err
				}
				info.PostID = post.ID
				info.TopicID = post.TopicID
				info.AuthorID = post.AuthorID
				info.Snippet = targetSnippet(post.Title + "\n" + post.Body)
			case models.ContentTypeComment:
				var comment models.Comment
				err := s.db.WithContext(ctx).
					Where("id = ? AND is_deleted = ?", targetID, false).
					First(&comment).Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, models.NewNotFoundError("Target")
				}
				if err != nil {
					return nil, err
				}
				var post models.Post
				if err := s.db.WithContext(ctx).First(&post, comment.PostID).Error; err != nil {
					return nil, err
				}
				info.PostID = post.ID
				info.TopicID = post.TopicID
				info.AuthorID = comment.AuthorID
				info.Snippet = targetSnippet(comment.Body)
			default:
				return nil, models.NewInvalidInputError("Unknown target type")
			}

			return &info, nil
		})
}

func loadReport(tx *gorm.DB, id uint) (*models.Report, error) {
	var report models.Report
	err := tx.First(&report, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Report")
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ReviewReport records who looked at a report and their note, and leaves it
// with status Open. Review is an annotation, not a resolution, so reviewing
// a closed report puts it back in the queue.
func (s *ReportService) ReviewReport(ctx context.Context, id, reviewerID uint, note string) (*models.Report, error) {
	return Execute(ctx, s.safe, "ReportService.ReviewReport",
		opParams{"id": id, "reviewerId": reviewerID},
		func(ctx context.Context) (*models.Report, error) {
			var report *models.Report
			err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var err error
				report, err = loadReport(tx, id)
				if err != nil {
					return err
				}

				now := time.Now().UTC()
				report.Status = models.ReportStatusOpen
				report.ReviewedByID = &reviewerID
				report.ReviewedAt = &now
				report.ReviewNote = &note
				return tx.Model(report).Updates(map[string]any{
					"status":         models.ReportStatusOpen,
					"reviewed_by_id": reviewerID,
					"reviewed_at":    now,
					"review_note":    note,
				}).Error
			})
			if err != nil {
				return nil, err
			}
			return report, nil
		})
}

// CloseReport closes a report without touching the target. Closing an
// already-closed report just re-stamps the reviewer and note.
func (s *ReportService) CloseReport(ctx context.Context, id, reviewerID uint, note string) (*models.Report, error) {
	return Execute(ctx, s.safe, "ReportService.CloseReport",
		opParams{"id": id, "reviewerId": reviewerID},
		func(ctx context.Context) (*models.Report, error) {
			var report *models.Report
			err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var err error
				report, err = loadReport(tx, id)
				if err != nil {
					return err
				}

				now := time.Now().UTC()
				report.Status = models.ReportStatusClosed
				report.ReviewedByID = &reviewerID
				report.ReviewedAt = &now
				report.ReviewNote = &note
				return tx.Model(report).Updates(map[string]any{
					"status":         models.ReportStatusClosed,
					"reviewed_by_id": reviewerID,
					"reviewed_at":    now,
					"review_note":    note,
				}).Error
			})
			if err != nil {
				return nil, err
			}
			return report, nil
		})
}

// DeleteReportTarget removes the reported content and closes every open
// report against it, all in one transaction. Sibling reports are closed with
// a note naming the acted-on report. Rerunning is safe: an already-removed
// target is skipped and the cascade close only touches reports still open.
func (s *ReportService) DeleteReportTarget(ctx context.Context, id, reviewerID uint) (*models.Report, error) {
	return Execute(ctx, s.safe, "ReportService.DeleteReportTarget",
		opParams{"id": id, "reviewerId": reviewerID},
		func(ctx context.Context) (*models.Report, error) {
			var report *models.Report
			err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var err error
				report, err = loadReport(tx, id)
				if err != nil {
					return err
				}

				exists, err := targetExists(tx, report.TargetType, report.TargetID)
				if err != nil {
					return err
				}
				if exists {
					switch report.TargetType {
					case models.ContentTypePost:
						err = softDeletePostTx(tx, report.TargetID)
					case models.ContentTypeComment:
						err = softDeleteCommentTx(tx, report.TargetID)
					}
					if err != nil {
						return err
					}
				}

				now := time.Now().UTC()
				note := fmt.Sprintf("Target removed via report #%d.", id)
				return tx.Model(&models.Report{}).
					Where("target_type = ? AND target_id = ? AND status = ?",
						report.TargetType, report.TargetID, models.ReportStatusOpen).
					Updates(map[string]any{
						"status":         models.ReportStatusClosed,
						"reviewed_by_id": reviewerID,
						"reviewed_at":    now,
						"review_note":    note,
					}).Error
			})
			if err != nil {
				return nil, err
			}
			if err := s.db.WithContext(ctx).First(report, id).Error; err != nil {
				return nil, err
			}
			return report, nil
		})
}
