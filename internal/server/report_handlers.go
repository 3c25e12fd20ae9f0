package server

import (
	"levelforum/internal/models"

	"github.com/gofiber/fiber/v2"
)

type createReportRequest struct {
	TargetType string `json:"target_type"`
	TargetID   uint   `json:"target_id"`
	Reason     string `json:"reason"`
}

// CreateReport files a report against a post or comment.
func (s *Server) CreateReport(c *fiber.Ctx) error {
	var req createReportRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewInvalidInputError("Invalid request body"))
	}

	targetType, err := models.ParseContentType(req.TargetType)
	if err != nil {
		return respondError(c, err)
	}

	report, err := s.reports.CreateReport(c.UserContext(), currentUserID(c), targetType, req.TargetID, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// GetReport returns one report.
func (s *Server) GetReport(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	report, err := s.reports.GetReport(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// ListReports pages through the moderation queue, filtered by the optional
// status and reason-search query parameters.
func (s *Server) ListReports(c *fiber.Ctx) error {
	page, pageSize := parsePagination(c)
	result, err := s.reports.ListReports(c.UserContext(), models.ReportStatus(c.Query("status")), c.Query("q"), page, pageSize)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// ListReportsForTarget lists every report filed against one target.
func (s *Server) ListReportsForTarget(c *fiber.Ctx) error {
	targetType, targetID, err := parseTargetParam(c)
	if err != nil {
		return respondError(c, err)
	}

	reports, err := s.reports.ListReportsForTarget(c.UserContext(), targetType, targetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reports)
}

// GetReportTargetInfo resolves a reported target for the moderation queue.
func (s *Server) GetReportTargetInfo(c *fiber.Ctx) error {
	targetType, targetID, err := parseTargetParam(c)
	if err != nil {
		return respondError(c, err)
	}

	info, err := s.reports.GetReportTargetInfo(c.UserContext(), targetType, targetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(info)
}

type reportNoteRequest struct {
	Note string `json:"note"`
}

// ReviewReport annotates an open report without resolving it.
func (s *Server) ReviewReport(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req reportNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewInvalidInputError("Invalid request body"))
	}

	report, err := s.reports.ReviewReport(c.UserContext(), id, currentUserID(c), req.Note)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// CloseReport closes an open report without touching the target.
func (s *Server) CloseReport(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req reportNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewInvalidInputError("Invalid request body"))
	}

	report, err := s.reports.CloseReport(c.UserContext(), id, currentUserID(c), req.Note)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// DeleteReportTarget removes the reported content and closes every open
// report against it.
func (s *Server) DeleteReportTarget(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	report, err := s.reports.DeleteReportTarget(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
