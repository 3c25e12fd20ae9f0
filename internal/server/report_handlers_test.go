package server

import (
	"fmt"
	"testing"

	"levelforum/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedReportablePost(t *testing.T, db *gorm.DB, authorID uint) *models.Post {
	t.Helper()
	topic := models.Topic{Title: fmt.Sprintf("Topic %d", authorID), CreatedByID: &authorID}
	require.NoError(t, db.Create(&topic).Error)
	post := models.Post{TopicID: topic.ID, AuthorID: authorID, Title: "A post", Body: "body"}
	require.NoError(t, db.Create(&post).Error)
	return &post
}

func TestReportWorkflowOverHTTP(t *testing.T) {
	srv, app, db := newTestServer(t)

	author := createServerUser(t, db, models.RoleUser)
	reporter := createServerUser(t, db, models.RoleUser)
	moderator := createServerUser(t, db, models.RoleModerator)
	post := seedReportablePost(t, db, author.ID)

	reporterToken := tokenFor(t, srv, reporter)
	moderatorToken := tokenFor(t, srv, moderator)

	// File a report.
	resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/api/reports/", reporterToken, fiber.Map{
		"target_type": "post",
		"target_id":   post.ID,
		"reason":      "spam",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var report models.Report
	decodeBody(t, resp, &report)
	assert.Equal(t, models.ReportStatusOpen, report.Status)

	// A plain user cannot read the queue.
	resp, err = app.Test(jsonRequest(t, fiber.MethodGet, "/api/reports/", reporterToken, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// A moderator can.
	resp, err = app.Test(jsonRequest(t, fiber.MethodGet, "/api/reports/?status=open", moderatorToken, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Resolving the report removes the post and closes the report.
	url := fmt.Sprintf("/api/reports/%d/delete-target", report.ID)
	resp, err = app.Test(jsonRequest(t, fiber.MethodPost, url, moderatorToken, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var closed models.Report
	decodeBody(t, resp, &closed)
	assert.Equal(t, models.ReportStatusClosed, closed.Status)
	require.NotNil(t, closed.ReviewNote)
	assert.Equal(t, fmt.Sprintf("Target removed via report #%d.", report.ID), *closed.ReviewNote)

	resp, err = app.Test(jsonRequest(t, fiber.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), "", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// Acting again is a safe no-op.
	resp, err = app.Test(jsonRequest(t, fiber.MethodPost, url, moderatorToken, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestReportRoutesRequireAuth(t *testing.T) {
	_, app, _ := newTestServer(t)

	resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/api/reports/", "", fiber.Map{
		"target_type": "post",
		"target_id":   1,
		"reason":      "spam",
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
