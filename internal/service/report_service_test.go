package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"levelforum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReport(t *testing.T) {
	db, safe := newTestServices(t)
	topics := NewTopicService(db, safe)
	reports := NewReportService(db, safe)
	ctx := context.Background()

	author := createTestUser(t, db)
	reporter := createTestUser(t, db)
	topic := createTestTopic(t, db, topics, author.ID)
	post := createTestPost(t, db, topic.ID, author.ID)

	report, err := reports.CreateReport(ctx, reporter.ID, models.ContentTypePost, post.ID, "spam")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusOpen, report.Status)

	// Same reporter, same target, still open: rejected.
	_, err = reports.CreateReport(ctx, reporter.ID, models.ContentTypePost, post.ID, "spam again")
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	// A different reporter may pile on.
	other := createTestUser(t, db)
	_, err = reports.CreateReport(ctx, other.ID, models.ContentTypePost, post.ID, "also spam")
	assert.NoError(t, err)

	_, err = reports.CreateReport(ctx, reporter.ID, models.ContentTypePost, 999, "ghost")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	_, err = reports.CreateReport(ctx, reporter.ID, models.ContentTypeComment, post.ID, "wrong ledger")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	_, err = reports.CreateReport(ctx, reporter.ID, models.ContentTypePost, post.ID, "  ")
	assert.Equal(t, models.CodeInvalidInput, models.ErrorCode(err))

	// A deleted user cannot file reports.
	ghost := createTestUser(t, db)
	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", ghost.ID).
		Update("is_deleted", true).Error)
	_, err = reports.CreateReport(ctx, ghost.ID, models.ContentTypePost, post.ID, "haunting")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestReviewReportKeepsItOpen(t *testing.T) {
	db, safe := newTestServices(t)
	topics := NewTopicService(db, safe)
	reports := NewReportService(db, safe)
	ctx := context.Background()

	author := createTestUser(t, db)
	reporter := createTestUser(t, db)
	moderator := createTestUser(t, db)
	topic := createTestTopic(t, db, topics, author.ID)
	post := createTestPost(t, db, topic.ID, author.ID)

	report, err := reports.CreateReport(ctx, reporter.ID, models.ContentTypePost, post.ID, "spam")
	require.NoError(t, err)

	reviewed, err := reports.ReviewReport(ctx, report.ID, moderator.ID, "looks borderline")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusOpen, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedByID)
	assert.Equal(t, moderator.ID, *reviewed.ReviewedByID)
	require.NotNil(t, reviewed.ReviewNote)
	assert.Equal(t, "looks borderline", *reviewed.ReviewNote)
	assert.NotNil(t, reviewed.ReviewedAt)

	// Reviewing a closed report puts it back in the queue.
	_, err = reports.CloseReport(ctx, report.ID, moderator.ID, "done")
	require.NoError(t, err)
	reopened, err := reports.ReviewReport(ctx, report.ID, moderator.ID, "second look")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusOpen, reopened.Status)
}

func TestCloseReport(t *testing.T) {
	db, safe := newTestServices(t)
	topics := NewTopicService(db, safe)
	reports := NewReportService(db, safe)
	posts := NewPostService(db, safe)
	ctx := context.Background()

	author := createTestUser(t, db)
	reporter := createTestUser(t, db)
	moderator := createTestUser(t, db)
	topic := createTestTopic(t, db, topics, author.ID)
	post := createTestPost(t, db, topic.ID, author.ID)

	report, err := reports.CreateReport(ctx, reporter.ID, models.ContentTypePost, post.ID, "spam")
	require.NoError(t, err)

	closed, err := reports.CloseReport(ctx, report.ID, moderator.ID, "not actionable")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusClosed, closed.Status)

	// Closing leaves the target alone.
	_, err = posts.GetPost(ctx, post.ID, 0)
	assert.NoError(t, err)

	// Re-closing just re-stamps the reviewer and note.
	other := createTestUser(t, db)
	reclosed, err := reports.CloseReport(ctx, report.ID, other.ID, "seconded")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusClosed, reclosed.Status)
	require.NotNil(t, reclosed.ReviewedByID)
	assert.Equal(t, other.ID, *reclosed.ReviewedByID)
	require.NotNil(t, reclosed.ReviewNote)
	assert.Equal(t, "seconded", *reclosed.ReviewNote)
}

func TestDeleteReportTargetCascade(t *testing.T) {
	db, safe := newTestServices(t)
	topics := NewTopicService(db, safe)
	reports := NewReportService(db, safe)
	posts := NewPostService(db, safe)
	ctx := context.Background()

	author := createTestUser(t, db)
	moderator := createTestUser(t, db)
	topic := createTestTopic(t, db, topics, author.ID)
	post := createTestPost(t, db, topic.ID, author.ID)
	createTestComment(t, db, post.ID, author.ID, nil)

	var filed []*models.Report
	for i := 0; i < 3; i++ {
		reporter := createTestUser(t, db)
		r, err := reports.CreateReport(ctx, reporter.ID, models.ContentTypePost, post.ID, "spam")
		require.NoError(t, err)
		filed = append(filed, r)
	}

	acted, err := reports.DeleteReportTarget(ctx, filed[1].ID, moderator.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusClosed, acted.Status)

	// The post and its comments are gone.
	_, err = posts.GetPost(ctx, post.ID, 0)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	var liveComments int64
	require.NoError(t, db.Model(&models.Comment{}).
		Where("post_id = ? AND is_deleted = ?", post.ID, false).
		Count(&liveComments).Error)
	assert.EqualValues(t, 0, liveComments)

	// Every sibling report closed with a note naming the acted-on report.
	wantNote := fmt.Sprintf("Target removed via report #%d.", filed[1].ID)
	for _, r := range filed {
		got, err := reports.GetReport(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ReportStatusClosed, got.Status)
		require.NotNil(t, got.ReviewNote)
		assert.Equal(t, wantNote, *got.ReviewNote)
		require.NotNil(t, got.ReviewedByID)
		assert.Equal(t, moderator.ID, *got.ReviewedByID)
	}

	// Running it again is a safe no-op: nothing is open, the notes stand.
	again, err := reports.DeleteReportTarget(ctx, filed[1].ID, moderator.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusClosed, again.Status)
	require.NotNil(t, again.ReviewNote)
	assert.Equal(t, wantNote, *again.ReviewNote)
}

func TestDeleteReportTargetAlreadyRemoved(t *testing.T) {
	db, safe := newTestServices(t)
	topics := NewTopicService(db, safe)
	reports := NewReportService(db, safe)
	posts := NewPostService(db, safe)
	ctx := context.Background()

	author := createTestUser(t, db)
	reporter := createTestUser(t, db)
	moderator := createTestUser(t, db)
	topic := createTestTopic(t, db, topics, author.ID)
	post := createTestPost(t, db, topic.ID, author.ID)

	report, err := reports.CreateReport(ctx, reporter.ID, models.ContentTypePost, post.ID, "spam")
	require.NoError(t, err)
	require.NoError(t, posts.SoftDeletePost(ctx, post.ID))

	// Target gone out of band; the report still resolves.
	acted, err := reports.DeleteReportTarget(ctx, report.ID, moderator.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusClosed, acted.Status)
}

func TestListReports(t *testing.T) {
	db, safe := newTestServices(t)
	topics := NewTopicService(db, safe)
	reports := NewReportService(db, safe)
	ctx := context.Background()

	author := createTestUser(t, db)
	moderator := createTestUser(t, db)
	topic := createTestTopic(t, db, topics, author.ID)
	post := createTestPost(t, db, topic.ID, author.ID)
	comment := createTestComment(t, db, post.ID, author.ID, nil)

	r1, err := reports.CreateReport(ctx, createTestUser(t, db).ID, models.ContentTypePost, post.ID, "blatant spam")
	require.NoError(t, err)
	_, err = reports.CreateReport(ctx, createTestUser(t, db).ID, models.ContentTypeComment, comment.ID, "harassment")
	require.NoError(t, err)
	_, err = reports.CloseReport(ctx, r1.ID, moderator.ID, "done")
	require.NoError(t, err)

	open, err := reports.ListReports(ctx, models.ReportStatusOpen, "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, open.Total)

	all, err := reports.ListReports(ctx, "", "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.Total)

	// Substring search over the reason text, combinable with status.
	spam, err := reports.ListReports(ctx, "", "spam", 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, spam.Total)
	assert.Equal(t, r1.ID, spam.Items[0].ID)

	openSpam, err := reports.ListReports(ctx, models.ReportStatusOpen, "spam", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, openSpam.Total)

	_, err = reports.ListReports(ctx, models.ReportStatus("weird"), "", 1, 10)
	assert.Equal(t, models.CodeInvalidInput, models.ErrorCode(err))

	// Post id and comment id can collide; the tag keeps their reports apart.
	forPost, err := reports.ListReportsForTarget(ctx, models.ContentTypePost, post.ID)
	require.NoError(t, err)
	assert.Len(t, forPost, 1)
}

func TestGetReportTargetInfo(t *testing.T) {
	db, safe := newTestServices(t)
	topics := NewTopicService(db, safe)
	reports := NewReportService(db, safe)
	comments := NewCommentService(db, safe)
	ctx := context.Background()

	author := createTestUser(t, db)
	topic := createTestTopic(t, db, topics, author.ID)
	post := createTestPost(t, db, topic.ID, author.ID)
	comment := createTestComment(t, db, post.ID, author.ID, nil)

	postInfo, err := reports.GetReportTargetInfo(ctx, models.ContentTypePost, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, postInfo.PostID)
	assert.Equal(t, topic.ID, postInfo.TopicID)
	assert.Equal(t, author.ID, postInfo.AuthorID)
	assert.Contains(t, postInfo.Snippet, post.Title)

	commentInfo, err := reports.GetReportTargetInfo(ctx, models.ContentTypeComment, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, commentInfo.PostID)
	assert.Equal(t, topic.ID, commentInfo.TopicID)
	assert.Equal(t, comment.Body, commentInfo.Snippet)

	require.NoError(t, comments.SoftDeleteComment(ctx, comment.ID))
	_, err = reports.GetReportTargetInfo(ctx, models.ContentTypeComment, comment.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	long := models.Comment{PostID: post.ID, AuthorID: author.ID, Body: strings.Repeat("x", 400)}
	require.NoError(t, db.Create(&long).Error)
	longInfo, err := reports.GetReportTargetInfo(ctx, models.ContentTypeComment, long.ID)
	require.NoError(t, err)
	assert.Equal(t, 321, len([]rune(longInfo.Snippet)))
}
