package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"levelforum/internal/config"
	"levelforum/internal/database"
	"levelforum/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestServer(t *testing.T) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Port:      "8390",
		JWTSecret: "test-secret",
		Env:       "test",
	}

	srv := NewServerWithDeps(cfg, db, nil)
	app := fiber.New()
	srv.SetupRoutes(app)
	return srv, app, db
}

var serverUserSeq int

func createServerUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	serverUserSeq++
	user := models.User{
		Username:     fmt.Sprintf("handler%d", serverUserSeq),
		Email:        fmt.Sprintf("handler%d@example.com", serverUserSeq),
		PasswordHash: "x",
		GlobalRole:   role,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func tokenFor(t *testing.T, srv *Server, user *models.User) string {
	t.Helper()
	token, err := srv.issueToken(user)
	require.NoError(t, err)
	return token
}

func jsonRequest(t *testing.T, method, path, token string, body any) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestNewServerWithDepsReentrant(t *testing.T) {
	// Metrics registration must not panic when a second server is built in
	// the same process.
	newTestServer(t)
	newTestServer(t)
}
