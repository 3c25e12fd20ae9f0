package server

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndLogin(t *testing.T) {
	_, app, _ := newTestServer(t)

	resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/api/auth/signup", "", fiber.Map{
		"username": "newuser",
		"email":    "newuser@example.com",
		"password": "hunter2hunter2",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created authResponse
	decodeBody(t, resp, &created)
	assert.NotEmpty(t, created.Token)
	require.NotNil(t, created.User)

	// The issued token works against a protected route.
	resp, err = app.Test(jsonRequest(t, fiber.MethodGet, "/api/me/", created.Token, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Wrong password is rejected without leaking which field was wrong.
	resp, err = app.Test(jsonRequest(t, fiber.MethodPost, "/api/auth/login", "", fiber.Map{
		"username": "newuser",
		"password": "wrong",
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, fiber.MethodPost, "/api/auth/login", "", fiber.Map{
		"username": "newuser",
		"password": "hunter2hunter2",
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Short passwords never reach the service layer.
	resp, err = app.Test(jsonRequest(t, fiber.MethodPost, "/api/auth/signup", "", fiber.Map{
		"username": "another",
		"email":    "another@example.com",
		"password": "short",
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
