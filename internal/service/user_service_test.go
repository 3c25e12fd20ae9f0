package service

import (
	"context"
	"testing"

	"levelforum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	db, safe := newTestServices(t)
	users := NewUserService(db, safe)
	ctx := context.Background()

	user, err := users.CreateUser(ctx, CreateUserInput{
		Username:     "gopher",
		Email:        "gopher@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.GlobalRole)
	assert.Equal(t, 0, user.Experience)

	_, err = users.CreateUser(ctx, CreateUserInput{
		Username:     "gopher",
		Email:        "other@example.com",
		PasswordHash: "hash",
	})
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	_, err = users.CreateUser(ctx, CreateUserInput{
		Username:     "gopher2",
		Email:        "gopher@example.com",
		PasswordHash: "hash",
	})
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	_, err = users.CreateUser(ctx, CreateUserInput{
		Username:     "ab",
		Email:        "short@example.com",
		PasswordHash: "hash",
	})
	assert.Equal(t, models.CodeInvalidInput, models.ErrorCode(err))
}

func TestGetUserProfileDerivesLevel(t *testing.T) {
	db, safe := newTestServices(t)
	users := NewUserService(db, safe)
	ctx := context.Background()

	user := createTestUser(t, db)
	require.NoError(t, db.Model(user).Update("experience", 300).Error)

	profile, err := users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 300, profile.Experience)
	assert.Equal(t, 2, profile.Level)
	assert.Equal(t, 0.0, profile.ProgressToNext)

	byName, err := users.GetUserByUsername(ctx, user.Username)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, byName.ID)
}

func TestAddExperienceClampsAtZero(t *testing.T) {
	db, safe := newTestServices(t)
	users := NewUserService(db, safe)
	ctx := context.Background()

	user := createTestUser(t, db)
	require.NoError(t, users.AddExperience(ctx, user.ID, 150))
	require.NoError(t, users.AddExperience(ctx, user.ID, -500))
	assert.Equal(t, 0, experienceOf(t, db, user.ID))
}

func TestChangeUsername(t *testing.T) {
	db, safe := newTestServices(t)
	users := NewUserService(db, safe)
	ctx := context.Background()

	a := createTestUser(t, db)
	b := createTestUser(t, db)

	require.NoError(t, users.ChangeUsername(ctx, a.ID, "renamed"))

	err := users.ChangeUsername(ctx, b.ID, "renamed")
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	err = users.ChangeUsername(ctx, a.ID, "ab")
	assert.Equal(t, models.CodeInvalidInput, models.ErrorCode(err))
}

func TestSoftDeleteUserHidesProfile(t *testing.T) {
	db, safe := newTestServices(t)
	users := NewUserService(db, safe)
	ctx := context.Background()

	user := createTestUser(t, db)
	require.NoError(t, users.SoftDeleteUser(ctx, user.ID))

	_, err := users.GetUserByID(ctx, user.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	err = users.SoftDeleteUser(ctx, user.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestDefineTopicRoles(t *testing.T) {
	db, safe := newTestServices(t)
	users := NewUserService(db, safe)
	topics := NewTopicService(db, safe)
	ctx := context.Background()

	owner := createTestUser(t, db)
	mod := createTestUser(t, db)
	topic := createTestTopic(t, db, topics, owner.ID)

	err := users.DefineTopicRoles(ctx, topic.ID, []TopicRoleAssignment{
		{UserID: owner.ID, Role: models.RoleOwner},
		{UserID: mod.ID, Role: models.RoleModerator},
		{UserID: mod.ID, Role: models.RoleUser}, // duplicate keeps the first
	})
	require.NoError(t, err)

	roles, err := users.GetTopicRoles(ctx, topic.ID)
	require.NoError(t, err)
	require.Len(t, roles, 2)

	byUser := map[uint]models.Role{}
	for _, r := range roles {
		byUser[r.UserID] = r.Role
	}
	assert.Equal(t, models.RoleOwner, byUser[owner.ID])
	assert.Equal(t, models.RoleModerator, byUser[mod.ID])

	err = users.DefineTopicRoles(ctx, topic.ID, []TopicRoleAssignment{{UserID: 999, Role: models.RoleUser}})
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	err = users.DefineTopicRoles(ctx, 999, nil)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}
