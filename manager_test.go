package users_test

import (
	"context"
	"testing"

	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *users.AccountManager {
	t.Helper()

	db := setupTestDB(t)
	repo := users.NewRepositoryManager(db)
	repo.MustValidate()

	return users.NewAccountManager(repo)
}

func strptr(s string) *string { return &s }

func TestAccountLifecycle(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	user := createTestUser(t, manager, users.CreateUserMessage{
		Name:     "Ini",
		Email:    "ini@ini.com",
		Password: "password",
	})

	assert.Equal(t, "Ini", user.Name)
	assert.Equal(t, "ini@ini.com", user.Email)
	assert.False(t, user.IsAdmin, "accounts are regular members unless said otherwise")
	assert.False(t, user.EmailConfirmed)

	t.Run("find by id", func(t *testing.T) {
		found, err := manager.FindUser(ctx, users.UserLookup{ID: user.ID})
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "ini@ini.com", found.Email)
	})

	t.Run("update name", func(t *testing.T) {
		res, err := manager.UpdateUser(ctx, users.UpdateUserMessage{
			ID:   user.ID,
			Name: strptr("Ini Renamed"),
		})
		require.NoError(t, err)
		assert.Equal(t, users.OutcomeApplied, res.Outcome)
		require.NotNil(t, res.User)
		assert.Equal(t, "Ini Renamed", res.User.Name)
		assert.Equal(t, "ini@ini.com", res.User.Email, "email is immutable")
	})

	t.Run("update password", func(t *testing.T) {
		res, err := manager.UpdateUser(ctx, users.UpdateUserMessage{
			ID:       user.ID,
			Password: strptr("new-password"),
		})
		require.NoError(t, err)
		assert.Equal(t, users.OutcomeApplied, res.Outcome)

		reloaded, err := manager.FindUser(ctx, users.UserLookup{
			ID:                 user.ID,
			IncludeCredentials: true,
		})
		require.NoError(t, err)
		require.NotNil(t, reloaded.Credentials)
		assert.True(t, users.VerifyPassword("new-password", reloaded.Credentials.Hash))
		assert.False(t, users.VerifyPassword("password", reloaded.Credentials.Hash))
	})

	t.Run("update with no fields is a no-op", func(t *testing.T) {
		res, err := manager.UpdateUser(ctx, users.UpdateUserMessage{ID: user.ID})
		require.NoError(t, err)
		assert.Equal(t, users.OutcomeApplied, res.Outcome)
		require.NotNil(t, res.User)
		assert.Equal(t, "Ini Renamed", res.User.Name)
	})

	t.Run("delete writes the sentinels", func(t *testing.T) {
		res, err := manager.DeleteUser(ctx, users.DeleteUserMessage{ID: user.ID})
		require.NoError(t, err)
		assert.Equal(t, users.OutcomeApplied, res.Outcome)
		require.NotNil(t, res.User)
		assert.Equal(t, user.ID, res.User.ID)
		assert.Equal(t, users.DeletedUserName, res.User.Name)
		assert.Equal(t, users.DeletedUserEmail, res.User.Email)
		assert.Nil(t, res.User.CredentialsID)
	})

	t.Run("old email no longer resolves", func(t *testing.T) {
		found, err := manager.FindUser(ctx, users.UserLookup{Email: "ini@ini.com"})
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		res, err := manager.DeleteUser(ctx, users.DeleteUserMessage{ID: user.ID})
		require.NoError(t, err)
		assert.Equal(t, users.OutcomeAlreadyDeleted, res.Outcome)
		assert.Nil(t, res.User)
	})

	t.Run("deleted accounts are never resurrected", func(t *testing.T) {
		res, err := manager.UpdateUser(ctx, users.UpdateUserMessage{
			ID:   user.ID,
			Name: strptr("Lazarus"),
		})
		require.NoError(t, err)
		assert.Equal(t, users.OutcomeAlreadyDeleted, res.Outcome)
		assert.Nil(t, res.User)

		reloaded, err := manager.FindUser(ctx, users.UserLookup{ID: user.ID})
		require.NoError(t, err)
		require.NotNil(t, reloaded)
		assert.Equal(t, users.DeletedUserName, reloaded.Name)
	})
}

func TestCreateUserRejectsEmptyPassword(t *testing.T) {
	manager := newTestManager(t)

	_, err := manager.CreateUser(context.Background(), users.CreateUserMessage{
		Name:  "No Password",
		Email: "nopass@example.com",
	})
	assert.Error(t, err)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	createTestUser(t, manager, users.CreateUserMessage{
		Name:     "First",
		Email:    "same@example.com",
		Password: "password",
	})

	_, err := manager.CreateUser(ctx, users.CreateUserMessage{
		Name:     "Second",
		Email:    "same@example.com",
		Password: "password",
	})
	assert.Error(t, err)
}

func TestUpdateUserNotFound(t *testing.T) {
	manager := newTestManager(t)

	res, err := manager.UpdateUser(context.Background(), users.UpdateUserMessage{
		ID:   404,
		Name: strptr("Nobody"),
	})
	require.NoError(t, err)
	assert.Equal(t, users.OutcomeNotFound, res.Outcome)
	assert.Nil(t, res.User)
}

func TestDeleteUserNotFound(t *testing.T) {
	manager := newTestManager(t)

	res, err := manager.DeleteUser(context.Background(), users.DeleteUserMessage{ID: 404})
	require.NoError(t, err)
	assert.Equal(t, users.OutcomeNotFound, res.Outcome)
	assert.Nil(t, res.User)
}

func TestFindUsers(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	createTestUser(t, manager, users.CreateUserMessage{
		Name: "Admin", Email: "admin@example.com", Password: "password", Admin: true,
	})
	createTestUser(t, manager, users.CreateUserMessage{
		Name: "Member", Email: "member@example.com", Password: "password",
	})

	records, err := manager.FindUsers(ctx, users.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = manager.FindUsers(ctx, users.UserFilter{Email: "admin@"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].IsAdmin)
}
