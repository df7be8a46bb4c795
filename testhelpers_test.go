package users_test

import (
	"context"
	"database/sql"
	"testing"

	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	// A single connection keeps the in-memory database alive for the test.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()

	_, err = db.NewCreateTable().
		Model((*users.Credentials)(nil)).
		IfNotExists().
		Exec(ctx)
	require.NoError(t, err)

	_, err = db.NewCreateTable().
		Model((*users.User)(nil)).
		IfNotExists().
		WithForeignKeys().
		Exec(ctx)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newTestConfig() *users.EnvConfig {
	return &users.EnvConfig{
		SigningKey:      "test-signing-key",
		TokenExpiration: 1,
		Issuer:          "go-users-test",
	}
}

func createTestUser(t *testing.T, m *users.AccountManager, msg users.CreateUserMessage) *users.User {
	t.Helper()

	user, err := m.CreateUser(context.Background(), msg)
	require.NoError(t, err)
	require.NotZero(t, user.ID)

	return user
}
