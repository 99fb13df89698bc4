package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-user-admin/internal/domain/repository"
)

func TestTranslateErr_UniqueViolation(t *testing.T) {
	err := translateErr(fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}))
	require.ErrorIs(t, err, repository.ErrEmailTaken)
	assert.Contains(t, err.Error(), "users_email_key")
}

func TestTranslateErr_Passthrough(t *testing.T) {
	require.ErrorIs(t, translateErr(repository.ErrNotFound), repository.ErrNotFound)

	boom := errors.New("connection reset")
	err := translateErr(boom)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, repository.ErrEmailTaken)
}

func TestCommit_NothingStaged(t *testing.T) {
	n, err := NewUserRepository(nil).Commit(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

// TestUserRepositoryIntegration runs against a migrated database.
func TestUserRepositoryIntegration(t *testing.T) {
	if os.Getenv("RUN_PG_INTEGRATION") != "true" {
		t.Skip("set RUN_PG_INTEGRATION=true and DATABASE_URL to run this integration test")
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn, 4, 1, time.Hour)
	require.NoError(t, err)
	defer pool.Close()

	email := fmt.Sprintf("it_%d@example.com", time.Now().UnixNano())
	phone := "(11) 98765-4321"
	u := &entity.User{
		Name:      "Integration User",
		Email:     email,
		Password:  "secret1",
		BirthDate: time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC),
		Phone:     &phone,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}

	repo := NewUserRepository(pool)
	require.NoError(t, repo.Add(ctx, u))
	n, err := repo.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NotZero(t, u.ID)

	got, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.Phone)
	assert.Equal(t, phone, *got.Phone)
	assert.Nil(t, got.UpdatedAt)

	dup := *u
	dup.ID = 0
	again := NewUserRepository(pool)
	require.NoError(t, again.Add(ctx, &dup))
	_, err = again.Commit(ctx)
	require.ErrorIs(t, err, repository.ErrEmailTaken)

	stamp := time.Now().UTC()
	got.Active = false
	got.UpdatedAt = &stamp
	upd := NewUserRepository(pool)
	require.NoError(t, upd.Update(ctx, got))
	_, err = upd.Commit(ctx)
	require.NoError(t, err)

	reloaded, err := upd.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Active)
	assert.NotNil(t, reloaded.UpdatedAt)

	missing, err := upd.GetByID(ctx, -1)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
