package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
)

var (
	// ErrEmailTaken is returned by Commit when the store rejects a write because
	// another record already owns the normalized email.
	ErrEmailTaken = errors.New("email already taken")
	// ErrNotFound is returned by Commit when a staged update targets a record that no longer exists.
	ErrNotFound = errors.New("user not found")
)

// UserRepository is a unit of work over user records.
// Reads go straight to the store and return nil, nil when nothing matches.
// Add and Update only stage changes; Commit applies everything staged since
// the last commit atomically and reports the number of affected records.
type UserRepository interface {
	GetAll(ctx context.Context) ([]*entity.User, error)
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Add(ctx context.Context, u *entity.User) error
	Update(ctx context.Context, u *entity.User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Commit(ctx context.Context) (int, error)
}

// Factory opens a fresh unit of work. Implementations must be safe to call concurrently.
type Factory func() UserRepository
