package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-user-admin/internal/domain/repository"
)

const uniqueViolation = "23505"

const userColumns = `id, name, email, password, birth_date, phone, active, created_at, updated_at`

// UserRepository is a unit of work backed by a pgx pool. Reads run on the
// pool; staged writes run inside a single transaction on Commit.
type UserRepository struct {
	pool   *pgxpool.Pool
	staged []stagedWrite
}

type stagedWrite struct {
	insert bool
	user   *entity.User
	snap   entity.User
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// NewUserRepositoryFactory opens one UserRepository per unit of work.
func NewUserRepositoryFactory(pool *pgxpool.Pool) repository.Factory {
	return func() repository.UserRepository { return NewUserRepository(pool) }
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.BirthDate, &u.Phone,
		&u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) queryOne(ctx context.Context, sql string, arg any) (*entity.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, sql, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetAll(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *UserRepository) Add(_ context.Context, u *entity.User) error {
	r.staged = append(r.staged, stagedWrite{insert: true, user: u, snap: *u.Clone()})
	return nil
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	r.staged = append(r.staged, stagedWrite{user: u, snap: *u.Clone()})
	return nil
}

// Commit runs every staged write in one transaction. Generated ids are only
// written back to the staged entities once the transaction has committed.
func (r *UserRepository) Commit(ctx context.Context) (int, error) {
	if len(r.staged) == 0 {
		return 0, nil
	}

	affected := 0
	ids := make([]int64, len(r.staged))
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for i, w := range r.staged {
			u := w.snap
			if w.insert {
				if err := tx.QueryRow(ctx, `
					INSERT INTO users (name, email, password, birth_date, phone, active, created_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7)
					RETURNING id
				`, u.Name, u.Email, u.Password, u.BirthDate, u.Phone, u.Active, u.CreatedAt).Scan(&ids[i]); err != nil {
					return err
				}
				affected++
				continue
			}
			tag, err := tx.Exec(ctx, `
				UPDATE users
				SET name = $1, email = $2, birth_date = $3, phone = $4, active = $5, updated_at = $6
				WHERE id = $7
			`, u.Name, u.Email, u.BirthDate, u.Phone, u.Active, u.UpdatedAt, u.ID)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return repository.ErrNotFound
			}
			affected += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, translateErr(err)
	}

	for i, w := range r.staged {
		if w.insert {
			w.user.ID = ids[i]
		}
	}
	r.staged = nil
	return affected, nil
}

// translateErr maps the users.email unique constraint onto repository.ErrEmailTaken.
func translateErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrEmailTaken, pgErr.ConstraintName)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return fmt.Errorf("commit users: %w", err)
}

var _ repository.UserRepository = (*UserRepository)(nil)
