// Package memory is an in-process user store used for local runs and tests.
// It honors the same unit-of-work and email-uniqueness contract as the Postgres gateway.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-user-admin/internal/domain/repository"
)

type Store struct {
	mu     sync.RWMutex
	users  map[int64]*entity.User
	nextID int64
}

func NewStore() *Store {
	return &Store{users: make(map[int64]*entity.User)}
}

// Factory opens a new unit of work per call.
func (s *Store) Factory() repository.Factory {
	return func() repository.UserRepository { return &Session{store: s} }
}

type opKind int

const (
	opAdd opKind = iota
	opUpdate
)

type stagedOp struct {
	kind opKind
	user *entity.User // caller's pointer; ID is written back on add
	snap *entity.User // copy taken at staging time
}

// Session is a single unit of work against a Store.
type Session struct {
	store  *Store
	staged []stagedOp
}

var _ repository.UserRepository = (*Session)(nil)

func (r *Session) GetAll(ctx context.Context) ([]*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	ids := slices.Sorted(maps.Keys(r.store.users))
	out := make([]*entity.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.store.users[id].Clone())
	}
	return out, nil
}

func (r *Session) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.users[id].Clone(), nil
}

func (r *Session) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return findByEmail(r.store.users, email).Clone(), nil
}

func (r *Session) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, err := r.GetByEmail(ctx, email)
	return u != nil, err
}

func (r *Session) Add(ctx context.Context, u *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.staged = append(r.staged, stagedOp{kind: opAdd, user: u, snap: u.Clone()})
	return nil
}

func (r *Session) Update(ctx context.Context, u *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.staged = append(r.staged, stagedOp{kind: opUpdate, user: u, snap: u.Clone()})
	return nil
}

// Commit applies staged operations on a copy of the store and swaps it in
// only if every operation succeeded.
func (r *Session) Commit(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(r.staged) == 0 {
		return 0, nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	work := maps.Clone(r.store.users)
	nextID := r.store.nextID
	assigned := make(map[*entity.User]int64)
	for _, op := range r.staged {
		u := op.snap.Clone()
		switch op.kind {
		case opAdd:
			if findByEmail(work, u.Email) != nil {
				return 0, repository.ErrEmailTaken
			}
			nextID++
			u.ID = nextID
			assigned[op.user] = u.ID
		case opUpdate:
			if _, ok := work[u.ID]; !ok {
				return 0, repository.ErrNotFound
			}
			if owner := findByEmail(work, u.Email); owner != nil && owner.ID != u.ID {
				return 0, repository.ErrEmailTaken
			}
		}
		work[u.ID] = u
	}

	r.store.users = work
	r.store.nextID = nextID
	for u, id := range assigned {
		u.ID = id
	}
	n := len(r.staged)
	r.staged = nil
	return n, nil
}

func findByEmail(users map[int64]*entity.User, email string) *entity.User {
	for _, u := range users {
		if u.Email == email {
			return u
		}
	}
	return nil
}
