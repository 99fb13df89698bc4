package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-admin/internal/domain/apperror"
	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-user-admin/internal/domain/event"
	repo "github.com/oksasatya/go-user-admin/internal/domain/repository"
)

const DefaultMinimumAge = 18

// EventPublisher receives lifecycle events after a successful commit.
type EventPublisher interface {
	Publish(ctx context.Context, ev event.UserEvent) error
}

// UserIndexer mirrors committed user views into a search index.
type UserIndexer interface {
	Index(ctx context.Context, v UserView) error
}

// PasswordHasher transforms a password before it is stored.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// Service orchestrates the user lifecycle. Each operation opens its own unit of work from Repos.
type Service struct {
	Repos  repo.Factory
	Logger *logrus.Logger
	Events EventPublisher
	Search UserIndexer
	Hasher PasswordHasher
	MinAge int
	Now    func() time.Time
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithEvents publishes lifecycle events after each commit.
func WithEvents(p EventPublisher) Option { return func(s *Service) { s.Events = p } }

// WithIndexer mirrors committed users into a search index.
func WithIndexer(i UserIndexer) Option { return func(s *Service) { s.Search = i } }

// WithPasswordHasher hashes passwords before they are stored.
func WithPasswordHasher(h PasswordHasher) Option { return func(s *Service) { s.Hasher = h } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.Now = now } }

// WithMinimumAge sets the minimum age in years. Non-positive values keep the default.
func WithMinimumAge(years int) Option {
	return func(s *Service) {
		if years > 0 {
			s.MinAge = years
		}
	}
}

// NewService builds a Service with an 18-year minimum age and the system clock.
func NewService(repos repo.Factory, logger *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		Repos:  repos,
		Logger: logger,
		MinAge: DefaultMinimumAge,
		Now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Logger == nil {
		s.Logger = logrus.New()
	}
	return s
}

func (s *Service) now() time.Time { return s.Now().UTC() }

// List returns every stored user in gateway order, active and inactive alike.
func (s *Service) List(ctx context.Context) ([]UserView, error) {
	users, err := s.Repos().GetAll(ctx)
	if err != nil {
		return nil, persistenceErr("list users", err)
	}
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, ToView(u))
	}
	return out, nil
}

// Get returns nil, nil when the id does not exist.
func (s *Service) Get(ctx context.Context, id int64) (*UserView, error) {
	u, err := s.Repos().GetByID(ctx, id)
	if err != nil {
		return nil, persistenceErr("get user", err)
	}
	if u == nil {
		return nil, nil
	}
	v := ToView(u)
	return &v, nil
}

func (s *Service) Create(ctx context.Context, in CreateUserInput) (*UserView, error) {
	now := s.now()
	if err := s.ageOn(in.BirthDate, now); err != nil {
		return nil, err
	}

	email := entity.NormalizeEmail(in.Email)
	r := s.Repos()
	existing, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, persistenceErr("lookup email", err)
	}
	if existing != nil {
		return nil, apperror.New(apperror.KindDuplicateEmail, "email already registered")
	}

	password := in.Password
	if s.Hasher != nil {
		if password, err = s.Hasher.Hash(in.Password); err != nil {
			return nil, apperror.Wrap(apperror.KindUnknown, "hash password", err)
		}
	}

	u := &entity.User{
		Name:      in.Name,
		Email:     email,
		Password:  password,
		BirthDate: in.BirthDate,
		Phone:     normalizePhone(in.Phone),
		Active:    true,
		CreatedAt: now,
	}
	if err := r.Add(ctx, u); err != nil {
		return nil, persistenceErr("stage user", err)
	}
	if err := commit(ctx, r); err != nil {
		return nil, err
	}

	recordOp("created")
	s.Logger.WithField("user_id", u.ID).Info("user created")
	v := ToView(u)
	s.afterCommit(ctx, v, event.UserCreated)
	return &v, nil
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateUserInput) (*UserView, error) {
	r := s.Repos()
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, persistenceErr("get user", err)
	}
	if u == nil {
		return nil, apperror.New(apperror.KindNotFound, "user not found")
	}

	now := s.now()
	if err := s.ageOn(in.BirthDate, now); err != nil {
		return nil, err
	}

	email := entity.NormalizeEmail(in.Email)
	owner, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, persistenceErr("lookup email", err)
	}
	if owner != nil && owner.ID != u.ID {
		return nil, apperror.New(apperror.KindDuplicateEmail, "email already registered by another user")
	}
	if in.Active != nil && *in.Active && !u.Active {
		return nil, apperror.New(apperror.KindInvalidTransition, "inactive users cannot be reactivated")
	}

	wasActive := u.Active
	u.Name = in.Name
	u.Email = email
	u.BirthDate = in.BirthDate
	u.Phone = normalizePhone(in.Phone)
	if in.Active != nil && !*in.Active {
		u.Active = false
	}
	u.UpdatedAt = &now

	if err := r.Update(ctx, u); err != nil {
		return nil, persistenceErr("stage user", err)
	}
	if err := commit(ctx, r); err != nil {
		return nil, err
	}

	recordOp("updated")
	s.Logger.WithField("user_id", u.ID).Info("user updated")
	v := ToView(u)
	if wasActive && !u.Active {
		s.afterCommit(ctx, v, event.UserUpdated, event.UserDeactivated)
	} else {
		s.afterCommit(ctx, v, event.UserUpdated)
	}
	return &v, nil
}

// Deactivate soft-deletes a user. It reports false, nil when the id does not exist.
// Deactivating an inactive user succeeds and re-stamps updatedAt.
func (s *Service) Deactivate(ctx context.Context, id int64) (bool, error) {
	r := s.Repos()
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return false, persistenceErr("get user", err)
	}
	if u == nil {
		return false, nil
	}

	now := s.now()
	u.Active = false
	u.UpdatedAt = &now
	if err := r.Update(ctx, u); err != nil {
		return false, persistenceErr("stage user", err)
	}
	if err := commit(ctx, r); err != nil {
		return false, err
	}

	recordOp("deactivated")
	s.Logger.WithField("user_id", u.ID).Info("user deactivated")
	s.afterCommit(ctx, ToView(u), event.UserDeactivated)
	return true, nil
}

func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	ok, err := s.Repos().ExistsByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		return false, persistenceErr("check email", err)
	}
	return ok, nil
}

// CheckAge reports KindAgeRestriction when birth is less than MinAge years ago.
// The create transport calls it before shape validation.
func (s *Service) CheckAge(birth time.Time) error {
	return s.ageOn(birth, s.now())
}

func (s *Service) ageOn(birth, now time.Time) error {
	if entity.AgeOn(birth, now) < s.MinAge {
		return apperror.New(apperror.KindAgeRestriction, fmt.Sprintf("user must be at least %d years old", s.MinAge))
	}
	return nil
}

// commit refuses to apply staged work once ctx is done.
func commit(ctx context.Context, r repo.UserRepository) error {
	if err := ctx.Err(); err != nil {
		return apperror.Wrap(apperror.KindPersistence, "unit of work abandoned", err)
	}
	if _, err := r.Commit(ctx); err != nil {
		return persistenceErr("commit", err)
	}
	return nil
}

func persistenceErr(op string, err error) error {
	switch {
	case errors.Is(err, repo.ErrEmailTaken):
		return apperror.Wrap(apperror.KindDuplicateEmail, "email already registered", err)
	case errors.Is(err, repo.ErrNotFound):
		return apperror.Wrap(apperror.KindNotFound, "user not found", err)
	default:
		return apperror.Wrap(apperror.KindPersistence, op, err)
	}
}

// afterCommit feeds side channels. Failures are logged and never fail the operation.
func (s *Service) afterCommit(ctx context.Context, v UserView, types ...event.Type) {
	if s.Events != nil {
		for _, typ := range types {
			ev := event.UserEvent{
				Type:       typ,
				UserID:     v.ID,
				Name:       v.Name,
				Email:      v.Email,
				Active:     v.Active,
				OccurredAt: s.now(),
			}
			if err := s.Events.Publish(ctx, ev); err != nil {
				s.Logger.WithError(err).WithFields(logrus.Fields{"user_id": v.ID, "event": typ}).Warn("publish user event failed")
			}
		}
	}
	if s.Search != nil {
		if err := s.Search.Index(ctx, v); err != nil {
			s.Logger.WithError(err).WithField("user_id", v.ID).Warn("index user failed")
		}
	}
}
