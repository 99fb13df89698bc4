package application

import (
	"strings"
	"time"

	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-user-admin/pkg/validation"
)

type CreateUserInput struct {
	Name      string
	Email     string
	Password  string
	BirthDate time.Time
	Phone     *string
}

// UpdateUserInput replaces the mutable profile fields of a user.
// Active is optional: nil keeps the current state, false deactivates.
type UpdateUserInput struct {
	Name      string
	Email     string
	BirthDate time.Time
	Phone     *string
	Active    *bool
}

func hasPhone(p *string) bool { return p != nil && *p != "" }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// normalizePhone maps an empty phone to absent.
func normalizePhone(p *string) *string {
	if !hasPhone(p) {
		return nil
	}
	s := strings.TrimSpace(*p)
	return &s
}

// profileRules are shared by create and update.
func profileRules[T any](name, email func(T) string, birth func(T) time.Time, phone func(T) *string) []validation.Rule[T] {
	return []validation.Rule[T]{
		{Field: "name", Value: func(in T) any { return name(in) }, Tag: "required", Message: "name is required"},
		{Field: "name", Value: func(in T) any { return name(in) }, Tag: "min=3,max=100", Message: "name must be between 3 and 100 characters"},
		{Field: "email", Value: func(in T) any { return email(in) }, Tag: "required", Message: "email is required"},
		{Field: "email", Value: func(in T) any { return email(in) }, Tag: "email", Message: "email is invalid"},
		{Field: "birthDate", Value: func(in T) any { return birth(in) }, Tag: "required", Message: "birthDate is required"},
		{Field: "birthDate", Value: func(in T) any { return birth(in) }, Tag: "past_date", Message: "birthDate cannot be in the future"},
		{
			Field:   "phone",
			Value:   func(in T) any { return deref(phone(in)) },
			Tag:     "regional_phone",
			Message: "phone must match the format (XX) XXXXX-XXXX",
			When:    func(in T) bool { return hasPhone(phone(in)) },
		},
	}
}

var createRules = append(
	profileRules(
		func(in CreateUserInput) string { return in.Name },
		func(in CreateUserInput) string { return in.Email },
		func(in CreateUserInput) time.Time { return in.BirthDate },
		func(in CreateUserInput) *string { return in.Phone },
	),
	validation.Rule[CreateUserInput]{Field: "password", Value: func(in CreateUserInput) any { return in.Password }, Tag: "required", Message: "password is required"},
	validation.Rule[CreateUserInput]{Field: "password", Value: func(in CreateUserInput) any { return in.Password }, Tag: "min=6", Message: "password must be at least 6 characters"},
)

var updateRules = profileRules(
	func(in UpdateUserInput) string { return in.Name },
	func(in UpdateUserInput) string { return in.Email },
	func(in UpdateUserInput) time.Time { return in.BirthDate },
	func(in UpdateUserInput) *string { return in.Phone },
)

// Validator checks the field-level shape of user input. Business rules
// (age, uniqueness) are enforced by Service, not here.
type Validator struct {
	engine *validation.Engine
}

func NewValidator(now func() time.Time) *Validator {
	return &Validator{engine: validation.NewEngine(now)}
}

func (v *Validator) ValidateCreate(in CreateUserInput) []validation.Violation {
	return validation.Evaluate(v.engine, createRules, in)
}

func (v *Validator) ValidateUpdate(in UpdateUserInput) []validation.Violation {
	return validation.Evaluate(v.engine, updateRules, in)
}

// UserView is the externally visible shape of a user. It never carries the password.
type UserView struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	BirthDate string     `json:"birthDate"`
	Phone     *string    `json:"phone"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

const DateLayout = "2006-01-02"

func ToView(u *entity.User) UserView {
	c := u.Clone()
	return UserView{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		BirthDate: c.BirthDate.Format(DateLayout),
		Phone:     c.Phone,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
