package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for the user domain.
// Email is always held in its normalized form (see NormalizeEmail).
// Records are never erased; Active=false is the terminal state.
type User struct {
	ID        int64
	Name      string
	Email     string
	Password  string
	BirthDate time.Time
	Phone     *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// NormalizeEmail returns the canonical form used for storage and uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AgeOn returns the number of full years between birth and now, counting a
// birthday as reached on its calendar day.
func AgeOn(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// Clone returns a deep copy so callers can mutate it without touching shared state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Phone != nil {
		p := *u.Phone
		c.Phone = &p
	}
	if u.UpdatedAt != nil {
		t := *u.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}
