package validation

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// Violation is a single field-level rule failure.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Rule is one row of a declarative rule table: the value extracted from the
// input is checked against a validator tag, and Message is reported on failure.
// When, if set, guards the rule (used for optional fields).
type Rule[T any] struct {
	Field   string
	Value   func(T) any
	Tag     string
	Message string
	When    func(T) bool
}

// regional phone: (optional parens)2 digits(optional separator)4-5 digits(optional hyphen)4 digits
var regionalPhoneRe = regexp.MustCompile(`^\(?\d{2}\)?[\s-]?\d{4,5}-?\d{4}$`)

// Engine evaluates rule tables with a shared validator instance.
// Custom tags:
//   - past_date: a time.Time strictly earlier than today's date
//   - regional_phone: loose regional mobile/landline format
type Engine struct {
	v   *validator.Validate
	now func() time.Time
}

// NewEngine builds an Engine. now defaults to time.Now.
func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	e := &Engine{v: validator.New(), now: now}
	_ = e.v.RegisterValidation("past_date", e.pastDate)
	_ = e.v.RegisterValidation("regional_phone", func(fl validator.FieldLevel) bool {
		return regionalPhoneRe.MatchString(fl.Field().String())
	})
	return e
}

func (e *Engine) pastDate(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	now := e.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.Before(today)
}

// Evaluate runs every rule against in and returns all violations in table order.
// It never stops at the first failure. An empty result means the input is acceptable.
func Evaluate[T any](e *Engine, rules []Rule[T], in T) []Violation {
	out := make([]Violation, 0)
	for _, r := range rules {
		if r.When != nil && !r.When(in) {
			continue
		}
		if err := e.v.Var(r.Value(in), r.Tag); err != nil {
			out = append(out, Violation{Field: r.Field, Message: r.Message})
		}
	}
	return out
}

// ToDetails converts a request decoding error into violations suitable for error responses.
func ToDetails(err error) []Violation {
	if err == nil {
		return nil
	}

	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		return []Violation{{Field: ute.Field, Message: "has an invalid type"}}
	}

	var se *json.SyntaxError
	if errors.As(err, &se) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return []Violation{{Field: "payload", Message: "invalid json"}}
	}

	return []Violation{{Field: "payload", Message: "invalid payload"}}
}
