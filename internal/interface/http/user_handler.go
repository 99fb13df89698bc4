package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/go-user-admin/internal/application"
	"github.com/oksasatya/go-user-admin/internal/domain/apperror"
	"github.com/oksasatya/go-user-admin/pkg/helpers"
	"github.com/oksasatya/go-user-admin/pkg/response"
	"github.com/oksasatya/go-user-admin/pkg/validation"
)

type UserHandler struct {
	Svc       *userapp.Service
	Validator *userapp.Validator
	Logger    *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, v *userapp.Validator, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Validator: v, Logger: logger}
}

type createUserRequest struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	BirthDate string  `json:"birthDate"`
	Phone     *string `json:"phone"`
}

type updateUserRequest struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	BirthDate string  `json:"birthDate"`
	Phone     *string `json:"phone"`
	Active    *bool   `json:"active"`
}

// parseBirthDate accepts a calendar date or an RFC 3339 timestamp. An empty
// value yields the zero time so the rule table reports it as missing.
func parseBirthDate(raw string) (time.Time, *validation.Violation) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(userapp.DateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, &validation.Violation{Field: "birthDate", Message: "birthDate must be a date in YYYY-MM-DD format"}
}

// withBirthDateIssue replaces any rule-table birthDate findings with the parse failure.
func withBirthDateIssue(vs []validation.Violation, parse *validation.Violation) []validation.Violation {
	if parse == nil {
		return vs
	}
	out := make([]validation.Violation, 0, len(vs)+1)
	for _, v := range vs {
		if v.Field != "birthDate" {
			out = append(out, v)
		}
	}
	return append(out, *parse)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, users, "users", map[string]any{"count": len(users)})
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}
	u, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if u == nil {
		h.fail(c, apperror.New(apperror.KindNotFound, "user not found"))
		return
	}
	response.Success(c, http.StatusOK, u, "user", nil)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, invalid("invalid payload", validation.ToDetails(err)))
		return
	}

	birth, parseIssue := parseBirthDate(req.BirthDate)
	if parseIssue == nil && !birth.IsZero() {
		if err := h.Svc.CheckAge(birth); err != nil {
			h.fail(c, err)
			return
		}
	}

	in := userapp.CreateUserInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		BirthDate: birth,
		Phone:     req.Phone,
	}
	if vs := withBirthDateIssue(h.Validator.ValidateCreate(in), parseIssue); len(vs) > 0 {
		h.fail(c, apperror.Validation(vs))
		return
	}

	u, err := h.Svc.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Location", "/api/users/"+strconv.FormatInt(u.ID, 10))
	response.Success(c, http.StatusCreated, u, "user created", nil)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, invalid("invalid payload", validation.ToDetails(err)))
		return
	}

	// age is checked by the service once the user is known to exist
	birth, parseIssue := parseBirthDate(req.BirthDate)
	in := userapp.UpdateUserInput{
		Name:      req.Name,
		Email:     req.Email,
		BirthDate: birth,
		Phone:     req.Phone,
		Active:    req.Active,
	}
	if vs := withBirthDateIssue(h.Validator.ValidateUpdate(in), parseIssue); len(vs) > 0 {
		h.fail(c, apperror.Validation(vs))
		return
	}

	u, err := h.Svc.Update(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, u, "user updated", nil)
}

func (h *UserHandler) Deactivate(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}
	found, err := h.Svc.Deactivate(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !found {
		h.fail(c, apperror.New(apperror.KindNotFound, "user not found"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) EmailExists(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		h.fail(c, invalid("email query parameter is required", []validation.Violation{{Field: "email", Message: "email is required"}}))
		return
	}
	exists, err := h.Svc.EmailExists(c.Request.Context(), email)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exists": exists}, "email check", nil)
}

func (h *UserHandler) userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.fail(c, invalid("invalid user id", []validation.Violation{{Field: "id", Message: "id must be a positive integer"}}))
		return 0, false
	}
	return id, true
}

func invalid(msg string, vs []validation.Violation) error {
	return &apperror.Error{Kind: apperror.KindValidation, Message: msg, Violations: vs}
}

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation, apperror.KindAgeRestriction:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindDuplicateEmail, apperror.KindInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as an envelope. Causes of server errors are logged, never returned.
func (h *UserHandler) fail(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		helpers.LogError(h.Logger, "user request failed", err, logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
			"kind":       kind.String(),
		})
		response.Error[any](c, status, "internal error", nil)
		return
	}

	var details any = gin.H{"kind": kind.String()}
	if vs := apperror.ViolationsOf(err); len(vs) > 0 {
		details = gin.H{"kind": kind.String(), "fields": vs}
	}
	response.Error[any](c, status, apperror.MessageOf(err), details)
}
