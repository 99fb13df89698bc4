package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userapp "github.com/oksasatya/go-user-admin/internal/application"
	"github.com/oksasatya/go-user-admin/internal/domain/entity"
	"github.com/oksasatya/go-user-admin/internal/domain/repository"
	"github.com/oksasatya/go-user-admin/internal/infrastructure/memory"
	"github.com/oksasatya/go-user-admin/pkg/validation"
)

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Kind   string                 `json:"kind"`
		Fields []validation.Violation `json:"fields"`
	} `json:"error"`
}

func fixedNow() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

func newRouter(repos repository.Factory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := userapp.NewService(repos, logger, userapp.WithClock(fixedNow))
	h := NewUserHandler(svc, userapp.NewValidator(fixedNow), logger)

	r := gin.New()
	g := r.Group("/api/users")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/email-exists", h.EmailExists)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Deactivate)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func anaBody() map[string]any {
	return map[string]any{
		"name":      "Ana Silva",
		"email":     "Ana@Mail.com",
		"password":  "secret1",
		"birthDate": "2000-01-01",
		"phone":     "(11) 98765-4321",
	}
}

func listLen(t *testing.T, r http.Handler) int {
	t.Helper()
	w, env := do(t, r, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []userapp.UserView
	require.NoError(t, json.Unmarshal(env.Data, &users))
	return len(users)
}

func TestCreate_Created(t *testing.T) {
	r := newRouter(memory.NewStore().Factory())

	w, env := do(t, r, http.MethodPost, "/api/users", anaBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/api/users/1", w.Header().Get("Location"))
	assert.True(t, env.Success)

	var got map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "ana@mail.com", got["email"])
	assert.Equal(t, "2000-01-01", got["birthDate"])
	assert.Equal(t, true, got["active"])
	assert.NotContains(t, got, "password")
	assert.NotContains(t, got, "updatedAt")
}

func TestCreate_UnderageIsBadRequest(t *testing.T) {
	r := newRouter(memory.NewStore().Factory())

	body := map[string]any{"name": "", "email": "nope", "birthDate": "2014-06-01", "phone": "1"}
	w, env := do(t, r, http.MethodPost, "/api/users", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "age_restriction", env.Error.Kind)
	assert.Equal(t, 0, listLen(t, r))
}

func TestCreate_InvalidPhoneCreatesNothing(t *testing.T) {
	r := newRouter(memory.NewStore().Factory())

	body := anaBody()
	body["phone"] = "12345"
	w, env := do(t, r, http.MethodPost, "/api/users", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", env.Error.Kind)
	assert.Equal(t, []validation.Violation{{Field: "phone", Message: "phone must match the format (XX) XXXXX-XXXX"}}, env.Error.Fields)
	assert.Equal(t, 0, listLen(t, r))
}

func TestCreate_BadBirthDateFormat(t *testing.T) {
	r := newRouter(memory.NewStore().Factory())

	body := anaBody()
	body["birthDate"] = "01/02/2000"
	w, env := do(t, r, http.MethodPost, "/api/users", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, env.Error.Fields, 1)
	assert.Equal(t, "birthDate", env.Error.Fields[0].Field)
}

func TestCreate_AcceptsTimestampBirthDate(t *testing.T) {
	r := newRouter(memory.NewStore().Factory())

	body := anaBody()
	body["birthDate"] = "2000-01-01T00:00:00Z"
	w, _ := do(t, r, http.MethodPost, "/api/users", body)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreate_MalformedJSON(t *testing.T) {
	r := newRouter(memory.NewStore().Factory())

	w, env := do(t, r, http.MethodPost, "/api/users", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestCreate_DuplicateEmailConflict(t *testing.T) {
	r := newRouter(memory.NewStore().Factory())

	w, _ := do(t, r, http.MethodPost, "/api/users", anaBody())
	require.Equal(t, http.StatusCreated, w.Code)

	body := anaBody()
	body["email"] = "ANA@mail.com"
	w, env := do(t, r, http.MethodPost, "/api/users", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_email", env.Error.Kind)
}

func TestGet(t *testing.T) {
	r := newRouter(memory.NewStore().Factory())
	do(t, r, http.MethodPost, "/api/users", anaBody())

	w, _ := do(t, r, http.MethodGet, "/api/users/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/users/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/users/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdate(t *testing.T) {
	r := newRouter(memory.NewStore().Factory())
	do(t, r, http.MethodPost, "/api/users", anaBody())

	body := map[string]any{"name": "Ana Souza", "email": "ana@mail.com", "birthDate": "2000-01-01"}
	w, env := do(t, r, http.MethodPut, "/api/users/1", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got userapp.UserView
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "Ana Souza", got.Name)
	assert.Nil(t, got.Phone)
	require.NotNil(t, got.UpdatedAt)

	w, _ = do(t, r, http.MethodPut, "/api/users/42", body)
	assert.Equal(t, http.StatusNotFound, w.Code)

	body["birthDate"] = "2014-06-01"
	w, env = do(t, r, http.MethodPut, "/api/users/1", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "age_restriction", env.Error.Kind)
}

func TestUpdate_MissingUserIsNotFoundBeforeAgeCheck(t *testing.T) {
	r := newRouter(memory.NewStore().Factory())

	body := map[string]any{"name": "Kid Silva", "email": "kid@mail.com", "birthDate": "2014-06-01"}
	w, env := do(t, r, http.MethodPut, "/api/users/42", body)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", env.Error.Kind)
}

func TestUpdate_ReactivationConflict(t *testing.T) {
	r := newRouter(memory.NewStore().Factory())
	do(t, r, http.MethodPost, "/api/users", anaBody())

	w, _ := do(t, r, http.MethodDelete, "/api/users/1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	body := map[string]any{"name": "Ana Silva", "email": "ana@mail.com", "birthDate": "2000-01-01", "active": true}
	w, env := do(t, r, http.MethodPut, "/api/users/1", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_transition", env.Error.Kind)
}

func TestDeactivate(t *testing.T) {
	r := newRouter(memory.NewStore().Factory())
	do(t, r, http.MethodPost, "/api/users", anaBody())

	w, _ := do(t, r, http.MethodDelete, "/api/users/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, w.Body.Len())

	w, _ = do(t, r, http.MethodDelete, "/api/users/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = do(t, r, http.MethodDelete, "/api/users/7", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, env := do(t, r, http.MethodGet, "/api/users/1", nil)
	var got userapp.UserView
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.False(t, got.Active)
	assert.Equal(t, 1, listLen(t, r))
}

func TestEmailExists(t *testing.T) {
	r := newRouter(memory.NewStore().Factory())
	do(t, r, http.MethodPost, "/api/users", anaBody())

	_, env := do(t, r, http.MethodGet, "/api/users/email-exists?email=ANA@mail.com", nil)
	assert.JSONEq(t, `{"exists":true}`, string(env.Data))

	_, env = do(t, r, http.MethodGet, "/api/users/email-exists?email=bob@mail.com", nil)
	assert.JSONEq(t, `{"exists":false}`, string(env.Data))

	w, _ := do(t, r, http.MethodGet, "/api/users/email-exists", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type brokenRepo struct {
	repository.UserRepository
}

func (brokenRepo) GetAll(context.Context) ([]*entity.User, error) {
	return nil, errors.New("connection refused")
}

func TestList_PersistenceFailureHidesCause(t *testing.T) {
	r := newRouter(func() repository.UserRepository { return brokenRepo{} })

	w, env := do(t, r, http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", env.Message)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
