package ez

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gin-gorm-catalog/internal/domain"
	mdw "gin-gorm-catalog/internal/transport/http/middleware"
	resp "gin-gorm-catalog/internal/transport/http/response"
)

type staticTokens struct{ u *domain.User }

func (s staticTokens) VerifyToken(_ context.Context, raw string) (*domain.User, error) {
	if raw == "" {
		return nil, domain.ErrTokenMissing
	}
	if raw != "good" {
		return nil, domain.ErrTokenInvalid
	}
	return s.u, nil
}

type echoIn struct {
	Name string `json:"name" binding:"required"`
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	e := New(r.Group("/api"), mdw.NewGate(staticTokens{u: &domain.User{ID: "u1"}}, nil), nil)
	RegisterAction(e, Action[echoIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/echo",
		Binder: BindJSON,
		Handler: func(_ *gin.Context, u *domain.User, in *echoIn) (gin.H, error) {
			if in.Name == "missing" {
				return nil, fmt.Errorf("lookup: %w", domain.ErrNotFound)
			}
			if in.Name == "crash" {
				return nil, errors.New("db password=secret leaked")
			}
			return gin.H{"name": in.Name, "anon": u == nil}, nil
		},
	})
	RegisterAction(e, Action[echoIn, gin.H]{
		Method:    http.MethodPost,
		Path:      "/login",
		Binder:    BindJSON,
		BindError: func(error) error { return domain.ErrInvalidCredentials },
		Handler: func(_ *gin.Context, _ *domain.User, in *echoIn) (gin.H, error) {
			return gin.H{"name": in.Name}, nil
		},
	})
	RegisterAction(e, Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: BindNone,
		Auth:   true,
		Handler: func(_ *gin.Context, u *domain.User, _ *struct{}) (gin.H, error) {
			return gin.H{"id": u.ID}, nil
		},
	})
	return r
}

func TestRegisterAction(t *testing.T) {
	r := newEngine()
	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post(`{"name":"x"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"x","anon":true}`, w.Body.String())

	w = post(`{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(`{"name":"missing"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = post(`{"name":"crash"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestRegisterAction_BindErrorMapping(t *testing.T) {
	r := newEngine()
	for _, body := range []string{``, `{`, `{}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, body)
		var out resp.Resp
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		assert.Equal(t, "invalid email or password", out.Msg)
	}
}

func TestRegisterAction_Auth(t *testing.T) {
	r := newEngine()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body resp.Resp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "token is missing", body.Msg)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1"}`, w.Body.String())
}

func TestFromError(t *testing.T) {
	cases := map[error]int{
		domain.Invalid("title", "is required"):                 400,
		fmt.Errorf("x: %w", domain.ErrInvalidCredentials):      401,
		domain.ErrTokenInvalid:                                 401,
		domain.ErrNotFound:                                     404,
		domain.ErrDuplicateEmail:                               409,
		fmt.Errorf("%w: a.exe", domain.ErrUnsupportedFileType): 400,
		Forbidden("no"):                                        403,
		errors.New("boom"):                                     500,
	}
	for err, code := range cases {
		assert.Equal(t, code, FromError(err).Code, err.Error())
	}
}
