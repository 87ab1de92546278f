package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-pm/meridian/internal/auth"
	"github.com/meridian-pm/meridian/internal/shared"
	_ "github.com/meridian-pm/meridian/testing"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrInvalidCredentials
	}
	return s.user, nil
}

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "test_session", time.Hour, false)
	return auth.NewHandler(nil, auth.NewService(repo), sessions), sessions
}

func loginRequest(t *testing.T, sessions *shared.SessionManager, body string) (*http.Request, *shared.Session) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess)), sess
}

func TestLoginSuccessBindsRoleToSession(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	handler, sessions := newAuthHandler(t, &stubRepo{user: &auth.User{
		ID: 7, Email: "fm@meridian.test", Role: "ACCOUNTANT",
		PasswordHash: string(hashed), IsActive: true,
	}})

	req, sess := loginRequest(t, sessions, `{"email":"fm@meridian.test","password":"correctpass"}`)
	res := httptest.NewRecorder()
	handler.LoginForTest(res, req)

	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.Equal(t, "7", sess.User())
	assert.Equal(t, "ACCOUNTANT", sess.Role())

	var payload map[string]any
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.Equal(t, "ACCOUNTANT", payload["role"])
	assert.Equal(t, "/finance", payload["defaultRoute"])
}

func TestLoginInvalidCredentials(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	handler, sessions := newAuthHandler(t, &stubRepo{user: &auth.User{
		ID: 7, Email: "fm@meridian.test", Role: "ACCOUNTANT",
		PasswordHash: string(hashed), IsActive: true,
	}})

	req, sess := loginRequest(t, sessions, `{"email":"fm@meridian.test","password":"wrong"}`)
	res := httptest.NewRecorder()
	handler.LoginForTest(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Empty(t, sess.User())
}

func TestLoginInactiveUser(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	handler, sessions := newAuthHandler(t, &stubRepo{user: &auth.User{
		ID: 7, Email: "fm@meridian.test", Role: "ACCOUNTANT",
		PasswordHash: string(hashed), IsActive: false,
	}})

	req, _ := loginRequest(t, sessions, `{"email":"fm@meridian.test","password":"correctpass"}`)
	res := httptest.NewRecorder()
	handler.LoginForTest(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}
