package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/immxrtalbeast/rnplay/internal/domain"
	"github.com/immxrtalbeast/rnplay/internal/repository"
	"github.com/immxrtalbeast/rnplay/internal/service"
	"github.com/immxrtalbeast/rnplay/lib/logger/handlers/slogdiscard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type stubSandboxes struct {
	store    *repository.SessionStore
	startErr error
	stopErr  error
	stops    int
}

func (s *stubSandboxes) Start(_ context.Context, userID, projectID string, _ []domain.File) (string, error) {
	if s.startErr != nil {
		return "", s.startErr
	}
	s.store.PutSandbox(projectID, userID, domain.Sandbox{ID: "c-" + projectID, StartedAt: time.Now().UTC()})
	return "c-" + projectID, nil
}

func (s *stubSandboxes) Stop(_ context.Context, projectID string) error {
	s.stops++
	s.store.RemoveSandbox(projectID)
	return s.stopErr
}

type apiFixture struct {
	router    *gin.Engine
	sandboxes *stubSandboxes
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	log := slogdiscard.NewDiscardLogger()

	users := repository.NewInMemoryUserRepository()
	require.NoError(t, users.Create(ctx, domain.NewUser("u1", "alice", "alice@example.com")))
	require.NoError(t, users.Create(ctx, domain.NewUser("u2", "bob", "bob@example.com")))

	projects := repository.NewInMemoryProjectRepository()
	require.NoError(t, projects.Create(ctx, domain.NewProject("p1", "u1", "demo",
		domain.File{Name: "App.js", Content: "export default App"},
	)))

	store := repository.NewSessionStore()
	sandboxes := &stubSandboxes{store: store}
	sessions := service.NewSessionService(projects, sandboxes, store, log)

	router := SetupRouter(RouterDeps{
		Auth:     AuthMiddleware(testSecret, users, log),
		Sessions: NewSessionController(sessions),
	})
	return &apiFixture{router: router, sandboxes: sandboxes}
}

func signToken(t *testing.T, secret, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Email:  userID + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func (f *apiFixture) do(t *testing.T, method, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)

	rec, body := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestAuthMiddleware(t *testing.T) {
	f := newAPIFixture(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredToken, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "no token", token: ""},
		{name: "garbage", token: "not-a-jwt"},
		{name: "wrong secret", token: signToken(t, "other-secret", "u1")},
		{name: "expired", token: expiredToken},
		{name: "unknown user", token: signToken(t, testSecret, "ghost")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := f.do(t, http.MethodPost, "/api/sessions/p1/run", tt.token)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRunSession(t *testing.T) {
	f := newAPIFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/sessions/p1/run", signToken(t, testSecret, "u1"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c-p1", body["sessionId"])
	assert.Equal(t, "p1", body["projectId"])
}

func TestRunSessionNotOwned(t *testing.T) {
	f := newAPIFixture(t)

	rec, _ := f.do(t, http.MethodPost, "/api/sessions/p1/run", signToken(t, testSecret, "u2"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/sessions/missing/run", signToken(t, testSecret, "u1"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunSessionFailureIsGeneric(t *testing.T) {
	f := newAPIFixture(t)
	f.sandboxes.startErr = errors.New("docker: /var/run/docker.sock: permission denied")

	rec, body := f.do(t, http.MethodPost, "/api/sessions/p1/run", signToken(t, testSecret, "u1"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, body["error"], "docker.sock")
}

func TestStopSession(t *testing.T) {
	f := newAPIFixture(t)
	token := signToken(t, testSecret, "u1")

	rec, _ := f.do(t, http.MethodPost, "/api/sessions/p1/run", token)
	require.Equal(t, http.StatusOK, rec.Code)

	f.sandboxes.stopErr = errors.New("daemon unavailable")
	rec, body := f.do(t, http.MethodPost, "/api/sessions/p1/stop", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "session stopped", body["message"])

	rec, _ = f.do(t, http.MethodPost, "/api/sessions/p1/stop", signToken(t, testSecret, "u2"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, f.sandboxes.stops)
}

func TestSessionStatus(t *testing.T) {
	f := newAPIFixture(t)
	token := signToken(t, testSecret, "u1")

	rec, _ := f.do(t, http.MethodGet, "/api/sessions/p1", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/sessions/p1/run", token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := f.do(t, http.MethodGet, "/api/sessions/p1", token)
	require.Equal(t, http.StatusOK, rec.Code)
	session, ok := body["session"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "p1", session["project_id"])
	assert.Equal(t, "running", session["state"])
	assert.Equal(t, "c-p1", session["sandbox_id"])
	assert.Equal(t, []any{}, session["peers"])
	assert.NotEmpty(t, session["started_at"])
}
