package login_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/app/features/login"
	sessionstore "github.com/parleyhq/parley/internal/app/store/sessions"
	userstore "github.com/parleyhq/parley/internal/app/store/users"
	"github.com/parleyhq/parley/internal/app/system/auth"
	"github.com/parleyhq/parley/internal/app/system/authutil"
	"github.com/parleyhq/parley/internal/app/system/metrics"
	"github.com/parleyhq/parley/internal/domain/models"
	"github.com/parleyhq/parley/internal/testutil"
	"go.uber.org/zap"
)

type loginEnv struct {
	handler  *login.Handler
	users    *userstore.Store
	sessions *sessionstore.Store
}

func newLoginEnv(t *testing.T) *loginEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	users := userstore.New(db)
	sessions, _ := testutil.SetupSessionStore(t, time.Hour)
	logger := zap.NewNop()

	mgr, err := auth.NewSessionManager("test-key-0123456789-0123456789-01", "parley-session", "", false, sessions, nil, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return &loginEnv{
		handler:  login.NewHandler(logger, users, sessions, mgr, metrics.New()),
		users:    users,
		sessions: sessions,
	}
}

func (e *loginEnv) createUser(t *testing.T, email, password, role, status string) models.User {
	t.Helper()
	hash, err := authutil.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	u, err := e.users.Create(context.Background(), models.User{
		DisplayName:  "Test",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       status,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func doLogin(t *testing.T, h *login.Handler, cfg models.SystemConfig, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, "POST", "/api/login", cfg, map[string]string{
		"email":    email,
		"password": password,
	})
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)
	return rec
}

func TestLoginSuccess(t *testing.T) {
	env := newLoginEnv(t)
	env.createUser(t, "ada@example.com", "correct horse", models.RoleUser, models.StatusActive)

	rec := doLogin(t, env.handler, testutil.LocalConfig(), "ada@example.com", "correct horse")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Token == "" {
		t.Fatalf("no token in response")
	}
	if _, err := env.sessions.Get(context.Background(), resp.Token); err != nil {
		t.Errorf("issued token should resolve to a session: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newLoginEnv(t)
	env.createUser(t, "ada@example.com", "correct horse", models.RoleUser, models.StatusActive)

	rec := doLogin(t, env.handler, testutil.LocalConfig(), "ada@example.com", "battery staple")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	env := newLoginEnv(t)

	rec := doLogin(t, env.handler, testutil.LocalConfig(), "ghost@example.com", "whatever")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLoginDisabledUser(t *testing.T) {
	env := newLoginEnv(t)
	u := env.createUser(t, "off@example.com", "pw12345678", models.RoleManager, models.StatusActive)
	if err := env.users.SetStatus(context.Background(), u.ID, models.StatusDisabled); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	rec := doLogin(t, env.handler, testutil.LocalConfig(), "off@example.com", "pw12345678")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	tokens, err := env.sessions.ActiveTokensForUser(context.Background(), u.ID.Hex())
	if err != nil {
		t.Fatalf("ActiveTokensForUser: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("disabled login must not create a session")
	}
}

func TestLoginDuringMaintenance(t *testing.T) {
	env := newLoginEnv(t)
	env.createUser(t, "user@example.com", "pw12345678", models.RoleUser, models.StatusActive)
	root := env.createUser(t, "root@example.com", "pw12345678", models.RoleRoot, models.StatusActive)

	cfg := testutil.LocalConfig()
	cfg.MaintenanceMode = true

	rec := doLogin(t, env.handler, cfg, "user@example.com", "pw12345678")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("non-root during maintenance: status = %d, want 503", rec.Code)
	}
	tokens, _ := env.sessions.ActiveTokensForUser(context.Background(), root.ID.Hex())
	if len(tokens) != 0 {
		t.Fatalf("unexpected sessions before root login")
	}

	rec = doLogin(t, env.handler, cfg, "root@example.com", "pw12345678")
	if rec.Code != http.StatusOK {
		t.Errorf("root during maintenance: status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestSingleSessionEnforcement(t *testing.T) {
	env := newLoginEnv(t)
	u := env.createUser(t, "ada@example.com", "pw12345678", models.RoleUser, models.StatusActive)

	cfg := testutil.LocalConfig() // AllowMultiLogin false
	if rec := doLogin(t, env.handler, cfg, "ada@example.com", "pw12345678"); rec.Code != http.StatusOK {
		t.Fatalf("first login: %d", rec.Code)
	}
	if rec := doLogin(t, env.handler, cfg, "ada@example.com", "pw12345678"); rec.Code != http.StatusOK {
		t.Fatalf("second login: %d", rec.Code)
	}

	tokens, err := env.sessions.ActiveTokensForUser(context.Background(), u.ID.Hex())
	if err != nil {
		t.Fatalf("ActiveTokensForUser: %v", err)
	}
	if len(tokens) != 1 {
		t.Errorf("active sessions = %d, want exactly 1", len(tokens))
	}
}

func TestMultiLoginAllowed(t *testing.T) {
	env := newLoginEnv(t)
	u := env.createUser(t, "ada@example.com", "pw12345678", models.RoleUser, models.StatusActive)

	cfg := testutil.LocalConfig()
	cfg.AllowMultiLogin = true
	for i := 0; i < 2; i++ {
		if rec := doLogin(t, env.handler, cfg, "ada@example.com", "pw12345678"); rec.Code != http.StatusOK {
			t.Fatalf("login %d: %d", i, rec.Code)
		}
	}

	tokens, _ := env.sessions.ActiveTokensForUser(context.Background(), u.ID.Hex())
	if len(tokens) != 2 {
		t.Errorf("active sessions = %d, want 2", len(tokens))
	}
}
