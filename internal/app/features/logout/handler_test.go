package logout_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/app/features/logout"
	sessionstore "github.com/parleyhq/parley/internal/app/store/sessions"
	"github.com/parleyhq/parley/internal/app/system/auth"
	"github.com/parleyhq/parley/internal/app/system/metrics"
	"github.com/parleyhq/parley/internal/domain/models"
	"github.com/parleyhq/parley/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newLogoutEnv(t *testing.T) (*logout.Handler, *sessionstore.Store) {
	t.Helper()
	sessions, _ := testutil.SetupSessionStore(t, time.Hour)
	mgr, err := auth.NewSessionManager("test-key-0123456789-0123456789-01", "parley-session", "", false, sessions, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	return logout.NewHandler(zap.NewNop(), mgr, metrics.New()), sessions
}

func activeUser(role string) models.User {
	return models.User{
		ID:     primitive.NewObjectID(),
		Role:   role,
		Status: models.StatusActive,
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	h, sessions := newLogoutEnv(t)
	ctx := context.Background()

	user := activeUser(models.RoleUser)
	sess, err := sessions.Create(ctx, &user, sessionstore.ClientMeta{}, false)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	req := testutil.NewRequest("POST", "/api/logout", testutil.LocalConfig())
	req = auth.WithIdentity(req, &auth.Identity{User: &user, SessionToken: sess.Token})
	rec := httptest.NewRecorder()
	h.HandleLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("logout: %d %s", rec.Code, rec.Body.String())
	}
	if _, err := sessions.Get(ctx, sess.Token); err == nil {
		t.Errorf("session should be revoked after logout")
	}
}

func TestLogoutWithoutSessionStillSucceeds(t *testing.T) {
	h, _ := newLogoutEnv(t)

	req := testutil.NewRequest("POST", "/api/logout", testutil.LocalConfig())
	rec := httptest.NewRecorder()
	h.HandleLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("anonymous logout: status = %d, want 200", rec.Code)
	}
}

func TestLogoutInModeNoneIsNotFound(t *testing.T) {
	h, _ := newLogoutEnv(t)

	req := testutil.NewRequest("POST", "/api/logout", testutil.NoneConfig())
	rec := httptest.NewRecorder()
	h.HandleLogout(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("logout in mode none: status = %d, want 404", rec.Code)
	}
}

func TestForceLogoutRequiresIdentity(t *testing.T) {
	h, _ := newLogoutEnv(t)
	router := logout.Routes(h)

	req := testutil.NewRequest("POST", "/force", testutil.LocalConfig())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous force logout: status = %d, want 401", rec.Code)
	}

	req = testutil.NewRequest("POST", "/force", testutil.NoneConfig())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("force logout in mode none: status = %d, want 404", rec.Code)
	}
}

func TestForceLogoutRevokesEverySession(t *testing.T) {
	h, sessions := newLogoutEnv(t)
	ctx := context.Background()

	user := activeUser(models.RoleUser)
	for i := 0; i < 3; i++ {
		if _, err := sessions.Create(ctx, &user, sessionstore.ClientMeta{}, true); err != nil {
			t.Fatalf("create session: %v", err)
		}
	}

	req := testutil.AuthenticatedRequest("POST", "/api/logout/force", testutil.LocalConfig(), &user)
	rec := httptest.NewRecorder()
	h.HandleForceLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("force logout: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Revoked int `json:"revoked"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Revoked != 3 {
		t.Errorf("revoked = %d, want 3", resp.Revoked)
	}
	if tokens, _ := sessions.ActiveTokensForUser(ctx, user.ID.Hex()); len(tokens) != 0 {
		t.Errorf("%d sessions still active", len(tokens))
	}
}
