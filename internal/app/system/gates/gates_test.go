package gates

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/parleyhq/parley/internal/app/system/auth"
	"github.com/parleyhq/parley/internal/app/system/authz"
	"github.com/parleyhq/parley/internal/app/system/outcome"
	"github.com/parleyhq/parley/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func request(t *testing.T, cfg models.SystemConfig, user *models.User) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	r = auth.WithConfig(r, cfg)
	if user != nil {
		r = auth.WithIdentity(r, &auth.Identity{User: user})
	}
	return r
}

func okHandler() (http.Handler, *bool) {
	called := new(bool)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}), called
}

func userWith(role, status string) *models.User {
	return &models.User{ID: primitive.NewObjectID(), Role: role, Status: status}
}

func TestMaintenance_BlocksNonRootDistinctly(t *testing.T) {
	cfg := models.SystemConfig{AuthMode: models.AuthModeLocal, MaintenanceMode: true}
	next, called := okHandler()
	mw := Maintenance(zap.NewNop())(next)

	for _, role := range []string{models.RoleUser, models.RoleManager} {
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, request(t, cfg, userWith(role, models.StatusActive)))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s during maintenance: status = %d, want 503", role, rec.Code)
		}
		if *called {
			t.Errorf("%s during maintenance must not reach the handler", role)
		}
	}

	// Anonymous is blocked too.
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, request(t, cfg, nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("anonymous during maintenance: status = %d, want 503", rec.Code)
	}
}

func TestMaintenance_RootUnaffected(t *testing.T) {
	cfg := models.SystemConfig{AuthMode: models.AuthModeLocal, MaintenanceMode: true}
	next, called := okHandler()
	mw := Maintenance(zap.NewNop())(next)

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, request(t, cfg, userWith(models.RoleRoot, models.StatusActive)))
	if rec.Code != http.StatusOK || !*called {
		t.Errorf("root during maintenance: status = %d, called = %v", rec.Code, *called)
	}
}

func TestMaintenance_DisabledRootBlocked(t *testing.T) {
	cfg := models.SystemConfig{AuthMode: models.AuthModeLocal, MaintenanceMode: true}
	next, _ := okHandler()
	mw := Maintenance(zap.NewNop())(next)

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, request(t, cfg, userWith(models.RoleRoot, models.StatusDisabled)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("disabled root during maintenance: status = %d, want 503", rec.Code)
	}
}

func TestMaintenance_OffPassesEveryone(t *testing.T) {
	cfg := models.SystemConfig{AuthMode: models.AuthModeLocal}
	next, called := okHandler()
	mw := Maintenance(zap.NewNop())(next)

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, request(t, cfg, nil))
	if rec.Code != http.StatusOK || !*called {
		t.Errorf("maintenance off: status = %d, called = %v", rec.Code, *called)
	}
}

func TestRequireMode(t *testing.T) {
	next, _ := okHandler()
	mw := RequireMode(models.AuthModeLocal, zap.NewNop())(next)

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, request(t, models.SystemConfig{AuthMode: models.AuthModeSSO}, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("login route outside local mode: status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, request(t, models.SystemConfig{AuthMode: models.AuthModeLocal}, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("login route in local mode: status = %d, want 200", rec.Code)
	}
}

func TestRequireSignedIn(t *testing.T) {
	next, called := okHandler()
	mw := RequireSignedIn(zap.NewNop())(next)

	// Mode none has no accounts; the route does not exist there.
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, request(t, models.SystemConfig{AuthMode: models.AuthModeNone}, nil))
	if rec.Code != http.StatusNotFound || *called {
		t.Errorf("signed-in route in none mode: status = %d, called = %v", rec.Code, *called)
	}

	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, request(t, models.SystemConfig{AuthMode: models.AuthModeLocal}, nil))
	if rec.Code != http.StatusUnauthorized || *called {
		t.Errorf("anonymous request: status = %d, called = %v", rec.Code, *called)
	}

	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, request(t, models.SystemConfig{AuthMode: models.AuthModeLocal}, userWith(models.RoleUser, models.StatusActive)))
	if rec.Code != http.StatusOK || !*called {
		t.Errorf("signed-in request: status = %d, called = %v", rec.Code, *called)
	}
}

func TestCheck_DistinguishesDenials(t *testing.T) {
	local := models.SystemConfig{AuthMode: models.AuthModeLocal}
	none := models.SystemConfig{AuthMode: models.AuthModeNone}

	// No identity in local mode: unauthenticated.
	err := Check(request(t, local, nil), authz.CapShareConversation)
	if status := statusOf(err); status != http.StatusUnauthorized {
		t.Errorf("anonymous share in local mode: %v (status %d), want 401", err, status)
	}

	// Valid identity lacking the capability: forbidden.
	err = Check(request(t, local, userWith(models.RoleUser, models.StatusActive)), authz.CapCreateUser)
	if status := statusOf(err); status != http.StatusForbidden {
		t.Errorf("user creating users: %v (status %d), want 403", err, status)
	}

	// Capability class absent under the mode: not found, even for root.
	err = Check(request(t, none, userWith(models.RoleRoot, models.StatusActive)), authz.CapShareConversation)
	if status := statusOf(err); status != http.StatusNotFound {
		t.Errorf("sharing in none mode: %v (status %d), want 404", err, status)
	}

	// Allowed.
	if err := Check(request(t, local, userWith(models.RoleRoot, models.StatusActive)), authz.CapCreateUser); err != nil {
		t.Errorf("root creating users should be allowed, got %v", err)
	}
}

func statusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return outcome.HTTPStatus(err)
}

func TestRequireCapability_Middleware(t *testing.T) {
	local := models.SystemConfig{AuthMode: models.AuthModeLocal}
	next, called := okHandler()
	mw := RequireCapability(authz.CapCreateUser, zap.NewNop())(next)

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, request(t, local, userWith(models.RoleManager, models.StatusActive)))
	if rec.Code != http.StatusForbidden || *called {
		t.Errorf("manager creating users: status = %d, called = %v", rec.Code, *called)
	}

	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, request(t, local, userWith(models.RoleRoot, models.StatusActive)))
	if rec.Code != http.StatusOK || !*called {
		t.Errorf("root creating users: status = %d, called = %v", rec.Code, *called)
	}
}
