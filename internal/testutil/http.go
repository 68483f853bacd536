package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/parleyhq/parley/internal/app/system/auth"
	"github.com/parleyhq/parley/internal/domain/models"
)

// LocalConfig returns a system config in local mode for request
// injection.
func LocalConfig() models.SystemConfig {
	return models.SystemConfig{AuthMode: models.AuthModeLocal}
}

// NoneConfig returns a system config in none mode.
func NoneConfig() models.SystemConfig {
	return models.SystemConfig{AuthMode: models.AuthModeNone}
}

// WithUser injects a user identity into the request, bypassing the
// session middleware.
func WithUser(r *http.Request, user *models.User) *http.Request {
	return auth.WithIdentity(r, &auth.Identity{User: user})
}

// NewRequest creates an HTTP request carrying the given config snapshot.
func NewRequest(method, target string, cfg models.SystemConfig) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return auth.WithConfig(req, cfg)
}

// NewJSONRequest creates an HTTP request with a JSON body and the given
// config snapshot.
func NewJSONRequest(t *testing.T, method, target string, cfg models.SystemConfig, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return auth.WithConfig(req, cfg)
}

// AuthenticatedRequest creates a request with both config and identity.
func AuthenticatedRequest(method, target string, cfg models.SystemConfig, user *models.User) *http.Request {
	return WithUser(NewRequest(method, target, cfg), user)
}

// DecodeJSON unmarshals a recorded response body.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response body %q: %v", rec.Body.String(), err)
	}
}
