package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ariefcatur/go-storefront/internal/authx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	sessions map[string]authx.Identity
}

func (v *stubVerifier) Verify(_ context.Context, token string) (authx.Identity, error) {
	if id, ok := v.sessions[token]; ok {
		return id, nil
	}
	return authx.Identity{}, authx.ErrInvalidToken
}

func newStub() *stubVerifier {
	return &stubVerifier{sessions: map[string]authx.Identity{
		"tok-user":  {UserID: "u-1", Name: "John"},
		"tok-admin": {UserID: "u-9", Name: "Admin", Admin: true},
	}}
}

func whoami(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, "user", IdentityFrom(r.Context()))
}

func TestRequireAuth(t *testing.T) {
	h := RequireAuth(newStub())(http.HandlerFunc(whoami))

	tests := []struct {
		name       string
		authHeader string
		wantCode   int
		wantUserID string
	}{
		{name: "valid token", authHeader: "Bearer tok-user", wantCode: http.StatusOK, wantUserID: "u-1"},
		{name: "missing header", authHeader: "", wantCode: http.StatusUnauthorized},
		{name: "not bearer", authHeader: "Basic abc", wantCode: http.StatusUnauthorized},
		{name: "unknown token", authHeader: "Bearer nope", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantCode != http.StatusOK {
				assert.Equal(t, false, body["success"])
				assert.NotEmpty(t, body["message"])
				return
			}
			assert.Equal(t, true, body["success"])
			user := body["user"].(map[string]any)
			assert.Equal(t, tt.wantUserID, user["user_id"])
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAuth(newStub())(RequireAdmin(http.HandlerFunc(whoami)))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer tok-user")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer tok-admin")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIdentityFromDefaultsToAnonymous(t *testing.T) {
	id := IdentityFrom(context.Background())
	assert.True(t, id.IsAnonymous())
}
