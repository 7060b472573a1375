package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonathan/cojournalist/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTokenValidator is a test implementation of TokenValidator for unit tests.
type testTokenValidator struct {
	validTokens map[string]types.Identity
}

func newTestTokenValidator() *testTokenValidator {
	return &testTokenValidator{validTokens: make(map[string]types.Identity)}
}

func (v *testTokenValidator) ValidateToken(tokenString string) (IdentityGetter, error) {
	identity, ok := v.validTokens[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return testClaims(identity), nil
}

type testClaims types.Identity

func (c testClaims) GetIdentity() types.Identity { return types.Identity(c) }

// echoIdentity writes the external id of the caller, or "anonymous".
var echoIdentity = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	identity, err := GetIdentity(r)
	if err != nil {
		_, _ = w.Write([]byte("anonymous"))
		return
	}
	_, _ = w.Write([]byte(identity.ExternalID + "|" + GetToken(r)))
})

func TestAuthMiddleware(t *testing.T) {
	validator := newTestTokenValidator()
	validator.validTokens["good"] = types.Identity{ExternalID: "ext-1", Email: "a@example.com"}
	validator.validTokens["no-subject"] = types.Identity{Email: "b@example.com"}

	handler := AuthMiddleware(validator)(echoIdentity)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid token", header: "Bearer good", wantStatus: http.StatusOK, wantBody: "ext-1|good"},
		{name: "lowercase scheme", header: "bearer good", wantStatus: http.StatusOK, wantBody: "ext-1|good"},
		{name: "missing header", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", wantStatus: http.StatusUnauthorized},
		{name: "extra parts", header: "Bearer good extra", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer bad", wantStatus: http.StatusUnauthorized},
		{name: "token without subject", header: "Bearer no-subject", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, w.Body.String())
			} else {
				assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
			}
		})
	}
}

func TestIdentify_PassesAnonymousThrough(t *testing.T) {
	handler := Identify(newTestTokenValidator())(echoIdentity)

	req := httptest.NewRequest(http.MethodGet, "/modes", nil)
	req.Header.Set("Authorization", "Bearer unknown")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())
}

func TestGetIdentity_NotInContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetIdentity(req)
	assert.Error(t, err)
	assert.Empty(t, GetToken(req))
}

func TestWithIdentity(t *testing.T) {
	identity := types.Identity{ExternalID: "ext-9"}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), identity, "tok"))

	got, err := GetIdentity(req)
	require.NoError(t, err)
	assert.Equal(t, identity, got)
	assert.Equal(t, "tok", GetToken(req))
}
