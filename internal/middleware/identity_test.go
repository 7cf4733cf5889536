package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"virtuefeed/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func signHS256(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestIdentityVerifier_HS256(t *testing.T) {
	v, err := NewIdentityVerifier(&config.Config{IDPJWTSecret: testSecret, IDPIssuer: "https://idp.example"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		claims  jwt.MapClaims
		wantErr bool
	}{
		{"valid", jwt.MapClaims{"sub": "user_1", "iss": "https://idp.example", "exp": time.Now().Add(time.Hour).Unix(), "email": " a@example.com "}, false},
		{"expired", jwt.MapClaims{"sub": "user_1", "iss": "https://idp.example", "exp": time.Now().Add(-time.Hour).Unix()}, true},
		{"no expiry", jwt.MapClaims{"sub": "user_1", "iss": "https://idp.example"}, true},
		{"wrong issuer", jwt.MapClaims{"sub": "user_1", "iss": "https://evil.example", "exp": time.Now().Add(time.Hour).Unix()}, true},
		{"no subject", jwt.MapClaims{"iss": "https://idp.example", "exp": time.Now().Add(time.Hour).Unix()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := v.Verify(signHS256(t, tt.claims))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user_1", identity.ExternalID)
			assert.Equal(t, "a@example.com", identity.Email)
		})
	}
}

func TestIdentityVerifier_RS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	v, err := NewIdentityVerifier(&config.Config{IDPJWTPublicKey: string(pemKey)})
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": "user_rsa",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(key)
	require.NoError(t, err)

	identity, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user_rsa", identity.ExternalID)

	// HS256 tokens are refused when only the public key is configured.
	_, err = v.Verify(signHS256(t, jwt.MapClaims{"sub": "x", "exp": time.Now().Add(time.Hour).Unix()}))
	assert.Error(t, err)
}

func TestIdentityVerifier_NoKeys(t *testing.T) {
	v, err := NewIdentityVerifier(&config.Config{})
	require.NoError(t, err)

	_, err = v.Verify("anything")
	assert.ErrorIs(t, err, ErrNoVerificationKey)
}

func TestRequireIdentity(t *testing.T) {
	v, err := NewIdentityVerifier(&config.Config{IDPJWTSecret: testSecret})
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/test", RequireIdentity(v), func(c *fiber.Ctx) error {
		identity, ok := IdentityFrom(c)
		require.True(t, ok)
		return c.SendString(identity.ExternalID)
	})

	valid := signHS256(t, jwt.MapClaims{"sub": "user_123", "exp": time.Now().Add(time.Hour).Unix()})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Happy Path", "Bearer " + valid, http.StatusOK},
		{"Lowercase scheme", "bearer " + valid, http.StatusOK},
		{"Missing Header", "", http.StatusUnauthorized},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"Malformed Token", "Bearer malformed.token.here", http.StatusUnauthorized},
		{"Expired Token", "Bearer " + signHS256(t, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			_ = resp.Body.Close()
		})
	}
}

func TestOptionalIdentity(t *testing.T) {
	v, err := NewIdentityVerifier(&config.Config{IDPJWTSecret: testSecret})
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/feed", OptionalIdentity(v), func(c *fiber.Ctx) error {
		if identity, ok := IdentityFrom(c); ok {
			return c.SendString(identity.ExternalID)
		}
		return c.SendString("anonymous")
	})

	for _, header := range []string{"", "Bearer garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/feed", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}
}
