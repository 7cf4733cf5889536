package middleware

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"virtuefeed/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Fiber locals keys shared by the identity and logging middleware.
const (
	LocalIdentity = "identity"
	LocalUserID   = "userID"
)

var (
	// ErrMissingToken means the request carried no bearer token.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrNoVerificationKey means neither a public key nor a secret is configured.
	ErrNoVerificationKey = errors.New("no session verification key configured")
)

// Identity is the verified subject of an identity-provider session token.
type Identity struct {
	ExternalID string
	Email      string
	Username   string
	FirstName  string
	LastName   string
	ImageURL   string
}

// sessionClaims are the provider's session claims. Only sub is mandatory.
type sessionClaims struct {
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	jwt.RegisteredClaims
}

// IdentityVerifier checks provider session tokens.
type IdentityVerifier struct {
	publicKey *rsa.PublicKey
	secret    []byte
	issuer    string
}

// NewIdentityVerifier builds a verifier from IDP_JWT_PUBLIC_KEY (RS256) and/or IDP_JWT_SECRET (HS256).
func NewIdentityVerifier(cfg *config.Config) (*IdentityVerifier, error) {
	v := &IdentityVerifier{issuer: strings.TrimSpace(cfg.IDPIssuer)}

	if pem := strings.TrimSpace(cfg.IDPJWTPublicKey); pem != "" {
		// Keys passed through env vars often carry literal \n sequences.
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(strings.ReplaceAll(pem, `\n`, "\n")))
		if err != nil {
			return nil, fmt.Errorf("parse IDP_JWT_PUBLIC_KEY: %w", err)
		}
		v.publicKey = key
	}
	if cfg.IDPJWTSecret != "" {
		v.secret = []byte(cfg.IDPJWTSecret)
	}

	return v, nil
}

func (v *IdentityVerifier) validMethods() []string {
	var methods []string
	if v.publicKey != nil {
		methods = append(methods, jwt.SigningMethodRS256.Alg())
	}
	if v.secret != nil {
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	return methods
}

func (v *IdentityVerifier) key(t *jwt.Token) (any, error) {
	switch t.Method.(type) {
	case *jwt.SigningMethodRSA:
		if v.publicKey != nil {
			return v.publicKey, nil
		}
	case *jwt.SigningMethodHMAC:
		if v.secret != nil {
			return v.secret, nil
		}
	}
	return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
}

// Verify parses and validates a raw session token.
func (v *IdentityVerifier) Verify(raw string) (*Identity, error) {
	methods := v.validMethods()
	if len(methods) == 0 {
		return nil, ErrNoVerificationKey
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5 * time.Second),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, v.key, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid session token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("session token has no subject")
	}

	return &Identity{
		ExternalID: claims.Subject,
		Email:      strings.TrimSpace(claims.Email),
		Username:   strings.TrimSpace(claims.Username),
		FirstName:  strings.TrimSpace(claims.FirstName),
		LastName:   strings.TrimSpace(claims.LastName),
		ImageURL:   strings.TrimSpace(claims.ImageURL),
	}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, error) {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// RequireIdentity rejects requests without a valid session token with 401.
func RequireIdentity(v *IdentityVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := BearerToken(c)
		if err != nil {
			return unauthorized(c)
		}
		identity, err := v.Verify(raw)
		if err != nil {
			Logger.DebugContext(c.UserContext(), "session token rejected", "error", err.Error())
			return unauthorized(c)
		}
		c.Locals(LocalIdentity, identity)
		return c.Next()
	}
}

// OptionalIdentity attaches the identity when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalIdentity(v *IdentityVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw, err := BearerToken(c); err == nil {
			if identity, err := v.Verify(raw); err == nil {
				c.Locals(LocalIdentity, identity)
			}
		}
		return c.Next()
	}
}

// IdentityFrom returns the identity attached by RequireIdentity or OptionalIdentity.
func IdentityFrom(c *fiber.Ctx) (*Identity, bool) {
	identity, ok := c.Locals(LocalIdentity).(*Identity)
	return identity, ok && identity != nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
}
