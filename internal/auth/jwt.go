// Package auth provides session tokens, password hashing, and the request
// guard for the LinguaHub API.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. User signs up or logs in with email + password
// 2. Server verifies credentials and issues a JWT session token
// 3. The token is stored in an HttpOnly cookie named "jwt"
// 4. On subsequent API calls, the RequireAuth middleware reads the cookie,
//    validates the JWT, loads the user, and attaches them to the context
//
// WHY JWT?
// JWT (JSON Web Token) is stateless — the server doesn't need to store session
// data. All the information needed (userID, expiry) is inside the signed token.
// The signature ensures nobody can tamper with it without the secret key.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims (data) → {"sub":"userID","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// The server can verify the signature without any DB lookup — just the secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionLifetime is how long an issued session token (and its cookie)
// remains valid. Fixed at 7 days from issuance.
const SessionLifetime = 7 * 24 * time.Hour

const issuer = "linguahub"

// Sentinel errors returned by Validate. Both mean "treat the caller as
// unauthenticated" — the distinction exists so callers can log the reason.
var (
	// ErrTokenExpired means the token was well-formed and correctly signed
	// but its expiry is in the past.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenInvalid covers everything else: bad signature, malformed
	// token, wrong issuer, missing subject.
	ErrTokenInvalid = errors.New("auth: invalid token")
)

// TokenService mints and validates session tokens.
//
// It holds the HMAC secret key used to sign and verify tokens. The same
// secret must be used for both operations. Issuing is stateless — nothing
// is persisted; a token is reconstructed purely by verification.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
//
// A missing or short secret is a configuration error: the caller must treat
// it as fatal and refuse to serve traffic, rather than fall back to issuing
// unsigned or weakly-signed sessions. The secret should be at least 32 bytes
// of random data in production, e.g. JWT_SECRET=$(openssl rand -hex 32).
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims which includes
// standard fields like Issuer, Subject, ExpiresAt, IssuedAt.
//
// We use "sub" (Subject) to store the internal user ID.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a new session token for the given userID,
// expiring SessionLifetime (7 days) from now.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, same key for signing
// and verifying. Fine for a single-server deployment.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, SessionLifetime)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used by tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a session token string.
// Returns the userID (stored in the "sub" claim) if the token is valid.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (ExpiresAt is in the future)
//   - Issuer matches (prevents tokens minted by other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//
// Failures are split into ErrTokenExpired and ErrTokenInvalid so the guard
// can log why a session was refused. Both are recoverable — the caller is
// simply unauthenticated.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			// Reject tokens that aren't signed with HS256
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", ErrTokenInvalid
	}

	userID := c.Subject
	if userID == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrTokenInvalid)
	}

	return userID, nil
}
