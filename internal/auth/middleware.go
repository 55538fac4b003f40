package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/linguahub/internal/model"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "jwt"

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "user", u), ANY package that knows the string "user"
// can read or shadow your value. Using a package-private type prevents
// collisions: only THIS package can create a key of type contextKey.
type contextKey string

const userKey contextKey = "user"

// UserFinder is the slice of the user repository the guard needs: resolve a
// token subject to a live account. Declared here (consumer side) so the
// middleware doesn't depend on the full repository package.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// RequireAuth is the single authorization choke point for protected routes.
//
// It reads the session JWT from the "jwt" HttpOnly cookie, validates it,
// loads the referenced user, and stores the user in the request context.
// Every failure mode — no cookie, tampered or expired token, or a subject
// that no longer resolves to an account — produces the same 401 response,
// so a caller can't distinguish "bad token" from "deleted user".
//
// MIDDLEWARE PATTERN IN GO:
// A middleware is a function that takes an http.Handler and returns a new
// http.Handler that wraps it. Chi applies middlewares in a chain:
// req → M1 → M2 → Handler → M2 → M1 → resp.
//
// COOKIE-BASED TOKEN STORAGE:
// We store the JWT in an HttpOnly cookie rather than localStorage or a
// header. HttpOnly means JavaScript cannot read it, which prevents
// XSS (Cross-Site Scripting) attacks from stealing the token.
func RequireAuth(tokens *TokenService, users UserFinder, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveUser(r, tokens, users)
			if err != nil {
				logger.Debug("request rejected by auth guard",
					slog.String("path", r.URL.Path),
					slog.String("reason", err.Error()),
				)
				http.Error(w, `{"error":"unauthenticated","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			// Store the resolved principal in context so handlers can read it
			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext retrieves the authenticated principal from the request
// context.
//
// Returns (nil, false) if the request carries no resolved user — only
// possible on routes not wrapped by RequireAuth.
//
// Usage in handlers:
//
//	user, ok := auth.UserFromContext(r.Context())
//	if !ok {
//	    // not behind RequireAuth
//	}
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// resolveUser reads the session cookie, validates the token, and loads the
// user it names. The returned error is for logging only — callers always
// map it to a single 401.
func resolveUser(r *http.Request, tokens *TokenService, users UserFinder) (*model.User, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		// http.ErrNoCookie — the session cookie simply isn't there
		return nil, err
	}

	userID, err := tokens.Validate(cookie.Value)
	if err != nil {
		return nil, err
	}

	// A valid token can outlive its account. Treat that as unauthenticated,
	// not as a server error.
	user, err := users.GetByID(r.Context(), userID)
	if err != nil {
		return nil, err
	}

	return user, nil
}
