package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/linguahub/internal/auth"
	"github.com/sakif/linguahub/internal/service"
)

// AuthHandler exposes account creation, login, logout, onboarding, and the
// current-user endpoint.
//
// HANDLER RESPONSIBILITIES:
//   - Parse and minimally sanity-check the request body
//   - Delegate business rules to AuthService
//   - Translate results into JSON bodies, status codes, and the session cookie
//
// All credential and validation rules live in the service; the handler only
// knows HTTP.
type AuthHandler struct {
	service       *service.AuthService
	secureCookies bool
	logger        *slog.Logger
}

// NewAuthHandler creates an AuthHandler. secureCookies should be true when
// the app is served over HTTPS — it adds the Secure attribute to the
// session cookie.
func NewAuthHandler(svc *service.AuthService, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:       svc,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// signupRequest is the expected body for POST /api/auth/signup.
type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// loginRequest is the expected body for POST /api/auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignup registers a new account.
//
// HTTP: POST /api/auth/signup
// BODY: {"email": "...", "password": "...", "fullName": "..."}
//
// On success: 201, session cookie set, profile in the body.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid signup JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "invalid JSON body",
		})
		return
	}

	result, err := h.service.Signup(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusCreated, result.User)
}

// HandleLogin authenticates an existing account.
//
// HTTP: POST /api/auth/login
// BODY: {"email": "...", "password": "..."}
//
// Wrong password and unknown email produce the same 401 — see
// AuthService.Login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid login JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "invalid JSON body",
		})
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, result.User)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /api/auth/logout
//
// WHY POST AND NOT GET?
// Logout is a state-changing operation. Using GET would be vulnerable to
// CSRF and to browsers pre-fetching the URL.
//
// Since sessions are stateless JWTs, "logout" just means deleting the
// client-side cookie. The token itself stays valid until its 7-day expiry,
// but without the cookie the browser can't send it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // tells the browser to delete the cookie immediately
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.secureCookies,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

// HandleOnboarding completes profile onboarding for the authenticated user.
//
// HTTP: POST /api/auth/onboarding
// Auth: Required
// BODY: {"fullName","bio","nativeLanguage","learningLanguage","location"} — all required
func (h *AuthHandler) HandleOnboarding(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthenticated", Message: "valid authentication required",
		})
		return
	}

	var in service.OnboardingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Warn("invalid onboarding JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "invalid JSON body",
		})
		return
	}

	updated, err := h.service.Onboard(r.Context(), user.ID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// HandleMe returns the authenticated user's own profile.
//
// HTTP: GET /api/auth/me
// Auth: Required
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		// Should never happen on a RequireAuth-protected route, but be safe.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthenticated", Message: "valid authentication required",
		})
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// setSessionCookie stores the session JWT in an HttpOnly cookie.
//
// HttpOnly = JavaScript cannot read this cookie (XSS protection).
// SameSite=Strict = the browser never sends it on cross-site requests.
// MaxAge matches the token's own 7-day expiry so the cookie and the token
// die together.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.SessionLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   h.secureCookies,
	})
}
