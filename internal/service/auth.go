// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services accept repository interfaces (not concrete types), so tests swap
// in in-memory fakes and the HTTP layer never touches SQL. Services return
// domain errors from internal/apperror; the handler layer maps them to
// HTTP status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"

	"github.com/sakif/linguahub/internal/apperror"
	"github.com/sakif/linguahub/internal/auth"
	"github.com/sakif/linguahub/internal/chat"
	"github.com/sakif/linguahub/internal/model"
	"github.com/sakif/linguahub/internal/repository"
)

// emailPattern is the same loose shape check the frontend applies: one "@",
// no whitespace, a dot in the domain. Real validation happens when mail is
// actually sent; this just catches typos early.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// avatarURLFormat serves a deterministic set of 100 cartoon avatars.
// New accounts get a random one; users can change it during onboarding.
const avatarURLFormat = "https://avatar.iran.liara.run/public/%d.png"

// AuthService handles account creation, login, and onboarding.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     *auth.TokenService         → issue/validate session JWTs
//   - passwords  *auth.PasswordService      → bcrypt hashing
//   - directory  chat.Directory             → best-effort chat profile sync
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	directory chat.Directory
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	directory chat.Directory,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		directory: directory,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued session token so the
// HTTP handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Signup creates a new account and issues a session token.
//
// Validation order matters for error messages: presence → password length →
// email shape → duplicate email. The duplicate pre-check is a friendly fast
// path; the repository's unique index is what actually prevents two
// concurrent signups from both landing.
func (s *AuthService) Signup(ctx context.Context, email, password, fullName string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	fullName = strings.TrimSpace(fullName)

	if email == "" || password == "" || fullName == "" {
		return nil, apperror.ValidationFailed("", "all fields are required")
	}
	if len(password) < auth.MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters long", auth.MinPasswordLength))
	}
	if !emailPattern.MatchString(email) {
		return nil, apperror.ValidationFailed("email", "invalid email format")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("email already in use, please use a different email")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking email availability: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		ProfilePic:   fmt.Sprintf(avatarURLFormat, rand.Intn(100)+1),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.syncChatProfile(ctx, user)

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("fullName", user.FullName),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues a session token.
//
// CREDENTIAL PROBING:
// An unknown email and a wrong password must be indistinguishable to the
// caller — same error, same HTTP status, and roughly the same latency. On
// the unknown-email path we still burn a bcrypt comparison so an attacker
// can't enumerate accounts by timing responses.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("", "all fields are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.BurnComparison(password)
			return nil, apperror.Unauthenticated("invalid email or password")
		}
		return nil, fmt.Errorf("service/auth: fetching user by email: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthenticated("invalid email or password")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// OnboardingInput carries the profile fields a user must fill in before
// they appear in recommendations. All fields are required.
type OnboardingInput struct {
	FullName         string `json:"fullName"`
	Bio              string `json:"bio"`
	NativeLanguage   string `json:"nativeLanguage"`
	LearningLanguage string `json:"learningLanguage"`
	Location         string `json:"location"`
}

// Onboard completes (or re-runs) profile onboarding for userID and marks
// the account onboarded. The 400 body names every missing field so the
// frontend can highlight them all at once.
func (s *AuthService) Onboard(ctx context.Context, userID string, in OnboardingInput) (*model.User, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"fullName", in.FullName},
		{"bio", in.Bio},
		{"nativeLanguage", in.NativeLanguage},
		{"learningLanguage", in.LearningLanguage},
		{"location", in.Location},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, apperror.ValidationFailed(strings.Join(missing, ", "),
			"all fields are required: missing "+strings.Join(missing, ", "))
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}

	user.FullName = strings.TrimSpace(in.FullName)
	user.Bio = strings.TrimSpace(in.Bio)
	user.NativeLanguage = strings.TrimSpace(in.NativeLanguage)
	user.LearningLanguage = strings.TrimSpace(in.LearningLanguage)
	user.Location = strings.TrimSpace(in.Location)
	user.IsOnboarded = true

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: updating user %s: %w", userID, err)
	}

	s.syncChatProfile(ctx, user)

	s.logger.Info("user onboarded", slog.String("userID", user.ID))

	return user, nil
}

// GetUserByID returns the user for the given internal ID.
// Used by the /api/auth/me handler.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}

// syncChatProfile mirrors the user into the chat provider's directory.
// Failures are logged and swallowed — chat sync must never fail signup
// or onboarding.
func (s *AuthService) syncChatProfile(ctx context.Context, user *model.User) {
	if err := s.directory.UpsertUser(ctx, user.ID, user.FullName, user.ProfilePic); err != nil {
		s.logger.Warn("chat profile sync failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
	}
}
