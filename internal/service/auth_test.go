package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/linguahub/internal/apperror"
	"github.com/sakif/linguahub/internal/auth"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================
//
// The user store is the shared fakeStore from friend_test.go. The chat
// directory fake just records calls so tests can assert sync happened
// (or that a failing provider didn't break the operation).

type recordingDirectory struct {
	upserts []string // user IDs passed to UpsertUser
	err     error    // returned from every call when non-nil
}

func (d *recordingDirectory) UpsertUser(_ context.Context, id, name, image string) error {
	d.upserts = append(d.upserts, id)
	return d.err
}

// newTestAuthService returns an AuthService wired with fake dependencies.
// The TokenService uses a short secret and the PasswordService bcrypt
// cost 4, suitable for tests only.
func newTestAuthService(t *testing.T, store *fakeStore, dir *recordingDirectory) *AuthService {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	ps := auth.NewPasswordServiceForTest(4)

	return NewAuthService(store, ts, ps, dir, testLogger())
}

// =========================================================================
// Signup TESTS
// =========================================================================

func TestSignup_CreatesUserAndToken(t *testing.T) {
	store := newFakeStore()
	dir := &recordingDirectory{}
	svc := newTestAuthService(t, store, dir)

	result, err := svc.Signup(context.Background(), "mina@example.com", "secret123", "Mina Park")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	if result.User.ID == "" {
		t.Error("Signup() did not assign a user ID")
	}
	if result.Token == "" {
		t.Error("Signup() returned an empty token")
	}
	if result.User.PasswordHash == "" || result.User.PasswordHash == "secret123" {
		t.Error("Signup() must store a bcrypt hash, never the plaintext")
	}
	if result.User.ProfilePic == "" {
		t.Error("Signup() did not assign a random avatar")
	}
	if result.User.IsOnboarded {
		t.Error("new accounts must start un-onboarded")
	}
	if len(dir.upserts) != 1 || dir.upserts[0] != result.User.ID {
		t.Errorf("chat directory upserts = %v, want [%s]", dir.upserts, result.User.ID)
	}
}

func TestSignup_ValidationFailures(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		fullName string
	}{
		{"missing email", "", "secret123", "Mina Park"},
		{"missing password", "mina@example.com", "", "Mina Park"},
		{"missing full name", "mina@example.com", "secret123", ""},
		{"short password", "mina@example.com", "12345", "Mina Park"},
		{"malformed email", "not-an-email", "secret123", "Mina Park"},
		{"email with spaces", "mina @example.com", "secret123", "Mina Park"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := newTestAuthService(t, store, &recordingDirectory{})

			_, err := svc.Signup(context.Background(), tt.email, tt.password, tt.fullName)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Signup() error = %v, want ErrValidation", err)
			}
			if len(store.users) != 0 {
				t.Error("invalid signup must not write a user row")
			}
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuthService(t, store, &recordingDirectory{})

	if _, err := svc.Signup(context.Background(), "mina@example.com", "secret123", "Mina Park"); err != nil {
		t.Fatalf("first Signup() error = %v", err)
	}

	_, err := svc.Signup(context.Background(), "mina@example.com", "different456", "Other Person")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("duplicate Signup() error = %v, want ErrConflict", err)
	}
}

func TestSignup_DuplicateEmailCaseInsensitive(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuthService(t, store, &recordingDirectory{})

	if _, err := svc.Signup(context.Background(), "mina@example.com", "secret123", "Mina Park"); err != nil {
		t.Fatalf("first Signup() error = %v", err)
	}

	_, err := svc.Signup(context.Background(), "MINA@Example.COM", "different456", "Other Person")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("case-variant duplicate Signup() error = %v, want ErrConflict", err)
	}
}

func TestSignup_ChatSyncFailureIsNotFatal(t *testing.T) {
	store := newFakeStore()
	dir := &recordingDirectory{err: errors.New("provider down")}
	svc := newTestAuthService(t, store, dir)

	result, err := svc.Signup(context.Background(), "mina@example.com", "secret123", "Mina Park")
	if err != nil {
		t.Fatalf("Signup() must succeed even when chat sync fails, got: %v", err)
	}
	if result.User.ID == "" {
		t.Error("Signup() did not create the user")
	}
}

// =========================================================================
// Login TESTS
// =========================================================================

func TestLogin_Success(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuthService(t, store, &recordingDirectory{})

	signup, err := svc.Signup(context.Background(), "mina@example.com", "secret123", "Mina Park")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	result, err := svc.Login(context.Background(), "mina@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.User.ID != signup.User.ID {
		t.Errorf("Login() user = %s, want %s", result.User.ID, signup.User.ID)
	}
	if result.Token == "" {
		t.Error("Login() returned an empty token")
	}
}

func TestLogin_WrongPasswordAndUnknownEmailAreIndistinguishable(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuthService(t, store, &recordingDirectory{})

	if _, err := svc.Signup(context.Background(), "mina@example.com", "secret123", "Mina Park"); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	// Both failure modes must produce the same error kind AND message, so
	// an attacker can't enumerate accounts from the response shape.
	_, wrongPass := svc.Login(context.Background(), "mina@example.com", "wrong-password")
	_, noUser := svc.Login(context.Background(), "ghost@example.com", "secret123")

	if !errors.Is(wrongPass, apperror.ErrUnauthenticated) {
		t.Fatalf("wrong password error = %v, want ErrUnauthenticated", wrongPass)
	}
	if !errors.Is(noUser, apperror.ErrUnauthenticated) {
		t.Fatalf("unknown email error = %v, want ErrUnauthenticated", noUser)
	}
	if wrongPass.Error() != noUser.Error() {
		t.Errorf("error messages differ: %q vs %q", wrongPass.Error(), noUser.Error())
	}
}

func TestLogin_EmailCaseInsensitive(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuthService(t, store, &recordingDirectory{})

	if _, err := svc.Signup(context.Background(), "mina@example.com", "secret123", "Mina Park"); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	if _, err := svc.Login(context.Background(), "Mina@Example.Com", "secret123"); err != nil {
		t.Errorf("Login() with different email casing error = %v", err)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuthService(t, store, &recordingDirectory{})

	_, err := svc.Login(context.Background(), "", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Login() error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// Onboard TESTS
// =========================================================================

func completeOnboarding() OnboardingInput {
	return OnboardingInput{
		FullName:         "Mina Park",
		Bio:              "Learning Portuguese for a move to Lisbon",
		NativeLanguage:   "Korean",
		LearningLanguage: "Portuguese",
		Location:         "Seoul",
	}
}

func TestOnboard_SetsProfileAndFlag(t *testing.T) {
	store := newFakeStore()
	dir := &recordingDirectory{}
	svc := newTestAuthService(t, store, dir)

	signup, err := svc.Signup(context.Background(), "mina@example.com", "secret123", "Mina")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	user, err := svc.Onboard(context.Background(), signup.User.ID, completeOnboarding())
	if err != nil {
		t.Fatalf("Onboard() error = %v", err)
	}

	if !user.IsOnboarded {
		t.Error("Onboard() did not set IsOnboarded")
	}
	if user.LearningLanguage != "Portuguese" {
		t.Errorf("LearningLanguage = %q, want %q", user.LearningLanguage, "Portuguese")
	}
	// One upsert from signup, one from onboarding.
	if len(dir.upserts) != 2 {
		t.Errorf("chat directory upserts = %d, want 2", len(dir.upserts))
	}
}

func TestOnboard_MissingFieldsAreNamed(t *testing.T) {
	store := newFakeStore()
	svc := newTestAuthService(t, store, &recordingDirectory{})

	signup, err := svc.Signup(context.Background(), "mina@example.com", "secret123", "Mina")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	in := completeOnboarding()
	in.Bio = ""
	in.Location = "   "

	_, err = svc.Onboard(context.Background(), signup.User.ID, in)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Onboard() error = %v, want ErrValidation", err)
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("Onboard() error is not an *AppError: %v", err)
	}
	if appErr.Field == "" {
		t.Error("validation error should name the missing fields")
	}

	user, _ := store.GetByID(context.Background(), signup.User.ID)
	if user.IsOnboarded {
		t.Error("failed onboarding must not set IsOnboarded")
	}
}
