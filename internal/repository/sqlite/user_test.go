package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/linguahub/internal/apperror"
	"github.com/sakif/linguahub/internal/model"
)

// newTestDB creates a fresh in-memory database with migrations applied.
// ":memory:" databases vanish on Close, so every test starts clean.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser is a test helper that inserts a user and fails the test
// if it errors.
func createTestUser(t *testing.T, db *DB, email, fullName string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		PasswordHash: "$2a$04$fakehashfortestingonly000000000000000000000000000000",
		FullName:     fullName,
		IsOnboarded:  true,
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// makeFriends wires a full request/accept cycle between two users.
func makeFriends(t *testing.T, db *DB, a, b *model.User) {
	t.Helper()
	req := &model.FriendRequest{SenderID: a.ID, RecipientID: b.ID}
	if err := db.FriendRequests().Create(context.Background(), req); err != nil {
		t.Fatalf("creating friend request: %v", err)
	}
	if err := db.FriendRequests().Accept(context.Background(), req.ID); err != nil {
		t.Fatalf("accepting friend request: %v", err)
	}
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Email:        "test@example.com",
		PasswordHash: "hash",
		FullName:     "Test User",
	}

	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Verify the user was modified in-place (pointer receiver)
	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set user.CreatedAt")
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "taken@example.com", "First")

	dup := &model.User{
		Email:        "taken@example.com",
		PasswordHash: "hash",
		FullName:     "Second",
	}
	err := db.Users().Create(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() duplicate email error = %v, want ErrConflict", err)
	}
}

func TestUserCreate_DuplicateEmailDifferentCase(t *testing.T) {
	// The COLLATE NOCASE unique index must catch case variants too.
	db := newTestDB(t)
	createTestUser(t, db, "taken@example.com", "First")

	dup := &model.User{
		Email:        "TAKEN@EXAMPLE.COM",
		PasswordHash: "hash",
		FullName:     "Second",
	}
	err := db.Users().Create(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() case-variant duplicate error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// LOOKUP TESTS
// =========================================================================

func TestUserGetByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "mina@example.com", "Mina Park")

	got, err := db.Users().GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Email != "mina@example.com" || got.FullName != "Mina Park" {
		t.Errorf("GetByID() = %+v, want the created user", got)
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByID(context.Background(), "no-such-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByEmail_CaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "mina@example.com", "Mina Park")

	got, err := db.Users().GetByEmail(context.Background(), "MINA@Example.COM")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByEmail() ID = %s, want %s", got.ID, created.ID)
	}
}

func TestUserGetByEmail_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetByEmail() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUserUpdate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "mina@example.com", "Mina")

	user.Bio = "Learning Portuguese"
	user.NativeLanguage = "Korean"
	user.LearningLanguage = "Portuguese"
	user.Location = "Seoul"
	user.IsOnboarded = true

	if err := db.Users().Update(context.Background(), user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := db.Users().GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Bio != "Learning Portuguese" || !got.IsOnboarded {
		t.Errorf("Update() not persisted: %+v", got)
	}
}

func TestUserUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	ghost := &model.User{ID: "no-such-id", FullName: "Ghost"}
	err := db.Users().Update(context.Background(), ghost)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// FRIEND LISTING / RECOMMENDATION TESTS
// =========================================================================

func TestListFriends(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com", "Alice")
	bob := createTestUser(t, db, "bob@example.com", "Bob")
	createTestUser(t, db, "carol@example.com", "Carol")

	makeFriends(t, db, alice, bob)

	friends, err := db.Users().ListFriends(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListFriends() error = %v", err)
	}
	if len(friends) != 1 || friends[0].ID != bob.ID {
		t.Errorf("ListFriends(alice) = %+v, want [bob]", friends)
	}

	// And the reverse direction, because friendship is symmetric.
	friends, err = db.Users().ListFriends(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("ListFriends() error = %v", err)
	}
	if len(friends) != 1 || friends[0].ID != alice.ID {
		t.Errorf("ListFriends(bob) = %+v, want [alice]", friends)
	}
}

func TestListRecommendable(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com", "Alice")
	bob := createTestUser(t, db, "bob@example.com", "Bob")
	carol := createTestUser(t, db, "carol@example.com", "Carol")

	// dave never finished onboarding
	dave := &model.User{
		Email:        "dave@example.com",
		PasswordHash: "hash",
		FullName:     "Dave",
		IsOnboarded:  false,
	}
	if err := db.Users().Create(context.Background(), dave); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	makeFriends(t, db, alice, bob)

	recs, err := db.Users().ListRecommendable(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListRecommendable() error = %v", err)
	}

	// Excludes alice herself, her friend bob, and un-onboarded dave.
	if len(recs) != 1 || recs[0].ID != carol.ID {
		names := []string{}
		for _, r := range recs {
			names = append(names, r.FullName)
		}
		t.Errorf("ListRecommendable() = %v, want only Carol", names)
	}
}

func TestListRecommendable_PendingRequestDoesNotHide(t *testing.T) {
	// A pending request is not a friendship — the counterpart must still
	// appear in recommendations until the request is accepted.
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com", "Alice")
	bob := createTestUser(t, db, "bob@example.com", "Bob")

	req := &model.FriendRequest{SenderID: alice.ID, RecipientID: bob.ID}
	if err := db.FriendRequests().Create(context.Background(), req); err != nil {
		t.Fatalf("creating friend request: %v", err)
	}

	recs, err := db.Users().ListRecommendable(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListRecommendable() error = %v", err)
	}
	if len(recs) != 1 || recs[0].ID != bob.ID {
		t.Errorf("ListRecommendable() = %+v, want [bob]", recs)
	}
}
