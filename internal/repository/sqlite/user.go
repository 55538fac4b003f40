package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/linguahub/internal/apperror"
	"github.com/sakif/linguahub/internal/model"
	"github.com/sakif/linguahub/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

const userColumns = `id, email, password_hash, full_name, bio, profile_pic,
	native_language, learning_language, location, is_onboarded, created_at, updated_at`

// Create inserts a new user, generating its ID and timestamps.
//
// The UNIQUE COLLATE NOCASE constraint on email is the real duplicate
// check: two concurrent signups with the same email race on it and the
// loser gets a constraint violation, which we surface as a Conflict. The
// service layer also pre-checks for a friendlier fast path, but only this
// constraint is authoritative.
func (db *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, full_name, bio, profile_pic,
			native_language, learning_language, location, is_onboarded, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Bio,
		user.ProfilePic,
		user.NativeLanguage,
		user.LearningLanguage,
		user.Location,
		user.IsOnboarded,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("email already in use, please use a different email")
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email, case-insensitively (the email
// column carries COLLATE NOCASE, so plain equality folds case).
func (db *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

// Update persists the user's mutable profile fields. Email and password
// hash are deliberately not updatable through this path.
func (db *UserDB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET full_name = ?, bio = ?, profile_pic = ?,
			native_language = ?, learning_language = ?, location = ?,
			is_onboarded = ?, updated_at = ?
		 WHERE id = ?`,
		user.FullName,
		user.Bio,
		user.ProfilePic,
		user.NativeLanguage,
		user.LearningLanguage,
		user.Location,
		user.IsOnboarded,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// ListFriends resolves userID's friendship edges to full user rows.
func (db *UserDB) ListFriends(ctx context.Context, userID string) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.id, u.email, u.password_hash, u.full_name, u.bio, u.profile_pic,
			u.native_language, u.learning_language, u.location, u.is_onboarded,
			u.created_at, u.updated_at
		 FROM friendships f
		 JOIN users u ON u.id = f.friend_id
		 WHERE f.user_id = ?
		 ORDER BY u.full_name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing friends of %s: %w", userID, err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

// ListRecommendable returns onboarded users excluding userID itself and
// everyone already in its friends set. Exclusion goes through the
// friendships edge table, so a pending request does not hide a user.
func (db *UserDB) ListRecommendable(ctx context.Context, userID string) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE id <> ?
		   AND is_onboarded = 1
		   AND id NOT IN (SELECT friend_id FROM friendships WHERE user_id = ?)`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recommendable users for %s: %w", userID, err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	err := s.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.Bio,
		&u.ProfilePic,
		&u.NativeLanguage,
		&u.LearningLanguage,
		&u.Location,
		&u.IsOnboarded,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func collectUsers(rows *sql.Rows) ([]model.User, error) {
	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}
	return users, nil
}
