// Password hashing. bcrypt generates and embeds its own salt, so the
// stored hash is a single self-contained string and the work factor can be
// raised later without a schema change.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the only complexity rule enforced at signup.
// Checked by the auth service before hashing; existing accounts are
// never re-validated against it.
const MinPasswordLength = 6

// defaultCost is the bcrypt work factor.
//
// Cost 12 takes roughly ~250ms on a modern server. Tune so that hashing
// stays in the 200–300ms range on production hardware.
const defaultCost = 12

// dummyHash is a valid bcrypt hash of random data that matches no real
// password. Login burns a comparison against it when the email doesn't
// resolve to a user, so "no such user" and "wrong password" take the
// same time and surface the same generic error.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// PasswordService provides bcrypt hashing and verification. The cost is a
// field rather than a package constant so tests can lower it.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom cost.
// Tests pass bcrypt's minimum (4) so each hash doesn't cost ~250ms.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt. The result goes
// straight into users.password_hash.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		// bcrypt silently truncates input past 72 bytes; reject instead.
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// bcrypt compares in constant time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// BurnComparison performs a throwaway bcrypt comparison against a fixed
// hash. Call it on the "no such user" login path so that path costs the
// same as a real password check.
func (p *PasswordService) BurnComparison(plaintext string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(plaintext))
}
