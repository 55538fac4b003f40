// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account.
//
// Identity is email/password: the email is unique case-insensitively (the
// repository enforces this with a NOCASE unique index), and only the bcrypt
// hash of the password is ever stored.
//
// WHY `json:"-"` ON PasswordHash?
// The User struct is serialized directly in API responses (signup, login,
// /api/auth/me, friend listings). The `-` tag tells encoding/json to always
// skip the field, so the hash can never leak into a response body no matter
// which handler writes the struct.
//
// IsOnboarded flips to true once the profile fields below are filled in via
// the onboarding endpoint. Only onboarded users show up in recommendations.
type User struct {
	ID               string    `json:"id"               db:"id"`
	Email            string    `json:"email"            db:"email"`
	PasswordHash     string    `json:"-"                db:"password_hash"`
	FullName         string    `json:"fullName"         db:"full_name"`
	Bio              string    `json:"bio"              db:"bio"`
	ProfilePic       string    `json:"profilePic"       db:"profile_pic"`
	NativeLanguage   string    `json:"nativeLanguage"   db:"native_language"`
	LearningLanguage string    `json:"learningLanguage" db:"learning_language"`
	Location         string    `json:"location"         db:"location"`
	IsOnboarded      bool      `json:"isOnboarded"      db:"is_onboarded"`
	CreatedAt        time.Time `json:"createdAt"        db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt"        db:"updated_at"`
}

// PublicProfile is the subset of User fields shown to other users —
// what friend listings and request listings embed for the counterpart.
type PublicProfile struct {
	ID               string `json:"id"`
	FullName         string `json:"fullName"`
	ProfilePic       string `json:"profilePic"`
	NativeLanguage   string `json:"nativeLanguage"`
	LearningLanguage string `json:"learningLanguage"`
}

// Public projects the user onto the fields safe to show to anyone.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:               u.ID,
		FullName:         u.FullName,
		ProfilePic:       u.ProfilePic,
		NativeLanguage:   u.NativeLanguage,
		LearningLanguage: u.LearningLanguage,
	}
}
