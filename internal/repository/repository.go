// Package repository declares the storage interfaces the service layer
// depends on. The sqlite subpackage provides the real implementation;
// tests substitute in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/linguahub/internal/model"
)

type UserRepository interface {
	// Create inserts a new user. Returns apperror.ErrConflict if the email
	// is already taken (case-insensitively).
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByEmail matches case-insensitively. Returns apperror.ErrNotFound
	// if no account uses the email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Update persists mutable profile fields (onboarding).
	Update(ctx context.Context, user *model.User) error
	// ListFriends resolves every friend edge of userID to a user row.
	ListFriends(ctx context.Context, userID string) ([]model.User, error)
	// ListRecommendable returns onboarded users excluding userID itself
	// and everyone already in its friends set. Order is unspecified.
	ListRecommendable(ctx context.Context, userID string) ([]model.User, error)
}

type FriendRequestRepository interface {
	// Create inserts a pending request. Returns apperror.ErrConflict if a
	// request already exists for the unordered {sender, recipient} pair,
	// in either direction and any status.
	Create(ctx context.Context, req *model.FriendRequest) error
	GetByID(ctx context.Context, id string) (*model.FriendRequest, error)
	// Accept flips the request to accepted and inserts both friendship
	// edges, atomically. Returns apperror.ErrConflict if the request was
	// already accepted and apperror.ErrNotFound if it doesn't exist.
	Accept(ctx context.Context, id string) error
	// ListIncoming returns requests where userID is the recipient with the
	// given status, each joined with the sender's public profile.
	ListIncoming(ctx context.Context, userID string, status model.RequestStatus) ([]model.IncomingRequest, error)
	// ListOutgoing returns pending requests sent by userID, each joined
	// with the recipient's public profile.
	ListOutgoing(ctx context.Context, userID string) ([]model.OutgoingRequest, error)
}
