package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/linguahub/internal/apperror"
	"github.com/sakif/linguahub/internal/model"
	"github.com/sakif/linguahub/internal/repository"
)

// FriendService owns the friend-request lifecycle and the friends graph.
//
// The state machine per user pair is NONE → PENDING → ACCEPTED, nothing
// else: a request enters PENDING only from NONE (the pair uniqueness index
// guarantees it) and ACCEPTED only from PENDING (the repository's
// conditional update guarantees it). Nothing ever leaves ACCEPTED, and no
// decline or cancel transition exists.
//
// This service is the only writer of friendship edges — handlers and other
// services never touch them directly.
type FriendService struct {
	users    repository.UserRepository
	requests repository.FriendRequestRepository
	logger   *slog.Logger
}

// NewFriendService creates a FriendService.
func NewFriendService(
	users repository.UserRepository,
	requests repository.FriendRequestRepository,
	logger *slog.Logger,
) *FriendService {
	return &FriendService{
		users:    users,
		requests: requests,
		logger:   logger,
	}
}

// SendRequest creates a pending friend request from senderID to recipientID.
//
// Preconditions, checked in order:
//  1. sender ≠ recipient            → Validation
//  2. recipient exists              → NotFound
//  3. recipient not already a friend → Conflict
//  4. no request for the pair yet   → Conflict
//
// Checks 1–3 are ordinary reads; check 4 is enforced for real by the
// unique pair index at insert time, so two concurrent sends for the same
// pair can't both succeed — the loser surfaces the same Conflict.
func (s *FriendService) SendRequest(ctx context.Context, senderID, recipientID string) (*model.FriendRequest, error) {
	if senderID == recipientID {
		return nil, apperror.ValidationFailed("recipient",
			"you cannot send a friend request to yourself")
	}

	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("recipient", recipientID)
		}
		return nil, fmt.Errorf("service/friend: fetching recipient %s: %w", recipientID, err)
	}

	friends, err := s.users.ListFriends(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("service/friend: listing friends of %s: %w", senderID, err)
	}
	for _, f := range friends {
		if f.ID == recipient.ID {
			return nil, apperror.Conflict("you are already friends with this user")
		}
	}

	req := &model.FriendRequest{
		SenderID:    senderID,
		RecipientID: recipientID,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/friend: creating request %s->%s: %w",
			senderID, recipientID, err)
	}

	s.logger.Info("friend request sent",
		slog.String("requestID", req.ID),
		slog.String("sender", senderID),
		slog.String("recipient", recipientID),
	)

	return req, nil
}

// AcceptRequest accepts a pending request on behalf of actingUserID.
//
// Only the request's recipient may accept — the sender cannot accept their
// own outgoing request, and third parties cannot accept for them (Forbidden
// in both cases). The repository applies the status flip and both friendship
// edges as one atomic unit; accepting an already-accepted request returns
// Conflict and never re-applies the edges.
func (s *FriendService) AcceptRequest(ctx context.Context, requestID, actingUserID string) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("service/friend: fetching request %s: %w", requestID, err)
	}

	if req.RecipientID != actingUserID {
		return apperror.Forbidden("you are not authorized to accept this friend request")
	}

	if err := s.requests.Accept(ctx, requestID); err != nil {
		if errors.Is(err, apperror.ErrConflict) || errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("service/friend: accepting request %s: %w", requestID, err)
	}

	s.logger.Info("friend request accepted",
		slog.String("requestID", requestID),
		slog.String("sender", req.SenderID),
		slog.String("recipient", req.RecipientID),
	)

	return nil
}

// RequestsOverview is the incoming-requests response: pending requests
// awaiting the user's decision, plus requests of theirs that the other
// side recently accepted (so the frontend can show "X accepted you").
type RequestsOverview struct {
	Incoming []model.IncomingRequest `json:"incoming"`
	Accepted []model.IncomingRequest `json:"accepted"`
}

// ListIncoming returns the pending requests addressed to userID together
// with the already-accepted ones.
func (s *FriendService) ListIncoming(ctx context.Context, userID string) (*RequestsOverview, error) {
	incoming, err := s.requests.ListIncoming(ctx, userID, model.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("service/friend: listing incoming requests: %w", err)
	}

	accepted, err := s.requests.ListIncoming(ctx, userID, model.StatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("service/friend: listing accepted requests: %w", err)
	}

	return &RequestsOverview{Incoming: incoming, Accepted: accepted}, nil
}

// ListOutgoing returns the pending requests userID has sent.
func (s *FriendService) ListOutgoing(ctx context.Context, userID string) ([]model.OutgoingRequest, error) {
	out, err := s.requests.ListOutgoing(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/friend: listing outgoing requests: %w", err)
	}
	return out, nil
}

// ListFriends returns the public profiles of every friend of userID.
func (s *FriendService) ListFriends(ctx context.Context, userID string) ([]model.PublicProfile, error) {
	users, err := s.users.ListFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/friend: listing friends: %w", err)
	}

	profiles := make([]model.PublicProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Public())
	}
	return profiles, nil
}

// ListRecommendable returns onboarded users the given user might want to
// connect with: everyone except themselves and their current friends.
// Ordering carries no meaning — there is no ranking.
func (s *FriendService) ListRecommendable(ctx context.Context, userID string) ([]model.PublicProfile, error) {
	users, err := s.users.ListRecommendable(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/friend: listing recommendable users: %w", err)
	}

	profiles := make([]model.PublicProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Public())
	}
	return profiles, nil
}
