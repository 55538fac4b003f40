package model

import "time"

// RequestStatus is the lifecycle state of a friend request.
//
// The state machine is deliberately small: a request is created pending and
// can only move to accepted, exactly once. There is no rejected or cancelled
// state — a declined request simply stays pending. (Known limitation carried
// over from the product design; see DESIGN.md.)
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
)

// FriendRequest is a directed request from Sender to Recipient.
//
// At most one request may exist per unordered user pair, regardless of
// direction — if A has requested B, B cannot also request A. The repository
// enforces this with a unique index over the ordered pair key.
type FriendRequest struct {
	ID          string        `json:"id"          db:"id"`
	SenderID    string        `json:"senderId"    db:"sender_id"`
	RecipientID string        `json:"recipientId" db:"recipient_id"`
	Status      RequestStatus `json:"status"      db:"status"`
	CreatedAt   time.Time     `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt"   db:"updated_at"`
}

// IncomingRequest is a request enriched with the sender's public profile,
// as returned by the incoming-requests listing.
type IncomingRequest struct {
	FriendRequest
	Sender PublicProfile `json:"sender"`
}

// OutgoingRequest is a request enriched with the recipient's public profile.
type OutgoingRequest struct {
	FriendRequest
	Recipient PublicProfile `json:"recipient"`
}
