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

// compile-time check that *FriendRequestDB implements repository.FriendRequestRepository
var _ repository.FriendRequestRepository = (*FriendRequestDB)(nil)

// Create inserts a pending friend request.
//
// The unique index on (pair_lo, pair_hi) is the serialization primitive for
// concurrent sends: the insert either lands or fails with a constraint
// violation, which we map to Conflict. There is no check-then-insert window —
// the service's precondition checks are advisory, this insert is the truth.
func (db *FriendRequestDB) Create(ctx context.Context, req *model.FriendRequest) error {
	now := time.Now().UTC()
	req.ID = xid.New().String()
	req.Status = model.StatusPending
	req.CreatedAt = now
	req.UpdatedAt = now

	lo, hi := pairKey(req.SenderID, req.RecipientID)

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO friend_requests
			(id, sender_id, recipient_id, pair_lo, pair_hi, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID,
		req.SenderID,
		req.RecipientID,
		lo,
		hi,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("a friend request already exists between you and this user")
		}
		return fmt.Errorf("sqlite: inserting friend request %s->%s: %w",
			req.SenderID, req.RecipientID, err)
	}

	return nil
}

// GetByID retrieves a friend request by ID.
func (db *FriendRequestDB) GetByID(ctx context.Context, id string) (*model.FriendRequest, error) {
	var req model.FriendRequest
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, sender_id, recipient_id, status, created_at, updated_at
		 FROM friend_requests WHERE id = ?`,
		id,
	).Scan(
		&req.ID,
		&req.SenderID,
		&req.RecipientID,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("friend request", id)
		}
		return nil, fmt.Errorf("sqlite: getting friend request %s: %w", id, err)
	}
	return &req, nil
}

// Accept transitions the request to accepted and records the friendship in
// both directions, all inside one transaction.
//
// The conditional UPDATE (... WHERE status = 'pending') is the serialization
// point: of two concurrent accepts, exactly one flips the row and goes on to
// insert the edges; the other sees zero rows affected and returns Conflict.
// The edge inserts use INSERT OR IGNORE so a crash-and-retry after a partial
// commit can never double-append — though with the transaction, no observer
// ever sees the status flipped without both edges present.
func (db *FriendRequestDB) Accept(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning accept transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE friend_requests SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		model.StatusAccepted, time.Now().UTC(), id, model.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("sqlite: accepting friend request %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: accepting friend request %s: %w", id, err)
	}
	if affected == 0 {
		// Either the request doesn't exist or it was already accepted —
		// re-read to tell the two apart.
		var status model.RequestStatus
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM friend_requests WHERE id = ?`, id,
		).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("friend request", id)
		}
		if err != nil {
			return fmt.Errorf("sqlite: re-reading friend request %s: %w", id, err)
		}
		return apperror.Conflict("friend request already accepted")
	}

	var senderID, recipientID string
	err = tx.QueryRowContext(ctx,
		`SELECT sender_id, recipient_id FROM friend_requests WHERE id = ?`, id,
	).Scan(&senderID, &recipientID)
	if err != nil {
		return fmt.Errorf("sqlite: reading accepted request %s: %w", id, err)
	}

	// Both directions of the edge, committed together with the status flip.
	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO friendships (user_id, friend_id) VALUES (?, ?), (?, ?)`,
		senderID, recipientID,
		recipientID, senderID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting friendship edges for request %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing accept of request %s: %w", id, err)
	}

	return nil
}

// ListIncoming returns requests addressed to userID with the given status,
// joined with each sender's public profile.
func (db *FriendRequestDB) ListIncoming(ctx context.Context, userID string, status model.RequestStatus) ([]model.IncomingRequest, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT r.id, r.sender_id, r.recipient_id, r.status, r.created_at, r.updated_at,
			u.id, u.full_name, u.profile_pic, u.native_language, u.learning_language
		 FROM friend_requests r
		 JOIN users u ON u.id = r.sender_id
		 WHERE r.recipient_id = ? AND r.status = ?
		 ORDER BY r.created_at DESC`,
		userID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing incoming requests for %s: %w", userID, err)
	}
	defer rows.Close()

	reqs := []model.IncomingRequest{}
	for rows.Next() {
		var in model.IncomingRequest
		err := rows.Scan(
			&in.ID, &in.SenderID, &in.RecipientID, &in.Status, &in.CreatedAt, &in.UpdatedAt,
			&in.Sender.ID, &in.Sender.FullName, &in.Sender.ProfilePic,
			&in.Sender.NativeLanguage, &in.Sender.LearningLanguage,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning incoming request: %w", err)
		}
		reqs = append(reqs, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating incoming requests: %w", err)
	}
	return reqs, nil
}

// ListOutgoing returns pending requests sent by userID, joined with each
// recipient's public profile.
func (db *FriendRequestDB) ListOutgoing(ctx context.Context, userID string) ([]model.OutgoingRequest, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT r.id, r.sender_id, r.recipient_id, r.status, r.created_at, r.updated_at,
			u.id, u.full_name, u.profile_pic, u.native_language, u.learning_language
		 FROM friend_requests r
		 JOIN users u ON u.id = r.recipient_id
		 WHERE r.sender_id = ? AND r.status = ?
		 ORDER BY r.created_at DESC`,
		userID, model.StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing outgoing requests for %s: %w", userID, err)
	}
	defer rows.Close()

	reqs := []model.OutgoingRequest{}
	for rows.Next() {
		var out model.OutgoingRequest
		err := rows.Scan(
			&out.ID, &out.SenderID, &out.RecipientID, &out.Status, &out.CreatedAt, &out.UpdatedAt,
			&out.Recipient.ID, &out.Recipient.FullName, &out.Recipient.ProfilePic,
			&out.Recipient.NativeLanguage, &out.Recipient.LearningLanguage,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning outgoing request: %w", err)
		}
		reqs = append(reqs, out)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating outgoing requests: %w", err)
	}
	return reqs, nil
}
