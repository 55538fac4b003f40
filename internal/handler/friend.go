package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/linguahub/internal/auth"
	"github.com/sakif/linguahub/internal/service"
)

// FriendHandler exposes the relationship endpoints. Every route here sits
// behind RequireAuth, so the principal is always present in the context.
type FriendHandler struct {
	service *service.FriendService
	logger  *slog.Logger
}

// NewFriendHandler creates a FriendHandler.
func NewFriendHandler(svc *service.FriendService, logger *slog.Logger) *FriendHandler {
	return &FriendHandler{service: svc, logger: logger}
}

// HandleRecommended lists users the principal might want to connect with.
//
// HTTP: GET /api/users
func (h *FriendHandler) HandleRecommended(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthenticated", Message: "valid authentication required",
		})
		return
	}

	profiles, err := h.service.ListRecommendable(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("listing recommendable users failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profiles)
}

// HandleFriends lists the principal's friends.
//
// HTTP: GET /api/users/friends
func (h *FriendHandler) HandleFriends(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthenticated", Message: "valid authentication required",
		})
		return
	}

	friends, err := h.service.ListFriends(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("listing friends failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, friends)
}

// HandleSendRequest sends a friend request to the user named in the path.
//
// HTTP: POST /api/users/friend-request/{id}
//
// The service checks, in order: not-self (400), recipient exists (404),
// not already friends (409), no existing request for the pair (409).
func (h *FriendHandler) HandleSendRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthenticated", Message: "valid authentication required",
		})
		return
	}

	recipientID := chi.URLParam(r, "id")

	req, err := h.service.SendRequest(r.Context(), user.ID, recipientID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// HandleAcceptRequest accepts the friend request named in the path.
//
// HTTP: PUT /api/users/friend-request/{id}/accept
//
// Only the request's recipient may accept (403 otherwise); accepting an
// already-accepted request is a 409, never a double-apply.
func (h *FriendHandler) HandleAcceptRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthenticated", Message: "valid authentication required",
		})
		return
	}

	requestID := chi.URLParam(r, "id")

	if err := h.service.AcceptRequest(r.Context(), requestID, user.ID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "friend request accepted"})
}

// HandleIncomingRequests lists pending requests addressed to the principal,
// plus their own requests the other side recently accepted.
//
// HTTP: GET /api/users/friend-requests
func (h *FriendHandler) HandleIncomingRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthenticated", Message: "valid authentication required",
		})
		return
	}

	overview, err := h.service.ListIncoming(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("listing incoming requests failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, overview)
}

// HandleOutgoingRequests lists pending requests the principal has sent.
//
// HTTP: GET /api/users/outgoing-friend-requests
func (h *FriendHandler) HandleOutgoingRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "unauthenticated", Message: "valid authentication required",
		})
		return
	}

	outgoing, err := h.service.ListOutgoing(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("listing outgoing requests failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, outgoing)
}
