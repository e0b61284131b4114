package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vidfriends/friendgraph/internal/auth"
	"github.com/vidfriends/friendgraph/internal/friends"
	"github.com/vidfriends/friendgraph/internal/logging"
	"github.com/vidfriends/friendgraph/internal/models"
)

// FriendHandler exposes the friendship workflow over HTTP. Every route expects
// the authenticated user on the request context.
type FriendHandler struct {
	Friends FriendService
}

type friendRequestBody struct {
	FriendUserID string `json:"friendUserId"`
}

type friendsResponse struct {
	Friends []models.Friendship `json:"friends"`
}

type requestsResponse struct {
	Requests []models.Friendship `json:"requests"`
}

type friendAction func(ctx context.Context, userID, friendUserID string) error

// Send handles POST /api/v1/friends/requests.
func (h FriendHandler) Send(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "send", func(ctx context.Context, userID, friendUserID string) error {
		return h.Friends.Send(ctx, userID, friendUserID)
	})
}

// Accept handles POST /api/v1/friends/requests/accept.
func (h FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "accept", func(ctx context.Context, userID, friendUserID string) error {
		return h.Friends.Accept(ctx, userID, friendUserID)
	})
}

// Decline handles POST /api/v1/friends/requests/decline.
func (h FriendHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "decline", func(ctx context.Context, userID, friendUserID string) error {
		return h.Friends.Decline(ctx, userID, friendUserID)
	})
}

func (h FriendHandler) mutate(w http.ResponseWriter, r *http.Request, action string, run friendAction) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Friends == nil {
		logger.Error("friend service unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "friend service unavailable")
		return
	}

	userID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	var body friendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logger.Warn("invalid friend payload", "action", action, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := run(ctx, userID, body.FriendUserID); err != nil {
		status, message := friendErrorStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error("friend action failed", "action", action, "error", err)
		}
		respondError(ctx, w, status, message)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/v1/friends.
func (h FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.listPreamble(w, r)
	if !ok {
		return
	}

	friendships, err := h.Friends.ListFriends(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("list friends failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to list friends")
		return
	}
	if friendships == nil {
		friendships = []models.Friendship{}
	}

	respondJSON(ctx, w, http.StatusOK, friendsResponse{Friends: friendships})
}

// Incoming handles GET /api/v1/friends/requests.
func (h FriendHandler) Incoming(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.listPreamble(w, r)
	if !ok {
		return
	}

	requests, err := h.Friends.ListIncoming(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("list friend requests failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to list friend requests")
		return
	}
	if requests == nil {
		requests = []models.Friendship{}
	}

	respondJSON(ctx, w, http.StatusOK, requestsResponse{Requests: requests})
}

func (h FriendHandler) listPreamble(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()
	if h.Friends == nil {
		respondError(ctx, w, http.StatusInternalServerError, "friend service unavailable")
		return "", false
	}
	userID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return userID, true
}

func friendErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, friends.ErrInvalidInput), errors.Is(err, friends.ErrPrecondition):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "authentication required"
	default:
		return http.StatusInternalServerError, "unable to update friendship"
	}
}
