package handlers

import (
	"context"

	"github.com/vidfriends/friendgraph/internal/models"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// SessionManager issues, refreshes and verifies authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

// FriendService runs the friendship workflow on behalf of the authenticated user.
type FriendService interface {
	Send(ctx context.Context, userID, friendUserID string) error
	Accept(ctx context.Context, userID, senderID string) error
	Decline(ctx context.Context, userID, senderID string) error
	ListFriends(ctx context.Context, userID string) ([]models.Friendship, error)
	ListIncoming(ctx context.Context, userID string) ([]models.Friendship, error)
}

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker func(ctx context.Context) error
