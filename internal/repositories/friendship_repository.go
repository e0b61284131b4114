package repositories

import (
	"context"

	"github.com/vidfriends/friendgraph/internal/models"
)

// FriendshipQueries are the row-level operations on directed friendship edges.
// They are available both on the repository and inside a transaction.
type FriendshipQueries interface {
	Find(ctx context.Context, userID, friendUserID string) (models.Friendship, error)
	Create(ctx context.Context, friendship models.Friendship) error
	UpdateStatus(ctx context.Context, userID, friendUserID string, status models.FriendshipStatus) error
	// TransitionStatus moves an edge from one status to another and returns
	// ErrNotFound when the edge is missing or no longer holds from.
	TransitionStatus(ctx context.Context, userID, friendUserID string, from, to models.FriendshipStatus) error
}

// FriendshipRepository defines data access for friendships.
type FriendshipRepository interface {
	FriendshipQueries
	// WithinTx runs fn inside a single transaction. Any error returned by fn
	// rolls back every statement issued through the supplied queries.
	WithinTx(ctx context.Context, fn func(FriendshipQueries) error) error
	ListOutgoing(ctx context.Context, userID string, status models.FriendshipStatus) ([]models.Friendship, error)
	ListIncoming(ctx context.Context, userID string, status models.FriendshipStatus) ([]models.Friendship, error)
}
