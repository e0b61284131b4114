package friends

import (
	"context"
	"errors"
	"fmt"

	"github.com/vidfriends/friendgraph/internal/models"
	"github.com/vidfriends/friendgraph/internal/repositories"
)

// UserFinder resolves user identifiers against the account collaborator.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// FriendshipFinder loads a single directed edge.
type FriendshipFinder interface {
	Find(ctx context.Context, userID, friendUserID string) (models.Friendship, error)
}

// RequireUserExists rejects a send when the target account is unknown.
func RequireUserExists(ctx context.Context, users UserFinder, userID string) error {
	if _, err := users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: user %s does not exist", ErrPrecondition, userID)
		}
		return fmt.Errorf("look up user: %w", err)
	}
	return nil
}

// RequirePendingRequest rejects an answer unless senderID has an unanswered
// request addressed to recipientID.
func RequirePendingRequest(ctx context.Context, friendships FriendshipFinder, recipientID, senderID string) error {
	request, err := friendships.Find(ctx, senderID, recipientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: no friend request from %s", ErrPrecondition, senderID)
		}
		return fmt.Errorf("look up friend request: %w", err)
	}

	if request.Status != models.FriendshipRequested {
		return fmt.Errorf("%w: friend request from %s is %s", ErrPrecondition, senderID, request.Status)
	}

	return nil
}
