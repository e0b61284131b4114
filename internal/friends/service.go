package friends

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidfriends/friendgraph/internal/logging"
	"github.com/vidfriends/friendgraph/internal/models"
	"github.com/vidfriends/friendgraph/internal/repositories"
)

// EventPublisher receives committed friendship transitions.
type EventPublisher interface {
	Publish(ctx context.Context, event models.FriendshipEvent) error
}

// Service implements the friendship workflow: send, accept and decline, each
// run as guard, validation, then mutation.
type Service struct {
	users       UserFinder
	friendships repositories.FriendshipRepository
	events      EventPublisher
	now         func() time.Time
}

// NewService wires a Service. events may be nil when no publisher is configured.
func NewService(users UserFinder, friendships repositories.FriendshipRepository, events EventPublisher) *Service {
	return &Service{
		users:       users,
		friendships: friendships,
		events:      events,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc allows tests to override the time source.
func (s *Service) WithNowFunc(now func() time.Time) {
	s.now = now
}

// ParseUserID validates a user identifier taken from a request payload and
// returns its canonical form.
func ParseUserID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: friendUserId is required", ErrInvalidInput)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: friendUserId must be a UUID", ErrInvalidInput)
	}
	return id.String(), nil
}

func validatePair(userID, friendUserID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: acting user is required", ErrInvalidInput)
	}
	id, err := ParseUserID(friendUserID)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(id, userID) {
		return "", fmt.Errorf("%w: cannot target yourself", ErrInvalidInput)
	}
	return id, nil
}

// Send records a friend request from userID to friendUserID. It succeeds
// without change when a request is already pending or the pair is already
// friends, and re-opens a previously declined request.
func (s *Service) Send(ctx context.Context, userID, friendUserID string) error {
	ctx, span := logging.StartSpan(ctx, "friends.send")
	defer span.End()

	friendUserID, err := validatePair(userID, friendUserID)
	if err != nil {
		return span.Fail(err)
	}

	if err := RequireUserExists(ctx, s.users, friendUserID); err != nil {
		return span.Fail(err)
	}

	logger := logging.FromContext(ctx).With(slog.String("userId", userID), slog.String("friendUserId", friendUserID))

	existing, err := s.friendships.Find(ctx, userID, friendUserID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		now := s.now()
		err := s.friendships.Create(ctx, models.Friendship{
			ID:           uuid.NewString(),
			UserID:       userID,
			FriendUserID: friendUserID,
			Status:       models.FriendshipRequested,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if errors.Is(err, repositories.ErrConflict) {
			// A concurrent send for the same pair won the insert.
			logger.Info("friend request created concurrently")
			return nil
		}
		if errors.Is(err, repositories.ErrNotFound) {
			// The recipient was removed after the existence check.
			return span.Fail(fmt.Errorf("%w: user %s does not exist", ErrPrecondition, friendUserID))
		}
		if err != nil {
			return span.Fail(fmt.Errorf("create friend request: %w", err))
		}
	case err != nil:
		return span.Fail(fmt.Errorf("load friendship: %w", err))
	case existing.Status == models.FriendshipDeclined:
		err := s.friendships.TransitionStatus(ctx, userID, friendUserID, models.FriendshipDeclined, models.FriendshipRequested)
		if errors.Is(err, repositories.ErrNotFound) {
			// Someone else moved the edge off declined first.
			logger.Info("friend request changed concurrently")
			return nil
		}
		if err != nil {
			return span.Fail(fmt.Errorf("reopen friend request: %w", err))
		}
	default:
		logger.Info("friend request unchanged", slog.String("status", string(existing.Status)))
		return nil
	}

	logger.Info("friend request sent")
	s.emit(ctx, models.EventFriendshipRequested, userID, friendUserID)
	return nil
}

// Accept answers the pending request from senderID to userID and makes the
// friendship mutual. Both directed edges are written in one transaction.
func (s *Service) Accept(ctx context.Context, userID, senderID string) error {
	ctx, span := logging.StartSpan(ctx, "friends.accept")
	defer span.End()

	senderID, err := validatePair(userID, senderID)
	if err != nil {
		return span.Fail(err)
	}

	if err := RequirePendingRequest(ctx, s.friendships, userID, senderID); err != nil {
		return span.Fail(err)
	}

	err = s.friendships.WithinTx(ctx, func(q repositories.FriendshipQueries) error {
		// Re-check under the row lock; the request may have been answered since the guard ran.
		if err := RequirePendingRequest(ctx, q, userID, senderID); err != nil {
			return err
		}

		err := q.TransitionStatus(ctx, senderID, userID, models.FriendshipRequested, models.FriendshipAccepted)
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: friend request from %s is no longer pending", ErrPrecondition, senderID)
		}
		if err != nil {
			return fmt.Errorf("accept friend request: %w", err)
		}

		_, err = q.Find(ctx, userID, senderID)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			now := s.now()
			if err := q.Create(ctx, models.Friendship{
				ID:           uuid.NewString(),
				UserID:       userID,
				FriendUserID: senderID,
				Status:       models.FriendshipAccepted,
				CreatedAt:    now,
				UpdatedAt:    now,
			}); err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return fmt.Errorf("%w: user %s does not exist", ErrPrecondition, senderID)
				}
				return fmt.Errorf("create reverse friendship: %w", err)
			}
		case err != nil:
			return fmt.Errorf("load reverse friendship: %w", err)
		default:
			if err := q.UpdateStatus(ctx, userID, senderID, models.FriendshipAccepted); err != nil {
				return fmt.Errorf("accept reverse friendship: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return span.Fail(err)
	}

	logging.FromContext(ctx).Info("friend request accepted", slog.String("userId", userID), slog.String("friendUserId", senderID))
	s.emit(ctx, models.EventFriendshipAccepted, userID, senderID)
	return nil
}

// Decline answers the pending request from senderID to userID. Only the
// original direction changes.
func (s *Service) Decline(ctx context.Context, userID, senderID string) error {
	ctx, span := logging.StartSpan(ctx, "friends.decline")
	defer span.End()

	senderID, err := validatePair(userID, senderID)
	if err != nil {
		return span.Fail(err)
	}

	if err := RequirePendingRequest(ctx, s.friendships, userID, senderID); err != nil {
		return span.Fail(err)
	}

	// Conditional on the edge still being requested so a concurrent accept
	// cannot be overwritten and leave the pair half accepted.
	err = s.friendships.TransitionStatus(ctx, senderID, userID, models.FriendshipRequested, models.FriendshipDeclined)
	if errors.Is(err, repositories.ErrNotFound) {
		return span.Fail(fmt.Errorf("%w: friend request from %s is no longer pending", ErrPrecondition, senderID))
	}
	if err != nil {
		return span.Fail(fmt.Errorf("decline friend request: %w", err))
	}

	logging.FromContext(ctx).Info("friend request declined", slog.String("userId", userID), slog.String("friendUserId", senderID))
	s.emit(ctx, models.EventFriendshipDeclined, userID, senderID)
	return nil
}

// ListFriends returns the accepted edges owned by userID.
func (s *Service) ListFriends(ctx context.Context, userID string) ([]models.Friendship, error) {
	friendships, err := s.friendships.ListOutgoing(ctx, userID, models.FriendshipAccepted)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return friendships, nil
}

// ListIncoming returns unanswered requests addressed to userID.
func (s *Service) ListIncoming(ctx context.Context, userID string) ([]models.Friendship, error) {
	requests, err := s.friendships.ListIncoming(ctx, userID, models.FriendshipRequested)
	if err != nil {
		return nil, fmt.Errorf("list friend requests: %w", err)
	}
	return requests, nil
}

// emit hands a committed transition to the publisher. The mutation has already
// committed, so a publish failure is logged rather than returned.
func (s *Service) emit(ctx context.Context, eventType models.FriendshipEventType, actorID, subjectID string) {
	if s.events == nil {
		return
	}

	event := models.FriendshipEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		ActorID:    actorID,
		SubjectID:  subjectID,
		OccurredAt: s.now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		logging.FromContext(ctx).Warn("publish friendship event", slog.String("type", string(eventType)), slog.Any("error", err))
	}
}
