package models

import "time"

// User represents an account that can take part in friendships.
type User struct {
	ID        string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FriendshipStatus is the state of one directed friendship edge.
type FriendshipStatus string

const (
	FriendshipRequested FriendshipStatus = "requested"
	FriendshipAccepted  FriendshipStatus = "accepted"
	FriendshipDeclined  FriendshipStatus = "declined"
)

// Valid reports whether the status belongs to the closed set of known states.
func (s FriendshipStatus) Valid() bool {
	switch s {
	case FriendshipRequested, FriendshipAccepted, FriendshipDeclined:
		return true
	}
	return false
}

// Friendship is a directed edge owned by UserID and pointing at FriendUserID.
// Two users are friends once both directions are accepted.
type Friendship struct {
	ID           string           `json:"id"`
	UserID       string           `json:"userId"`
	FriendUserID string           `json:"friendUserId"`
	Status       FriendshipStatus `json:"status"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// FriendshipEventType names a committed friendship transition.
type FriendshipEventType string

const (
	EventFriendshipRequested FriendshipEventType = "friendship.requested"
	EventFriendshipAccepted  FriendshipEventType = "friendship.accepted"
	EventFriendshipDeclined  FriendshipEventType = "friendship.declined"
)

// FriendshipEvent is emitted after a friendship mutation commits.
type FriendshipEvent struct {
	ID         string              `json:"id"`
	Type       FriendshipEventType `json:"type"`
	ActorID    string              `json:"actorId"`
	SubjectID  string              `json:"subjectId"`
	OccurredAt time.Time           `json:"occurredAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
