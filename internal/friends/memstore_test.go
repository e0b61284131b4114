package friends

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vidfriends/friendgraph/internal/models"
	"github.com/vidfriends/friendgraph/internal/repositories"
)

type pairKey struct {
	userID       string
	friendUserID string
}

// memStore is a FriendshipRepository with transactional rollback and per-call
// failure injection.
type memStore struct {
	mu   sync.Mutex
	rows map[pairKey]models.Friendship

	// failures maps an operation name ("find", "create", "update") and the
	// pair it targets to the error it should return.
	failures map[string]error
	calls    []string

	// before holds one-shot callbacks run ahead of a write to the same key,
	// outside the lock, to interleave a competing operation.
	before map[string]func()
}

func newMemStore() *memStore {
	return &memStore{
		rows:     make(map[pairKey]models.Friendship),
		failures: make(map[string]error),
		before:   make(map[string]func()),
	}
}

func opKey(op, userID, friendUserID string) string {
	return fmt.Sprintf("%s:%s->%s", op, userID, friendUserID)
}

func (s *memStore) failOn(op, userID, friendUserID string, err error) {
	s.failures[opKey(op, userID, friendUserID)] = err
}

func (s *memStore) beforeWrite(op, userID, friendUserID string, fn func()) {
	s.before[opKey(op, userID, friendUserID)] = fn
}

func (s *memStore) runBefore(op, userID, friendUserID string) {
	key := opKey(op, userID, friendUserID)
	s.mu.Lock()
	fn := s.before[key]
	delete(s.before, key)
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *memStore) seed(userID, friendUserID string, status models.FriendshipStatus) {
	s.rows[pairKey{userID, friendUserID}] = models.Friendship{
		ID:           "seed-" + userID + "-" + friendUserID,
		UserID:       userID,
		FriendUserID: friendUserID,
		Status:       status,
	}
}

func (s *memStore) get(userID, friendUserID string) (models.Friendship, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[pairKey{userID, friendUserID}]
	return row, ok
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *memStore) record(op, userID, friendUserID string) error {
	key := opKey(op, userID, friendUserID)
	s.calls = append(s.calls, key)
	return s.failures[key]
}

func (s *memStore) Find(_ context.Context, userID, friendUserID string) (models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("find", userID, friendUserID); err != nil {
		return models.Friendship{}, err
	}
	row, ok := s.rows[pairKey{userID, friendUserID}]
	if !ok {
		return models.Friendship{}, repositories.ErrNotFound
	}
	return row, nil
}

func (s *memStore) Create(_ context.Context, friendship models.Friendship) error {
	s.runBefore("create", friendship.UserID, friendship.FriendUserID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("create", friendship.UserID, friendship.FriendUserID); err != nil {
		return err
	}
	key := pairKey{friendship.UserID, friendship.FriendUserID}
	if _, ok := s.rows[key]; ok {
		return repositories.ErrConflict
	}
	s.rows[key] = friendship
	return nil
}

func (s *memStore) UpdateStatus(_ context.Context, userID, friendUserID string, status models.FriendshipStatus) error {
	s.runBefore("update", userID, friendUserID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("update", userID, friendUserID); err != nil {
		return err
	}
	key := pairKey{userID, friendUserID}
	row, ok := s.rows[key]
	if !ok {
		return repositories.ErrNotFound
	}
	row.Status = status
	s.rows[key] = row
	return nil
}

func (s *memStore) TransitionStatus(_ context.Context, userID, friendUserID string, from, to models.FriendshipStatus) error {
	s.runBefore("update", userID, friendUserID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("update", userID, friendUserID); err != nil {
		return err
	}
	key := pairKey{userID, friendUserID}
	row, ok := s.rows[key]
	if !ok || row.Status != from {
		return repositories.ErrNotFound
	}
	row.Status = to
	s.rows[key] = row
	return nil
}

func (s *memStore) WithinTx(ctx context.Context, fn func(repositories.FriendshipQueries) error) error {
	s.mu.Lock()
	snapshot := make(map[pairKey]models.Friendship, len(s.rows))
	for k, v := range s.rows {
		snapshot[k] = v
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.rows = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) ListOutgoing(_ context.Context, userID string, status models.FriendshipStatus) ([]models.Friendship, error) {
	return s.filter(func(f models.Friendship) bool { return f.UserID == userID && f.Status == status })
}

func (s *memStore) ListIncoming(_ context.Context, userID string, status models.FriendshipStatus) ([]models.Friendship, error) {
	return s.filter(func(f models.Friendship) bool { return f.FriendUserID == userID && f.Status == status })
}

func (s *memStore) filter(keep func(models.Friendship) bool) ([]models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["list"]; err != nil {
		return nil, err
	}
	var out []models.Friendship
	for _, row := range s.rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memUsers struct {
	ids map[string]bool
	err error
}

func newMemUsers(ids ...string) *memUsers {
	users := &memUsers{ids: make(map[string]bool)}
	for _, id := range ids {
		users.ids[id] = true
	}
	return users
}

func (u *memUsers) FindByID(_ context.Context, id string) (models.User, error) {
	if u.err != nil {
		return models.User{}, u.err
	}
	if !u.ids[id] {
		return models.User{}, repositories.ErrNotFound
	}
	return models.User{ID: id}, nil
}
