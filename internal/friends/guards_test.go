package friends

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidfriends/friendgraph/internal/models"
)

func TestRequireUserExists(t *testing.T) {
	users := newMemUsers(alice)

	require.NoError(t, RequireUserExists(context.Background(), users, alice))
	assert.ErrorIs(t, RequireUserExists(context.Background(), users, bob), ErrPrecondition)

	users.err = errors.New("dial tcp: refused")
	err := RequireUserExists(context.Background(), users, alice)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPrecondition)
}

func TestRequirePendingRequest(t *testing.T) {
	store := newMemStore()
	store.seed(alice, bob, models.FriendshipRequested)
	store.seed(carol, bob, models.FriendshipDeclined)

	require.NoError(t, RequirePendingRequest(context.Background(), store, bob, alice))
	assert.ErrorIs(t, RequirePendingRequest(context.Background(), store, bob, carol), ErrPrecondition)
	assert.ErrorIs(t, RequirePendingRequest(context.Background(), store, alice, bob), ErrPrecondition)

	boom := errors.New("read timeout")
	store.failOn("find", alice, bob, boom)
	err := RequirePendingRequest(context.Background(), store, bob, alice)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrPrecondition)
}
