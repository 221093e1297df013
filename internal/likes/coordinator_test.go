package likes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kata-app/kata-backend/internal/models"
	"github.com/kata-app/kata-backend/internal/remote"
)

type fakeCache struct {
	items map[string]*models.Contribution
	puts  int
}

func newFakeCache(items ...*models.Contribution) *fakeCache {
	c := &fakeCache{items: make(map[string]*models.Contribution)}
	for _, it := range items {
		c.items[it.ID.Hex()] = it.Clone()
	}
	return c
}

func (c *fakeCache) Get(id string) (*models.Contribution, bool) {
	it, ok := c.items[id]
	if !ok {
		return nil, false
	}
	return it.Clone(), true
}

func (c *fakeCache) Put(m *models.Contribution) {
	c.puts++
	c.items[m.ID.Hex()] = m.Clone()
}

type fakeRemote struct {
	err   error
	calls int
}

func (r *fakeRemote) ApplyLikeDelta(ctx context.Context, id, uid string, like bool) error {
	r.calls++
	return r.err
}

func sample(likes int, likedBy ...string) *models.Contribution {
	return &models.Contribution{
		ID:      primitive.NewObjectID(),
		Type:    models.TypeAudio,
		Title:   "morning chant",
		Likes:   likes,
		LikedBy: append([]string{}, likedBy...),
	}
}

func TestToggleLikeCommit(t *testing.T) {
	c := sample(2, "other")
	cache := newFakeCache(c)
	rem := &fakeRemote{}
	coord := NewCoordinator(cache, rem)

	res, err := coord.ToggleLike(context.Background(), c.ID.Hex(), "u1")
	require.NoError(t, err)
	assert.Equal(t, PhaseCommitted, res.Phase)
	assert.True(t, res.Liked)
	assert.Equal(t, 3, res.Contribution.Likes)

	got, ok := cache.Get(c.ID.Hex())
	require.True(t, ok)
	assert.Equal(t, 3, got.Likes)
	assert.True(t, got.LikedByUser("u1"))
	// Count and membership always move together.
	assert.Len(t, got.LikedBy, got.Likes)
}

func TestToggleLikeTwiceRestoresOriginal(t *testing.T) {
	c := sample(5, "a", "b", "c", "d", "e")
	cache := newFakeCache(c)
	coord := NewCoordinator(cache, &fakeRemote{})

	res, err := coord.ToggleLike(context.Background(), c.ID.Hex(), "u1")
	require.NoError(t, err)
	assert.True(t, res.Liked)

	res, err = coord.ToggleLike(context.Background(), c.ID.Hex(), "u1")
	require.NoError(t, err)
	assert.False(t, res.Liked)

	got, ok := cache.Get(c.ID.Hex())
	require.True(t, ok)
	assert.Equal(t, 5, got.Likes)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, got.LikedBy)
}

func TestToggleLikeRevertsOnRemoteFailure(t *testing.T) {
	c := sample(1, "other")
	cache := newFakeCache(c)
	rem := &fakeRemote{err: errors.New("connection reset")}
	coord := NewCoordinator(cache, rem)

	res, err := coord.ToggleLike(context.Background(), c.ID.Hex(), "u1")
	require.Error(t, err)
	assert.True(t, remote.IsKind(err, remote.KindRemote))
	require.NotNil(t, res)
	assert.Equal(t, PhaseReverted, res.Phase)
	assert.False(t, res.Liked)

	// The exact prior snapshot is restored, count and membership both.
	got, ok := cache.Get(c.ID.Hex())
	require.True(t, ok)
	assert.Equal(t, 1, got.Likes)
	assert.Equal(t, []string{"other"}, got.LikedBy)
	assert.False(t, got.LikedByUser("u1"))
}

func TestToggleUnlikeRevertsOnRemoteFailure(t *testing.T) {
	c := sample(2, "u1", "other")
	cache := newFakeCache(c)
	coord := NewCoordinator(cache, &fakeRemote{err: errors.New("timeout")})

	res, err := coord.ToggleLike(context.Background(), c.ID.Hex(), "u1")
	require.Error(t, err)
	assert.Equal(t, PhaseReverted, res.Phase)
	assert.True(t, res.Liked)

	got, _ := cache.Get(c.ID.Hex())
	assert.Equal(t, 2, got.Likes)
	assert.True(t, got.LikedByUser("u1"))
}

func TestToggleLikeRequiresIdentity(t *testing.T) {
	c := sample(0)
	cache := newFakeCache(c)
	rem := &fakeRemote{}
	coord := NewCoordinator(cache, rem)

	_, err := coord.ToggleLike(context.Background(), c.ID.Hex(), "")
	require.Error(t, err)
	assert.True(t, remote.IsKind(err, remote.KindAuthenticationRequired))

	// No local mutation, no remote call.
	assert.Zero(t, cache.puts)
	assert.Zero(t, rem.calls)
	got, _ := cache.Get(c.ID.Hex())
	assert.Equal(t, 0, got.Likes)
}

func TestToggleLikeUnknownContribution(t *testing.T) {
	coord := NewCoordinator(newFakeCache(), &fakeRemote{})
	_, err := coord.ToggleLike(context.Background(), primitive.NewObjectID().Hex(), "u1")
	require.Error(t, err)
	assert.True(t, remote.IsKind(err, remote.KindNotFound))
}
