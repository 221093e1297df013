package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kata-app/kata-backend/internal/models"
	"github.com/kata-app/kata-backend/internal/remote"
)

type fakeSource struct {
	ch        chan remote.AuthEvent
	cancelled bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan remote.AuthEvent)}
}

func (f *fakeSource) SubscribeAuthState() (<-chan remote.AuthEvent, func()) {
	return f.ch, func() {
		f.cancelled = true
		close(f.ch)
	}
}

type fakeProfiles struct {
	users map[string]*models.User
	err   error
}

func (f *fakeProfiles) GetProfile(ctx context.Context, uid string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[uid]
	if !ok {
		return nil, remote.NewError(remote.KindNotFound, "profile not found")
	}
	return u, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestStoreStartsUnknownAndLoading(t *testing.T) {
	src := newFakeSource()
	s := NewStore(src, &fakeProfiles{})
	defer s.Close()

	assert.Equal(t, StateUnknown, s.State())
	assert.Nil(t, s.Identity())
	assert.True(t, s.Loading())
}

func TestStoreAuthenticatedWithProfile(t *testing.T) {
	src := newFakeSource()
	profiles := &fakeProfiles{users: map[string]*models.User{
		"u1": {UID: "u1", Email: "a@example.com", Username: "amina"},
	}}
	s := NewStore(src, profiles)
	defer s.Close()

	src.ch <- remote.AuthEvent{UID: "u1", Email: "a@example.com"}
	waitFor(t, func() bool { return s.State() == StateAuthenticated })

	id := s.Identity()
	require.NotNil(t, id)
	assert.Equal(t, "amina", id.Username)
	assert.False(t, s.Loading())
}

func TestStoreMinimalIdentityOnMissingProfile(t *testing.T) {
	src := newFakeSource()
	s := NewStore(src, &fakeProfiles{})
	defer s.Close()

	src.ch <- remote.AuthEvent{UID: "u2", Email: "b@example.com"}
	waitFor(t, func() bool { return s.State() == StateAuthenticated })

	// A missing profile still yields an authenticated session with uid and
	// email; loading must be cleared, not stuck.
	id := s.Identity()
	require.NotNil(t, id)
	assert.Equal(t, "u2", id.UID)
	assert.Equal(t, "b@example.com", id.Email)
	assert.Empty(t, id.Username)
	assert.False(t, s.Loading())
}

func TestStoreAnonymousOnEmptyUID(t *testing.T) {
	src := newFakeSource()
	s := NewStore(src, &fakeProfiles{})
	defer s.Close()

	src.ch <- remote.AuthEvent{}
	waitFor(t, func() bool { return s.State() == StateAnonymous })
	assert.Nil(t, s.Identity())
	assert.False(t, s.Loading())
}

func TestStoreLoadingClearedOnProfileError(t *testing.T) {
	src := newFakeSource()
	s := NewStore(src, &fakeProfiles{err: errors.New("unavailable")})
	defer s.Close()

	src.ch <- remote.AuthEvent{UID: "u3"}
	waitFor(t, func() bool { return !s.Loading() })

	// The state is left as it was; only the loading flag is dropped.
	assert.Equal(t, StateUnknown, s.State())
}

func TestStoreSignOutReplacesIdentity(t *testing.T) {
	src := newFakeSource()
	profiles := &fakeProfiles{users: map[string]*models.User{
		"u1": {UID: "u1", Username: "amina"},
	}}
	s := NewStore(src, profiles)
	defer s.Close()

	src.ch <- remote.AuthEvent{UID: "u1"}
	waitFor(t, func() bool { return s.State() == StateAuthenticated })

	src.ch <- remote.AuthEvent{}
	waitFor(t, func() bool { return s.State() == StateAnonymous })
	assert.Nil(t, s.Identity())
}

func TestStoreCloseCancelsSubscription(t *testing.T) {
	src := newFakeSource()
	s := NewStore(src, &fakeProfiles{})
	s.Close()
	assert.True(t, src.cancelled)
}
