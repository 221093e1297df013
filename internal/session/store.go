package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/kata-app/kata-backend/internal/models"
	"github.com/kata-app/kata-backend/internal/remote"
)

// State is the auth lifecycle of the process: Unknown until the first auth
// event arrives, then Authenticated or Anonymous.
type State int

const (
	StateUnknown State = iota
	StateAuthenticated
	StateAnonymous
)

const profileLoadTimeout = 10 * time.Second

// AuthSource is the gateway surface the store subscribes to.
type AuthSource interface {
	SubscribeAuthState() (<-chan remote.AuthEvent, func())
}

// ProfileReader resolves a principal to its profile record.
type ProfileReader interface {
	GetProfile(ctx context.Context, uid string) (*models.User, error)
}

// Store holds the current authenticated identity for the process. It is
// created at process start, consumes the gateway's auth-state stream until
// Close, and replaces its cached identity on every event. Reads are null-safe
// while the state is Unknown or Anonymous.
type Store struct {
	profiles ProfileReader

	mu       sync.RWMutex
	state    State
	identity *models.User
	loading  bool

	cancel func()
	done   chan struct{}
}

// NewStore subscribes to src and starts consuming auth events. The store
// reports loading until the first event has been handled; screens reading it
// before that must tolerate the Unknown state.
func NewStore(src AuthSource, profiles ProfileReader) *Store {
	events, cancel := src.SubscribeAuthState()
	s := &Store{
		profiles: profiles,
		state:    StateUnknown,
		loading:  true,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go s.run(events)
	return s
}

func (s *Store) run(events <-chan remote.AuthEvent) {
	defer close(s.done)
	for evt := range events {
		s.handle(evt)
	}
}

func (s *Store) handle(evt remote.AuthEvent) {
	if evt.UID == "" {
		s.set(StateAnonymous, nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), profileLoadTimeout)
	defer cancel()

	user, err := s.profiles.GetProfile(ctx, evt.UID)
	switch {
	case err == nil:
		s.set(StateAuthenticated, user)
	case remote.IsKind(err, remote.KindNotFound):
		// The profile record may lag principal creation; fall back to a
		// minimal identity rather than treating this as an error.
		s.set(StateAuthenticated, &models.User{UID: evt.UID, Email: evt.Email})
	default:
		log.Printf("error loading profile for %s: %v", evt.UID, err)
		s.clearLoading()
	}
}

func (s *Store) set(state State, identity *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.identity = identity
	s.loading = false
}

func (s *Store) clearLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
}

// State returns the current auth state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Identity returns the current identity, nil when Unknown or Anonymous.
func (s *Store) Identity() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Loading reports whether the first auth event is still pending. It drops to
// false on the first transition and never re-enters loading afterwards.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Close cancels the auth-stream subscription and waits for the consumer to
// drain.
func (s *Store) Close() {
	s.cancel()
	<-s.done
}
