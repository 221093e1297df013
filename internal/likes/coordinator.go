package likes

import (
	"context"

	"github.com/kata-app/kata-backend/internal/models"
	"github.com/kata-app/kata-backend/internal/remote"
)

// Remote persists a like toggle. The backend performs the count arithmetic
// and the membership mutation in one atomic document update.
type Remote interface {
	ApplyLikeDelta(ctx context.Context, id, uid string, like bool) error
}

// Cache is the local contribution projection the optimistic mutation runs
// against.
type Cache interface {
	Get(id string) (*models.Contribution, bool)
	Put(c *models.Contribution)
}

// Phase tags where a toggle ended, so callers never read state mid-transition
// without knowing which variant they are looking at.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseCommitted
	PhaseReverted
)

// Result reports the outcome of a toggle. After PhaseReverted, Contribution
// is the restored prior snapshot.
type Result struct {
	Contribution *models.Contribution
	Liked        bool
	Phase        Phase
}

// Coordinator applies optimistic like toggles: mutate the cached record
// first, persist remotely, and restore the exact prior snapshot when the
// remote call fails. Local and remote state are never left permanently
// divergent.
type Coordinator struct {
	cache  Cache
	remote Remote
}

func NewCoordinator(cache Cache, remote Remote) *Coordinator {
	return &Coordinator{cache: cache, remote: remote}
}

// ToggleLike flips actingUID's membership in the contribution's liked-by set
// and adjusts the count by one. Without an authenticated identity it fails
// immediately and performs no local mutation. The returned error is always
// recoverable; the caller re-initiates, nothing retries automatically.
func (c *Coordinator) ToggleLike(ctx context.Context, contributionID, actingUID string) (*Result, error) {
	if actingUID == "" {
		return nil, remote.NewError(remote.KindAuthenticationRequired, "sign in to like contributions")
	}

	cur, ok := c.cache.Get(contributionID)
	if !ok {
		return nil, remote.NewError(remote.KindNotFound, "contribution not found")
	}

	prior := cur.Clone()
	wasLiked := cur.LikedByUser(actingUID)

	if wasLiked {
		cur.Likes--
		kept := cur.LikedBy[:0]
		for _, id := range cur.LikedBy {
			if id != actingUID {
				kept = append(kept, id)
			}
		}
		cur.LikedBy = kept
	} else {
		cur.Likes++
		cur.LikedBy = append(cur.LikedBy, actingUID)
	}

	// Optimistic mutation happens-before the remote call is issued.
	c.cache.Put(cur)

	if err := c.remote.ApplyLikeDelta(ctx, contributionID, actingUID, !wasLiked); err != nil {
		// Restore the prior count and membership exactly.
		c.cache.Put(prior)
		return &Result{Contribution: prior, Liked: wasLiked, Phase: PhaseReverted},
			remote.WrapError(remote.KindRemote, "could not update like status", err)
	}

	return &Result{Contribution: cur, Liked: !wasLiked, Phase: PhaseCommitted}, nil
}
