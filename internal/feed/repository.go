package feed

import (
	"context"
	"sort"
	"sync"

	"github.com/kata-app/kata-backend/internal/models"
	"github.com/kata-app/kata-backend/internal/remote"
)

// DiscoverySize is the top-N cutoff for the home surface.
const DiscoverySize = 5

// Lister is the gateway surface the repository fetches through.
type Lister interface {
	ListContributions(ctx context.Context, filter *remote.ListFilter) ([]models.Contribution, error)
}

// Stats is the personal-stats reduction over a user's own contributions.
type Stats struct {
	AudioCount int `json:"audio_count"`
	TextCount  int `json:"text_count"`
	TotalLikes int `json:"total_likes"`
}

// Repository is an in-memory projection of contribution records. Every fetch
// fully replaces the cached result set; nothing is merged incrementally, so
// no fetch can observe a half-patched cache.
type Repository struct {
	remote Lister

	mu    sync.RWMutex
	items []models.Contribution
}

func NewRepository(r Lister) *Repository {
	return &Repository{remote: r}
}

func (r *Repository) replace(items []models.Contribution) {
	r.mu.Lock()
	r.items = items
	r.mu.Unlock()
}

// Refresh fetches the full collection and replaces the cache.
func (r *Repository) Refresh(ctx context.Context) ([]models.Contribution, error) {
	items, err := r.remote.ListContributions(ctx, nil)
	if err != nil {
		return nil, err
	}
	items = DedupeByID(items)
	r.replace(items)
	return items, nil
}

// PersonalStats fetches the user's own contributions and reduces them in a
// single pass. The fold is recomputed in full on every refresh, never
// incrementally.
func (r *Repository) PersonalStats(ctx context.Context, uid string) (Stats, error) {
	items, err := r.remote.ListContributions(ctx, &remote.ListFilter{OwnerUID: uid})
	if err != nil {
		return Stats{}, err
	}

	var s Stats
	for _, it := range items {
		switch it.Type {
		case models.TypeAudio:
			s.AudioCount++
		case models.TypeText:
			s.TextCount++
		}
		s.TotalLikes += it.Likes
	}
	return s, nil
}

// Discovery fetches the full collection and returns the top n contributions
// by like count, descending. The sort is stable, so equal like counts keep
// their original fetch order.
func (r *Repository) Discovery(ctx context.Context, n int) ([]models.Contribution, error) {
	items, err := r.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	ranked := append([]models.Contribution(nil), items...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Likes > ranked[j].Likes
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// Search fetches with at most the type pushed down as a server-side equality
// predicate, replaces the cache, and runs the client-side filter pipeline
// over the fetched set.
func (r *Repository) Search(ctx context.Context, crit Criteria) ([]models.Contribution, error) {
	items, err := r.remote.ListContributions(ctx, crit.ServerFilter())
	if err != nil {
		return nil, err
	}
	items = DedupeByID(items)
	r.replace(items)
	return crit.Apply(items), nil
}

// Get returns a copy of the cached contribution with the given hex id.
func (r *Repository) Get(id string) (*models.Contribution, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.items {
		if r.items[i].ID.Hex() == id {
			return r.items[i].Clone(), true
		}
	}
	return nil, false
}

// Put replaces the cached record sharing c's id, or appends it when absent.
// Used by the like coordinator for its optimistic mutation and revert.
func (r *Repository) Put(c *models.Contribution) {
	cp := c.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == cp.ID {
			r.items[i] = *cp
			return
		}
	}
	r.items = append(r.items, *cp)
}
