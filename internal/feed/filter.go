package feed

import (
	"strings"

	"github.com/kata-app/kata-backend/internal/models"
	"github.com/kata-app/kata-backend/internal/remote"
)

// TypeAll disables type narrowing.
const TypeAll = "all"

// Criteria is the ephemeral, client-side search state. It is never persisted;
// a new value is built per search session.
type Criteria struct {
	Query    string // title substring, case-insensitive
	Type     string // contribution type or "all"
	Language string // equality
	Location string // substring, case-insensitive
	Username string // creator-username substring, case-insensitive
}

// ServerFilter returns the single equality predicate pushed to the gateway:
// the type, when it is not "all". Everything else is applied by Apply.
func (c Criteria) ServerFilter() *remote.ListFilter {
	t := strings.ToLower(strings.TrimSpace(c.Type))
	if t == "" || t == TypeAll {
		return nil
	}
	return &remote.ListFilter{Type: t}
}

type stage func(*models.Contribution) bool

// stages builds the ordered client-side predicate pipeline: language
// equality, then location, creator-username and title substrings.
func (c Criteria) stages() []stage {
	var st []stage
	if lang := strings.TrimSpace(c.Language); lang != "" {
		st = append(st, func(m *models.Contribution) bool {
			return strings.EqualFold(m.Language, lang)
		})
	}
	if loc := strings.ToLower(strings.TrimSpace(c.Location)); loc != "" {
		st = append(st, func(m *models.Contribution) bool {
			return strings.Contains(strings.ToLower(m.Location), loc)
		})
	}
	if name := strings.ToLower(strings.TrimSpace(c.Username)); name != "" {
		st = append(st, func(m *models.Contribution) bool {
			return strings.Contains(strings.ToLower(m.Username), name)
		})
	}
	if q := strings.ToLower(strings.TrimSpace(c.Query)); q != "" {
		st = append(st, func(m *models.Contribution) bool {
			return strings.Contains(strings.ToLower(m.Title), q)
		})
	}
	return st
}

// Apply runs the predicate pipeline over items and de-duplicates the result
// by id. It is pure: the input is never mutated, and re-running it over the
// same data yields identical ordering and membership.
func (c Criteria) Apply(items []models.Contribution) []models.Contribution {
	stages := c.stages()
	out := make([]models.Contribution, 0, len(items))
outer:
	for i := range items {
		for _, keep := range stages {
			if !keep(&items[i]) {
				continue outer
			}
		}
		out = append(out, items[i])
	}
	return DedupeByID(out)
}

// DedupeByID keeps the first occurrence of every id, defending against
// pagination or overlap artifacts in the underlying fetch.
func DedupeByID(items []models.Contribution) []models.Contribution {
	seen := make(map[string]struct{}, len(items))
	out := make([]models.Contribution, 0, len(items))
	for _, it := range items {
		id := it.ID.Hex()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, it)
	}
	return out
}
