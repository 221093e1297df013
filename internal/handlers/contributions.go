package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/kata-app/kata-backend/internal/feed"
	"github.com/kata-app/kata-backend/internal/models"
	"github.com/kata-app/kata-backend/internal/realtime"
	"github.com/kata-app/kata-backend/internal/remote"
)

// HomeResponse is the home surface: the caller's personal stats and the
// top-liked contributions across all users.
type HomeResponse struct {
	Success bool                  `json:"success"`
	Stats   *feed.Stats           `json:"stats,omitempty"`
	Top     []models.Contribution `json:"top"`
}

// GetHome serves the home surface. Stats are personal, so they are included
// only for an authenticated caller; discovery is public.
func GetHome(w http.ResponseWriter, r *http.Request) {
	var stats *feed.Stats
	if uid := currentUID(r); uid != "" {
		s, err := repo.PersonalStats(r.Context(), uid)
		if err != nil {
			writeError(w, err)
			return
		}
		stats = &s
	}

	top, err := repo.Discovery(r.Context(), feed.DiscoverySize)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, HomeResponse{Success: true, Stats: stats, Top: top})
}

// SearchContributions runs the search/filter fetch: at most the type is
// pushed down to the store; language, location, username and title narrowing
// happen over the fetched set. The 500ms input debounce lives client-side;
// each request here is one already-settled filter run.
func SearchContributions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	crit := feed.Criteria{
		Query:    q.Get("q"),
		Type:     q.Get("type"),
		Language: q.Get("language"),
		Location: q.Get("location"),
		Username: q.Get("username"),
	}

	items, err := repo.Search(r.Context(), crit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: items})
}

// ContributionDetail is the detail surface: the record plus its creator's
// profile when one exists.
type ContributionDetail struct {
	Success      bool                 `json:"success"`
	Contribution *models.Contribution `json:"contribution"`
	Creator      *models.User         `json:"creator,omitempty"`
	Liked        bool                 `json:"liked"`
}

// GetContribution loads one record by the id query parameter.
func GetContribution(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "id is required"})
		return
	}

	c, err := gateway.GetContribution(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	// Keep the local projection current so a like toggle from the detail
	// surface operates on what the caller saw.
	repo.Put(c)

	detail := ContributionDetail{Success: true, Contribution: c}
	if uid := currentUID(r); uid != "" {
		detail.Liked = c.LikedByUser(uid)
	}
	if c.UserID != "" {
		creator, cerr := gateway.GetProfile(r.Context(), c.UserID)
		if cerr == nil {
			detail.Creator = creator
		} else if !remote.IsKind(cerr, remote.KindNotFound) {
			// Non-critical: the detail renders without the creator card.
			log.Printf("error loading creator profile: %v", cerr)
		}
	}

	writeJSON(w, http.StatusOK, detail)
}

type ToggleLikeRequest struct {
	ContributionID string `json:"contribution_id"`
}

// LikeResponse reports the post-toggle state.
type LikeResponse struct {
	Success bool `json:"success"`
	Liked   bool `json:"liked"`
	Likes   int  `json:"likes"`
}

// ToggleLike flips the caller's like on a contribution through the
// optimistic coordinator and announces the outcome on the feed stream.
func ToggleLike(w http.ResponseWriter, r *http.Request) {
	uid := currentUID(r)
	if uid == "" {
		writeError(w, remote.NewError(remote.KindAuthenticationRequired, "sign in to like contributions"))
		return
	}

	var req ToggleLikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ContributionID == "" {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "contribution_id is required"})
		return
	}

	// The coordinator toggles against the local projection; make sure the
	// record is in it.
	if _, ok := repo.Get(req.ContributionID); !ok {
		c, err := gateway.GetContribution(r.Context(), req.ContributionID)
		if err != nil {
			writeError(w, err)
			return
		}
		repo.Put(c)
	}

	res, err := likeCoordinator.ToggleLike(r.Context(), req.ContributionID, uid)
	if err != nil {
		writeError(w, err)
		return
	}

	if perr := realtime.PublishFeedEvent(r.Context(), realtime.FeedEvent{
		Type:           realtime.EventLikeUpdated,
		ContributionID: req.ContributionID,
		UserID:         uid,
		Likes:          res.Contribution.Likes,
		Liked:          res.Liked,
	}); perr != nil {
		// Advisory stream; the toggle itself succeeded.
		log.Printf("failed to publish like event: %v", perr)
	}

	writeJSON(w, http.StatusOK, LikeResponse{Success: true, Liked: res.Liked, Likes: res.Contribution.Likes})
}
