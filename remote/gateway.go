// Package remote is the thin HTTP client for the news backend. It is
// stateless and does no caching; the cache layer and sync manager sit on
// top of it.
package remote

import (
	"context"

	"github.com/dmitrijs2005/newssync/models"
)

// Gateway fetches paginated news data from the backend.
type Gateway interface {
	// FetchNews returns one page of the general feed.
	FetchNews(ctx context.Context, page, limit int) ([]models.ArticlePayload, error)

	// FetchPersonalized returns the keyword-personalized feed for the
	// authenticated user (bearer token required by the backend; without a
	// session the backend serves the anonymous feed).
	FetchPersonalized(ctx context.Context, limit int) ([]models.ArticlePayload, error)

	// Ping probes backend reachability.
	Ping(ctx context.Context) error
}

// MutationPusher is the upload-phase seam. The current backend does not
// accept per-field mutations, so the sync manager runs with a nil pusher
// and the upload phase is a no-op; a future backend plugs in here without
// touching the manager.
type MutationPusher interface {
	PushMutations(ctx context.Context, muts []models.Mutation) error
}
