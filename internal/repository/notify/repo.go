// Package notify delivers user notifications over the index store's pub/sub
// bus. The WebSocket layer subscribes to the per-user channel.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gridwatch/searchsync/internal/domain"
)

// store is the consumer interface for notifications (ISP).
type store interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Repo implements usecase/search.Notifier.
type Repo struct {
	store store
}

// New creates a notification repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

type notification struct {
	Type  string    `json:"type"`
	Query string    `json:"query"`
	Hits  int       `json:"hits"`
	At    time.Time `json:"at"`
}

// SearchCompleted publishes a "search completed" event to the user's channel.
func (r *Repo) SearchCompleted(ctx context.Context, userID, query string, hits int) error {
	if userID == "" {
		return nil
	}

	payload, err := json.Marshal(notification{
		Type:  "search_completed",
		Query: query,
		Hits:  hits,
		At:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	channel := domain.KeyPrefix + "notify:" + userID
	if err := r.store.Publish(ctx, channel, payload); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
