package redis

import (
	"context"

	"github.com/gridwatch/searchsync/internal/db"
)

// Publish sends a payload to a pub/sub channel. Delivery is fire-and-forget:
// a channel with no subscribers silently drops the message.
func (s *Store) Publish(ctx context.Context, channel string, payload []byte) error {
	cmd := s.b().Publish().Channel(channel).Message(string(payload)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPublish, Err: err}
	}
	return nil
}
