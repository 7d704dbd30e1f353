package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// ReviewCreatedChannel carries the organization UUID of every newly ingested review.
const ReviewCreatedChannel = "analytics:review_created"

// Invalidator drops cached analytics of one organization.
type Invalidator interface {
	Invalidate(ctx context.Context, orgID uuid.UUID) error
}

// InvalidationSubscriber invalidates cached analytics whenever a review is announced.
type InvalidationSubscriber struct {
	rdb    *goredis.Client
	target Invalidator
}

func NewInvalidationSubscriber(rdb *goredis.Client, target Invalidator) *InvalidationSubscriber {
	return &InvalidationSubscriber{rdb: rdb, target: target}
}

// Start consumes the channel until ctx is done.
func (s *InvalidationSubscriber) Start(ctx context.Context) {
	pubsub := s.rdb.Subscribe(ctx, ReviewCreatedChannel)
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok || msg == nil {
				return
			}
			s.handleInvalidation(ctx, msg.Payload)
		case <-ctx.Done():
			return
		}
	}
}

func (s *InvalidationSubscriber) handleInvalidation(ctx context.Context, payload string) {
	orgID, err := uuid.Parse(payload)
	if err != nil {
		slog.WarnContext(ctx, "Ignoring malformed review_created message", "payload", payload, "error", err)
		return
	}

	if err := s.target.Invalidate(ctx, orgID); err != nil {
		slog.WarnContext(ctx, "Failed to invalidate analytics via pub/sub", "organization_id", orgID, "error", err)
		return
	}

	slog.DebugContext(ctx, "Analytics invalidated via pub/sub", "organization_id", orgID)
}

// PublishReviewCreated announces a new review for orgID to every instance.
func PublishReviewCreated(ctx context.Context, rdb goredis.Cmdable, orgID uuid.UUID) error {
	if err := rdb.Publish(ctx, ReviewCreatedChannel, orgID.String()).Err(); err != nil {
		return fmt.Errorf("failed to publish review_created: %w", err)
	}
	return nil
}
