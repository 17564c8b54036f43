package repository

import (
	"context"
	"time"

	"lapakchat/internal/domain/entity"
)

type ConversationRepository interface {
	// CreateWithDedupKey atomically inserts the conversation together with a
	// uniqueness entry for its dedup key. When the key is already taken it
	// returns the existing conversation's id and no error; the caller decides
	// how to resolve the race.
	CreateWithDedupKey(ctx context.Context, conv *entity.Conversation) (existingID string, err error)

	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	GetByDedupKey(ctx context.Context, dedupKey string) (*entity.Conversation, error)

	// ListByMember returns conversations containing memberKey ordered by
	// updatedAt descending.
	ListByMember(ctx context.Context, memberKey string, activeOnly bool, limit, offset int) ([]*entity.Conversation, int64, error)

	// TouchOnNewMessage updates the denormalized preview and bumps updatedAt.
	// updatedAt only ever moves forward.
	TouchOnNewMessage(ctx context.Context, id, preview, messageID string, at time.Time) error

	// SetActive flips the active flag; idempotent.
	SetActive(ctx context.Context, id string, active bool) error
}
