package repository

import (
	"context"
	"time"

	"lapakchat/internal/domain/entity"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error

	// ListByConversation returns messages oldest first, ordered by
	// (createdAt, id).
	ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error)

	// MarkReadUpTo flips every unread message in the conversation with
	// senderKey != readerKey and createdAt <= upTo to read, setting readAt
	// once. Returns the number of messages mutated. Read state never reverts.
	MarkReadUpTo(ctx context.Context, conversationID, readerKey string, upTo time.Time) (int, error)

	// CountUnread counts unread messages in one conversation addressed to the
	// reader (sender != reader).
	CountUnread(ctx context.Context, conversationID, readerKey string) (int, error)

	// CountUnreadByMember aggregates unread counts for every conversation the
	// member participates in, in one indexed scan.
	CountUnreadByMember(ctx context.Context, memberKey string) (map[string]int, error)
}
