package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"lapakchat/internal/domain/entity"
	"lapakchat/internal/domain/repository"
	"lapakchat/pkg/errors"
	"lapakchat/pkg/ids"
	"lapakchat/pkg/logger"
)

// Firestore caps a WriteBatch at 500 writes.
const maxBatchWrites = 500

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) messages(conversationID string) *firestore.CollectionRef {
	return r.client.Collection(conversationsCollection).Doc(conversationID).Collection(messagesCollection)
}

func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	if message.ID == "" {
		id, err := ids.NewMessageID(message.CreatedAt)
		if err != nil {
			return errors.Internal("Failed to generate message id", err)
		}
		message.ID = id
	}
	message.SenderKey = message.Sender.Key()

	_, err := r.messages(message.ConversationID).Doc(message.ID).Create(ctx, message)
	if err != nil {
		return storeError("Failed to create message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) ListByConversation(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	base := r.messages(conversationID).Query

	total, err := countDocs(ctx, base)
	if err != nil {
		logger.Error("Firestore error while counting messages for conversation %s: %v", conversationID, err)
		return nil, 0, storeError("Failed to count messages", err)
	}

	// Oldest first; message ids are monotonic ULIDs, so the id tiebreak keeps
	// the order total at equal timestamps.
	query := base.OrderBy("createdAt", firestore.Asc).OrderBy("id", firestore.Asc)
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for conversation %s: %v", conversationID, err)
			return nil, 0, storeError("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Error("Error parsing message data for conversation %s: %v", conversationID, err)
			return nil, 0, errors.Internal("Failed to parse message data", err)
		}

		messages = append(messages, &message)
	}

	return messages, total, nil
}

func (r *firestoreMessageRepository) MarkReadUpTo(ctx context.Context, conversationID, readerKey string, upTo time.Time) (int, error) {
	query := r.messages(conversationID).
		Where("isRead", "==", false).
		Where("createdAt", "<=", upTo)

	iter := query.Documents(ctx)
	defer iter.Stop()

	readAt := time.Now()
	updates := []firestore.Update{
		{Path: "isRead", Value: true},
		{Path: "readAt", Value: readAt},
	}

	batch := r.client.Batch()
	pending := 0
	mutated := 0

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, storeError("Failed to iterate unread messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return 0, errors.Internal("Failed to parse message data", err)
		}

		// A reader never consumes their own messages.
		if message.SenderKey == readerKey {
			continue
		}

		batch.Update(doc.Ref, updates)
		pending++
		mutated++

		if pending == maxBatchWrites {
			if _, err := batch.Commit(ctx); err != nil {
				return 0, storeError("Failed to commit read-state batch", err)
			}
			batch = r.client.Batch()
			pending = 0
		}
	}

	if pending > 0 {
		if _, err := batch.Commit(ctx); err != nil {
			return 0, storeError("Failed to commit read-state batch", err)
		}
	}

	return mutated, nil
}

func (r *firestoreMessageRepository) CountUnread(ctx context.Context, conversationID, readerKey string) (int, error) {
	query := r.messages(conversationID).
		Where("isRead", "==", false).
		Where("senderKey", "!=", readerKey)

	total, err := countDocs(ctx, query)
	if err != nil {
		return 0, storeError("Failed to count unread messages", err)
	}

	return int(total), nil
}

func (r *firestoreMessageRepository) CountUnreadByMember(ctx context.Context, memberKey string) (map[string]int, error) {
	// One collection-group scan over every unread message addressed to the
	// member, grouped by conversation in memory. Select keeps the payload to
	// the two fields the grouping needs.
	query := r.client.CollectionGroup(messagesCollection).
		Where("memberKeys", "array-contains", memberKey).
		Where("isRead", "==", false).
		Select("conversationId", "senderKey")

	iter := query.Documents(ctx)
	defer iter.Stop()

	counts := make(map[string]int)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while scanning unread messages for %s: %v", memberKey, err)
			return nil, storeError("Failed to scan unread messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}

		if message.SenderKey == memberKey {
			continue
		}
		counts[message.ConversationID]++
	}

	return counts, nil
}
