package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lapakchat/internal/domain/entity"
	"lapakchat/internal/domain/repository"
	"lapakchat/pkg/errors"
	"lapakchat/pkg/logger"
)

const (
	conversationsCollection    = "conversations"
	conversationKeysCollection = "conversation_keys"
	messagesCollection         = "messages"
)

// dedupKeyEntry is the uniqueness index: one document per canonical dedup
// key, keyed by the hash of the key, pointing at the winning conversation.
type dedupKeyEntry struct {
	DedupKey       string    `firestore:"dedupKey"`
	ConversationID string    `firestore:"conversationId"`
	CreatedAt      time.Time `firestore:"createdAt"`
}

// dedupKeyDocID hashes the raw key because member ids are opaque and may
// contain characters Firestore document ids reject.
func dedupKeyDocID(dedupKey string) string {
	sum := sha256.Sum256([]byte(dedupKey))
	return hex.EncodeToString(sum[:])
}

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) CreateWithDedupKey(ctx context.Context, conv *entity.Conversation) (string, error) {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}

	now := time.Now()
	conv.CreatedAt = now
	conv.UpdatedAt = now

	keyRef := r.client.Collection(conversationKeysCollection).Doc(dedupKeyDocID(conv.DedupKey))
	convRef := r.client.Collection(conversationsCollection).Doc(conv.ID)

	var existingID string
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existingID = ""

		doc, err := tx.Get(keyRef)
		if err == nil {
			var entry dedupKeyEntry
			if err := doc.DataTo(&entry); err != nil {
				return err
			}
			existingID = entry.ConversationID
			return nil
		}
		if status.Code(err) != codes.NotFound {
			return err
		}

		// Key absent: claim it and write the conversation in the same
		// transaction. Under racing callers Firestore's optimistic
		// concurrency commits exactly one; the loser retries, observes the
		// entry and reports the winner.
		if err := tx.Create(keyRef, dedupKeyEntry{
			DedupKey:       conv.DedupKey,
			ConversationID: conv.ID,
			CreatedAt:      now,
		}); err != nil {
			return err
		}
		return tx.Create(convRef, conv)
	})
	if err != nil {
		return "", storeError("Failed to create conversation", err)
	}

	return existingID, nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection(conversationsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, storeError("Failed to get conversation", err)
	}

	var conv entity.Conversation
	if err := doc.DataTo(&conv); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	return &conv, nil
}

func (r *firestoreConversationRepository) GetByDedupKey(ctx context.Context, dedupKey string) (*entity.Conversation, error) {
	doc, err := r.client.Collection(conversationKeysCollection).Doc(dedupKeyDocID(dedupKey)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, storeError("Failed to get conversation key", err)
	}

	var entry dedupKeyEntry
	if err := doc.DataTo(&entry); err != nil {
		return nil, errors.Internal("Failed to parse conversation key data", err)
	}

	return r.GetByID(ctx, entry.ConversationID)
}

func (r *firestoreConversationRepository) ListByMember(ctx context.Context, memberKey string, activeOnly bool, limit, offset int) ([]*entity.Conversation, int64, error) {
	query := r.client.Collection(conversationsCollection).
		Where("memberKeys", "array-contains", memberKey)
	if activeOnly {
		query = query.Where("isActive", "==", true)
	}

	total, err := countDocs(ctx, query)
	if err != nil {
		logger.Error("Firestore error while counting conversations for %s: %v", memberKey, err)
		return nil, 0, storeError("Failed to count conversations", err)
	}

	ordered := query.OrderBy("updatedAt", firestore.Desc)
	if offset > 0 {
		ordered = ordered.Offset(offset)
	}
	if limit > 0 {
		ordered = ordered.Limit(limit)
	}

	iter := ordered.Documents(ctx)
	defer iter.Stop()

	var conversations []*entity.Conversation
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating conversations for %s: %v", memberKey, err)
			return nil, 0, storeError("Failed to iterate conversations", err)
		}

		var conv entity.Conversation
		if err := doc.DataTo(&conv); err != nil {
			logger.Error("Error parsing conversation data for %s: %v", memberKey, err)
			return nil, 0, errors.Internal("Failed to parse conversation data", err)
		}

		conversations = append(conversations, &conv)
	}

	return conversations, total, nil
}

func (r *firestoreConversationRepository) TouchOnNewMessage(ctx context.Context, id, preview, messageID string, at time.Time) error {
	docRef := r.client.Collection(conversationsCollection).Doc(id)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			return err
		}

		var conv entity.Conversation
		if err := doc.DataTo(&conv); err != nil {
			return err
		}

		// updatedAt is monotonic: a concurrent append that landed later may
		// already have moved it past us, in which case its preview stands.
		if at.Before(conv.UpdatedAt) {
			return nil
		}

		return tx.Update(docRef, []firestore.Update{
			{Path: "lastMessagePreview", Value: preview},
			{Path: "lastMessageId", Value: messageID},
			{Path: "updatedAt", Value: at},
		})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return storeError("Failed to update conversation preview", err)
	}

	return nil
}

func (r *firestoreConversationRepository) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.client.Collection(conversationsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "isActive", Value: active},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return storeError("Failed to update conversation active flag", err)
	}

	return nil
}
