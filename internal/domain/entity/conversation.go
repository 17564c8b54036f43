package entity

import (
	"sort"
	"strings"
	"time"
)

type Conversation struct {
	ID                 string           `json:"id" firestore:"id"`
	Members            []ParticipantRef `json:"members" firestore:"members"`
	MemberKeys         []string         `json:"member_keys" firestore:"memberKeys"` // Denormalized Key() values for array-contains queries
	Title              string           `json:"title,omitempty" firestore:"title,omitempty"`
	ContextKey         string           `json:"context_key,omitempty" firestore:"contextKey,omitempty"` // Opaque scope, e.g. a product id
	DedupKey           string           `json:"-" firestore:"dedupKey"`
	LastMessagePreview string           `json:"last_message_preview,omitempty" firestore:"lastMessagePreview,omitempty"`
	LastMessageID      string           `json:"last_message_id,omitempty" firestore:"lastMessageId,omitempty"`
	IsActive           bool             `json:"is_active" firestore:"isActive"`
	CreatedAt          time.Time        `json:"created_at" firestore:"createdAt"`
	UpdatedAt          time.Time        `json:"updated_at" firestore:"updatedAt"`
}

// DedupKeyFor computes the canonical key that identifies one logical
// conversation: sorted member keys joined with "|", optionally scoped by a
// caller-supplied context key. (A,B,ctx) and (B,A,ctx) map to the same key.
func DedupKeyFor(members []ParticipantRef, contextKey string) string {
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = m.Key()
	}
	sort.Strings(keys)

	key := strings.Join(keys, "|")
	if contextKey != "" {
		key += "|ctx:" + contextKey
	}
	return key
}

// MemberKeysOf returns the Key() of every member, preserving member order.
func MemberKeysOf(members []ParticipantRef) []string {
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = m.Key()
	}
	return keys
}

// HasMember reports whether ref is part of the conversation.
func (c *Conversation) HasMember(ref ParticipantRef) bool {
	for _, m := range c.Members {
		if m == ref {
			return true
		}
	}
	return false
}

// DefaultTitle derives a display label from the member ids when no title was
// supplied at creation.
func (c *Conversation) DefaultTitle() string {
	ids := make([]string, len(c.Members))
	for i, m := range c.Members {
		ids[i] = m.ID
	}
	return strings.Join(ids, " / ")
}
