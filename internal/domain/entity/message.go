package entity

import "time"

type Message struct {
	ID             string         `json:"id" firestore:"id"`
	ConversationID string         `json:"conversation_id" firestore:"conversationId"`
	Sender         ParticipantRef `json:"sender" firestore:"sender"`
	SenderKey      string         `json:"-" firestore:"senderKey"`
	Text           string         `json:"text,omitempty" firestore:"text,omitempty"`
	Attachments    []string       `json:"attachments,omitempty" firestore:"attachments,omitempty"` // Opaque references to externally stored files
	MemberKeys     []string       `json:"-" firestore:"memberKeys"`                                // Copied from the conversation; powers the aggregate unread scan
	IsRead         bool           `json:"is_read" firestore:"isRead"`
	ReadAt         *time.Time     `json:"read_at,omitempty" firestore:"readAt,omitempty"`
	CreatedAt      time.Time      `json:"created_at" firestore:"createdAt"`
}

// HasContent reports whether the message carries anything to deliver.
func (m *Message) HasContent() bool {
	return m.Text != "" || len(m.Attachments) > 0
}
