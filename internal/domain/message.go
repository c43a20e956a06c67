package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is a direct message between two identities. It is immutable once
// built; the relay hands it to the store and pushes it to live connections,
// nothing mutates it afterwards.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewMessage builds a Message with a generated ID and a server-assigned
// timestamp. Validation happens in the relay before this is called.
func NewMessage(senderID, receiverID, content string) Message {
	return Message{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
}

// ConversationKey returns the canonical key shared by both directions of a
// two-party conversation: the identity pair in lexicographic order.
func ConversationKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// ValidIdentity reports whether s is usable as an identity handle. Identities
// are opaque strings issued by the external auth provider, but the wire layer
// still rejects obviously broken ones.
func ValidIdentity(s string) bool {
	if s == "" || len(s) > MaxIdentityLength {
		return false
	}
	return strings.TrimSpace(s) == s && !strings.ContainsAny(s, "\x00\n\r")
}
