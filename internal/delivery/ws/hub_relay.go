package ws

import (
	"context"

	"github.com/mmuslimabdulj/tunelink/internal/domain"
)

// sendRequest is the validated form of a relay call.
type sendRequest struct {
	SenderID   string `validate:"required,max=128"`
	ReceiverID string `validate:"required,max=128"`
	Content    string `validate:"required,max=2000"`
}

// SendMessage validates and routes one direct message. The message is
// persisted before anything is emitted, so a confirmed send is always a
// durable one. The sender's connections get a message_sent echo; if the
// receiver is online, all of its connections get receive_message. An offline
// receiver just means no live push, the message is already stored.
func (h *Hub) SendMessage(ctx context.Context, senderID, receiverID, content string) (domain.Message, error) {
	req := sendRequest{SenderID: senderID, ReceiverID: receiverID, Content: content}
	if err := h.validate.Struct(req); err != nil {
		return domain.Message{}, &domain.ValidationError{Field: "message", Reason: err.Error()}
	}
	if !domain.ValidIdentity(senderID) {
		return domain.Message{}, &domain.ValidationError{Field: "senderId", Reason: "malformed identity"}
	}
	if !domain.ValidIdentity(receiverID) {
		return domain.Message{}, &domain.ValidationError{Field: "receiverId", Reason: "malformed identity"}
	}

	msg := domain.NewMessage(senderID, receiverID, content)

	if err := h.store.Persist(ctx, msg); err != nil {
		h.log.Error("persist message", "id", msg.ID, "err", err)
		return domain.Message{}, &domain.StoreError{Err: err}
	}

	// Echo to every device of the sender, then push to the receiver.
	for _, c := range h.connectionsOf(senderID) {
		h.sendTo(c, EventMessageSent, msg)
	}
	for _, c := range h.connectionsOf(receiverID) {
		h.sendTo(c, EventReceiveMessage, msg)
	}

	return msg, nil
}
