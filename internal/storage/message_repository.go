package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"github.com/mmuslimabdulj/tunelink/internal/domain"
)

// MessageRepository persists direct messages in BadgerDB. Keys are built as
//
//	msg:<conversation>:<createdAtUnixNano>:<id>
//
// so one conversation shares a prefix and iterates in chronological order.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log}
}

func messageKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%020d:%s",
		domain.ConversationKey(m.SenderID, m.ReceiverID),
		m.CreatedAt.UnixNano(),
		m.ID))
}

// Persist writes the message durably. The relay awaits this before echoing
// delivery to the sender.
func (r *MessageRepository) Persist(ctx context.Context, m domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(m), data)
	})
	if err != nil {
		return fmt.Errorf("store message %s: %w", m.ID, err)
	}

	r.log.Debug("message persisted", "id", m.ID, "sender", m.SenderID, "receiver", m.ReceiverID)
	return nil
}

// ListConversation returns the messages exchanged between two identities in
// chronological order. limit caps the result; 0 means no cap.
func (r *MessageRepository) ListConversation(ctx context.Context, a, b string, limit int) ([]domain.Message, error) {
	prefix := []byte("msg:" + domain.ConversationKey(a, b) + ":")
	messages := make([]domain.Message, 0)

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		if limit > 0 {
			opts.PrefetchSize = limit
		}

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if limit > 0 && len(messages) >= limit {
				break
			}

			err := it.Item().Value(func(val []byte) error {
				var m domain.Message
				if err := json.Unmarshal(val, &m); err != nil {
					return fmt.Errorf("unmarshal message: %w", err)
				}
				messages = append(messages, m)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return messages, nil
}
