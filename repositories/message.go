package repositories

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"zchat/domain"
	zerrors "zchat/errors"
)

// Message documents are keyed "msg:{chat}:{timestamp_padded}:{id}" so a
// prefix scan over one chat walks its timeline in chronological order; the
// 19-digit zero padding keeps lexicographic and time order identical, and
// the id suffix disambiguates two messages landing on the same nanosecond.
// "msgid:{id}" points back at the timeline key for direct lookups.
type MessageRepository struct {
	db *badger.DB
}

func NewMessageRepository(db *badger.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func timelineKey(msg domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", msg.Chat, msg.CreatedAt.UnixNano(), msg.ID))
}

func messageIDKey(id domain.MessageID) []byte { return []byte("msgid:" + id.String()) }

func chatPrefix(chat domain.ChatID) []byte { return []byte("msg:" + chat.String() + ":") }

func (r *MessageRepository) CreateMessage(msg domain.Message) error {
	key := timelineKey(msg)
	return update(r.db, func(txn *badger.Txn) error {
		if err := setJSON(txn, key, msg); err != nil {
			return err
		}
		return txn.Set(messageIDKey(msg.ID), key)
	})
}

func (r *MessageRepository) GetMessage(id domain.MessageID) (domain.Message, error) {
	var msg domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		return r.getByID(txn, id, &msg)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, zerrors.ErrMessageNotFound
	}
	return msg, err
}

func (r *MessageRepository) getByID(txn *badger.Txn, id domain.MessageID, out *domain.Message) error {
	item, err := txn.Get(messageIDKey(id))
	if err != nil {
		return err
	}
	key, err := item.ValueCopy(nil)
	if err != nil {
		return err
	}
	return getJSON(txn, key, out)
}

// UpdateMessage rewrites the document in place. The timeline key embeds
// CreatedAt, which never changes, so the key stays stable across edits.
func (r *MessageRepository) UpdateMessage(id domain.MessageID, patch func(*domain.Message) error) (domain.Message, error) {
	var updated domain.Message
	err := update(r.db, func(txn *badger.Txn) error {
		var msg domain.Message
		if err := r.getByID(txn, id, &msg); err != nil {
			return err
		}
		if err := patch(&msg); err != nil {
			return err
		}
		if err := setJSON(txn, timelineKey(msg), msg); err != nil {
			return err
		}
		updated = msg
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, zerrors.ErrMessageNotFound
	}
	return updated, err
}

// ListMessages returns one page of a chat's timeline, newest first. Pages
// are 1-based, matching the REST contract.
func (r *MessageRepository) ListMessages(chat domain.ChatID, page, limit int) ([]domain.Message, error) {
	if page < 1 {
		page = 1
	}
	skip := (page - 1) * limit

	var messages []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := chatPrefix(chat)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key for this chat, then walk back.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if skip > 0 {
				skip--
				continue
			}
			if limit > 0 && len(messages) == limit {
				break
			}
			var msg domain.Message
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &msg)
			}); err != nil {
				return err
			}
			messages = append(messages, msg)
		}
		return nil
	})
	return messages, err
}

func (r *MessageRepository) ListUnread(chat domain.ChatID, user domain.UserID) ([]domain.Message, error) {
	return r.scan(chat, func(msg domain.Message) bool {
		return msg.Sender != user && !msg.ReadBy.Has(user)
	})
}

func (r *MessageRepository) ListByType(chat domain.ChatID, t domain.MessageType) ([]domain.Message, error) {
	return r.scan(chat, func(msg domain.Message) bool {
		return msg.Type == t
	})
}

// scan walks a chat's timeline oldest-first and keeps messages matching the
// filter.
func (r *MessageRepository) scan(chat domain.ChatID, keep func(domain.Message) bool) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := chatPrefix(chat)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var msg domain.Message
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &msg)
			}); err != nil {
				return err
			}
			if keep(msg) {
				messages = append(messages, msg)
			}
		}
		return nil
	})
	return messages, err
}
