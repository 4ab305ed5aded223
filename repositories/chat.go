package repositories

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"zchat/domain"
	zerrors "zchat/errors"
)

// Chat documents live under "chat:{id}". Two secondary indexes keep lookups
// off full scans: "chatpair:{a|b}" maps the canonical private-pair key to
// the chat id, and "userchat:{user}:{chat}" lists a user's chats.
type ChatRepository struct {
	db *badger.DB
}

func NewChatRepository(db *badger.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func chatKey(id domain.ChatID) []byte { return []byte("chat:" + id.String()) }
func pairKey(key string) []byte       { return []byte("chatpair:" + key) }

func memberKey(user domain.UserID, chat domain.ChatID) []byte {
	return []byte("userchat:" + user.String() + ":" + chat.String())
}

func (r *ChatRepository) CreateChat(chat domain.Chat) error {
	return update(r.db, func(txn *badger.Txn) error {
		return r.writeChat(txn, chat)
	})
}

func (r *ChatRepository) writeChat(txn *badger.Txn, chat domain.Chat) error {
	if err := setJSON(txn, chatKey(chat.ID), chat); err != nil {
		return err
	}
	for _, member := range chat.Members.Values() {
		if err := txn.Set(memberKey(member, chat.ID), nil); err != nil {
			return err
		}
	}
	return nil
}

func (r *ChatRepository) GetChat(id domain.ChatID) (domain.Chat, error) {
	var chat domain.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, chatKey(id), &chat)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Chat{}, zerrors.ErrChatNotFound
	}
	return chat, err
}

// UpdateChat applies the patch inside one transaction, reindexing membership
// if the patch changed it. Unread-counter increments go through here, so
// concurrent senders serialize on the transaction instead of racing a
// read-then-write. The document is scoped to the closure: a conflict retry
// unmarshals into a zero value, never into the aborted attempt's maps.
func (r *ChatRepository) UpdateChat(id domain.ChatID, patch func(*domain.Chat) error) (domain.Chat, error) {
	var updated domain.Chat
	err := update(r.db, func(txn *badger.Txn) error {
		var chat domain.Chat
		if err := getJSON(txn, chatKey(id), &chat); err != nil {
			return err
		}
		before := chat.Members.Clone()
		if err := patch(&chat); err != nil {
			return err
		}
		chat.UpdatedAt = time.Now().UTC()
		for _, member := range before.Values() {
			if !chat.Members.Has(member) {
				if err := txn.Delete(memberKey(member, chat.ID)); err != nil {
					return err
				}
			}
		}
		if err := r.writeChat(txn, chat); err != nil {
			return err
		}
		updated = chat
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Chat{}, zerrors.ErrChatNotFound
	}
	return updated, err
}

func (r *ChatRepository) EnsurePrivateChat(chat domain.Chat) (domain.Chat, bool, error) {
	members := chat.Members.Values()
	key := pairKey(domain.PairKey(members[0], members[1]))

	var existing domain.Chat
	created := false
	err := update(r.db, func(txn *badger.Txn) error {
		created = false
		existing = domain.Chat{}
		item, err := txn.Get(key)
		switch {
		case err == nil:
			id, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			return getJSON(txn, chatKey(domain.ChatID(id)), &existing)
		case errors.Is(err, badger.ErrKeyNotFound):
			created = true
			existing = chat
			if err := txn.Set(key, []byte(chat.ID)); err != nil {
				return err
			}
			return r.writeChat(txn, chat)
		default:
			return err
		}
	})
	return existing, created, err
}

func (r *ChatRepository) ListChatsForUser(user domain.UserID) ([]domain.Chat, error) {
	prefix := []byte("userchat:" + user.String() + ":")
	var chats []domain.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id := domain.ChatID(it.Item().Key()[len(prefix):])
			var chat domain.Chat
			if err := getJSON(txn, chatKey(id), &chat); err != nil {
				return err
			}
			chats = append(chats, chat)
		}
		return nil
	})
	return chats, err
}
