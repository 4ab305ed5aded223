//go:generate go run go.uber.org/mock/mockgen -source=repositories.go -destination=../mocks/mock_repositories.go -package=mocks
// Package repositories implements the durable directory store on BadgerDB.
// Documents are JSON-encoded; keys are prefixed per entity so related
// records share a scan range. Mutations go through read-modify-write
// closures inside a single transaction, retried on conflict, so concurrent
// writers cannot lose updates.
package repositories

import (
	"errors"

	"github.com/dgraph-io/badger/v4"

	"zchat/domain"
)

type IUserRepository interface {
	CreateUser(user domain.User) error
	GetUser(id domain.UserID) (domain.User, error)
	GetUserByEmail(email string) (domain.User, error)
	UpdateUser(id domain.UserID, patch func(*domain.User) error) (domain.User, error)
	// UpdateUserPair applies both patches inside one transaction, for
	// friend-request and block transitions that must stay consistent across
	// two user documents.
	UpdateUserPair(a, b domain.UserID, patchA, patchB func(*domain.User) error) error
}

type IChatRepository interface {
	CreateChat(chat domain.Chat) error
	GetChat(id domain.ChatID) (domain.Chat, error)
	UpdateChat(id domain.ChatID, patch func(*domain.Chat) error) (domain.Chat, error)
	// EnsurePrivateChat returns the existing private chat for the member
	// pair, or creates the given one. The pair index lookup and the create
	// happen in the same transaction, making creation idempotent under
	// concurrent callers.
	EnsurePrivateChat(chat domain.Chat) (domain.Chat, bool, error)
	ListChatsForUser(user domain.UserID) ([]domain.Chat, error)
}

type IMessageRepository interface {
	CreateMessage(msg domain.Message) error
	GetMessage(id domain.MessageID) (domain.Message, error)
	UpdateMessage(id domain.MessageID, patch func(*domain.Message) error) (domain.Message, error)
	ListMessages(chat domain.ChatID, page, limit int) ([]domain.Message, error)
	ListUnread(chat domain.ChatID, user domain.UserID) ([]domain.Message, error)
	ListByType(chat domain.ChatID, t domain.MessageType) ([]domain.Message, error)
}

const txnRetries = 5

// update runs fn in a read-write transaction, retrying on SSI conflicts.
// Badger aborts one of two overlapping read-modify-write transactions; the
// retry makes counter increments behave like atomic storage-side updates.
func update(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < txnRetries; i++ {
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}
