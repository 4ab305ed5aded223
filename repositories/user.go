package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"zchat/domain"
	zerrors "zchat/errors"
)

// User documents live under "user:{id}". A secondary key "useremail:{email}"
// maps the lowercased email to the id and doubles as the uniqueness guard.
type UserRepository struct {
	db *badger.DB
}

// userDoc is the stored shape of a user. The credential fields carry
// json:"-" on domain.User so they never leak through a handler response;
// the shadowing fields here put them back for the durable document.
type userDoc struct {
	domain.User
	PasswordHash            string     `json:"passwordHash"`
	VerificationCode        string     `json:"verificationCode,omitempty"`
	VerificationCodeExpires *time.Time `json:"verificationCodeExpires,omitempty"`
}

func encodeUser(u domain.User) userDoc {
	return userDoc{
		User:                    u,
		PasswordHash:            u.PasswordHash,
		VerificationCode:        u.VerificationCode,
		VerificationCodeExpires: u.VerificationCodeExpires,
	}
}

func (d userDoc) user() domain.User {
	u := d.User
	u.PasswordHash = d.PasswordHash
	u.VerificationCode = d.VerificationCode
	u.VerificationCodeExpires = d.VerificationCodeExpires
	return u
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

func userKey(id domain.UserID) []byte { return []byte("user:" + id.String()) }
func emailKey(email string) []byte    { return []byte("useremail:" + email) }

func (r *UserRepository) CreateUser(user domain.User) error {
	data, err := json.Marshal(encodeUser(user))
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	return update(r.db, func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey(user.Email)); err == nil {
			return zerrors.ErrUserAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(userKey(user.ID), data); err != nil {
			return err
		}
		return txn.Set(emailKey(user.Email), []byte(user.ID))
	})
}

func (r *UserRepository) GetUser(id domain.UserID) (domain.User, error) {
	var doc userDoc
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(id), &doc)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, zerrors.ErrUserNotFound
	}
	return doc.user(), err
}

func (r *UserRepository) GetUserByEmail(email string) (domain.User, error) {
	var doc userDoc
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if err != nil {
			return err
		}
		var id []byte
		if id, err = item.ValueCopy(nil); err != nil {
			return err
		}
		return getJSON(txn, userKey(domain.UserID(id)), &doc)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, zerrors.ErrUserNotFound
	}
	return doc.user(), err
}

// UpdateUser declares the document inside the transaction closure so a
// conflict retry starts from a fresh read instead of merging JSON into the
// aborted attempt's state.
func (r *UserRepository) UpdateUser(id domain.UserID, patch func(*domain.User) error) (domain.User, error) {
	var updated domain.User
	err := update(r.db, func(txn *badger.Txn) error {
		var doc userDoc
		if err := getJSON(txn, userKey(id), &doc); err != nil {
			return err
		}
		user := doc.user()
		if err := patch(&user); err != nil {
			return err
		}
		if err := setJSON(txn, userKey(id), encodeUser(user)); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, zerrors.ErrUserNotFound
	}
	return updated, err
}

func (r *UserRepository) UpdateUserPair(a, b domain.UserID, patchA, patchB func(*domain.User) error) error {
	err := update(r.db, func(txn *badger.Txn) error {
		var docA, docB userDoc
		if err := getJSON(txn, userKey(a), &docA); err != nil {
			return err
		}
		if err := getJSON(txn, userKey(b), &docB); err != nil {
			return err
		}
		userA, userB := docA.user(), docB.user()
		if err := patchA(&userA); err != nil {
			return err
		}
		if err := patchB(&userB); err != nil {
			return err
		}
		if err := setJSON(txn, userKey(a), encodeUser(userA)); err != nil {
			return err
		}
		return setJSON(txn, userKey(b), encodeUser(userB))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return zerrors.ErrUserNotFound
	}
	return err
}

func getJSON(txn *badger.Txn, key []byte, out any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}
