//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	"diskuss/domain"
	"diskuss/errors"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	CreateUser(username, passwordHash string) (domain.User, error)
	GetUserByID(id string) (domain.User, error)
	GetUserByUsername(username string) (domain.User, error)
	GetUsersByIDs(ids []string) (map[string]domain.User, error)
	SearchByUsername(ctx context.Context, pattern string, limit int) ([]domain.Profile, error)
	TouchLastLogin(id string) error
}

type UserRepository struct {
	db    *badger.DB
	index *bluge.Writer
	log   *slog.Logger
}

func NewUserRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger) *UserRepository {
	return &UserRepository{db: db, index: index, log: log}
}

// userDoc is the stored shape of a user.
type userDoc struct {
	ID           string    `cbor:"id"`
	Username     string    `cbor:"username"`
	PasswordHash string    `cbor:"password_hash"`
	LastLogin    time.Time `cbor:"last_login"`
}

// CreateUser persists a new user. Username uniqueness is enforced by the
// "user:name:" index key checked and written in the same transaction.
func (u *UserRepository) CreateUser(username, passwordHash string) (domain.User, error) {
	doc := userDoc{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
	}
	data, err := encodeDoc(doc)
	if err != nil {
		return domain.User{}, err
	}

	nameKey := []byte(usernameKeyPrefix + strings.ToLower(username))
	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(nameKey); err == nil {
			return errors.ErrUserAlreadyExists
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(nameKey, []byte(doc.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(userKeyPrefix+doc.ID), data)
	})
	if stderrors.Is(err, badger.ErrConflict) {
		err = errors.ErrUserAlreadyExists
	}
	if err != nil {
		return domain.User{}, err
	}

	if err := u.indexUsername(doc.ID, username); err != nil {
		// The account exists either way; search just won't find it yet.
		u.log.Warn("username indexing failed", "user_id", doc.ID, "error", err)
	}
	return toUser(doc), nil
}

func (u *UserRepository) GetUserByID(id string) (domain.User, error) {
	var doc userDoc
	err := u.db.View(func(txn *badger.Txn) error {
		return getDoc(txn, userKeyPrefix+id, &doc)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return toUser(doc), nil
}

func (u *UserRepository) GetUserByUsername(username string) (domain.User, error) {
	var doc userDoc
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(usernameKeyPrefix + strings.ToLower(username)))
		if err != nil {
			return err
		}
		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		return getDoc(txn, userKeyPrefix+id, &doc)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return toUser(doc), nil
}

// GetUsersByIDs batches profile lookups for the feed builder: one store
// round trip for the union of participant ids. Missing ids are simply
// absent from the result.
func (u *UserRepository) GetUsersByIDs(ids []string) (map[string]domain.User, error) {
	out := make(map[string]domain.User, len(ids))
	err := u.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			var doc userDoc
			err := getDoc(txn, userKeyPrefix+id, &doc)
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out[id] = toUser(doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SearchByUsername finds users whose username contains the pattern,
// case-insensitive, via the full-text index. Password hashes never leave
// this method: it returns profiles only.
func (u *UserRepository) SearchByUsername(ctx context.Context, pattern string, limit int) ([]domain.Profile, error) {
	reader, err := u.index.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	query := bluge.NewWildcardQuery("*" + strings.ToLower(pattern) + "*").SetField("username")
	iter, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var ids []string
	for match, err := iter.Next(); match != nil; match, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}

	users, err := u.GetUsersByIDs(ids)
	if err != nil {
		return nil, err
	}
	profiles := make([]domain.Profile, 0, len(users))
	for _, id := range ids {
		if user, ok := users[id]; ok {
			profiles = append(profiles, user.Profile())
		}
	}
	return profiles, nil
}

// TouchLastLogin stamps the user's last-login time to now.
func (u *UserRepository) TouchLastLogin(id string) error {
	err := u.db.Update(func(txn *badger.Txn) error {
		var doc userDoc
		if err := getDoc(txn, userKeyPrefix+id, &doc); err != nil {
			return err
		}
		doc.LastLogin = time.Now().UTC()
		data, err := encodeDoc(doc)
		if err != nil {
			return err
		}
		return txn.Set([]byte(userKeyPrefix+id), data)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrUserNotFound
	}
	return err
}

func (u *UserRepository) indexUsername(id, username string) error {
	doc := bluge.NewDocument(id).
		AddField(bluge.NewKeywordField("username", strings.ToLower(username)).StoreValue())
	return u.index.Update(doc.ID(), doc)
}

func getDoc(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return decodeDoc(val, v)
	})
}

func toUser(doc userDoc) domain.User {
	return domain.User{
		ID:           doc.ID,
		Username:     doc.Username,
		PasswordHash: doc.PasswordHash,
		LastLogin:    doc.LastLogin,
	}
}
