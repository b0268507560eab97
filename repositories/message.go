//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"diskuss/domain"
	"diskuss/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(msg domain.Message) (domain.Message, error)
	GetMessage(id string) (domain.Message, error)
	ListByDiscussion(discussionID string, limit, offset int) ([]domain.Message, error)
	UpdateText(id, text string) error
	DeleteMessage(id string) (domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger

	// lastAt guards timestamp monotonicity per process: the order index is
	// keyed by timestamp, so a wall-clock step backwards must not reorder
	// messages already written.
	mu     sync.Mutex
	lastAt time.Time
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log}
}

type messageDoc struct {
	ID           string    `cbor:"id"`
	DiscussionID string    `cbor:"discussion_id"`
	SenderID     string    `cbor:"sender_id"`
	RecipientID  string    `cbor:"recipient_id"`
	Text         string    `cbor:"text"`
	Lang         string    `cbor:"lang"`
	CreatedAt    time.Time `cbor:"timestamp"`
}

// orderKey formats the per-discussion chronological index entry.
// The 19-digit zero padding makes lexicographic order match time order;
// the UUID suffix disambiguates messages within the same nanosecond.
func orderKey(discussionID string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%s:%019d:%s", msgIndexPrefix, discussionID, at.UnixNano(), id))
}

// StoreMessage persists a message with a server-assigned id and timestamp
// and returns the stored form.
func (m *MessageRepository) StoreMessage(msg domain.Message) (domain.Message, error) {
	msg.ID = uuid.NewString()
	msg.CreatedAt = m.nextTimestamp()

	doc := fromMessage(msg)
	data, err := encodeDoc(doc)
	if err != nil {
		return domain.Message{}, err
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(msgKeyPrefix+msg.ID), data); err != nil {
			return err
		}
		return txn.Set(orderKey(msg.DiscussionID, msg.CreatedAt, msg.ID), []byte(msg.ID))
	})
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

func (m *MessageRepository) GetMessage(id string) (domain.Message, error) {
	var doc messageDoc
	err := m.db.View(func(txn *badger.Txn) error {
		return getDoc(txn, msgKeyPrefix+id, &doc)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.Message{}, err
	}
	return toMessage(doc), nil
}

// ListByDiscussion returns messages of a discussion ordered by creation
// timestamp ascending. limit and offset select a window counted from the
// most recent message, so limit=50 offset=0 is "the latest 50, oldest
// first". limit <= 0 means no bound.
func (m *MessageRepository) ListByDiscussion(discussionID string, limit, offset int) ([]domain.Message, error) {
	var ids []string
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(msgIndexPrefix + discussionID + ":")
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Reverse scan starts past the newest possible timestamp.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		skipped := 0
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			if limit > 0 && len(ids) == limit {
				break
			}
			var id string
			err := it.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			})
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The scan collected newest-first; flip to ascending and resolve docs.
	messages := make([]domain.Message, 0, len(ids))
	err = m.db.View(func(txn *badger.Txn) error {
		for i := len(ids) - 1; i >= 0; i-- {
			var doc messageDoc
			if err := getDoc(txn, msgKeyPrefix+ids[i], &doc); err != nil {
				return err
			}
			messages = append(messages, toMessage(doc))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// UpdateText is the edit point operation. No fan-out, no index change:
// the order key is the creation timestamp, which edits never touch.
func (m *MessageRepository) UpdateText(id, text string) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		var doc messageDoc
		if err := getDoc(txn, msgKeyPrefix+id, &doc); err != nil {
			return err
		}
		doc.Text = text
		data, err := encodeDoc(doc)
		if err != nil {
			return err
		}
		return txn.Set([]byte(msgKeyPrefix+id), data)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrMessageNotFound
	}
	return err
}

// DeleteMessage removes the document and its order-index entry, returning
// the deleted message so the caller can detach it from its discussion.
func (m *MessageRepository) DeleteMessage(id string) (domain.Message, error) {
	var doc messageDoc
	err := m.db.Update(func(txn *badger.Txn) error {
		if err := getDoc(txn, msgKeyPrefix+id, &doc); err != nil {
			return err
		}
		if err := txn.Delete([]byte(msgKeyPrefix + id)); err != nil {
			return err
		}
		return txn.Delete(orderKey(doc.DiscussionID, doc.CreatedAt, doc.ID))
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.Message{}, err
	}
	return toMessage(doc), nil
}

// nextTimestamp returns a server-assigned creation time that never goes
// backwards within this process.
func (m *MessageRepository) nextTimestamp() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if !now.After(m.lastAt) {
		now = m.lastAt.Add(time.Nanosecond)
	}
	m.lastAt = now
	return now
}

func fromMessage(msg domain.Message) messageDoc {
	return messageDoc{
		ID:           msg.ID,
		DiscussionID: msg.DiscussionID,
		SenderID:     msg.SenderID,
		RecipientID:  msg.RecipientID,
		Text:         msg.Text,
		Lang:         msg.Lang,
		CreatedAt:    msg.CreatedAt,
	}
}

func toMessage(doc messageDoc) domain.Message {
	return domain.Message{
		ID:           doc.ID,
		DiscussionID: doc.DiscussionID,
		SenderID:     doc.SenderID,
		RecipientID:  doc.RecipientID,
		Text:         doc.Text,
		Lang:         doc.Lang,
		CreatedAt:    doc.CreatedAt,
	}
}
