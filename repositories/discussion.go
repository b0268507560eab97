//go:generate go run go.uber.org/mock/mockgen -source=discussion.go -destination=../mocks/mock_discussion_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"log/slog"

	"diskuss/domain"
	"diskuss/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IDiscussionRepository interface {
	GetDiscussion(id string) (domain.Discussion, error)
	FindByParticipants(participants []string) (domain.Discussion, error)
	CreateDiscussion(participants []string, isGroup bool) (domain.Discussion, error)
	ListByParticipant(userID string) ([]domain.Discussion, error)
	AppendMessageRef(discussionID, messageID string) error
	RemoveMessageRef(discussionID, messageID string) error
}

type DiscussionRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewDiscussionRepository(db *badger.DB, log *slog.Logger) *DiscussionRepository {
	return &DiscussionRepository{db: db, log: log}
}

type discussionDoc struct {
	ID           string   `cbor:"id"`
	Participants []string `cbor:"participants"`
	IsGroup      bool     `cbor:"is_group"`
	Messages     []string `cbor:"messages"`
}

func (d *DiscussionRepository) GetDiscussion(id string) (domain.Discussion, error) {
	var doc discussionDoc
	err := d.db.View(func(txn *badger.Txn) error {
		return getDoc(txn, discKeyPrefix+id, &doc)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Discussion{}, errors.ErrDiscussionNotFound
	}
	if err != nil {
		return domain.Discussion{}, err
	}
	return toDiscussion(doc), nil
}

// FindByParticipants looks up the single discussion for an
// already-canonicalized participant list.
func (d *DiscussionRepository) FindByParticipants(participants []string) (domain.Discussion, error) {
	var doc discussionDoc
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(participantKey(participants)))
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
		return getDoc(txn, discKeyPrefix+id, &doc)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Discussion{}, errors.ErrDiscussionNotFound
	}
	if err != nil {
		return domain.Discussion{}, err
	}
	return toDiscussion(doc), nil
}

// CreateDiscussion inserts a new discussion with an empty message list.
// The canonical-participant index key is checked and written inside the
// same serializable transaction, so two writers racing on the same
// participant set cannot both insert: the loser gets ErrDiscussionExists
// (from the key check, or from badger's conflict detection) and is expected
// to re-read.
func (d *DiscussionRepository) CreateDiscussion(participants []string, isGroup bool) (domain.Discussion, error) {
	doc := discussionDoc{
		ID:           uuid.NewString(),
		Participants: participants,
		IsGroup:      isGroup,
		Messages:     []string{},
	}
	data, err := encodeDoc(doc)
	if err != nil {
		return domain.Discussion{}, err
	}

	indexKey := []byte(participantKey(participants))
	err = d.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(indexKey); err == nil {
			return errors.ErrDiscussionExists
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(indexKey, []byte(doc.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(discKeyPrefix+doc.ID), data)
	})
	if stderrors.Is(err, badger.ErrConflict) {
		err = errors.ErrDiscussionExists
	}
	if err != nil {
		return domain.Discussion{}, err
	}
	return toDiscussion(doc), nil
}

// ListByParticipant selects every discussion containing the user, via a
// scan over the discussions collection. Document-store find semantics;
// no secondary per-user index is maintained.
func (d *DiscussionRepository) ListByParticipant(userID string) ([]domain.Discussion, error) {
	var out []domain.Discussion
	err := d.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = []byte(discKeyPrefix)
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var doc discussionDoc
			err := it.Item().Value(func(val []byte) error {
				return decodeDoc(val, &doc)
			})
			if err != nil {
				return err
			}
			if lo.Contains(doc.Participants, userID) {
				out = append(out, toDiscussion(doc))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AppendMessageRef appends a message id to the discussion's ordered list.
func (d *DiscussionRepository) AppendMessageRef(discussionID, messageID string) error {
	return d.mutateRefs(discussionID, func(refs []string) []string {
		return append(refs, messageID)
	})
}

// RemoveMessageRef drops a message id from the discussion's list; part of
// message deletion.
func (d *DiscussionRepository) RemoveMessageRef(discussionID, messageID string) error {
	return d.mutateRefs(discussionID, func(refs []string) []string {
		return lo.Without(refs, messageID)
	})
}

// refUpdateRetries bounds the conflict-retry loop in mutateRefs. Every
// conflict means another writer committed, so with K concurrent senders a
// writer retries at most K-1 times; the bound only guards against livelock.
const refUpdateRetries = 16

func (d *DiscussionRepository) mutateRefs(discussionID string, mutate func([]string) []string) error {
	var err error
	for attempt := 0; attempt < refUpdateRetries; attempt++ {
		err = d.db.Update(func(txn *badger.Txn) error {
			var doc discussionDoc
			if err := getDoc(txn, discKeyPrefix+discussionID, &doc); err != nil {
				return err
			}
			doc.Messages = mutate(doc.Messages)
			data, err := encodeDoc(doc)
			if err != nil {
				return err
			}
			return txn.Set([]byte(discKeyPrefix+discussionID), data)
		})
		// Concurrent senders to the same discussion race on this document;
		// the loser re-reads and reapplies instead of surfacing the conflict.
		if !stderrors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrDiscussionNotFound
	}
	return err
}

func toDiscussion(doc discussionDoc) domain.Discussion {
	return domain.Discussion{
		ID:           doc.ID,
		Participants: doc.Participants,
		IsGroup:      doc.IsGroup,
		Messages:     doc.Messages,
	}
}
