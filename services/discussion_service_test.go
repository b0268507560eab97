package services

import (
	"log/slog"
	"sync"
	"testing"

	"diskuss/domain"
	"diskuss/errors"
	"diskuss/repositories"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type discussionFixture struct {
	users       *repositories.UserRepository
	discussions *repositories.DiscussionRepository
	messages    *repositories.MessageRepository
	svc         *DiscussionService
}

func newDiscussionFixture(t *testing.T) discussionFixture {
	t.Helper()
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	index, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)
	t.Cleanup(func() { _ = index.Close() })

	log := slog.Default()
	users := repositories.NewUserRepository(db, index, log)
	discussions := repositories.NewDiscussionRepository(db, log)
	messages := repositories.NewMessageRepository(db, log)

	return discussionFixture{
		users:       users,
		discussions: discussions,
		messages:    messages,
		svc:         NewDiscussionService(discussions, messages, users, log),
	}
}

func (f discussionFixture) sendMessage(t *testing.T, discussionID, senderID, text string) domain.Message {
	t.Helper()
	req := require.New(t)

	msg, err := f.messages.StoreMessage(domain.Message{
		DiscussionID: discussionID,
		SenderID:     senderID,
		Text:         text,
	})
	req.NoError(err)
	req.NoError(f.discussions.AppendMessageRef(discussionID, msg.ID))
	return msg
}

func collect(seq func(yield func(domain.DiscussionSummary) bool)) []domain.DiscussionSummary {
	var out []domain.DiscussionSummary
	seq(func(s domain.DiscussionSummary) bool {
		out = append(out, s)
		return true
	})
	return out
}

func TestDiscussionService_Resolve_Creates_On_First_Contact(t *testing.T) {
	req := require.New(t)
	f := newDiscussionFixture(t)

	// When two users start talking for the first time
	discussion, err := f.svc.Resolve(domain.StartDiscussionCommand{
		UserID:       "user-a",
		RecipientIDs: []string{"user-b"},
	})
	req.NoError(err)
	req.NotEmpty(discussion.ID)
	req.Equal([]string{"user-a", "user-b"}, discussion.Participants)
	req.False(discussion.IsGroup)
	req.Empty(discussion.Messages)
}

func TestDiscussionService_Resolve_Is_Symmetric(t *testing.T) {
	req := require.New(t)
	f := newDiscussionFixture(t)

	// Given a discussion initiated by one side
	first, err := f.svc.Resolve(domain.StartDiscussionCommand{
		UserID:       "user-a",
		RecipientIDs: []string{"user-b"},
	})
	req.NoError(err)

	// When the other side starts the same conversation
	second, err := f.svc.Resolve(domain.StartDiscussionCommand{
		UserID:       "user-b",
		RecipientIDs: []string{"user-a"},
	})
	req.NoError(err)

	// Then both land on the same record
	req.Equal(first.ID, second.ID)
}

func TestDiscussionService_Resolve_Deduplicates_Self(t *testing.T) {
	req := require.New(t)
	f := newDiscussionFixture(t)

	// A recipient list already containing the caller collapses
	discussion, err := f.svc.Resolve(domain.StartDiscussionCommand{
		UserID:       "user-a",
		RecipientIDs: []string{"user-b", "user-a"},
	})
	req.NoError(err)
	req.Equal([]string{"user-a", "user-b"}, discussion.Participants)
}

func TestDiscussionService_Resolve_Requires_A_Recipient(t *testing.T) {
	req := require.New(t)
	f := newDiscussionFixture(t)

	// No recipients at all
	_, err := f.svc.Resolve(domain.StartDiscussionCommand{UserID: "user-a"})
	req.ErrorIs(err, errors.ErrMissingFields)

	// Only the caller, however often repeated
	_, err = f.svc.Resolve(domain.StartDiscussionCommand{
		UserID:       "user-a",
		RecipientIDs: []string{"user-a", "user-a"},
	})
	req.ErrorIs(err, errors.ErrMissingFields)

	// Nothing was durably created by the rejected requests
	discussions, err := f.discussions.ListByParticipant("user-a")
	req.NoError(err)
	req.Empty(discussions)
}

func TestDiscussionService_Resolve_By_Explicit_ID(t *testing.T) {
	req := require.New(t)
	f := newDiscussionFixture(t)

	created, err := f.svc.Resolve(domain.StartDiscussionCommand{
		UserID:       "user-a",
		RecipientIDs: []string{"user-b"},
	})
	req.NoError(err)

	// An explicit id fetches without creating
	fetched, err := f.svc.Resolve(domain.StartDiscussionCommand{
		UserID:       "user-a",
		DiscussionID: created.ID,
	})
	req.NoError(err)
	req.Equal(created.ID, fetched.ID)

	// An unknown id is an error, never a new discussion
	_, err = f.svc.Resolve(domain.StartDiscussionCommand{
		UserID:       "user-a",
		DiscussionID: uuid.NewString(),
	})
	req.ErrorIs(err, errors.ErrDiscussionNotFound)
}

func TestDiscussionService_Resolve_Concurrent_Same_Pair(t *testing.T) {
	req := require.New(t)
	f := newDiscussionFixture(t)
	callers := 10

	// When many connections resolve the same pair at once
	var wg sync.WaitGroup
	ids := make(chan string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cmd := domain.StartDiscussionCommand{UserID: "user-a", RecipientIDs: []string{"user-b"}}
			if i%2 == 1 {
				cmd = domain.StartDiscussionCommand{UserID: "user-b", RecipientIDs: []string{"user-a"}}
			}
			discussion, err := f.svc.Resolve(cmd)
			if err != nil {
				ids <- "error: " + err.Error()
				return
			}
			ids <- discussion.ID
		}(i)
	}
	wg.Wait()
	close(ids)

	// Then every caller got the same single discussion
	var unique []string
	for id := range ids {
		unique = append(unique, id)
	}
	req.Len(unique, callers)
	for _, id := range unique {
		req.Equal(unique[0], id)
	}

	discussions, err := f.discussions.ListByParticipant("user-a")
	req.NoError(err)
	req.Len(discussions, 1)
}

func TestDiscussionService_ListForUser_Orders_By_Recency(t *testing.T) {
	req := require.New(t)
	f := newDiscussionFixture(t)

	alice, err := f.users.CreateUser("Alice", "hash")
	req.NoError(err)
	bob, err := f.users.CreateUser("Bob", "hash")
	req.NoError(err)
	clara, err := f.users.CreateUser("Clara", "hash")
	req.NoError(err)
	dan, err := f.users.CreateUser("Dan", "hash")
	req.NoError(err)

	withBob, err := f.svc.Resolve(domain.StartDiscussionCommand{UserID: alice.ID, RecipientIDs: []string{bob.ID}})
	req.NoError(err)
	withClara, err := f.svc.Resolve(domain.StartDiscussionCommand{UserID: alice.ID, RecipientIDs: []string{clara.ID}})
	req.NoError(err)
	withDan, err := f.svc.Resolve(domain.StartDiscussionCommand{UserID: alice.ID, RecipientIDs: []string{dan.ID}})
	req.NoError(err)

	// Given activity in two of the three discussions, Clara last
	f.sendMessage(t, withBob.ID, alice.ID, "hi bob")
	lastToClara := f.sendMessage(t, withClara.ID, alice.ID, "hi clara")

	// When the feed is built
	seq, err := f.svc.ListForUser(alice.ID)
	req.NoError(err)
	feed := collect(seq)

	// Then most recent first, the silent discussion trailing
	req.Len(feed, 3)
	req.Equal(withClara.ID, feed[0].ID)
	req.Equal(withBob.ID, feed[1].ID)
	req.Equal(withDan.ID, feed[2].ID)

	// The last-message preview and its stamp come along
	req.NotNil(feed[0].LastMessage)
	req.Equal(lastToClara.ID, feed[0].LastMessage.ID)
	req.True(feed[0].LastActivity.Equal(lastToClara.CreatedAt))

	// Empty discussions carry no preview
	req.Nil(feed[2].LastMessage)
	req.True(feed[2].LastActivity.IsZero())

	// Participant profiles are resolved, without password hashes
	req.Len(feed[0].Participants, 2)
	names := []string{feed[0].Participants[0].Username, feed[0].Participants[1].Username}
	req.ElementsMatch([]string{"Alice", "Clara"}, names)
}

func TestDiscussionService_ListForUser_Empty(t *testing.T) {
	req := require.New(t)
	f := newDiscussionFixture(t)

	seq, err := f.svc.ListForUser(uuid.NewString())
	req.NoError(err)
	req.Empty(collect(seq))
}

func TestDiscussionService_ListForUser_Unknown_Participant_Profile(t *testing.T) {
	req := require.New(t)
	f := newDiscussionFixture(t)

	// Given a discussion whose peer has no stored profile
	discussion, err := f.svc.Resolve(domain.StartDiscussionCommand{
		UserID:       "user-a",
		RecipientIDs: []string{"ghost"},
	})
	req.NoError(err)

	seq, err := f.svc.ListForUser("user-a")
	req.NoError(err)
	feed := collect(seq)

	// Then the slot is kept with the bare id
	req.Len(feed, 1)
	req.Equal(discussion.ID, feed[0].ID)
	req.Len(feed[0].Participants, 2)
	for _, p := range feed[0].Participants {
		req.Empty(p.Username)
	}
}
