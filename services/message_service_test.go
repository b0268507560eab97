package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"diskuss/domain"
	"diskuss/errors"
	"diskuss/moderation"
	"diskuss/repositories"
	"diskuss/runtime"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stubSink struct {
}

func (s stubSink) Consume(ctx context.Context, e domain.Event) error {
	return nil
}

type messageFixture struct {
	discussions *repositories.DiscussionRepository
	messages    *repositories.MessageRepository
	registry    *runtime.Registry
	svc         *MessageService
}

func newMessageFixture(t *testing.T, censoredWords []string, recentWindow int) messageFixture {
	t.Helper()
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	discussions := repositories.NewDiscussionRepository(db, log)
	messages := repositories.NewMessageRepository(db, log)
	registry := runtime.NewRegistry()
	moderator, err := moderation.NewModerator(censoredWords, '*')
	req.NoError(err)

	return messageFixture{
		discussions: discussions,
		messages:    messages,
		registry:    registry,
		svc:         NewMessageService(discussions, messages, registry, moderator, recentWindow, log),
	}
}

func (f messageFixture) createDiscussion(t *testing.T, participants ...string) domain.Discussion {
	t.Helper()
	req := require.New(t)

	discussion, err := f.discussions.CreateDiscussion(domain.CanonicalParticipants(participants...), len(participants) > 2)
	req.NoError(err)
	return discussion
}

func TestMessageService_Send_Validation(t *testing.T) {
	req := require.New(t)
	f := newMessageFixture(t, nil, 50)
	discussion := f.createDiscussion(t, "user-a", "user-b")

	tests := []struct {
		name string
		cmd  domain.SendMessageCommand
	}{
		{"missing discussion", domain.SendMessageCommand{SenderID: "user-a", Text: "hi"}},
		{"missing sender", domain.SendMessageCommand{DiscussionID: discussion.ID, Text: "hi"}},
		{"empty text", domain.SendMessageCommand{DiscussionID: discussion.ID, SenderID: "user-a"}},
		{"whitespace text", domain.SendMessageCommand{DiscussionID: discussion.ID, SenderID: "user-a", Text: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Send(tt.cmd)
			req.ErrorIs(err, errors.ErrMissingFields)
		})
	}
}

func TestMessageService_Send_Unknown_Discussion(t *testing.T) {
	req := require.New(t)
	f := newMessageFixture(t, nil, 50)

	_, err := f.svc.Send(domain.SendMessageCommand{
		DiscussionID: uuid.NewString(),
		SenderID:     "user-a",
		Text:         "hello",
	})
	req.ErrorIs(err, errors.ErrDiscussionNotFound)
}

func TestMessageService_Send_Derives_Recipient(t *testing.T) {
	req := require.New(t)
	f := newMessageFixture(t, nil, 50)
	discussion := f.createDiscussion(t, "user-a", "user-b")

	// When no explicit recipient is given in a 1:1 discussion
	result, err := f.svc.Send(domain.SendMessageCommand{
		DiscussionID: discussion.ID,
		SenderID:     "user-a",
		Text:         "hello there my friend",
	})
	req.NoError(err)

	// Then the other participant is the recipient
	req.Equal("user-b", result.Message.RecipientID)
	req.Equal(discussion.ID, result.DiscussionID)
	req.NotEmpty(result.Message.ID)
	req.NotEmpty(result.Message.Lang)

	// And the message is durably attached to the discussion
	fetched, err := f.discussions.GetDiscussion(discussion.ID)
	req.NoError(err)
	req.Equal([]string{result.Message.ID}, fetched.Messages)
}

func TestMessageService_Send_No_Recipient(t *testing.T) {
	req := require.New(t)
	f := newMessageFixture(t, nil, 50)

	// A discussion whose only participant is the sender
	discussion := f.createDiscussion(t, "user-a")

	_, err := f.svc.Send(domain.SendMessageCommand{
		DiscussionID: discussion.ID,
		SenderID:     "user-a",
		Text:         "talking to myself",
	})
	req.ErrorIs(err, errors.ErrNoRecipient)
}

func TestMessageService_Send_Dispatch_Targets(t *testing.T) {
	req := require.New(t)
	f := newMessageFixture(t, nil, 50)
	discussion := f.createDiscussion(t, "user-a", "user-b")

	// Given the sender on two devices, the recipient on one,
	// and an unrelated user also connected
	f.registry.Register("user-a", "conn-1", stubSink{})
	f.registry.Register("user-a", "conn-2", stubSink{})
	f.registry.Register("user-b", "conn-3", stubSink{})
	f.registry.Register("user-z", "conn-4", stubSink{})

	result, err := f.svc.Send(domain.SendMessageCommand{
		DiscussionID: discussion.ID,
		SenderID:     "user-a",
		Text:         "hello",
	})
	req.NoError(err)

	// Then the echo set covers every device of both parties and nobody else
	req.ElementsMatch([]string{"conn-1", "conn-2", "conn-3"}, result.DispatchTargets)
}

func TestMessageService_Send_Offline_Recipient(t *testing.T) {
	req := require.New(t)
	f := newMessageFixture(t, nil, 50)
	discussion := f.createDiscussion(t, "user-a", "user-b")

	// Nobody connected at all
	result, err := f.svc.Send(domain.SendMessageCommand{
		DiscussionID: discussion.ID,
		SenderID:     "user-a",
		Text:         "are you there",
	})

	// The message is stored anyway
	req.NoError(err)
	req.Empty(result.DispatchTargets)

	stored, err := f.messages.GetMessage(result.Message.ID)
	req.NoError(err)
	req.Equal("are you there", stored.Text)
}

func TestMessageService_Send_Concurrent_Same_Discussion(t *testing.T) {
	req := require.New(t)
	f := newMessageFixture(t, nil, 50)
	discussion := f.createDiscussion(t, "user-a", "user-b")
	senders := 8

	// When both sides send into the discussion at the same time
	var wg sync.WaitGroup
	results := make(chan error, senders)
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := "user-a"
			if i%2 == 1 {
				sender = "user-b"
			}
			_, err := f.svc.Send(domain.SendMessageCommand{
				DiscussionID: discussion.ID,
				SenderID:     sender,
				Text:         fmt.Sprintf("burst %d", i),
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	// Then no send fails and every message is attached to the discussion
	for err := range results {
		req.NoError(err)
	}
	fetched, err := f.discussions.GetDiscussion(discussion.ID)
	req.NoError(err)
	req.Len(fetched.Messages, senders)

	messages, err := f.svc.Messages(domain.GetMessagesCommand{DiscussionID: discussion.ID})
	req.NoError(err)
	req.Len(messages, senders)
}

func TestMessageService_Send_Censors_Text(t *testing.T) {
	req := require.New(t)
	f := newMessageFixture(t, []string{"badger"}, 50)
	discussion := f.createDiscussion(t, "user-a", "user-b")

	result, err := f.svc.Send(domain.SendMessageCommand{
		DiscussionID: discussion.ID,
		SenderID:     "user-a",
		Text:         "the badger strikes again",
	})
	req.NoError(err)
	req.Equal("the ****** strikes again", result.Message.Text)

	// The censored form is what got persisted
	stored, err := f.messages.GetMessage(result.Message.ID)
	req.NoError(err)
	req.Equal("the ****** strikes again", stored.Text)
}

func TestMessageService_Send_Returns_Recent_Window(t *testing.T) {
	req := require.New(t)
	f := newMessageFixture(t, nil, 2)
	discussion := f.createDiscussion(t, "user-a", "user-b")

	var last SendResult
	for _, text := range []string{"one", "two", "three"} {
		result, err := f.svc.Send(domain.SendMessageCommand{
			DiscussionID: discussion.ID,
			SenderID:     "user-a",
			Text:         text,
		})
		req.NoError(err)
		last = result
	}

	// The read-back window holds the latest two, oldest first
	req.Len(last.Recent, 2)
	req.Equal("two", last.Recent[0].Text)
	req.Equal("three", last.Recent[1].Text)
}

func TestMessageService_Messages(t *testing.T) {
	req := require.New(t)
	f := newMessageFixture(t, nil, 50)
	discussion := f.createDiscussion(t, "user-a", "user-b")

	for _, text := range []string{"one", "two", "three"} {
		_, err := f.svc.Send(domain.SendMessageCommand{
			DiscussionID: discussion.ID,
			SenderID:     "user-a",
			Text:         text,
		})
		req.NoError(err)
	}

	messages, err := f.svc.Messages(domain.GetMessagesCommand{DiscussionID: discussion.ID})
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal("one", messages[0].Text)
	req.Equal("three", messages[2].Text)

	_, err = f.svc.Messages(domain.GetMessagesCommand{DiscussionID: uuid.NewString()})
	req.ErrorIs(err, errors.ErrDiscussionNotFound)

	_, err = f.svc.Messages(domain.GetMessagesCommand{})
	req.ErrorIs(err, errors.ErrMissingFields)
}

func TestMessageService_Update(t *testing.T) {
	req := require.New(t)
	f := newMessageFixture(t, []string{"badger"}, 50)
	discussion := f.createDiscussion(t, "user-a", "user-b")

	result, err := f.svc.Send(domain.SendMessageCommand{
		DiscussionID: discussion.ID,
		SenderID:     "user-a",
		Text:         "original",
	})
	req.NoError(err)

	// Edits go through moderation too
	req.NoError(f.svc.Update(domain.UpdateMessageCommand{
		MessageID: result.Message.ID,
		Text:      "now with a badger inside",
	}))

	stored, err := f.messages.GetMessage(result.Message.ID)
	req.NoError(err)
	req.Equal("now with a ****** inside", stored.Text)

	req.ErrorIs(f.svc.Update(domain.UpdateMessageCommand{MessageID: result.Message.ID}), errors.ErrMissingFields)
	req.ErrorIs(f.svc.Update(domain.UpdateMessageCommand{MessageID: uuid.NewString(), Text: "x"}), errors.ErrMessageNotFound)
}

func TestMessageService_Delete(t *testing.T) {
	req := require.New(t)
	f := newMessageFixture(t, nil, 50)
	discussion := f.createDiscussion(t, "user-a", "user-b")

	result, err := f.svc.Send(domain.SendMessageCommand{
		DiscussionID: discussion.ID,
		SenderID:     "user-a",
		Text:         "delete me",
	})
	req.NoError(err)

	req.NoError(f.svc.Delete(domain.DeleteMessageCommand{MessageID: result.Message.ID}))

	// Both the document and the discussion reference are gone
	_, err = f.messages.GetMessage(result.Message.ID)
	req.ErrorIs(err, errors.ErrMessageNotFound)

	fetched, err := f.discussions.GetDiscussion(discussion.ID)
	req.NoError(err)
	req.Empty(fetched.Messages)

	req.ErrorIs(f.svc.Delete(domain.DeleteMessageCommand{}), errors.ErrMissingFields)
	req.ErrorIs(f.svc.Delete(domain.DeleteMessageCommand{MessageID: uuid.NewString()}), errors.ErrMessageNotFound)
}
