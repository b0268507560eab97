package services

import (
	"log/slog"
	"strings"

	"diskuss/contract"
	"diskuss/domain"
	"diskuss/errors"
	"diskuss/moderation"
	"diskuss/repositories"

	"github.com/abadojack/whatlanggo"
	"github.com/samber/lo"
)

type IMessageService interface {
	Send(cmd domain.SendMessageCommand) (SendResult, error)
	Messages(cmd domain.GetMessagesCommand) ([]domain.Message, error)
	Update(cmd domain.UpdateMessageCommand) error
	Delete(cmd domain.DeleteMessageCommand) error
}

// SendResult is what the transport layer needs to finish a send: the
// persisted message, the recent window for read-back, and the connection
// ids to push to.
type SendResult struct {
	DiscussionID    string           `json:"discussion_id"`
	Message         domain.Message   `json:"message"`
	Recent          []domain.Message `json:"messages"`
	DispatchTargets []string         `json:"-"`
}

type MessageService struct {
	discussions  repositories.IDiscussionRepository
	messages     repositories.IMessageRepository
	registry     contract.IConnectionRegistry
	moderator    moderation.Moderator
	recentWindow int
	log          *slog.Logger
}

func NewMessageService(
	discussions repositories.IDiscussionRepository,
	messages repositories.IMessageRepository,
	registry contract.IConnectionRegistry,
	moderator moderation.Moderator,
	recentWindow int,
	log *slog.Logger,
) *MessageService {
	return &MessageService{
		discussions:  discussions,
		messages:     messages,
		registry:     registry,
		moderator:    moderator,
		recentWindow: recentWindow,
		log:          log,
	}
}

// Send runs the message pipeline: validate, resolve the discussion, derive
// the recipient set, persist, and snapshot the dispatch targets from the
// registry at send time. An empty target set is not an error; the message
// is durable regardless of who is connected.
func (s *MessageService) Send(cmd domain.SendMessageCommand) (SendResult, error) {
	text := strings.TrimSpace(cmd.Text)
	if cmd.DiscussionID == "" || cmd.SenderID == "" || text == "" {
		return SendResult{}, errors.ErrMissingFields
	}

	discussion, err := s.discussions.GetDiscussion(cmd.DiscussionID)
	if err != nil {
		return SendResult{}, err
	}

	// Recipients default to "everyone else in the discussion". For a 1:1
	// discussion that is exactly one id.
	recipients := []string{cmd.RecipientID}
	if cmd.RecipientID == "" {
		recipients = discussion.OtherParticipants(cmd.SenderID)
		if len(recipients) == 0 {
			return SendResult{}, errors.ErrNoRecipient
		}
	}

	text = s.moderator.Censor(text)
	info := whatlanggo.Detect(text)

	msg := domain.Message{
		DiscussionID: discussion.ID,
		SenderID:     cmd.SenderID,
		Text:         text,
		Lang:         info.Lang.Iso6391(),
	}
	if len(recipients) == 1 {
		msg.RecipientID = recipients[0]
	}

	msg, err = s.messages.StoreMessage(msg)
	if err != nil {
		return SendResult{}, err
	}
	if err := s.discussions.AppendMessageRef(discussion.ID, msg.ID); err != nil {
		return SendResult{}, err
	}

	// Presence snapshot at send time, not delivery time: the sender's own
	// connections are included so every open device echoes the message.
	targets := s.registry.ConnectionsOf(cmd.SenderID)
	for _, recipient := range recipients {
		targets = append(targets, s.registry.ConnectionsOf(recipient)...)
	}
	targets = lo.Uniq(targets)

	recent, err := s.messages.ListByDiscussion(discussion.ID, s.recentWindow, 0)
	if err != nil {
		return SendResult{}, err
	}

	return SendResult{
		DiscussionID:    discussion.ID,
		Message:         msg,
		Recent:          recent,
		DispatchTargets: targets,
	}, nil
}

// Messages returns a window of a discussion's history ordered by creation
// timestamp ascending, counted back from the most recent message.
func (s *MessageService) Messages(cmd domain.GetMessagesCommand) ([]domain.Message, error) {
	if cmd.DiscussionID == "" {
		return nil, errors.ErrMissingFields
	}
	if _, err := s.discussions.GetDiscussion(cmd.DiscussionID); err != nil {
		return nil, err
	}
	limit := cmd.Limit
	if limit <= 0 {
		limit = s.recentWindow
	}
	return s.messages.ListByDiscussion(cmd.DiscussionID, limit, cmd.Offset)
}

// Update edits a message's text in place. No fan-out: live edit broadcast
// is not part of this design.
func (s *MessageService) Update(cmd domain.UpdateMessageCommand) error {
	text := strings.TrimSpace(cmd.Text)
	if cmd.MessageID == "" || text == "" {
		return errors.ErrMissingFields
	}
	return s.messages.UpdateText(cmd.MessageID, s.moderator.Censor(text))
}

// Delete removes a message and detaches it from its discussion.
func (s *MessageService) Delete(cmd domain.DeleteMessageCommand) error {
	if cmd.MessageID == "" {
		return errors.ErrMissingFields
	}
	msg, err := s.messages.DeleteMessage(cmd.MessageID)
	if err != nil {
		return err
	}
	return s.discussions.RemoveMessageRef(msg.DiscussionID, msg.ID)
}
