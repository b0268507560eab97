package services

import (
	stderrors "errors"
	"iter"
	"log/slog"
	"sort"
	"time"

	"diskuss/domain"
	"diskuss/errors"
	"diskuss/repositories"

	"github.com/samber/lo"
)

type IDiscussionService interface {
	Resolve(cmd domain.StartDiscussionCommand) (domain.Discussion, error)
	ListForUser(userID string) (iter.Seq[domain.DiscussionSummary], error)
}

type DiscussionService struct {
	discussions repositories.IDiscussionRepository
	messages    repositories.IMessageRepository
	users       repositories.IUserRepository
	log         *slog.Logger
}

func NewDiscussionService(
	discussions repositories.IDiscussionRepository,
	messages repositories.IMessageRepository,
	users repositories.IUserRepository,
	log *slog.Logger,
) *DiscussionService {
	return &DiscussionService{discussions: discussions, messages: messages, users: users, log: log}
}

// Resolve deterministically maps a participant set to its single
// discussion, creating it on first contact. An explicit discussion id
// bypasses resolution: that path fetches by id and never creates.
func (s *DiscussionService) Resolve(cmd domain.StartDiscussionCommand) (domain.Discussion, error) {
	if cmd.DiscussionID != "" {
		return s.discussions.GetDiscussion(cmd.DiscussionID)
	}

	participants := domain.CanonicalParticipants(append(cmd.RecipientIDs, cmd.UserID)...)

	// A discussion needs someone besides the caller: without one it could
	// never carry a message.
	if len(participants) < 2 {
		return domain.Discussion{}, errors.ErrMissingFields
	}

	discussion, err := s.discussions.FindByParticipants(participants)
	if err == nil {
		return discussion, nil
	}
	if !stderrors.Is(err, errors.ErrDiscussionNotFound) {
		return domain.Discussion{}, err
	}

	discussion, err = s.discussions.CreateDiscussion(participants, cmd.IsGroup)
	if stderrors.Is(err, errors.ErrDiscussionExists) {
		// Lost the creation race; the other writer's record is the one.
		return s.discussions.FindByParticipants(participants)
	}
	return discussion, err
}

// ListForUser assembles the discussion feed: every discussion containing
// the user, annotated with participant profiles and the last-message
// preview, ordered by recency. The profile lookup is batched across all
// discussions. The returned sequence is finite and one-shot.
func (s *DiscussionService) ListForUser(userID string) (iter.Seq[domain.DiscussionSummary], error) {
	discussions, err := s.discussions.ListByParticipant(userID)
	if err != nil {
		return nil, err
	}

	type entry struct {
		discussion  domain.Discussion
		lastMessage *domain.Message
		lastAt      time.Time
	}
	entries := make([]entry, 0, len(discussions))
	for _, d := range discussions {
		e := entry{discussion: d}
		// Only the last reference is resolved; full history stays on disk.
		if n := len(d.Messages); n > 0 {
			msg, err := s.messages.GetMessage(d.Messages[n-1])
			switch {
			case err == nil:
				e.lastMessage = &msg
				e.lastAt = msg.CreatedAt
			case stderrors.Is(err, errors.ErrMessageNotFound):
				// Dangling reference; the discussion still lists, unsorted
				// by activity.
				s.log.Warn("last message reference dangling",
					"discussion_id", d.ID, "message_id", d.Messages[n-1])
			default:
				return nil, err
			}
		}
		entries = append(entries, e)
	}

	// Descending by last activity; zero-time (empty) discussions trail.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].lastAt.After(entries[j].lastAt)
	})

	// One store round trip for the union of all participant ids.
	participantIDs := lo.Uniq(lo.FlatMap(entries, func(e entry, _ int) []string {
		return e.discussion.Participants
	}))
	profiles, err := s.users.GetUsersByIDs(participantIDs)
	if err != nil {
		return nil, err
	}

	return func(yield func(domain.DiscussionSummary) bool) {
		for _, e := range entries {
			summary := domain.DiscussionSummary{
				ID:           e.discussion.ID,
				IsGroup:      e.discussion.IsGroup,
				LastMessage:  e.lastMessage,
				LastActivity: e.lastAt,
				Participants: lo.Map(e.discussion.Participants, func(id string, _ int) domain.Profile {
					if user, ok := profiles[id]; ok {
						return user.Profile()
					}
					// Missing profile: keep the slot with empty values.
					return domain.Profile{ID: id}
				}),
			}
			if !yield(summary) {
				return
			}
		}
	}, nil
}
