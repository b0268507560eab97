package domain

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// Discussion is the persistent thread for a fixed participant set.
// Participants is always the canonical (ascending) list, so a given
// unordered pair or group maps to exactly one record.
type Discussion struct {
	ID           string   `json:"id"`
	Participants []string `json:"participants"`
	IsGroup      bool     `json:"is_group"`
	Messages     []string `json:"messages"`
}

// CanonicalParticipants deduplicates and sorts identifiers ascending.
// The result is the lookup and creation key for discussion resolution:
// resolve(a, [b]) and resolve(b, [a]) land on the same key.
func CanonicalParticipants(ids ...string) []string {
	out := lo.Uniq(ids)
	sort.Strings(out)
	return out
}

// OtherParticipants returns the canonical list minus the given user.
func (d Discussion) OtherParticipants(userID string) []string {
	return lo.Without(d.Participants, userID)
}

// DiscussionSummary is one feed entry: the discussion annotated with
// participant profiles and the last-message preview.
type DiscussionSummary struct {
	ID           string    `json:"id"`
	IsGroup      bool      `json:"is_group"`
	Participants []Profile `json:"participants"`
	LastMessage  *Message  `json:"last_message,omitempty"`
	LastActivity time.Time `json:"last_activity"`
}
