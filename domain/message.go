package domain

import "time"

// Message is an immutable chat event, except for the explicit
// edit and delete point operations.
type Message struct {
	ID           string    `json:"id"`
	DiscussionID string    `json:"discussion_id"`
	SenderID     string    `json:"sender_id"`
	RecipientID  string    `json:"recipient_id,omitempty"`
	Text         string    `json:"text"`
	Lang         string    `json:"lang,omitempty"`
	CreatedAt    time.Time `json:"timestamp"`
}
