package api

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

// Inbound WebSocket events are a tagged union: an envelope with a type
// discriminator and a typed payload per event kind, validated before
// anything reaches the services.

const (
	EventStartDiscussion       = "start_discussion"
	EventGetDiscussions        = "get_discussions"
	EventSendMessage           = "send_message"
	EventGetDiscussionMessages = "get_discussion_messages"
	EventUpdateMessage         = "update_message"
	EventDeleteMessage         = "delete_message"
	EventError                 = "error"
)

var validate = validator.New()

type inboundEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type startDiscussionPayload struct {
	DiscussionID string   `json:"discussion_id"`
	RecipientID  string   `json:"recipient_id"`
	RecipientIDs []string `json:"recipient_ids"`
	IsGroup      bool     `json:"is_group"`
}

type sendMessagePayload struct {
	DiscussionID string `json:"discussion_id" validate:"required"`
	RecipientID  string `json:"recipient_id"`
	Text         string `json:"text" validate:"required"`
}

type getMessagesPayload struct {
	DiscussionID string `json:"discussion_id" validate:"required"`
	Limit        int    `json:"limit" validate:"gte=0"`
	Offset       int    `json:"offset" validate:"gte=0"`
}

type updateMessagePayload struct {
	MessageID string `json:"message_id" validate:"required"`
	Text      string `json:"text" validate:"required"`
}

type deleteMessagePayload struct {
	MessageID string `json:"message_id" validate:"required"`
}

// decodePayload unmarshals and validates one event payload. A nil or empty
// payload decodes to the zero value, which validation then rejects for
// event kinds with required fields.
func decodePayload(data json.RawMessage, v any) error {
	if len(data) > 0 {
		if err := json.Unmarshal(data, v); err != nil {
			return err
		}
	}
	return validate.Struct(v)
}
