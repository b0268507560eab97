package domain

// Typed commands for each inbound event kind. The transport layer decodes
// and validates payloads into these before anything reaches the services;
// the authenticated identity is always attached by the transport.

type StartDiscussionCommand struct {
	UserID       string
	DiscussionID string   // when set, fetch by id and never create
	RecipientIDs []string `validate:"omitempty,dive,required"`
	IsGroup      bool
}

type SendMessageCommand struct {
	DiscussionID string `validate:"required"`
	SenderID     string `validate:"required"`
	RecipientID  string
	Text         string `validate:"required"`
}

type GetMessagesCommand struct {
	DiscussionID string `validate:"required"`
	Limit        int
	Offset       int
}

type UpdateMessageCommand struct {
	MessageID string `validate:"required"`
	Text      string `validate:"required"`
}

type DeleteMessageCommand struct {
	MessageID string `validate:"required"`
}
