package api

import (
	"context"
	"encoding/json"
	"net/http"

	"diskuss/domain"
	"diskuss/errors"
	"diskuss/sink"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// websocket upgrades the connection, authenticates it once during the
// handshake, and registers it for fan-out. Every subsequent inbound event
// inherits the connection's identity; payloads never carry credentials.
func (h *Handler) websocket(c *gin.Context) {
	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
	}
	claims, err := h.issuer.Verify(token)
	if err != nil {
		failure := errors.ToFailure(err)
		c.JSON(http.StatusUnauthorized, failure)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	connID := uuid.NewString()
	connSink := sink.NewConnectionSink(h.log, h.bufferSize, &h.monitor.DroppedEvents)
	h.registry.Register(claims.UserID, connID, connSink)
	h.monitor.ConnectionsOpened.Add(1)
	h.log.Info("connection opened", "user_id", claims.UserID, "conn_id", connID)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		h.registry.Deregister(connID)
		h.monitor.ConnectionsClosed.Add(1)
		cancel()
		_ = conn.Close()
		h.log.Info("connection closed", "user_id", claims.UserID, "conn_id", connID)
	}()

	go h.writeLoop(ctx, conn, connSink)
	h.readLoop(ctx, conn, connSink, claims.UserID)
}

// writeLoop drains the connection's sink onto the wire. It owns all writes
// to the socket; gorilla connections allow a single concurrent writer.
func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, connSink *sink.ConnectionSink) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-connSink.Events:
			if err := conn.WriteJSON(evt); err != nil {
				h.log.Debug("websocket write failed", "error", err)
				return
			}
			h.monitor.Deliveries.Add(1)
		}
	}
}

// readLoop decodes inbound envelopes and dispatches them. Malformed or
// failing events answer with an error event on the same connection; the
// connection stays up.
func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, connSink *sink.ConnectionSink, userID string) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var envelope inboundEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			h.replyError(ctx, connSink, errors.ErrMissingFields)
			continue
		}

		if err := h.handleEvent(ctx, connSink, userID, envelope); err != nil {
			h.replyError(ctx, connSink, err)
		}
	}
}

func (h *Handler) handleEvent(ctx context.Context, connSink *sink.ConnectionSink, userID string, envelope inboundEnvelope) error {
	switch envelope.Type {
	case EventStartDiscussion:
		return h.onStartDiscussion(ctx, connSink, userID, envelope.Data)
	case EventGetDiscussions:
		return h.onGetDiscussions(ctx, connSink, userID)
	case EventSendMessage:
		return h.onSendMessage(ctx, connSink, userID, envelope.Data)
	case EventGetDiscussionMessages:
		return h.onGetMessages(ctx, connSink, envelope.Data)
	case EventUpdateMessage:
		return h.onUpdateMessage(ctx, connSink, envelope.Data)
	case EventDeleteMessage:
		return h.onDeleteMessage(ctx, connSink, envelope.Data)
	default:
		h.log.Debug("unknown event type", "type", envelope.Type)
		return errors.ErrMissingFields
	}
}

func (h *Handler) onStartDiscussion(ctx context.Context, connSink *sink.ConnectionSink, userID string, data json.RawMessage) error {
	var payload startDiscussionPayload
	if err := decodePayload(data, &payload); err != nil {
		return errors.ErrMissingFields
	}
	recipients := payload.RecipientIDs
	if payload.RecipientID != "" {
		recipients = append(recipients, payload.RecipientID)
	}
	discussion, err := h.discussionService.Resolve(domain.StartDiscussionCommand{
		UserID:       userID,
		DiscussionID: payload.DiscussionID,
		RecipientIDs: recipients,
		IsGroup:      payload.IsGroup,
	})
	if err != nil {
		return err
	}
	return connSink.Consume(ctx, domain.Event{Type: EventStartDiscussion, Data: discussion})
}

func (h *Handler) onGetDiscussions(ctx context.Context, connSink *sink.ConnectionSink, userID string) error {
	feed, err := h.discussionService.ListForUser(userID)
	if err != nil {
		return err
	}
	summaries := make([]domain.DiscussionSummary, 0)
	for summary := range feed {
		summaries = append(summaries, summary)
	}
	return connSink.Consume(ctx, domain.Event{Type: EventGetDiscussions, Data: summaries})
}

func (h *Handler) onSendMessage(ctx context.Context, connSink *sink.ConnectionSink, userID string, data json.RawMessage) error {
	var payload sendMessagePayload
	if err := decodePayload(data, &payload); err != nil {
		return errors.ErrMissingFields
	}
	if payload.RecipientID == userID {
		return errors.ErrNoRecipient
	}

	result, err := h.messageService.Send(domain.SendMessageCommand{
		DiscussionID: payload.DiscussionID,
		SenderID:     userID,
		RecipientID:  payload.RecipientID,
		Text:         payload.Text,
	})
	if err != nil {
		return err
	}
	h.monitor.MessagesSent.Add(1)

	// Fan-out: one push per dispatch-target connection, sender's own
	// connections included.
	evt := domain.Event{Type: EventSendMessage, Data: result}
	for _, target := range h.registry.SinksFor(result.DispatchTargets) {
		if err := target.Consume(ctx, evt); err != nil {
			h.log.Debug("fan-out delivery failed", "error", err)
		}
	}
	return nil
}

func (h *Handler) onGetMessages(ctx context.Context, connSink *sink.ConnectionSink, data json.RawMessage) error {
	var payload getMessagesPayload
	if err := decodePayload(data, &payload); err != nil {
		return errors.ErrMissingFields
	}
	messages, err := h.messageService.Messages(domain.GetMessagesCommand{
		DiscussionID: payload.DiscussionID,
		Limit:        payload.Limit,
		Offset:       payload.Offset,
	})
	if err != nil {
		return err
	}
	return connSink.Consume(ctx, domain.Event{Type: EventGetDiscussionMessages, Data: messages})
}

func (h *Handler) onUpdateMessage(ctx context.Context, connSink *sink.ConnectionSink, data json.RawMessage) error {
	var payload updateMessagePayload
	if err := decodePayload(data, &payload); err != nil {
		return errors.ErrMissingFields
	}
	if err := h.messageService.Update(domain.UpdateMessageCommand{
		MessageID: payload.MessageID,
		Text:      payload.Text,
	}); err != nil {
		return err
	}
	return connSink.Consume(ctx, domain.Event{Type: EventUpdateMessage, Data: gin.H{"message_id": payload.MessageID}})
}

func (h *Handler) onDeleteMessage(ctx context.Context, connSink *sink.ConnectionSink, data json.RawMessage) error {
	var payload deleteMessagePayload
	if err := decodePayload(data, &payload); err != nil {
		return errors.ErrMissingFields
	}
	if err := h.messageService.Delete(domain.DeleteMessageCommand{MessageID: payload.MessageID}); err != nil {
		return err
	}
	return connSink.Consume(ctx, domain.Event{Type: EventDeleteMessage, Data: gin.H{"message_id": payload.MessageID}})
}

func (h *Handler) replyError(ctx context.Context, connSink *sink.ConnectionSink, err error) {
	failure := errors.ToFailure(err)
	_ = connSink.Consume(ctx, domain.Event{Type: EventError, Data: failure})
}
