// Package sink carries outbound events to live connections.
package sink

import (
	"context"
	"log/slog"
	"sync/atomic"

	"diskuss/domain"
)

// ConnectionSink buffers events for one WebSocket connection. The writer
// goroutine of the connection drains Events; Consume never blocks the
// sender's request path.
type ConnectionSink struct {
	Events  chan domain.Event
	log     *slog.Logger
	dropped *atomic.Uint64
}

// NewConnectionSink allocates a sink with the given buffer depth. dropped,
// when non-nil, counts events lost to backpressure.
func NewConnectionSink(log *slog.Logger, bufferSize int, dropped *atomic.Uint64) *ConnectionSink {
	return &ConnectionSink{
		Events:  make(chan domain.Event, bufferSize),
		log:     log,
		dropped: dropped,
	}
}

// Consume hands the event to the connection's channel. A full buffer means
// the client is not keeping up; the event is dropped rather than stalling
// fan-out for everyone else.
func (s *ConnectionSink) Consume(ctx context.Context, e domain.Event) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		if s.dropped != nil {
			s.dropped.Add(1)
		}
		s.log.Debug("connection backpressure, event dropped", "type", e.Type)
		return nil
	}
}
