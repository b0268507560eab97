//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"

	"diskuss/domain"
)

// EventSink is one live connection's inbox. Implementations must not block
// the caller: fan-out happens on the sender's request path.
type EventSink interface {
	Consume(ctx context.Context, e domain.Event) error
}

// IConnectionRegistry is the presence source of truth for fan-out.
type IConnectionRegistry interface {
	Register(userID, connID string, sink EventSink)
	Deregister(connID string)
	ConnectionsOf(userID string) []string
	SinksFor(connIDs []string) []EventSink
}
