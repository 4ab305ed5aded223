//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"

	"zchat/domain"
	"zchat/domain/event"
)

// EventSink consumes a routed event. Implementations must not block the
// caller: a live connection enqueues into its buffered outbound queue and
// reports failure when the queue is closed or full.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Handle is one live connection endpoint for a user. A user may hold several
// handles at once (multi-device); each is registered and deregistered
// independently.
type Handle interface {
	EventSink
	ID() string
}

// IRegistry is the authoritative in-memory presence map. Operations are
// idempotent and never fail; they must complete without suspension so lock
// hold times stay minimal.
type IRegistry interface {
	Register(user domain.UserID, h Handle)
	Deregister(user domain.UserID, handleID string)
	HandlesFor(user domain.UserID) []Handle
	IsOnline(user domain.UserID) bool
}

// DeliveryResult reports the outcome of a best-effort delivery. Handles is
// the number of endpoints the event was enqueued to; zero means the target
// was unreachable and the event has been dropped.
type DeliveryResult struct {
	Delivered bool
	Handles   int
}

var Undelivered = DeliveryResult{}

// IRouter fans one event out to every registered handle of its target.
// At-most-once per handle, no retry, no queuing beyond each handle's own
// outbound buffer. Callers that need a durable fallback for lost events
// decide that themselves.
type IRouter interface {
	Deliver(ctx context.Context, e event.DomainEvent) DeliveryResult
}

// NotificationSink abstracts out-of-band dispatch (verification emails).
// The default implementation only logs; real mail transport is an external
// collaborator.
type NotificationSink interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}
