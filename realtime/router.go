package realtime

import (
	"context"
	"fmt"
	"log/slog"

	"zchat/contract"
	"zchat/domain/event"
)

// Router delivers one event to every currently-registered handle of its
// target user. Delivery is best-effort and at-most-once per handle: there is
// no retry, no queuing, and no error — an offline target is the normal
// Undelivered outcome, never a failure.
//
// A handle disconnecting concurrently with delivery fails silently for that
// handle only; the handle cleans itself out of the registry on its own
// disconnect path, not here.
type Router struct {
	log      *slog.Logger
	registry contract.IRegistry
}

func NewRouter(log *slog.Logger, registry contract.IRegistry) *Router {
	return &Router{log: log, registry: registry}
}

func (r *Router) Deliver(ctx context.Context, e event.DomainEvent) contract.DeliveryResult {
	handles := r.registry.HandlesFor(e.Target())
	if len(handles) == 0 {
		return contract.Undelivered
	}

	delivered := 0
	for _, h := range handles {
		if err := h.Consume(ctx, e); err != nil {
			// One dead connection must not abort fan-out to the others.
			r.log.Debug(fmt.Sprintf("Dropped %s event for handle %s: %v", e.Name(), h.ID(), err))
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return contract.Undelivered
	}
	return contract.DeliveryResult{Delivered: true, Handles: delivered}
}
