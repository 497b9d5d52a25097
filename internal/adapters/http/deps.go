package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/swingsandsand/internal/adapters/valkey"
	"github.com/samirrijal/swingsandsand/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sessions *usecases.SessionService
	NATS     *nats.Conn    // optional; snapshots are relayed from NATS when set
	Cache    *valkey.Cache // optional; only used by readiness checks
}

// relayConn returns the NATS connection to relay snapshots from, or nil when
// NATS is not configured or currently disconnected.
func (d *Dependencies) relayConn() *nats.Conn {
	if d.NATS == nil || !d.NATS.IsConnected() {
		return nil
	}
	return d.NATS
}
