package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/swingsandsand/internal/core/domain"
	"github.com/samirrijal/swingsandsand/internal/core/ports"
)

const subjectPrefix = "map.session."

var _ ports.SnapshotPublisher = (*Publisher)(nil)

// StateSubject is where snapshots of a session are published.
func StateSubject(sessionID string) string {
	return subjectPrefix + sessionID + ".state"
}

// ClosedSubject announces that a session was discarded.
func ClosedSubject(sessionID string) string {
	return subjectPrefix + sessionID + ".closed"
}

// Publisher implements ports.SnapshotPublisher using core NATS. Snapshots are
// ephemeral view state, so they are not persisted in a JetStream stream.
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher connects to NATS.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Publisher{conn: conn}, nil
}

// Conn exposes the underlying connection, e.g. for WebSocket relays.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

func (p *Publisher) PublishSnapshot(ctx context.Context, sessionID string, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return p.conn.Publish(StateSubject(sessionID), data)
}

func (p *Publisher) PublishClosed(ctx context.Context, sessionID string) error {
	return p.conn.Publish(ClosedSubject(sessionID), []byte(sessionID))
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection. The first connect must succeed;
// later disconnects are retried forever.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("swingsandsand"),
		nats.Timeout(2*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
