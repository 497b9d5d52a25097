package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/swingsandsand/internal/adapters/nats"
	"github.com/samirrijal/swingsandsand/internal/core/domain"
	"github.com/samirrijal/swingsandsand/internal/core/usecases"
	"github.com/samirrijal/swingsandsand/internal/pkg/metrics"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// snapshotOutbox holds the latest encoded snapshot not yet written to a
// socket. offer never blocks: an unsent snapshot is replaced by a newer one.
// It assumes a single producer.
type snapshotOutbox struct {
	ch chan []byte
}

func newSnapshotOutbox() *snapshotOutbox {
	return &snapshotOutbox{ch: make(chan []byte, 1)}
}

func (o *snapshotOutbox) offer(data []byte) {
	for {
		select {
		case o.ch <- data:
			return
		default:
		}
		select {
		case <-o.ch:
		default:
		}
	}
}

// WebSocketHandler streams the snapshots of one session to the client and
// dispatches the events it sends back. Frames from the client use the same
// JSON shape as POST /v1/sessions/:id/events.
//
// Snapshots are relayed from NATS while a connection is up; otherwise the
// handler subscribes to the controller directly. A slow client only ever
// misses intermediate snapshots; clients order frames by snapshot version.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		sess, ok := c.Locals("session").(*usecases.Session)
		if !ok {
			return
		}
		log := slog.Default().With("session_id", sess.ID, "remote", c.RemoteAddr().String())
		log.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		write := func(messageType int, data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			_ = c.SetWriteDeadline(time.Now().Add(wsWriteWait))
			return c.WriteMessage(messageType, data)
		}
		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			return write(websocket.TextMessage, data)
		}
		closeWith := func(reason string) {
			_ = write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
			_ = c.Close()
		}

		outbox := newSnapshotOutbox()
		sessionClosed := sess.Controller.Done()

		if conn := deps.relayConn(); conn != nil {
			stateSub, err := conn.Subscribe(natsadapter.StateSubject(sess.ID), func(msg *nats.Msg) {
				outbox.offer(msg.Data)
			})
			if err != nil {
				log.Error("ws subscribe failed", "error", err)
				return
			}
			defer func() { _ = stateSub.Unsubscribe() }()

			closedCh := make(chan struct{})
			var once sync.Once
			closedSub, err := conn.Subscribe(natsadapter.ClosedSubject(sess.ID), func(*nats.Msg) {
				once.Do(func() { close(closedCh) })
			})
			if err != nil {
				log.Error("ws subscribe failed", "error", err)
				return
			}
			defer func() { _ = closedSub.Unsubscribe() }()
			sessionClosed = closedCh
		} else {
			unsubscribe := sess.Controller.Subscribe(func(snap domain.Snapshot) {
				data, err := json.Marshal(snap)
				if err != nil {
					return
				}
				outbox.offer(data)
			})
			defer unsubscribe()
		}

		if err := writeJSON(sess.Controller.Snapshot()); err != nil {
			return
		}

		// Writer: snapshots, keep-alive pings and the close frame.
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(wsPingInterval)
			defer ticker.Stop()
			for {
				select {
				case data := <-outbox.ch:
					if err := write(websocket.TextMessage, data); err != nil {
						_ = c.Close()
						return
					}
				case <-ticker.C:
					if err := write(websocket.PingMessage, nil); err != nil {
						_ = c.Close()
						return
					}
				case <-sessionClosed:
					closeWith("session closed")
					return
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var req eventRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			ev, err := req.toEvent()
			if err != nil {
				_ = writeJSON(map[string]string{"error": err.Error()})
				continue
			}
			// The resulting snapshot reaches the client through the outbox.
			if _, err := deps.Sessions.Dispatch(context.Background(), sess.ID, ev); err != nil {
				_ = writeJSON(map[string]string{"error": err.Error()})
				if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrSessionClosed) {
					closeWith("session closed")
					break
				}
			}
		}

		log.Info("ws client disconnected")
	}
}
