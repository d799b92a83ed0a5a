package session

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"cardroom/gateway/internal/logging"
)

const sendBufferSize = 64

var errSendBufferFull = errors.New("send buffer full")

// Link is the registry's view of one live connection. The concrete transport
// hides behind it so routing and fan-out can be exercised without sockets.
type Link interface {
	// ConnectionID identifies this physical connection; a reconnect for the
	// same profile produces a new one.
	ConnectionID() string
	ProfileID() int64
	DisplayName() string
	MatchID() string
	// LastSequence returns the anti-replay watermark.
	LastSequence() int64
	// AdvanceSequence raises the watermark. Callers must only pass values
	// strictly greater than LastSequence.
	AdvanceSequence(seq int64)
	// Send delivers one outbound message, best effort.
	Send(env *Outbound) error
	// Close shuts the transport with the given close status.
	Close(code int, reason string)
}

// Conn binds one WebSocket to one authenticated profile in one match.
// Writes funnel through a buffered channel drained by a single pump
// goroutine, so Send is safe from any goroutine and a stalled peer cannot
// block a broadcast.
type Conn struct {
	id          string
	profileID   int64
	displayName string
	matchID     string

	socket       *websocket.Conn
	send         chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	pingInterval time.Duration
	log          *logging.Logger

	lastSequence atomic.Int64
	lastActionAt atomic.Int64
}

// NewConn wraps an upgraded socket and starts its write pump.
func NewConn(socket *websocket.Conn, profileID int64, displayName, matchID string, readLimit int64, pingInterval time.Duration, log *logging.Logger) *Conn {
	if log == nil {
		log = logging.L()
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if readLimit > 0 {
		socket.SetReadLimit(readLimit)
	}
	c := &Conn{
		id:           uuid.NewString(),
		profileID:    profileID,
		displayName:  displayName,
		matchID:      matchID,
		socket:       socket,
		send:         make(chan []byte, sendBufferSize),
		done:         make(chan struct{}),
		pingInterval: pingInterval,
	}
	c.log = log.With(
		logging.String("connection_id", c.id),
		logging.Int64("profile_id", profileID),
		logging.String("match_id", matchID),
	)
	go c.writePump()
	return c
}

// ConnectionID implements Link.
func (c *Conn) ConnectionID() string { return c.id }

// ProfileID implements Link.
func (c *Conn) ProfileID() int64 { return c.profileID }

// DisplayName implements Link.
func (c *Conn) DisplayName() string { return c.displayName }

// MatchID implements Link.
func (c *Conn) MatchID() string { return c.matchID }

// LastSequence implements Link.
func (c *Conn) LastSequence() int64 { return c.lastSequence.Load() }

// AdvanceSequence implements Link.
func (c *Conn) AdvanceSequence(seq int64) { c.lastSequence.Store(seq) }

// TouchAction records the instant of the latest dispatched action.
func (c *Conn) TouchAction(now time.Time) { c.lastActionAt.Store(now.UnixNano()) }

// LastActionAt returns the instant of the latest dispatched action, or the
// zero time if none happened yet.
func (c *Conn) LastActionAt() time.Time {
	nanos := c.lastActionAt.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}

// Send marshals and enqueues one outbound message. A full buffer means the
// peer stopped draining; the connection is shut down and the message
// dropped, never blocking the caller.
func (c *Conn) Send(env *Outbound) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return nil
	default:
	}
	select {
	case c.send <- payload:
		return nil
	default:
		c.log.Warn("send buffer overflow, dropping connection")
		c.Close(websocket.CloseGoingAway, "send buffer overflow")
		return errSendBufferFull
	}
}

// Close shuts the transport once. The close frame is written best effort
// before the socket is torn down.
func (c *Conn) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		deadline := time.Now().Add(time.Second)
		message := websocket.FormatCloseMessage(code, reason)
		_ = c.socket.WriteControl(websocket.CloseMessage, message, deadline)
		_ = c.socket.Close()
	})
}

// ReadMessage blocks for the next text frame from the peer.
func (c *Conn) ReadMessage() ([]byte, error) {
	_, payload, err := c.socket.ReadMessage()
	return payload, err
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.socket.Close()
	}()
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			if err := c.socket.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.Debug("write failed", logging.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
