package lobby

import (
	"encoding/json"
	"net/http"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cardroom/gateway/internal/auth"
	"cardroom/gateway/internal/config"
	"cardroom/gateway/internal/game"
	"cardroom/gateway/internal/logging"
	"cardroom/gateway/internal/metrics"
	"cardroom/gateway/internal/session"
)

// Lobby message types layered on the shared outbound envelope.
const (
	TypePlayerList session.OutboundType = "LOBBY_PLAYER_LIST"
	TypeJoin       session.OutboundType = "LOBBY_JOIN"
	TypeLeave      session.OutboundType = "LOBBY_LEAVE"
	TypeChat       session.OutboundType = "LOBBY_CHAT"
)

const lobbyChannel = "lobby"

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// PlayerData is one roster row.
type PlayerData struct {
	PlayerID   int64  `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// PlayerListData is the roster snapshot sent to a newly connected member.
type PlayerListData struct {
	Players []PlayerData `json:"players"`
}

// ChatData is the lobby chat payload, both directions.
type ChatData struct {
	PlayerID   int64  `json:"playerId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
	Message    string `json:"message"`
}

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Hub runs the lobby channel: a presence roster plus rate-limited chat for
// everyone who is signed in but not seated at a match.
type Hub struct {
	upgrader websocket.Upgrader
	verifier *auth.Verifier
	bans     game.BanList
	limiter  *ChatLimiter
	metrics  *metrics.Set
	log      *logging.Logger
	now      func() time.Time

	readLimit    int64
	pingInterval time.Duration
	maxChatLen   int

	mu      sync.RWMutex
	members map[int64]*session.Conn
}

// HubOptions collects the hub's collaborators and tunables.
type HubOptions struct {
	Verifier      *auth.Verifier
	Bans          game.BanList
	Metrics       *metrics.Set
	Logger        *logging.Logger
	ChatLimit     int
	ChatWindow    time.Duration
	ChatMaxLength int
	ReadLimit     int64
	PingInterval  time.Duration
	CheckOrigin   func(origin string) bool
	TimeSource    func() time.Time
}

// NewHub assembles the lobby handler.
func NewHub(opts HubOptions) *Hub {
	log := opts.Logger
	if log == nil {
		log = logging.L()
	}
	set := opts.Metrics
	if set == nil {
		set = metrics.NewTestSet()
	}
	clock := opts.TimeSource
	if clock == nil {
		clock = time.Now
	}
	limit := opts.ChatLimit
	if limit <= 0 {
		limit = config.DefaultLobbyChatLimit
	}
	window := opts.ChatWindow
	if window <= 0 {
		window = config.DefaultLobbyChatWindow
	}
	maxChatLen := opts.ChatMaxLength
	if maxChatLen <= 0 {
		maxChatLen = config.DefaultChatMaxLength
	}
	pingInterval := opts.PingInterval
	if pingInterval <= 0 {
		pingInterval = config.DefaultPingInterval
	}
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(string) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return checkOrigin(r.Header.Get("Origin"))
			},
		},
		verifier:     opts.Verifier,
		bans:         opts.Bans,
		limiter:      NewChatLimiter(limit, window, clock),
		metrics:      set,
		log:          log,
		now:          clock,
		readLimit:    opts.ReadLimit,
		pingInterval: pingInterval,
		maxChatLen:   maxChatLen,
		members:      make(map[int64]*session.Conn),
	}
}

// HandleLobby upgrades and runs one lobby connection to completion.
func (h *Hub) HandleLobby(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("lobby upgrade failed", logging.Error(err))
		return
	}

	identity, err := h.verifier.Claims(token)
	if err != nil {
		h.reject(socket, session.CloseInvalidToken, "invalid or expired token")
		return
	}
	if h.bans != nil && h.bans.IsBanned(identity.ProfileID) {
		h.reject(socket, session.CloseBanned, "profile is banned")
		return
	}

	conn := session.NewConn(socket, identity.ProfileID, identity.DisplayName, lobbyChannel, h.readLimit, h.pingInterval, h.log)
	h.metrics.ConnectsTotal.Inc()

	previous := h.add(conn)
	if previous != nil {
		previous.Close(websocket.CloseGoingAway, "replaced by a newer connection")
	}

	//1.- The newcomer gets the full roster, everyone else gets the join.
	_ = conn.Send(h.envelope(TypePlayerList, PlayerListData{Players: h.roster()}))
	h.broadcast(h.envelope(TypeJoin, PlayerData{
		PlayerID:   identity.ProfileID,
		PlayerName: identity.DisplayName,
	}), identity.ProfileID)

	h.log.Info("lobby member joined", logging.Int64("profileId", identity.ProfileID))

	h.readLoop(conn)
	h.teardown(conn)
}

func (h *Hub) readLoop(conn *session.Conn) {
	for {
		payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inbound
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		if msg.Type != string(TypeChat) {
			continue
		}
		h.handleChat(conn, msg.Data)
	}
}

// handleChat sanitizes and fans out one chat line. Over-limit senders are
// dropped without feedback so flooding earns nothing.
func (h *Hub) handleChat(conn *session.Conn, data json.RawMessage) {
	var payload ChatData
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	message := htmlTagPattern.ReplaceAllString(payload.Message, "")
	if runes := []rune(message); len(runes) > h.maxChatLen {
		message = string(runes[:h.maxChatLen])
	}
	if message == "" {
		return
	}
	if !h.limiter.Allow(conn.ProfileID()) {
		h.metrics.RejectedMessages.WithLabelValues(session.CodeRateLimited).Inc()
		return
	}
	h.broadcast(h.envelope(TypeChat, ChatData{
		PlayerID:   conn.ProfileID(),
		PlayerName: conn.DisplayName(),
		Message:    message,
	}))
}

func (h *Hub) teardown(conn *session.Conn) {
	conn.Close(websocket.CloseNormalClosure, "")
	h.metrics.DisconnectsTotal.Inc()
	if !h.remove(conn) {
		return
	}
	h.limiter.Forget(conn.ProfileID())
	h.broadcast(h.envelope(TypeLeave, PlayerData{
		PlayerID:   conn.ProfileID(),
		PlayerName: conn.DisplayName(),
	}))
	h.log.Info("lobby member left", logging.Int64("profileId", conn.ProfileID()))
}

func (h *Hub) add(conn *session.Conn) *session.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	previous := h.members[conn.ProfileID()]
	h.members[conn.ProfileID()] = conn
	return previous
}

// remove drops the connection, but only if it still owns the slot.
func (h *Hub) remove(conn *session.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	current, ok := h.members[conn.ProfileID()]
	if !ok || current.ConnectionID() != conn.ConnectionID() {
		return false
	}
	delete(h.members, conn.ProfileID())
	return true
}

func (h *Hub) roster() []PlayerData {
	h.mu.RLock()
	defer h.mu.RUnlock()
	players := make([]PlayerData, 0, len(h.members))
	for _, member := range h.members {
		players = append(players, PlayerData{
			PlayerID:   member.ProfileID(),
			PlayerName: member.DisplayName(),
		})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].PlayerID < players[j].PlayerID })
	return players
}

func (h *Hub) broadcast(env *session.Outbound, exclude ...int64) {
	skip := make(map[int64]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	h.mu.RLock()
	targets := make([]*session.Conn, 0, len(h.members))
	for id, member := range h.members {
		if _, excluded := skip[id]; excluded {
			continue
		}
		targets = append(targets, member)
	}
	h.mu.RUnlock()
	for _, member := range targets {
		if err := member.Send(env); err != nil {
			h.metrics.SendFailures.Inc()
			h.log.Warn("lobby send failed",
				logging.Int64("profileId", member.ProfileID()), logging.Error(err))
		}
	}
}

// Count returns the number of lobby members.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

func (h *Hub) envelope(t session.OutboundType, data any) *session.Outbound {
	return &session.Outbound{Type: t, MatchID: lobbyChannel, Timestamp: h.now().UTC(), Data: data}
}

func (h *Hub) reject(socket *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	message := websocket.FormatCloseMessage(code, reason)
	_ = socket.WriteControl(websocket.CloseMessage, message, deadline)
	_ = socket.Close()
}
