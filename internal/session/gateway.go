package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"cardroom/gateway/internal/auth"
	"cardroom/gateway/internal/config"
	"cardroom/gateway/internal/game"
	"cardroom/gateway/internal/journal"
	"cardroom/gateway/internal/logging"
	"cardroom/gateway/internal/metrics"
)

// Gateway owns the WebSocket endpoint for matches: it authenticates the
// handshake, runs the join or reconnect decision, registers the connection
// and pumps its inbound frames into the router until the socket dies.
type Gateway struct {
	upgrader  websocket.Upgrader
	verifier  *auth.Verifier
	bans      game.BanList
	directory game.Directory
	registry  *Registry
	router    *Router
	codec     *Codec
	metrics   *metrics.Set
	log       *logging.Logger

	readLimit     int64
	pingInterval  time.Duration
	actionTimeout int
	journalDir    string
	journalClock  func() time.Time

	fanouts sync.Map // matchID -> *fanout
	binds   sync.Map // bindKey -> *binder
}

// fanout is the per-match broadcast machinery: one goroutine draining the
// engine's event stream, plus the optional journal it writes to. Its lock
// orders attachment against the empty-match stop, so a connection arriving
// while the last one leaves never ends up without a broadcaster.
type fanout struct {
	mu      sync.Mutex
	running bool
	stopped bool
	cancel  context.CancelFunc
	journal *journal.Writer
}

type bindKey struct {
	matchID   string
	profileID int64
}

// binder serializes private-delivery bind and unbind for one
// (match, profile) slot and remembers which connection installed the
// current binding. A dying predecessor's teardown must not erase the
// binding its reconnecting successor just installed.
type binder struct {
	mu sync.Mutex
	// owner is the connection ID whose binding is installed; empty when
	// the slot is unbound.
	owner string
	// gone marks a binder that was unbound and detached from the map; a
	// bind racing the detach must not resurrect it.
	gone bool
}

// GatewayOptions collects the gateway's collaborators. Verifier and
// Directory are required; everything else has a working default.
type GatewayOptions struct {
	Verifier  *auth.Verifier
	Bans      game.BanList
	Directory game.Directory
	Registry  *Registry
	Router    *Router
	Codec     *Codec
	Metrics   *metrics.Set
	Logger    *logging.Logger

	ReadLimitBytes       int64
	PingInterval         time.Duration
	ActionTimeoutSeconds int
	JournalDir           string
	CheckOrigin          func(origin string) bool
	TimeSource           func() time.Time
}

// NewGateway assembles the match WebSocket handler.
func NewGateway(opts GatewayOptions) *Gateway {
	log := opts.Logger
	if log == nil {
		log = logging.L()
	}
	set := opts.Metrics
	if set == nil {
		set = metrics.NewTestSet()
	}
	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry(set, log)
	}
	codec := opts.Codec
	if codec == nil {
		codec = NewCodec(opts.TimeSource)
	}
	router := opts.Router
	if router == nil {
		router = NewRouter(RouterOptions{
			Directory: opts.Directory,
			Registry:  registry,
			Codec:     codec,
			Metrics:   set,
			Logger:    log,
		})
	}
	timeout := opts.ActionTimeoutSeconds
	if timeout <= 0 {
		timeout = config.DefaultActionTimeoutSeconds
	}
	pingInterval := opts.PingInterval
	if pingInterval <= 0 {
		pingInterval = config.DefaultPingInterval
	}
	clock := opts.TimeSource
	if clock == nil {
		clock = time.Now
	}
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(string) bool { return true }
	}
	return &Gateway{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return checkOrigin(r.Header.Get("Origin"))
			},
		},
		verifier:      opts.Verifier,
		bans:          opts.Bans,
		directory:     opts.Directory,
		registry:      registry,
		router:        router,
		codec:         codec,
		metrics:       set,
		log:           log,
		readLimit:     opts.ReadLimitBytes,
		pingInterval:  pingInterval,
		actionTimeout: timeout,
		journalDir:    opts.JournalDir,
		journalClock:  clock,
	}
}

// Register mounts the match endpoint on the given router.
func (g *Gateway) Register(r *mux.Router) {
	r.HandleFunc("/ws/matches/{matchID}", g.HandleMatch)
}

// HandleMatch upgrades the connection and runs it to completion. Rejections
// after the upgrade use application close statuses so clients can tell an
// expired token from a full table.
func (g *Gateway) HandleMatch(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchID"]
	token := r.URL.Query().Get("token")

	socket, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Debug("upgrade failed", logging.Error(err))
		return
	}

	//1.- Authenticate before anything else touches match state.
	identity, err := g.verifier.Claims(token)
	if err != nil {
		g.rejectSocket(socket, CloseInvalidToken, "invalid or expired token")
		return
	}
	if g.bans != nil && g.bans.IsBanned(identity.ProfileID) {
		g.rejectSocket(socket, CloseBanned, "profile is banned")
		return
	}

	//2.- Resolve the match and run the join-or-reconnect decision.
	engine, ok := g.directory.Lookup(matchID)
	if !ok {
		g.rejectSocket(socket, CloseMatchNotFound, "match not found")
		return
	}
	state := engine.GetState()
	known := engine.HasParticipant(identity.ProfileID)
	reconnect := false
	rejoin := false
	switch {
	case state == game.StateWaiting && known:
		// Lobby rejoin: the seat is already theirs.
		rejoin = true
	case state == game.StateWaiting:
		if err := engine.AddParticipant(identity.ProfileID, identity.DisplayName, false, 0); err != nil {
			g.rejectSocket(socket, CloseNotParticipant, err.Error())
			return
		}
	case state.Reconnectable() && known:
		reconnect = true
	default:
		g.rejectSocket(socket, CloseNotParticipant, "not a participant in this match")
		return
	}

	conn := NewConn(socket, identity.ProfileID, identity.DisplayName, matchID, g.readLimit, g.pingInterval, g.log)
	g.metrics.ConnectsTotal.Inc()

	//3.- Route private engine output through the registry so whichever
	// connection currently holds the (match, profile) slot receives it.
	g.bindPrivate(engine, matchID, identity.ProfileID, conn.ConnectionID())

	if reconnect {
		engine.ReconnectParticipant(identity.ProfileID)
	}

	//4.- Acknowledge first, then register: the client must see CONNECTED
	// before any broadcast reaches it.
	ack := g.codec.Connected(matchID, identity.ProfileID, engine.GetState(), engine.SnapshotFor(identity.ProfileID))
	if err := conn.Send(ack); err != nil {
		g.log.Warn("connected ack failed", logging.String("matchId", matchID), logging.Error(err))
	}
	if previous := g.registry.Add(matchID, identity.ProfileID, conn); previous != nil {
		previous.Close(websocket.CloseGoingAway, "replaced by a newer connection")
	}

	//5.- The fan-out goroutine must be consuming before the engine can emit.
	g.ensureFanout(matchID, engine)

	if reconnect {
		engine.ResendPendingActionIfAny(identity.ProfileID)
	}
	if reconnect || rejoin {
		g.registry.Broadcast(matchID,
			g.codec.PlayerJoined(matchID, identity.ProfileID, identity.DisplayName, 0, 0),
			identity.ProfileID)
	}

	//6.- The owner's connection triggers the automatic start once the table
	// is full.
	g.maybeAutoStart(matchID, engine, identity.ProfileID)

	g.log.Info("connection established",
		logging.String("matchId", matchID),
		logging.Int64("profileId", identity.ProfileID),
		logging.Bool("reconnect", reconnect))

	g.readLoop(conn)
	g.teardown(conn, engine)
}

// bindPrivate installs the private-delivery callback and records the
// installing connection as the binding's owner.
func (g *Gateway) bindPrivate(engine game.Engine, matchID string, profileID int64, connectionID string) {
	key := bindKey{matchID: matchID, profileID: profileID}
	for {
		value, _ := g.binds.LoadOrStore(key, &binder{})
		b := value.(*binder)
		b.mu.Lock()
		if b.gone {
			b.mu.Unlock()
			continue
		}
		engine.BindPrivateDelivery(profileID, g.privateDelivery(matchID, profileID))
		b.owner = connectionID
		b.mu.Unlock()
		return
	}
}

// unbindPrivate detaches the private-delivery callback, but only when the
// given connection still owns the binding. A teardown that lost the slot to
// a reconnect leaves the successor's binding alone.
func (g *Gateway) unbindPrivate(engine game.Engine, matchID string, profileID int64, connectionID string) {
	key := bindKey{matchID: matchID, profileID: profileID}
	value, ok := g.binds.Load(key)
	if !ok {
		return
	}
	b := value.(*binder)
	b.mu.Lock()
	if b.gone || b.owner != connectionID {
		b.mu.Unlock()
		return
	}
	engine.BindPrivateDelivery(profileID, nil)
	b.owner = ""
	b.gone = true
	b.mu.Unlock()
	g.binds.Delete(key)
}

// privateDelivery adapts engine private messages into wire envelopes
// addressed to the profile's current connection.
func (g *Gateway) privateDelivery(matchID string, profileID int64) func(game.PrivateMessage) {
	return func(pm game.PrivateMessage) {
		switch m := pm.(type) {
		case game.HoleCards:
			g.registry.SendTo(matchID, profileID, g.codec.HoleCards(matchID, m.Cards))
		case game.ActionPrompt:
			timeout := m.TimeoutSeconds
			if timeout <= 0 {
				timeout = g.actionTimeout
			}
			g.registry.SendTo(matchID, profileID, g.codec.ActionRequired(matchID, m.Options, timeout))
		}
	}
}

// maybeAutoStart launches the match when the owner is connected and every
// seat is taken. The fan-out is already attached, so the opening events
// reach everyone.
func (g *Gateway) maybeAutoStart(matchID string, engine game.Engine, profileID int64) {
	if profileID != engine.OwnerProfileID() {
		return
	}
	if engine.GetState() != game.StateWaiting || !engine.SeatsFilled() {
		return
	}
	if err := engine.PrepareStart(); err != nil {
		g.log.Warn("match start aborted", logging.String("matchId", matchID), logging.Error(err))
		return
	}
	g.log.Info("starting match", logging.String("matchId", matchID))
	engine.Start()
}

// ensureFanout attaches the broadcast goroutine for the match exactly once.
// A fanout already marked stopped is detached and replaced, so a connection
// racing the last leaver's stop still ends up with a live broadcaster.
func (g *Gateway) ensureFanout(matchID string, engine game.Engine) {
	for {
		value, _ := g.fanouts.LoadOrStore(matchID, &fanout{})
		f := value.(*fanout)
		f.mu.Lock()
		if f.stopped {
			f.mu.Unlock()
			g.fanouts.CompareAndDelete(matchID, value)
			continue
		}
		if f.running {
			f.mu.Unlock()
			return
		}
		ctx, cancel := context.WithCancel(context.Background())
		f.cancel = cancel
		if g.journalDir != "" {
			jw, err := journal.NewWriter(g.journalDir, matchID, g.journalClock)
			if err != nil {
				g.log.Warn("journal disabled for match",
					logging.String("matchId", matchID), logging.Error(err))
			} else {
				f.journal = jw
			}
		}
		f.running = true
		broadcaster := NewBroadcaster(matchID, g.registry, g.codec, f.journal, g.log)
		go broadcaster.Run(ctx, engine.EventSource())
		f.mu.Unlock()
		return
	}
}

// stopFanout detaches the match's broadcast goroutine and closes its
// journal. The registry is consulted again under the fanout's lock: when a
// new connection registered after the caller saw the match empty out, the
// fanout now belongs to it and must keep running.
func (g *Gateway) stopFanout(matchID string) {
	value, ok := g.fanouts.Load(matchID)
	if !ok {
		return
	}
	f := value.(*fanout)
	f.mu.Lock()
	if f.stopped || !f.running {
		f.mu.Unlock()
		return
	}
	if len(g.registry.Connections(matchID)) > 0 {
		f.mu.Unlock()
		return
	}
	f.stopped = true
	cancel := f.cancel
	jw := f.journal
	f.mu.Unlock()
	g.fanouts.CompareAndDelete(matchID, value)
	cancel()
	if jw != nil {
		if err := jw.Close(); err != nil {
			g.log.Warn("journal close failed", logging.String("matchId", matchID), logging.Error(err))
		}
	}
}

func (g *Gateway) readLoop(conn *Conn) {
	for {
		payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		g.router.HandleMessage(conn, payload)
	}
}

// teardown runs when a connection's read loop ends. The leave notice
// depends on the match state at the moment of the drop: a live match keeps
// the seat and announces a reconnectable disconnect, a lobby frees the seat
// for good.
func (g *Gateway) teardown(conn *Conn, engine game.Engine) {
	matchID := conn.MatchID()
	profileID := conn.ProfileID()
	conn.Close(websocket.CloseNormalClosure, "")
	g.metrics.DisconnectsTotal.Inc()

	removed, emptied := g.registry.Remove(matchID, profileID, conn)
	if !removed {
		// A reconnect already took over the slot; the successor owns the
		// binding and the leave semantics now.
		return
	}

	g.unbindPrivate(engine, matchID, profileID, conn.ConnectionID())

	state := engine.GetState()
	switch {
	case state.Reconnectable():
		g.registry.Broadcast(matchID, g.codec.PlayerDisconnected(matchID, profileID, conn.DisplayName()))
	case state == game.StateWaiting:
		// A lobby drop frees the seat for good.
		engine.RemoveParticipant(profileID)
		g.registry.Broadcast(matchID, g.codec.PlayerLeft(matchID, profileID, conn.DisplayName()))
	default:
		// Match over: the departure is permanent but the result stands, so
		// the engine keeps the record.
		g.registry.Broadcast(matchID, g.codec.PlayerLeft(matchID, profileID, conn.DisplayName()))
	}

	if emptied {
		g.stopFanout(matchID)
	}

	g.log.Info("connection closed",
		logging.String("matchId", matchID),
		logging.Int64("profileId", profileID),
		logging.String("state", state.String()))
}

// rejectSocket sends an application close status on a freshly upgraded
// socket and drops it.
func (g *Gateway) rejectSocket(socket *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	message := websocket.FormatCloseMessage(code, reason)
	_ = socket.WriteControl(websocket.CloseMessage, message, deadline)
	_ = socket.Close()
}
