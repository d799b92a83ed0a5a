package session

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"cardroom/gateway/internal/game"
	"cardroom/gateway/internal/logging"
	"cardroom/gateway/internal/metrics"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// Router validates and dispatches inbound client messages. Player identity
// for every dispatch comes from the authenticated connection, never from
// message contents.
type Router struct {
	directory game.Directory
	registry  *Registry
	actions   *RateLimiter
	chat      *RateLimiter
	codec     *Codec
	metrics   *metrics.Set
	log       *logging.Logger

	chatMaxLength int
	now           func() time.Time
}

// RouterOptions configures a Router.
type RouterOptions struct {
	Directory     game.Directory
	Registry      *Registry
	ActionLimiter *RateLimiter
	ChatLimiter   *RateLimiter
	Codec         *Codec
	Metrics       *metrics.Set
	Logger        *logging.Logger
	ChatMaxLength int
	TimeSource    func() time.Time
}

// NewRouter constructs a router from its collaborators.
func NewRouter(opts RouterOptions) *Router {
	log := opts.Logger
	if log == nil {
		log = logging.L()
	}
	set := opts.Metrics
	if set == nil {
		set = metrics.NewTestSet()
	}
	codec := opts.Codec
	if codec == nil {
		codec = NewCodec(nil)
	}
	chatMax := opts.ChatMaxLength
	if chatMax <= 0 {
		chatMax = 500
	}
	now := opts.TimeSource
	if now == nil {
		now = time.Now
	}
	return &Router{
		directory:     opts.Directory,
		registry:      opts.Registry,
		actions:       opts.ActionLimiter,
		chat:          opts.ChatLimiter,
		codec:         codec,
		metrics:       set,
		log:           log,
		chatMaxLength: chatMax,
		now:           now,
	}
}

// HandleMessage runs one raw client frame through the validation pipeline:
// parse, type resolution, anti-replay, rate limiting, dispatch. Validation
// failures are reported to the sender and never close the connection.
func (r *Router) HandleMessage(link Link, raw []byte) {
	matchID := link.MatchID()
	engine, ok := r.directory.Lookup(matchID)
	if !ok {
		return
	}

	var envelope Inbound
	if err := json.Unmarshal(raw, &envelope); err != nil {
		r.sendError(link, CodeParseError, "Malformed JSON")
		return
	}

	if strings.TrimSpace(envelope.Type) == "" {
		r.sendError(link, CodeInvalidMsg, "Missing message type")
		return
	}
	if !knownInboundType(envelope.Type) {
		r.sendError(link, CodeInvalidMsg, "Unknown message type: "+envelope.Type)
		return
	}

	// Application-level ordering: the sequence number must beat the
	// watermark even though the transport never reorders frames. A replay
	// leaves the watermark unchanged and produces no engine call.
	if envelope.SequenceNumber <= link.LastSequence() {
		r.log.Debug("out of order message",
			logging.Int64("sequence", envelope.SequenceNumber),
			logging.Int64("watermark", link.LastSequence()),
			logging.String("type", envelope.Type))
		r.sendError(link, CodeOutOfOrder, "Sequence number must be greater than last received")
		return
	}
	link.AdvanceSequence(envelope.SequenceNumber)

	switch envelope.Type {
	case TypeChat:
		if !r.chat.Allow(link.ProfileID(), matchID) {
			r.sendError(link, CodeRateLimited, "Chat rate limit exceeded")
			return
		}
	case TypePlayerAction:
		if !r.actions.Allow(link.ProfileID(), matchID) {
			r.sendError(link, CodeRateLimited, "Action rate limit exceeded")
			return
		}
	}

	switch envelope.Type {
	case TypePlayerAction:
		r.handlePlayerAction(link, engine, envelope.Data)
	case TypeChat:
		r.handleChat(link, envelope.Data)
	case TypeAdminKick:
		r.handleAdminKick(link, engine, envelope.Data)
	case TypeAdminPause:
		r.handleAdminPause(link, engine)
	case TypeAdminResume:
		r.handleAdminResume(link, engine)
	case TypeRebuyDecision, TypeAddonDecision, TypeSitOut, TypeComeBack:
		// Accepted and dropped until the engine grows these features.
	}
}

func knownInboundType(t string) bool {
	switch t {
	case TypePlayerAction, TypeChat, TypeAdminKick, TypeAdminPause, TypeAdminResume,
		TypeRebuyDecision, TypeAddonDecision, TypeSitOut, TypeComeBack:
		return true
	default:
		return false
	}
}

func (r *Router) handlePlayerAction(link Link, engine game.Engine, data json.RawMessage) {
	var payload PlayerActionData
	if err := json.Unmarshal(data, &payload); err != nil || payload.Action == "" {
		r.sendError(link, CodeInvalidData, "Invalid player action data")
		return
	}

	action, err := parseAction(payload.Action, payload.Amount)
	if err != nil {
		r.sendError(link, CodeInvalidAction, err.Error())
		return
	}

	r.log.Debug("dispatching action",
		logging.Int64("profile_id", link.ProfileID()),
		logging.String("action", action.Kind.String()))
	engine.OnPlayerAction(link.ProfileID(), action)
	if conn, ok := link.(*Conn); ok {
		conn.TouchAction(r.now())
	}
	// Clear the pair's limiter entry after a valid dispatch so the next
	// turn is not throttled by the interval meant only to block rapid
	// resubmission of this one. Fast-advancing matches (bot opponents,
	// practice mode) would otherwise hit RATE_LIMITED on the very next
	// prompt.
	r.actions.Forget(link.ProfileID(), link.MatchID())
}

// parseAction decodes an action name and amount into a domain action. All-in
// is never a wire action: clients express it as a bet or raise for the full
// remaining stack.
func parseAction(name string, amount int) (game.Action, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "FOLD":
		return game.Fold(), nil
	case "CHECK":
		return game.Check(), nil
	case "CALL":
		return game.Call(), nil
	case "BET":
		return game.Bet(amount), nil
	case "RAISE":
		return game.Raise(amount), nil
	case "ALL_IN":
		return game.Action{}, fmt.Errorf("ALL_IN is not an action; send BET or RAISE for the full stack")
	default:
		return game.Action{}, fmt.Errorf("Unknown action: %s", name)
	}
}

func (r *Router) handleChat(link Link, data json.RawMessage) {
	var payload ChatData
	if err := json.Unmarshal(data, &payload); err != nil {
		r.sendError(link, CodeInvalidData, "Invalid chat data")
		return
	}
	message := r.sanitizeChat(payload.Message)
	chat := r.codec.Chat(link.MatchID(), link.ProfileID(), link.DisplayName(), message, payload.TableChat)
	// Chat goes to everyone, the sender included.
	r.registry.Broadcast(link.MatchID(), chat)
}

func (r *Router) sanitizeChat(message string) string {
	sanitized := htmlTagPattern.ReplaceAllString(message, "")
	if runes := []rune(sanitized); len(runes) > r.chatMaxLength {
		sanitized = string(runes[:r.chatMaxLength])
	}
	return sanitized
}

func (r *Router) handleAdminKick(link Link, engine game.Engine, data json.RawMessage) {
	// Authorization is solely the connection's own identity against the
	// match owner; nothing inside the payload is trusted for it.
	if link.ProfileID() != engine.OwnerProfileID() {
		r.sendError(link, CodeForbidden, "Only the match owner can kick players")
		return
	}

	var payload AdminKickData
	if err := json.Unmarshal(data, &payload); err != nil || payload.PlayerID == 0 {
		r.sendError(link, CodeInvalidData, "Invalid admin kick data")
		return
	}

	matchID := link.MatchID()
	targetName := ""
	var target Link
	for _, candidate := range r.registry.Connections(matchID) {
		if candidate.ProfileID() == payload.PlayerID {
			targetName = candidate.DisplayName()
			target = candidate
			break
		}
	}

	// Remove from the engine, broadcast, then close the transport, in that
	// order: the state change is observable to everyone before the socket
	// disappears.
	engine.RemoveParticipant(payload.PlayerID)

	kicked := r.codec.PlayerKicked(matchID, payload.PlayerID, targetName, "Kicked by owner")
	r.registry.Broadcast(matchID, kicked)

	if target != nil {
		r.registry.Remove(matchID, payload.PlayerID, target)
		target.Close(websocket.CloseNormalClosure, "kicked")
	}
}

func (r *Router) handleAdminPause(link Link, engine game.Engine) {
	if link.ProfileID() != engine.OwnerProfileID() {
		r.sendError(link, CodeForbidden, "Only the match owner can pause the game")
		return
	}
	engine.PauseAsUser(link.ProfileID())
	paused := r.codec.GamePaused(link.MatchID(), "Owner paused", link.DisplayName())
	r.registry.Broadcast(link.MatchID(), paused)
}

func (r *Router) handleAdminResume(link Link, engine game.Engine) {
	if link.ProfileID() != engine.OwnerProfileID() {
		r.sendError(link, CodeForbidden, "Only the match owner can resume the game")
		return
	}
	engine.ResumeAsUser(link.ProfileID())
	resumed := r.codec.GameResumed(link.MatchID(), link.DisplayName())
	r.registry.Broadcast(link.MatchID(), resumed)
}

func (r *Router) sendError(link Link, code, message string) {
	r.metrics.RejectedMessages.WithLabelValues(code).Inc()
	if err := link.Send(r.codec.Error(link.MatchID(), code, message)); err != nil {
		r.log.Debug("error reply dropped", logging.String("code", code), logging.Error(err))
	}
}
