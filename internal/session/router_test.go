package session

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"cardroom/gateway/internal/game"
	"cardroom/gateway/internal/logging"
)

const testMatchID = "match-1"

func newTestRouter(t *testing.T, engine game.Engine, registry *Registry, opts RouterOptions) *Router {
	t.Helper()
	opts.Directory = directoryOf(testMatchID, engine)
	opts.Registry = registry
	opts.Logger = logging.NewTestLogger()
	if opts.Codec == nil {
		opts.Codec = NewCodec(func() time.Time { return time.Unix(1700000000, 0) })
	}
	return NewRouter(opts)
}

func errorCode(t *testing.T, env *Outbound) string {
	t.Helper()
	if env == nil {
		t.Fatalf("expected an outbound message, got none")
	}
	if env.Type != TypeError {
		t.Fatalf("expected ERROR envelope, got %s", env.Type)
	}
	data, ok := env.Data.(ErrorData)
	if !ok {
		t.Fatalf("unexpected error payload %T", env.Data)
	}
	return data.Code
}

func TestHandleMessageMalformedJSON(t *testing.T) {
	engine := newFakeEngine(game.StateInProgress, 1)
	router := newTestRouter(t, engine, NewRegistry(nil, logging.NewTestLogger()), RouterOptions{})
	link := newFakeLink("c1", 7, "Alice", testMatchID)

	router.HandleMessage(link, []byte("{not json"))

	if code := errorCode(t, link.lastMessage()); code != CodeParseError {
		t.Fatalf("expected %s, got %s", CodeParseError, code)
	}
}

func TestHandleMessageMissingType(t *testing.T) {
	engine := newFakeEngine(game.StateInProgress, 1)
	router := newTestRouter(t, engine, NewRegistry(nil, logging.NewTestLogger()), RouterOptions{})
	link := newFakeLink("c1", 7, "Alice", testMatchID)

	router.HandleMessage(link, []byte(`{"sequenceNumber":1,"data":{}}`))

	if code := errorCode(t, link.lastMessage()); code != CodeInvalidMsg {
		t.Fatalf("expected %s, got %s", CodeInvalidMsg, code)
	}
}

func TestHandleMessageUnknownType(t *testing.T) {
	engine := newFakeEngine(game.StateInProgress, 1)
	router := newTestRouter(t, engine, NewRegistry(nil, logging.NewTestLogger()), RouterOptions{})
	link := newFakeLink("c1", 7, "Alice", testMatchID)

	router.HandleMessage(link, []byte(`{"type":"TELEPORT","sequenceNumber":1}`))

	if code := errorCode(t, link.lastMessage()); code != CodeInvalidMsg {
		t.Fatalf("expected %s, got %s", CodeInvalidMsg, code)
	}
	if link.LastSequence() != 0 {
		t.Fatalf("unknown type must not advance the watermark, got %d", link.LastSequence())
	}
}

func TestHandleMessageUnknownMatchIsSilent(t *testing.T) {
	engine := newFakeEngine(game.StateInProgress, 1)
	router := newTestRouter(t, engine, NewRegistry(nil, logging.NewTestLogger()), RouterOptions{})
	link := newFakeLink("c1", 7, "Alice", "other-match")

	router.HandleMessage(link, []byte(`{"type":"CHAT","sequenceNumber":1,"data":{"message":"hi"}}`))

	if got := len(link.messages()); got != 0 {
		t.Fatalf("expected no replies for an unknown match, got %d", got)
	}
}

func TestHandleMessageReplayRejected(t *testing.T) {
	engine := newFakeEngine(game.StateInProgress, 1)
	registry := NewRegistry(nil, logging.NewTestLogger())
	router := newTestRouter(t, engine, registry, RouterOptions{})
	link := newFakeLink("c1", 7, "Alice", testMatchID)

	action := `{"type":"PLAYER_ACTION","sequenceNumber":5,"data":{"action":"FOLD"}}`
	router.HandleMessage(link, []byte(action))
	if got := len(engine.recordedActions()); got != 1 {
		t.Fatalf("expected first action to dispatch, got %d", got)
	}

	//1.- The identical sequence number must be rejected without touching the
	// engine or the watermark.
	router.HandleMessage(link, []byte(action))
	if code := errorCode(t, link.lastMessage()); code != CodeOutOfOrder {
		t.Fatalf("expected %s, got %s", CodeOutOfOrder, code)
	}
	if got := len(engine.recordedActions()); got != 1 {
		t.Fatalf("replay must not reach the engine, got %d actions", got)
	}
	if link.LastSequence() != 5 {
		t.Fatalf("watermark changed on replay: %d", link.LastSequence())
	}

	//2.- A lower sequence number is equally dead.
	router.HandleMessage(link, []byte(`{"type":"PLAYER_ACTION","sequenceNumber":3,"data":{"action":"FOLD"}}`))
	if code := errorCode(t, link.lastMessage()); code != CodeOutOfOrder {
		t.Fatalf("expected %s for stale sequence, got %s", CodeOutOfOrder, code)
	}
}

func TestRateLimitedChatStillAdvancesWatermark(t *testing.T) {
	engine := newFakeEngine(game.StateInProgress, 1)
	registry := NewRegistry(nil, logging.NewTestLogger())
	clock := time.Unix(1700000000, 0)
	router := newTestRouter(t, engine, registry, RouterOptions{
		ChatLimiter: NewRateLimiter(time.Second, func() time.Time { return clock }),
	})
	link := newFakeLink("c1", 7, "Alice", testMatchID)
	registry.Add(testMatchID, 7, link)

	router.HandleMessage(link, []byte(`{"type":"CHAT","sequenceNumber":1,"data":{"message":"one"}}`))
	router.HandleMessage(link, []byte(`{"type":"CHAT","sequenceNumber":2,"data":{"message":"two"}}`))

	if code := errorCode(t, link.lastMessage()); code != CodeRateLimited {
		t.Fatalf("expected %s, got %s", CodeRateLimited, code)
	}
	// The message consumed its sequence number even though it was dropped.
	if link.LastSequence() != 2 {
		t.Fatalf("expected watermark 2, got %d", link.LastSequence())
	}
}

func TestPlayerActionDispatch(t *testing.T) {
	engine := newFakeEngine(game.StateInProgress, 1)
	router := newTestRouter(t, engine, NewRegistry(nil, logging.NewTestLogger()), RouterOptions{})
	link := newFakeLink("c1", 7, "Alice", testMatchID)

	router.HandleMessage(link, []byte(`{"type":"PLAYER_ACTION","sequenceNumber":1,"data":{"action":"BET","amount":100}}`))

	actions := engine.recordedActions()
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}
	if actions[0].profileID != 7 {
		t.Fatalf("action attributed to profile %d", actions[0].profileID)
	}
	if actions[0].action.Kind != game.ActionBet || actions[0].action.Amount != 100 {
		t.Fatalf("unexpected action %+v", actions[0].action)
	}
}

func TestPlayerActionIdentityFromConnection(t *testing.T) {
	// A payload naming someone else changes nothing: the authenticated
	// connection is the only identity source.
	engine := newFakeEngine(game.StateInProgress, 1)
	router := newTestRouter(t, engine, NewRegistry(nil, logging.NewTestLogger()), RouterOptions{})
	link := newFakeLink("c1", 7, "Alice", testMatchID)

	router.HandleMessage(link, []byte(`{"type":"PLAYER_ACTION","sequenceNumber":1,"data":{"action":"CHECK","playerId":99}}`))

	actions := engine.recordedActions()
	if len(actions) != 1 || actions[0].profileID != 7 {
		t.Fatalf("expected action from profile 7, got %+v", actions)
	}
}

func TestAllInRejected(t *testing.T) {
	engine := newFakeEngine(game.StateInProgress, 1)
	router := newTestRouter(t, engine, NewRegistry(nil, logging.NewTestLogger()), RouterOptions{})
	link := newFakeLink("c1", 7, "Alice", testMatchID)

	router.HandleMessage(link, []byte(`{"type":"PLAYER_ACTION","sequenceNumber":1,"data":{"action":"ALL_IN","amount":500}}`))

	if code := errorCode(t, link.lastMessage()); code != CodeInvalidAction {
		t.Fatalf("expected %s, got %s", CodeInvalidAction, code)
	}
	if got := len(engine.recordedActions()); got != 0 {
		t.Fatalf("ALL_IN must not reach the engine, got %d actions", got)
	}
}

func TestUnknownActionRejected(t *testing.T) {
	engine := newFakeEngine(game.StateInProgress, 1)
	router := newTestRouter(t, engine, NewRegistry(nil, logging.NewTestLogger()), RouterOptions{})
	link := newFakeLink("c1", 7, "Alice", testMatchID)

	router.HandleMessage(link, []byte(`{"type":"PLAYER_ACTION","sequenceNumber":1,"data":{"action":"SPLASH"}}`))

	if code := errorCode(t, link.lastMessage()); code != CodeInvalidAction {
		t.Fatalf("expected %s, got %s", CodeInvalidAction, code)
	}
}

func TestChatSanitizedAndBroadcastToAll(t *testing.T) {
	engine := newFakeEngine(game.StateInProgress, 1)
	registry := NewRegistry(nil, logging.NewTestLogger())
	router := newTestRouter(t, engine, registry, RouterOptions{})

	sender := newFakeLink("c1", 7, "Alice", testMatchID)
	other := newFakeLink("c2", 8, "Bob", testMatchID)
	registry.Add(testMatchID, 7, sender)
	registry.Add(testMatchID, 8, other)

	router.HandleMessage(sender, []byte(`{"type":"CHAT","sequenceNumber":1,"data":{"message":"<script>alert(1)</script>Hi"}}`))

	for _, link := range []*fakeLink{sender, other} {
		env := link.lastMessage()
		if env == nil || env.Type != TypeChatMessage {
			t.Fatalf("%s: expected CHAT_MESSAGE, got %+v", link.name, env)
		}
		data := env.Data.(ChatMessageData)
		if data.Message != "Hi" {
			t.Fatalf("%s: expected sanitized message %q, got %q", link.name, "Hi", data.Message)
		}
		if data.PlayerID != 7 || data.PlayerName != "Alice" {
			t.Fatalf("%s: wrong attribution %+v", link.name, data)
		}
	}
}

func TestChatTruncatedToMaxLength(t *testing.T) {
	engine := newFakeEngine(game.StateInProgress, 1)
	registry := NewRegistry(nil, logging.NewTestLogger())
	router := newTestRouter(t, engine, registry, RouterOptions{ChatMaxLength: 10})
	link := newFakeLink("c1", 7, "Alice", testMatchID)
	registry.Add(testMatchID, 7, link)

	long := strings.Repeat("x", 50)
	router.HandleMessage(link, []byte(fmt.Sprintf(`{"type":"CHAT","sequenceNumber":1,"data":{"message":"%s"}}`, long)))

	data := link.lastMessage().Data.(ChatMessageData)
	if len(data.Message) != 10 {
		t.Fatalf("expected message truncated to 10 runes, got %d", len(data.Message))
	}
}

func TestAdminKickRunsInOrder(t *testing.T) {
	engine := newFakeEngine(game.StateInProgress, 1)
	engine.participants[1] = true
	engine.participants[8] = true
	registry := NewRegistry(nil, logging.NewTestLogger())
	router := newTestRouter(t, engine, registry, RouterOptions{})

	owner := newFakeLink("c1", 1, "Owner", testMatchID)
	target := newFakeLink("c2", 8, "Bob", testMatchID)
	registry.Add(testMatchID, 1, owner)
	registry.Add(testMatchID, 8, target)

	router.HandleMessage(owner, []byte(`{"type":"ADMIN_KICK","sequenceNumber":1,"data":{"playerId":8}}`))

	if removed := engine.removedIDs(); len(removed) != 1 || removed[0] != 8 {
		t.Fatalf("expected engine removal of profile 8, got %v", removed)
	}
	//1.- The kick notice reaches everyone, the target included, before the
	// target's socket closes.
	for _, link := range []*fakeLink{owner, target} {
		env := link.lastMessage()
		if env == nil || env.Type != TypePlayerKicked {
			t.Fatalf("%s: expected PLAYER_KICKED, got %+v", link.name, env)
		}
		data := env.Data.(PlayerKickedData)
		if data.PlayerID != 8 || data.Reason != "Kicked by owner" {
			t.Fatalf("%s: unexpected kick payload %+v", link.name, data)
		}
	}
	if !target.isClosed() {
		t.Fatalf("target connection should be closed")
	}
	if _, ok := registry.Lookup(testMatchID, 8); ok {
		t.Fatalf("target should be gone from the registry")
	}
	if owner.isClosed() {
		t.Fatalf("owner connection must stay open")
	}
}

func TestAdminKickOfflineTarget(t *testing.T) {
	// Kicking a participant with no live socket still removes them from the
	// match and notifies the room.
	engine := newFakeEngine(game.StateInProgress, 1)
	engine.participants[9] = true
	registry := NewRegistry(nil, logging.NewTestLogger())
	router := newTestRouter(t, engine, registry, RouterOptions{})
	owner := newFakeLink("c1", 1, "Owner", testMatchID)
	registry.Add(testMatchID, 1, owner)

	router.HandleMessage(owner, []byte(`{"type":"ADMIN_KICK","sequenceNumber":1,"data":{"playerId":9}}`))

	if removed := engine.removedIDs(); len(removed) != 1 || removed[0] != 9 {
		t.Fatalf("expected engine removal of profile 9, got %v", removed)
	}
	env := owner.lastMessage()
	if env == nil || env.Type != TypePlayerKicked {
		t.Fatalf("expected PLAYER_KICKED broadcast, got %+v", env)
	}
}

func TestAdminPauseForbiddenForNonOwner(t *testing.T) {
	engine := newFakeEngine(game.StateInProgress, 1)
	registry := NewRegistry(nil, logging.NewTestLogger())
	router := newTestRouter(t, engine, registry, RouterOptions{})
	link := newFakeLink("c1", 7, "Alice", testMatchID)
	registry.Add(testMatchID, 7, link)

	router.HandleMessage(link, []byte(`{"type":"ADMIN_PAUSE","sequenceNumber":1}`))

	if code := errorCode(t, link.lastMessage()); code != CodeForbidden {
		t.Fatalf("expected %s, got %s", CodeForbidden, code)
	}
	engine.mu.Lock()
	paused := len(engine.pausedBy)
	engine.mu.Unlock()
	if paused != 0 {
		t.Fatalf("non-owner pause must not reach the engine")
	}
}

func TestAdminPauseAndResumeByOwner(t *testing.T) {
	engine := newFakeEngine(game.StateInProgress, 1)
	registry := NewRegistry(nil, logging.NewTestLogger())
	router := newTestRouter(t, engine, registry, RouterOptions{})
	owner := newFakeLink("c1", 1, "Owner", testMatchID)
	registry.Add(testMatchID, 1, owner)

	router.HandleMessage(owner, []byte(`{"type":"ADMIN_PAUSE","sequenceNumber":1}`))
	if env := owner.lastMessage(); env == nil || env.Type != TypeGamePaused {
		t.Fatalf("expected GAME_PAUSED, got %+v", env)
	}

	router.HandleMessage(owner, []byte(`{"type":"ADMIN_RESUME","sequenceNumber":2}`))
	if env := owner.lastMessage(); env == nil || env.Type != TypeGameResumed {
		t.Fatalf("expected GAME_RESUMED, got %+v", env)
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()
	if len(engine.pausedBy) != 1 || len(engine.resumedBy) != 1 {
		t.Fatalf("expected one pause and one resume, got %d/%d", len(engine.pausedBy), len(engine.resumedBy))
	}
}

func TestRecognizedButIgnoredTypes(t *testing.T) {
	engine := newFakeEngine(game.StateInProgress, 1)
	router := newTestRouter(t, engine, NewRegistry(nil, logging.NewTestLogger()), RouterOptions{})
	link := newFakeLink("c1", 7, "Alice", testMatchID)

	for i, msgType := range []string{TypeRebuyDecision, TypeAddonDecision, TypeSitOut, TypeComeBack} {
		raw := fmt.Sprintf(`{"type":"%s","sequenceNumber":%d}`, msgType, i+1)
		router.HandleMessage(link, []byte(raw))
	}

	if got := len(link.messages()); got != 0 {
		t.Fatalf("ignored types must not produce replies, got %d", got)
	}
	if link.LastSequence() != 4 {
		t.Fatalf("ignored types still consume sequence numbers, watermark %d", link.LastSequence())
	}
}
