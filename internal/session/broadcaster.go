package session

import (
	"context"
	"encoding/json"

	"cardroom/gateway/internal/game"
	"cardroom/gateway/internal/journal"
	"cardroom/gateway/internal/logging"
)

// Broadcaster consumes one match's event stream and fans each event out to
// the match's sockets. It implements game.EventVisitor so that every event
// variant has an explicit broadcast-or-discard decision; a variant without
// one is a compile error, not a silent drop.
//
// Only shared-knowledge events are forwarded. Private data (hole cards,
// action prompts) never passes through here; the engine delivers those
// through its per-player callbacks.
type Broadcaster struct {
	matchID  string
	registry *Registry
	codec    *Codec
	journal  *journal.Writer
	log      *logging.Logger
}

// NewBroadcaster wires a broadcaster for one match. The journal may be nil.
func NewBroadcaster(matchID string, registry *Registry, codec *Codec, jw *journal.Writer, log *logging.Logger) *Broadcaster {
	if codec == nil {
		codec = NewCodec(nil)
	}
	if log == nil {
		log = logging.L()
	}
	return &Broadcaster{
		matchID:  matchID,
		registry: registry,
		codec:    codec,
		journal:  jw,
		log:      log,
	}
}

// Run drains the event channel until it closes or the context is cancelled.
// Intended to run on its own goroutine, one per live match.
func (b *Broadcaster) Run(ctx context.Context, events <-chan game.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			event.Accept(b)
		}
	}
}

// broadcast fans one envelope out to every socket in the match and records
// it in the journal. Per-socket send failures are handled inside the
// registry; a journal failure is logged and otherwise ignored so delivery
// never depends on disk.
func (b *Broadcaster) broadcast(env *Outbound) {
	b.registry.Broadcast(b.matchID, env)
	if b.journal != nil {
		payload, err := json.Marshal(env)
		if err == nil {
			err = b.journal.Record(string(env.Type), payload)
		}
		if err != nil {
			b.log.Warn("journal record failed",
				logging.String("matchId", b.matchID),
				logging.String("type", string(env.Type)),
				logging.Error(err))
		}
	}
}

func (b *Broadcaster) VisitHandStarted(e game.HandStarted) {
	b.broadcast(b.codec.HandStarted(b.matchID, e))
}

func (b *Broadcaster) VisitPlayerActed(e game.PlayerActed) {
	b.broadcast(b.codec.PlayerActed(b.matchID, e))
}

func (b *Broadcaster) VisitCommunityCardsDealt(e game.CommunityCardsDealt) {
	b.broadcast(b.codec.CommunityCardsDealt(b.matchID, e))
}

func (b *Broadcaster) VisitPotAwarded(e game.PotAwarded) {
	b.broadcast(b.codec.PotAwarded(b.matchID, e))
}

func (b *Broadcaster) VisitShowdownStarted(e game.ShowdownStarted) {
	b.broadcast(b.codec.ShowdownStarted(b.matchID, e))
}

func (b *Broadcaster) VisitLevelChanged(e game.LevelChanged) {
	b.broadcast(b.codec.LevelChanged(b.matchID, e))
}

func (b *Broadcaster) VisitMatchCompleted(e game.MatchCompleted) {
	b.broadcast(b.codec.GameComplete(b.matchID, e))
}

func (b *Broadcaster) VisitBreakStarted(e game.BreakStarted) {
	b.broadcast(b.codec.GamePaused(b.matchID, "Scheduled break", "system"))
}

func (b *Broadcaster) VisitBreakEnded(e game.BreakEnded) {
	b.broadcast(b.codec.GameResumed(b.matchID, "system"))
}

func (b *Broadcaster) VisitPlayerAdded(e game.PlayerAdded) {
	b.broadcast(b.codec.PlayerJoined(b.matchID, e.PlayerID, e.Name, e.Seat, e.TableID))
}

func (b *Broadcaster) VisitPlayerRemoved(e game.PlayerRemoved) {
	b.broadcast(b.codec.PlayerLeft(b.matchID, e.PlayerID, e.Name))
}

func (b *Broadcaster) VisitPlayerRebuy(e game.PlayerRebuy) {
	b.broadcast(b.codec.PlayerRebuy(b.matchID, e))
}

func (b *Broadcaster) VisitPlayerAddon(e game.PlayerAddon) {
	b.broadcast(b.codec.PlayerAddon(b.matchID, e))
}

func (b *Broadcaster) VisitPlayerEliminated(e game.PlayerEliminated) {
	b.broadcast(b.codec.PlayerEliminated(b.matchID, e))
}

// The variants below are internal engine bookkeeping. Clients learn the
// same facts through other messages, so each is discarded on purpose.

func (b *Broadcaster) VisitButtonMoved(game.ButtonMoved) {}

func (b *Broadcaster) VisitTableStateChanged(game.TableStateChanged) {}

func (b *Broadcaster) VisitCurrentPlayerChanged(game.CurrentPlayerChanged) {}

func (b *Broadcaster) VisitObserverAdded(game.ObserverAdded) {}

func (b *Broadcaster) VisitObserverRemoved(game.ObserverRemoved) {}

func (b *Broadcaster) VisitCleanupDone(game.CleanupDone) {}
