package session

import (
	"sync"

	"cardroom/gateway/internal/game"
)

// fakeLink is an in-memory Link that records everything sent through it.
type fakeLink struct {
	mu          sync.Mutex
	id          string
	profileID   int64
	name        string
	matchID     string
	lastSeq     int64
	sent        []*Outbound
	closed      bool
	closeCode   int
	closeReason string
}

func newFakeLink(id string, profileID int64, name, matchID string) *fakeLink {
	return &fakeLink{id: id, profileID: profileID, name: name, matchID: matchID}
}

func (f *fakeLink) ConnectionID() string { return f.id }
func (f *fakeLink) ProfileID() int64     { return f.profileID }
func (f *fakeLink) DisplayName() string  { return f.name }
func (f *fakeLink) MatchID() string      { return f.matchID }

func (f *fakeLink) LastSequence() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSeq
}

func (f *fakeLink) AdvanceSequence(seq int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSeq = seq
}

func (f *fakeLink) Send(env *Outbound) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, env)
	return nil
}

func (f *fakeLink) Close(code int, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.closeCode = code
	f.closeReason = reason
}

func (f *fakeLink) messages() []*Outbound {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Outbound, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeLink) lastMessage() *Outbound {
	msgs := f.messages()
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

func (f *fakeLink) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type recordedAction struct {
	profileID int64
	action    game.Action
}

// fakeEngine is an in-memory Engine that records every call.
type fakeEngine struct {
	mu           sync.Mutex
	state        game.State
	owner        int64
	participants map[int64]bool
	seatsFull    bool
	snapshot     *game.Snapshot
	events       chan game.Event
	addErr       error
	prepareErr   error

	added       []int64
	removed     []int64
	actions     []recordedAction
	pausedBy    []int64
	resumedBy   []int64
	reconnected []int64
	resent      []int64
	prepared    bool
	started     bool
	deliveries  map[int64]func(game.PrivateMessage)
}

func newFakeEngine(state game.State, owner int64) *fakeEngine {
	return &fakeEngine{
		state:        state,
		owner:        owner,
		participants: make(map[int64]bool),
		events:       make(chan game.Event, 16),
		deliveries:   make(map[int64]func(game.PrivateMessage)),
	}
}

func (e *fakeEngine) GetState() game.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *fakeEngine) HasParticipant(profileID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.participants[profileID]
}

func (e *fakeEngine) AddParticipant(profileID int64, name string, isBot bool, seatHint int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.addErr != nil {
		return e.addErr
	}
	e.participants[profileID] = true
	e.added = append(e.added, profileID)
	return nil
}

func (e *fakeEngine) RemoveParticipant(profileID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.participants, profileID)
	e.removed = append(e.removed, profileID)
}

func (e *fakeEngine) OnPlayerAction(profileID int64, action game.Action) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.actions = append(e.actions, recordedAction{profileID: profileID, action: action})
}

func (e *fakeEngine) PauseAsUser(profileID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pausedBy = append(e.pausedBy, profileID)
}

func (e *fakeEngine) ResumeAsUser(profileID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resumedBy = append(e.resumedBy, profileID)
}

func (e *fakeEngine) ReconnectParticipant(profileID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reconnected = append(e.reconnected, profileID)
}

func (e *fakeEngine) SnapshotFor(viewerID int64) *game.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot
}

func (e *fakeEngine) ResendPendingActionIfAny(profileID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resent = append(e.resent, profileID)
}

func (e *fakeEngine) OwnerProfileID() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owner
}

func (e *fakeEngine) SeatsFilled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seatsFull
}

func (e *fakeEngine) PrepareStart() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.prepareErr != nil {
		return e.prepareErr
	}
	e.prepared = true
	return nil
}

func (e *fakeEngine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = true
	e.state = game.StateInProgress
}

func (e *fakeEngine) EventSource() <-chan game.Event {
	return e.events
}

func (e *fakeEngine) BindPrivateDelivery(profileID int64, fn func(game.PrivateMessage)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fn == nil {
		delete(e.deliveries, profileID)
		return
	}
	e.deliveries[profileID] = fn
}

func (e *fakeEngine) recordedActions() []recordedAction {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]recordedAction, len(e.actions))
	copy(out, e.actions)
	return out
}

func (e *fakeEngine) removedIDs() []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]int64, len(e.removed))
	copy(out, e.removed)
	return out
}

func (e *fakeEngine) delivery(profileID int64) func(game.PrivateMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deliveries[profileID]
}

// fakeDirectory resolves matches from a fixed map.
type fakeDirectory struct {
	engines map[string]game.Engine
}

func (d *fakeDirectory) Lookup(matchID string) (game.Engine, bool) {
	engine, ok := d.engines[matchID]
	return engine, ok
}

func directoryOf(matchID string, engine game.Engine) *fakeDirectory {
	return &fakeDirectory{engines: map[string]game.Engine{matchID: engine}}
}

// fakeBanList bans a fixed set of profiles.
type fakeBanList struct {
	banned map[int64]bool
}

func (b *fakeBanList) IsBanned(profileID int64) bool { return b.banned[profileID] }
