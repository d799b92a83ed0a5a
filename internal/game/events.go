package game

// Event is the closed set of notifications the engine emits while a match
// runs. Every variant carries its own data and dispatches through
// EventVisitor, so a consumer that forgets to decide what to do with a new
// variant stops compiling instead of silently dropping it.
type Event interface {
	Accept(v EventVisitor)
}

// EventVisitor receives exactly one callback per event variant. Adding a
// variant means adding a method here, which forces every consumer to make an
// explicit broadcast-or-discard decision.
type EventVisitor interface {
	VisitHandStarted(HandStarted)
	VisitPlayerActed(PlayerActed)
	VisitCommunityCardsDealt(CommunityCardsDealt)
	VisitPotAwarded(PotAwarded)
	VisitShowdownStarted(ShowdownStarted)
	VisitLevelChanged(LevelChanged)
	VisitMatchCompleted(MatchCompleted)
	VisitBreakStarted(BreakStarted)
	VisitBreakEnded(BreakEnded)
	VisitPlayerAdded(PlayerAdded)
	VisitPlayerRemoved(PlayerRemoved)
	VisitPlayerRebuy(PlayerRebuy)
	VisitPlayerAddon(PlayerAddon)
	VisitPlayerEliminated(PlayerEliminated)
	VisitButtonMoved(ButtonMoved)
	VisitTableStateChanged(TableStateChanged)
	VisitCurrentPlayerChanged(CurrentPlayerChanged)
	VisitObserverAdded(ObserverAdded)
	VisitObserverRemoved(ObserverRemoved)
	VisitCleanupDone(CleanupDone)
}

// HandStarted announces a new hand with the button and blind positions.
type HandStarted struct {
	TableID        int
	HandNumber     int
	DealerSeat     int
	SmallBlindSeat int
	BigBlindSeat   int
}

// PlayerActed reports a completed betting action together with the resulting
// bet, stack and pot figures.
type PlayerActed struct {
	TableID    int
	PlayerID   int64
	PlayerName string
	Action     ActionKind
	Amount     int
	TotalBet   int
	ChipCount  int
	PotTotal   int
}

// CommunityCardsDealt reports the full community board after a street is
// dealt.
type CommunityCardsDealt struct {
	TableID int
	Round   string
	Cards   []Card
}

// PotAwarded reports one pot being pushed to its winners.
type PotAwarded struct {
	TableID   int
	PotIndex  int
	WinnerIDs []int64
	Amount    int
}

// ShowdownSeat pairs a player with the cards they reveal at showdown.
type ShowdownSeat struct {
	PlayerID int64
	Name     string
	Cards    []Card
}

// ShowdownStarted reports the start of a showdown and the revealed hands.
type ShowdownStarted struct {
	TableID int
	Players []ShowdownSeat
}

// LevelChanged reports a blind level transition.
type LevelChanged struct {
	Level      int
	SmallBlind int
	BigBlind   int
	Ante       int
}

// Standing is one row of the final tournament result.
type Standing struct {
	Place    int
	PlayerID int64
	Name     string
}

// MatchCompleted reports the end of the match with final standings.
type MatchCompleted struct {
	Standings []Standing
}

// BreakStarted reports the start of a scheduled break.
type BreakStarted struct {
	TableID int
}

// BreakEnded reports the end of a scheduled break.
type BreakEnded struct {
	TableID int
}

// PlayerAdded reports a participant being seated.
type PlayerAdded struct {
	TableID  int
	PlayerID int64
	Name     string
	Seat     int
}

// PlayerRemoved reports a participant leaving their seat.
type PlayerRemoved struct {
	TableID  int
	PlayerID int64
	Name     string
}

// PlayerRebuy reports a rebuy purchase.
type PlayerRebuy struct {
	PlayerID int64
	Name     string
	Amount   int
}

// PlayerAddon reports an add-on purchase.
type PlayerAddon struct {
	PlayerID int64
	Name     string
	Amount   int
}

// PlayerEliminated reports a bust-out and the finishing position.
type PlayerEliminated struct {
	TableID  int
	PlayerID int64
	Name     string
	Place    int
}

// ButtonMoved is internal button bookkeeping; clients never see it.
type ButtonMoved struct {
	TableID int
	Seat    int
}

// TableStateChanged is an internal table lifecycle transition.
type TableStateChanged struct {
	TableID int
}

// CurrentPlayerChanged is internal turn bookkeeping; the acting player is
// prompted privately instead.
type CurrentPlayerChanged struct {
	TableID  int
	PlayerID int64
}

// ObserverAdded is internal observer bookkeeping.
type ObserverAdded struct {
	TableID    int
	ObserverID int64
}

// ObserverRemoved is internal observer bookkeeping.
type ObserverRemoved struct {
	TableID    int
	ObserverID int64
}

// CleanupDone signals post-hand cleanup completion inside the engine.
type CleanupDone struct {
	TableID int
}

func (e HandStarted) Accept(v EventVisitor)          { v.VisitHandStarted(e) }
func (e PlayerActed) Accept(v EventVisitor)          { v.VisitPlayerActed(e) }
func (e CommunityCardsDealt) Accept(v EventVisitor)  { v.VisitCommunityCardsDealt(e) }
func (e PotAwarded) Accept(v EventVisitor)           { v.VisitPotAwarded(e) }
func (e ShowdownStarted) Accept(v EventVisitor)      { v.VisitShowdownStarted(e) }
func (e LevelChanged) Accept(v EventVisitor)         { v.VisitLevelChanged(e) }
func (e MatchCompleted) Accept(v EventVisitor)       { v.VisitMatchCompleted(e) }
func (e BreakStarted) Accept(v EventVisitor)         { v.VisitBreakStarted(e) }
func (e BreakEnded) Accept(v EventVisitor)           { v.VisitBreakEnded(e) }
func (e PlayerAdded) Accept(v EventVisitor)          { v.VisitPlayerAdded(e) }
func (e PlayerRemoved) Accept(v EventVisitor)        { v.VisitPlayerRemoved(e) }
func (e PlayerRebuy) Accept(v EventVisitor)          { v.VisitPlayerRebuy(e) }
func (e PlayerAddon) Accept(v EventVisitor)          { v.VisitPlayerAddon(e) }
func (e PlayerEliminated) Accept(v EventVisitor)     { v.VisitPlayerEliminated(e) }
func (e ButtonMoved) Accept(v EventVisitor)          { v.VisitButtonMoved(e) }
func (e TableStateChanged) Accept(v EventVisitor)    { v.VisitTableStateChanged(e) }
func (e CurrentPlayerChanged) Accept(v EventVisitor) { v.VisitCurrentPlayerChanged(e) }
func (e ObserverAdded) Accept(v EventVisitor)        { v.VisitObserverAdded(e) }
func (e ObserverRemoved) Accept(v EventVisitor)      { v.VisitObserverRemoved(e) }
func (e CleanupDone) Accept(v EventVisitor)          { v.VisitCleanupDone(e) }
