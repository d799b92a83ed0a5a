package game

// State enumerates the lifecycle phases of a match.
type State int

const (
	StateWaiting State = iota
	StateInProgress
	StatePaused
	StateEnded
)

// String returns the wire spelling of the state.
func (s State) String() string {
	switch s {
	case StateWaiting:
		return "WAITING_FOR_PLAYERS"
	case StateInProgress:
		return "IN_PROGRESS"
	case StatePaused:
		return "PAUSED"
	case StateEnded:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

// Reconnectable reports whether a participant who drops in this state may
// re-establish their connection later. Both the join decision table and the
// close path consult this single predicate.
func (s State) Reconnectable() bool {
	return s == StateInProgress || s == StatePaused
}

// Suit identifies one of the four card suits.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Abbr returns the single lowercase suit letter used in card display codes.
func (s Suit) Abbr() string {
	switch s {
	case Clubs:
		return "c"
	case Diamonds:
		return "d"
	case Hearts:
		return "h"
	case Spades:
		return "s"
	default:
		return "?"
	}
}

// Card is a playing card. Rank runs 2 through 14, where 11..14 are jack,
// queen, king and ace.
type Card struct {
	Rank int
	Suit Suit
}

// ActionKind enumerates the betting actions a player may submit.
type ActionKind int

const (
	ActionFold ActionKind = iota
	ActionCheck
	ActionCall
	ActionBet
	ActionRaise
)

// String returns the wire spelling of the action kind.
func (k ActionKind) String() string {
	switch k {
	case ActionFold:
		return "FOLD"
	case ActionCheck:
		return "CHECK"
	case ActionCall:
		return "CALL"
	case ActionBet:
		return "BET"
	case ActionRaise:
		return "RAISE"
	default:
		return "UNKNOWN"
	}
}

// Action is a concrete betting decision. Amount is meaningful only for bets
// and raises.
type Action struct {
	Kind   ActionKind
	Amount int
}

// Fold returns a fold action.
func Fold() Action { return Action{Kind: ActionFold} }

// Check returns a check action.
func Check() Action { return Action{Kind: ActionCheck} }

// Call returns a call action.
func Call() Action { return Action{Kind: ActionCall} }

// Bet returns a bet of the given amount.
func Bet(amount int) Action { return Action{Kind: ActionBet, Amount: amount} }

// Raise returns a raise to the given amount.
func Raise(amount int) Action { return Action{Kind: ActionRaise, Amount: amount} }

// ActionOptions describes the legal moves for the player currently facing a
// decision, as computed by the engine.
type ActionOptions struct {
	CanFold    bool
	CanCheck   bool
	CanCall    bool
	CallAmount int
	CanBet     bool
	MinBet     int
	MaxBet     int
	CanRaise   bool
	MinRaise   int
	MaxRaise   int
}

// SeatState is one seat's view inside a state snapshot. HoleCards is
// populated by the engine only for the viewer the snapshot was built for.
type SeatState struct {
	Seat       int
	PlayerID   int64
	Name       string
	ChipCount  int
	CurrentBet int
	Folded     bool
	AllIn      bool
	HoleCards  []Card
}

// PotState is one pot inside a state snapshot.
type PotState struct {
	Amount      int
	EligibleIDs []int64
}

// Snapshot is a viewer-scoped capture of live table state, produced by the
// engine's SnapshotFor.
type Snapshot struct {
	TableID          int
	HandNumber       int
	Level            int
	SmallBlind       int
	BigBlind         int
	Ante             int
	BettingRound     string
	DealerSeat       int
	SmallBlindSeat   int
	BigBlindSeat     int
	CurrentActorSeat int
	ViewerID         int64
	CommunityCards   []Card
	Seats            []SeatState
	Pots             []PotState
}

// PrivateMessage is data addressed to exactly one participant. It never
// travels through the match broadcaster.
type PrivateMessage interface {
	privateMessage()
}

// HoleCards carries a player's own two hole cards.
type HoleCards struct {
	Cards []Card
}

// ActionPrompt asks the player to act, with the legal options and the
// engine-side timeout surfaced as data.
type ActionPrompt struct {
	Options        ActionOptions
	TimeoutSeconds int
}

func (HoleCards) privateMessage()    {}
func (ActionPrompt) privateMessage() {}
