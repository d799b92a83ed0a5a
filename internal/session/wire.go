package session

import (
	"encoding/json"
	"time"
)

// OutboundType enumerates every server-to-client message type.
type OutboundType string

const (
	TypeConnected           OutboundType = "CONNECTED"
	TypeGameState           OutboundType = "GAME_STATE"
	TypeHoleCardsDealt      OutboundType = "HOLE_CARDS_DEALT"
	TypeActionRequired      OutboundType = "ACTION_REQUIRED"
	TypeHandStarted         OutboundType = "HAND_STARTED"
	TypePlayerActed         OutboundType = "PLAYER_ACTED"
	TypeCommunityCardsDealt OutboundType = "COMMUNITY_CARDS_DEALT"
	TypePotAwarded          OutboundType = "POT_AWARDED"
	TypeShowdownStarted     OutboundType = "SHOWDOWN_STARTED"
	TypeLevelChanged        OutboundType = "LEVEL_CHANGED"
	TypeGameComplete        OutboundType = "GAME_COMPLETE"
	TypeGamePaused          OutboundType = "GAME_PAUSED"
	TypeGameResumed         OutboundType = "GAME_RESUMED"
	TypeChatMessage         OutboundType = "CHAT_MESSAGE"
	TypePlayerJoined        OutboundType = "PLAYER_JOINED"
	TypePlayerLeft          OutboundType = "PLAYER_LEFT"
	TypePlayerDisconnected  OutboundType = "PLAYER_DISCONNECTED"
	TypePlayerKicked        OutboundType = "PLAYER_KICKED"
	TypePlayerEliminated    OutboundType = "PLAYER_ELIMINATED"
	TypePlayerRebuy         OutboundType = "PLAYER_REBUY"
	TypePlayerAddon         OutboundType = "PLAYER_ADDON"
	TypeError               OutboundType = "ERROR"
)

// Inbound message types. The set is closed: anything else is rejected with
// INVALID_MESSAGE.
const (
	TypePlayerAction = "PLAYER_ACTION"
	TypeChat         = "CHAT"
	TypeAdminKick    = "ADMIN_KICK"
	TypeAdminPause   = "ADMIN_PAUSE"
	TypeAdminResume  = "ADMIN_RESUME"
	// Recognized but not yet dispatched anywhere; silently accepted so older
	// clients sending them do not get error spam.
	TypeRebuyDecision = "REBUY_DECISION"
	TypeAddonDecision = "ADDON_DECISION"
	TypeSitOut        = "SIT_OUT"
	TypeComeBack      = "COME_BACK"
)

// Error codes returned to the originating connection. None of them close the
// connection.
const (
	CodeParseError    = "PARSE_ERROR"
	CodeInvalidMsg    = "INVALID_MESSAGE"
	CodeOutOfOrder    = "OUT_OF_ORDER"
	CodeRateLimited   = "RATE_LIMITED"
	CodeInvalidData   = "INVALID_DATA"
	CodeInvalidAction = "INVALID_ACTION"
	CodeForbidden     = "FORBIDDEN"
)

// WebSocket close statuses for connection-fatal failures. Stable: clients
// branch on them.
const (
	CloseInvalidToken   = 4001
	CloseNotParticipant = 4003
	CloseMatchNotFound  = 4004
	CloseBanned         = 4005
)

// Outbound is the server-to-client envelope.
type Outbound struct {
	Type      OutboundType `json:"type"`
	MatchID   string       `json:"matchId"`
	Timestamp time.Time    `json:"timestamp"`
	Data      any          `json:"data,omitempty"`
}

// Inbound is the client-to-server envelope. Data stays raw until the type is
// known.
type Inbound struct {
	Type           string          `json:"type"`
	SequenceNumber int64           `json:"sequenceNumber"`
	Data           json.RawMessage `json:"data"`
}

// PlayerActionData is the payload of PLAYER_ACTION.
type PlayerActionData struct {
	Action string `json:"action"`
	Amount int    `json:"amount"`
}

// ChatData is the payload of CHAT.
type ChatData struct {
	Message   string `json:"message"`
	TableChat bool   `json:"tableChat"`
}

// AdminKickData is the payload of ADMIN_KICK.
type AdminKickData struct {
	PlayerID int64 `json:"playerId"`
}

// ConnectedData acknowledges a successful join or reconnect. GameState is
// nil until a hand is live.
type ConnectedData struct {
	ProfileID  int64          `json:"profileId"`
	MatchState string         `json:"matchState"`
	GameState  *GameStateData `json:"gameState,omitempty"`
}

// BlindsData carries the current blind structure.
type BlindsData struct {
	SmallBlind int `json:"smallBlind"`
	BigBlind   int `json:"bigBlind"`
	Ante       int `json:"ante"`
}

// SeatData is one seat in a GAME_STATE payload. HoleCards is present only on
// the viewing player's own seat; every other seat omits the field entirely.
type SeatData struct {
	Seat         int      `json:"seat"`
	PlayerID     int64    `json:"playerId"`
	PlayerName   string   `json:"playerName"`
	ChipCount    int      `json:"chipCount"`
	Status       string   `json:"status"`
	Dealer       bool     `json:"dealer"`
	SmallBlind   bool     `json:"smallBlind"`
	BigBlind     bool     `json:"bigBlind"`
	CurrentBet   int      `json:"currentBet"`
	CurrentActor bool     `json:"currentActor"`
	HoleCards    []string `json:"holeCards,omitempty"`
}

// PotData is one pot in a GAME_STATE payload.
type PotData struct {
	Amount      int     `json:"amount"`
	EligibleIDs []int64 `json:"eligiblePlayerIds"`
}

// GameStateData is the viewer-scoped table snapshot payload.
type GameStateData struct {
	TableID        int        `json:"tableId"`
	HandNumber     int        `json:"handNumber"`
	Level          int        `json:"level"`
	Blinds         BlindsData `json:"blinds"`
	BettingRound   string     `json:"bettingRound"`
	CommunityCards []string   `json:"communityCards"`
	Seats          []SeatData `json:"seats"`
	Pots           []PotData  `json:"pots"`
}

// HoleCardsData is the private HOLE_CARDS_DEALT payload.
type HoleCardsData struct {
	Cards []string `json:"cards"`
}

// ActionOptionsData mirrors the engine's legal-move summary, extended with
// the derived all-in fields.
type ActionOptionsData struct {
	CanFold     bool `json:"canFold"`
	CanCheck    bool `json:"canCheck"`
	CanCall     bool `json:"canCall"`
	CallAmount  int  `json:"callAmount"`
	CanBet      bool `json:"canBet"`
	MinBet      int  `json:"minBet"`
	MaxBet      int  `json:"maxBet"`
	CanRaise    bool `json:"canRaise"`
	MinRaise    int  `json:"minRaise"`
	MaxRaise    int  `json:"maxRaise"`
	CanAllIn    bool `json:"canAllIn"`
	AllInAmount int  `json:"allInAmount"`
}

// ActionRequiredData is the private ACTION_REQUIRED payload.
type ActionRequiredData struct {
	TimeoutSeconds int               `json:"timeoutSeconds"`
	Options        ActionOptionsData `json:"options"`
}

// HandStartedData announces a new hand.
type HandStartedData struct {
	HandNumber     int `json:"handNumber"`
	DealerSeat     int `json:"dealerSeat"`
	SmallBlindSeat int `json:"smallBlindSeat"`
	BigBlindSeat   int `json:"bigBlindSeat"`
	TableID        int `json:"tableId"`
}

// PlayerActedData reports a completed betting action.
type PlayerActedData struct {
	PlayerID   int64  `json:"playerId"`
	PlayerName string `json:"playerName"`
	Action     string `json:"action"`
	Amount     int    `json:"amount"`
	TotalBet   int    `json:"totalBet"`
	ChipCount  int    `json:"chipCount"`
	PotTotal   int    `json:"potTotal"`
	TableID    int    `json:"tableId"`
}

// CommunityCardsDealtData reports the board after a street.
type CommunityCardsDealtData struct {
	Round   string   `json:"round"`
	Cards   []string `json:"cards"`
	TableID int      `json:"tableId"`
}

// PotAwardedData reports one pot resolution.
type PotAwardedData struct {
	WinnerIDs []int64 `json:"winnerIds"`
	Amount    int     `json:"amount"`
	PotIndex  int     `json:"potIndex"`
	TableID   int     `json:"tableId"`
}

// ShowdownPlayerData is one revealed hand at showdown.
type ShowdownPlayerData struct {
	PlayerID   int64    `json:"playerId"`
	PlayerName string   `json:"playerName"`
	Cards      []string `json:"cards"`
}

// ShowdownStartedData reports the start of a showdown.
type ShowdownStartedData struct {
	TableID int                  `json:"tableId"`
	Players []ShowdownPlayerData `json:"players"`
}

// LevelChangedData reports a blind level transition.
type LevelChangedData struct {
	Level      int `json:"level"`
	SmallBlind int `json:"smallBlind"`
	BigBlind   int `json:"bigBlind"`
	Ante       int `json:"ante"`
}

// StandingData is one row of the final result.
type StandingData struct {
	Place      int    `json:"place"`
	PlayerID   int64  `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// GameCompleteData reports the end of the match.
type GameCompleteData struct {
	Standings []StandingData `json:"standings"`
}

// GamePausedData reports a pause with its origin.
type GamePausedData struct {
	Reason   string `json:"reason"`
	PausedBy string `json:"pausedBy"`
}

// GameResumedData reports a resume with its origin.
type GameResumedData struct {
	ResumedBy string `json:"resumedBy"`
}

// ChatMessageData is the broadcast chat payload.
type ChatMessageData struct {
	PlayerID   int64  `json:"playerId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
	TableChat  bool   `json:"tableChat"`
}

// PlayerJoinedData announces a participant joining or rejoining.
type PlayerJoinedData struct {
	PlayerID   int64  `json:"playerId"`
	PlayerName string `json:"playerName"`
	Seat       int    `json:"seat"`
	TableID    int    `json:"tableId"`
}

// PlayerLeftData announces a participant leaving for good.
type PlayerLeftData struct {
	PlayerID   int64  `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// PlayerDisconnectedData announces a drop that may still reconnect.
type PlayerDisconnectedData struct {
	PlayerID   int64  `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// PlayerKickedData announces an owner-initiated removal.
type PlayerKickedData struct {
	PlayerID   int64  `json:"playerId"`
	PlayerName string `json:"playerName"`
	Reason     string `json:"reason"`
}

// PlayerEliminatedData announces a bust-out.
type PlayerEliminatedData struct {
	PlayerID   int64  `json:"playerId"`
	PlayerName string `json:"playerName"`
	Place      int    `json:"place"`
	TableID    int    `json:"tableId"`
}

// PlayerRebuyData announces a rebuy purchase.
type PlayerRebuyData struct {
	PlayerID   int64  `json:"playerId"`
	PlayerName string `json:"playerName"`
	Amount     int    `json:"amount"`
}

// PlayerAddonData announces an add-on purchase.
type PlayerAddonData struct {
	PlayerID   int64  `json:"playerId"`
	PlayerName string `json:"playerName"`
	Amount     int    `json:"amount"`
}

// ErrorData is the structured, non-fatal error payload.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
