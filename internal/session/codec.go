package session

import (
	"time"

	"cardroom/gateway/internal/game"
)

// rankCodes maps rank 2..14 to the single display character used on the
// wire. A ten is "T", never "10", so the code round-trips through the same
// two-character decoder used elsewhere in the system.
var rankCodes = map[int]string{
	2: "2", 3: "3", 4: "4", 5: "5", 6: "6", 7: "7", 8: "8", 9: "9",
	10: "T", 11: "J", 12: "Q", 13: "K", 14: "A",
}

// CardCode renders a card as its two-character display code, rank character
// then suit character, e.g. "Ah" or "Ts".
func CardCode(card game.Card) string {
	rank, ok := rankCodes[card.Rank]
	if !ok {
		rank = "?"
	}
	return rank + card.Suit.Abbr()
}

// CardCodes renders a card slice; a nil or empty input yields an empty
// slice, never nil, so the field always serializes as a JSON array.
func CardCodes(cards []game.Card) []string {
	codes := make([]string, 0, len(cards))
	for _, card := range cards {
		codes = append(codes, CardCode(card))
	}
	return codes
}

// Codec builds outbound envelopes from domain values. All conversions are
// pure except for the envelope timestamp, which comes from the injected
// clock.
type Codec struct {
	now func() time.Time
}

// NewCodec constructs a codec. A nil clock falls back to time.Now.
func NewCodec(clock func() time.Time) *Codec {
	if clock == nil {
		clock = time.Now
	}
	return &Codec{now: clock}
}

func (c *Codec) envelope(t OutboundType, matchID string, data any) *Outbound {
	return &Outbound{Type: t, MatchID: matchID, Timestamp: c.now().UTC(), Data: data}
}

// EncodeOptions converts the engine's legal-move summary, deriving the
// all-in fields: all-in is legal whenever betting or raising is, and the
// all-in amount is the bet ceiling when betting is legal, otherwise the
// raise ceiling (both equal the player's remaining stack in no-limit).
func EncodeOptions(options game.ActionOptions) ActionOptionsData {
	canAllIn := options.CanBet || options.CanRaise
	allInAmount := options.MaxRaise
	if options.CanBet {
		allInAmount = options.MaxBet
	}
	return ActionOptionsData{
		CanFold:     options.CanFold,
		CanCheck:    options.CanCheck,
		CanCall:     options.CanCall,
		CallAmount:  options.CallAmount,
		CanBet:      options.CanBet,
		MinBet:      options.MinBet,
		MaxBet:      options.MaxBet,
		CanRaise:    options.CanRaise,
		MinRaise:    options.MinRaise,
		MaxRaise:    options.MaxRaise,
		CanAllIn:    canAllIn,
		AllInAmount: allInAmount,
	}
}

// EncodeSnapshot converts a viewer-scoped snapshot into the wire payload.
// Hole cards are attached only to the viewer's own seat; every other seat's
// cards are omitted from the payload, not blanked.
func EncodeSnapshot(snapshot *game.Snapshot) *GameStateData {
	if snapshot == nil {
		return nil
	}
	seats := make([]SeatData, 0, len(snapshot.Seats))
	for _, seat := range snapshot.Seats {
		status := "ACTIVE"
		switch {
		case seat.Folded:
			status = "FOLDED"
		case seat.AllIn:
			status = "ALL_IN"
		}
		entry := SeatData{
			Seat:         seat.Seat,
			PlayerID:     seat.PlayerID,
			PlayerName:   seat.Name,
			ChipCount:    seat.ChipCount,
			Status:       status,
			Dealer:       seat.Seat == snapshot.DealerSeat,
			SmallBlind:   seat.Seat == snapshot.SmallBlindSeat,
			BigBlind:     seat.Seat == snapshot.BigBlindSeat,
			CurrentBet:   seat.CurrentBet,
			CurrentActor: seat.Seat == snapshot.CurrentActorSeat,
		}
		if seat.PlayerID == snapshot.ViewerID && len(seat.HoleCards) > 0 {
			entry.HoleCards = CardCodes(seat.HoleCards)
		}
		seats = append(seats, entry)
	}
	pots := make([]PotData, 0, len(snapshot.Pots))
	for _, pot := range snapshot.Pots {
		pots = append(pots, PotData{Amount: pot.Amount, EligibleIDs: pot.EligibleIDs})
	}
	round := snapshot.BettingRound
	if round == "" {
		round = "PRE_FLOP"
	}
	return &GameStateData{
		TableID:        snapshot.TableID,
		HandNumber:     snapshot.HandNumber,
		Level:          snapshot.Level,
		Blinds:         BlindsData{SmallBlind: snapshot.SmallBlind, BigBlind: snapshot.BigBlind, Ante: snapshot.Ante},
		BettingRound:   round,
		CommunityCards: CardCodes(snapshot.CommunityCards),
		Seats:          seats,
		Pots:           pots,
	}
}

// Connected builds the join/reconnect acknowledgment.
func (c *Codec) Connected(matchID string, profileID int64, state game.State, snapshot *game.Snapshot) *Outbound {
	return c.envelope(TypeConnected, matchID, ConnectedData{
		ProfileID:  profileID,
		MatchState: state.String(),
		GameState:  EncodeSnapshot(snapshot),
	})
}

// GameState builds a standalone state snapshot message.
func (c *Codec) GameState(matchID string, snapshot *game.Snapshot) *Outbound {
	return c.envelope(TypeGameState, matchID, EncodeSnapshot(snapshot))
}

// HoleCards builds the private hole-card message.
func (c *Codec) HoleCards(matchID string, cards []game.Card) *Outbound {
	return c.envelope(TypeHoleCardsDealt, matchID, HoleCardsData{Cards: CardCodes(cards)})
}

// ActionRequired builds the private action prompt.
func (c *Codec) ActionRequired(matchID string, options game.ActionOptions, timeoutSeconds int) *Outbound {
	return c.envelope(TypeActionRequired, matchID, ActionRequiredData{
		TimeoutSeconds: timeoutSeconds,
		Options:        EncodeOptions(options),
	})
}

// Error builds a structured error reply.
func (c *Codec) Error(matchID, code, message string) *Outbound {
	return c.envelope(TypeError, matchID, ErrorData{Code: code, Message: message})
}

// Chat builds a broadcast chat message.
func (c *Codec) Chat(matchID string, profileID int64, name, message string, tableChat bool) *Outbound {
	return c.envelope(TypeChatMessage, matchID, ChatMessageData{
		PlayerID:   profileID,
		PlayerName: name,
		Message:    message,
		TableChat:  tableChat,
	})
}

// PlayerJoined builds the join notice.
func (c *Codec) PlayerJoined(matchID string, profileID int64, name string, seat, tableID int) *Outbound {
	return c.envelope(TypePlayerJoined, matchID, PlayerJoinedData{
		PlayerID:   profileID,
		PlayerName: name,
		Seat:       seat,
		TableID:    tableID,
	})
}

// PlayerLeft builds the permanent-leave notice.
func (c *Codec) PlayerLeft(matchID string, profileID int64, name string) *Outbound {
	return c.envelope(TypePlayerLeft, matchID, PlayerLeftData{PlayerID: profileID, PlayerName: name})
}

// PlayerDisconnected builds the reconnectable-drop notice.
func (c *Codec) PlayerDisconnected(matchID string, profileID int64, name string) *Outbound {
	return c.envelope(TypePlayerDisconnected, matchID, PlayerDisconnectedData{PlayerID: profileID, PlayerName: name})
}

// PlayerKicked builds the kick notice.
func (c *Codec) PlayerKicked(matchID string, profileID int64, name, reason string) *Outbound {
	return c.envelope(TypePlayerKicked, matchID, PlayerKickedData{
		PlayerID:   profileID,
		PlayerName: name,
		Reason:     reason,
	})
}

// GamePaused builds the pause notice.
func (c *Codec) GamePaused(matchID, reason, pausedBy string) *Outbound {
	return c.envelope(TypeGamePaused, matchID, GamePausedData{Reason: reason, PausedBy: pausedBy})
}

// GameResumed builds the resume notice.
func (c *Codec) GameResumed(matchID, resumedBy string) *Outbound {
	return c.envelope(TypeGameResumed, matchID, GameResumedData{ResumedBy: resumedBy})
}

// HandStarted builds the new-hand broadcast.
func (c *Codec) HandStarted(matchID string, e game.HandStarted) *Outbound {
	return c.envelope(TypeHandStarted, matchID, HandStartedData{
		HandNumber:     e.HandNumber,
		DealerSeat:     e.DealerSeat,
		SmallBlindSeat: e.SmallBlindSeat,
		BigBlindSeat:   e.BigBlindSeat,
		TableID:        e.TableID,
	})
}

// PlayerActed builds the action broadcast.
func (c *Codec) PlayerActed(matchID string, e game.PlayerActed) *Outbound {
	return c.envelope(TypePlayerActed, matchID, PlayerActedData{
		PlayerID:   e.PlayerID,
		PlayerName: e.PlayerName,
		Action:     e.Action.String(),
		Amount:     e.Amount,
		TotalBet:   e.TotalBet,
		ChipCount:  e.ChipCount,
		PotTotal:   e.PotTotal,
		TableID:    e.TableID,
	})
}

// CommunityCardsDealt builds the street broadcast.
func (c *Codec) CommunityCardsDealt(matchID string, e game.CommunityCardsDealt) *Outbound {
	return c.envelope(TypeCommunityCardsDealt, matchID, CommunityCardsDealtData{
		Round:   e.Round,
		Cards:   CardCodes(e.Cards),
		TableID: e.TableID,
	})
}

// PotAwarded builds the pot resolution broadcast.
func (c *Codec) PotAwarded(matchID string, e game.PotAwarded) *Outbound {
	return c.envelope(TypePotAwarded, matchID, PotAwardedData{
		WinnerIDs: e.WinnerIDs,
		Amount:    e.Amount,
		PotIndex:  e.PotIndex,
		TableID:   e.TableID,
	})
}

// ShowdownStarted builds the showdown broadcast.
func (c *Codec) ShowdownStarted(matchID string, e game.ShowdownStarted) *Outbound {
	players := make([]ShowdownPlayerData, 0, len(e.Players))
	for _, p := range e.Players {
		players = append(players, ShowdownPlayerData{
			PlayerID:   p.PlayerID,
			PlayerName: p.Name,
			Cards:      CardCodes(p.Cards),
		})
	}
	return c.envelope(TypeShowdownStarted, matchID, ShowdownStartedData{TableID: e.TableID, Players: players})
}

// LevelChanged builds the level transition broadcast.
func (c *Codec) LevelChanged(matchID string, e game.LevelChanged) *Outbound {
	return c.envelope(TypeLevelChanged, matchID, LevelChangedData{
		Level:      e.Level,
		SmallBlind: e.SmallBlind,
		BigBlind:   e.BigBlind,
		Ante:       e.Ante,
	})
}

// GameComplete builds the final-result broadcast.
func (c *Codec) GameComplete(matchID string, e game.MatchCompleted) *Outbound {
	standings := make([]StandingData, 0, len(e.Standings))
	for _, s := range e.Standings {
		standings = append(standings, StandingData{Place: s.Place, PlayerID: s.PlayerID, PlayerName: s.Name})
	}
	return c.envelope(TypeGameComplete, matchID, GameCompleteData{Standings: standings})
}

// PlayerEliminated builds the bust-out broadcast.
func (c *Codec) PlayerEliminated(matchID string, e game.PlayerEliminated) *Outbound {
	return c.envelope(TypePlayerEliminated, matchID, PlayerEliminatedData{
		PlayerID:   e.PlayerID,
		PlayerName: e.Name,
		Place:      e.Place,
		TableID:    e.TableID,
	})
}

// PlayerRebuy builds the rebuy broadcast.
func (c *Codec) PlayerRebuy(matchID string, e game.PlayerRebuy) *Outbound {
	return c.envelope(TypePlayerRebuy, matchID, PlayerRebuyData{
		PlayerID:   e.PlayerID,
		PlayerName: e.Name,
		Amount:     e.Amount,
	})
}

// PlayerAddon builds the add-on broadcast.
func (c *Codec) PlayerAddon(matchID string, e game.PlayerAddon) *Outbound {
	return c.envelope(TypePlayerAddon, matchID, PlayerAddonData{
		PlayerID:   e.PlayerID,
		PlayerName: e.Name,
		Amount:     e.Amount,
	})
}
