package game

// Engine is the authoritative per-match rules engine this layer talks to.
// All mutation and rules decisions live behind it; the transport layer only
// relays. The engine runs its own loop and may emit events the moment Start
// is called, so consumers must be wired to EventSource beforehand.
type Engine interface {
	// GetState returns the current lifecycle state of the match.
	GetState() State
	// HasParticipant reports whether the profile is part of the match.
	HasParticipant(profileID int64) bool
	// AddParticipant seats a new participant. seatHint of 0 lets the engine
	// choose.
	AddParticipant(profileID int64, name string, isBot bool, seatHint int) error
	// RemoveParticipant removes a participant from the match.
	RemoveParticipant(profileID int64)
	// OnPlayerAction submits a betting decision on behalf of the profile.
	OnPlayerAction(profileID int64, action Action)
	// PauseAsUser pauses the match on behalf of the given profile.
	PauseAsUser(profileID int64)
	// ResumeAsUser resumes the match on behalf of the given profile.
	ResumeAsUser(profileID int64)
	// ReconnectParticipant tells the engine a known participant is back.
	ReconnectParticipant(profileID int64)
	// SnapshotFor builds a state snapshot scoped to the viewer. Returns nil
	// when no hand is live yet.
	SnapshotFor(viewerID int64) *Snapshot
	// ResendPendingActionIfAny re-delivers an outstanding action prompt to
	// the profile's private delivery channel, if one is pending.
	ResendPendingActionIfAny(profileID int64)
	// OwnerProfileID returns the profile that created and administers the
	// match.
	OwnerProfileID() int64
	// SeatsFilled reports whether every configured seat is occupied.
	SeatsFilled() bool
	// PrepareStart finalizes setup before the run loop begins.
	PrepareStart() error
	// Start launches the engine run loop on its own goroutine.
	Start()
	// EventSource returns the match event stream. Exactly one consumer reads
	// it at a time.
	EventSource() <-chan Event
	// BindPrivateDelivery installs the callback used for private messages
	// (hole cards, action prompts) addressed to the profile. Installing nil
	// detaches it; invoking a detached delivery is a no-op on the engine
	// side.
	BindPrivateDelivery(profileID int64, fn func(PrivateMessage))
}

// Directory resolves match identifiers to live engines.
type Directory interface {
	Lookup(matchID string) (Engine, bool)
}

// BanList answers whether a profile is banned from connecting at all.
type BanList interface {
	IsBanned(profileID int64) bool
}
