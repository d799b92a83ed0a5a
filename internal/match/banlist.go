package match

import "sync"

// BanList is an in-memory set of profiles barred from connecting. It
// satisfies game.BanList for the session layer; moderation tooling mutates
// it through Ban and Unban.
type BanList struct {
	mu     sync.RWMutex
	banned map[int64]struct{}
}

// NewBanList returns an empty ban list.
func NewBanList() *BanList {
	return &BanList{banned: make(map[int64]struct{})}
}

// Ban adds a profile to the list.
func (b *BanList) Ban(profileID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.banned[profileID] = struct{}{}
}

// Unban removes a profile from the list.
func (b *BanList) Unban(profileID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.banned, profileID)
}

// IsBanned implements game.BanList.
func (b *BanList) IsBanned(profileID int64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.banned[profileID]
	return ok
}

// Len returns the number of banned profiles.
func (b *BanList) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.banned)
}
