package match

import (
	"errors"
	"sync"

	"cardroom/gateway/internal/game"
)

// ErrAlreadyRegistered reports a duplicate match identifier.
var ErrAlreadyRegistered = errors.New("match already registered")

// Directory is the in-memory table of live matches. It satisfies
// game.Directory for the session layer while match lifecycle code registers
// and retires engines through the write side.
type Directory struct {
	mu      sync.RWMutex
	engines map[string]game.Engine
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{engines: make(map[string]game.Engine)}
}

// Register adds a live engine under its match identifier.
func (d *Directory) Register(matchID string, engine game.Engine) error {
	if engine == nil {
		return errors.New("engine must not be nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.engines[matchID]; exists {
		return ErrAlreadyRegistered
	}
	d.engines[matchID] = engine
	return nil
}

// Unregister retires a match. Unknown identifiers are a no-op.
func (d *Directory) Unregister(matchID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.engines, matchID)
}

// Lookup implements game.Directory.
func (d *Directory) Lookup(matchID string) (game.Engine, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	engine, ok := d.engines[matchID]
	return engine, ok
}

// IDs returns the identifiers of every registered match.
func (d *Directory) IDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]string, 0, len(d.engines))
	for id := range d.engines {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of registered matches.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.engines)
}
