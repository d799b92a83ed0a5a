package session

import (
	"sync"

	"cardroom/gateway/internal/logging"
	"cardroom/gateway/internal/metrics"
)

// Registry tracks every live connection, keyed by match and then by profile.
// Buckets are independent: traffic in one match never contends on another
// match's lock.
type Registry struct {
	buckets sync.Map // matchID -> *bucket
	metrics *metrics.Set
	log     *logging.Logger
}

type bucket struct {
	mu    sync.RWMutex
	links map[int64]Link
	// gone marks a bucket that was emptied and detached from the registry;
	// an Add racing the removal must not resurrect it.
	gone bool
}

// NewRegistry constructs an empty registry.
func NewRegistry(set *metrics.Set, log *logging.Logger) *Registry {
	if set == nil {
		set = metrics.NewTestSet()
	}
	if log == nil {
		log = logging.L()
	}
	return &Registry{metrics: set, log: log}
}

// Add registers a connection, replacing any previous one for the same
// (match, profile) pair. Replacement is the reconnection path, not an error;
// the displaced link is returned so the caller can shut its transport.
func (r *Registry) Add(matchID string, profileID int64, link Link) Link {
	for {
		value, _ := r.buckets.LoadOrStore(matchID, &bucket{links: make(map[int64]Link)})
		b := value.(*bucket)
		b.mu.Lock()
		if b.gone {
			b.mu.Unlock()
			continue
		}
		previous := b.links[profileID]
		b.links[profileID] = link
		b.mu.Unlock()
		if previous == nil {
			r.metrics.ConnectionsLive.Inc()
		}
		return previous
	}
}

// Remove deletes the pair's entry, but only when the registered link is the
// one given: the teardown of a transport that was already replaced by a
// reconnect must not evict its successor. It reports whether the link was
// actually registered and whether the match's bucket became empty and was
// dropped.
func (r *Registry) Remove(matchID string, profileID int64, link Link) (removed, emptied bool) {
	value, ok := r.buckets.Load(matchID)
	if !ok {
		return false, false
	}
	b := value.(*bucket)
	b.mu.Lock()
	current, present := b.links[profileID]
	if !present || (link != nil && current.ConnectionID() != link.ConnectionID()) {
		b.mu.Unlock()
		return false, false
	}
	delete(b.links, profileID)
	empty := len(b.links) == 0
	if empty {
		b.gone = true
	}
	b.mu.Unlock()
	r.metrics.ConnectionsLive.Dec()
	if empty {
		r.buckets.Delete(matchID)
	}
	return true, empty
}

// SendTo delivers one message to one connection, best effort. A missing
// connection is a silent no-op: transient disconnects must not abort
// server-side processing.
func (r *Registry) SendTo(matchID string, profileID int64, env *Outbound) {
	value, ok := r.buckets.Load(matchID)
	if !ok {
		return
	}
	b := value.(*bucket)
	b.mu.RLock()
	link := b.links[profileID]
	b.mu.RUnlock()
	if link == nil {
		return
	}
	if err := link.Send(env); err != nil {
		r.metrics.SendFailures.Inc()
		r.log.Debug("send failed",
			logging.String("match_id", matchID),
			logging.Int64("profile_id", profileID),
			logging.Error(err))
	}
}

// Broadcast fans one message out to every connection of a match, optionally
// excluding one profile. A failed send to one connection never blocks or
// aborts delivery to the rest.
func (r *Registry) Broadcast(matchID string, env *Outbound, exclude ...int64) {
	for _, link := range r.Connections(matchID) {
		if len(exclude) > 0 && link.ProfileID() == exclude[0] {
			continue
		}
		if err := link.Send(env); err != nil {
			r.metrics.SendFailures.Inc()
			r.log.Debug("broadcast send failed",
				logging.String("match_id", matchID),
				logging.Int64("profile_id", link.ProfileID()),
				logging.Error(err))
		}
	}
	r.metrics.BroadcastsTotal.Inc()
}

// Connections returns a point-in-time copy of a match's registered links.
func (r *Registry) Connections(matchID string) []Link {
	value, ok := r.buckets.Load(matchID)
	if !ok {
		return nil
	}
	b := value.(*bucket)
	b.mu.RLock()
	links := make([]Link, 0, len(b.links))
	for _, link := range b.links {
		links = append(links, link)
	}
	b.mu.RUnlock()
	return links
}

// Lookup returns the registered link for a pair, if any.
func (r *Registry) Lookup(matchID string, profileID int64) (Link, bool) {
	value, ok := r.buckets.Load(matchID)
	if !ok {
		return nil, false
	}
	b := value.(*bucket)
	b.mu.RLock()
	link, present := b.links[profileID]
	b.mu.RUnlock()
	return link, present
}

// Counts reports how many matches hold connections and the connection total.
func (r *Registry) Counts() (matches, connections int) {
	r.buckets.Range(func(_, value any) bool {
		b := value.(*bucket)
		b.mu.RLock()
		n := len(b.links)
		b.mu.RUnlock()
		if n > 0 {
			matches++
			connections += n
		}
		return true
	})
	return matches, connections
}
