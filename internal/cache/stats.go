package cache

import "sync"

// Counts is a point-in-time view of one provider's lookup counters.
type Counts struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Stats tracks process-wide cache hit/miss counters per provider. The
// counters have no expiry and reset only on explicit operator action
// (the `veracity cache reset` command). They never affect cache
// correctness; they exist purely for observability.
type Stats struct {
	mu       sync.Mutex
	counters map[string]*Counts
}

// NewStats creates an empty counter set.
func NewStats() *Stats {
	return &Stats{counters: make(map[string]*Counts)}
}

// Hit records a cache hit for the provider.
func (s *Stats) Hit(provider string) {
	s.mu.Lock()
	s.get(provider).Hits++
	s.mu.Unlock()
}

// Miss records a cache miss for the provider.
func (s *Stats) Miss(provider string) {
	s.mu.Lock()
	s.get(provider).Misses++
	s.mu.Unlock()
}

// get returns the counter for provider, creating it if needed.
// Callers must hold s.mu.
func (s *Stats) get(provider string) *Counts {
	c, ok := s.counters[provider]
	if !ok {
		c = &Counts{}
		s.counters[provider] = c
	}
	return c
}

// Snapshot returns a copy of all counters.
func (s *Stats) Snapshot() map[string]Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counts, len(s.counters))
	for name, c := range s.counters {
		out[name] = *c
	}
	return out
}

// Totals returns the summed hits and misses across all providers.
func (s *Stats) Totals() (hits, misses int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.counters {
		hits += c.Hits
		misses += c.Misses
	}
	return hits, misses
}

// Reset zeroes every counter. Operator-initiated only.
func (s *Stats) Reset() {
	s.mu.Lock()
	s.counters = make(map[string]*Counts)
	s.mu.Unlock()
}
