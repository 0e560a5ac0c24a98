package profiling

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Profile accumulates wall time and call counts per named section.
// A zero Profile is ready to use and safe for concurrent Track calls.
type Profile struct {
	mu     sync.Mutex
	totals map[string]time.Duration
	counts map[string]int
}

// New returns an empty profile.
func New() *Profile {
	return &Profile{}
}

// Track returns a stop function that records the elapsed time under the given name.
// Usage: defer p.Track("terrain.merge")()
func (p *Profile) Track(name string) func() {
	start := time.Now()
	return func() {
		p.Add(name, time.Since(start))
	}
}

// Add records d under name.
func (p *Profile) Add(name string, d time.Duration) {
	p.mu.Lock()
	if p.totals == nil {
		p.totals = make(map[string]time.Duration)
		p.counts = make(map[string]int)
	}
	p.totals[name] += d
	p.counts[name]++
	p.mu.Unlock()
}

// Reset clears all totals.
func (p *Profile) Reset() {
	p.mu.Lock()
	clear(p.totals)
	clear(p.counts)
	p.mu.Unlock()
}

// Snapshot returns a copy of current totals.
func (p *Profile) Snapshot() map[string]time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]time.Duration, len(p.totals))
	for k, v := range p.totals {
		out[k] = v
	}
	return out
}

// Count returns how many times name was recorded.
func (p *Profile) Count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[name]
}

// SumWithPrefix totals every section whose name starts with prefix.
func (p *Profile) SumWithPrefix(prefix string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	var sum time.Duration
	for k, v := range p.totals {
		if strings.HasPrefix(k, prefix) {
			sum += v
		}
	}
	return sum
}

// TopN formats the n largest totals.
// Example: "terrain.chunk:42.1ms x100, terrain.publish:3ms x100"
func (p *Profile) TopN(n int) string {
	ss := p.Snapshot()
	type pair struct {
		name string
		dur  time.Duration
	}
	list := make([]pair, 0, len(ss))
	for k, v := range ss {
		list = append(list, pair{name: k, dur: v})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].dur == list[j].dur {
			return list[i].name < list[j].name
		}
		return list[i].dur > list[j].dur
	})
	if n > len(list) {
		n = len(list)
	}
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, fmt.Sprintf("%s:%s x%d", list[i].name, formatMs(list[i].dur), p.Count(list[i].name)))
	}
	return strings.Join(parts, ", ")
}

// formatMs keeps one decimal and drops a trailing ".0".
func formatMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000.0
	s := fmt.Sprintf("%.1f", ms)
	return strings.TrimSuffix(s, ".0") + "ms"
}
