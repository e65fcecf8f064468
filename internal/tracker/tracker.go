package tracker

import (
	"sync"

	"github.com/erkantaylan/mdview/internal/enhance"
)

// Tracker mirrors section visibility onto TOC entries. Several entries can
// be active at once.
type Tracker struct {
	obs      Observer
	onChange func(id string, active bool)

	mu      sync.Mutex
	order   []string
	entries map[string]*enhance.TocEntry
}

// Track observes the target of every entry. onChange, if set, is called
// after an entry's active state changes.
func Track(obs Observer, toc []enhance.TocEntry, onChange func(id string, active bool)) *Tracker {
	t := &Tracker{
		obs:      obs,
		onChange: onChange,
		entries:  make(map[string]*enhance.TocEntry, len(toc)),
	}
	for _, e := range toc {
		e.Active = false
		if _, dup := t.entries[e.TargetID]; dup {
			continue
		}
		t.order = append(t.order, e.TargetID)
		t.entries[e.TargetID] = &e
	}
	for _, id := range t.order {
		obs.Observe(id, t.handle)
	}
	return t
}

func (t *Tracker) handle(e Entry) {
	t.mu.Lock()
	entry, ok := t.entries[e.ID]
	changed := ok && entry.Active != e.Intersecting
	if changed {
		entry.Active = e.Intersecting
	}
	t.mu.Unlock()

	if changed && t.onChange != nil {
		t.onChange(e.ID, e.Intersecting)
	}
}

// Entries returns a snapshot of the TOC with current active flags.
func (t *Tracker) Entries() []enhance.TocEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]enhance.TocEntry, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.entries[id])
	}
	return out
}

// Active returns the ids of active entries in TOC order.
func (t *Tracker) Active() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	active := []string{}
	for _, id := range t.order {
		if t.entries[id].Active {
			active = append(active, id)
		}
	}
	return active
}

// Stop unobserves every section. Used when the page view goes away.
func (t *Tracker) Stop() {
	t.mu.Lock()
	ids := append([]string(nil), t.order...)
	t.mu.Unlock()
	for _, id := range ids {
		t.obs.Unobserve(id)
	}
}
