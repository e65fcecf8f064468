// Package tracker follows which top-level sections are on screen and keeps
// the matching table-of-contents entries marked active.
package tracker

import "sync"

// Entry reports the intersection state of one observed section.
type Entry struct {
	ID           string
	Intersecting bool
	Ratio        float64
}

// Observer is the viewport-intersection capability the tracker depends on.
// Implementations may poll scroll positions or wrap a native mechanism.
type Observer interface {
	Observe(id string, callback func(Entry))
	Unobserve(id string)
}

// Rect is a vertical extent in document coordinates.
type Rect struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Layout is one snapshot of the page: scroll offset, viewport height and
// the document-space extent of each section.
type Layout struct {
	ScrollY        float64         `json:"scroll_y"`
	ViewportHeight float64         `json:"viewport_height"`
	Sections       map[string]Rect `json:"sections"`
}

const (
	// DefaultBottomMargin shrinks the root by 70% of the viewport height
	// from the bottom, so only the top 30% counts as "visible".
	DefaultBottomMargin = 0.7
	DefaultThreshold    = 0.01
)

type target struct {
	callback func(Entry)
	known    bool
	last     bool
}

// ViewportObserver computes intersections from Layout snapshots. Callbacks
// fire on the first snapshot after Observe and whenever a section's state
// flips.
type ViewportObserver struct {
	mu           sync.Mutex
	bottomMargin float64
	threshold    float64
	targets      map[string]*target
}

func NewViewportObserver(bottomMargin, threshold float64) *ViewportObserver {
	return &ViewportObserver{
		bottomMargin: bottomMargin,
		threshold:    threshold,
		targets:      make(map[string]*target),
	}
}

func (o *ViewportObserver) Observe(id string, callback func(Entry)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.targets[id] = &target{callback: callback}
}

func (o *ViewportObserver) Unobserve(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.targets, id)
}

// Update evaluates every observed section against l. Sections missing from
// the snapshot are treated as not intersecting.
func (o *ViewportObserver) Update(l Layout) {
	rootTop := 0.0
	rootBottom := l.ViewportHeight * (1 - o.bottomMargin)

	o.mu.Lock()
	var fire []func()
	for id, t := range o.targets {
		entry := Entry{ID: id}
		if r, ok := l.Sections[id]; ok {
			entry.Ratio, entry.Intersecting = intersect(r.Top-l.ScrollY, r.Height, rootTop, rootBottom, o.threshold)
		}
		if t.known && t.last == entry.Intersecting {
			continue
		}
		t.known = true
		t.last = entry.Intersecting
		cb := t.callback
		fire = append(fire, func() { cb(entry) })
	}
	o.mu.Unlock()

	for _, f := range fire {
		f()
	}
}

// intersect returns the visible fraction of [top, top+height) inside
// [rootTop, rootBottom). Zero-height elements count as fully visible when
// their edge lies inside the root.
func intersect(top, height, rootTop, rootBottom, threshold float64) (float64, bool) {
	if rootBottom <= rootTop {
		return 0, false
	}
	bottom := top + height
	if height <= 0 {
		if top >= rootTop && top < rootBottom {
			return 1, true
		}
		return 0, false
	}
	overlap := min(bottom, rootBottom) - max(top, rootTop)
	if overlap <= 0 {
		return 0, false
	}
	ratio := overlap / height
	return ratio, ratio >= threshold
}
