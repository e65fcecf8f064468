// Package theme persists the light/dark preference and maps it onto the
// page's visual state.
package theme

import (
	"fmt"
	"sync"
)

// Flag is the persisted theme value.
type Flag string

const (
	Light Flag = "light"
	Dark  Flag = "dark"
)

// Key is the storage key holding the flag.
const Key = "theme"

// ParseFlag treats anything other than "light" as dark.
func ParseFlag(s string) Flag {
	if s == string(Light) {
		return Light
	}
	return Dark
}

// Opposite returns the other theme.
func (f Flag) Opposite() Flag {
	if f == Light {
		return Dark
	}
	return Light
}

// RootClass is the class toggled on the document root.
func (f Flag) RootClass() string {
	if f == Light {
		return "light"
	}
	return ""
}

// Icon is the glyph class of the toggle control. It shows the theme the
// toggle switches to.
func (f Flag) Icon() string {
	if f == Light {
		return "ti ti-moon"
	}
	return "ti ti-sun"
}

// Store is a persistent string key/value store.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Preference is the explicitly initialized theme state handed to the
// rendering layer. Set is the only way to change it.
type Preference struct {
	store Store

	mu   sync.RWMutex
	flag Flag
}

// Load reads the persisted flag, defaulting to dark when unset.
func Load(store Store) (*Preference, error) {
	v, ok, err := store.Get(Key)
	if err != nil {
		return nil, fmt.Errorf("reading theme: %w", err)
	}
	flag := Dark
	if ok {
		flag = ParseFlag(v)
	}
	return &Preference{store: store, flag: flag}, nil
}

// Flag returns the current theme.
func (p *Preference) Flag() Flag {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.flag
}

// Set applies and persists f.
func (p *Preference) Set(f Flag) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.store.Set(Key, string(f)); err != nil {
		return fmt.Errorf("saving theme: %w", err)
	}
	p.flag = f
	return nil
}

// Toggle flips between light and dark and returns the new flag.
func (p *Preference) Toggle() (Flag, error) {
	next := p.Flag().Opposite()
	if err := p.Set(next); err != nil {
		return p.Flag(), err
	}
	return next, nil
}
