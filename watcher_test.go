package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherDebouncesWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.md")
	if err := os.WriteFile(path, []byte("## One"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 10)
	w := NewWatcher(50*time.Millisecond, slog.New(slog.DiscardHandler))
	if err := w.Watch(path, func() { changed <- struct{}{} }); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("## Two"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tools.md")
	if err := os.WriteFile(path, []byte("## One"), 0o644); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 10)
	w := NewWatcher(20*time.Millisecond, slog.New(slog.DiscardHandler))
	if err := w.Watch(path, func() { changed <- struct{}{} }); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
		t.Error("change reported for unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}
