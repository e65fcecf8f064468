package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/erkantaylan/mdview/internal/enhance"
	"github.com/erkantaylan/mdview/internal/theme"
	"github.com/erkantaylan/mdview/internal/tracker"
)

func newTestServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	log := slog.New(slog.DiscardHandler)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(log)
	go hub.Run(ctx)

	doc, err := enhance.Process(`<h2 id="intro">Intro</h2><p>text</p><h2 id="usage">Usage</h2>`, mustLocale(t))
	if err != nil {
		t.Fatal(err)
	}
	hub.SetPage(Page{Title: "tools.md", Document: doc})

	prefs, err := theme.Load(theme.NewMemoryStore())
	if err != nil {
		t.Fatal(err)
	}
	srv := NewServer(hub, prefs, 0, tracker.DefaultBottomMargin, tracker.DefaultThreshold, log)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, hub
}

func mustLocale(t *testing.T) enhance.Messages {
	t.Helper()
	m, err := enhance.Locale("ru")
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestIndexRendersPage(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	out := string(raw)
	for _, want := range []string{
		`<a href="#intro">Intro</a>`,
		`<h2 id="intro">Intro<a href="#intro" class="anchor"`,
		`class="ti ti-sun"`,
		`/static/app.js`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if strings.Contains(out, `class="light"`) {
		t.Error("default theme should be dark")
	}
}

func TestStaticAssets(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/static/app.js")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestThemeToggle(t *testing.T) {
	ts, _ := newTestServer(t)

	toggle := func() themeResponse {
		resp, err := http.Post(ts.URL+"/api/theme/toggle", "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var tr themeResponse
		if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
			t.Fatal(err)
		}
		return tr
	}

	if got := toggle(); got.Theme != theme.Light || got.Icon != "ti ti-moon" || got.RootClass != "light" {
		t.Errorf("first toggle = %+v", got)
	}

	resp, err := http.Get(ts.URL + "/api/theme")
	if err != nil {
		t.Fatal(err)
	}
	var current themeResponse
	json.NewDecoder(resp.Body).Decode(&current)
	resp.Body.Close()
	if current.Theme != theme.Light {
		t.Errorf("current theme = %q", current.Theme)
	}

	if got := toggle(); got.Theme != theme.Dark || got.RootClass != "" {
		t.Errorf("second toggle = %+v", got)
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, msgType string) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", msgType, err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestWebSocketTracksSections(t *testing.T) {
	ts, _ := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	content := readUntil(t, conn, msgContent)
	if content.Version != 1 || !strings.Contains(content.TOC, `href="#usage"`) {
		t.Fatalf("content message = %+v", content)
	}

	report := func(scrollY float64) {
		err := conn.WriteJSON(layoutReport{
			Type:    msgLayout,
			Version: content.Version,
			Layout: tracker.Layout{
				ScrollY:        scrollY,
				ViewportHeight: 1000,
				Sections: map[string]tracker.Rect{
					"intro": {Top: 0, Height: 40},
					"usage": {Top: 1500, Height: 40},
				},
			},
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	report(0)
	if got := readUntil(t, conn, msgActive); len(got.Active) != 1 || got.Active[0] != "intro" {
		t.Errorf("active at top = %v", got.Active)
	}

	report(1450)
	if got := readUntil(t, conn, msgActive); len(got.Active) != 1 || got.Active[0] != "usage" {
		t.Errorf("active after scroll = %v", got.Active)
	}
}

func TestWebSocketReceivesUpdates(t *testing.T) {
	ts, hub := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	readUntil(t, conn, msgContent)

	hub.SetPage(Page{Title: "tools.md", Document: enhance.Failed(mustLocale(t)), Failed: true})
	for {
		msg := readUntil(t, conn, msgContent)
		if msg.Version < 2 {
			continue
		}
		if !msg.Failed || msg.TOC != "" {
			t.Errorf("update = %+v", msg)
		}
		break
	}
}

func TestStaticPageInlinesStyle(t *testing.T) {
	doc, err := enhance.Process(`<h2 id="intro">Intro</h2>`, mustLocale(t))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := writePage(&buf, Page{Title: "tools.md", Document: doc}, 0, theme.Light, false); err != nil {
		t.Fatalf("writePage: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "<style>") || !strings.Contains(out, "#toc nav a.active") {
		t.Errorf("stylesheet not inlined:\n%s", out)
	}
	for _, absent := range []string{"/static/app.js", "/static/style.css", "themeToggle"} {
		if strings.Contains(out, absent) {
			t.Errorf("static page references %q", absent)
		}
	}
	if !strings.Contains(out, `class="light"`) || !strings.Contains(out, `<a href="#intro">Intro</a>`) {
		t.Errorf("theme or toc missing:\n%s", out)
	}
}

func TestHubStoppedDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(slog.New(slog.DiscardHandler))
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := 0; i < 300; i++ {
			hub.SetPage(Page{Title: "tools.md"})
		}
		client := &Client{id: "late", hub: hub, send: make(chan []byte, 1)}
		if hub.Register(client) {
			t.Error("register succeeded on a stopped hub")
		}
		hub.Unregister(client)
		hub.Reply(client, []byte("{}"))
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("hub sends blocked after Run returned")
	}
}
