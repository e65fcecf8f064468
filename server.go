package main

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/erkantaylan/mdview/internal/theme"
	"github.com/erkantaylan/mdview/internal/tracker"
)

//go:embed static
var staticFiles embed.FS

var pageTemplate = template.Must(template.ParseFS(staticFiles, "static/page.html"))

// Message sent to clients
type Message struct {
	Type    string   `json:"type"`
	Version int      `json:"version"`
	Title   string   `json:"title,omitempty"`
	HTML    string   `json:"html,omitempty"`
	TOC     string   `json:"toc,omitempty"`
	Failed  bool     `json:"failed,omitempty"`
	Active  []string `json:"active,omitempty"`
}

const (
	msgContent = "content"
	msgActive  = "active"
	msgLayout  = "layout"
)

// layoutReport is sent by the page on scroll and resize.
type layoutReport struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
	tracker.Layout
}

// Client represents a connected WebSocket client
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// Owned by the reader goroutine.
	version  int
	observer *tracker.ViewportObserver
	tracker  *tracker.Tracker
}

type directMessage struct {
	client *Client
	data   []byte
}

// Hub manages WebSocket clients, broadcasting and per-client replies
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	direct     chan directMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	log        *slog.Logger

	mu      sync.RWMutex
	current Page
	version int
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		direct:     make(chan directMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run serves the hub until ctx ends. Sends to a stopped hub are dropped.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true
			// Send current content to new client
			if data, err := json.Marshal(h.contentMessage()); err == nil {
				client.send <- data
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case msg := <-h.direct:
			if _, ok := h.clients[msg.client]; ok {
				h.deliver(msg.client, msg.data)
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				h.deliver(client, message)
			}
		}
	}
}

func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.log.Warn("dropping slow client", "client", client.id)
		close(client.send)
		delete(h.clients, client)
	}
}

// SetPage replaces the current page and pushes it to every client.
func (h *Hub) SetPage(page Page) {
	h.mu.Lock()
	h.current = page
	h.version++
	h.mu.Unlock()

	data, _ := json.Marshal(h.contentMessage())
	select {
	case h.broadcast <- data:
	case <-h.done:
	}
}

// Register adds client, reporting false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Reply queues data for a single client.
func (h *Hub) Reply(client *Client, data []byte) {
	select {
	case h.direct <- directMessage{client: client, data: data}:
	case <-h.done:
	}
}

// Current returns the page being served and its version.
func (h *Hub) Current() (Page, int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current, h.version
}

func (h *Hub) contentMessage() Message {
	page, version := h.Current()
	return Message{
		Type:    msgContent,
		Version: version,
		Title:   page.Title,
		HTML:    page.HTML,
		TOC:     page.TOCHTML,
		Failed:  page.Failed,
	}
}

// Server handles HTTP and WebSocket
type Server struct {
	hub          *Hub
	prefs        *theme.Preference
	port         int
	bottomMargin float64
	threshold    float64
	log          *slog.Logger
	server       *http.Server
}

func NewServer(hub *Hub, prefs *theme.Preference, port int, bottomMargin, threshold float64, log *slog.Logger) *Server {
	return &Server{
		hub:          hub,
		prefs:        prefs,
		port:         port,
		bottomMargin: bottomMargin,
		threshold:    threshold,
		log:          log,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	log := s.log.With("client", client.id)
	log.Debug("client connected")

	if !s.hub.Register(client) {
		conn.Close()
		return
	}

	// Writer goroutine
	go func() {
		defer func() {
			conn.Close()
		}()

		for message := range client.send {
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		}
	}()

	// Reader goroutine: layout reports drive the client's section tracker.
	go func() {
		defer func() {
			if client.tracker != nil {
				client.tracker.Stop()
			}
			s.hub.Unregister(client)
			conn.Close()
			log.Debug("client disconnected")
		}()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var report layoutReport
			if err := json.Unmarshal(data, &report); err != nil || report.Type != msgLayout {
				log.Debug("ignoring client message", "error", err)
				continue
			}
			s.track(client, report)
		}
	}()
}

// track feeds one layout report into the client's tracker, rebuilding it
// when the page changed, and replies with the active ids if they moved.
func (s *Server) track(client *Client, report layoutReport) {
	page, version := s.hub.Current()
	if report.Version != version {
		return
	}
	rebuilt := false
	if client.tracker == nil || client.version != version {
		if client.tracker != nil {
			client.tracker.Stop()
		}
		client.version = version
		client.observer = tracker.NewViewportObserver(s.bottomMargin, s.threshold)
		client.tracker = tracker.Track(client.observer, page.TOC, nil)
		rebuilt = true
	}

	before := client.tracker.Active()
	client.observer.Update(report.Layout)
	after := client.tracker.Active()
	if !rebuilt && slices.Equal(before, after) {
		return
	}

	data, err := json.Marshal(Message{Type: msgActive, Version: version, Active: after})
	if err != nil {
		return
	}
	s.hub.Reply(client, data)
}

type pageData struct {
	Title     string
	RootClass string
	Icon      string
	Content   template.HTML
	TOC       template.HTML
	Style     template.CSS
	Version   int
	Live      bool
}

// writePage renders page with the current theme applied. Live pages load
// the client script; static ones inline the stylesheet instead.
func writePage(w io.Writer, page Page, version int, flag theme.Flag, live bool) error {
	var style template.CSS
	if !live {
		css, err := staticFiles.ReadFile("static/style.css")
		if err != nil {
			return err
		}
		style = template.CSS(css)
	}
	return pageTemplate.Execute(w, pageData{
		Title:     page.Title,
		RootClass: flag.RootClass(),
		Icon:      flag.Icon(),
		Content:   template.HTML(page.HTML),
		TOC:       template.HTML(page.TOCHTML),
		Style:     style,
		Version:   version,
		Live:      live,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, version := s.hub.Current()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := writePage(w, page, version, s.prefs.Flag(), true); err != nil {
		s.log.Error("rendering page", "error", err)
	}
}

type themeResponse struct {
	Theme     theme.Flag `json:"theme"`
	RootClass string     `json:"root_class"`
	Icon      string     `json:"icon"`
}

func writeTheme(w http.ResponseWriter, flag theme.Flag) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(themeResponse{Theme: flag, RootClass: flag.RootClass(), Icon: flag.Icon()})
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	writeTheme(w, s.prefs.Flag())
}

func (s *Server) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	flag, err := s.prefs.Toggle()
	if err != nil {
		s.log.Error("toggling theme", "error", err)
		http.Error(w, `{"error":"could not save theme"}`, http.StatusInternalServerError)
		return
	}
	writeTheme(w, flag)
}

// Handler builds the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)

	// Serve static files
	staticFS, _ := fs.Sub(staticFiles, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Get("/ws", s.handleWebSocket)

	r.Route("/api/theme", func(r chi.Router) {
		r.Get("/", s.handleTheme)
		r.Post("/toggle", s.handleThemeToggle)
	})

	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
