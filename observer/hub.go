// Package observer streams resolved turns to spectators over websockets.
package observer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/snakepit/game"
)

const (
	clientBuffer = 16
	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
)

// Frame is the JSON message sent for every resolved turn.
type Frame struct {
	Type string `json:"type"`
	game.Snapshot
	Ranking []game.PlayerID `json:"ranking"`
}

type client struct {
	id  string
	out chan []byte
}

// Hub fans out snapshots to every connected spectator. Slow spectators miss
// frames rather than holding up the game.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
	closed  bool
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Publish implements scheduler.Publisher. It never blocks.
func (h *Hub) Publish(s game.Snapshot) {
	frame := Frame{Type: "turn", Snapshot: s, Ranking: ranking(s)}
	b, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("marshal frame", "turn", s.Turn, "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.last = b
	for c := range h.clients {
		select {
		case c.out <- b:
		default:
			h.logger.Debug("spectator lagging, frame dropped", "client", c.id, "turn", s.Turn)
		}
	}
}

// ranking orders player ids best first, ties kept in id order.
func ranking(s game.Snapshot) []game.PlayerID {
	ps := append([]game.PlayerState(nil), s.Players...)
	sort.SliceStable(ps, func(i, j int) bool { return ps[j].Score.Less(ps[i].Score) })
	out := make([]game.PlayerID, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register() (*client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	c := &client{
		id:  fmt.Sprintf("S%d", h.nextID.Add(1)),
		out: make(chan []byte, clientBuffer),
	}
	if h.last != nil {
		c.out <- h.last
	}
	h.clients[c] = struct{}{}
	return c, true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.out)
	}
}

// Close disconnects every spectator and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.out)
	}
}

func (h *Hub) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.handleWS)
	mux.HandleFunc("/api/snapshot", h.handleSnapshot)
}

func (h *Hub) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.mu.Lock()
	last := h.last
	h.mu.Unlock()
	if last == nil {
		http.Error(w, "no turn played yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(last)
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c, ok := h.register()
	if !ok {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "game over"),
			time.Now().Add(time.Second))
		return
	}
	h.logger.Info("spectator connected", "client", c.id, "remote", r.RemoteAddr)
	defer h.logger.Info("spectator disconnected", "client", c.id)

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for b := range c.out {
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game over"),
			time.Now().Add(time.Second))
	}()

	// Spectators have nothing to say; reading only detects disconnects.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case <-readDone:
		h.unregister(c)
		<-writeDone
	case <-writeDone:
		h.unregister(c)
	}
}

// Serve runs an HTTP server for the hub on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h *Hub) error {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	h.logger.Info("observer listening", "addr", addr)

	select {
	case err := <-errc:
		return fmt.Errorf("observer: %w", err)
	case <-ctx.Done():
	}
	h.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("observer shutdown: %w", err)
	}
	return nil
}
