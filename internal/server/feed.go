package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/verdantlab/meadow/internal/core/config"
	"github.com/verdantlab/meadow/internal/core/observability/log"
	"github.com/verdantlab/meadow/internal/core/sim"
	"github.com/verdantlab/meadow/internal/core/snapshot"
)

// Feed is the presentation boundary: it pushes published snapshots to
// websocket clients at their own frame rate and turns inbound control
// messages into events on the input queue. It never touches world
// state directly.
type Feed struct {
	logger       log.Log
	pub          *snapshot.Publisher
	queue        *sim.Queue
	addr         string
	pushInterval time.Duration

	upgrader    websocket.Upgrader
	clients     sync.Map // map[string]*websocket.Conn
	clientCount int64    // atomic
}

func NewFeed(cfg *config.Config, pub *snapshot.Publisher, queue *sim.Queue, logger log.Log) *Feed {
	return &Feed{
		logger:       logger.With(log.String("component", "feed")),
		pub:          pub,
		queue:        queue,
		addr:         cfg.Feed.Listen,
		pushInterval: time.Duration(cfg.Feed.PushInterval),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// SetAddr overrides the listen address before Serve starts.
func (f *Feed) SetAddr(addr string) {
	if addr != "" {
		f.addr = addr
	}
}

// Serve runs the HTTP server until ctx is cancelled.
func (f *Feed) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", f.handleWS)
	mux.HandleFunc("/snapshot", f.handleSnapshot)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              f.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	f.logger.Info("feed listening", log.String("addr", f.addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handleSnapshot serves the latest snapshot as JSON. Before the first
// completed tick it answers 503 with the sentinel message instead of a
// fabricated empty world.
func (f *Feed) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	snap, err := f.pub.Latest()
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(snap)
}

func (f *Feed) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	id := uuid.NewString()
	f.clients.Store(id, conn)
	count := atomic.AddInt64(&f.clientCount, 1)
	f.logger.Info("client connected", log.String("client", id), log.Int64("clients", count))

	done := make(chan struct{})
	go f.writePump(conn, done)
	f.readPump(conn, id)

	close(done)
	f.clients.Delete(id)
	atomic.AddInt64(&f.clientCount, -1)
	_ = conn.Close()
	f.logger.Info("client disconnected", log.String("client", id))
}

// writePump pushes a snapshot whenever a newer one has been published,
// at most once per push interval.
func (f *Feed) writePump(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(f.pushInterval)
	defer ticker.Stop()

	var lastVersion uint64
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			version := f.pub.Version()
			if version == lastVersion {
				continue
			}
			snap, err := f.pub.Latest()
			if err != nil {
				continue // nothing published yet
			}
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
			lastVersion = version
		}
	}
}

func (f *Feed) readPump(conn *websocket.Conn, id string) {
	for {
		var msg ControlMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				f.logger.Warn("client read failed", log.String("client", id), log.Error(err))
			}
			return
		}
		f.handleControl(msg, id)
	}
}
