// Package web serves the game to a browser. Every websocket connection
// gets its own engine, so any number of players can play side by side.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/njmcode/nidc2021-textadv/engine"
	"github.com/njmcode/nidc2021-textadv/engine/queue"
)

//go:embed static/index.html
var static embed.FS

// NewEngine builds a fresh engine writing to sink. The returned release
// func is called when the connection ends.
type NewEngine func(sink queue.Sink, opts ...engine.Option) (*engine.Engine, func(), error)

// Server hands out one game session per websocket connection.
type Server struct {
	newEngine NewEngine
	log       *slog.Logger
	sessions  atomic.Int64
}

// NewServer creates a server that builds engines with newEngine.
func NewServer(newEngine NewEngine, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{newEngine: newEngine, log: log}
}

// Handler returns the HTTP routes: the page on / and the socket on /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.serveWS)
	mux.HandleFunc("GET /{$}", s.serveIndex)
	return mux
}

// Sessions reports the number of open connections.
func (s *Server) Sessions() int {
	return int(s.sessions.Load())
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("web server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) serveIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// serverMsg is sent to the browser.
type serverMsg struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Class   string `json:"class,omitempty"`
	Visible *bool  `json:"visible,omitempty"`
}

// clientMsg is sent by the browser. Type "restart" starts the game again.
type clientMsg struct {
	Type  string `json:"type,omitempty"`
	Input string `json:"input"`
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("websocket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	id := uuid.NewString()
	log := s.log.With("session", id)
	s.sessions.Add(1)
	defer s.sessions.Add(-1)

	sess := newSession()
	eng, release, err := s.newEngine(sess, engine.WithSession(id), engine.WithLogger(log))
	if err != nil {
		log.Error("creating engine", "err", err)
		conn.Close(websocket.StatusInternalError, "could not start game")
		return
	}
	defer release()

	log.Info("session opened", "remote", r.RemoteAddr)
	if err := eng.Start(); err != nil {
		log.Error("game halted", "err", err)
		conn.Close(websocket.StatusInternalError, "game halted")
		return
	}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return sess.writeLoop(ctx, conn) })
	g.Go(func() error {
		defer sess.close()
		return s.readLoop(ctx, conn, eng, sess, log)
	})
	err = g.Wait()

	status := websocket.CloseStatus(err)
	switch {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		log.Info("session closed")
		conn.Close(websocket.StatusNormalClosure, "")
	case err != nil && !errors.Is(err, context.Canceled):
		log.Warn("session ended", "err", err)
		conn.Close(websocket.StatusInternalError, "session ended")
	default:
		conn.Close(websocket.StatusNormalClosure, "")
	}
}

// readLoop feeds player input into the engine. Input that arrives while
// the input surface is hidden is dropped.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, eng *engine.Engine, sess *session, log *slog.Logger) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		var msg clientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug("bad client message", "err", err)
			continue
		}

		if msg.Type == "restart" {
			if err := eng.Start(); err != nil {
				return err
			}
			continue
		}

		input := strings.TrimSpace(msg.Input)
		if input == "" {
			continue
		}
		if sess.hidden.Load() || !eng.IsActive() {
			log.Debug("input dropped", "input", input)
			continue
		}
		if _, err := eng.Submit(input); err != nil {
			log.Error("game halted", "err", err)
			return err
		}
	}
}

// session is the engine's sink for one connection. It buffers outgoing
// messages so the engine never blocks on the network.
type session struct {
	hidden atomic.Bool

	mu      sync.Mutex
	pending []serverMsg
	notify  chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newSession() *session {
	return &session{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (s *session) push(m serverMsg) {
	s.mu.Lock()
	s.pending = append(s.pending, m)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *session) Write(text, class string) {
	s.push(serverMsg{Type: "output", Text: text, Class: class})
}

func (s *session) Clear() { s.push(serverMsg{Type: "clear"}) }

func (s *session) ShowInput() { s.setInput(true) }

func (s *session) HideInput() { s.setInput(false) }

func (s *session) setInput(visible bool) {
	s.hidden.Store(!visible)
	s.push(serverMsg{Type: "input", Visible: &visible})
}

func (s *session) close() {
	s.once.Do(func() { close(s.done) })
}

func (s *session) drain() []serverMsg {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.pending
	s.pending = nil
	return msgs
}

// writeLoop sends buffered messages until the read side finishes.
func (s *session) writeLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case <-s.notify:
		}
		for _, m := range s.drain() {
			data, err := json.Marshal(m)
			if err != nil {
				return err
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				return err
			}
		}
	}
}
