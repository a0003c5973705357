package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/san-kum/fieldsim/internal/logging"
	"github.com/san-kum/fieldsim/internal/sim"
)

const writeWait = 2 * time.Second

//go:embed index.html
var indexHTML []byte

// Command is a control message sent by a browser client.
type Command struct {
	Type  string  `json:"type"`
	Name  string  `json:"name,omitempty"`
	Value float64 `json:"value,omitempty"`
}

const (
	CmdSet    = "set"
	CmdToggle = "toggle"
	CmdStart  = "start"
	CmdStop   = "stop"
	CmdReset  = "reset"
	// CmdBlur and CmdFocus report that a client's page lost or regained
	// focus. The session pauses only while every connected client is away.
	CmdBlur  = "blur"
	CmdFocus = "focus"
)

// Message is everything the server pushes to clients.
type Message struct {
	Type  string             `json:"type"`
	Frame *sim.Snapshot      `json:"frame,omitempty"`
	Specs []dynamo.ParamSpec `json:"specs,omitempty"`
	Trail [][]float64        `json:"trail,omitempty"`
	Error string             `json:"error,omitempty"`
}

type request struct {
	conn *websocket.Conn
	cmd  Command
	// hello asks the loop to send the initial specs, trail and frame.
	hello bool
	leave bool
}

type Options struct {
	FPS    int
	Logger *slog.Logger
	// AllowedOrigins lists extra browser origins that may open the control
	// socket. Same-origin pages are always accepted; "*" accepts any origin.
	AllowedOrigins []string
}

// Server exposes one session over websockets. A single loop goroutine owns
// the runner: frames, client commands and snapshot requests all go through it.
type Server struct {
	runner sim.Runner
	fps    int
	log    *slog.Logger

	upgrader websocket.Upgrader
	clients  map[*websocket.Conn]struct{}
	mu       sync.RWMutex

	requests  chan request
	snapshots chan chan sim.Snapshot
	done      chan struct{}

	// owned by the loop goroutine
	away       map[*websocket.Conn]bool
	awayPaused bool
}

func New(r sim.Runner, opts Options) *Server {
	if opts.FPS <= 0 {
		opts.FPS = config.DefaultFPS
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Server{
		runner: r,
		fps:    opts.FPS,
		log:    opts.Logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(opts.AllowedOrigins),
		},
		clients:   make(map[*websocket.Conn]struct{}),
		requests:  make(chan request, 16),
		snapshots: make(chan chan sim.Snapshot),
		done:      make(chan struct{}),
		away:      make(map[*websocket.Conn]bool),
	}
}

// checkOrigin accepts requests without an Origin header, same-origin pages
// and the listed origins.
func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveHome)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/snapshot", s.serveSnapshot)
	return mux
}

func (s *Server) serveHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

func (s *Server) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	reply := make(chan sim.Snapshot, 1)
	select {
	case s.snapshots <- reply:
	case <-s.done:
		http.Error(w, "server stopped", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}
	snap := <-reply
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.log.Warn("snapshot encode failed", "err", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()
	defer s.submit(request{conn: conn, leave: true})
	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()
	s.log.Debug("client connected", "remote", r.RemoteAddr)

	if !s.submit(request{conn: conn, hello: true}) {
		return
	}
	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("websocket read ended", "remote", r.RemoteAddr, "err", err)
			}
			return
		}
		if !s.submit(request{conn: conn, cmd: cmd}) {
			return
		}
	}
}

func (s *Server) submit(req request) bool {
	select {
	case s.requests <- req:
		return true
	case <-s.done:
		return false
	}
}

// Run drives the session at the configured frame rate until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()
	defer close(s.done)
	defer s.closeAll()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.runner.OnFrame(s.runner.Now()); n > 0 {
				s.broadcastFrame()
			}
		case req := <-s.requests:
			s.handle(req)
		case reply := <-s.snapshots:
			reply <- s.runner.Snapshot()
		}
	}
}

func (s *Server) handle(req request) {
	if req.leave {
		delete(s.away, req.conn)
		if s.reconcileAway() {
			s.broadcastFrame()
		}
		return
	}
	if req.hello {
		s.send(req.conn, Message{Type: "specs", Specs: s.runner.Specs()})
		s.send(req.conn, Message{Type: "trail", Trail: s.runner.TrailComponents()})
		s.send(req.conn, s.frame())
		return
	}
	if err := s.apply(req.conn, req.cmd); err != nil {
		s.send(req.conn, Message{Type: "error", Error: err.Error()})
		return
	}
	if req.cmd.Type == CmdReset {
		s.broadcast(Message{Type: "trail", Trail: s.runner.TrailComponents()})
	}
	s.broadcastFrame()
}

var errUnknownCommand = errors.New("server: unknown command")

func (s *Server) apply(conn *websocket.Conn, cmd Command) error {
	switch cmd.Type {
	case CmdSet:
		return s.runner.SetParameter(cmd.Name, cmd.Value)
	case CmdToggle:
		s.awayPaused = false
		s.runner.ToggleRunning()
	case CmdStart:
		s.awayPaused = false
		s.runner.SetRunning(true)
	case CmdStop:
		s.awayPaused = false
		s.runner.SetRunning(false)
	case CmdReset:
		s.awayPaused = false
		s.runner.Reset()
	case CmdBlur:
		s.away[conn] = true
		s.reconcileAway()
	case CmdFocus:
		delete(s.away, conn)
		s.reconcileAway()
	default:
		return logging.WrapError(errUnknownCommand, cmd.Type)
	}
	return nil
}

// reconcileAway pauses a running session once every connected client is
// away, and resumes a session it paused as soon as one client is back.
// It reports whether the run state changed.
func (s *Server) reconcileAway() bool {
	s.mu.RLock()
	connected := len(s.clients)
	away := 0
	for conn := range s.away {
		if _, ok := s.clients[conn]; ok {
			away++
		}
	}
	s.mu.RUnlock()

	allAway := connected > 0 && away == connected
	switch {
	case allAway && s.runner.Running():
		s.runner.SetRunning(false)
		s.awayPaused = true
		s.log.Debug("every client is away, pausing")
		return true
	case !allAway && s.awayPaused && connected > 0:
		s.runner.SetRunning(true)
		s.awayPaused = false
		s.log.Debug("client back, resuming")
		return true
	}
	return false
}

func (s *Server) frame() Message {
	snap := s.runner.Snapshot()
	return Message{Type: "frame", Frame: &snap}
}

func (s *Server) broadcastFrame() { s.broadcast(s.frame()) }

func (s *Server) encode(msg Message) ([]byte, bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Warn("message encode failed", "type", msg.Type, "err", err)
		return nil, false
	}
	return data, true
}

func (s *Server) send(conn *websocket.Conn, msg Message) {
	data, ok := s.encode(msg)
	if !ok {
		return
	}
	if err := write(conn, data); err != nil {
		s.log.Debug("websocket write failed", "err", err)
		conn.Close()
	}
}

func (s *Server) broadcast(msg Message) {
	data, ok := s.encode(msg)
	if !ok {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.clients {
		if err := write(conn, data); err != nil {
			s.log.Debug("websocket write failed", "err", err)
			conn.Close()
		}
	}
}

func write(conn *websocket.Conn, data []byte) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) closeAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
	}
}

// ListenAndServe runs the loop and an HTTP server on addr until ctx ends.
func ListenAndServe(ctx context.Context, addr string, s *Server) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Run(ctx) })
	g.Go(func() error {
		s.log.Info("serving", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	})
	return g.Wait()
}
