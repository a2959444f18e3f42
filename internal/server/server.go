// Package server serves a live, shared mesh map over HTTP.
//
// One [mapview.Map] runs its event loop in the server process. Browsers
// receive rendered frames over server-sent events and send pointer events
// back, so every viewer sees and drags the same simulation. Each browser tab
// holds a session whose pointer block keeps concurrent drags apart.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/meshmap/pkg/errors"
	"github.com/matzehuels/meshmap/pkg/mapview"
	"github.com/matzehuels/meshmap/pkg/pipeline"
	"github.com/matzehuels/meshmap/pkg/render/scene"
	"github.com/matzehuels/meshmap/pkg/session"
	"github.com/matzehuels/meshmap/pkg/source"
	"github.com/matzehuels/meshmap/pkg/topology"
)

// Options configures a [Server].
type Options struct {
	// Addr is the listen address, e.g. "127.0.0.1:8080".
	Addr string
	// SnapshotInterval is the minimum time between frames pushed to
	// clients. Frames produced faster are coalesced.
	SnapshotInterval time.Duration
	// SessionTTL is how long an idle viewer keeps its pointers.
	SessionTTL time.Duration

	// Source, when set, is polled every PollInterval and replaces the map's
	// topology when it changes.
	Source       source.Source
	PollInterval time.Duration

	// Runner serves /export requests. Nil disables caching.
	Runner *pipeline.Runner
	// Export holds defaults for /export requests; Formats is ignored.
	Export pipeline.Options

	Sessions session.Store
	Logger   *log.Logger
}

// Server is the live map HTTP server.
type Server struct {
	opts     Options
	m        *mapview.Map
	hub      *Hub
	sessions session.Store
	runner   *pipeline.Runner
	logger   *log.Logger
}

// New creates a server around m. The server drives m's event loop from
// [Server.Run]; callers must not run it themselves.
func New(m *mapview.Map, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:8080"
	}
	if opts.SnapshotInterval <= 0 {
		opts.SnapshotInterval = 100 * time.Millisecond
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = session.DefaultTTL
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewMemoryStore()
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	return &Server{
		opts:     opts,
		m:        m,
		hub:      NewHub(opts.Logger),
		sessions: opts.Sessions,
		runner:   opts.Runner,
		logger:   opts.Logger,
	}
}

// Hub returns the SSE hub.
func (s *Server) Hub() *Hub { return s.hub }

// Run starts the map loop, the frame pump, session expiry, source polling
// and the HTTP listener. It returns when ctx ends or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.m.Run(ctx)
	go s.pump(ctx)
	go s.sweep(ctx)
	if s.opts.Source != nil {
		go source.Poll(ctx, s.opts.Source, s.opts.PollInterval, func(g *topology.Graph) {
			if err := s.m.Replace(ctx, g); err != nil && ctx.Err() == nil {
				s.logger.Error("replace topology", "error", err)
			}
		}, func(err error) {
			s.logger.Warn("poll source", "source", s.opts.Source.Name(), "error", err)
		})
	}

	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving live map", "addr", "http://"+s.opts.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", s.opts.Addr)
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer stop()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// frameEvent is the SSE payload.
type frameEvent struct {
	mapview.Frame
	SVG string `json:"svg"`
}

// encodeFrame renders f as an SSE message.
func encodeFrame(f mapview.Frame) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("event: frame\ndata: ")
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(frameEvent{Frame: f, SVG: string(f.SVG)}); err != nil {
		return nil, err
	}
	buf.WriteByte('\n') // Encode already ended the data line
	return buf.Bytes(), nil
}

// pump forwards map frames to the hub, at most one per SnapshotInterval.
func (s *Server) pump(ctx context.Context) {
	frames, unsubscribe := s.m.Subscribe()
	defer unsubscribe()

	if f, err := s.m.Snapshot(ctx); err == nil {
		s.broadcast(f)
	}

	ticker := time.NewTicker(s.opts.SnapshotInterval)
	defer ticker.Stop()

	var pending *mapview.Frame
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			pending = &f
		case <-ticker.C:
			if pending != nil {
				s.broadcast(*pending)
				pending = nil
			}
		}
	}
}

func (s *Server) broadcast(f mapview.Frame) {
	msg, err := encodeFrame(f)
	if err != nil {
		s.logger.Error("encode frame", "error", err)
		return
	}
	s.hub.Broadcast(msg)
}

// sweep expires idle sessions and cancels the pointers they still hold.
func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SessionTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.expireSessions(ctx)
		}
	}
}

func (s *Server) expireSessions(ctx context.Context) {
	expired, err := s.sessions.Cleanup(ctx)
	if err != nil {
		s.logger.Warn("session cleanup", "error", err)
		return
	}
	for _, sess := range expired {
		s.releasePointers(ctx, sess)
		s.logger.Debug("session expired", "session", sess.ID)
	}
}

// releasePointers ends every gesture a session still holds.
func (s *Server) releasePointers(ctx context.Context, sess *session.Session) {
	err := s.m.Do(ctx, func() {
		doc := s.m.Document()
		for _, id := range sess.Pointers() {
			if el := doc.Captured(id); el != nil {
				s.m.HandlePointer(scene.PointerEvent{Type: scene.PointerCancel, PointerID: id, Target: el})
			}
			if doc.Hovered(id) != nil {
				s.m.HandlePointer(scene.PointerEvent{Type: scene.PointerOut, PointerID: id})
			}
		}
	})
	if err != nil && ctx.Err() == nil {
		s.logger.Warn("release pointers", "session", sess.ID, "error", err)
	}
}
