package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/meshmap/pkg/buildinfo"
	"github.com/matzehuels/meshmap/pkg/errors"
	"github.com/matzehuels/meshmap/pkg/pipeline"
	"github.com/matzehuels/meshmap/pkg/render/scene"
	"github.com/matzehuels/meshmap/pkg/topology"
)

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.SetHeader("X-Meshmap", buildinfo.UserAgent()))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Get("/map.svg", s.handleSVG)
	r.Get("/export.{format}", s.handleExport)

	r.Route("/api", func(r chi.Router) {
		r.Get("/topology", s.handleTopology)
		r.Post("/session", s.handleCreateSession)
		r.Delete("/session/{id}", s.handleDeleteSession)
		r.Post("/pointer", s.handlePointer)
		r.Method(http.MethodGet, "/events", s.hub)
	})
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.Version,
		"clients": s.hub.ClientCount(),
	})
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	f, err := s.m.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeTimeout, err, "snapshot"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(f.SVG)
}

// handleTopology returns the graph with live positions.
func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	var data []byte
	var merr error
	err := s.m.Do(r.Context(), func() {
		data, merr = json.Marshal(s.m.Graph())
	})
	if err == nil {
		err = merr
	}
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "encode topology"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// handleExport renders the current topology from scratch, so downloads are
// identical to `meshmap render` output for the same snapshot.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, err)
		return
	}

	var doc *topology.Document
	if err := s.m.Do(r.Context(), func() { doc = topology.NewDocument(s.m.Graph()) }); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeTimeout, err, "snapshot"))
		return
	}
	g, err := doc.Graph()
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := s.opts.Export
	opts.Formats = []string{format}
	opts.Labels = r.URL.Query().Get("labels") == "true"
	if v := r.URL.Query().Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid scale %q", v))
			return
		}
		opts.Scale = scale
	}

	res, err := s.runner.Execute(r.Context(), g, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	w.Header().Set("Content-Disposition", "attachment; filename=meshmap."+format)
	w.Header().Set("X-Cache", cacheHeader(res.CacheInfo.RenderHit))
	_, _ = w.Write(res.Artifacts[format])
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

// sessionResponse is returned when a viewer connects.
type sessionResponse struct {
	ID        string `json:"id"`
	ExpiresAt string `json:"expiresAt"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context(), s.opts.SessionTTL)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "create session"))
		return
	}
	s.logger.Debug("session created", "session", sess.ID, "slot", sess.Slot)
	writeJSON(w, http.StatusCreated, sessionResponse{
		ID:        sess.ID,
		ExpiresAt: sess.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z"),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sess != nil {
		s.releasePointers(ctx, sess)
		_ = s.sessions.Delete(ctx, id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// pointerRequest is one browser pointer event in map coordinates.
type pointerRequest struct {
	Session   string  `json:"session"`
	Type      string  `json:"type"`
	PointerID int     `json:"pointerId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	// Node names the glyph under the pointer, skipping hit testing.
	Node string `json:"node,omitempty"`
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req pointerRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidEvent, err, "decode pointer event"))
		return
	}
	typ, ok := scene.ParseEventType(req.Type)
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeInvalidEvent, "unknown event type %q", req.Type))
		return
	}

	sess, err := s.sessions.Get(ctx, req.Session)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sess == nil {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "session %q not found", req.Session))
		return
	}
	_ = s.sessions.Touch(ctx, sess.ID, s.opts.SessionTTL)

	ev := scene.PointerEvent{Type: typ, PointerID: sess.Pointer(req.PointerID), X: req.X, Y: req.Y}
	handled, err := s.m.DispatchOn(ctx, req.Node, ev)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeTimeout, err, "dispatch pointer event"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"handled": handled})
}

// errorResponse is the JSON body of every error.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: string(code)})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
