package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/layouts/internal/logging"
	"github.com/aretw0/layouts/internal/presentation/graph"
	"github.com/aretw0/layouts/pkg/domain"
	"github.com/aretw0/layouts/pkg/layout"
	"github.com/aretw0/layouts/pkg/session"
	"github.com/aretw0/layouts/pkg/wizard"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Server exposes a session manager over HTTP.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	metrics http.Handler
	version string
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLogger configures a logger for request errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler creates the HTTP handler for sessions.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Sessions: sessions,
		version:  "dev",
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)

	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/workflows", func(r chi.Router) {
		r.Get("/", s.ListWorkflows)
		r.Get("/{workflow}", s.GetWorkflow)
		r.Get("/{workflow}/graph", s.GetWorkflowGraph)
	})

	r.Get("/drafts", s.ListDrafts)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)

		r.Route("/{session}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Get("/graph", s.GetSessionGraph)
			r.Get("/events", s.SubscribeEvents)
			r.Post("/save", s.SaveSession)
			r.Post("/restore", s.RestoreSession)

			r.Get("/layouts/{layout}", s.GetLayout)
			r.Put("/layouts/{layout}", s.AssignLayout)
			r.Patch("/layouts/{layout}", s.PatchLayout)
			r.Post("/layouts/{layout}/hydrate", s.HydrateLayout)

			r.Post("/wizard/{action}", s.WizardAction)
			r.Get("/steps", s.GetSteps)
			r.Post("/steps/{step}/submit", s.SubmitStep)
			r.Post("/steps/{step}/back", s.BackStep)
			r.Put("/steps/{step}/status", s.SetStepStatus)

			r.Post("/warnings", s.AddWarnings)
			r.Delete("/warnings", s.ClearWarnings)
			r.Post("/warnings/dismiss", s.DismissWarning)
		})
	})

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// -- Views --

type layoutView struct {
	Data    any           `json:"data"`
	Display any           `json:"display,omitempty"`
	Loading bool          `json:"loading"`
	Error   *domain.Error `json:"error,omitempty"`
}

type sessionView struct {
	ID       string                `json:"id"`
	Workflow string                `json:"workflow"`
	Wizard   wizard.View           `json:"wizard"`
	Layouts  map[string]layoutView `json:"layouts"`
}

type workflowSummary struct {
	Name        string        `json:"name"`
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description,omitempty"`
	Steps       []wizard.Step `json:"steps"`
	Layouts     []string      `json:"layouts"`
}

func viewLayout(q layout.Query) layoutView {
	return layoutView{
		Data:    q.Value(),
		Display: q.DisplayValue(),
		Loading: q.IsLoading(),
		Error:   domain.AsError(q.Err()),
	}
}

func viewSession(s *session.Session) sessionView {
	v := sessionView{
		ID:       s.ID,
		Workflow: s.Workflow.Name,
		Wizard:   s.Wizard.View(),
		Layouts:  make(map[string]layoutView),
	}
	for key, node := range s.Layouts.Snapshot() {
		v.Layouts[key] = layoutView{
			Data:    node.Data,
			Loading: node.IsLoading,
			Error:   domain.AsError(node.Err),
		}
	}
	return v
}

// -- Helpers --

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrWorkflowNotFound),
		errors.Is(err, wizard.ErrUnknownStep),
		errors.Is(err, errNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrNoStore):
		status = http.StatusNotImplemented
	case errors.Is(err, layout.ErrInvalidPath):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, domain.NewError(status, err.Error(), err))
}

var (
	errBadRequest = errors.New("bad request")
	errNotFound   = errors.New("not found")
)

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

// hydrationContext detaches hydrations from the request so they outlive it.
func hydrationContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// wait blocks on b when the client asked for ?wait=true. Hydration failures
// are part of the layout state and are not reported as request errors.
func wait(r *http.Request, b layout.Batch) error {
	if !queryBool(r, "wait") {
		return nil
	}
	if err := b.Wait(r.Context()); err != nil && r.Context().Err() != nil {
		return err
	}
	return nil
}

// withSession runs fn under the session lock.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*session.Session) (int, any, error)) {
	id := chi.URLParam(r, "session")
	var (
		status int
		body   any
	)
	err := s.Sessions.Do(r.Context(), id, func(ctx context.Context, sess *session.Session) error {
		var err error
		status, body, err = fn(sess)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, body)
}

func layoutQuery(sess *session.Session, key string) (layout.Query, error) {
	if !sess.Layouts.Has(key) {
		return layout.Query{}, fmt.Errorf("%w: layout %q", errNotFound, key)
	}
	return sess.Layouts.Query(key), nil
}

// -- Handlers --

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "layouts-http",
		"version": strings.TrimSpace(s.version),
	})
}

// ListWorkflows handles GET /workflows.
func (s *Server) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	cat := s.Sessions.Catalog()
	out := make([]workflowSummary, 0)
	for _, name := range cat.Names() {
		wf, _ := cat.Lookup(name)
		out = append(out, workflowSummary{
			Name:        wf.Name,
			Title:       wf.Title,
			Description: wf.Description,
			Steps:       wf.Steps,
			Layouts:     wf.Definitions.Keys(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetWorkflow handles GET /workflows/{workflow}, returning the source document.
func (s *Server) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "workflow")
	wf, ok := s.Sessions.Catalog().Lookup(name)
	if !ok {
		s.writeError(w, r, fmt.Errorf("%w: %s", domain.ErrWorkflowNotFound, name))
		return
	}
	writeJSON(w, http.StatusOK, wf.Document)
}

// GetWorkflowGraph handles GET /workflows/{workflow}/graph.
func (s *Server) GetWorkflowGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "workflow")
	wf, ok := s.Sessions.Catalog().Lookup(name)
	if !ok {
		s.writeError(w, r, fmt.Errorf("%w: %s", domain.ErrWorkflowNotFound, name))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(wf.Definitions, wf.Steps, nil)))
}

// ListDrafts handles GET /drafts.
func (s *Server) ListDrafts(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.Drafts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sessions.List())
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Workflow string `json:"workflow"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Workflow == "" {
		s.writeError(w, r, badRequest("workflow is required"))
		return
	}

	sess, err := s.Sessions.Create(hydrationContext(r), body.Workflow)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Streams.Attach(sess)
	writeJSON(w, http.StatusCreated, viewSession(sess))
}

// GetSession handles GET /sessions/{session}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session.Session) (int, any, error) {
		return http.StatusOK, viewSession(sess), nil
	})
}

// DeleteSession handles DELETE /sessions/{session}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session")
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Streams.Detach(id)
	w.WriteHeader(http.StatusNoContent)
}

// GetSessionGraph handles GET /sessions/{session}/graph, overlaying live state.
func (s *Server) GetSessionGraph(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Get(chi.URLParam(r, "session"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := graph.GenerateMermaid(sess.Workflow.Definitions, sess.Workflow.Steps, graph.OverlayFrom(sess.Layouts, sess.Wizard))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(out))
}

// SaveSession handles POST /sessions/{session}/save, answering with the
// changes since the previous save (204 when there are none).
func (s *Server) SaveSession(w http.ResponseWriter, r *http.Request) {
	diff, err := s.Sessions.Save(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if diff == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

// RestoreSession handles POST /sessions/{session}/restore.
func (s *Server) RestoreSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Restore(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Streams.Attach(sess)
	writeJSON(w, http.StatusOK, viewSession(sess))
}

// GetLayout handles GET /sessions/{session}/layouts/{layout}.
func (s *Server) GetLayout(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session.Session) (int, any, error) {
		q, err := layoutQuery(sess, chi.URLParam(r, "layout"))
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, viewLayout(q), nil
	})
}

// AssignLayout handles PUT /sessions/{session}/layouts/{layout}: the body replaces the data.
func (s *Server) AssignLayout(w http.ResponseWriter, r *http.Request) {
	var data any
	if err := decodeBody(w, r, &data); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *session.Session) (int, any, error) {
		q, err := layoutQuery(sess, chi.URLParam(r, "layout"))
		if err != nil {
			return 0, nil, err
		}
		q.Assign(data)
		return http.StatusOK, viewLayout(q), nil
	})
}

// PatchLayout handles PATCH /sessions/{session}/layouts/{layout} with {"path", "value"}.
func (s *Server) PatchLayout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path  string `json:"path"`
		Value any    `json:"value"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *session.Session) (int, any, error) {
		q, err := layoutQuery(sess, chi.URLParam(r, "layout"))
		if err != nil {
			return 0, nil, err
		}
		if err := q.UpdateData(body.Path, body.Value); err != nil {
			return 0, nil, err
		}
		return http.StatusOK, viewLayout(q), nil
	})
}

// HydrateLayout handles POST /sessions/{session}/layouts/{layout}/hydrate.
// ?overwrite=true replaces instead of merging, ?wait=true waits for the result.
func (s *Server) HydrateLayout(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session.Session) (int, any, error) {
		q, err := layoutQuery(sess, chi.URLParam(r, "layout"))
		if err != nil {
			return 0, nil, err
		}
		var opts []layout.HydrateOption
		if queryBool(r, "overwrite") {
			opts = append(opts, layout.Overwrite())
		}
		p := q.Hydrate(hydrationContext(r), opts...)
		if err := wait(r, layout.Batch{p}); err != nil {
			return 0, nil, err
		}
		status := http.StatusAccepted
		select {
		case <-p.Done():
			status = http.StatusOK
		default:
		}
		return status, viewLayout(q), nil
	})
}

// WizardAction handles POST /sessions/{session}/wizard/{action}
// (next, back, reset, goto?step=N).
func (s *Server) WizardAction(w http.ResponseWriter, r *http.Request) {
	action, err := wizard.ParseAction(chi.URLParam(r, "action"), r.URL.Query().Get("step"))
	if err != nil {
		s.writeError(w, r, badRequest("%v", err))
		return
	}
	s.withSession(w, r, func(sess *session.Session) (int, any, error) {
		b := sess.Wizard.Dispatch(hydrationContext(r), action)
		if err := wait(r, b); err != nil {
			return 0, nil, err
		}
		return http.StatusOK, viewSession(sess), nil
	})
}

// GetSteps handles GET /sessions/{session}/steps.
func (s *Server) GetSteps(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session.Session) (int, any, error) {
		return http.StatusOK, sess.Wizard.Indicators(), nil
	})
}

// SubmitStep handles POST /sessions/{session}/steps/{step}/submit.
func (s *Server) SubmitStep(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session.Session) (int, any, error) {
		sc, err := sess.Wizard.Context(chi.URLParam(r, "step"))
		if err != nil {
			return 0, nil, err
		}
		b, err := sc.OnSubmit(hydrationContext(r))
		if err != nil {
			return 0, nil, err
		}
		if err := wait(r, b); err != nil {
			return 0, nil, err
		}
		return http.StatusOK, viewSession(sess), nil
	})
}

// BackStep handles POST /sessions/{session}/steps/{step}/back.
func (s *Server) BackStep(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session.Session) (int, any, error) {
		sc, err := sess.Wizard.Context(chi.URLParam(r, "step"))
		if err != nil {
			return 0, nil, err
		}
		sc.OnBack(r.Context())
		return http.StatusOK, viewSession(sess), nil
	})
}

// SetStepStatus handles PUT /sessions/{session}/steps/{step}/status with
// {"loading", "error"}; omitted fields are left untouched.
func (s *Server) SetStepStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Loading *bool `json:"loading"`
		Error   *bool `json:"error"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *session.Session) (int, any, error) {
		sc, err := sess.Wizard.Context(chi.URLParam(r, "step"))
		if err != nil {
			return 0, nil, err
		}
		if body.Loading != nil {
			sc.SetIsLoading(*body.Loading)
		}
		if body.Error != nil {
			sc.SetHasError(*body.Error)
		}
		return http.StatusOK, sess.Wizard.Indicators(), nil
	})
}

// AddWarnings handles POST /sessions/{session}/warnings with {"warnings": [...]}.
func (s *Server) AddWarnings(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Warnings []string `json:"warnings"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *session.Session) (int, any, error) {
		sess.Wizard.DisplayWarnings(body.Warnings...)
		return http.StatusOK, sess.Wizard.Warnings(), nil
	})
}

// ClearWarnings handles DELETE /sessions/{session}/warnings.
func (s *Server) ClearWarnings(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session.Session) (int, any, error) {
		sess.Wizard.ClearWarnings()
		return http.StatusNoContent, nil, nil
	})
}

// DismissWarning handles POST /sessions/{session}/warnings/dismiss with {"warning"}.
func (s *Server) DismissWarning(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Warning string `json:"warning"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *session.Session) (int, any, error) {
		if !sess.Wizard.Dismiss(body.Warning) {
			return 0, nil, badRequest("no warning %q", body.Warning)
		}
		return http.StatusOK, sess.Wizard.Warnings(), nil
	})
}
