// Package httpapi hosts authflow forms over HTTP. Each browser form mounts
// its own flow instance, drives it with JSON posts and polls the flow's
// outbox for notifications and navigations.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MrEthical07/authflow"
	"github.com/MrEthical07/authflow/idp"
	"github.com/MrEthical07/authflow/notify"
	"github.com/MrEthical07/authflow/site"
)

// Config bounds the flows a Handler keeps alive.
type Config struct {
	MaxFlows       int
	FlowTTL        time.Duration
	RequestTimeout time.Duration
}

// DefaultConfig returns the host defaults.
func DefaultConfig() Config {
	return Config{
		MaxFlows:       1024,
		FlowTTL:        30 * time.Minute,
		RequestTimeout: 45 * time.Second,
	}
}

// Handler serves the flow API and the site route table.
type Handler struct {
	engine *authflow.Engine
	logger *slog.Logger
	config Config
	flows  *registry
	now    func() time.Time
}

// New creates a Handler over engine.
func New(engine *authflow.Engine, logger *slog.Logger, cfg Config) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine: engine,
		logger: logger.With("component", "httpapi"),
		config: cfg,
		flows:  newRegistry(cfg.MaxFlows),
		now:    time.Now,
	}
}

// Router returns the full HTTP surface.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	h.Register(r)
	r.NotFound(h.handleSiteRoute)
	return r
}

// Register mounts the flow API on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/flows", func(r chi.Router) {
		if h.config.RequestTimeout > 0 {
			r.Use(middleware.Timeout(h.config.RequestTimeout))
		}
		r.Post("/", h.handleMount)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Delete("/", h.handleUnmount)
			r.Post("/login", h.handleLogin)
			r.Post("/federated", h.handleFederated)
			r.Post("/resend", h.handleResend)
			r.Post("/register", h.handleRegister)
			r.Post("/open", h.handleOpen)
			r.Post("/logout/request", h.handleLogoutStep(stepRequest))
			r.Post("/logout/confirm", h.handleLogoutStep(stepConfirm))
			r.Post("/logout/cancel", h.handleLogoutStep(stepCancel))
		})
	})
}

// Sweep closes flows older than the configured TTL every interval until ctx
// is done.
func (h *Handler) Sweep(ctx context.Context, interval time.Duration) error {
	if h.config.FlowTTL <= 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			for _, m := range h.flows.expired(h.now().Add(-h.config.FlowTTL)) {
				m.close()
				h.logger.InfoContext(ctx, "expired flow closed", "flow_id", m.id.String(), "flow", m.kind)
			}
		}
	}
}

// Close unmounts every flow.
func (h *Handler) Close() {
	for _, m := range h.flows.drain() {
		m.close()
	}
}

type mountRequest struct {
	Kind    string          `json:"kind"`
	Session *sessionRequest `json:"session,omitempty"`
}

type sessionRequest struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	IDToken      string    `json:"id_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Provider     string    `json:"provider,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

type flowResponse struct {
	ID            uuid.UUID             `json:"id"`
	Kind          string                `json:"kind"`
	State         authflow.FlowState    `json:"state"`
	Notifications []notify.Notification `json:"notifications"`
	Navigations   []site.Navigation     `json:"navigations"`
}

func (h *Handler) respond(w http.ResponseWriter, status int, m *mounted) {
	notes := m.notes.Drain()
	if notes == nil {
		notes = []notify.Notification{}
	}
	nav := m.nav.Drain()
	if nav == nil {
		nav = []site.Navigation{}
	}
	writeJSON(w, status, flowResponse{
		ID:            m.id,
		Kind:          m.kind,
		State:         m.state(),
		Notifications: notes,
		Navigations:   nav,
	})
}

func (h *Handler) handleMount(w http.ResponseWriter, r *http.Request) {
	var req mountRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if h.flows.full() {
		writeFlowError(w, errTooManyFlows)
		return
	}

	m := &mounted{
		kind:    req.Kind,
		created: h.now(),
		notes:   &notify.Recorder{},
		nav:     &site.Recorder{},
	}
	opts := []authflow.FlowOption{
		authflow.WithFlowNotifier(m.notes),
		authflow.WithFlowNavigator(m.nav),
	}

	var err error
	switch req.Kind {
	case "login":
		m.login, err = h.engine.NewLoginFlow(opts...)
		if err == nil {
			m.id = m.login.ID()
		}
	case "register":
		m.register, err = h.engine.NewRegisterFlow(opts...)
		if err == nil {
			m.id = m.register.ID()
		}
	case "logout":
		var s *authflow.Session
		if req.Session != nil {
			s = &authflow.Session{
				UserID:       req.Session.UserID,
				Email:        req.Session.Email,
				IDToken:      req.Session.IDToken,
				RefreshToken: req.Session.RefreshToken,
				Provider:     req.Session.Provider,
				ExpiresAt:    req.Session.ExpiresAt,
			}
		}
		m.logout, err = h.engine.NewLogoutFlow(s, opts...)
		if err == nil {
			m.id = m.logout.ID()
		}
	default:
		writeError(w, http.StatusBadRequest, "unknown_flow_kind", "kind must be login, register or logout")
		return
	}
	if err != nil {
		writeFlowError(w, err)
		return
	}

	if err := h.flows.add(m); err != nil {
		m.close()
		writeFlowError(w, err)
		return
	}
	h.logger.DebugContext(r.Context(), "flow mounted", "flow_id", m.id.String(), "flow", m.kind)
	h.respond(w, http.StatusCreated, m)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*mounted, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "flow_not_found", "unknown flow id")
		return nil, false
	}
	m, err := h.flows.get(id)
	if err != nil {
		writeFlowError(w, err)
		return nil, false
	}
	return m, true
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.respond(w, http.StatusOK, m)
}

func (h *Handler) handleUnmount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "flow_not_found", "unknown flow id")
		return
	}
	m, err := h.flows.remove(id)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	m.close()
	w.WriteHeader(http.StatusNoContent)
}

// finish writes the outcome of a flow operation.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, m *mounted, err error) {
	if err != nil {
		h.logger.DebugContext(r.Context(), "flow operation rejected", "flow_id", m.id.String(), "error", err)
		writeFlowError(w, err)
		return
	}
	h.respond(w, http.StatusOK, m)
}

func wrongKind(w http.ResponseWriter, m *mounted) {
	writeError(w, http.StatusBadRequest, "unsupported_operation", "operation not supported by "+m.kind+" flow")
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if m.login == nil {
		wrongKind(w, m)
		return
	}
	var req credentialsRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	_, err := m.login.SubmitCredentials(r.Context(), req.Email, req.Password)
	h.finish(w, r, m, err)
}

func (h *Handler) handleResend(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if m.login == nil {
		wrongKind(w, m)
		return
	}
	var req credentialsRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	_, err := m.login.ResendVerification(r.Context(), req.Email, req.Password)
	h.finish(w, r, m, err)
}

type federatedRequest struct {
	Provider    string `json:"provider"`
	IDToken     string `json:"id_token,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

func (h *Handler) handleFederated(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req federatedRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	provider, err := idp.ParseProvider(req.Provider)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_provider", err.Error())
		return
	}
	ctx := idp.WithProviderCredential(r.Context(), idp.ProviderCredential{
		IDToken:     req.IDToken,
		AccessToken: req.AccessToken,
	})
	switch {
	case m.login != nil:
		_, err = m.login.SubmitFederated(ctx, provider)
	case m.register != nil:
		_, err = m.register.SubmitFederated(ctx, provider)
	default:
		wrongKind(w, m)
		return
	}
	h.finish(w, r, m, err)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if m.register == nil {
		wrongKind(w, m)
		return
	}
	var draft authflow.RegistrationDraft
	if err := decode(w, r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	_, err := m.register.Submit(r.Context(), draft)
	h.finish(w, r, m, err)
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	m, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var err error
	switch {
	case m.login != nil:
		err = m.login.OpenRegistration(r.Context())
	case m.register != nil:
		err = m.register.OpenLogin(r.Context())
	default:
		wrongKind(w, m)
		return
	}
	h.finish(w, r, m, err)
}

type logoutStep uint8

const (
	stepRequest logoutStep = iota
	stepConfirm
	stepCancel
)

func (h *Handler) handleLogoutStep(step logoutStep) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, ok := h.lookup(w, r)
		if !ok {
			return
		}
		if m.logout == nil {
			wrongKind(w, m)
			return
		}
		var err error
		switch step {
		case stepRequest:
			_, err = m.logout.RequestLogout(r.Context())
		case stepConfirm:
			_, err = m.logout.ConfirmLogout(r.Context())
		case stepCancel:
			_, err = m.logout.CancelLogout(r.Context())
		}
		h.finish(w, r, m, err)
	}
}

type routeResponse struct {
	Route site.Route `json:"route"`
	Path  string     `json:"path"`
	Title string     `json:"title,omitempty"`
}

// handleSiteRoute resolves any other GET against the site route table.
// Unknown paths answer 404 with the not-found route.
func (h *Handler) handleSiteRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method)
		return
	}
	route := site.Lookup(r.URL.Path)
	if route == site.RouteNotFound {
		writeJSON(w, http.StatusNotFound, routeResponse{Route: route, Path: r.URL.Path, Title: "Page not found"})
		return
	}
	for _, e := range site.Table {
		if e.Route == route {
			writeJSON(w, http.StatusOK, routeResponse{Route: e.Route, Path: e.Path, Title: e.Title})
			return
		}
	}
}
