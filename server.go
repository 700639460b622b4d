package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handler serves dashboard payloads from a QueryService over HTTP, plus a
// projected view built the same way the terminal dashboard builds it.
type Handler struct {
	Service QueryService
	Links   LinkConfig
	Log     zerolog.Logger
}

func NewHandler(service QueryService, links LinkConfig, logger zerolog.Logger) *Handler {
	return &Handler{
		Service: service,
		Links:   links,
		Log:     logger,
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/health", h.health)
	r.Route("/api/records/{recordID}", func(r chi.Router) {
		r.Get("/", h.initial)
		r.Get("/scope", h.scoped)
		r.Get("/view", h.view)
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) initial(w http.ResponseWriter, r *http.Request) {
	payload, err := h.Service.InitialData(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) scoped(w http.ResponseWriter, r *http.Request) {
	payload, err := h.Service.DataForBAC(r.Context(), chi.URLParam(r, "recordID"), r.URL.Query().Get("bac"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// viewResponse is the projected view plus the message of a failed
// re-scope, in which case the view still shows the initial payload.
type viewResponse struct {
	DashboardView
	Error string `json:"error,omitempty"`
}

// view runs one dashboard session per request: initial load, then a
// re-scope when ?bac= is given. Only a failed initial load is an error
// response.
func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	d := NewDashboard(chi.URLParam(r, "recordID"), h.Service, nil, nil, h.Links, h.Log)
	if err := d.LoadInitial(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	var resp viewResponse
	if bac := r.URL.Query().Get("bac"); bac != "" {
		d.SelectBAC(bac)
		if err := d.Go(r.Context()); err != nil {
			h.Log.Warn().Err(err).Str("bac", bac).Msg("rescope failed, serving initial view")
			resp.Error = ErrorMessage(err)
		}
	}
	resp.DashboardView = d.View()
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	var fe *FetchError
	if errors.As(err, &fe) && fe.Status != 0 {
		status = fe.Status
	}
	h.Log.Warn().Err(err).Int("status", status).Msg("request failed")
	writeJSON(w, status, ErrorBody{Message: ErrorMessage(err)})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.Log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
