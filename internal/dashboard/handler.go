// Package dashboard serves the assessment engine over HTTP: a JSON API, file
// exports and a WebSocket session that recomputes on every message.
package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"tankscope/internal/assessment"
	"tankscope/internal/config"
	"tankscope/internal/dataset"
	"tankscope/internal/report"
)

const maxBodyBytes = 64 << 10

// Handler is the HTTP handler for /healthz, /api/v1/* and /ws/assess.
type Handler struct {
	cfg   *config.AppConfig
	store *dataset.Store
	cache *assessment.Cache
	hub   *Hub
	mux   *http.ServeMux
}

// New creates a Handler and registers all routes.
func New(cfg *config.AppConfig, store *dataset.Store, cache *assessment.Cache) *Handler {
	h := &Handler{cfg: cfg, store: store, cache: cache, mux: http.NewServeMux()}
	h.hub = newHub(h.run)

	h.mux.HandleFunc("GET /{$}", h.index)
	h.mux.HandleFunc("GET /healthz", h.health)
	h.mux.HandleFunc("GET /api/v1/categories", h.categories)
	h.mux.HandleFunc("GET /api/v1/config", h.engineConfig)
	h.mux.HandleFunc("POST /api/v1/assess", h.assess)
	h.mux.HandleFunc("GET /api/v1/report.txt", h.reportText)
	h.mux.HandleFunc("GET /api/v1/report.csv", h.reportCSV)
	h.mux.HandleFunc("GET /api/v1/metrics", h.metrics)
	h.mux.Handle("GET /ws/assess", h.hub)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Hub returns the WebSocket session hub.
func (h *Handler) Hub() *Hub {
	return h.hub
}

var endpoints = []string{
	"GET  /healthz",
	"GET  /api/v1/categories",
	"GET  /api/v1/config",
	"POST /api/v1/assess",
	"GET  /api/v1/report.txt?<query>",
	"GET  /api/v1/report.csv?<query>",
	"GET  /api/v1/metrics?<query>",
	"WS   /ws/assess",
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, map[string]any{"service": "tankscope", "endpoints": endpoints})
}

type healthResponse struct {
	Status     string `json:"status"`
	Source     string `json:"source,omitempty"`
	Records    int    `json:"records"`
	Generation uint64 `json:"generation"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ds, gen := h.store.Current()
	if ds == nil {
		jsonResp(w, http.StatusServiceUnavailable, healthResponse{Status: "no dataset"})
		return
	}
	jsonResp(w, http.StatusOK, healthResponse{Status: "ok", Source: ds.Source, Records: ds.Len(), Generation: gen})
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	ds, _ := h.store.Current()
	if ds == nil {
		jsonErr(w, http.StatusServiceUnavailable, "no dataset loaded")
		return
	}
	jsonResp(w, http.StatusOK, ds.Categories)
}

func (h *Handler) engineConfig(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, h.cfg.Engine)
}

func (h *Handler) assess(w http.ResponseWriter, r *http.Request) {
	var req assessment.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	rep, code, err := h.run(req)
	if err != nil {
		jsonErr(w, code, err.Error())
		return
	}
	jsonResp(w, http.StatusOK, rep)
}

func (h *Handler) reportText(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.fromQuery(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="analysis_report.txt"`)
	if err := report.WriteText(w, rep); err != nil {
		log.Warn().Err(err).Msg("Failed to write text report")
	}
}

func (h *Handler) reportCSV(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.fromQuery(w, r)
	if !ok {
		return
	}
	if len(rep.Scenarios) == 0 {
		jsonErr(w, http.StatusUnprocessableEntity, "no scenario table: measured thickness is required")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="scenario_analysis.csv"`)
	if err := report.WriteScenarioCSV(w, rep.Scenarios, h.cfg.Engine.RemainingLifeCap); err != nil {
		log.Warn().Err(err).Msg("Failed to write scenario CSV")
	}
}

func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.fromQuery(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	if err := report.WriteMetrics(w, rep); err != nil {
		log.Warn().Err(err).Msg("Failed to write metrics")
	}
}

// fromQuery runs an assessment described by the URL query string. On failure
// it writes the error response and returns false.
func (h *Handler) fromQuery(w http.ResponseWriter, r *http.Request) (assessment.Report, bool) {
	req, err := ParseRequest(r.URL.Query())
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return assessment.Report{}, false
	}
	rep, code, err := h.run(req)
	if err != nil {
		jsonErr(w, code, err.Error())
		return assessment.Report{}, false
	}
	return rep, true
}

// run executes one assessment pass and maps failures to HTTP status codes.
func (h *Handler) run(req assessment.Request) (assessment.Report, int, error) {
	ds, gen := h.store.Current()
	if ds == nil {
		return assessment.Report{}, http.StatusServiceUnavailable, errors.New("no dataset loaded")
	}
	q, err := req.Query()
	if err != nil {
		return assessment.Report{}, http.StatusBadRequest, err
	}
	rep, err := assessment.Run(ds, gen, q, h.cfg.Engine, h.cache)
	if err != nil {
		if errors.Is(err, dataset.ErrUnknownCategory) {
			return assessment.Report{}, http.StatusBadRequest, err
		}
		return assessment.Report{}, http.StatusInternalServerError, err
	}
	return rep, http.StatusOK, nil
}

// ParseRequest reads an assessment request from URL query parameters named
// like the JSON fields of assessment.Request.
func ParseRequest(v url.Values) (assessment.Request, error) {
	req := assessment.Request{
		FilterRequest: assessment.FilterRequest{
			Material:           v.Get("material"),
			Product:            v.Get("product"),
			Shape:              v.Get("shape"),
			CathodicProtection: v.Get("cathodic_protection"),
			HeatingCoil:        v.Get("heating_coil"),
			Region:             v.Get("region"),
			AgeBin:             v.Get("age_bin"),
		},
		RateMode: v.Get("rate_mode"),
	}

	var err error
	for _, f := range []struct {
		name string
		dst  **float64
	}{
		{"design_thickness_mm", &req.DesignThickness},
		{"measured_thickness_mm", &req.MeasuredThickness},
		{"age_years", &req.Age},
		{"years_left", &req.YearsLeft},
	} {
		s := v.Get(f.name)
		if s == "" {
			continue
		}
		x, perr := strconv.ParseFloat(s, 64)
		if perr != nil {
			err = errors.Join(err, fmt.Errorf("%s: %q is not a number", f.name, s))
			continue
		}
		*f.dst = &x
	}
	if s := v.Get("seed"); s != "" {
		seed, perr := strconv.ParseUint(s, 10, 64)
		if perr != nil {
			err = errors.Join(err, fmt.Errorf("seed: %q is not an unsigned integer", s))
		}
		req.Seed = seed
	}
	if s := v.Get("top_n"); s != "" {
		n, perr := strconv.Atoi(s)
		if perr != nil {
			err = errors.Join(err, fmt.Errorf("top_n: %q is not an integer", s))
		}
		req.TopN = n
	}
	return req, err
}

type errorResponse struct {
	Error string `json:"error"`
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
