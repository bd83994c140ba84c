package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"QuoteBoard/internal/metrics"
	"QuoteBoard/internal/model"
	"QuoteBoard/internal/scheduler"
)

//go:embed static/index.html
var static embed.FS

// Controller is the part of the polling loop the dashboard talks to.
type Controller interface {
	Rules() []model.AlertRule
	SetRule(symbol string, threshold float64) error
	Status() scheduler.Status
}

// Server exposes the dashboard over HTTP.
type Server struct {
	Hub     *Hub
	Control Controller
	Metrics *metrics.Metrics
	// StaleAfter marks /healthz unhealthy when no frame was rendered for
	// this long. Zero disables the check.
	StaleAfter time.Duration

	srv *http.Server
}

// NewServer creates a dashboard server listening on addr.
func NewServer(addr string, hub *Hub, ctrl Controller, m *metrics.Metrics, staleAfter time.Duration) *Server {
	s := &Server{Hub: hub, Control: ctrl, Metrics: m, StaleAfter: staleAfter}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the dashboard routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ws", s.Hub.ServeWS)
	mux.HandleFunc("GET /api/frame", s.handleFrame)
	mux.HandleFunc("GET /api/alerts", s.handleListAlerts)
	mux.HandleFunc("PUT /api/alerts/{symbol}", s.handleSetAlert)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.Metrics.Handler())
	return mux
}

// ListenAndServe blocks serving HTTP until Shutdown is called.
func (s *Server) ListenAndServe() error {
	log.Printf("[INFO] dashboard listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	f := s.Hub.Latest()
	if f == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no frame rendered yet"})
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Control.Rules())
}

func (s *Server) handleSetAlert(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	var body struct {
		Threshold float64 `json:"threshold"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body: " + err.Error()})
		return
	}
	if err := s.Control.SetRule(symbol, body.Threshold); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, scheduler.ErrUnknownSymbol) {
			code = http.StatusNotFound
		}
		writeJSON(w, code, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, model.AlertRule{Symbol: symbol, Threshold: body.Threshold})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.Control.Status()
	health := struct {
		Status  string           `json:"status"`
		Loop    scheduler.Status `json:"loop"`
		Age     string           `json:"age,omitempty"`
		Clients int              `json:"clients"`
	}{Status: "healthy", Loop: st, Clients: s.Hub.Clients()}

	code := http.StatusOK
	switch {
	case st.LastUpdate.IsZero():
		health.Status = "starting"
	default:
		age := time.Since(st.LastUpdate)
		health.Age = age.Round(time.Second).String()
		if s.StaleAfter > 0 && age > s.StaleAfter {
			health.Status = "stale"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, health)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] encode response: %v", err)
	}
}
