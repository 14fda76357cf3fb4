// Package endpoints serves the harvester's admin http surface: health,
// stats and the latest scheduler report.
package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"

	"github.com/4rg0n/bitburner-sub000/common/stats"
)

const shutdownTimeout = 5 * time.Second

type StatScope string

// MakeStatsReceiver returns a latched receiver so /admin/metrics.json renders
// stable snapshots between scrapes.
func MakeStatsReceiver(scope StatScope) (stats.StatsReceiver, func()) {
	s, cancelFn := stats.NewCustomStatsReceiver(stats.NewFlatStatsRegistry, 15*time.Second)
	return s.Scope(string(scope)).Precision(time.Millisecond), cancelFn
}

// StatusHolder keeps the most recent status snapshot published by the scheduler loop.
type StatusHolder struct {
	mu     sync.RWMutex
	status interface{}
	at     time.Time
}

func (h *StatusHolder) Set(status interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = status
	h.at = time.Now()
}

// Get returns the latest snapshot and when it was published, or false if none was.
func (h *StatusHolder) Get() (interface{}, time.Time, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status, h.at, h.status != nil
}

type AdminServer struct {
	Addr     string
	MaxConns int
	Stats    stats.StatsReceiver
	Status   *StatusHolder
}

func NewAdminServer(addr string, maxConns int, stat stats.StatsReceiver, status *StatusHolder) *AdminServer {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}
	if status == nil {
		status = &StatusHolder{}
	}
	return &AdminServer{Addr: addr, MaxConns: maxConns, Stats: stat, Status: status}
}

func (s *AdminServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", helpHandler)
	r.Get("/health", healthHandler)
	r.Get("/admin/metrics.json", s.statsHandler)
	r.Get("/status", s.statusHandler)
	return r
}

// Serve blocks until ctx is canceled or the listener fails.
func (s *AdminServer) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

func (s *AdminServer) ServeListener(ctx context.Context, ln net.Listener) error {
	if s.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.MaxConns)
	}
	server := &http.Server{Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()
	log.WithFields(
		log.Fields{
			"addr":     ln.Addr().String(),
			"maxConns": s.MaxConns,
		}).Info("Serving http & stats")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

func helpHandler(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Common paths: '/health', '/admin/metrics.json', '/status'", http.StatusNotImplemented)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "ok")
}

func (s *AdminServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	pretty := r.URL.Query().Get("pretty") == "true"
	if _, err := w.Write(s.Stats.Render(pretty)); err != nil {
		log.Warnf("writing stats: %v", err)
	}
}

func (s *AdminServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	status, at, ok := s.Status.Get()
	if !ok {
		http.Error(w, "no scheduler step completed yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", at.UTC().Format(http.TimeFormat))
	enc := json.NewEncoder(w)
	if r.URL.Query().Get("pretty") == "true" {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(status); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
