package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"tally/internal/cache"
	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/metrics"
	"tally/internal/services"
	appweb "tally/web"
)

// Server wires the ledger and aggregation services to the HTML/CSV/JSON
// boundary. It owns no domain logic; failures from the services are
// translated into user-facing responses here.
type Server struct {
	http.Server
	templates *template.Template
	ledger    *services.Ledger
	agg       *services.Aggregator
	collector *metrics.Collector
	logger    *applog.Logger
	limiter   *rateLimiter
	dbName    string

	// Month summaries are cheap to cache and expensive to recompute twelve
	// at a time on every dashboard load. Any mutation purges both caches.
	summaryCache  *cache.LRU[core.Summary]
	trailingCache *cache.LRU[[]core.MonthSummary]

	shutdownOnce sync.Once
}

// Options carries the optional knobs for NewServer.
type Options struct {
	// RateLimitPerMinute caps mutating requests per client IP. Zero means
	// the default of 60.
	RateLimitPerMinute int
	// DBName is displayed in the page footer, like the original tracker
	// showed its database file.
	DBName string
	// Logger defaults to a component-scoped text logger when nil.
	Logger *applog.Logger
	// Collector enables Prometheus instrumentation when non-nil.
	Collector *metrics.Collector
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(addr string, ledger *services.Ledger, agg *services.Aggregator, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}
	limit := opts.RateLimitPerMinute
	if limit <= 0 {
		limit = 60
	}

	r := mux.NewRouter()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: r,
		},
		ledger:        ledger,
		agg:           agg,
		collector:     opts.Collector,
		logger:        logger,
		limiter:       newRateLimiter(limit),
		dbName:        opts.DBName,
		summaryCache:  cache.NewLRU[core.Summary](100, 5*time.Minute),
		trailingCache: cache.NewLRU[[]core.MonthSummary](20, 5*time.Minute),
	}

	t, err := template.New("").Funcs(template.FuncMap{
		"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.PathPrefix("/static/").Handler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, req)
		}))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/add", s.handleAdd).Methods(http.MethodPost)
	r.HandleFunc("/edit/{id:[0-9]+}", s.handleEditForm).Methods(http.MethodGet)
	r.HandleFunc("/edit/{id:[0-9]+}", s.handleEditSubmit).Methods(http.MethodPost)
	r.HandleFunc("/delete/{id:[0-9]+}", s.handleDelete).Methods(http.MethodPost)
	r.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	r.HandleFunc("/api/summary/{year:[0-9]+}/{month:[0-9]+}", s.handleSummaryAPI).Methods(http.MethodGet)
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", handleReady).Methods(http.MethodGet)
	if s.collector != nil {
		r.Handle("/metrics", s.collector.Handler()).Methods(http.MethodGet)
	}

	r.Use(s.withObservability)

	return s
}

// Shutdown stops the rate limiter's cleanup goroutine, then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// invalidateSummaries drops all cached aggregates. Called on every mutation
// since one ledger change can move totals in any month.
func (s *Server) invalidateSummaries() {
	s.summaryCache.Purge()
	s.trailingCache.Purge()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
