// Package server exposes the dashboard views and the analysis flows over
// HTTP, with a websocket for multi-turn chat.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Amritha902/infocruxapp/internal/chat"
	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/logger"
	"github.com/Amritha902/infocruxapp/internal/monitor"
	"github.com/Amritha902/infocruxapp/internal/search"
)

const shutdownTimeout = 10 * time.Second

// Deps are the services the handlers call. News and Monitor are optional;
// without them news comes from the store and the risk board is built by a
// monitor that never notifies.
type Deps struct {
	Store   interfaces.DataStore
	Analyst interfaces.Analyst
	News    search.NewsLister
	Monitor *monitor.Monitor
	// AllowedOrigins restricts websocket origins. Empty allows any origin.
	AllowedOrigins []string
}

// ServeConfig controls the listener.
type ServeConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	store    interfaces.DataStore
	analyst  interfaces.Analyst
	chat     *chat.Service
	news     search.NewsLister
	monitor  *monitor.Monitor
	searcher *search.Searcher
	upgrader websocket.Upgrader
	pongWait time.Duration
	mux      *http.ServeMux
}

func New(d Deps) *Server {
	s := &Server{
		store:    d.Store,
		analyst:  d.Analyst,
		chat:     chat.NewService(d.Store, d.Analyst),
		news:     d.News,
		monitor:  d.Monitor,
		pongWait: wsPongWait,
		mux:      http.NewServeMux(),
	}
	if s.news == nil {
		s.news = d.Store
	}
	if s.monitor == nil {
		s.monitor = monitor.New(d.Store, nil)
	}
	s.searcher = search.New(d.Store, s.news)
	s.upgrader = newUpgrader(d.AllowedOrigins)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	// Dashboard
	s.mux.HandleFunc("GET /api/portfolio", s.handlePortfolio)
	s.mux.HandleFunc("GET /api/watchlist", s.handleWatchlist)
	s.mux.HandleFunc("GET /api/announcements", s.handleAnnouncements)
	s.mux.HandleFunc("GET /api/announcements/{symbol}", s.handleAnnouncement)
	s.mux.HandleFunc("GET /api/stocks/{symbol}", s.handleStock)
	s.mux.HandleFunc("GET /api/news", s.handleNews)
	s.mux.HandleFunc("GET /api/risk-monitor", s.handleRiskMonitor)
	s.mux.HandleFunc("GET /api/search", s.handleSearch)

	// Flows
	s.mux.HandleFunc("POST /api/chat", s.handleChat)
	s.mux.HandleFunc("POST /api/summarize", s.handleSummarize)
	s.mux.HandleFunc("POST /api/explain-risk", s.handleExplainRisk)

	s.mux.HandleFunc("GET /ws/chat", s.handleChatSocket)
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	return withLogging(s.mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg ServeConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info(ctx, "Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
