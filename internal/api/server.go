package api

import (
	"context"
	"net/http"
	"time"

	"matchsync/internal/collector"
	"matchsync/internal/db"
	"matchsync/internal/history"
	"matchsync/internal/riot"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// AccountLookup resolves a Riot ID to an account. *riot.Client satisfies it.
type AccountLookup interface {
	GetAccountByRiotID(ctx context.Context, routing, gameName, tagLine string) (*riot.AccountResponse, error)
}

// CountsSource reports table sizes. Both stores satisfy it.
type CountsSource interface {
	GetCounts(ctx context.Context) (db.Counts, error)
}

// Options wires the server's collaborators
type Options struct {
	Syncer          *collector.Syncer
	Reader          *history.Reader
	Accounts        AccountLookup
	Counts          CountsSource
	Locks           *collector.PlayerLocks
	DefaultPlatform string
	SyncTimeout     time.Duration
	CORSOrigins     []string
}

// Server is the HTTP API over the sync engine and history reader
type Server struct {
	syncer          *collector.Syncer
	reader          *history.Reader
	accounts        AccountLookup
	counts          CountsSource
	locks           *collector.PlayerLocks
	defaultPlatform string
	syncTimeout     time.Duration
	corsOrigins     []string
}

// New creates the API server
func New(opts Options) *Server {
	if opts.Locks == nil {
		opts.Locks = collector.NewPlayerLocks()
	}
	if opts.DefaultPlatform == "" {
		opts.DefaultPlatform = "na1"
	}
	if opts.SyncTimeout <= 0 {
		opts.SyncTimeout = 5 * time.Minute
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	return &Server{
		syncer:          opts.Syncer,
		reader:          opts.Reader,
		accounts:        opts.Accounts,
		counts:          opts.Counts,
		locks:           opts.Locks,
		defaultPlatform: opts.DefaultPlatform,
		syncTimeout:     opts.SyncTimeout,
		corsOrigins:     opts.CORSOrigins,
	}
}

// Handler returns the routed, CORS-wrapped handler
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Get("/stats", s.handleStats)

		api.Route("/players/{puuid}", func(p chi.Router) {
			p.Post("/sync", s.handleSync)
			p.Get("/matches", s.handleMatches)
			p.Get("/stats", s.handlePlayerStats)
		})

		api.Get("/matches/{matchId}", s.handleMatchDetail)
		api.Get("/accounts/{gameName}/{tagLine}", s.handleAccount)
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Riot-Token"},
	})
	return corsHandler.Handler(r)
}
