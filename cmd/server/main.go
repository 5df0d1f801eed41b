package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/chandanbounteous/goldscanner/internal/article"
	"github.com/chandanbounteous/goldscanner/internal/auth"
	"github.com/chandanbounteous/goldscanner/internal/basket"
	"github.com/chandanbounteous/goldscanner/internal/cache"
	"github.com/chandanbounteous/goldscanner/internal/config"
	"github.com/chandanbounteous/goldscanner/internal/db"
	"github.com/chandanbounteous/goldscanner/internal/draft"
	"github.com/chandanbounteous/goldscanner/internal/goldrate"
	"github.com/chandanbounteous/goldscanner/internal/migrations"
	"github.com/chandanbounteous/goldscanner/internal/receipt"
	"github.com/chandanbounteous/goldscanner/internal/repository"
	"github.com/chandanbounteous/goldscanner/internal/seed"
	"github.com/chandanbounteous/goldscanner/pkg/logger"
)

const draftIdleTimeout = 2 * time.Hour

type server struct {
	auth      *auth.Service
	engine    *article.Engine
	drafts    *draft.Store
	articles  *repository.Articles
	customers *repository.Customers
	baskets   *basket.Service
	rates     *goldrate.Provider
	receipts  *receipt.Formatter
	log       zerolog.Logger
}

func newServer(database *sqlx.DB, cfg config.Config, rateCache cache.GoldRateCache, log zerolog.Logger) (*server, error) {
	receipts, err := receipt.NewFormatter(cfg.ReceiptLocale, cfg.Currency)
	if err != nil {
		return nil, err
	}

	engine := article.NewEngine(log.With().Str("component", "engine").Logger())
	articles := repository.NewArticles(database)
	customers := repository.NewCustomers(database)
	rates := goldrate.NewProvider(repository.NewGoldRates(database), rateCache, log.With().Str("component", "goldrate").Logger())
	pricer := basket.NewPricer(engine, cfg.PricingWorkers)

	return &server{
		auth:      auth.NewService(repository.NewUsers(database), cfg.SessionSecret),
		engine:    engine,
		drafts:    draft.NewStore(),
		articles:  articles,
		customers: customers,
		baskets:   basket.NewService(repository.NewBaskets(database), articles, customers, rates, pricer, log.With().Str("component", "basket").Logger()),
		rates:     rates,
		receipts:  receipts,
		log:       log,
	}, nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireSession)

		r.Get("/gold-rates/{date}", s.handleGetGoldRate)
		r.Put("/gold-rates/{date}", s.handlePutGoldRate)

		r.Post("/drafts", s.handleCreateDraft)
		r.Get("/drafts/{id}", s.handleGetDraft)
		r.Patch("/drafts/{id}/fields/{field}", s.handleUpdateDraftField)
		r.Post("/drafts/{id}/recalculate", s.handleRecalculateDraft)
		r.Post("/drafts/{id}/refresh-rate", s.handleRefreshDraftRate)
		r.Post("/drafts/{id}/save", s.handleSaveDraft)
		r.Delete("/drafts/{id}", s.handleDeleteDraft)

		r.Get("/articles/{code}", s.handleGetArticle)

		r.Post("/customers", s.handleCreateCustomer)
		r.Get("/customers", s.handleSearchCustomers)

		r.Post("/baskets", s.handleCreateBasket)
		r.Get("/baskets/{id}", s.handleGetBasket)
		r.Post("/baskets/{id}/articles", s.handleAddBasketArticle)
		r.Patch("/baskets/{id}/adjustments", s.handleSetBasketAdjustments)
		r.Post("/baskets/{id}/close", s.handleCloseBasket)
		r.Get("/baskets/{id}/text", s.handleBasketText)
	})

	return r
}

// expireDrafts drops abandoned drafts until ctx is done.
func (s *server) expireDrafts(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.drafts.Expire(now.Add(-draftIdleTimeout)); n > 0 {
				s.log.Info().Int("count", n).Msg("expired idle drafts")
			}
		}
	}
}

// dropCachedRates clears rates cached by an earlier run, so seeded or
// restored rates are read from the database.
func dropCachedRates(ctx context.Context, c cache.GoldRateCache, log zerolog.Logger) {
	if err := c.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("could not clear cached gold rates")
	}
}

func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)
	log := logger.Log

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(database.DB); err != nil {
			log.Fatal().Err(err).Msg("failed to run database migrations")
		}
	}

	stats, err := seed.Run(database, seed.Config{
		AdminEmail:     cfg.AdminEmail,
		AdminPassword:  cfg.AdminPassword,
		GoldRate:       cfg.OpeningGoldRate,
		SampleArticles: cfg.IsDev(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed database")
	}
	log.Info().Int("inserts", stats.Inserts).Int("updates", stats.Updates).Msg("seed complete")

	rateCache, err := cache.NewGoldRateCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("gold rate cache unavailable, continuing without it")
		rateCache = cache.NewNoopGoldRateCache()
	}
	defer rateCache.Close()
	dropCachedRates(context.Background(), rateCache, log)

	srv, err := newServer(database, cfg, rateCache, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go srv.expireDrafts(ctx, 10*time.Minute)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", httpServer.Addr).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
