// Package goldrate supplies the daily 24K gold rate per tola, reading
// through a cache in front of the database.
package goldrate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/chandanbounteous/goldscanner/internal/cache"
	"github.com/chandanbounteous/goldscanner/internal/repository"
)

var (
	// ErrRateUnavailable is returned when no rate is stored for the day.
	ErrRateUnavailable = errors.New("goldrate: rate unavailable")
	// ErrInvalidRate is returned for negative or non-finite rates.
	ErrInvalidRate = errors.New("goldrate: invalid rate")
)

// Store is the persistent source of daily rates.
type Store interface {
	Get(ctx context.Context, day time.Time) (repository.GoldRate, error)
	Upsert(ctx context.Context, day time.Time, rate24kPerTola float64) error
}

// Provider serves daily 24K gold rates, reading through the cache.
type Provider struct {
	store Store
	cache cache.GoldRateCache
	log   zerolog.Logger
	now   func() time.Time
}

// NewProvider returns a Provider over store and c.
func NewProvider(store Store, c cache.GoldRateCache, log zerolog.Logger) *Provider {
	if c == nil {
		c = cache.NewNoopGoldRateCache()
	}
	return &Provider{store: store, cache: c, log: log, now: time.Now}
}

// Rate returns the rate for day. Cache failures are logged and the
// database is used instead.
func (p *Provider) Rate(ctx context.Context, day time.Time) (float64, error) {
	entry, ok, err := p.cache.Get(ctx, day)
	if err != nil {
		p.log.Warn().Err(err).Time("day", day).Msg("gold rate cache read failed")
	}
	if ok {
		return entry.Rate24kPerTola, nil
	}

	rate, err := p.store.Get(ctx, day)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, fmt.Errorf("%w for %s", ErrRateUnavailable, day.Format(repository.DateLayout))
	}
	if err != nil {
		return 0, fmt.Errorf("load gold rate: %w", err)
	}

	if err := p.cache.Set(ctx, day, cache.GoldRateEntry{Rate24kPerTola: rate.Rate24kPerTola, UpdatedAt: rate.UpdatedAt}); err != nil {
		p.log.Warn().Err(err).Time("day", day).Msg("gold rate cache write failed")
	}
	return rate.Rate24kPerTola, nil
}

// Today returns the rate for the current day.
func (p *Provider) Today(ctx context.Context) (float64, error) {
	return p.Rate(ctx, p.now())
}

// TodayOrZero is Today with a missing or unreadable rate priced as 0.
func (p *Provider) TodayOrZero(ctx context.Context) float64 {
	rate, err := p.Today(ctx)
	if err != nil {
		p.log.Warn().Err(err).Msg("gold rate missing, pricing at 0")
		return 0
	}
	return rate
}

// SetRate stores the rate for day and drops any cached copy.
func (p *Provider) SetRate(ctx context.Context, day time.Time, rate24kPerTola float64) error {
	if math.IsNaN(rate24kPerTola) || math.IsInf(rate24kPerTola, 0) || rate24kPerTola < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRate, rate24kPerTola)
	}
	if err := p.store.Upsert(ctx, day, rate24kPerTola); err != nil {
		return fmt.Errorf("save gold rate: %w", err)
	}
	if err := p.cache.Invalidate(ctx, day); err != nil {
		p.log.Warn().Err(err).Time("day", day).Msg("gold rate cache invalidate failed")
	}
	p.log.Info().Str("day", day.Format(repository.DateLayout)).Float64("rate", rate24kPerTola).Msg("gold rate updated")
	return nil
}
