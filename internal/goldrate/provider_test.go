package goldrate

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chandanbounteous/goldscanner/internal/cache"
	"github.com/chandanbounteous/goldscanner/internal/repository"
)

type memStore struct {
	rates map[string]float64
	reads int
}

func (s *memStore) Get(_ context.Context, day time.Time) (repository.GoldRate, error) {
	s.reads++
	key := day.Format(repository.DateLayout)
	rate, ok := s.rates[key]
	if !ok {
		return repository.GoldRate{}, repository.ErrNotFound
	}
	return repository.GoldRate{Date: key, Rate24kPerTola: rate}, nil
}

func (s *memStore) Upsert(_ context.Context, day time.Time, rate float64) error {
	s.rates[day.Format(repository.DateLayout)] = rate
	return nil
}

type memCache struct {
	entries map[string]cache.GoldRateEntry
	failGet bool
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]cache.GoldRateEntry{}}
}

func (c *memCache) Get(_ context.Context, day time.Time) (cache.GoldRateEntry, bool, error) {
	if c.failGet {
		return cache.GoldRateEntry{}, false, errors.New("connection refused")
	}
	e, ok := c.entries[day.Format(repository.DateLayout)]
	return e, ok, nil
}

func (c *memCache) Set(_ context.Context, day time.Time, e cache.GoldRateEntry) error {
	c.entries[day.Format(repository.DateLayout)] = e
	return nil
}

func (c *memCache) Invalidate(_ context.Context, day time.Time) error {
	delete(c.entries, day.Format(repository.DateLayout))
	return nil
}

func (c *memCache) InvalidateAll(context.Context) error {
	c.entries = map[string]cache.GoldRateEntry{}
	return nil
}

func (c *memCache) Close() error { return nil }

var day = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func TestRate_ReadsThroughCache(t *testing.T) {
	ctx := context.Background()
	store := &memStore{rates: map[string]float64{"2024-05-01": 150000}}
	c := newMemCache()
	p := NewProvider(store, c, zerolog.Nop())

	for i := 0; i < 3; i++ {
		rate, err := p.Rate(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, 150000.0, rate)
	}
	assert.Equal(t, 1, store.reads)
	assert.Contains(t, c.entries, "2024-05-01")
}

func TestRate_Missing(t *testing.T) {
	p := NewProvider(&memStore{rates: map[string]float64{}}, nil, zerolog.Nop())

	_, err := p.Rate(context.Background(), day)
	assert.True(t, errors.Is(err, ErrRateUnavailable))
}

func TestTodayOrZero(t *testing.T) {
	p := NewProvider(&memStore{rates: map[string]float64{"2024-05-01": 152000}}, nil, zerolog.Nop())
	p.now = func() time.Time { return day }
	assert.Equal(t, 152000.0, p.TodayOrZero(context.Background()))

	p.now = func() time.Time { return day.AddDate(0, 0, 1) }
	assert.Equal(t, 0.0, p.TodayOrZero(context.Background()))
}

func TestRate_CacheFailureFallsBackToStore(t *testing.T) {
	store := &memStore{rates: map[string]float64{"2024-05-01": 150000}}
	c := newMemCache()
	c.failGet = true
	p := NewProvider(store, c, zerolog.Nop())

	rate, err := p.Rate(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 150000.0, rate)
}

func TestSetRate_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	store := &memStore{rates: map[string]float64{"2024-05-01": 150000}}
	p := NewProvider(store, newMemCache(), zerolog.Nop())

	_, err := p.Rate(ctx, day)
	require.NoError(t, err)

	require.NoError(t, p.SetRate(ctx, day, 155500))
	rate, err := p.Rate(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 155500.0, rate)
	assert.Equal(t, 2, store.reads)
}

func TestSetRate_RejectsInvalid(t *testing.T) {
	p := NewProvider(&memStore{rates: map[string]float64{}}, nil, zerolog.Nop())
	for _, v := range []float64{-1, math.NaN(), math.Inf(1)} {
		err := p.SetRate(context.Background(), day, v)
		assert.True(t, errors.Is(err, ErrInvalidRate))
	}
}
