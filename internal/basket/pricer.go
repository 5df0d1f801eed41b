package basket

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/chandanbounteous/goldscanner/internal/article"
)

// Pricer prices stored articles at a common gold rate. Snapshots share
// nothing, so articles are priced concurrently.
type Pricer struct {
	engine  *article.Engine
	workers int
}

// NewPricer returns a Pricer using at most workers goroutines.
func NewPricer(engine *article.Engine, workers int) *Pricer {
	if workers < 1 {
		workers = 1
	}
	return &Pricer{engine: engine, workers: workers}
}

// PriceAll returns one snapshot per record, in input order.
func (p *Pricer) PriceAll(ctx context.Context, records []article.Record, goldRate24kPerTola float64) ([]article.Snapshot, error) {
	out := make([]article.Snapshot, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, rec := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = p.engine.FromRecord(rec, goldRate24kPerTola)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
