package basket

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/chandanbounteous/goldscanner/internal/article"
	"github.com/chandanbounteous/goldscanner/internal/repository"
)

var (
	// ErrBasketClosed is returned when a closed basket is modified.
	ErrBasketClosed = errors.New("basket: basket is closed")
	// ErrInvalidAdjustment is returned for negative or non-finite adjustments.
	ErrInvalidAdjustment = errors.New("basket: invalid adjustment")
)

// Store persists baskets.
type Store interface {
	Create(ctx context.Context, customerID int64) (repository.Basket, error)
	Get(ctx context.Context, id int64) (repository.Basket, error)
	AddArticle(ctx context.Context, basketID, articleID int64) error
	Articles(ctx context.Context, basketID int64) ([]repository.Article, error)
	SetAdjustments(ctx context.Context, id int64, oldGoldItemCost, extraDiscount float64) error
	SetStatus(ctx context.Context, id int64, status string) error
}

// ArticleFinder looks up stored articles by code.
type ArticleFinder interface {
	ByCode(ctx context.Context, code string) (repository.Article, error)
}

// CustomerFinder looks up customers by ID.
type CustomerFinder interface {
	Get(ctx context.Context, id int64) (repository.Customer, error)
}

// RateSource supplies today's gold rate, or 0 when none is set.
type RateSource interface {
	TodayOrZero(ctx context.Context) float64
}

// Line is one priced article of a basket.
type Line struct {
	ArticleID     int64   `json:"article_id"`
	ArticleCode   string  `json:"article_code"`
	Karat         int     `json:"karat"`
	NetWeight     float64 `json:"net_weight"`
	GrossWeight   float64 `json:"gross_weight"`
	Wastage       float64 `json:"wastage"`
	TotalWeight   float64 `json:"total_weight"`
	Cost          float64 `json:"cost"`
	MakingCharge  float64 `json:"making_charge"`
	CostBeforeTax float64 `json:"cost_before_tax"`
	LuxuryTax     float64 `json:"luxury_tax"`
	CostAfterTax  float64 `json:"cost_after_tax"`
	AddOnCost     float64 `json:"add_on_cost"`
	FinalCost     float64 `json:"final_cost"`
}

// Detail is a basket priced at the current gold rate.
type Detail struct {
	Basket   repository.Basket   `json:"basket"`
	Customer repository.Customer `json:"customer"`
	GoldRate float64             `json:"gold_rate_24k_per_tola"`
	Lines    []Line              `json:"lines"`
	Totals   Totals              `json:"totals"`
}

// Service prices baskets and applies basket-level changes.
type Service struct {
	baskets   Store
	articles  ArticleFinder
	customers CustomerFinder
	rates     RateSource
	pricer    *Pricer
	log       zerolog.Logger
}

// NewService wires a basket Service.
func NewService(baskets Store, articles ArticleFinder, customers CustomerFinder, rates RateSource, pricer *Pricer, log zerolog.Logger) *Service {
	return &Service{
		baskets:   baskets,
		articles:  articles,
		customers: customers,
		rates:     rates,
		pricer:    pricer,
		log:       log,
	}
}

// Create opens an empty basket for an existing customer.
func (s *Service) Create(ctx context.Context, customerID int64) (repository.Basket, error) {
	if _, err := s.customers.Get(ctx, customerID); err != nil {
		return repository.Basket{}, err
	}
	b, err := s.baskets.Create(ctx, customerID)
	if err != nil {
		s.log.Error().Err(err).Int64("customer_id", customerID).Msg("create basket failed")
		return repository.Basket{}, err
	}
	return b, nil
}

// Detail loads the basket and prices every article at today's rate.
func (s *Service) Detail(ctx context.Context, id int64) (Detail, error) {
	b, err := s.baskets.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	customer, err := s.customers.Get(ctx, b.CustomerID)
	if err != nil {
		return Detail{}, fmt.Errorf("load basket customer: %w", err)
	}
	stored, err := s.baskets.Articles(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	rate := s.rates.TodayOrZero(ctx)
	records := make([]article.Record, len(stored))
	for i, a := range stored {
		records[i] = a.Record
	}
	snapshots, err := s.pricer.PriceAll(ctx, records, rate)
	if err != nil {
		return Detail{}, fmt.Errorf("price basket %d: %w", id, err)
	}

	lines := make([]Line, len(snapshots))
	var originalPreTax, addOn float64
	for i, snap := range snapshots {
		lines[i] = newLine(stored[i].ID, snap)
		originalPreTax += snap.CostBeforeTax
		addOn += snap.AddOnCost
	}

	return Detail{
		Basket:   b,
		Customer: customer,
		GoldRate: rate,
		Lines:    lines,
		Totals:   ComputeTotals(originalPreTax, b.OldGoldItemCost, b.ExtraDiscount, addOn),
	}, nil
}

// AddArticle puts the article with code into an open basket.
func (s *Service) AddArticle(ctx context.Context, id int64, code string) (Detail, error) {
	b, err := s.baskets.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	if b.Status == repository.BasketClosed {
		return Detail{}, ErrBasketClosed
	}
	a, err := s.articles.ByCode(ctx, code)
	if err != nil {
		return Detail{}, err
	}
	if err := s.baskets.AddArticle(ctx, id, a.ID); err != nil {
		return Detail{}, err
	}
	return s.Detail(ctx, id)
}

// SetAdjustments stores the trade-in credit and extra discount and returns
// the recomputed detail.
func (s *Service) SetAdjustments(ctx context.Context, id int64, oldGoldCredit, extraDiscount float64) (Detail, error) {
	if !nonNegative(oldGoldCredit) {
		return Detail{}, fmt.Errorf("%w: old gold item cost must be a non-negative number", ErrInvalidAdjustment)
	}
	if !nonNegative(extraDiscount) {
		return Detail{}, fmt.Errorf("%w: extra discount must be a non-negative number", ErrInvalidAdjustment)
	}

	b, err := s.baskets.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	if b.Status == repository.BasketClosed {
		return Detail{}, ErrBasketClosed
	}
	if err := s.baskets.SetAdjustments(ctx, id, oldGoldCredit, extraDiscount); err != nil {
		s.log.Error().Err(err).Int64("basket_id", id).Msg("save basket adjustments failed")
		return Detail{}, err
	}
	return s.Detail(ctx, id)
}

// Close marks the basket as sold. Closing twice is not an error.
func (s *Service) Close(ctx context.Context, id int64) (Detail, error) {
	if err := s.baskets.SetStatus(ctx, id, repository.BasketClosed); err != nil {
		return Detail{}, err
	}
	return s.Detail(ctx, id)
}

func newLine(articleID int64, s article.Snapshot) Line {
	return Line{
		ArticleID:     articleID,
		ArticleCode:   s.ArticleCode,
		Karat:         int(s.Karat),
		NetWeight:     s.NetWeight,
		GrossWeight:   s.GrossWeight,
		Wastage:       s.Wastage,
		TotalWeight:   s.TotalWeight,
		Cost:          s.Cost,
		MakingCharge:  s.MakingCharge,
		CostBeforeTax: s.CostBeforeTax,
		LuxuryTax:     s.LuxuryTax,
		CostAfterTax:  s.CostAfterTax,
		AddOnCost:     s.AddOnCost,
		FinalCost:     s.FinalCost,
	}
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
