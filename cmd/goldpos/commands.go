package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/chandanbounteous/goldscanner/internal/article"
	"github.com/chandanbounteous/goldscanner/internal/basket"
	"github.com/chandanbounteous/goldscanner/internal/cache"
	"github.com/chandanbounteous/goldscanner/internal/config"
	"github.com/chandanbounteous/goldscanner/internal/goldrate"
	"github.com/chandanbounteous/goldscanner/internal/migrations"
	"github.com/chandanbounteous/goldscanner/internal/repository"
	"github.com/chandanbounteous/goldscanner/internal/seed"
	"github.com/chandanbounteous/goldscanner/pkg/logger"
)

// priceInputs lists the price flags in the order they are applied. Add-on
// cost goes before gross weight: it recomputes gross weight and decides
// whether gross may exceed net.
var priceInputs = []struct {
	flag  string
	field article.Field
	usage string
}{
	{"rate", article.GoldRate, "24K gold rate per tola"},
	{"karat", article.Karat, "purity: 14, 18, 22 or 24"},
	{"net-weight", article.NetWeight, "net weight in grams"},
	{"add-on", article.AddOnCost, "untaxed add-on cost"},
	{"gross-weight", article.GrossWeight, "gross weight in grams"},
	{"discount", article.Discount, "discount before tax"},
	{"wastage", article.Wastage, "manual wastage in grams"},
	{"making-charge", article.MakingCharge, "manual making charge"},
	{"code", article.ArticleCode, "article code, e.g. RNG0001"},
}

func priceCommand() *cli.Command {
	flags := make([]cli.Flag, 0, len(priceInputs))
	for _, in := range priceInputs {
		flags = append(flags, &cli.StringFlag{Name: in.flag, Usage: in.usage})
	}

	return &cli.Command{
		Name:   "price",
		Usage:  "Price a single article and print every field",
		Flags:  flags,
		Action: runPrice,
	}
}

func runPrice(c *cli.Context) error {
	engine := article.NewEngine(logger.Component("engine"))
	snap := article.New(0)
	for _, in := range priceInputs {
		if !c.IsSet(in.flag) {
			continue
		}
		snap, _ = engine.ApplyRaw(snap, in.field, c.String(in.flag))
	}

	w := c.App.Writer
	for _, f := range article.Fields() {
		in := snap.Input(f)
		var value string
		switch f {
		case article.ArticleCode:
			value = snap.ArticleCode
		case article.Karat:
			value = fmt.Sprintf("%dK", snap.Karat)
		default:
			value = fmt.Sprintf("%.2f", snap.Value(f))
		}
		if !in.Valid {
			value = fmt.Sprintf("%q (%s)", in.Raw, in.Message)
		}
		fmt.Fprintf(w, "%-32s %s\n", f.String(), value)
	}

	if snap.Valid() {
		return nil
	}
	invalid := make([]string, 0)
	for f := range snap.Errors() {
		invalid = append(invalid, f.String())
	}
	sort.Strings(invalid)
	return fmt.Errorf("invalid input: %s", strings.Join(invalid, ", "))
}

func basketTotalsCommand() *cli.Command {
	return &cli.Command{
		Name:  "basket-totals",
		Usage: "Compute basket totals from the articles' pre-tax sum",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "pre-tax", Usage: "sum of the articles' cost before tax", Required: true},
			&cli.Float64Flag{Name: "old-gold", Usage: "old gold trade-in credit"},
			&cli.Float64Flag{Name: "extra-discount", Usage: "basket level discount"},
			&cli.Float64Flag{Name: "add-on", Usage: "sum of the articles' add-on costs"},
		},
		Action: func(c *cli.Context) error {
			for _, name := range []string{"pre-tax", "old-gold", "extra-discount", "add-on"} {
				if c.Float64(name) < 0 {
					return fmt.Errorf("%s must be non-negative", name)
				}
			}
			t := basket.ComputeTotals(c.Float64("pre-tax"), c.Float64("old-gold"), c.Float64("extra-discount"), c.Float64("add-on"))

			w := c.App.Writer
			fmt.Fprintf(w, "%-16s %.2f\n", "Pre-tax amount:", t.PreTaxAmount)
			fmt.Fprintf(w, "%-16s %.2f\n", "Luxury tax:", t.LuxuryTax)
			fmt.Fprintf(w, "%-16s %.2f\n", "Post-tax amount:", t.PostTaxAmount)
			fmt.Fprintf(w, "%-16s %.2f\n", "Add-on cost:", t.TotalAddOnCost)
			fmt.Fprintf(w, "%-16s %.2f\n", "Total:", t.TotalAmount)
			return nil
		},
	}
}

func runMigrate(c *cli.Context) error {
	database, err := dbFrom(c)
	if err != nil {
		return err
	}
	if err := migrations.Up(database.DB); err != nil {
		return err
	}
	version, err := migrations.Version(database.DB)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "database at version %d\n", version)
	return nil
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Create the admin user, walk-in customer and opening gold rate",
		Flags: []cli.Flag{
			newDBPathFlag(),
			&cli.StringFlag{Name: "admin-email", Value: "admin@goldpos.local", EnvVars: []string{"ADMIN_EMAIL"}},
			&cli.StringFlag{Name: "admin-password", Value: "change-me", EnvVars: []string{"ADMIN_PASSWORD"}},
			&cli.Float64Flag{Name: "gold-rate", Usage: "opening 24K rate per tola for today", EnvVars: []string{"OPENING_GOLD_RATE"}},
			&cli.BoolFlag{Name: "samples", Usage: "insert sample articles"},
		},
		Before: openDB,
		After:  closeDB,
		Action: func(c *cli.Context) error {
			database, err := dbFrom(c)
			if err != nil {
				return err
			}
			if err := migrations.Up(database.DB); err != nil {
				return err
			}
			stats, err := seed.Run(database, seed.Config{
				AdminEmail:     c.String("admin-email"),
				AdminPassword:  c.String("admin-password"),
				GoldRate:       c.Float64("gold-rate"),
				SampleArticles: c.Bool("samples"),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "seed complete: %d inserts, %d updates\n", stats.Inserts, stats.Updates)
			return nil
		},
	}
}

func rateCommand() *cli.Command {
	dateFlag := func() cli.Flag {
		return &cli.StringFlag{Name: "date", Usage: "YYYY-MM-DD, defaults to today"}
	}

	return &cli.Command{
		Name:  "rate",
		Usage: "Read or record the daily gold rate",
		Subcommands: []*cli.Command{
			{
				Name:   "get",
				Flags:  []cli.Flag{newDBPathFlag(), dateFlag()},
				Before: openDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					p, day, closeCache, err := rateProvider(c)
					if err != nil {
						return err
					}
					defer closeCache()
					rate, err := p.Rate(c.Context, day)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "%s %.2f\n", day.Format(repository.DateLayout), rate)
					return nil
				},
			},
			{
				Name:   "set",
				Flags:  []cli.Flag{newDBPathFlag(), dateFlag(), &cli.Float64Flag{Name: "rate", Required: true}},
				Before: openDB,
				After:  closeDB,
				Action: func(c *cli.Context) error {
					p, day, closeCache, err := rateProvider(c)
					if err != nil {
						return err
					}
					defer closeCache()
					if err := p.SetRate(c.Context, day, c.Float64("rate")); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "%s %.2f\n", day.Format(repository.DateLayout), c.Float64("rate"))
					return nil
				},
			},
		},
	}
}

// rateProvider reads rates through the configured cache so a rate set here
// is not shadowed by a stale cached value. The returned close func releases
// the cache.
func rateProvider(c *cli.Context) (*goldrate.Provider, time.Time, func() error, error) {
	database, err := dbFrom(c)
	if err != nil {
		return nil, time.Time{}, nil, err
	}
	day := time.Now()
	if raw := c.String("date"); raw != "" {
		day, err = time.Parse(repository.DateLayout, raw)
		if err != nil {
			return nil, time.Time{}, nil, fmt.Errorf("invalid --date %q, want YYYY-MM-DD", raw)
		}
	}

	rateCache, err := cache.NewGoldRateCache(config.Load().Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("gold rate cache unavailable, continuing without it")
		rateCache = cache.NewNoopGoldRateCache()
	}
	p := goldrate.NewProvider(repository.NewGoldRates(database), rateCache, logger.Component("goldrate"))
	return p, day, rateCache.Close, nil
}
