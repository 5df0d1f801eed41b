package main

import (
	"context"
	"errors"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/chandanbounteous/goldscanner/internal/db"
	"github.com/chandanbounteous/goldscanner/pkg/logger"
)

type ctxKey struct{}

var dbKey ctxKey

func newDBPathFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-path",
		Usage:   "SQLite database file",
		Value:   "data/app.db",
		EnvVars: []string{"DB_PATH"},
	}
}

func openDB(c *cli.Context) error {
	database, err := db.Open(c.String("db-path"))
	if err != nil {
		return err
	}
	c.Context = context.WithValue(c.Context, dbKey, database)
	return nil
}

func closeDB(c *cli.Context) error {
	if database, ok := c.Context.Value(dbKey).(*sqlx.DB); ok && database != nil {
		return database.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) (*sqlx.DB, error) {
	database, ok := c.Context.Value(dbKey).(*sqlx.DB)
	if !ok || database == nil {
		return nil, errors.New("database is not open")
	}
	return database, nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "goldpos",
		Usage: "Price gold articles and manage the counter database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "trace, debug, info, warn or error",
				Value:   "warn",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			priceCommand(),
			basketTotalsCommand(),
			{
				Name:   "migrate",
				Usage:  "Apply database migrations",
				Flags:  []cli.Flag{newDBPathFlag()},
				Before: openDB,
				After:  closeDB,
				Action: runMigrate,
			},
			seedCommand(),
			rateCommand(),
		},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Log.Warn().Err(err).Msg("could not load .env file")
	}

	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("goldpos failed")
	}
}
