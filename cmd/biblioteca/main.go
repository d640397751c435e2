package main

import (
	"context"
	"os"

	"github.com/emzola/biblioteca/config"
	"github.com/emzola/biblioteca/internal/jsonlog"
	"github.com/emzola/biblioteca/repository"
	"github.com/emzola/biblioteca/repository/database"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

// cli holds what every subcommand needs once flags and configuration are parsed.
type cli struct {
	configPath string
	config     config.Config
	logger     *jsonlog.Logger
}

// @title  Biblioteca API
// @version 1.0.0
// @description Catalog of a small library: books, loans, returns and cover images.
// @contact.name API Support
// @contact.email emma.idika@yahoo.com
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @BasePath /
func main() {
	c := &cli{}
	if err := newRootCmd(c).ExecuteContext(context.Background()); err != nil {
		logger := c.logger
		if logger == nil {
			logger = jsonlog.New(os.Stdout, jsonlog.LevelInfo)
		}
		logger.PrintFatal(err, nil)
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "biblioteca",
		Short:         "Book catalog service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a YAML config file; environment variables override it")
	root.AddCommand(newServeCmd(c), newMigrateCmd(c), newSeedCmd(c))
	return root
}

// load decodes the configuration and builds the logger at the configured level.
func (c *cli) load() error {
	cfg, err := config.Decode(c.configPath)
	if err != nil {
		return err
	}
	level, err := jsonlog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	c.config = cfg
	c.logger = jsonlog.New(os.Stdout, level)
	return nil
}

// openRepository connects to the configured database. The caller closes the
// returned pool.
func (c *cli) openRepository(ctx context.Context, migrate bool) (*sqlx.DB, repository.Repository, error) {
	db, err := database.OpenDBConn(c.config)
	if err != nil {
		return nil, nil, err
	}
	c.logger.PrintInfo("database connection pool established", map[string]string{
		"driver": c.config.Database.Driver,
	})
	repo := repository.New(db)
	if migrate {
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		c.logger.PrintInfo("database schema is up to date", nil)
	}
	return db, repo, nil
}
