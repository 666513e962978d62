package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"course-settlement/internal/config"
	"course-settlement/internal/infra/logging"
)

func newMigrateCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			return runMigrations(cfg, logging.New(cfg.Log, cfg.Runtime.Dev), true)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			return runMigrations(cfg, logging.New(cfg.Log, cfg.Runtime.Dev), false)
		},
	})
	return cmd
}

func runMigrations(cfg *config.Config, log *zerolog.Logger, up bool) error {
	path, err := filepath.Abs(cfg.Database.MigrationsPath)
	if err != nil {
		return err
	}
	m, err := migrate.New("file://"+filepath.ToSlash(path), cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if up {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: %w", err)
	}
	v, dirty, _ := m.Version()
	log.Info().Bool("up", up).Uint("version", v).Bool("dirty", dirty).Msg("migrations completed")
	return nil
}
