package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/goodow/moonauth/internal/config"
	"github.com/goodow/moonauth/internal/store/pg"
	migrations "github.com/goodow/moonauth/migrations/postgres"
)

func newMigrateCmd() *cobra.Command {
	var (
		flagConfig  string
		flagEnvFile string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fileExists(flagEnvFile) {
				_ = godotenv.Load(flagEnvFile)
			}

			cfg, err := config.Load(configPath(flagConfig))
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != "postgres" && cfg.Storage.Driver != "pg" {
				return fmt.Errorf("migrate: storage.driver is %q, migrations only apply to postgres", cfg.Storage.Driver)
			}

			ctx := context.Background()
			st, err := pg.New(ctx, cfg.Storage.DSN, pg.Tuning{MaxOpenConns: 2})
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if err := st.RunMigrations(ctx, migrations.FS); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}

	cmd.Flags().StringVar(&flagConfig, "config", "", "path to config.yaml")
	cmd.Flags().StringVar(&flagEnvFile, "env-file", ".env", "path to .env (loaded when present)")
	return cmd
}
