package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/goodow/moonauth/internal/auth"
	"github.com/goodow/moonauth/internal/cache"
	"github.com/goodow/moonauth/internal/config"
	httpserver "github.com/goodow/moonauth/internal/http"
	adminctl "github.com/goodow/moonauth/internal/http/controllers/admin"
	authctl "github.com/goodow/moonauth/internal/http/controllers/auth"
	healthctl "github.com/goodow/moonauth/internal/http/controllers/health"
	"github.com/goodow/moonauth/internal/http/router"
	"github.com/goodow/moonauth/internal/metrics"
	"github.com/goodow/moonauth/internal/observability/logger"
	"github.com/goodow/moonauth/internal/security/xsrf"
	"github.com/goodow/moonauth/internal/store"
	"github.com/goodow/moonauth/internal/store/pg"
	migrations "github.com/goodow/moonauth/migrations/postgres"
)

func newServeCmd() *cobra.Command {
	var (
		flagConfig  string
		flagEnvFile string
		flagMigrate bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the login service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fileExists(flagEnvFile) {
				_ = godotenv.Load(flagEnvFile)
			}

			cfg, err := config.Load(configPath(flagConfig))
			if err != nil {
				return err
			}

			logger.Init(logger.Config{Env: cfg.App.Env, ServiceName: "moonauth"})
			defer func() { _ = logger.Sync() }()
			log := logger.L()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			accounts, err := store.Open(ctx, store.Config{
				Driver: cfg.Storage.Driver,
				DSN:    cfg.Storage.DSN,
				Postgres: pg.Tuning{
					MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
					MinConns:        cfg.Storage.Postgres.MinConns,
					ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
				},
			})
			if err != nil {
				return err
			}
			defer func() { _ = accounts.Close() }()

			if flagMigrate {
				if pgStore, ok := accounts.(*pg.Store); ok {
					if err := pgStore.RunMigrations(ctx, migrations.FS); err != nil {
						return err
					}
					log.Info("migrations applied")
				}
			}

			cacheCfg := cache.Config{Kind: cfg.Cache.Kind, Prefix: cfg.Cache.Prefix}
			cacheCfg.Redis.Addr = cfg.Cache.Redis.Addr
			cacheCfg.Redis.Password = cfg.Cache.Redis.Password
			cacheCfg.Redis.DB = cfg.Cache.Redis.DB
			codeCache, err := cache.New(cacheCfg)
			if err != nil {
				return err
			}
			defer func() { _ = codeCache.Close() }()

			var providers []auth.Provider
			if cfg.Providers.Google.Enabled {
				providers = append(providers, auth.NewGoogle(
					cfg.Providers.Google.ClientID, cfg.Providers.Google.ClientSecret))
			}
			if cfg.Providers.QQ.Enabled {
				providers = append(providers, auth.NewQQ(
					cfg.Providers.QQ.ClientID, cfg.Providers.QQ.ClientSecret))
			}
			registry := auth.NewRegistry(providers...)

			codec := xsrf.New(cfg.Auth.TokenSecret,
				time.Duration(cfg.Auth.TokenExpirySeconds)*time.Second)
			exchanger := auth.NewExchanger(registry, cfg.Auth.CallbackURL)
			codes := auth.NewCodeStore(codeCache, cfg.Auth.LoginCodeTTL)
			lookup := auth.NewLookup(accounts, codec)
			policy := auth.AdminPolicy{
				AdminDomain: cfg.Auth.AdminDomain,
				Admins:      cfg.Auth.Admins,
			}

			reg := prometheus.DefaultRegisterer
			if err := metrics.Register(reg); err != nil {
				return err
			}

			handler := router.New(router.Deps{
				Login:       authctl.NewLoginController(exchanger, registry),
				Callback:    authctl.NewCallbackController(exchanger, registry, accounts, codes, codec),
				Logout:      authctl.NewLogoutController(),
				Me:          authctl.NewMeController(),
				Accounts:    adminctl.NewAccountsController(accounts),
				Health:      healthctl.NewHealthController(accounts, codeCache),
				Lookup:      lookup,
				AdminPolicy: policy,
				Metrics:     promhttp.Handler(),
			})

			srv := httpserver.NewServer(cfg.Server.Addr, handler)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info("service up",
					logger.String("addr", cfg.Server.Addr),
					logger.Any("providers", registry.Names()))
				return srv.ListenAndServe()
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				log.Info("shutting down")
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&flagConfig, "config", "", "path to config.yaml (fallback: $CONFIG_PATH, configs/config.yaml)")
	cmd.Flags().StringVar(&flagEnvFile, "env-file", ".env", "path to .env (loaded when present)")
	cmd.Flags().BoolVar(&flagMigrate, "migrate", true, "run database migrations on boot (postgres only)")
	return cmd
}
