// cmd/mosaic/serve.go
//
// The serve command: full boot of the multi-tenant server.
//
// Boot order
// ----------
//
//  1. Core: config, logger, audit, control database, migration runner.
//
//  2. Schema: apply pending migrations when database.auto_migrate is
//     on, then the seed rows when database.seed is on.
//
//  3. Content plumbing: form definitions, GeoIP, themes, views, and
//     the tenant cache.
//
//  4. Services: sessions, antiforgery, identity, tokens, assistant,
//     site and content services.
//
//  5. Components registered, middleware chained outside-in, billing
//     worker and theme watcher started, listeners run until a signal.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/mosaic-cms/mosaic/components/admin"
	"github.com/mosaic-cms/mosaic/components/portal"
	"github.com/mosaic-cms/mosaic/internal/antiforgery"
	"github.com/mosaic-cms/mosaic/internal/assistant"
	"github.com/mosaic-cms/mosaic/internal/billing"
	"github.com/mosaic-cms/mosaic/internal/component"
	"github.com/mosaic-cms/mosaic/internal/config"
	"github.com/mosaic-cms/mosaic/internal/content"
	"github.com/mosaic-cms/mosaic/internal/diagnostics"
	"github.com/mosaic-cms/mosaic/internal/form"
	"github.com/mosaic-cms/mosaic/internal/identity"
	"github.com/mosaic-cms/mosaic/internal/middleware"
	"github.com/mosaic-cms/mosaic/internal/requestinfo"
	"github.com/mosaic-cms/mosaic/internal/seed"
	"github.com/mosaic-cms/mosaic/internal/server"
	"github.com/mosaic-cms/mosaic/internal/session"
	"github.com/mosaic-cms/mosaic/internal/site"
	"github.com/mosaic-cms/mosaic/internal/tenant"
	"github.com/mosaic-cms/mosaic/internal/theme"
	"github.com/mosaic-cms/mosaic/internal/view"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the multi-tenant HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func runServe(ctx context.Context) error {
	c, err := openCore(ctx)
	if err != nil {
		return err
	}
	defer c.close()
	cfg, log, db := c.cfg, c.log, c.db

	if cfg.Database.AutoMigrate {
		applied, recovered, err := c.runner.Up(ctx)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Infow("schema current", "applied", applied, "recovered", recovered)
	}
	if cfg.Database.Seed {
		if err := seed.Run(ctx, db, log); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	var active int
	if err := db.GetContext(ctx, &active,
		`SELECT COUNT(*) FROM sites WHERE suspended_at IS NULL AND deleted_at IS NULL`); err != nil {
		return fmt.Errorf("count sites: %w", err)
	}
	log.Infow("control database online", "active_sites", active)

	if err := form.Load(cfg.Paths.Root); err != nil {
		return fmt.Errorf("load forms: %w", err)
	}
	log.Infow("forms registered", "ids", form.Names())

	if cfg.Geo.DBPath != "" {
		if err := requestinfo.OpenGeo(cfg.Geo.DBPath); err != nil {
			log.Warnw("geo database unavailable", "path", cfg.Geo.DBPath, "err", err)
		} else {
			defer requestinfo.CloseGeo()
		}
	}

	themes := theme.NewManager(filepath.Join(cfg.Paths.Root, "themes"), view.BaseFuncs(), log)
	views := view.NewEngine(cfg.Paths.Root, log)

	store, err := newSessionStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	defer store.Close()
	sessions := session.NewManager(store,
		func(ctx context.Context, id int64) (*identity.User, error) {
			return identity.ByID(ctx, db, id)
		},
		log,
		session.Options{
			CookieName:  cfg.Session.CookieName,
			Key:         []byte(cfg.Auth.SessionKey),
			Lifetime:    cfg.Session.Lifetime,
			IdleTimeout: cfg.Session.IdleTimeout,
			Secure:      cfg.Session.Secure,
		})

	guard := antiforgery.New([]byte(cfg.Auth.CSRFKey))
	signin := identity.NewService(db, log, cfg.Auth.MaxFailures, cfg.Auth.LockoutWindow)
	tokens := identity.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)

	chat, err := assistant.NewService(ctx, db, log, cfg.Assistant)
	if err != nil {
		return fmt.Errorf("assistant: %w", err)
	}

	tenants := tenant.New(db, themes, log, cfg.Tenant)
	defer tenants.Close()

	component.Register(admin.New(db, log, views, sessions, guard, signin,
		site.NewService(db, log), content.NewService(db, log), tenants))
	component.Register(portal.New(db, log, signin, tokens, chat))

	if watcher, werr := theme.NewWatcher(themes, log); werr != nil {
		log.Warnw("theme watcher unavailable", "err", werr)
	} else {
		go func() {
			if err := watcher.Run(ctx); err != nil {
				log.Warnw("theme watcher stopped", "err", err)
			}
		}()
	}

	worker := billing.NewWorker(db, log, cfg.Billing.SweepInterval,
		time.Duration(cfg.Billing.GraceDays)*24*time.Hour)
	go func() {
		if err := worker.Run(ctx); err != nil {
			log.Errorw("billing worker stopped", "err", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/themes/", theme.Assets(themes.BaseDir()))
	mux.Handle("/", tenant.Handler(tenants, log))

	var handler http.Handler = mux
	handler = requestinfo.Enrich(handler)
	if cfg.HTTP.ForceHTTPS {
		handler = middleware.ForceHTTPS(handler)
	}
	handler = middleware.Security(handler)
	handler = middleware.Recover(log)(handler)
	handler = middleware.RequestLog(log)(handler)

	servers := map[string]*http.Server{
		"main": server.New(cfg.HTTP.ListenAddr, handler),
	}
	if cfg.Diagnostics.ListenAddr != "" {
		diag := diagnostics.NewServer(cfg, log,
			diagnostics.Checks(cfg, db, c.runner, store, themes))
		servers["diagnostics"] = server.New(cfg.Diagnostics.ListenAddr, diag.Handler())
	}

	return server.Run(ctx, log, servers)
}

// newSessionStore picks the configured backend; memory is the default.
func newSessionStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	if cfg.Session.Store == "redis" {
		return session.NewRedisStore(ctx, cfg.Session.RedisURL)
	}
	return session.NewMemoryStore(0), nil
}
