// internal/server/server.go
//
// HTTP server construction and lifecycle.
//
// Context
// -------
// New centralizes the production timeouts so the serve command does not
// repeat boilerplate per listener.  Run drives any number of listeners
// under one errgroup: the first hard failure, or a canceled context,
// drains every listener gracefully and returns.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	readTimeout     = 10 * time.Second // abort slow-loris headers
	writeTimeout    = 15 * time.Second // cap total response time
	idleTimeout     = 60 * time.Second // close idle keep-alives
	shutdownTimeout = 30 * time.Second
)

// New constructs an *http.Server with hardened defaults.  TLSConfig may
// be injected by callers.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// Run serves every named listener until ctx cancels or one of them
// fails, then drains them all and returns the first error.
func Run(ctx context.Context, log *zap.SugaredLogger, servers map[string]*http.Server) error {
	g, ctx := errgroup.WithContext(ctx)

	for name, srv := range servers {
		g.Go(func() error {
			log.Infow("listener online", "name", name, "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s listener: %w", name, err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(drainCtx); err != nil {
				// Keep the root cause; a failed drain only gets logged.
				log.Warnw("listener drain failed", "name", name, "err", err)
				return nil
			}
			log.Infow("listener drained", "name", name)
			return nil
		})
	}
	return g.Wait()
}
