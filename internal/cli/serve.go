package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/tideloom/tideloom/internal/adapters/http"
	"github.com/tideloom/tideloom/internal/observability"
	"github.com/tideloom/tideloom/internal/runtime"
)

const shutdownGrace = 5 * time.Second

// Serve runs the HTTP surface until ctx is cancelled, then drains
// in-flight requests before returning.
func (f *Factory) Serve(ctx context.Context, addr string) error {
	promReg := prometheus.NewRegistry()
	metrics := observability.New(promReg)

	exec := f.NewExecutor(runtime.WithHooks(metrics.Hooks()))
	handler := httpadapter.NewHandler(exec, f.NewRunContext, promReg)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		f.logger.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		f.logger.Info("shutting down", "grace", shutdownGrace)
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(drainCtx); err != nil {
			return srv.Close()
		}
		return nil
	})

	return g.Wait()
}
