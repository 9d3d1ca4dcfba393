package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/memviz/pkg/observability"
	"github.com/matzehuels/memviz/pkg/pipeline"
)

type serveOpts struct {
	settingsFlags
	addr      string
	cacheSize int
}

// serveCommand runs the HTTP rendering service.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{addr: ":8080", cacheSize: 1024}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendering over HTTP",
		Long: `Serve the rendering pipeline over HTTP.

Endpoints:
  POST /v1/render?format=svg   body: one snapshot (JSON, YAML, or msgpack by Content-Type)
  GET  /healthz                liveness and version
  GET  /metrics                Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			popts, err := opts.options(cmd)
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), &opts, popts)
		},
	}

	opts.register(cmd, "")
	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().IntVar(&opts.cacheSize, "cache-size", opts.cacheSize, "render cache capacity in entries")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts, popts pipeline.Options) error {
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	hooks := observability.NewPrometheusHooks(registry)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	runner, err := c.newRunner(opts.noCache, opts.cacheSize)
	if err != nil {
		return err
	}
	defer runner.Close()

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           newServer(runner, popts, c.Logger, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	printSuccess("Listening on %s", opts.addr)
	printKeyValue("render", "POST /v1/render?format=svg")
	printKeyValue("metrics", "GET /metrics")

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	printInfo("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
