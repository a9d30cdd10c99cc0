package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dopingplot/internal/server"
	"github.com/matzehuels/dopingplot/pkg/config"
	"github.com/matzehuels/dopingplot/pkg/metrics"
	"github.com/matzehuels/dopingplot/pkg/pipeline"
)

// serveCommand creates the serve command that exposes the chart over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		src     string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart over HTTP",
		Long: `Serve the chart, its layout and the race records over HTTP.

Routes: / (HTML page), /chart.svg, /chart.json, /data.json, /healthz and
/metrics. Add ?refresh=1 to re-fetch the dataset.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if src != "" {
				cfg.Source.URL = src
			}
			if noCache {
				cfg.Cache.Backend = config.BackendNone
			}
			chartCfg, err := cfg.ChartConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			rec := metrics.New(metrics.WithProcessCollectors())
			rec.Install()

			srv := server.New(runner,
				pipeline.Options{Source: cfg.Source.URL, Chart: chartCfg},
				server.WithLogger(c.Logger),
				server.WithMetrics(rec),
				server.WithReadTimeout(cfg.Server.ReadTimeout.Duration),
			)
			printInfo("Serving on %s", StyleLink.Render("http://"+cfg.Server.Addr))
			printKeyValue("source", cfg.Source.URL)
			printKeyValue("cache", cacheLocation(cfg.Cache))
			err = srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout.Duration)
			if errors.Is(err, context.Canceled) {
				c.Logger.Info("server stopped")
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config, 127.0.0.1:8080)")
	cmd.Flags().StringVarP(&src, "source", "s", "", "dataset URL or file path")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
