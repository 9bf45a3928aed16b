package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/tcpwire/internal/echo"
	"github.com/danmuck/tcpwire/internal/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newListenCmd(root *rootOptions) *cobra.Command {
	var addr, metricsAddr string
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Run a loopback echo service (serves both framings)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = root.cfg.ListenAddr
			}
			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = root.cfg.MetricsAddr
			}
			return runListen(cmd.Context(), addr, metricsAddr)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "echo listen address")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics on this address")
	return cmd
}

func runListen(ctx context.Context, addr, metricsAddr string) error {
	srv, err := echo.Listen(addr)
	if err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ctx)
	})
	if strings.TrimSpace(metricsAddr) != "" {
		observability.RegisterMetrics()
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		hs := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Info().Str("addr", metricsAddr).Msg("wirectl.listen metrics listening")
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return hs.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}
