package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/tcpwire/internal/config"
	"github.com/danmuck/tcpwire/internal/observability"
	"github.com/danmuck/tcpwire/internal/retry"
	"github.com/danmuck/tcpwire/internal/scheme"
	"github.com/danmuck/tcpwire/internal/transport"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type sendOptions struct {
	uri   string
	tags  []string
	reads int
}

func newSendCmd(root *rootOptions) *cobra.Command {
	opts := &sendOptions{}
	cmd := &cobra.Command{
		Use:   "send <hex>...",
		Short: "Connect, write each hex payload, and print the frames read back",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payloads := make([][]byte, 0, len(args))
			for _, arg := range args {
				p, err := hex.DecodeString(strings.TrimSpace(arg))
				if err != nil {
					return fmt.Errorf("payload %q: %w", arg, err)
				}
				payloads = append(payloads, p)
			}
			uri := root.cfg.URI
			if cmd.Flags().Changed("uri") {
				uri = opts.uri
			}
			return runSend(cmd.Context(), cmd, root.cfg, uri, opts, payloads)
		},
	}
	cmd.Flags().StringVarP(&opts.uri, "uri", "u", "", "target uri, e.g. tcp-lines://127.0.0.1:9000")
	cmd.Flags().StringSliceVarP(&opts.tags, "tag", "t", nil, "trace tags attached to every frame")
	cmd.Flags().IntVarP(&opts.reads, "reads", "n", 1, "frames to read after each write")
	return cmd
}

func runSend(ctx context.Context, cmd *cobra.Command, cfg config.Config, uri string, opts *sendOptions, payloads [][]byte) error {
	host, _ := os.Hostname()
	tcfg := config.TransportConfig(cfg)
	tcfg.Recorder = observability.Multi{
		observability.LogRecorder{Logger: log.Logger},
		observability.MetricsRecorder{Node: host},
	}
	logger := log.Logger
	tcfg.Logger = &logger

	tr, err := scheme.Default().New(uri, tcfg)
	if err != nil {
		return err
	}
	if err := retry.Connect(ctx, tr, config.RetryPolicy(cfg)); err != nil {
		return err
	}
	defer func() {
		if err := tr.Close(); err != nil {
			log.Warn().Err(err).Msg("wirectl.send close failed")
		}
	}()
	log.Info().Str("uri", uri).Msg("wirectl.send connected")

	out := cmd.OutOrStdout()
	for _, p := range payloads {
		if _, err := tr.Write(ctx, p, opts.tags...); err != nil {
			return err
		}
		for i := 0; i < opts.reads; i++ {
			start := time.Now()
			frame, err := tr.Read(ctx, opts.tags...)
			if err != nil {
				return err
			}
			if len(frame) == 0 && isRaw(tr) {
				log.Info().Msg("wirectl.send peer closed")
				return nil
			}
			log.Debug().Dur("elapsed", time.Since(start)).Int("bytes", len(frame)).Msg("wirectl.send read")
			fmt.Fprintln(out, hex.EncodeToString(frame))
		}
	}
	return nil
}

func isRaw(tr transport.Transport) bool {
	_, ok := tr.(*transport.Raw)
	return ok
}
