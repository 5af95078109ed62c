package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/auralis/internal/cache"
	"github.com/farcloser/auralis/internal/config"
	"github.com/farcloser/auralis/internal/engine"
	transporthttp "github.com/farcloser/auralis/internal/transport/http"
	"github.com/farcloser/auralis/internal/types"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP chunk-streaming boundary",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Address to listen on",
				Value: ":8080",
			},
			&cli.StringFlag{
				Name:  "data-root",
				Usage: "Directory for fingerprint sidecars (defaults to the platform user cache dir)",
			},
			&cli.Float64Flag{
				Name:  "chunk-duration",
				Usage: "Chunk duration in seconds, clamped to [5, 30]",
			},
			&cli.IntFlag{
				Name:  "sample-rate",
				Usage: "Engine sample rate: 44100 or 48000",
				Value: 48000,
			},
			&cli.BoolFlag{
				Name:  "strict-degraded",
				Usage: "Answer 503 when a chunk request fails with a fingerprint-unavailable error (the engine falls back to a neutral fingerprint on timeout and does not raise that error)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			opts := config.DefaultOptions()

			if v := cmd.String("data-root"); v != "" {
				opts.DataRoot = v
			}

			if v := cmd.Float64("chunk-duration"); v > 0 {
				opts.ChunkDurationSec = min(max(v, 5), 30)
			}

			opts.SampleRate = types.SampleRate(cmd.Int("sample-rate"))
			if !opts.SampleRate.Supported() {
				return fmt.Errorf("%w: unsupported sample rate %d", types.ErrInvalidInput, opts.SampleRate)
			}

			eng, err := engine.New(opts)
			if err != nil {
				return fmt.Errorf("building engine: %w", err)
			}

			workerCount := max(1, runtime.NumCPU()-1)
			streamCache := cache.New(eng, workerCount)

			srv := transporthttp.NewServer(eng, streamCache, opts.ChunkDurationSec, cmd.Bool("strict-degraded"))

			mux := http.NewServeMux()
			srv.Routes(mux)

			addr := cmd.String("addr")
			slog.Info("serving", "addr", addr, "data_root", opts.DataRoot, "chunk_duration_sec", opts.ChunkDurationSec)

			return http.ListenAndServe(addr, mux) //nolint:gosec // long-lived server process, timeouts are not the concern here
		},
	}
}
