package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/auralis/internal/dsp"
	"github.com/farcloser/auralis/internal/encode"
	"github.com/farcloser/auralis/internal/fingerprint"
	"github.com/farcloser/auralis/internal/integration/ffmpeg"
	"github.com/farcloser/auralis/internal/target"
	"github.com/farcloser/auralis/internal/types"
)

func masterCommand() *cli.Command {
	return &cli.Command{
		Name:      "master",
		Usage:     "Master one audio file end-to-end and write a WebM/Opus file",
		ArgsUsage: "<input file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Usage:    "Output WebM path",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "preset",
				Usage: "Preset bias: adaptive, gentle, warm, bright, punchy",
				Value: "adaptive",
			},
			&cli.Float64Flag{
				Name:  "intensity",
				Usage: "Mastering intensity in [0, 1]",
				Value: 1.0,
			},
			&cli.IntFlag{
				Name:  "sample-rate",
				Usage: "Engine sample rate: 44100 or 48000 (the file must already be at this rate)",
				Value: 48000,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: expected exactly one input file argument", types.ErrInvalidInput)
			}

			inputPath := cmd.Args().First()

			buf, err := ffmpeg.Decode(ctx, inputPath)
			if err != nil {
				return err
			}

			wantRate := types.SampleRate(cmd.Int("sample-rate"))
			if buf.SampleRate != wantRate {
				return fmt.Errorf("%w: file is at %d Hz, engine configured for %d Hz (no resampling at this boundary)",
					types.ErrInvalidInput, buf.SampleRate, wantRate)
			}

			hybrid, err := dsp.NewProcessor(buf.SampleRate)
			if err != nil {
				return err
			}

			fp := fingerprint.Generate(buf)
			preset := types.ParsePresetBias(cmd.String("preset"))
			intensity := cmd.Float64("intensity")
			profile := target.Generate(fp, preset, intensity)

			mastered, err := hybrid.Process(buf, &profile)
			if err != nil {
				return fmt.Errorf("mastering: %w", err)
			}

			data, err := encode.Encode(mastered)
			if err != nil {
				return err
			}

			if err := os.WriteFile(cmd.String("out"), data, 0o644); err != nil { //nolint:gosec // user-specified output path
				return fmt.Errorf("writing output: %w", err)
			}

			return nil
		},
	}
}
