package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/strahe/catalog-sentinel/capture"
	"github.com/strahe/catalog-sentinel/formatter"
	"github.com/strahe/catalog-sentinel/pkg/log"
	"github.com/strahe/catalog-sentinel/sink"
	"github.com/urfave/cli/v3"
)

func formatCommand() *cli.Command {
	return &cli.Command{
		Name:      "format",
		Usage:     "Format a single change event and print its notifications",
		ArgsUsage: "<event.json|->",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print notifications as JSON lines",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "disable colored diffs",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log how the event was formatted to stderr",
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: "max width of the message column",
				Value: 100,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("missing event file, use - for stdin")
			}

			data, err := readInput(path)
			if err != nil {
				return err
			}
			event, err := capture.DecodeEvent(data)
			if err != nil {
				return err
			}

			level := zerolog.WarnLevel
			if c.Bool("verbose") {
				level = zerolog.DebugLevel
			}
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

			f := formatter.New(formatter.WithLogger(log.NewZerologAdapter(logger)))
			notifications, err := f.FormatEvent(event)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if w == nil {
				w = os.Stdout
			}

			var out sink.Sink
			if c.Bool("json") {
				out = sink.NewStdoutSinkWriter(w, false)
			} else {
				out = sink.NewConsoleSink(
					sink.WithOutput(w),
					sink.WithColorOutput(!c.Bool("no-color")),
					sink.WithMaxColumnWidth(int(c.Int("width"))),
				)
			}
			defer out.Close()

			if err := out.Write(ctx, notifications); err != nil {
				return err
			}
			return out.Flush(ctx)
		},
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event file: %w", err)
	}
	return data, nil
}
