package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/strahe/catalog-sentinel/di"
	"github.com/strahe/catalog-sentinel/pkg/log"
	"github.com/strahe/catalog-sentinel/sentinel"
	"github.com/strahe/catalog-sentinel/store"
	"github.com/urfave/cli/v3"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Capture change events and deliver notifications until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path of a .toml or .json config file, defaults apply when empty",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			injector := di.SetupContainer(c.String("config"))

			s, err := do.Invoke[*sentinel.Sentinel](injector)
			if err != nil {
				return fmt.Errorf("failed to setup sentinel: %w", err)
			}
			st := do.MustInvoke[store.Store](injector)
			defer func() {
				if err := st.Close(); err != nil {
					log.Errorf("Failed to close store: %v", err)
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			if err := s.Start(ctx); err != nil {
				return fmt.Errorf("failed to start sentinel: %w", err)
			}
			log.Infof("Sentinel started")

			select {
			case sig := <-sigChan:
				log.Infof("Received signal: %s", sig.String())
			case <-s.Done():
				log.Infof("No more change events")
			}

			if err := s.Stop(); err != nil {
				return fmt.Errorf("failed to stop sentinel: %w", err)
			}

			stats := s.Stats()
			log.Infof("Sentinel stopped: %d events, %d notifications, checkpoint %q",
				stats.EventsReceived, stats.NotificationsWritten, stats.Checkpoint)
			return nil
		},
	}
}
