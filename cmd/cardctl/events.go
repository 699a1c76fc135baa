package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cardquiz/internal/config"
	"cardquiz/internal/messaging"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect session events on the broker",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print session-closed events as they arrive (consumes them)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cfg.RabbitMQURL == "" {
			return errors.New("RABBITMQ_URL is not set")
		}

		client, err := messaging.NewRabbitMQClient(cfg.RabbitMQURL, cfg.SessionEventsQ)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.Printf("Waiting for events on %s (Ctrl+C to stop)", cfg.SessionEventsQ)
		out := cmd.OutOrStdout()
		err = client.ConsumeSessionClosed(ctx, func(_ context.Context, ev messaging.SessionClosedEvent) error {
			line, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, string(line))
			return err
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	eventsCmd.AddCommand(eventsTailCmd)
	rootCmd.AddCommand(eventsCmd)
}
