package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lemo-app/lemo-dashboard/internal/events"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var subscription string

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Print dashboard audit events as they are published",
	RunE: func(cmd *cobra.Command, args []string) error {

		commonSetUp()

		if appCfg.Pulsar.URL == "" {
			return errors.New("pulsar.url is not configured")
		}

		// Initialize event consumer
		consumer, err := events.NewEventConsumer(appCfg.Pulsar.URL, appCfg.Pulsar.Topic, subscription)
		if err != nil {
			return fmt.Errorf("failed to initialize event consumer: %w", err)
		}
		defer consumer.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return tailEvents(ctx, consumer, cmd.OutOrStdout(), time.Second, 30*time.Second)
	},
}

type eventReceiver interface {
	Receive(ctx context.Context) (events.AuditEvent, error)
}

// tailEvents writes events as JSON lines until ctx is done. Consecutive
// receive failures wait twice as long as the previous one, up to maxWait.
func tailEvents(ctx context.Context, consumer eventReceiver, out io.Writer, wait, maxWait time.Duration) error {
	enc := json.NewEncoder(out)
	backoff := wait
	for {
		event, err := consumer.Receive(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			log.Error().Err(err).Dur("retry_in", backoff).Msg("Error receiving audit event")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = min(2*backoff, maxWait)
			continue
		}
		backoff = wait

		if err := enc.Encode(event); err != nil {
			return err
		}
	}
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().StringVar(&subscription, "subscription", "dashboard-audit-tail", "Pulsar subscription name")
}
