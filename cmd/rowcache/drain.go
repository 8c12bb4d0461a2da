package main

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rzpsarthak13/rowcache/pkg/rowcache"
)

var DrainStatsInterval time.Duration

var drainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Apply queued changes to the database until interrupted",
	Long: `Run the write-back drainer over the configured queue until SIGINT or SIGTERM.
Requires sync.provider "queue", normally with a Redis or Kafka queue shared
with the processes accepting changes.

Examples:
  rowcache drain -c rowcache.yaml --stats 30s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, config, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		drainer := client.GetDrainer(rowcache.WriteBackDrainer)
		if drainer == nil {
			return fmt.Errorf("%w: drain needs sync.provider \"queue\", got %q", rowcache.ErrConfiguration, config.Sync.Provider)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := client.Start(ctx); err != nil {
			return err
		}
		log.Printf("[DRAIN] Draining %s queue at %d ops/sec", config.WriteBack.QueueType, config.WriteBack.DrainRate)

		var tick <-chan time.Time
		if DrainStatsInterval > 0 {
			ticker := time.NewTicker(DrainStatsInterval)
			defer ticker.Stop()
			tick = ticker.C
		}
		for {
			select {
			case <-ctx.Done():
				log.Println("[DRAIN] Received shutdown signal...")
				if err := client.Stop(); err != nil {
					return err
				}
				log.Printf("[DRAIN] Applied %d, dropped %d", drainer.Applied(), drainer.Failed())
				return nil
			case <-tick:
				log.Printf("[DRAIN] Applied %d, dropped %d, queued %d", drainer.Applied(), drainer.Failed(), drainer.QueueSize())
			}
		}
	},
}

func init() {
	drainCmd.Flags().DurationVar(&DrainStatsInterval, "stats", time.Minute, "Interval between progress logs (0 disables them)")
}
