package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/rzpsarthak13/rowcache/pkg/rowcache"
)

var ApplyTimeout time.Duration

var applyCmd = &cobra.Command{
	Use:   "apply <file|->",
	Short: "Write the pending changes of a snapshot to the database",
	Long: `Load an XML snapshot and run AcceptChanges with the configured sync provider.
A conflict leaves the database untouched and exits with status 2.

With sync.provider "queue" and an in-memory queue, apply drains the queued
changes before it exits. Redis and Kafka queues are left to "rowcache drain".

Examples:
  rowcache apply -c rowcache.yaml users.xml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := readSnapshot(args[0])
		if err != nil {
			return err
		}

		client, config, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		rs, err := client.RestoreSnapshot(snap)
		if err != nil {
			return err
		}
		pending := len(rs.Changes())

		ctx := cmd.Context()
		if ApplyTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, ApplyTimeout)
			defer cancel()
		}
		if err := rs.AcceptChanges(ctx); err != nil {
			return err
		}

		drainer := client.GetDrainer(rowcache.WriteBackDrainer)
		if drainer == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d changes\n", pending)
			return nil
		}
		queued := drainer.QueueSize()
		if config.WriteBack.QueueType != "" && config.WriteBack.QueueType != "memory" {
			fmt.Fprintf(cmd.OutOrStdout(), "queued %d changes\n", pending)
			return nil
		}
		return drainQueued(ctx, client, drainer, queued)
	},
}

func drainQueued(ctx context.Context, client rowcache.Client, drainer *rowcache.Drainer, queued int) error {
	if err := client.Start(ctx); err != nil {
		return err
	}
	defer client.Stop()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for drainer.Applied()+drainer.Failed() < int64(queued) {
		select {
		case <-ctx.Done():
			return fmt.Errorf("stopped with %d of %d queued changes applied: %w", drainer.Applied(), queued, ctx.Err())
		case <-ticker.C:
		}
	}

	log.Printf("[APPLY] Drained %d operations (%d applied, %d dropped)", queued, drainer.Applied(), drainer.Failed())
	if drainer.Failed() > 0 {
		return fmt.Errorf("%d of %d queued changes were dropped", drainer.Failed(), queued)
	}
	return nil
}

func init() {
	applyCmd.Flags().DurationVar(&ApplyTimeout, "timeout", 0, "Bound on writing the changes (0 waits indefinitely)")
}
