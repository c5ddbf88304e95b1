package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/histdigest/internal/storage"
)

// pruneJSON is the JSON output structure for the prune command.
type pruneJSON struct {
	Pruned    int64  `json:"pruned"`
	DryRun    bool   `json:"dry_run"`
	OlderThan string `json:"older_than"`
}

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	if c.store == nil {
		cfg, err := loadConfig(c.globals)
		if err != nil {
			return err
		}
		log, closeLog, err := newLogger(cfg, c.globals)
		if err != nil {
			return err
		}
		defer closeLog()

		store, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		defer store.Close()

		c.store = store
		if c.retentionDays == 0 {
			c.retentionDays = cfg.Storage.RunHistoryDays
		}
	}

	return c.executeWithStore(context.Background(), c.store)
}

// executeWithStore prunes run history in the provided store (for testing).
func (c *PruneCommand) executeWithStore(ctx context.Context, store storage.Store) error {
	retention, err := c.retention()
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-retention)
	jsonOut := c.globals != nil && c.globals.JSON

	count, err := store.CountRunsBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if c.DryRun {
		if jsonOut {
			return printJSON(pruneJSON{Pruned: count, DryRun: true, OlderThan: formatDurationHuman(retention)})
		}
		fmt.Printf("[DRY RUN] Would prune %d run records older than %s\n", count, formatDurationHuman(retention))
		return nil
	}

	if count == 0 {
		if jsonOut {
			return printJSON(pruneJSON{OlderThan: formatDurationHuman(retention)})
		}
		fmt.Println("No run records to prune")
		return nil
	}

	if !c.Force && !jsonOut {
		answer, ok := confirm(c.stdin, fmt.Sprintf("Prune %d run records older than %s? Proceed? [y/N] ", count, formatDurationHuman(retention)))
		if !ok || (answer != "y" && answer != "Y" && answer != "yes") {
			fmt.Println("Aborted")
			return nil
		}
	}

	deleted, err := store.PruneRuns(ctx, cutoff)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(pruneJSON{Pruned: deleted, OlderThan: formatDurationHuman(retention)})
	}
	fmt.Printf("Pruned %d run records older than %s\n", deleted, formatDurationHuman(retention))
	return nil
}

// retention resolves --older-than, then the configured retention, then 30 days.
func (c *PruneCommand) retention() (time.Duration, error) {
	if c.OlderThan != "" {
		return parseDuration(c.OlderThan)
	}
	days := c.retentionDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour, nil
}
