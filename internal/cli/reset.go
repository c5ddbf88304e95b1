package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/histdigest/internal/storage"
)

// resetConfirmWord must be typed to confirm a reset.
const resetConfirmWord = "RESET"

// Execute implements the go-flags Commander interface for ResetCommand.
func (c *ResetCommand) Execute(args []string) error {
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
	}
	return c.executeWithStore(context.Background(), c.store)
}

// executeWithStore resets the provided store (for testing).
func (c *ResetCommand) executeWithStore(ctx context.Context, store storage.Store) error {
	jsonOut := c.globals != nil && c.globals.JSON

	if !c.Force {
		fmt.Println("This forgets the last run time and notification state.")
		fmt.Println("The next capture will re-read all browser history and rewrite every open digest.")
		answer, ok := confirm(c.stdin, fmt.Sprintf("Type %s to confirm: ", resetConfirmWord))
		if !ok || answer != resetConfirmWord {
			fmt.Println("Aborted")
			return nil
		}
	}

	if err := store.Reset(ctx); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]bool{"reset": true})
	}
	fmt.Println("State reset. The next capture will backfill all history.")
	return nil
}
