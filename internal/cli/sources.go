package cli

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/runnerr0/histdigest/internal/browser"
	"github.com/runnerr0/histdigest/internal/history"
)

type sourceJSON struct {
	Name   string `json:"name"`
	Path   string `json:"path,omitempty"`
	Exists bool   `json:"exists"`
}

// Execute implements the go-flags Commander interface for SourcesCommand.
func (c *SourcesCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg, c.globals)
	if err != nil {
		return err
	}
	defer closeLog()

	providers, err := browser.Discover(cfg, log)
	if err != nil {
		return err
	}
	return c.executeWithProviders(providers)
}

// executeWithProviders lists the given providers (for testing).
func (c *SourcesCommand) executeWithProviders(providers []history.Provider) error {
	out := make([]sourceJSON, len(providers))
	for i, p := range providers {
		out[i] = sourceJSON{Name: p.Name()}
		if loc, ok := p.(browser.Located); ok {
			out[i].Path = loc.DatabasePath()
			if _, err := os.Stat(out[i].Path); err == nil {
				out[i].Exists = true
			}
		}
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(out)
	}

	if len(out) == 0 {
		fmt.Println("No history sources enabled.")
		return nil
	}
	data := pterm.TableData{{"Source", "Database", "Found"}}
	for _, s := range out {
		found := "no"
		if s.Exists {
			found = "yes"
		}
		data = append(data, []string{s.Name, s.Path, found})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Println(table)
	return nil
}
