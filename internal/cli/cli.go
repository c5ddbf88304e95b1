package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Capture *CaptureCommand
	Status  *StatusCommand
	Sources *SourcesCommand
	Prune   *PruneCommand
	Reset   *ResetCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "histdigest"
	parser.LongDescription = "Incremental browser history capture into daily or weekly markdown digests."

	cmds := &commands{
		Capture: &CaptureCommand{globals: &globals, version: version},
		Status:  &StatusCommand{globals: &globals, version: version},
		Sources: &SourcesCommand{globals: &globals, version: version},
		Prune:   &PruneCommand{globals: &globals, version: version},
		Reset:   &ResetCommand{globals: &globals, version: version},
	}

	parser.AddCommand("capture", "Run one incremental capture", "Read Chrome and Safari history since the last run and rewrite the affected digests.", cmds.Capture)
	parser.AddCommand("status", "Show last run and source health", "Show the last run time and the latest per-source results.", cmds.Status)
	parser.AddCommand("sources", "List history sources", "List discovered history sources and their database paths.", cmds.Sources)
	parser.AddCommand("prune", "Prune old run history", "Delete per-source run records older than the retention period.", cmds.Prune)
	parser.AddCommand("reset", "Forget capture state", "Forget the last run and notification state so the next capture backfills. Prompts unless --force.", cmds.Reset)

	return parser, &globals, cmds
}

// Run is the main entry point for the histdigest CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// go-flags requires a subcommand, but --version is valid without one.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("histdigest %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
