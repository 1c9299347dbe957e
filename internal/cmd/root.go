package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

const (
	groupFilter = "filter"
	groupSetup  = "setup"
)

const (
	exitSuccess   = 0
	exitCancelled = 1
	exitFallback  = 2
)

// ExitError carries a process exit code out of a command. Err, when set,
// is reported before exiting.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return 1
}

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
}

// NewRootCmd builds the tabsift command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "tabsift",
		Short: "filter and rank rows of tabular text",
		Long: `tabsift - filter and rank rows of tabular text
  - fuzzy: rows scored by best partial match, best first
  - regex: rows matching a pattern, in source order
  - substring: plain containment, sorted by a column`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/tabsift/config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddGroup(
		&cobra.Group{ID: groupFilter, Title: "Filtering:"},
		&cobra.Group{ID: groupSetup, Title: "Setup:"},
	)
	root.AddCommand(newFilterCmd(opts))
	root.AddCommand(newPickCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newLogsCmd(opts))
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the root command; ctx is cancelled on interrupt.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
