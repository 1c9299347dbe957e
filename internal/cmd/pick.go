package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/runger/tabsift/internal/config"
	"github.com/runger/tabsift/internal/picker"
	"github.com/runger/tabsift/internal/table"
)

// minTTYWidth is the narrowest terminal the picker will draw in.
const minTTYWidth = 20

func newPickCmd(gopts *globalOptions) *cobra.Command {
	var (
		src   sourceFlags
		modes modeFlags
	)

	cmd := &cobra.Command{
		Use:   "pick [query...]",
		Short: "Choose a row interactively",
		Long: `Open a full-screen picker over the rows and print the chosen row.

Rows piped on stdin are shown while they are still being read. Keys:
  Enter         print the selected row and exit
  Esc, Ctrl+C   exit without a selection (status 1)
  Tab           match only the next column
  Ctrl+R        toggle regex mode

Without a usable terminal the matches for the initial query are printed
instead and the command exits with status 2.`,
		GroupID: groupFilter,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPick(cmd, gopts, &src, &modes, queryFromArgs(args))
		},
	}

	src.register(cmd)
	modes.register(cmd)
	return cmd
}

func runPick(cmd *cobra.Command, gopts *globalOptions, src *sourceFlags, modes *modeFlags, query string) error {
	tty, err := openTTY()
	if err == nil {
		defer tty.Close()
		err = checkTerminal(tty)
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "tabsift: %v; printing matches instead\n", err)
		if ferr := runFilter(cmd, gopts, src, modes, &outputFlags{}, query); ferr != nil {
			return ferr
		}
		return &ExitError{Code: exitFallback}
	}

	cfg, err := loadConfig(gopts)
	if err != nil {
		return err
	}
	if err := modes.apply(cmd, cfg); err != nil {
		return err
	}
	if cfg.Log.File == "" {
		paths := config.DefaultPaths()
		if err := paths.EnsureDirectories(); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
		cfg.Log.File = paths.LogFile()
	}
	logger, closeLog, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	spec, err := src.spec()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var (
		tbl  *table.Table
		rows <-chan table.Batch
	)
	if readsStdin(spec) {
		sep := '\t'
		if spec.Format == table.FormatCSV {
			sep = ','
		}
		tbl, rows, err = table.StreamDelimited(ctx, cmd.InOrStdin(), sep, spec.Header)
	} else {
		tbl, err = table.Open(ctx, spec, cmd.InOrStdin())
	}
	if err != nil {
		return err
	}

	p := newProxy(tbl, cfg, logger)
	model := picker.NewModel(tbl, p, picker.Options{
		Query:      query,
		Debounce:   debounce(cfg),
		ShowScores: cfg.Picker.ShowScores,
		Rows:       rows,
		Logger:     logger,
	})

	lipgloss.SetColorProfile(termenv.NewOutput(tty).ColorProfile())
	prog := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithInput(tty),
		tea.WithOutput(tty),
		tea.WithContext(ctx),
	)

	final, err := prog.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("picker failed: %w", err)
	}

	m, ok := final.(picker.Model)
	if !ok {
		return &ExitError{Code: exitCancelled}
	}
	if m.Err() != nil {
		return m.Err()
	}
	row := m.Result()
	if m.Cancelled() || row == nil {
		return &ExitError{Code: exitCancelled}
	}

	cells := make([]string, len(row))
	for i, cell := range row {
		cells[i] = cellReplacer.Replace(cell)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(cells, "\t"))
	return err
}

// checkTerminal reports why tty cannot host the picker, or nil if it can.
func checkTerminal(tty *os.File) error {
	switch term := os.Getenv("TERM"); term {
	case "", "dumb":
		return fmt.Errorf("terminal %q cannot run the picker", term)
	}
	if w := ttyWidth(tty); w < minTTYWidth {
		return fmt.Errorf("terminal is %d columns wide, need %d", w, minTTYWidth)
	}
	return nil
}
