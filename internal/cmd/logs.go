package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/runger/tabsift/internal/config"
)

const followPollInterval = 100 * time.Millisecond

func newLogsCmd(gopts *globalOptions) *cobra.Command {
	var (
		follow bool
		lines  int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View picker logs",
		Long: `View the log file written by pick.

The picker owns the terminal while it runs, so it logs to log.file, or to
tabsift.log under $XDG_STATE_HOME/tabsift when that is unset.

Examples:
  tabsift logs              # Show last 50 lines
  tabsift logs -f           # Follow log output
  tabsift logs --lines=100  # Show last 100 lines`,
		Args:    cobra.NoArgs,
		GroupID: groupSetup,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(gopts)
			if err != nil {
				return err
			}
			file := cfg.Log.File
			if file == "" {
				file = config.DefaultPaths().LogFile()
			}

			w := cmd.OutOrStdout()
			if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(w, "No log file found at: %s\n", file)
				return nil
			}
			if follow {
				return followLogs(cmd.Context(), w, file)
			}
			return tailLogs(w, file, lines)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines to show")
	return cmd
}

// tailLogs prints the last n lines of filename.
func tailLogs(w io.Writer, filename string, n int) error {
	if n <= 0 {
		return nil
	}

	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	ring := make([]string, n)
	count := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		ring[count%n] = sc.Text()
		count++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}

	if count == 0 {
		fmt.Fprintln(w, "Log file is empty.")
		return nil
	}

	start := 0
	if count > n {
		start = count - n
	}
	for i := start; i < count; i++ {
		fmt.Fprintln(w, ring[i%n])
	}
	return nil
}

// followLogs copies lines appended to filename until ctx is done.
func followLogs(ctx context.Context, w io.Writer, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	fmt.Fprintf(w, "Following %s (Ctrl+C to stop)...\n\n", filename)

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			fmt.Fprint(w, line)
		}
		if err == nil {
			continue
		}
		if err != io.EOF {
			return fmt.Errorf("error reading log: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(followPollInterval):
		}
	}
}
