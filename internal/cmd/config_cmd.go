package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/tabsift/internal/config"
)

func newConfigCmd(gopts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config [key] [value]",
		Short: "Get or set configuration values",
		Long: `Get or set tabsift configuration values.

Without arguments, lists all configuration keys.
With one argument, shows the value of that key.
With two arguments, sets the key to the value.

Configuration is stored in ~/.config/tabsift/config.yaml (XDG compliant),
or in the file named by --config or $TABSIFT_CONFIG.

Keys are in the format: section.key
Sections: filter, substring, regex, fuzzy, picker, log

Examples:
  tabsift config                        # List all keys
  tabsift config filter.regex           # Get filter.regex value
  tabsift config filter.workers 4       # Score rows on 4 goroutines
  tabsift config substring.locale de    # Sort with German collation`,
		Args:    cobra.MaximumNArgs(2),
		GroupID: groupSetup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(cmd.OutOrStdout(), gopts, args)
		},
	}
}

func runConfig(w io.Writer, gopts *globalOptions, args []string) error {
	file := configFile(gopts)
	cfg, err := config.LoadFromFile(file)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch len(args) {
	case 0:
		return listConfig(w, cfg, file)
	case 1:
		return getConfig(w, cfg, args[0])
	default:
		return setConfig(w, cfg, file, args[0], args[1])
	}
}

// configFile resolves the file the config command reads and writes.
func configFile(gopts *globalOptions) string {
	if gopts.configPath != "" {
		return gopts.configPath
	}
	return config.DefaultConfigFile()
}

func listConfig(w io.Writer, cfg *config.Config, file string) error {
	fmt.Fprintf(w, "%sConfiguration Keys%s\n", colorBold, colorReset)
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintln(w)

	var failedKeys []string
	for _, key := range config.ListKeys() {
		value, err := cfg.Get(key)
		if err != nil {
			failedKeys = append(failedKeys, key)
			continue
		}
		if value == "" {
			value = colorDim + "(not set)" + colorReset
		}
		fmt.Fprintf(w, "  %s%s%s = %s\n", colorGreen, key, colorReset, value)
	}

	if len(failedKeys) > 0 {
		fmt.Fprintf(w, "\nWarning: failed to retrieve keys: %s\n", strings.Join(failedKeys, ", "))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Config file: %s\n", file)
	return nil
}

func getConfig(w io.Writer, cfg *config.Config, key string) error {
	value, err := cfg.Get(key)
	if err != nil {
		return err
	}

	if value == "" {
		fmt.Fprintf(w, "%s(not set)%s\n", colorDim, colorReset)
	} else {
		fmt.Fprintln(w, value)
	}
	return nil
}

func setConfig(w io.Writer, cfg *config.Config, file, key, value string) error {
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.SaveToFile(file); err != nil {
		return err
	}

	stored, err := cfg.Get(key)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s%s%s = %s\n", colorGreen, key, colorReset, stored)
	fmt.Fprintf(w, "Saved to: %s\n", file)
	return nil
}
