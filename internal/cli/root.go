// Package cli wires the kernel to the command line: apply events,
// replay logs, render pages. The kernel packages stay I/O-free; every
// file and database touch happens here.
package cli

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the aide root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "aide",
		Short: "aide - living pages from event logs",
		Long:  "Reduce events into page snapshots and render them as self-contained HTML.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(opts); err != nil {
				return err
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, "invalid format "+opts.Format)
			}
			configureLogging(opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database")

	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// loadConfig fills unset flags from the config file and environment.
// Lookup order: flag, AIDE_* environment variable, ~/.aide.yaml.
func loadConfig(opts *RootOptions) error {
	v := viper.New()
	v.SetEnvPrefix("AIDE")
	v.AutomaticEnv()

	v.SetConfigName(".aide")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return NewExitError(ExitCommandError, "read config: "+err.Error())
		}
	}

	if opts.Database == "" {
		opts.Database = v.GetString("db")
	}
	if opts.Database == "" {
		opts.Database = "aide.db"
	}
	return nil
}

func configureLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
