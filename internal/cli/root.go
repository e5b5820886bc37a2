// Package cli implements usersctl, the terminal client of the users service.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"realtime-users/pkg/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server      string // REST base URL
	GRPC        string // gRPC address
	SessionPath string
	Format      string // "text" | "json"
	Verbose     bool
}

const defaultServer = "http://localhost:8080"

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the usersctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "usersctl",
		Short: "Manage the shared users list",
		Long: `usersctl keeps a live view of the shared users list and lets a
signed-in account add, edit and delete records.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", defaultServer, "REST API base URL")
	cmd.PersistentFlags().StringVar(&opts.GRPC, "grpc", "localhost:50051", "gRPC collection service address")
	cmd.PersistentFlags().StringVar(&opts.SessionPath, "session", defaultSessionPath(), "session file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log diagnostics to stderr")

	cmd.AddCommand(NewSignUpCommand(opts))
	cmd.AddCommand(NewSignInCommand(opts))
	cmd.AddCommand(NewSignOutCommand(opts))
	cmd.AddCommand(NewUICommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".usersctl-session.json"
	}
	return filepath.Join(dir, "usersctl", "session.json")
}

// identity returns the identity client for the configured server and session file.
func (o *RootOptions) identity() *Identity {
	return NewIdentity(o.Server, o.SessionPath)
}

// output returns a formatter writing to cmd's output streams.
func (o *RootOptions) output(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// logger builds the diagnostics logger: warnings only unless --verbose.
func (o *RootOptions) logger() *zap.Logger {
	level := "warn"
	if o.Verbose {
		level = "debug"
	}
	log, err := logger.NewWithConfig(logger.Config{
		Level:       level,
		Format:      "console",
		OutputPath:  "stderr",
		ServiceName: "usersctl",
	})
	if err != nil {
		return zap.NewNop()
	}
	return log
}
