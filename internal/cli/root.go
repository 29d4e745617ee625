package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aaronromeo/mailtrim/internal/cleanup"
	"github.com/spf13/cobra"
)

const (
	exitAuth   = 2
	exitFolder = 3
	exitOther  = 1
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mailtrim",
		Short:         "mailtrim quarantines and deletes unwanted IMAP mail",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (or set MAILTRIM_CONFIG)")
	rootCmd.AddCommand(
		newCleanupCmd(),
		newRestoreCmd(),
		newInspectCmd(),
		newInteractiveCmd(),
		newServeCmd(),
		newLoginCmd(),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(ExitCode(err))
	}
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch cleanup.KindOf(err) {
	case "":
		return 0
	case cleanup.KindAuth:
		return exitAuth
	case cleanup.KindFolder:
		return exitFolder
	default:
		return exitOther
	}
}
