// Command mlctl trains the Titanic model artifacts and audits the Python dependencies
// of the platform.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ml-audit-platform/internal/config"
	"ml-audit-platform/internal/logging"
)

var (
	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "mlctl",
	Short: "Model training and dependency audit tooling for the ML Audit Platform",
	Long: `mlctl produces the model artifacts served by the prediction service and
audits the Python dependencies of the platform.

Configuration is read from the environment (and an optional .env file), the
same way the server reads it. Flags override the environment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		logCloser = logging.Init(cfg.Logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trainCmd, auditCmd)
	auditCmd.AddCommand(auditHistoryCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
