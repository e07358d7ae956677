package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
	libtelemetry "tildes-client/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath    string
	telemetryPath string
	dumpDir       string
	verbose       bool
	twoFactorCode string
)

var otel libtelemetry.Telemetry

var rootCmd = &cobra.Command{
	Use:   "tildes-cli",
	Short: "tildes-cli is a CLI for reading and posting on tildes.net.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		libtelemetry.InitSlog(verbose)

		var err error
		otel, err = libtelemetry.SetupFromConfigFile(cmd.Context(), "tildes-cli", telemetryPath)
		if err != nil {
			slog.Warn("failed to setup telemetry", "err", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := otel.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "tildes.json5", "The config file, tildes.local.json5 overrides it.")
	flags.StringVar(&telemetryPath, "telemetry", "telemetry.json5", "The otlp exporter config file.")
	flags.StringVar(&dumpDir, "dump", "", "Write every http exchange to this directory.")
	flags.StringVar(&twoFactorCode, "code", "", "The two factor code, for accounts that require one.")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log debug messages.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
