package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/satindergrewal/entrain/internal/config"
)

// cfg is loaded before any init so flag defaults reflect the environment.
var cfg = config.Load()

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "entrain",
	Short: "Render and stream multi-voice entrainment tracks",
	Long: `entrain renders step sequences of binaural, isochronic, monaural and
related voices into a stereo track, crossfading between steps and
mixing background noise and clips over the result.

Settings come from ENTRAIN_* environment variables; flags override them.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg.ConfigureLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	rootCmd.PersistentFlags().IntVarP(&cfg.Workers, "workers", "w", cfg.Workers, "Voices of one step rendered in parallel")

	rootCmd.AddCommand(renderCmd, serveCmd, playCmd, previewCmd, convertCmd, kindsCmd)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
