package commands

import (
	"os"
	"time"
	"tildes-client/internal/components/telemetry"
	"tildes-client/internal/notifier"
	libtelemetry "tildes-client/lib/telemetry"

	"github.com/spf13/cobra"
)

var watchQuiet bool

func init() {
	watchCmd.Flags().BoolVarP(&watchQuiet, "quiet", "q", false, "Do not print new notifications, only e-mail them.")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll for unread notifications and deliver new ones until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession(cmd.Context(), true)
		defer s.Close()

		var sinks []notifier.Sink
		if !watchQuiet {
			sinks = append(sinks, notifier.WriterSink{Out: os.Stdout})
		}
		if len(s.cfg.Notify.To) > 0 {
			sinks = append(sinks, notifier.NewEmailSink(s.cfg.Notify.Smtp, s.cfg.Notify.To))
		}
		if len(sinks) == 0 {
			fatalf("there is nowhere to deliver notifications, drop --quiet or configure notify.to")
		}

		libtelemetry.InstrumentPerfStats(cmd.Context(), time.Minute)

		watcher := notifier.NewWatcher(s.client, sinks, notifier.WatcherOptions{
			Interval: time.Duration(s.cfg.Notify.IntervalMinutes) * time.Minute,
		}, telemetry.SlogAPI{})
		watcher.Run(cmd.Context())
	},
}
