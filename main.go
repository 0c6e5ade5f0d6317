package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sthembisoo/stackdriver-reporter/cmd/report"
)

var flagDebug bool

var rootCmd = &cobra.Command{
	Use:   "stackdriver-reporter",
	Short: "Report application errors to Google Cloud Error Reporting",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging(flagDebug)
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	rootCmd.AddCommand(report.NewCmdReport())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func configureLogging(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
