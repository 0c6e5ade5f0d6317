package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"

	"github.com/sthembisoo/stackdriver-reporter/stackdriver"
)

const (
	envAPIKey    = "STACKDRIVER_API_KEY"
	envProjectID = "STACKDRIVER_PROJECT_ID"
)

var (
	flagProject    string
	flagKey        string
	flagService    string
	flagAppVersion string
	flagTargetURL  string
	flagUser       string
	flagEnvFile    string
	flagTimeout    time.Duration
)

func NewCmdReport() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [message...]",
		Short: "Report an error message to Google Cloud Error Reporting",
		Long: `Report an error message to Google Cloud Error Reporting.

The message is sent together with the stack trace of the reporting call.
Delivery is best effort: failures are logged and do not change the exit code.

Examples:
  # Report an error for the default "web" service
  report --project my-project --key YOUR_API_KEY "payment failed"

  # Attach a service version and user
  report -p my-project -s checkout --app-version 1.4.0 -u alice "payment failed"

  # Read credentials from a .env file
  report --env-file .env "payment failed"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return start(cmd.OutOrStdout(), args)
		},
	}

	cmd.Flags().StringVarP(&flagProject, "project", "p", "", "Google Cloud project ID (or set "+envProjectID+" env var)")
	cmd.Flags().StringVarP(&flagKey, "key", "k", "", "Error Reporting API key (or set "+envAPIKey+" env var)")
	cmd.Flags().StringVarP(&flagService, "service", "s", "", "Service name (default \"web\")")
	cmd.Flags().StringVar(&flagAppVersion, "app-version", "", "Service version")
	cmd.Flags().StringVar(&flagTargetURL, "target-url", "", "Post to this URL instead of the Error Reporting API")
	cmd.Flags().StringVarP(&flagUser, "user", "u", "", "User affected by the error")
	cmd.Flags().StringVar(&flagEnvFile, "env-file", "", "Load environment variables from this file")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", 10*time.Second, "HTTP timeout and maximum time to wait for delivery")

	return cmd
}

func start(out io.Writer, args []string) error {
	if err := loadEnvFile(); err != nil {
		return err
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	message := strings.Join(lo.Filter(args, func(arg string, _ int) bool {
		return strings.TrimSpace(arg) != ""
	}), " ")
	if message == "" {
		return fmt.Errorf("error message must not be blank")
	}

	reporter, err := stackdriver.New(cfg, stackdriver.NewDefaultTransport(flagTimeout))
	if err != nil {
		return fmt.Errorf("failed to create reporter: %w", err)
	}
	if flagUser != "" {
		reporter.SetUser(flagUser)
	}

	reporter.ReportMessage(message)

	if !reporter.Flush(flagTimeout) {
		fmt.Fprintf(out, "Gave up waiting for error report after %s\n", flagTimeout)
		return nil
	}

	fmt.Fprintln(out, "Error report dispatched")
	return nil
}

// loadEnvFile exports the variables of --env-file that are not already set
func loadEnvFile() error {
	if flagEnvFile == "" {
		return nil
	}
	if err := gotenv.Load(flagEnvFile); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// buildConfig resolves reporter settings from flags, falling back to env vars
func buildConfig() (stackdriver.Config, error) {
	key := lo.CoalesceOrEmpty(flagKey, os.Getenv(envAPIKey))
	if key == "" {
		return stackdriver.Config{}, fmt.Errorf("api key required: use --key flag or set %s environment variable", envAPIKey)
	}

	project := lo.CoalesceOrEmpty(flagProject, os.Getenv(envProjectID))
	if project == "" {
		return stackdriver.Config{}, fmt.Errorf("project ID required: use --project flag or set %s environment variable", envProjectID)
	}

	return stackdriver.Config{
		APIKey:    key,
		ProjectID: project,
		Service:   flagService,
		Version:   flagAppVersion,
		TargetURL: flagTargetURL,
	}, nil
}
