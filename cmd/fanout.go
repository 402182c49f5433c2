package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"queryfanout/pkg/agent"
	"queryfanout/pkg/browser"
	"queryfanout/pkg/browserbase"
	"queryfanout/pkg/fanout"
	"queryfanout/pkg/logging"
	"queryfanout/pkg/metrics"
	"queryfanout/pkg/service"
	"queryfanout/pkg/services"
	"queryfanout/pkg/stores/s3"
	"queryfanout/pkg/ui"
)

var (
	queryFlag    string
	servicesFlag []string
	outputFlag   string
	driverFlag   string
	providerFlag string
	tuiFlag      bool

	fanoutCmd = &cobra.Command{
		Use:   "fanout",
		Short: "Submit one query to every configured service and aggregate the results",
		Long:  longFanout,
		RunE:  runFanout,
	}
)

func init() {
	rootCmd.AddCommand(fanoutCmd)

	fanoutCmd.Flags().StringVarP(&queryFlag, "query", "q", "", "the query to fan out")
	fanoutCmd.Flags().StringSliceVarP(&servicesFlag, "services", "s", nil, "service keys to query (default: all)")
	fanoutCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "file path for the JSON report")
	fanoutCmd.Flags().StringVar(&driverFlag, "driver", "", "submission driver: direct or agent")
	fanoutCmd.Flags().StringVar(&providerFlag, "provider", "", "browser provider: browserbase or local")
	fanoutCmd.Flags().BoolVar(&tuiFlag, "tui", false, "show a live progress view")

	fanoutCmd.MarkFlagRequired("query")
}

/*
runFanout executes the whole fanout. Per-service failures are reported in
the results, never through the exit status; only setup problems (missing
credentials, unknown driver) fail the command.
*/
func runFanout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	provider, err := buildBrowserProvider()
	if err != nil {
		return err
	}

	driver, err := buildDriver(ctx)
	if err != nil {
		return err
	}

	collector := metrics.NewFanoutMetrics()

	options := []fanout.RunnerOption{
		fanout.WithDriver(driver),
		fanout.WithMetrics(collector),
	}

	width := viper.GetInt("browser.viewport.width")
	height := viper.GetInt("browser.viewport.height")
	if width > 0 && height > 0 {
		options = append(options, fanout.WithViewport(width, height))
	}

	if logFile := viper.GetString("log.file"); logFile != "" {
		transcript, err := logging.Open(logFile)
		if err != nil {
			log.Warn("failed to open transcript file", "path", logFile, "error", err)
		} else {
			defer transcript.Close()
			options = append(options, fanout.WithTranscript(transcript))
		}
	}

	observers := buildObservers()

	keys := servicesFlag
	if len(keys) == 0 {
		keys = viper.GetStringSlice("fanout.services")
	}

	output := outputFlag
	if output == "" {
		output = viper.GetString("fanout.output")
	}

	if tuiFlag {
		program := tea.NewProgram(ui.NewProgress(queryFlag))
		observers = append(observers, tuiObserver{program: program})
		options = append(options,
			fanout.WithOutput(io.Discard),
			fanout.WithObserver(observers),
		)

		runner := fanout.NewRunner(provider, services.DefaultRegistry(), options...)

		done := make(chan []fanout.QueryResult, 1)
		go func() {
			done <- runner.Run(ctx, queryFlag, keys, output)
		}()

		if _, err := program.Run(); err != nil {
			log.Error("progress view failed", "error", err)
		}

		results := <-done
		fmt.Fprintln(os.Stdout, fanout.RenderTally(results))
	} else {
		if len(observers) > 0 {
			options = append(options, fanout.WithObserver(observers))
		}

		runner := fanout.NewRunner(provider, services.DefaultRegistry(), options...)
		runner.Run(ctx, queryFlag, keys, output)
	}

	if verboseFlag {
		log.Debug("run metrics", "snapshot", collector.Snapshot())
	}

	return nil
}

func buildBrowserProvider() (browser.Provider, error) {
	name := providerFlag
	if name == "" {
		name = viper.GetString("browser.provider")
	}

	switch name {
	case "local":
		options := []browser.LocalOption{}
		if proxy := viper.GetString("browser.proxy"); proxy != "" {
			options = append(options, browser.WithProxy(proxy))
		}
		return browser.NewLocal(options...), nil
	case "", "browserbase":
		creds, err := browserbase.LoadCredentials(browserbase.CredentialsFile())
		if err != nil {
			return nil, err
		}
		return browser.NewBrowserbase(browserbase.NewClient(creds.APIKey), creds), nil
	}

	return nil, fmt.Errorf("unknown browser provider: %s", name)
}

func buildDriver(ctx context.Context) (fanout.Driver, error) {
	name := driverFlag
	if name == "" {
		name = viper.GetString("fanout.driver")
	}

	switch name {
	case "", "direct":
		return fanout.DirectDriver{}, nil
	case "agent":
		provider, err := agent.NewProvider(
			ctx,
			viper.GetString("agent.provider"),
			viper.GetString("agent.model"),
		)
		if err != nil {
			return nil, err
		}
		return agent.NewDriver(
			provider,
			agent.WithDriverMaxSteps(viper.GetInt("agent.max_steps")),
		), nil
	}

	return nil, fmt.Errorf("unknown driver: %s", name)
}

// buildObservers wires the optional Slack notifier and artifact archive
// from config. Either may be absent; both are best effort.
func buildObservers() fanout.MultiObserver {
	observers := fanout.MultiObserver{}

	channel := viper.GetString("notify.slack_channel")
	token := os.Getenv("SLACK_BOT_TOKEN")
	if channel != "" && token != "" {
		observers = append(observers, service.NewSlackNotifier(token, channel))
	}

	endpoint := viper.GetString("artifacts.endpoint")
	bucket := viper.GetString("artifacts.bucket")
	if endpoint != "" && bucket != "" {
		conn, err := s3.NewConn(s3.ConnOptions{
			Endpoint:  endpoint,
			AccessKey: viper.GetString("artifacts.access_key"),
			SecretKey: viper.GetString("artifacts.secret_key"),
			Bucket:    bucket,
			UseSSL:    viper.GetBool("artifacts.use_ssl"),
		})
		if err != nil {
			log.Warn("artifact archive disabled", "error", err)
		} else {
			observers = append(observers, s3.NewArchive(conn))
		}
	}

	return observers
}

// tuiObserver forwards run lifecycle events into the bubbletea program.
type tuiObserver struct {
	program *tea.Program
}

func (o tuiObserver) ServiceStarted(desc services.Descriptor) {
	o.program.Send(ui.ServiceStartedMsg{Key: desc.Key, Name: desc.Name})
}

func (o tuiObserver) ServiceFinished(result fanout.QueryResult) {
	o.program.Send(ui.ServiceDoneMsg{
		Key:     result.Service,
		Success: result.Success,
		Err:     result.Error,
	})
}

func (o tuiObserver) RunFinished(results []fanout.QueryResult) {
	o.program.Send(ui.RunDoneMsg{})
}

var longFanout = `
Submit one query to the configured AI chat services through remote browser
sessions, wait for each answer using per-service completion heuristics,
and print an aggregated report.

Examples:
  # Query every registered service
  queryfanout fanout --query "best mechanical keyboards 2026"

  # Only Perplexity, saving the JSON report
  queryfanout fanout -q "best espresso grinder" -s perplexity -o report.json

  # Let a computer-use model drive the submission
  queryfanout fanout -q "what changed in go 1.25" --driver agent
`
