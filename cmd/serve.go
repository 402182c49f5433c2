package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"queryfanout/pkg/fanout"
	"queryfanout/pkg/metrics"
	"queryfanout/pkg/service"
	"queryfanout/pkg/services"
)

var (
	addrFlag string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Expose the fanout runner over HTTP",
		Long:  longServe,
		RunE:  runServe,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (default :3210)")
}

func runServe(cmd *cobra.Command, args []string) error {
	provider, err := buildBrowserProvider()
	if err != nil {
		return err
	}

	driver, err := buildDriver(cmd.Context())
	if err != nil {
		return err
	}

	collector := metrics.NewFanoutMetrics()
	registry := services.DefaultRegistry()

	options := []fanout.RunnerOption{
		fanout.WithDriver(driver),
		fanout.WithMetrics(collector),
	}

	if observers := buildObservers(); len(observers) > 0 {
		options = append(options, fanout.WithObserver(observers))
	}

	runner := fanout.NewRunner(provider, registry, options...)

	addr := addrFlag
	if addr == "" {
		addr = viper.GetString("serve.addr")
	}

	serverOptions := []service.FanoutServerOption{
		service.WithServerMetrics(collector),
	}
	if addr != "" {
		serverOptions = append(serverOptions, service.WithAddr(addr))
	}
	if secret := viper.GetString("serve.jwt_secret"); secret != "" {
		serverOptions = append(serverOptions, service.WithAuth(secret))
	}

	return service.NewFanoutServer(runner, registry, serverOptions...).Start()
}

var longServe = `
Run the fanout as an HTTP service.

Routes:
  POST /v1/fanout    run a query across services, returns {run_id, results}
  GET  /v1/services  list the registered services
  GET  /v1/metrics   counters for runs, outcomes, polling, and captures
  GET  /livez        liveness probe

Set serve.jwt_secret in the config to require bearer tokens on /v1.
`
