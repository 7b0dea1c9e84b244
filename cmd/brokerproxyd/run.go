package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/brokerproxy/pkg/cli"
	"mercator-hq/brokerproxy/pkg/config"
	"mercator-hq/brokerproxy/pkg/service"
)

var runFlags struct {
	bindAddress string
	logLevel    string
	dryRun      bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the broker proxy",
	Long: `Start the broker proxy with the specified configuration.

The proxy listens on the configured address(es), authenticates clients,
answers topic-lookup requests on behalf of the backend brokers, and
splices the data plane directly to the broker selected for each client.

Examples:
  # Start with default config
  brokerproxyd run

  # Start with custom config
  brokerproxyd run --config /etc/brokerproxy/config.yaml

  # Override the bind address
  brokerproxyd run --bind 0.0.0.0

  # Validate config without starting the proxy
  brokerproxyd run --dry-run`,
	RunE: runProxy,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.bindAddress, "bind", "", "override the listener bind address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the proxy")
}

func runProxy(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}

	if runFlags.bindAddress != "" {
		cfg.Proxy.BindAddress = runFlags.bindAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	if runFlags.dryRun {
		fmt.Println("configuration valid")
		return nil
	}

	svc, err := service.New(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Printf("brokerproxyd %s starting\n", service.Version)
	fmt.Printf("listening on %s:%d (tls port %d)\n", cfg.Proxy.BindAddress, cfg.Proxy.ServicePort, cfg.Proxy.ServicePortTLS)
	if cfg.Telemetry.Metrics.Port > 0 {
		fmt.Printf("telemetry on :%d (%s, %s)\n", cfg.Telemetry.Metrics.Port, cfg.Telemetry.Metrics.Path, cfg.Telemetry.Health.ReadinessPath)
	}
	fmt.Println("press Ctrl+C to stop")

	ctx := cli.SetupSignalHandler()
	if err := svc.Run(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("broker proxy stopped")
	return nil
}
