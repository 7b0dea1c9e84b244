package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/brokerproxy/pkg/service"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "brokerproxyd",
	Short: "A client-facing proxy for a pub/sub messaging cluster",
	Long: `brokerproxyd terminates client connections to a pub/sub messaging
cluster, authenticates them, answers topic-lookup requests on a broker's
behalf, and splices the data plane directly to the broker a client was
routed to.

It provides:
  - Connect/AuthResponse-driven client authentication (token or mTLS)
  - Admission control capping global and per-source-IP concurrent connections
  - Topic lookup with broker-service-URL rewriting back to the proxy
  - Egress-validated, zero-copy-capable splicing to backend brokers
  - Prometheus metrics, structured logging, and distributed tracing`,
	Version: service.Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
