// Command brokerproxyd is a client-facing proxy for a pub/sub messaging
// cluster: it terminates client connections, answers topic-lookup requests
// on a broker's behalf, and splices the data plane directly to the broker
// the client was routed to.
//
// Usage:
//
//	# Start the proxy with default configuration
//	brokerproxyd run
//
//	# Start with a custom configuration file
//	brokerproxyd run --config /path/to/config.yaml
//
//	# Show version information
//	brokerproxyd version
//
// For complete documentation, see the repository README.
package main

func main() {
	Execute()
}
