package service

// Version, Commit, and BuildTime are set at link time via -ldflags
// (see cmd/brokerproxyd). They back the /version telemetry endpoint.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)
