package domain

// Version is reported by the registry's health endpoint.
const Version = "1.0.0"

const (
	DefaultListenAddress              = "0.0.0.0:3000"
	DefaultObservabilityListenAddress = "0.0.0.0:9090"
	DefaultSweepIntervalSeconds       = 30
	DefaultStaleAfterSeconds          = 60
	DefaultHeartbeatIntervalSeconds   = 30
	DefaultClientTimeoutSeconds       = 5
	DefaultRateLimitRPS               = 50
	DefaultRateLimitBurst             = 100
)
