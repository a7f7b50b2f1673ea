package domain

import "time"

// Metrics receives registry telemetry. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveRequest(method, route string, status int, duration time.Duration)
	ObserveRegistration(name string)
	ObserveHeartbeat(name string, ok bool)
	ObserveEvictions(count int)
	SetActiveServices(count int)
}
