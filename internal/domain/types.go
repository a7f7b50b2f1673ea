package domain

import "errors"

// ServiceRecord is the stored registration for one named service. The name is
// the unique key; registering an existing name replaces the record wholesale.
type ServiceRecord struct {
	Name           string         `json:"name"`
	URL            string         `json:"url"`
	HealthCheckURL string         `json:"healthCheckUrl,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	// LastHeartbeat is milliseconds since the epoch. It drives staleness
	// eviction and is refreshed on register, update, and heartbeat.
	LastHeartbeat int64 `json:"lastHeartbeat"`
}

// Clone returns a copy whose metadata map is independent of the receiver's.
func (r ServiceRecord) Clone() ServiceRecord {
	out := r
	if r.Metadata != nil {
		out.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// RecordUpdate carries a partial update for an existing record. Nil pointers
// mean "leave unchanged"; a non-nil Metadata replaces the stored map wholesale.
type RecordUpdate struct {
	URL            *string        `json:"url,omitempty"`
	HealthCheckURL *string        `json:"healthCheckUrl,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// RegisterRequest is the wire body for POST /register.
type RegisterRequest struct {
	Name           string         `json:"name"`
	URL            string         `json:"url"`
	HealthCheckURL string         `json:"healthCheckUrl,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// StatusResponse is the wire body for mutating operations.
type StatusResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorResponse is the wire body for failed operations.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthStatus is the wire body for GET /health.
type HealthStatus struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp int64  `json:"timestamp"`
	Services  int    `json:"services"`
}

var ErrServiceNotFound = errors.New("service not found")
var ErrInvalidRegistration = errors.New("name and url are required")
var ErrRegistryUnavailable = errors.New("registry unavailable")
