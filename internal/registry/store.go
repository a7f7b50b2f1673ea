package registry

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"svcreg/internal/domain"
)

// Store is the authoritative in-memory directory of live services. All
// mutation goes through its methods; the backing map is never handed out.
type Store struct {
	logger  *zap.Logger
	metrics domain.Metrics

	mu       sync.RWMutex
	services map[string]*domain.ServiceRecord
	now      func() time.Time
	onSweep  func(evicted int)

	sweepStarted bool
	sweepCancel  context.CancelFunc
}

// StoreOptions captures dependencies for a Store.
type StoreOptions struct {
	Logger  *zap.Logger
	Metrics domain.Metrics
	// Clock overrides time.Now, used by tests to control staleness.
	Clock func() time.Time
	// OnSweep is invoked after every background sweep pass, e.g. to beat a
	// liveness tracker.
	OnSweep func(evicted int)
}

func NewStore(opts StoreOptions) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Store{
		logger:   logger,
		metrics:  opts.Metrics,
		services: make(map[string]*domain.ServiceRecord),
		now:      now,
		onSweep:  opts.OnSweep,
	}
}

// Register inserts or fully replaces the record for name. Registering an
// already-present name overwrites it; last writer wins.
func (s *Store) Register(name, url, healthCheckURL string, metadata map[string]any) error {
	if name == "" || url == "" {
		return domain.ErrInvalidRegistration
	}

	record := &domain.ServiceRecord{
		Name:           name,
		URL:            url,
		HealthCheckURL: healthCheckURL,
		LastHeartbeat:  s.now().UnixMilli(),
	}
	if metadata != nil {
		record.Metadata = make(map[string]any, len(metadata))
		for k, v := range metadata {
			record.Metadata[k] = v
		}
	}

	s.mu.Lock()
	_, replaced := s.services[name]
	s.services[name] = record
	count := len(s.services)
	s.mu.Unlock()

	s.logger.Info("service registered",
		zap.String("service", name),
		zap.String("url", url),
		zap.Bool("replaced", replaced),
	)
	if s.metrics != nil {
		s.metrics.ObserveRegistration(name)
		s.metrics.SetActiveServices(count)
	}
	return nil
}

// Update merges the provided fields over an existing record and refreshes its
// heartbeat. Returns false if the name is not registered.
func (s *Store) Update(name string, update domain.RecordUpdate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.services[name]
	if !ok {
		return false
	}
	if update.URL != nil {
		record.URL = *update.URL
	}
	if update.HealthCheckURL != nil {
		record.HealthCheckURL = *update.HealthCheckURL
	}
	if update.Metadata != nil {
		metadata := make(map[string]any, len(update.Metadata))
		for k, v := range update.Metadata {
			metadata[k] = v
		}
		record.Metadata = metadata
	}
	record.LastHeartbeat = s.now().UnixMilli()
	return true
}

// Get returns a copy of the record for name. It does not refresh the heartbeat.
func (s *Store) Get(name string) (domain.ServiceRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.services[name]
	if !ok {
		return domain.ServiceRecord{}, false
	}
	return record.Clone(), true
}

// GetAll returns a snapshot of every record, including not-yet-swept stale ones.
func (s *Store) GetAll() map[string]domain.ServiceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.ServiceRecord, len(s.services))
	for name, record := range s.services {
		out[name] = record.Clone()
	}
	return out
}

// RecordHeartbeat refreshes LastHeartbeat for name. Returns false if the name
// is not registered.
func (s *Store) RecordHeartbeat(name string) bool {
	s.mu.Lock()
	record, ok := s.services[name]
	if ok {
		record.LastHeartbeat = s.now().UnixMilli()
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ObserveHeartbeat(name, ok)
	}
	return ok
}

// Delete removes the record for name and reports whether it existed.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	_, ok := s.services[name]
	if ok {
		delete(s.services, name)
	}
	count := len(s.services)
	s.mu.Unlock()

	if ok {
		s.logger.Info("service deregistered", zap.String("service", name))
		if s.metrics != nil {
			s.metrics.SetActiveServices(count)
		}
	}
	return ok
}

// RemoveStale evicts every record whose last heartbeat is older than maxAge.
// Returns the number of evicted records.
func (s *Store) RemoveStale(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge).UnixMilli()

	s.mu.Lock()
	var evicted []string
	for name, record := range s.services {
		if record.LastHeartbeat < cutoff {
			delete(s.services, name)
			evicted = append(evicted, name)
		}
	}
	count := len(s.services)
	s.mu.Unlock()

	for _, name := range evicted {
		s.logger.Warn("stale service evicted",
			zap.String("service", name),
			zap.Duration("maxAge", maxAge),
		)
	}
	if len(evicted) > 0 && s.metrics != nil {
		s.metrics.ObserveEvictions(len(evicted))
		s.metrics.SetActiveServices(count)
	}
	return len(evicted)
}

// Count returns the number of live records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.services)
}

// StartSweeper begins the background staleness sweep. It is a no-op if the
// sweeper is already running. The sweep stops when ctx is cancelled or
// StopSweeper is called.
func (s *Store) StartSweeper(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 || maxAge <= 0 {
		return
	}

	s.mu.Lock()
	if s.sweepStarted {
		s.mu.Unlock()
		return
	}
	s.sweepStarted = true
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	sweepCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.sweepCancel = cancel
	s.mu.Unlock()

	s.logger.Info("staleness sweep started",
		zap.Duration("interval", interval),
		zap.Duration("maxAge", maxAge),
	)

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				evicted := s.RemoveStale(maxAge)
				if s.onSweep != nil {
					s.onSweep(evicted)
				}
			}
		}
	}()
}

// StopSweeper cancels the background sweep if it is running.
func (s *Store) StopSweeper() {
	s.mu.Lock()
	cancel := s.sweepCancel
	s.sweepCancel = nil
	s.sweepStarted = false
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
