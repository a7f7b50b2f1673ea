package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svcreg/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	store := NewStore(StoreOptions{Clock: clock.Now})
	return store, clock
}

func TestStoreRegisterAndGet(t *testing.T) {
	store, clock := newTestStore(t)

	err := store.Register("svc-a", "http://a:8080", "http://a:8080/health", map[string]any{"version": "1.2.3"})
	require.NoError(t, err)

	record, ok := store.Get("svc-a")
	require.True(t, ok)
	assert.Equal(t, "svc-a", record.Name)
	assert.Equal(t, "http://a:8080", record.URL)
	assert.Equal(t, "http://a:8080/health", record.HealthCheckURL)
	assert.Equal(t, map[string]any{"version": "1.2.3"}, record.Metadata)
	assert.Equal(t, clock.Now().UnixMilli(), record.LastHeartbeat)
}

func TestStoreRegisterValidation(t *testing.T) {
	store, _ := newTestStore(t)

	require.ErrorIs(t, store.Register("", "http://a:8080", "", nil), domain.ErrInvalidRegistration)
	require.ErrorIs(t, store.Register("svc-a", "", "", nil), domain.ErrInvalidRegistration)
	assert.Equal(t, 0, store.Count())
}

func TestStoreRegisterOverwrites(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.Register("svc-a", "http://old:8080", "http://old/health", map[string]any{"version": "1"}))
	require.NoError(t, store.Register("svc-a", "http://new:9090", "", nil))

	record, ok := store.Get("svc-a")
	require.True(t, ok)
	assert.Equal(t, "http://new:9090", record.URL)
	assert.Empty(t, record.HealthCheckURL)
	assert.Nil(t, record.Metadata)
	assert.Equal(t, 1, store.Count())
}

func TestStoreUpdatePartial(t *testing.T) {
	store, clock := newTestStore(t)
	require.NoError(t, store.Register("svc-a", "http://a:8080", "http://a/health", map[string]any{"version": "1"}))

	before, _ := store.Get("svc-a")
	clock.Advance(5 * time.Second)

	url := "http://b:9090"
	ok := store.Update("svc-a", domain.RecordUpdate{URL: &url})
	require.True(t, ok)

	record, found := store.Get("svc-a")
	require.True(t, found)
	assert.Equal(t, "http://b:9090", record.URL)
	assert.Equal(t, "http://a/health", record.HealthCheckURL)
	assert.Equal(t, map[string]any{"version": "1"}, record.Metadata)
	assert.Greater(t, record.LastHeartbeat, before.LastHeartbeat)
}

func TestStoreUpdateReplacesMetadataWholesale(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Register("svc-a", "http://a:8080", "", map[string]any{"version": "1", "zone": "eu"}))

	ok := store.Update("svc-a", domain.RecordUpdate{Metadata: map[string]any{"version": "2"}})
	require.True(t, ok)

	record, _ := store.Get("svc-a")
	assert.Equal(t, map[string]any{"version": "2"}, record.Metadata)
}

func TestStoreUpdateUnknownName(t *testing.T) {
	store, _ := newTestStore(t)

	url := "http://a:8080"
	assert.False(t, store.Update("missing", domain.RecordUpdate{URL: &url}))
	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestStoreRecordHeartbeat(t *testing.T) {
	store, clock := newTestStore(t)
	require.NoError(t, store.Register("svc-a", "http://a:8080", "http://a/health", map[string]any{"version": "1"}))

	before, _ := store.Get("svc-a")
	clock.Advance(10 * time.Second)

	require.True(t, store.RecordHeartbeat("svc-a"))
	assert.False(t, store.RecordHeartbeat("missing"))

	record, _ := store.Get("svc-a")
	assert.GreaterOrEqual(t, record.LastHeartbeat, before.LastHeartbeat)
	assert.Equal(t, before.URL, record.URL)
	assert.Equal(t, before.HealthCheckURL, record.HealthCheckURL)
	assert.Equal(t, before.Metadata, record.Metadata)
}

func TestStoreGetDoesNotRefreshHeartbeat(t *testing.T) {
	store, clock := newTestStore(t)
	require.NoError(t, store.Register("svc-a", "http://a:8080", "", nil))

	before, _ := store.Get("svc-a")
	clock.Advance(time.Minute)

	record, _ := store.Get("svc-a")
	assert.Equal(t, before.LastHeartbeat, record.LastHeartbeat)
}

func TestStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Register("svc-a", "http://a:8080", "", nil))

	assert.True(t, store.Delete("svc-a"))
	assert.False(t, store.Delete("svc-a"))
	assert.NotContains(t, store.GetAll(), "svc-a")
}

func TestStoreRemoveStale(t *testing.T) {
	store, clock := newTestStore(t)
	require.NoError(t, store.Register("svc-old", "http://old:8080", "", nil))

	clock.Advance(61 * time.Second)
	require.NoError(t, store.Register("svc-new", "http://new:8080", "", nil))

	evicted := store.RemoveStale(60 * time.Second)
	assert.Equal(t, 1, evicted)

	all := store.GetAll()
	assert.NotContains(t, all, "svc-old")
	assert.Contains(t, all, "svc-new")
}

func TestStoreRemoveStaleKeepsFreshHeartbeats(t *testing.T) {
	store, clock := newTestStore(t)
	require.NoError(t, store.Register("svc-a", "http://a:8080", "", nil))

	clock.Advance(59 * time.Second)
	require.True(t, store.RecordHeartbeat("svc-a"))
	clock.Advance(59 * time.Second)

	assert.Equal(t, 0, store.RemoveStale(60*time.Second))
	assert.Equal(t, 1, store.Count())
}

func TestStoreGetAllReturnsSnapshot(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.Register("svc-a", "http://a:8080", "", map[string]any{"version": "1"}))

	all := store.GetAll()
	all["svc-a"].Metadata["version"] = "tampered"
	delete(all, "svc-a")

	record, ok := store.Get("svc-a")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"version": "1"}, record.Metadata)
}

func TestStoreSweeperLifecycle(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(StoreOptions{Clock: clock.Now})
	require.NoError(t, store.Register("svc-a", "http://a:8080", "", nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock.Advance(2 * time.Second)
	store.StartSweeper(ctx, 10*time.Millisecond, time.Second)
	// Second start is a no-op.
	store.StartSweeper(ctx, 10*time.Millisecond, time.Second)

	require.Eventually(t, func() bool {
		return store.Count() == 0
	}, time.Second, 10*time.Millisecond)

	store.StopSweeper()

	require.NoError(t, store.Register("svc-b", "http://b:8080", "", nil))
	clock.Advance(2 * time.Second)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, store.Count())
}
