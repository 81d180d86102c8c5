package quota

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guided-dialogue-be/pkg/dialogue"
)

type fakeUsageStore struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func newFakeUsageStore() *fakeUsageStore {
	return &fakeUsageStore{counts: make(map[string]int)}
}

func (s *fakeUsageStore) ConsumeIfBelow(_ context.Context, key string, _, _ uuid.UUID, limit int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if s.counts[key] >= limit {
		return false, nil
	}
	s.counts[key]++
	return true, nil
}

func (s *fakeUsageStore) Count(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	return s.counts[key], nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}

func newTestTracker(store *fakeUsageStore, limit int) *Tracker {
	return NewTracker(store, limit, time.UTC, nopLogger{})
}

func TestDayKeyFormat(t *testing.T) {
	tr := newTestTracker(newFakeUsageStore(), 2)
	userID := uuid.MustParse("7f9c24e5-2f4c-4b9c-9c23-111111111111")
	at := time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, "7f9c24e5-2f4c-4b9c-9c23-111111111111_2026-03-09", tr.DayKey(userID, at))
}

func TestDayKeyUsesConfiguredLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*3600)
	tr := NewTracker(newFakeUsageStore(), 2, seoul, nopLogger{})
	userID := uuid.New()

	// 16:00 UTC on March 9 is already March 10 in KST.
	at := time.Date(2026, 3, 9, 16, 0, 0, 0, time.UTC)
	assert.Contains(t, tr.DayKey(userID, at), "_2026-03-10")
}

func TestCheckAndConsumeHonorsLimit(t *testing.T) {
	store := newFakeUsageStore()
	tr := newTestTracker(store, 2)
	userID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := tr.CheckAndConsume(ctx, userID, uuid.New())
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := tr.CheckAndConsume(ctx, userID, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	remaining, err := tr.Remaining(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestCheckAndConsumeIsPerUser(t *testing.T) {
	tr := newTestTracker(newFakeUsageStore(), 1)
	ctx := context.Background()

	ok, err := tr.CheckAndConsume(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tr.CheckAndConsume(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllowanceResetsAcrossDays(t *testing.T) {
	store := newFakeUsageStore()
	tr := newTestTracker(store, 1)
	userID := uuid.New()
	ctx := context.Background()

	day := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return day }

	ok, err := tr.CheckAndConsume(ctx, userID, uuid.New())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tr.CheckAndConsume(ctx, userID, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	tr.now = func() time.Time { return day.AddDate(0, 0, 1) }

	ok, err = tr.CheckAndConsume(ctx, userID, uuid.New())
	require.NoError(t, err)
	assert.True(t, ok)

	remaining, err := tr.Remaining(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestStoreFailureDenies(t *testing.T) {
	store := newFakeUsageStore()
	store.err = errors.New("connection refused")
	tr := newTestTracker(store, 2)
	ctx := context.Background()

	ok, err := tr.CheckAndConsume(ctx, uuid.New(), uuid.New())
	assert.False(t, ok)
	assert.ErrorIs(t, err, dialogue.ErrQuotaUnavailable)

	_, err = tr.Remaining(ctx, uuid.New())
	assert.ErrorIs(t, err, dialogue.ErrQuotaUnavailable)
}

func TestConcurrentConsumesNeverExceedLimit(t *testing.T) {
	store := newFakeUsageStore()
	tr := newTestTracker(store, 2)
	userID := uuid.New()

	var wg sync.WaitGroup
	granted := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := tr.CheckAndConsume(context.Background(), userID, uuid.New())
			assert.NoError(t, err)
			granted <- ok
		}()
	}
	wg.Wait()
	close(granted)

	total := 0
	for ok := range granted {
		if ok {
			total++
		}
	}
	assert.Equal(t, 2, total)
}

func TestDefaultLimitApplied(t *testing.T) {
	tr := NewTracker(newFakeUsageStore(), 0, nil, nopLogger{})
	assert.Equal(t, DefaultDailyLimit, tr.Limit())
}
