package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testClock(start time.Time) (*time.Time, func() time.Time) {
	current := start
	return &current, func() time.Time { return current }
}

func TestSelectBestRotatesRoundRobin(t *testing.T) {
	s := NewScheduler(SchedulerOptions{Keys: []string{"k1", "k2", "k3"}})

	var order []string
	for i := 0; i < 4; i++ {
		sel, ok := s.SelectBest()
		require.True(t, ok)
		require.Equal(t, ModelLite, sel.Model)
		order = append(order, sel.Key)
	}

	// three distinct keys, then wrap back to the first
	require.Equal(t, []string{"k1", "k2", "k3", "k1"}, order)
}

func TestSelectBestSkipsBlockedKeys(t *testing.T) {
	s := NewScheduler(SchedulerOptions{Keys: []string{"k1", "k2", "k3"}})
	s.Block("k1", ModelLite, "429 rate limit")

	sel, ok := s.SelectBest()
	require.True(t, ok)
	require.Equal(t, "k2", sel.Key)

	sel, ok = s.SelectBest()
	require.True(t, ok)
	require.Equal(t, "k3", sel.Key)

	sel, ok = s.SelectBest()
	require.True(t, ok)
	require.Equal(t, "k2", sel.Key)
}

func TestBlockIsScopedToModelTier(t *testing.T) {
	s := NewScheduler(SchedulerOptions{Keys: []string{"k1"}})
	s.Block("k1", ModelLite, "429 rate limit")

	// the key's lite quota is burned, but its flash quota is separate
	sel, ok := s.SelectBest()
	require.True(t, ok)
	require.Equal(t, "k1", sel.Key)
	require.Equal(t, ModelFlash, sel.Model)
}

func TestSelectBestFallsBackToFlashTier(t *testing.T) {
	s := NewScheduler(SchedulerOptions{Keys: []string{"k1", "k2"}})
	s.Block("k1", ModelLite, "429")
	s.Block("k2", ModelLite, "429")

	sel, ok := s.SelectBest()
	require.True(t, ok)
	require.Equal(t, ModelFlash, sel.Model)
}

func TestSelectBestTotalExhaustion(t *testing.T) {
	s := NewScheduler(SchedulerOptions{Keys: []string{"k1", "k2"}})
	for _, key := range []string{"k1", "k2"} {
		s.Block(key, ModelLite, "429")
		s.Block(key, ModelFlash, "429")
	}

	_, ok := s.SelectBest()
	require.False(t, ok)
}

func TestBlockExpiresLazily(t *testing.T) {
	current, now := testClock(time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC))
	s := NewScheduler(SchedulerOptions{Keys: []string{"k1"}, Now: now})

	s.Block("k1", ModelLite, "429 rate limit")
	sel, ok := s.SelectBest()
	require.True(t, ok)
	require.Equal(t, ModelFlash, sel.Model)

	*current = current.Add(61 * time.Second)
	sel, ok = s.SelectBest()
	require.True(t, ok)
	require.Equal(t, ModelLite, sel.Model)
}

func TestDailyLimitBlocksLonger(t *testing.T) {
	current, now := testClock(time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC))
	s := NewScheduler(SchedulerOptions{Keys: []string{"k1"}, Now: now})

	s.Block("k1", ModelLite, "quota exceeded: GenerateRequestsPerDay")

	// a minute is not enough for a daily block
	*current = current.Add(2 * time.Minute)
	sel, ok := s.SelectBest()
	require.True(t, ok)
	require.Equal(t, ModelFlash, sel.Model)

	*current = current.Add(25 * time.Hour)
	sel, ok = s.SelectBest()
	require.True(t, ok)
	require.Equal(t, ModelLite, sel.Model)
}

func TestIsDailyLimit(t *testing.T) {
	testCases := []struct {
		reason   string
		expected bool
	}{
		{"quota exceeded: GenerateRequestsPerDay", true},
		{"you have hit your daily cap", true},
		{"limit resets in one day", true},
		{"429 resource exhausted", false},
		{"rate limit per minute", false},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, isDailyLimit(test.reason), test.reason)
	}
}

func TestEmptyPoolUsesFallbackKey(t *testing.T) {
	s := NewScheduler(SchedulerOptions{FallbackKey: "solo"})

	sel, ok := s.SelectBest()
	require.True(t, ok)
	require.Equal(t, "solo", sel.Key)
	require.Equal(t, ModelLite, sel.Model)
	require.Equal(t, 1, s.PoolSize())

	// the fallback key never gets blocked out of service
	s.Block("solo", ModelLite, "429")
	sel, ok = s.SelectBest()
	require.True(t, ok)
	require.Equal(t, "solo", sel.Key)
}

func TestNoKeysAtAll(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})
	_, ok := s.SelectBest()
	require.False(t, ok)
	require.Equal(t, 0, s.PoolSize())
}
