package llm

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCallWithRetrySucceedsFirstTry(t *testing.T) {
	s := NewScheduler(SchedulerOptions{Keys: []string{"k1", "k2"}})

	calls := 0
	result, err := CallWithRetry(context.Background(), s, func(ctx context.Context, sel Selection) (string, error) {
		calls++
		return "hello", nil
	})
	require.NoError(t, err)
	require.Equal(t, "hello", result)
	require.Equal(t, 1, calls)
}

func TestCallWithRetryRotatesOnQuota(t *testing.T) {
	s := NewScheduler(SchedulerOptions{Keys: []string{"k1", "k2"}})

	var used []Selection
	result, err := CallWithRetry(context.Background(), s, func(ctx context.Context, sel Selection) (string, error) {
		used = append(used, sel)
		if sel.Key == "k1" && sel.Model == ModelLite {
			return "", &StatusError{Code: 429, Message: "rate limited"}
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", result)
	require.Len(t, used, 2)
	require.Equal(t, "k2", used[1].Key)

	// the failing pair must now be blocked out of rotation
	sel, ok := s.SelectBest()
	require.True(t, ok)
	require.Equal(t, "k2", sel.Key)
	sel, ok = s.SelectBest()
	require.True(t, ok)
	require.NotEqual(t, Selection{Key: "k1", Model: ModelLite}, sel)
}

func TestCallWithRetryQuotaExhaustion(t *testing.T) {
	s := NewScheduler(SchedulerOptions{Keys: []string{"k1", "k2"}})

	calls := 0
	_, err := CallWithRetry(context.Background(), s, func(ctx context.Context, sel Selection) (string, error) {
		calls++
		return "", &StatusError{Code: 429, Message: "quota exceeded"}
	})
	// every pair ends up blocked, so selection dries up entirely
	require.ErrorIs(t, err, ErrNoCredentials)
	// two keys tried on both tiers
	require.Equal(t, 4, calls)
}

func TestCallWithRetryDailyLimitOnFallbackKey(t *testing.T) {
	s := NewScheduler(SchedulerOptions{FallbackKey: "solo"})

	calls := 0
	_, err := CallWithRetry(context.Background(), s, func(ctx context.Context, sel Selection) (string, error) {
		calls++
		return "", &StatusError{Code: 429, Message: "quota exceeded: GenerateRequestsPerDay"}
	})
	// the fallback key never leaves rotation, the budget has to stop us
	require.ErrorIs(t, err, ErrDailyLimited)
	require.Equal(t, 3, calls)
}

func TestCallWithRetryOverloadDoesNotBlock(t *testing.T) {
	s := NewScheduler(SchedulerOptions{Keys: []string{"k1", "k2"}})

	calls := 0
	_, err := CallWithRetry(context.Background(), s, func(ctx context.Context, sel Selection) (string, error) {
		calls++
		return "", &StatusError{Code: 503, Message: "model overloaded"}
	})
	require.ErrorIs(t, err, ErrOverloaded)
	require.Equal(t, 3, calls)

	// overload never blocks credentials, the lite tier stays usable
	sel, ok := s.SelectBest()
	require.True(t, ok)
	require.Equal(t, ModelLite, sel.Model)
}

func TestCallWithRetryFailsFastOnOtherErrors(t *testing.T) {
	s := NewScheduler(SchedulerOptions{Keys: []string{"k1", "k2"}})

	calls := 0
	_, err := CallWithRetry(context.Background(), s, func(ctx context.Context, sel Selection) (string, error) {
		calls++
		return "", fmt.Errorf("malformed request")
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrDailyLimited)
	require.NotErrorIs(t, err, ErrOverloaded)
	require.Equal(t, 1, calls)
}

func TestCallWithRetryNoCredentials(t *testing.T) {
	s := NewScheduler(SchedulerOptions{})
	_, err := CallWithRetry(context.Background(), s, func(ctx context.Context, sel Selection) (string, error) {
		t.Fatal("should not be called")
		return "", nil
	})
	require.ErrorIs(t, err, ErrNoCredentials)
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		err      error
		expected errorClass
	}{
		{&StatusError{Code: 429, Message: "slow down"}, classQuota},
		{&StatusError{Code: 503, Message: "busy"}, classOverloaded},
		{fmt.Errorf("you have exceeded your quota"), classQuota},
		{fmt.Errorf("the model is overloaded"), classOverloaded},
		{fmt.Errorf("request timed out"), classOther},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, classify(test.err), test.err.Error())
	}
}
