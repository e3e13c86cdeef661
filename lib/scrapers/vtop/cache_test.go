package vtop

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock is an adjustable time source for aging cache entries.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newCacheTestClient(t *testing.T, clock *fakeClock) *Client {
	client, err := NewClient(ClientOptions{
		Campus: CampusVellore,
		Now:    clock.Now,
	})
	require.NoError(t, err)
	return client
}

func TestCacheServesWithinTTL(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)}
	client := newCacheTestClient(t, clock)

	fetches := 0
	fetch := func(ctx context.Context) (string, error) {
		fetches++
		return fmt.Sprintf("payload-%d", fetches), nil
	}

	value, err := cached(context.Background(), client, "k", fetch)
	require.NoError(t, err)
	require.Equal(t, "payload-1", value)

	clock.Advance(29 * time.Minute)
	value, err = cached(context.Background(), client, "k", fetch)
	require.NoError(t, err)
	require.Equal(t, "payload-1", value)
	require.Equal(t, 1, fetches)
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)}
	client := newCacheTestClient(t, clock)

	fetches := 0
	fetch := func(ctx context.Context) (int, error) {
		fetches++
		return fetches, nil
	}

	_, err := cached(context.Background(), client, "k", fetch)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	value, err := cached(context.Background(), client, "k", fetch)
	require.NoError(t, err)
	require.Equal(t, 2, value)
}

func TestCacheNeverStoresFailures(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)}
	client := newCacheTestClient(t, clock)

	fetches := 0
	fetch := func(ctx context.Context) (string, error) {
		fetches++
		if fetches == 1 {
			return "", fmt.Errorf("portal hiccup")
		}
		return "recovered", nil
	}

	_, err := cached(context.Background(), client, "k", fetch)
	require.Error(t, err)

	// the failure must not have been cached
	value, err := cached(context.Background(), client, "k", fetch)
	require.NoError(t, err)
	require.Equal(t, "recovered", value)
	require.Equal(t, 2, fetches)
}

func TestCacheKeysAreIndependent(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)}
	client := newCacheTestClient(t, clock)

	a, err := cached(context.Background(), client, "a", func(ctx context.Context) (string, error) {
		return "first", nil
	})
	require.NoError(t, err)
	require.Equal(t, "first", a)

	b, err := cached(context.Background(), client, "b", func(ctx context.Context) (string, error) {
		return "second", nil
	})
	require.NoError(t, err)
	require.Equal(t, "second", b)

	a, err = cached(context.Background(), client, "a", func(ctx context.Context) (string, error) {
		t.Fatal("should have been served from cache")
		return "", nil
	})
	require.NoError(t, err)
	require.Equal(t, "first", a)
}

func TestLoginClearsCache(t *testing.T) {
	portal := newFakePortal(t)
	solver := &countingSolver{answers: []string{testCaptcha}}
	client := newTestClient(t, portal, solver)

	_, err := cached(context.Background(), client, "k", func(ctx context.Context) (string, error) {
		return "stale", nil
	})
	require.NoError(t, err)

	err = client.Login(context.Background(), Credentials{
		Username: testUsername,
		Password: testPassword,
	})
	require.NoError(t, err)

	value, err := cached(context.Background(), client, "k", func(ctx context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	require.Equal(t, "fresh", value)
}
