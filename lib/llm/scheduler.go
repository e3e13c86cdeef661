package llm

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Cooldown lengths for blocked credentials. Per-minute throttles clear
// quickly; daily quotas stay blocked until the next reset window.
const (
	rateLimitCooldown  = time.Minute
	dailyLimitCooldown = 24 * time.Hour
)

// Selection is one usable (credential, model) pair.
type Selection struct {
	Key   string
	Model string
}

// Scheduler hands out API keys round-robin across two model tiers.
// Every key is tried on the lite tier first; only once every key's lite
// quota is blocked does it fall back to flash. Quotas are tracked per
// (key, model) pair because blocking a key on one model says nothing
// about its quota on the other.
//
// Blocked pairs carry an expiry timestamp checked lazily on the next
// selection, there are no background timers.
type Scheduler struct {
	mu          sync.Mutex
	keys        []string
	fallbackKey string
	cursorLite  int
	cursorFlash int
	blocked     map[string]time.Time
	now         func() time.Time
}

type SchedulerOptions struct {
	// Keys is the rotating credential pool.
	Keys []string
	// FallbackKey is used alone (lite tier, no rotation or blocking)
	// when the pool is empty.
	FallbackKey string
	// Now overrides the clock, tests use this to expire cooldowns
	Now func() time.Time
}

func NewScheduler(opts SchedulerOptions) *Scheduler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		keys:        opts.Keys,
		fallbackKey: opts.FallbackKey,
		blocked:     map[string]time.Time{},
		now:         now,
	}
}

// PoolSize reports how many credentials rotate. A lone fallback key
// counts as one.
func (s *Scheduler) PoolSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.keys) == 0 && s.fallbackKey != "" {
		return 1
	}
	return len(s.keys)
}

func blockTag(key, model string) string {
	return key + "::" + model
}

func (s *Scheduler) isBlocked(key, model string) bool {
	expiry, ok := s.blocked[blockTag(key, model)]
	if !ok {
		return false
	}
	if s.now().After(expiry) {
		delete(s.blocked, blockTag(key, model))
		return false
	}
	return true
}

// SelectBest returns the next usable credential, preferring the lite
// tier. It returns false only when every key is blocked on both tiers
// (or no keys are configured at all).
func (s *Scheduler) SelectBest() (Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.keys) == 0 {
		if s.fallbackKey != "" {
			return Selection{Key: s.fallbackKey, Model: ModelLite}, true
		}
		return Selection{}, false
	}

	for i := 0; i < len(s.keys); i++ {
		idx := (s.cursorLite + i) % len(s.keys)
		if !s.isBlocked(s.keys[idx], ModelLite) {
			s.cursorLite = (idx + 1) % len(s.keys)
			return Selection{Key: s.keys[idx], Model: ModelLite}, true
		}
	}

	for i := 0; i < len(s.keys); i++ {
		idx := (s.cursorFlash + i) % len(s.keys)
		if !s.isBlocked(s.keys[idx], ModelFlash) {
			s.cursorFlash = (idx + 1) % len(s.keys)
			return Selection{Key: s.keys[idx], Model: ModelFlash}, true
		}
	}

	slog.Warn("all llm credentials exhausted on both tiers")
	return Selection{}, false
}

// isDailyLimit reports whether a quota error names the daily window
// rather than the per-minute one.
func isDailyLimit(reason string) bool {
	lower := strings.ToLower(reason)
	return strings.Contains(lower, "day") ||
		strings.Contains(lower, "daily") ||
		strings.Contains(reason, "GenerateRequestsPerDay")
}

// Block puts a (key, model) pair on cooldown. The reason string decides
// the length: daily-quota errors block for 24h, anything else for a
// minute.
func (s *Scheduler) Block(key, model, reason string) {
	if key == "" || model == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cooldown := rateLimitCooldown
	kind := "rpm limit"
	if isDailyLimit(reason) {
		cooldown = dailyLimitCooldown
		kind = "daily limit"
	}

	s.blocked[blockTag(key, model)] = s.now().Add(cooldown)
	slog.Warn("blocked llm credential", "model", model, "kind", kind, "cooldown", cooldown)
}
