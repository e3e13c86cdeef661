package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// Failure classes surfaced when CallWithRetry gives up. Callers phrase
// user-facing degradation messages off these.
var (
	// ErrNoCredentials means no usable credential existed at all.
	ErrNoCredentials = errors.New("no usable llm credentials")
	// ErrDailyLimited means the quota retry budget ran out.
	ErrDailyLimited = errors.New("llm daily request limit reached")
	// ErrOverloaded means the overload retry budget ran out.
	ErrOverloaded = errors.New("llm model overloaded")
)

type errorClass int

const (
	classOther errorClass = iota
	// classQuota is a billable-quota rejection: block the credential
	// and move on to the next one.
	classQuota
	// classOverloaded is upstream capacity pressure: retrying with
	// another credential may help, but blocking is pointless.
	classOverloaded
)

func classify(err error) errorClass {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case 429:
			return classQuota
		case 503:
			return classOverloaded
		}
	}

	message := err.Error()
	switch {
	case strings.Contains(message, "429"), strings.Contains(message, "quota"):
		return classQuota
	case strings.Contains(message, "503"), strings.Contains(message, "overloaded"):
		return classOverloaded
	}
	return classOther
}

// GenerateFunc runs one attempt under the given credential.
type GenerateFunc func(ctx context.Context, sel Selection) (string, error)

// CallWithRetry drives call through the scheduler's rotation until it
// succeeds or the retry budget runs out. Quota failures block the
// credential pair and allow up to twice the pool size in attempts,
// since each key may fail once per tier; overload failures rotate
// without blocking and allow one attempt per key. Anything else fails
// fast.
func CallWithRetry(ctx context.Context, s *Scheduler, call GenerateFunc) (string, error) {
	pool := s.PoolSize()
	quotaBudget := pool * 2
	overloadBudget := pool

	attempt := 0
	for {
		sel, ok := s.SelectBest()
		if !ok {
			return "", ErrNoCredentials
		}

		result, err := call(ctx, sel)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return "", err
		}

		switch classify(err) {
		case classQuota:
			s.Block(sel.Key, sel.Model, err.Error())
			attempt++
			if attempt > quotaBudget {
				return "", errors.Join(ErrDailyLimited, err)
			}
			slog.DebugContext(ctx, "llm quota hit, rotating",
				"model", sel.Model, "attempt", attempt)

		case classOverloaded:
			attempt++
			if attempt > overloadBudget {
				return "", errors.Join(ErrOverloaded, err)
			}
			slog.DebugContext(ctx, "llm overloaded, rotating",
				"model", sel.Model, "attempt", attempt)

		default:
			return "", err
		}
	}
}
