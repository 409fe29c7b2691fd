// Package retry implements the retry/backoff discipline shared by the
// transcription and generation clients as a small explicit state machine,
// testable with an injected sleeper instead of network mocks.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/podscript-ai/podscript/pkg/logging"
)

const (
	defaultAttempts  = 3
	defaultBaseDelay = 1 * time.Second
	defaultMaxDelay  = 30 * time.Second
)

// State is the machine's position within one call sequence.
type State string

const (
	StatePending        State = "pending"
	StateRetrying       State = "retrying"
	StateSucceeded      State = "succeeded"
	StateFailedTerminal State = "failed_terminal"
)

// Classification is the verdict on one attempt's error. ServerDelay carries a
// service-specified wait (e.g. a rate-limit Retry-After) that overrides the
// exponential schedule when positive.
type Classification struct {
	Transient   bool
	ServerDelay time.Duration
}

// Classifier maps an attempt error onto a Classification.
type Classifier func(error) Classification

// ExhaustedError is returned when every attempt failed transiently.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Machine drives bounded retries with exponential backoff. The zero value is
// not usable; construct with New.
type Machine struct {
	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
	sleep     func(context.Context, time.Duration) error
	onAttempt func(attempt int, delay time.Duration)
}

// Option customizes a Machine.
type Option func(*Machine)

// WithSleeper overrides how backoff waits are performed (used by tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(m *Machine) {
		if sleep != nil {
			m.sleep = sleep
		}
	}
}

// WithAttemptObserver is invoked before every attempt with the attempt number
// (1-based) and the delay that preceded it.
func WithAttemptObserver(observe func(attempt int, delay time.Duration)) Option {
	return func(m *Machine) {
		m.onAttempt = observe
	}
}

// WithMaxDelay caps the backoff delay.
func WithMaxDelay(max time.Duration) Option {
	return func(m *Machine) {
		if max > 0 {
			m.maxDelay = max
		}
	}
}

func New(attempts int, baseDelay time.Duration, opts ...Option) *Machine {
	m := &Machine{
		attempts:  attempts,
		baseDelay: baseDelay,
		maxDelay:  defaultMaxDelay,
		sleep:     sleepContext,
	}
	if m.attempts <= 0 {
		m.attempts = defaultAttempts
	}
	if m.baseDelay <= 0 {
		m.baseDelay = defaultBaseDelay
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Do runs op until it succeeds, fails non-transiently, or the attempt cap is
// reached. Non-transient errors propagate unchanged; exhaustion yields an
// ExhaustedError wrapping the last transient error.
func (m *Machine) Do(ctx context.Context, op func(context.Context) error, classify Classifier) error {
	log := logging.NewLogger(ctx)
	state := StatePending
	delay := time.Duration(0)
	var lastErr error

	for attempt := 1; attempt <= m.attempts; attempt++ {
		if state == StateRetrying {
			if err := m.sleep(ctx, delay); err != nil {
				return err
			}
		}
		if m.onAttempt != nil {
			m.onAttempt(attempt, delay)
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return err
		}

		verdict := Classification{}
		if classify != nil {
			verdict = classify(err)
		}
		if !verdict.Transient {
			return err
		}
		if attempt == m.attempts {
			break
		}

		delay = m.nextDelay(attempt, verdict.ServerDelay)
		state = StateRetrying
		log.Warnf("retry attempt=%d delay=%s error=%v", attempt, delay, err)
	}

	return &ExhaustedError{Attempts: m.attempts, Last: lastErr}
}

// nextDelay computes the wait before attempt+1: the exponential schedule
// base*2^(attempt-1), or the server-specified delay when present, both capped.
// The schedule is non-decreasing across attempts.
func (m *Machine) nextDelay(attempt int, serverDelay time.Duration) time.Duration {
	if serverDelay > 0 {
		return m.cap(serverDelay)
	}
	delay := m.baseDelay
	for i := 1; i < attempt; i++ {
		if delay > m.maxDelay/2 {
			return m.maxDelay
		}
		delay *= 2
	}
	return m.cap(delay)
}

func (m *Machine) cap(delay time.Duration) time.Duration {
	if delay > m.maxDelay {
		return m.maxDelay
	}
	return delay
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
