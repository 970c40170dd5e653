// Package rotation drives one logical provider operation across ordered
// credential phases, skipping cooled-down keys and rotating on retryable failures.
package rotation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quiz-forge/internal/domain"
	"quiz-forge/internal/keyhealth"
	"quiz-forge/internal/metrics"
	"quiz-forge/internal/provider"

	"go.uber.org/zap"
)

const (
	DefaultRetryDelay     = 500 * time.Millisecond
	DefaultAttemptTimeout = 120 * time.Second
)

// ErrNoCredentials is wrapped by ExhaustionError when no phase had any credential.
var ErrNoCredentials = errors.New("no credentials available")

// Phase is a named, ordered group of credentials tried before the next phase.
type Phase struct {
	Name        string
	Credentials []domain.Credential
}

// ExhaustionError is returned when every credential of every phase failed or
// was skipped.
type ExhaustionError struct {
	Attempts int
	Last     error
}

func (e *ExhaustionError) Error() string {
	return fmt.Sprintf("all credentials exhausted after %d attempt(s): %v", e.Attempts, e.Last)
}

func (e *ExhaustionError) Unwrap() error {
	return e.Last
}

// IsExhausted reports whether err is (or wraps) an ExhaustionError.
func IsExhausted(err error) bool {
	var ex *ExhaustionError
	return errors.As(err, &ex)
}

// Config holds the rotation timing policy.
type Config struct {
	RetryDelay     time.Duration
	CooldownWindow time.Duration
	// AttemptTimeout bounds each single provider call. Zero disables it.
	AttemptTimeout time.Duration
}

// DefaultConfig returns the fixed-delay policy: 500ms between attempts and a
// 60s cool-down window.
func DefaultConfig() Config {
	return Config{
		RetryDelay:     DefaultRetryDelay,
		CooldownWindow: keyhealth.DefaultCooldownWindow,
		AttemptTimeout: DefaultAttemptTimeout,
	}
}

// Executor applies the skip/retry/fallback policy. It is safe for concurrent use.
type Executor struct {
	registry *keyhealth.Registry
	cfg      Config
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *zap.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the executor logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSleep replaces the inter-attempt delay, mainly for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) {
		e.sleep = sleep
	}
}

// NewExecutor creates an Executor that records health into registry.
func NewExecutor(registry *keyhealth.Registry, cfg Config, opts ...Option) *Executor {
	e := &Executor{
		registry: registry,
		cfg:      cfg,
		sleep:    sleepContext,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the health registry the executor writes to.
func (e *Executor) Registry() *keyhealth.Registry {
	return e.registry
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Execute runs op against the credentials of each phase in order and returns
// the first success. Credentials cooling down are skipped, except the final
// candidate which is always attempted. A provider.KindRequest failure is
// returned immediately without rotating.
func Execute[T any](ctx context.Context, e *Executor, phases []Phase, op func(ctx context.Context, cred domain.Credential) (T, error)) (T, error) {
	var zero T

	lastPhase := -1
	for i, p := range phases {
		if len(p.Credentials) > 0 {
			lastPhase = i
		}
	}
	if lastPhase < 0 {
		metrics.RotationExhausted.Inc()
		return zero, &ExhaustionError{Last: ErrNoCredentials}
	}

	var lastErr error
	attempts := 0

	for pi, phase := range phases {
		if len(phase.Credentials) == 0 {
			continue
		}
		for ci, cred := range phase.Credentials {
			if err := ctx.Err(); err != nil {
				return zero, err
			}

			e.registry.Ensure(cred)
			lastResort := pi == lastPhase && ci == len(phase.Credentials)-1

			if !lastResort && e.registry.IsCoolingDown(cred, e.registry.Now(), e.cfg.CooldownWindow) {
				e.logger.Debug("Skipping credential in cool-down",
					zap.String("phase", phase.Name),
					zap.String("key", cred.Mask()),
				)
				metrics.RotationSkips.WithLabelValues(phase.Name).Inc()
				continue
			}

			attempts++
			result, err := attempt(ctx, e.cfg.AttemptTimeout, cred, op)
			if err == nil {
				e.registry.RecordSuccess(cred)
				metrics.RotationAttempts.WithLabelValues(phase.Name, "success").Inc()
				return result, nil
			}

			if ctx.Err() != nil {
				return zero, ctx.Err()
			}

			kind := provider.KindOf(err)
			metrics.RotationAttempts.WithLabelValues(phase.Name, kind.String()).Inc()

			if kind == provider.KindRequest {
				e.registry.RecordFailure(cred, keyhealth.FailureError)
				e.logger.Warn("Provider rejected request, not rotating",
					zap.String("phase", phase.Name),
					zap.String("key", cred.Mask()),
					zap.Error(err),
				)
				return zero, err
			}

			failure := keyhealth.FailureError
			if kind == provider.KindThrottled {
				failure = keyhealth.FailureThrottled
			}
			e.registry.RecordFailure(cred, failure)
			lastErr = err

			e.logger.Warn("Provider attempt failed, rotating",
				zap.String("phase", phase.Name),
				zap.String("key", cred.Mask()),
				zap.String("kind", kind.String()),
				zap.Error(err),
			)

			if lastResort {
				break
			}
			if err := e.sleep(ctx, e.cfg.RetryDelay); err != nil {
				return zero, err
			}
		}
	}

	metrics.RotationExhausted.Inc()
	if lastErr == nil {
		lastErr = ErrNoCredentials
	}
	return zero, &ExhaustionError{Attempts: attempts, Last: lastErr}
}

func attempt[T any](ctx context.Context, timeout time.Duration, cred domain.Credential, op func(ctx context.Context, cred domain.Credential) (T, error)) (T, error) {
	if timeout <= 0 {
		return op(ctx, cred)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	result, err := op(attemptCtx, cred)
	if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return result, provider.Classify("rotation", 0, fmt.Errorf("attempt timed out after %s: %w", timeout, context.DeadlineExceeded))
	}
	return result, err
}
