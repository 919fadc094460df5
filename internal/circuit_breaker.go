package internal

import (
	"context"
	"errors"
	"sync"
	"time"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrCircuitOpen is the cause of storage errors returned while the breaker
// is open.
var ErrCircuitOpen = errors.New("storage circuit open")

// CircuitBreaker is a lightweight in-memory circuit breaker.
type CircuitBreaker struct {
	mu           sync.Mutex
	failures     []time.Time
	threshold    int
	window       time.Duration
	openUntil    time.Time
	openDuration time.Duration
	now          func() time.Time
}

// NewCircuitBreaker opens after threshold failures within window and stays
// open for openDuration.
func NewCircuitBreaker(threshold int, window, openDuration time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:    threshold,
		window:       window,
		openDuration: openDuration,
		failures:     make([]time.Time, 0, threshold),
		now:          time.Now,
	}
}

// RecordFailure records a failure occurrence and opens the breaker if threshold exceeded.
func (cb *CircuitBreaker) RecordFailure() {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	cutoff := now.Add(-cb.window)
	i := 0
	for ; i < len(cb.failures); i++ {
		if cb.failures[i].After(cutoff) {
			break
		}
	}
	if i > 0 {
		cb.failures = append(cb.failures[:0], cb.failures[i:]...)
	}
	cb.failures = append(cb.failures, now)

	if len(cb.failures) >= cb.threshold {
		cb.openUntil = now.Add(cb.openDuration)
		cb.failures = cb.failures[:0]
	}
}

// RecordSuccess resets failure history when operations succeed.
func (cb *CircuitBreaker) RecordSuccess() {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = cb.failures[:0]
	cb.openUntil = time.Time{}
}

// IsOpen returns true if the breaker is currently open.
func (cb *CircuitBreaker) IsOpen() bool {
	if cb == nil {
		return false
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.now().Before(cb.openUntil)
}

// breakerRepository fails fast while its breaker is open. Not found and
// cancellation errors do not count as failures.
type breakerRepository struct {
	next    dynform.SubmissionRepository
	breaker *CircuitBreaker
}

// NewBreakerRepository guards next with breaker.
func NewBreakerRepository(next dynform.SubmissionRepository, breaker *CircuitBreaker) dynform.SubmissionRepository {
	return &breakerRepository{next: next, breaker: breaker}
}

func (r *breakerRepository) allow() error {
	if r.breaker.IsOpen() {
		return dynform.NewStorageError("storage temporarily unavailable", ErrCircuitOpen)
	}
	return nil
}

func (r *breakerRepository) record(err error) error {
	switch {
	case err == nil, dynform.IsNotFoundError(err):
		r.breaker.RecordSuccess()
	case errors.Is(err, context.Canceled), dynform.IsInternalError(err):
	default:
		wasOpen := r.breaker.IsOpen()
		r.breaker.RecordFailure()
		if !wasOpen && r.breaker.IsOpen() {
			zap.S().Warnw("storage circuit opened", "error", err)
		}
	}
	return err
}

func (r *breakerRepository) Insert(ctx context.Context, s *dynform.Submission) error {
	if err := r.allow(); err != nil {
		return err
	}
	return r.record(r.next.Insert(ctx, s))
}

func (r *breakerRepository) Get(ctx context.Context, id uuid.UUID) (*dynform.Submission, error) {
	if err := r.allow(); err != nil {
		return nil, err
	}
	s, err := r.next.Get(ctx, id)
	return s, r.record(err)
}

func (r *breakerRepository) Update(ctx context.Context, s *dynform.Submission) error {
	if err := r.allow(); err != nil {
		return err
	}
	return r.record(r.next.Update(ctx, s))
}

func (r *breakerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.allow(); err != nil {
		return err
	}
	return r.record(r.next.Delete(ctx, id))
}

func (r *breakerRepository) List(ctx context.Context, opts *dynform.ListOptions) ([]*dynform.Submission, int, error) {
	if err := r.allow(); err != nil {
		return nil, 0, err
	}
	items, total, err := r.next.List(ctx, opts)
	return items, total, r.record(err)
}
