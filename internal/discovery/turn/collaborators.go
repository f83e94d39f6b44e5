package turn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"product-discovery/internal/models"
)

var (
	ErrTimeout = errors.New("COLLABORATOR_TIMEOUT")
	ErrPanic   = errors.New("COLLABORATOR_PANIC")
)

// Extractor proposes an intent update for one utterance. Its output is
// untrusted: any field may be missing or malformed.
type Extractor interface {
	Extract(ctx context.Context, utterance string, history []models.TurnRecord, state models.IntentState) (*models.IntentProposal, error)
}

// Catalog fetches raw candidates for a query.
type Catalog interface {
	FetchCandidates(ctx context.Context, q models.QueryDescriptor, limit int) ([]models.Candidate, error)
}

type ExtractorFunc func(ctx context.Context, utterance string, history []models.TurnRecord, state models.IntentState) (*models.IntentProposal, error)

func (f ExtractorFunc) Extract(ctx context.Context, utterance string, history []models.TurnRecord, state models.IntentState) (*models.IntentProposal, error) {
	return f(ctx, utterance, history, state)
}

type CatalogFunc func(ctx context.Context, q models.QueryDescriptor, limit int) ([]models.Candidate, error)

func (f CatalogFunc) FetchCandidates(ctx context.Context, q models.QueryDescriptor, limit int) ([]models.Candidate, error) {
	return f(ctx, q, limit)
}

type outcome[T any] struct {
	val T
	err error
}

// callWithTimeout runs fn under a deadline and returns as soon as either fn
// finishes or the deadline passes, even if fn ignores its context. A panic
// in fn is returned as ErrPanic.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				done <- outcome[T]{val: zero, err: fmt.Errorf("%w: %v", ErrPanic, r)}
			}
		}()
		v, err := fn(ctx)
		done <- outcome[T]{val: v, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && errors.Is(out.err, context.DeadlineExceeded) {
			return out.val, fmt.Errorf("%w: %v", ErrTimeout, out.err)
		}
		return out.val, out.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		}
		return zero, ctx.Err()
	}
}

// failureReason labels a collaborator error for metrics.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrPanic):
		return "panic"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
