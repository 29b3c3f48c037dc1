package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultEvalTimeout is the hard limit for a single evaluation when none is
// configured.
const DefaultEvalTimeout = 5 * time.Second

var (
	// ErrTimeout reports an evaluation that ran past its time limit.
	ErrTimeout = errors.New("engine: evaluation timed out")
	// ErrSuperseded reports an evaluation overtaken by a newer request.
	ErrSuperseded = errors.New("engine: evaluation superseded by newer request")
)

// evalResult is the internal type used to pass evaluation results through channels.
type evalResult struct {
	res *EvalResult
	err error
}

// waitWithTimeout waits for a result from ch, but returns a timeout error
// if the evaluation exceeds timeout or ctx ends first. It uses a generation
// counter to discard stale results from previous evaluations.
//
// On timeout, the goroutine may still be running; the generation check
// ensures its result is discarded when it eventually completes.
func waitWithTimeout(
	ctx context.Context,
	ch <-chan evalResult,
	gen uint64,
	timeout time.Duration,
	mu *sync.Mutex,
	currentGen *uint64,
) (*EvalResult, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, ErrSuperseded
		}
		if r.err != nil {
			return nil, r.err
		}
		return r.res, nil

	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)

	case <-ctx.Done():
		return nil, fmt.Errorf("engine: evaluation abandoned: %w", ctx.Err())
	}
}
