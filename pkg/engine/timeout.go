package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/chazu/cornerpoint/pkg/grid"
)

// EvalTimeout is the hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// evalResult carries one evaluation back from its goroutine.
type evalResult struct {
	grid   *grid.Grid
	errors []EvalError
	err    error
}

// waitWithTimeout returns the result sent on ch, or an error once
// EvalTimeout passes. A result whose generation is no longer current
// belongs to a superseded evaluation and is dropped. A timed-out script
// keeps running in its goroutine until the sandbox returns.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) (*grid.Grid, []EvalError, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, nil, fmt.Errorf("evaluation superseded by newer request")
		}

		return res.grid, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", EvalTimeout)
	}
}
