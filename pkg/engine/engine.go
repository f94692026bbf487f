// Package engine evaluates grid scripts. It wraps zygomys in a sandboxed
// environment whose builtins build a corner-point grid, so fixtures and
// demos can describe faults and pinch-outs in a few lines of Lisp.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/cornerpoint/pkg/grid"
)

// EvalError is a script failure the user can fix: a parse error, an
// unknown symbol or a builtin rejecting its arguments. Line is 0 when
// zygomys did not report a position.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine evaluates grid scripts, each in its own sandbox. Only the result
// of the most recent call is delivered; see waitWithTimeout.
type Engine struct {
	mu         sync.Mutex
	generation uint64
}

// NewEngine returns an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs a grid script and returns the grid it built. Mistakes in
// the script come back as EvalErrors with a nil grid; the error result is
// reserved for panics, timeouts and superseded calls.
func (e *Engine) Evaluate(source string) (*grid.Grid, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		g, evalErrs, err := e.evaluate(source)
		ch <- evalResult{grid: g, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

func (e *Engine) evaluate(source string) (*grid.Grid, []EvalError, error) {
	if strings.TrimSpace(source) == "" {
		return grid.New(0, 0, 0), nil, nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()

	var s script
	registerBuiltins(env, &s)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	return s.finish(), nil, nil
}

// Position prefixes zygomys puts in front of its messages, tried in order.
var linePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`),
	regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`),
}

// parseZygomysError turns a zygomys error into an EvalError, lifting the
// line number out of the message when there is one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range linePatterns {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
