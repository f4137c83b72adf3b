// Package batch processes multiple independent archive files
// concurrently. Each archive's own member stream is still decoded
// strictly sequentially by one Reader -- only the across-archive work is
// parallelized -- using sourcegraph/conc's panic-safe worker pool rather
// than a hand-rolled sync.WaitGroup/channel fan-out.
package batch

import (
	"github.com/sourcegraph/conc/pool"
)

// Result pairs one archive path with whatever its processing function
// returned.
type Result[T any] struct {
	Path  string
	Value T
	Err   error
}

// Process runs fn over every path concurrently, bounded by maxWorkers
// (0 means one goroutine per path), and returns one Result per path in
// input order. A panic inside fn is recovered by safeCall and surfaces as
// that path's Err rather than crashing the batch.
func Process[T any](paths []string, maxWorkers int, fn func(path string) (T, error)) []Result[T] {
	results := make([]Result[T], len(paths))
	p := pool.New().WithMaxGoroutines(maxGoroutines(maxWorkers, len(paths)))

	for i, path := range paths {
		i, path := i, path
		p.Go(func() {
			value, err := safeCall(path, fn)
			results[i] = Result[T]{Path: path, Value: value, Err: err}
		})
	}
	p.Wait()
	return results
}

func maxGoroutines(requested, n int) int {
	if requested > 0 {
		return requested
	}
	if n < 1 {
		return 1
	}
	return n
}

// safeCall recovers a panic from fn and turns it into an error, since
// conc's pool.Pool (unlike pool.ContextPool) re-panics on the caller's
// goroutine by default only when used via Go+Wait without its own
// recover -- this keeps one archive's bug from ending the whole batch
// instead of relying on that propagation.
func safeCall[T any](path string, fn func(path string) (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{path: path, recovered: r}
		}
	}()
	return fn(path)
}

type panicError struct {
	path      string
	recovered any
}

func (e panicError) Error() string {
	return "batch: panic processing " + e.path + ": " + errString(e.recovered)
}

func errString(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "non-error panic value"
}
