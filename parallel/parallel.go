// Package parallel runs per-index loop bodies across a bounded worker group.
//
// Loop bodies must not carry state between indices: the same body runs either on
// the calling goroutine or split in chunks over the workers, and both paths must
// produce the same results.
package parallel

import (
	"runtime"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// DefaultThreshold is the range size under which For stays sequential.
const DefaultThreshold = 100

// chunksPerWorker oversplits the range so faster workers pick up more chunks.
const chunksPerWorker = 4

var workers = atomic.NewInt64(int64(runtime.GOMAXPROCS(0)))

// SetWorkers sets the number of goroutines used by parallel loops. Values below 1 reset
// it to GOMAXPROCS.
func SetWorkers(n int) {
	if n < 1 {
		n = runtime.GOMAXPROCS(0)
	}
	workers.Store(int64(n))
}

// Workers returns the configured worker count.
func Workers() int {
	return int(workers.Load())
}

// For calls fn for every i in [0, n). Ranges shorter than threshold, or a single
// configured worker, run sequentially on the calling goroutine.
func For(n, threshold int, fn func(i int)) {
	if n <= 0 {
		return
	}
	workersCount := Workers()
	if n < threshold || workersCount <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	chunkSize := (n + workersCount*chunksPerWorker - 1) / (workersCount * chunksPerWorker)

	var g errgroup.Group
	g.SetLimit(workersCount)
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	// bodies never fail, Wait only joins
	_ = g.Wait()
}

// Each calls fn for every element of data, following the same policy as For.
func Each[T any](data []T, threshold int, fn func(i int, item T)) {
	For(len(data), threshold, func(i int) {
		fn(i, data[i])
	})
}
