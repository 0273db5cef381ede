package narrowphase

import (
	"sync"

	"go.uber.org/atomic"
)

// task splits detectors in workersCount contiguous chunks and runs fn on each of them.
func task(workersCount int, detectors []CollisionDetector, fn func(cd CollisionDetector)) {
	count := len(detectors)
	if count == 0 {
		return
	}
	workersCount = min(max(workersCount, 1), count)
	chunkSize := (count + workersCount - 1) / workersCount

	var wg sync.WaitGroup
	for start := 0; start < count; start += chunkSize {
		wg.Add(1)
		go func(chunk []CollisionDetector) {
			defer wg.Done()
			for _, cd := range chunk {
				fn(cd)
			}
		}(detectors[start:min(start+chunkSize, count)])
	}
	wg.Wait()
}

// UpdateAll updates long-lived algorithms, for instance once per simulation frame,
// spreading them over workersCount goroutines. Each algorithm writes only its own data.
// It returns how many of them ended with contacts.
func UpdateAll(detectors []CollisionDetector, workersCount int) int {
	var inContact atomic.Int64
	task(workersCount, detectors, func(cd CollisionDetector) {
		cd.Update()
		if !cd.CollisionData().IsEmpty() {
			inContact.Inc()
		}
	})
	return int(inContact.Load())
}
