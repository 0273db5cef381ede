// Package narrowphase computes contact data between pairs of geometries already known
// to be close.
//
// Each supported pair of geometry kinds has an algorithm type (SphereToCapsuleCD,
// TetraToPointSetCD, ...). An algorithm binds two geometries on ports 0 and 1, in any
// order, and every Update refills a contact.Data with one buffer of elements per side.
// The Factory picks the algorithm for a pair; NarrowPhase runs many pairs on a pool of
// workers.
package narrowphase

import (
	"sync"

	"github.com/akmonengine/narrowphase/contact"
	"github.com/akmonengine/narrowphase/geometry"
	"go.uber.org/zap"
)

// Pair is two geometries that may collide, typically reported by a broad phase.
type Pair struct {
	A geometry.Geometry
	B geometry.Geometry
}

// Result is the contact data computed for one pair.
type Result struct {
	Pair      Pair
	Algorithm string
	Data      *contact.Data
}

// NarrowPhase builds the default algorithm of every pair read from pairs and updates it
// on one of workersCount goroutines. Only pairs in contact are sent on the returned
// channel, which is closed once pairs is drained. Pairs without a registered algorithm
// are logged and dropped.
func NarrowPhase(factory *Factory, pairs <-chan Pair, workersCount int, logger *zap.Logger) <-chan Result {
	if logger == nil {
		logger = zap.NewNop()
	}
	workersCount = max(workersCount, 1)
	results := make(chan Result, workersCount)

	go func() {
		var wg sync.WaitGroup
		defer close(results)

		for range workersCount {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for p := range pairs {
					cd, err := factory.New(p.A, p.B)
					if err != nil {
						logger.Warn("no collision detection for pair", zap.Error(err))
						continue
					}
					cd.SetLogger(logger.Named(cd.Name()))
					cd.Update()

					data := cd.CollisionData()
					if data.IsEmpty() {
						continue
					}
					results <- Result{Pair: p, Algorithm: cd.Name(), Data: data}
				}
			}()
		}
		wg.Wait()
	}()

	return results
}

// Detect runs NarrowPhase over a slice of pairs and collects the contacts.
func Detect(factory *Factory, pairs []Pair, workersCount int, logger *zap.Logger) []Result {
	in := make(chan Pair, max(workersCount, 1))
	go func() {
		defer close(in)
		for _, p := range pairs {
			in <- p
		}
	}()

	results := make([]Result, 0)
	for r := range NarrowPhase(factory, in, workersCount, logger) {
		results = append(results, r)
	}
	return results
}
