package narrowphase

import (
	"sync"

	"github.com/akmonengine/narrowphase/contact"
	"github.com/akmonengine/narrowphase/geometry"
	"github.com/akmonengine/narrowphase/parallel"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// CollisionDetector is the surface consumers use: bind two geometries, choose which
// sides to generate, update, then read the collision data.
type CollisionDetector interface {
	Name() string
	SetInput(g geometry.Geometry, port int)
	SetGenerateCD(generateA, generateB bool)
	Update()
	CollisionData() *contact.Data
	SetLogger(logger *zap.Logger)
	SetParallelThreshold(threshold int)
}

// computer is implemented by every concrete algorithm. Geometries and buffers are
// always given in the algorithm's canonical order.
type computer interface {
	computeCollisionDataAB(geomA, geomB geometry.Geometry, elementsA, elementsB *contact.Buffer)
}

// computerA is implemented by algorithms able to produce side A alone.
type computerA interface {
	computeCollisionDataA(geomA, geomB geometry.Geometry, elementsA *contact.Buffer)
}

// computerB is implemented by algorithms able to produce side B alone.
type computerB interface {
	computeCollisionDataB(geomA, geomB geometry.Geometry, elementsB *contact.Buffer)
}

// Algorithm is the dispatch base embedded by every concrete algorithm.
//
// It owns the two input ports and their kind requirements, validates the binding and
// detects when the caller bound the inputs in the reverse of the canonical order. The
// concrete body then always sees (A, B) in canonical order while the output lands in the
// buffer matching the caller's binding.
type Algorithm struct {
	name     string
	impl     computer
	hasA     bool
	hasB     bool
	inputs   [2]geometry.Geometry
	required [2]geometry.Predicate
	data     *contact.Data

	generateA bool
	generateB bool
	flipped   bool

	parallelThreshold int
	logger            *zap.Logger

	mu sync.Mutex
}

// init wires the base to its concrete algorithm. The one-sided entry points are
// detected once, here.
func (a *Algorithm) init(name string, impl computer) {
	a.name = name
	a.impl = impl
	a.data = contact.NewData()
	a.generateA = true
	a.generateB = true
	a.parallelThreshold = parallel.DefaultThreshold
	a.logger = zap.L().Named(name)

	_, a.hasA = impl.(computerA)
	_, a.hasB = impl.(computerB)
}

// Name returns the algorithm name, as registered in the factory.
func (a *Algorithm) Name() string {
	return a.name
}

// RequireInput restricts the geometries accepted on port. A nil predicate leaves the
// port unconstrained.
func (a *Algorithm) RequireInput(port int, predicate geometry.Predicate) {
	if port < 0 || port > 1 {
		a.logger.Warn("ignoring requirement on unknown port", zap.String("algorithm", a.name), zap.Int("port", port))
		return
	}
	a.required[port] = predicate
}

// SetInput binds g to port 0 or 1.
func (a *Algorithm) SetInput(g geometry.Geometry, port int) {
	if port < 0 || port > 1 {
		a.logger.Warn("ignoring input on unknown port", zap.String("algorithm", a.name), zap.Int("port", port))
		return
	}
	a.mu.Lock()
	a.inputs[port] = g
	a.mu.Unlock()
}

// Input returns the geometry bound to port.
func (a *Algorithm) Input(port int) geometry.Geometry {
	if port < 0 || port > 1 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inputs[port]
}

// SetGenerateCD selects the sides to generate, in the caller's port order.
func (a *Algorithm) SetGenerateCD(generateA, generateB bool) {
	a.generateA = generateA
	a.generateB = generateB
}

// CollisionData returns the output of the last Update.
func (a *Algorithm) CollisionData() *contact.Data {
	return a.data
}

// SetLogger replaces the logger; nil restores a no-op logger.
func (a *Algorithm) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a.logger = logger
}

// SetParallelThreshold sets the primitive count from which per-primitive passes run in
// parallel.
func (a *Algorithm) SetParallelThreshold(threshold int) {
	a.parallelThreshold = threshold
}

// AreInputsValid reports whether the bound inputs satisfy the port requirements, in
// either order.
func (a *Algorithm) AreInputsValid() bool {
	return a.ValidateInputs() == nil
}

// ValidateInputs explains why the bound inputs are rejected, or returns nil.
func (a *Algorithm) ValidateInputs() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := a.resolveBinding()
	return err
}

// resolveBinding validates the inputs and tells whether they are bound in reverse
// order. The caller holds a.mu.
func (a *Algorithm) resolveBinding() (bool, error) {
	if a.required[0] == nil && a.required[1] == nil {
		return false, nil
	}

	var err error
	for port, g := range a.inputs {
		if g == nil {
			err = multierr.Append(err, errors.Errorf("input %d is not set", port))
		}
	}
	if err != nil {
		return false, err
	}

	g0, g1 := a.inputs[0], a.inputs[1]
	if matches(a.required[0], g0) && matches(a.required[1], g1) {
		return false, nil
	}
	if matches(a.required[1], g0) && matches(a.required[0], g1) {
		return true, nil
	}
	return false, errors.Errorf("inputs (%s, %s) do not match the required geometry kinds", g0.Kind(), g1.Kind())
}

func matches(predicate geometry.Predicate, g geometry.Geometry) bool {
	if predicate == nil {
		return g != nil
	}
	return predicate(g)
}

// Update recomputes the collision data. Both buffers are cleared first, so an invalid
// binding leaves empty data behind instead of stale contacts.
func (a *Algorithm) Update() {
	a.data.Clear()

	a.mu.Lock()
	flipped, err := a.resolveBinding()
	inputs := a.inputs
	a.flipped = flipped
	a.mu.Unlock()

	if err != nil {
		a.logger.Warn("invalid collision inputs", zap.String("algorithm", a.name), zap.Error(err))
		return
	}
	a.requestUpdate(inputs, flipped)
}

// requestUpdate swaps the (geometry, buffer, generate flag) triples when the inputs
// were bound in reverse order, then dispatches to the concrete algorithm.
func (a *Algorithm) requestUpdate(inputs [2]geometry.Geometry, flipped bool) {
	a.data.GeomA, a.data.GeomB = inputs[0], inputs[1]
	a.data.Clear()

	geomA, geomB := inputs[0], inputs[1]
	elementsA, elementsB := &a.data.ElementsA, &a.data.ElementsB
	generateA, generateB := a.generateA, a.generateB
	if flipped {
		geomA, geomB = geomB, geomA
		elementsA, elementsB = elementsB, elementsA
		generateA, generateB = generateB, generateA
	}
	if geomA == nil || geomB == nil {
		return
	}

	switch {
	case generateA && generateB:
		a.impl.computeCollisionDataAB(geomA, geomB, elementsA, elementsB)
	case generateA && a.hasA:
		a.impl.(computerA).computeCollisionDataA(geomA, geomB, elementsA)
	case generateB && a.hasB:
		a.impl.(computerB).computeCollisionDataB(geomA, geomB, elementsB)
	case generateA:
		a.impl.computeCollisionDataAB(geomA, geomB, elementsA, elementsB)
		elementsB.Clear()
	case generateB:
		a.impl.computeCollisionDataAB(geomA, geomB, elementsA, elementsB)
		elementsA.Clear()
	}
}

// IsFlipped reports whether the last Update saw the inputs in reverse order.
func (a *Algorithm) IsFlipped() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flipped
}

// forEach runs fn over [0, n) following the algorithm's parallel threshold.
func (a *Algorithm) forEach(n int, fn func(i int)) {
	parallel.For(n, a.parallelThreshold, fn)
}
