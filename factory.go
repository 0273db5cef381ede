package narrowphase

import (
	"sort"
	"sync"

	"github.com/akmonengine/narrowphase/geometry"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Constructor builds a fresh, unbound algorithm.
type Constructor func() CollisionDetector

// kindPair is an unordered pair of geometry kinds.
type kindPair struct {
	a, b geometry.Kind
}

func newKindPair(a, b geometry.Kind) kindPair {
	if a > b {
		a, b = b, a
	}
	return kindPair{a: a, b: b}
}

// Factory maps geometry kind pairs to algorithms. The binding order of a pair does not
// matter: the algorithms reorder their inputs themselves.
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
	pairs        map[kindPair]string
}

// CompoundCDName is the algorithm selected whenever one side is a compound.
const CompoundCDName = "CompoundCD"

// NewFactory creates a factory holding every built-in algorithm and the default
// algorithm for each supported kind pair.
func NewFactory() *Factory {
	f := &Factory{
		constructors: make(map[string]Constructor),
		pairs:        make(map[kindPair]string),
	}
	f.registerDefaults()
	return f
}

// Register adds an algorithm under name and makes it the default for the given kind
// pairs. Registering an existing name replaces it.
func (f *Factory) Register(name string, constructor Constructor, pairs ...[2]geometry.Kind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[name] = constructor
	for _, p := range pairs {
		f.pairs[newKindPair(p[0], p[1])] = name
	}
}

// NameFor returns the default algorithm name for two kinds, in any order.
func (f *Factory) NameFor(a, b geometry.Kind) (string, error) {
	if a == geometry.KindCompound || b == geometry.KindCompound {
		return CompoundCDName, nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	name, ok := f.pairs[newKindPair(a, b)]
	if !ok {
		return "", errors.Errorf("no collision detection registered for (%s, %s)", a, b)
	}
	return name, nil
}

// NewByName builds the algorithm registered under name.
func (f *Factory) NewByName(name string) (CollisionDetector, error) {
	f.mu.RLock()
	constructor, ok := f.constructors[name]
	f.mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("no collision detection named %q", name)
	}
	return constructor(), nil
}

// New builds the default algorithm for a and b, with a bound to port 0 and b to port 1.
func (f *Factory) New(a, b geometry.Geometry) (CollisionDetector, error) {
	if a == nil || b == nil {
		return nil, errors.New("cannot build collision detection for a nil geometry")
	}
	name, err := f.NameFor(a.Kind(), b.Kind())
	if err != nil {
		return nil, err
	}
	cd, err := f.NewByName(name)
	if err != nil {
		return nil, errors.Wrapf(err, "pair (%s, %s)", a.Kind(), b.Kind())
	}
	cd.SetInput(a, 0)
	cd.SetInput(b, 1)
	return cd, nil
}

// Names lists the registered algorithm names, sorted.
func (f *Factory) Names() []string {
	f.mu.RLock()
	names := lo.Keys(f.constructors)
	f.mu.RUnlock()
	sort.Strings(names)
	return names
}

func (f *Factory) registerDefaults() {
	const (
		sphere      = geometry.KindSphere
		capsule     = geometry.KindCapsule
		cylinder    = geometry.KindCylinder
		plane       = geometry.KindPlane
		box         = geometry.KindOrientedBox
		pointSet    = geometry.KindPointSet
		lineMesh    = geometry.KindLineMesh
		surfaceMesh = geometry.KindSurfaceMesh
		tetraMesh   = geometry.KindTetrahedralMesh
		sdf         = geometry.KindSignedDistanceField
	)

	f.Register("SphereToSphereCD", func() CollisionDetector { return NewSphereToSphereCD() },
		[2]geometry.Kind{sphere, sphere})
	f.Register("SphereToCapsuleCD", func() CollisionDetector { return NewSphereToCapsuleCD() },
		[2]geometry.Kind{sphere, capsule})
	f.Register("CapsuleToCapsuleCD", func() CollisionDetector { return NewCapsuleToCapsuleCD() },
		[2]geometry.Kind{capsule, capsule})
	f.Register("SphereToCylinderCD", func() CollisionDetector { return NewSphereToCylinderCD() },
		[2]geometry.Kind{sphere, cylinder})
	f.Register("BidirectionalPlaneToSphereCD", func() CollisionDetector { return NewBidirectionalPlaneToSphereCD() },
		[2]geometry.Kind{plane, sphere})
	f.Register("UnidirectionalPlaneToSphereCD", func() CollisionDetector { return NewUnidirectionalPlaneToSphereCD() })
	f.Register("UnidirectionalPlaneToCapsuleCD", func() CollisionDetector { return NewUnidirectionalPlaneToCapsuleCD() },
		[2]geometry.Kind{plane, capsule})

	f.Register("PointSetToPlaneCD", func() CollisionDetector { return NewPointSetToPlaneCD() },
		[2]geometry.Kind{pointSet, plane})
	f.Register("PointSetToSphereCD", func() CollisionDetector { return NewPointSetToSphereCD() },
		[2]geometry.Kind{pointSet, sphere})
	f.Register("PointSetToCylinderCD", func() CollisionDetector { return NewPointSetToCylinderCD() },
		[2]geometry.Kind{pointSet, cylinder})
	f.Register("PointSetToOrientedBoxCD", func() CollisionDetector { return NewPointSetToOrientedBoxCD() },
		[2]geometry.Kind{pointSet, box})
	f.Register("PointSetToCapsuleCD", func() CollisionDetector { return NewPointSetToCapsuleCD() },
		[2]geometry.Kind{pointSet, capsule})

	f.Register("SurfaceMeshToSphereCD", func() CollisionDetector { return NewSurfaceMeshToSphereCD() },
		[2]geometry.Kind{surfaceMesh, sphere})
	f.Register("SurfaceMeshToCapsuleCD", func() CollisionDetector { return NewSurfaceMeshToCapsuleCD() },
		[2]geometry.Kind{surfaceMesh, capsule})
	f.Register("SurfaceMeshToSurfaceMeshCD", func() CollisionDetector { return NewSurfaceMeshToSurfaceMeshCD() },
		[2]geometry.Kind{surfaceMesh, surfaceMesh})
	f.Register("LineMeshToSphereCD", func() CollisionDetector { return NewLineMeshToSphereCD() },
		[2]geometry.Kind{lineMesh, sphere})
	f.Register("LineMeshToCapsuleCD", func() CollisionDetector { return NewLineMeshToCapsuleCD() },
		[2]geometry.Kind{lineMesh, capsule})
	f.Register("ClosedSurfaceMeshToMeshCD", func() CollisionDetector { return NewClosedSurfaceMeshToMeshCD() },
		[2]geometry.Kind{pointSet, surfaceMesh},
		[2]geometry.Kind{lineMesh, surfaceMesh},
		[2]geometry.Kind{tetraMesh, surfaceMesh},
	)
	f.Register("TetraToPointSetCD", func() CollisionDetector { return NewTetraToPointSetCD() },
		[2]geometry.Kind{tetraMesh, pointSet})

	f.Register("ImplicitGeometryToPointSetCD", func() CollisionDetector { return NewImplicitGeometryToPointSetCD() },
		[2]geometry.Kind{sdf, pointSet},
		[2]geometry.Kind{sdf, lineMesh},
		[2]geometry.Kind{sdf, surfaceMesh},
		[2]geometry.Kind{sdf, tetraMesh},
		[2]geometry.Kind{plane, lineMesh},
		[2]geometry.Kind{plane, surfaceMesh},
		[2]geometry.Kind{plane, tetraMesh},
		[2]geometry.Kind{sphere, tetraMesh},
		[2]geometry.Kind{capsule, tetraMesh},
		[2]geometry.Kind{cylinder, lineMesh},
		[2]geometry.Kind{cylinder, surfaceMesh},
		[2]geometry.Kind{cylinder, tetraMesh},
		[2]geometry.Kind{box, lineMesh},
		[2]geometry.Kind{box, surfaceMesh},
		[2]geometry.Kind{box, tetraMesh},
	)

	f.Register("ConvexToConvexCD", func() CollisionDetector { return NewConvexToConvexCD() },
		[2]geometry.Kind{box, box},
		[2]geometry.Kind{box, sphere},
		[2]geometry.Kind{box, capsule},
		[2]geometry.Kind{box, cylinder},
		[2]geometry.Kind{capsule, cylinder},
		[2]geometry.Kind{cylinder, cylinder},
	)

	f.Register(CompoundCDName, func() CollisionDetector { return NewCompoundCD(f) })
}
