package narrowphase

import (
	"github.com/akmonengine/narrowphase/contact"
	"github.com/akmonengine/narrowphase/geometry"
	"go.uber.org/zap"
)

// CompoundCD collides every child of a compound (A) with any geometry (B), through
// the factory's default algorithm for each child pair. Child algorithms are kept across
// updates while the child kinds stay the same.
//
// Side A elements refer to the child that produced them, see ChildIndex.
type CompoundCD struct {
	Algorithm

	factory  *Factory
	children []compoundChild
	// childOf[i] is the child behind element i of side A
	childOf []int
}

type compoundChild struct {
	kinds [2]geometry.Kind
	cd    CollisionDetector
}

// NewCompoundCD creates the algorithm; child algorithms are built by factory.
func NewCompoundCD(factory *Factory) *CompoundCD {
	cd := &CompoundCD{factory: factory}
	cd.init(CompoundCDName, cd)
	cd.RequireInput(0, geometry.KindOf(geometry.KindCompound))
	cd.RequireInput(1, nil)
	return cd
}

// ChildIndex returns the compound child that produced element i of the compound side,
// or -1 when out of range.
func (cd *CompoundCD) ChildIndex(i int) int {
	if i < 0 || i >= len(cd.childOf) {
		return -1
	}
	return cd.childOf[i]
}

// childAlgorithm returns the cached algorithm for child i against other, building it
// when the kinds changed.
func (cd *CompoundCD) childAlgorithm(i int, child, other geometry.Geometry) (CollisionDetector, error) {
	kinds := [2]geometry.Kind{child.Kind(), other.Kind()}
	if i < len(cd.children) && cd.children[i].cd != nil && cd.children[i].kinds == kinds {
		return cd.children[i].cd, nil
	}

	sub, err := cd.factory.New(child, other)
	if err != nil {
		return nil, err
	}
	sub.SetLogger(cd.logger.Named(sub.Name()))
	sub.SetParallelThreshold(cd.parallelThreshold)
	for len(cd.children) <= i {
		cd.children = append(cd.children, compoundChild{})
	}
	cd.children[i] = compoundChild{kinds: kinds, cd: sub}
	return sub, nil
}

func (cd *CompoundCD) computeCollisionDataAB(geomA, geomB geometry.Geometry, elementsA, elementsB *contact.Buffer) {
	cd.childOf = cd.childOf[:0]
	compound, ok := geomA.(*geometry.Compound)
	if !ok || cd.factory == nil {
		return
	}
	if len(cd.children) > len(compound.Children) {
		cd.children = cd.children[:len(compound.Children)]
	}
	otherBox := geomB.AABB()

	for i, child := range compound.Children {
		if child.Kind() != geometry.KindPlane && !child.AABB().Overlaps(otherBox) {
			continue
		}
		sub, err := cd.childAlgorithm(i, child, geomB)
		if err != nil {
			cd.logger.Debug("skipping compound child", zap.Int("child", i), zap.Error(err))
			continue
		}
		sub.SetInput(child, 0)
		sub.SetInput(geomB, 1)
		sub.SetGenerateCD(true, true)
		sub.Update()

		data := sub.CollisionData()
		for _, e := range data.ElementsA.All() {
			elementsA.UnsafeAppend(e)
			cd.childOf = append(cd.childOf, i)
		}
		for _, e := range data.ElementsB.All() {
			elementsB.UnsafeAppend(e)
		}
	}
}
