package bodies

import (
	"fmt"
	"math"
)

// maxMoonDepth is the number of parent hops from a moon to its star.
const maxMoonDepth = 2

// MaxPeriodDays bounds orbital periods so they fit in a time.Duration.
const MaxPeriodDays = 100000

// SolarSystem is an immutable, id-keyed registry of bodies. Parents are
// referenced by id rather than by pointer. It is safe for concurrent use.
type SolarSystem struct {
	order  []BodyID
	bodies map[BodyID]CelestialBody
}

// New validates a catalog and builds a registry from it. The catalog order
// becomes the registry's iteration order.
func New(catalog []CelestialBody) (*SolarSystem, error) {
	s := &SolarSystem{
		order:  make([]BodyID, 0, len(catalog)),
		bodies: make(map[BodyID]CelestialBody, len(catalog)),
	}

	for _, b := range catalog {
		if err := validateBody(b); err != nil {
			return nil, err
		}
		if _, dup := s.bodies[b.ID]; dup {
			return nil, &InvalidHierarchyError{ID: b.ID, Parent: b.Parent, Reason: "duplicate id"}
		}
		s.order = append(s.order, b.ID)
		s.bodies[b.ID] = b
	}

	for _, id := range s.order {
		if err := s.checkHierarchy(s.bodies[id]); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// MustNew is like New but panics on an invalid catalog.
func MustNew(catalog []CelestialBody) *SolarSystem {
	s, err := New(catalog)
	if err != nil {
		panic(fmt.Sprintf("bodies: %v", err))
	}
	return s
}

func validateBody(b CelestialBody) error {
	switch {
	case !b.ID.Valid():
		return &UnknownBodyError{ID: b.ID}
	case !(b.Radius > 0) || math.IsInf(b.Radius, 0):
		return &InvalidBodyError{ID: b.ID, Reason: "radius must be positive"}
	case b.Tilt < 0 || b.Tilt >= 180 || math.IsNaN(b.Tilt):
		return &InvalidBodyError{ID: b.ID, Reason: "axial tilt must lie in [0, 180)"}
	case b.Period < 0 || math.IsNaN(b.Period):
		return &InvalidBodyError{ID: b.ID, Reason: "orbital period must not be negative"}
	case b.Period > MaxPeriodDays:
		return &InvalidBodyError{ID: b.ID, Reason: fmt.Sprintf("orbital period exceeds %d days", MaxPeriodDays)}
	}
	return nil
}

// checkHierarchy enforces the nesting rules for one body: a star has no
// parent, a planet orbits a star, a moon reaches its star in at most two
// hops, and no parent chain is cyclic or dangling.
func (s *SolarSystem) checkHierarchy(b CelestialBody) error {
	fail := func(reason string) error {
		return &InvalidHierarchyError{ID: b.ID, Parent: b.Parent, Reason: reason}
	}

	if b.Parent == b.ID {
		return fail("body is its own parent")
	}

	// Walk to the root, detecting cycles and orphans.
	seen := map[BodyID]bool{b.ID: true}
	depth := 0
	root := b
	for root.HasParent() {
		parent, ok := s.bodies[root.Parent]
		if !ok {
			return fail(fmt.Sprintf("parent %s of %s is not in the catalog", root.Parent, root.ID))
		}
		if seen[parent.ID] {
			return fail("parent chain forms a cycle")
		}
		seen[parent.ID] = true
		depth++
		root = parent
	}

	switch b.Type {
	case Star:
		if b.HasParent() {
			return fail("a star cannot have a parent")
		}
	case Planet:
		if !b.HasParent() {
			return fail("a planet must orbit a star")
		}
		if s.bodies[b.Parent].Type != Star {
			return fail("a planet's parent must be a star")
		}
	case Satellite:
		if !b.HasParent() {
			return fail("a moon must have a parent")
		}
		if pt := s.bodies[b.Parent].Type; pt != Planet && pt != Satellite {
			return fail("a moon's parent must be a planet or moon-bearing body")
		}
		if root.Type != Star || depth > maxMoonDepth {
			return fail("a moon must reach its star within two hops")
		}
	}
	return nil
}

// Get returns the body with the given id.
func (s *SolarSystem) Get(id BodyID) (CelestialBody, error) {
	b, ok := s.bodies[id]
	if !ok {
		return CelestialBody{}, &UnknownBodyError{ID: id}
	}
	return b, nil
}

// Has reports whether id is in the registry.
func (s *SolarSystem) Has(id BodyID) bool {
	_, ok := s.bodies[id]
	return ok
}

// Len returns the number of bodies.
func (s *SolarSystem) Len() int {
	return len(s.order)
}

// Bodies returns every body in registry order.
func (s *SolarSystem) Bodies() []CelestialBody {
	out := make([]CelestialBody, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.bodies[id])
	}
	return out
}

// Children returns the bodies whose parent is id, in registry order.
func (s *SolarSystem) Children(id BodyID) []CelestialBody {
	var out []CelestialBody
	for _, cid := range s.order {
		if c := s.bodies[cid]; c.Parent == id {
			out = append(out, c)
		}
	}
	return out
}

// VisibleBodies returns the bodies shown when id is selected:
//
//	star:     [self]
//	planet:   [self, parent star, moons of self...]
//	moon:     [self, parent planet, grandparent star]
//	asteroid: [self]
func (s *SolarSystem) VisibleBodies(id BodyID) ([]CelestialBody, error) {
	self, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	visible := []CelestialBody{self}
	switch self.Type {
	case Planet:
		if parent, ok := s.bodies[self.Parent]; ok {
			visible = append(visible, parent)
		}
		visible = append(visible, s.Children(self.ID)...)
	case Satellite:
		if parent, ok := s.bodies[self.Parent]; ok {
			visible = append(visible, parent)
			if grand, ok := s.bodies[parent.Parent]; ok {
				visible = append(visible, grand)
			}
		}
	}
	return visible, nil
}
