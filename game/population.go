package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/evogrid/components"
)

// Population stores one generation of specimens in an ECS world. Entities
// are kept in index order so iteration is deterministic; slot 0 is unused
// so grid values map directly onto indices.
type Population struct {
	world    *ecs.World
	mapper   *ecs.Map1[components.Specimen]
	filter   *ecs.Filter1[components.Specimen]
	entities []ecs.Entity
}

// NewPopulation creates an empty population with room for size specimens.
func NewPopulation(size int) *Population {
	world := ecs.NewWorld()
	p := &Population{
		world:    world,
		mapper:   ecs.NewMap1[components.Specimen](world),
		filter:   ecs.NewFilter1[components.Specimen](world),
		entities: make([]ecs.Entity, 1, size+1),
	}
	return p
}

// Add stores s under the next free index and returns that index.
// Pointers returned by Specimen before an Add may be invalidated by it.
func (p *Population) Add(s components.Specimen) int {
	s.Index = len(p.entities)
	e := p.mapper.NewEntity(&s)
	p.entities = append(p.entities, e)
	return s.Index
}

// Specimen returns the specimen with the given 1-based index, or nil.
func (p *Population) Specimen(index int) *components.Specimen {
	if index < 1 || index >= len(p.entities) {
		return nil
	}
	return p.mapper.Get(p.entities[index])
}

// Size returns the number of specimens.
func (p *Population) Size() int { return len(p.entities) - 1 }

// Each calls fn for every specimen in index order.
func (p *Population) Each(fn func(s *components.Specimen)) {
	for _, e := range p.entities[1:] {
		fn(p.mapper.Get(e))
	}
}

// AliveCount returns the number of living specimens.
func (p *Population) AliveCount() int {
	n := 0
	query := p.filter.Query()
	for query.Next() {
		if query.Get().Alive {
			n++
		}
	}
	return n
}

// KillerCount returns the number of specimens whose genome can kill.
func (p *Population) KillerCount() int {
	n := 0
	query := p.filter.Query()
	for query.Next() {
		if query.Get().Killer {
			n++
		}
	}
	return n
}
