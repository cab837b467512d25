package engine

import "github.com/vegasq/cutflow/hep"

type objectKey struct {
	particle hep.Particle
	index    int
}

type indexKey struct {
	particle hep.Particle
	floor    hep.Tier
	ordinal  int
}

type collectionKey struct {
	particle hep.Particle
	floor    hep.Tier
}

// Event is the per-entry unit of processing. It caches resolved tiers,
// ordinal lookups, qualifying momenta and model scores until the next
// entry begins.
type Event struct {
	entry       int
	tiers       map[objectKey]hep.Tier
	indices     map[indexKey]int
	collections map[collectionKey][]hep.Vector
	scores      map[float64]Value

	// Weight is the running event weight of the current cut chain pass.
	Weight float64
}

func newEvent() *Event {
	return &Event{
		tiers:       make(map[objectKey]hep.Tier),
		indices:     make(map[indexKey]int),
		collections: make(map[collectionKey][]hep.Vector),
		scores:      make(map[float64]Value),
		Weight:      1,
	}
}

func (e *Event) reset(entry int) {
	e.entry = entry
	clear(e.tiers)
	clear(e.indices)
	clear(e.collections)
	clear(e.scores)
	e.Weight = 1
}

// Entry returns the entry index relative to the partition start.
func (e *Event) Entry() int {
	return e.entry
}
