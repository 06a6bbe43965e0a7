package dynamics

import (
	"golang.org/x/exp/slices"
)

// OverlapFilter decides whether two objects with overlapping bounds are handed
// to the narrowphase. It must not mutate either object.
type OverlapFilter func(a, b *CollisionObject) bool

// DefaultOverlapFilter accepts a pair when each group passes the other's mask.
func DefaultOverlapFilter(a, b *CollisionObject) bool {
	return a.group&b.mask != 0 && b.group&a.mask != 0
}

type pairKey struct {
	lo, hi int
}

type overlapPair struct {
	a, b     *CollisionObject
	manifold *PersistentManifold
	seen     bool
}

func makePairKey(a, b *CollisionObject) pairKey {
	if a.uid < b.uid {
		return pairKey{a.uid, b.uid}
	}
	return pairKey{b.uid, a.uid}
}

func (w *World) needsBroadphaseCollision(a, b *CollisionObject) bool {
	if a.IsStaticObject() && b.IsStaticObject() {
		return false
	}
	if w.filter != nil {
		return w.filter(a, b)
	}
	return DefaultOverlapFilter(a, b)
}

func (w *World) updateObjectAABB(o *CollisionObject) {
	o.aabb = ShapeAABB(o.shape, o.worldTransform).Expand(w.breakingThreshold)
}

// updatePairs sweeps the objects sorted along X and diffs the overlapping set
// against the pairs of the previous update.
func (w *World) updatePairs() {
	for _, p := range w.pairs {
		p.seen = false
	}
	sorted := w.sorted[:0]
	sorted = append(sorted, w.objects...)
	slices.SortFunc(sorted, func(a, b *CollisionObject) int {
		switch {
		case a.aabb.Min[0] < b.aabb.Min[0]:
			return -1
		case a.aabb.Min[0] > b.aabb.Min[0]:
			return 1
		}
		return a.uid - b.uid
	})
	w.sorted = sorted

	for i, a := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			b := sorted[j]
			if b.aabb.Min[0] > a.aabb.Max[0] {
				break
			}
			if a.aabb.Overlaps(b.aabb) {
				w.touchPair(a, b)
			}
		}
	}

	var stale []pairKey
	for key, p := range w.pairs {
		if !p.seen {
			stale = append(stale, key)
		}
	}
	for _, key := range stale {
		w.removePair(key)
	}
}

func (w *World) touchPair(a, b *CollisionObject) {
	if !w.needsBroadphaseCollision(a, b) {
		return
	}
	key := makePairKey(a, b)
	if p, ok := w.pairs[key]; ok {
		p.seen = true
		return
	}
	if b.uid < a.uid {
		a, b = b, a
	}
	p := &overlapPair{a: a, b: b, manifold: w.dispatcher.newManifold(a, b), seen: true}
	w.pairs[key] = p
	if a.ghost != nil {
		a.ghost.addOverlap(b)
	}
	if b.ghost != nil {
		b.ghost.addOverlap(a)
	}
}

func (w *World) removePair(key pairKey) {
	p, ok := w.pairs[key]
	if !ok {
		return
	}
	delete(w.pairs, key)
	w.dispatcher.releaseManifold(p.manifold)
	if p.a.ghost != nil {
		p.a.ghost.removeOverlap(p.b)
	}
	if p.b.ghost != nil {
		p.b.ghost.removeOverlap(p.a)
	}
}

// refreshObjectPairs recomputes the pairs of a single object against the
// rest of the world.
func (w *World) refreshObjectPairs(o *CollisionObject) {
	for _, other := range w.objects {
		if other == o {
			continue
		}
		key := makePairKey(o, other)
		if o.aabb.Overlaps(other.aabb) && w.needsBroadphaseCollision(o, other) {
			w.touchPair(o, other)
			continue
		}
		w.removePair(key)
	}
}

func (w *World) removeObjectPairs(o *CollisionObject) {
	var keys []pairKey
	for key, p := range w.pairs {
		if p.a == o || p.b == o {
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		w.removePair(key)
	}
}
