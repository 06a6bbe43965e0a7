package dynamics

// Dispatcher owns the persistent manifolds of all broadphase pairs.
type Dispatcher struct {
	manifolds []*PersistentManifold
	threshold float64
}

func newDispatcher(threshold float64) *Dispatcher {
	return &Dispatcher{threshold: threshold}
}

func (d *Dispatcher) NumManifolds() int { return len(d.manifolds) }

func (d *Dispatcher) ManifoldByIndex(i int) *PersistentManifold {
	return d.manifolds[i]
}

func (d *Dispatcher) newManifold(a, b *CollisionObject) *PersistentManifold {
	m := newManifold(a, b, d.threshold)
	d.manifolds = append(d.manifolds, m)
	return m
}

func (d *Dispatcher) releaseManifold(m *PersistentManifold) {
	for i, existing := range d.manifolds {
		if existing == m {
			d.manifolds = append(d.manifolds[:i], d.manifolds[i+1:]...)
			return
		}
	}
}
