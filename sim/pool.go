package sim

import "sync"

// classDataPool recycles the []any value slices used to snapshot a class's
// lag-compensated fields into history, one pool per class so slice
// capacity matches that class's LagCompensatedCount and slices are never
// shared across classes of different widths.
type classDataPool struct {
	width int
	pool  sync.Pool
}

func newClassDataPool(width int) *classDataPool {
	p := &classDataPool{width: width}
	p.pool.New = func() any {
		return make([]any, width)
	}
	return p
}

// get returns a slice of length width, ready to be filled with width values
// by direct indexing. A zero-width pool returns nil.
func (p *classDataPool) get() []any {
	if p.width == 0 {
		return nil
	}
	return p.pool.Get().([]any)
}

// put returns s to the pool. s must have been obtained from get on this
// same pool. Callers should clear entries holding large values first if
// retention until reuse matters; the core does not do so since history
// entries are short-lived scalars and small vectors.
func (p *classDataPool) put(s []any) {
	if s == nil {
		return
	}
	p.pool.Put(s)
}
