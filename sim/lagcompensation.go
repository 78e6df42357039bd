package sim

// lagSnapshot is one historical record of a lag-compensated entity's
// leading fields at a given tick.
type lagSnapshot struct {
	tick   uint64
	values []any
}

// lagHistory is the per-entity ring buffer of lagSnapshot, sized to
// MaxHistorySize. Index arithmetic wraps rather than reallocating, since
// the buffer is allocated once per entity at construction and reused for
// its whole lifetime.
type lagHistory struct {
	pool   *classDataPool
	buf    []lagSnapshot
	next   int
	filled int
}

func newLagHistory(maxHistorySize int, pool *classDataPool) *lagHistory {
	return &lagHistory{pool: pool, buf: make([]lagSnapshot, maxHistorySize)}
}

// record appends a snapshot of values at tick, overwriting the oldest entry
// once the ring is full. values must have been obtained from h.pool.get()
// and fully populated by the caller.
func (h *lagHistory) record(tick uint64, values []any) {
	if len(h.buf) == 0 {
		return
	}
	old := h.buf[h.next]
	if old.values != nil {
		h.pool.put(old.values)
	}
	h.buf[h.next] = lagSnapshot{tick: tick, values: values}
	h.next = (h.next + 1) % len(h.buf)
	if h.filled < len(h.buf) {
		h.filled++
	}
}

// at returns the snapshot recorded at or immediately before tick, walking
// backward from the most recent entry. ok is false if tick predates every
// retained snapshot.
func (h *lagHistory) at(tick uint64) (values []any, ok bool) {
	if h.filled == 0 {
		return nil, false
	}
	idx := h.next
	for i := 0; i < h.filled; i++ {
		idx = (idx - 1 + len(h.buf)) % len(h.buf)
		snap := h.buf[idx]
		if snap.tick <= tick {
			return snap.values, true
		}
	}
	return nil, false
}

// lagCompensationState tracks, per-entity, whether lag compensation is
// currently enabled (rewound) and what to restore on disable.
type lagCompensationState struct {
	enabled       bool
	restoreValues []any
}

// EnableLagCompensation implements spec.md §4.5's enable(player) step. It is
// idempotent-guarded: a no-op if the protocol is already enabled, or if this
// is a client manager that is not currently replaying a rollback. Otherwise
// every entity in LagCompensatedEntities is rewound to its snapshot nearest
// player's SimulatedServerTick, so a caller-supplied operation (typically
// hit-detection for player's action) observes world state as it was at that
// tick, until the matching DisableLagCompensation call restores it.
func (m *Manager) EnableLagCompensation(player NetPlayer) error {
	if m.lagCompensationActive {
		return nil
	}
	if m.mode == ModeClient && !m.rollback {
		return nil
	}
	tick := uint64(player.SimulatedServerTick())
	for id, hist := range m.lagHistories {
		entity, ok := m.store.getAlive(id)
		if !ok {
			continue
		}
		m.enableEntityLagCompensation(entity, hist, tick)
	}
	m.lagCompensationActive = true
	return nil
}

// DisableLagCompensation implements spec.md §4.5's disable() step. It is
// idempotent-guarded: a no-op if the protocol was not enabled. Otherwise
// every entity rewound by the matching EnableLagCompensation call is
// restored to its pre-rewind field values.
func (m *Manager) DisableLagCompensation() error {
	if !m.lagCompensationActive {
		return nil
	}
	for id := range m.lagStates {
		entity, ok := m.store.getAlive(id)
		if !ok {
			continue
		}
		m.restoreEntityLagCompensation(entity)
	}
	m.lagCompensationActive = false
	return nil
}

// enableEntityLagCompensation rewinds one entity's lag-compensated fields to
// their recorded values as of tick, saving the pre-rewind values for restore.
// A per-entity double-enable (no intervening restore) is a no-op, matching
// the protocol-level idempotency guard one level down.
func (m *Manager) enableEntityLagCompensation(entity InternalEntity, hist *lagHistory, tick uint64) {
	state := m.lagState(entity.Base().ID())
	if state.enabled {
		return
	}
	class, ok := m.registry.ClassByID(entity.Base().ClassID())
	if !ok {
		return
	}
	snap, ok := hist.at(tick)
	if !ok {
		return
	}
	fields := class.Descriptor.Fields[:class.Descriptor.LagCompensatedCount]
	current := make([]any, len(fields))
	for i, f := range fields {
		current[i] = f.Get(entity)
	}
	for i, f := range fields {
		f.Set(entity, snap[i])
	}
	state.enabled = true
	state.restoreValues = current
}

// restoreEntityLagCompensation undoes enableEntityLagCompensation for one
// entity. A no-op if the entity was never rewound.
func (m *Manager) restoreEntityLagCompensation(entity InternalEntity) {
	id := entity.Base().ID()
	state, ok := m.lagStates[id]
	if !ok || !state.enabled {
		return
	}
	class, ok := m.registry.ClassByID(entity.Base().ClassID())
	if !ok {
		return
	}
	fields := class.Descriptor.Fields[:class.Descriptor.LagCompensatedCount]
	for i, f := range fields {
		f.Set(entity, state.restoreValues[i])
	}
	state.enabled = false
	state.restoreValues = nil
}
