package sim

import (
	"fmt"
	"log/slog"
	"time"
)

// Mode distinguishes a Manager's role, selecting which behaviours (id
// allocation policy, rollback/prediction, lag-compensation direction) apply.
type Mode uint8

const (
	// ModeServer is the authoritative simulation.
	ModeServer Mode = iota
	// ModeClient is a predicting, reconciling simulation.
	ModeClient
)

// UpdateMode reports what kind of step the most recent Update call
// performed, telling a fixed logic tick from an interpolation-only render
// step. It is set after the call's ticks have run, so a hook running inside
// an Update call sees the previous call's value.
type UpdateMode uint8

const (
	// UpdateRender marks an Update call that advanced render-only state
	// (the clock's LerpFactor) without firing any fixed tick.
	UpdateRender UpdateMode = iota
	// UpdateLogicTick marks an Update call that fired at least one fixed
	// simulation step.
	UpdateLogicTick
)

// RoleHooks is supplied by the caller (the out-of-scope serialization and
// prediction layers) and invoked by Manager at the points spec.md §4.6
// names.
type RoleHooks interface {
	// OnLogicTick runs once per fixed tick, after entity construction for
	// the tick has settled but before lag-compensation history is
	// recorded for it.
	OnLogicTick(m *Manager)
	// EntityFieldChanged fires on every SetField call, regardless of
	// whether the entity's concrete type also implements
	// fieldChangeNotifiable.
	EntityFieldChanged(entity InternalEntity, fieldID uint16, newValue any)
}

// AliveAddedHook is an optional RoleHooks extension: implement it to be
// notified once an entity has been fully inserted into every applicable
// view (store, filters, singleton slot).
type AliveAddedHook interface {
	OnAliveEntityAdded(entity InternalEntity)
}

// Manager is the role-agnostic entity manager core. ServerManager and
// ClientManager each embed one, differing only in Mode and in the RoleHooks
// they install.
type Manager struct {
	mode       Mode
	registry   *ClassRegistry
	store      *entityStore
	filters    *filterTable
	singletons *singletonTable
	clock      *Clock
	hooks      RoleHooks
	log        *slog.Logger

	maxHistorySize        int
	lagHistories          map[EntityId]*lagHistory
	lagStates             map[EntityId]*lagCompensationState
	lagCompensationActive bool
	classPools            map[ClassId]*classDataPool

	alive *entityFilter

	rollback       bool
	lastUpdateMode UpdateMode

	nextLocalID EntityId
}

// NewManager constructs a Manager over a finished ClassRegistry. hooks must
// not be nil. maxHistorySize bounds the lag-compensation ring buffer depth
// per entity (0 disables lag compensation entirely).
func NewManager(mode Mode, registry *ClassRegistry, tickRate time.Duration, maxHistorySize int, hooks RoleHooks, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{
		mode:           mode,
		registry:       registry,
		store:          newEntityStore(),
		filters:        newFilterTable(int(registry.nextFilterId)),
		singletons:     newSingletonTable(int(registry.nextSingletonId)),
		clock:          NewClock(tickRate),
		hooks:          hooks,
		log:            log,
		maxHistorySize: maxHistorySize,
		lagHistories:   map[EntityId]*lagHistory{},
		lagStates:      map[EntityId]*lagCompensationState{},
		classPools:     map[ClassId]*classDataPool{},
		alive:          newEntityFilter(),
		nextLocalID:    MaxSyncedEntityCount + 1,
	}
	return m
}

// Mode returns the manager's role.
func (m *Manager) Mode() Mode { return m.mode }

// Clock returns the manager's tick clock.
func (m *Manager) Clock() *Clock { return m.clock }

// Registry returns the manager's class registry.
func (m *Manager) Registry() *ClassRegistry { return m.registry }

// InRollBackState reports whether the manager is currently replaying ticks
// during client-side reconciliation. Predicted-field writes route to the
// predicted slot only while this is true on a client manager; a server
// manager never enters rollback.
func (m *Manager) InRollBackState() bool { return m.rollback }

// InNormalState is the negation of InRollBackState, named separately
// because spec.md §6 lists both as distinct public surface members.
func (m *Manager) InNormalState() bool { return !m.rollback }

// SetRollbackState is called by ClientManager's reconciliation loop to
// enter or leave rollback replay.
func (m *Manager) SetRollbackState(active bool) { m.rollback = active }

// IsServer reports whether this manager is the authoritative simulation.
func (m *Manager) IsServer() bool { return m.mode == ModeServer }

// IsClient reports whether this manager is a predicting, reconciling
// simulation.
func (m *Manager) IsClient() bool { return m.mode == ModeClient }

// IsRunning reports whether the clock has fired its first Advance call.
func (m *Manager) IsRunning() bool { return m.clock.IsRunning() }

// Tick returns the number of fixed ticks completed so far.
func (m *Manager) Tick() uint16 { return m.clock.Tick() }

// LerpFactor returns the clock's current render-interpolation fraction.
func (m *Manager) LerpFactor() float64 { return m.clock.LerpFactor() }

// VisualDeltaTime returns the wall-clock time elapsed since the previous
// Update call.
func (m *Manager) VisualDeltaTime() time.Duration { return m.clock.VisualDeltaTime() }

// FramesPerSecond returns the configured fixed tick rate.
func (m *Manager) FramesPerSecond() int { return m.clock.FramesPerSecond() }

// DeltaTime returns the fixed per-tick step.
func (m *Manager) DeltaTime() time.Duration { return m.clock.DeltaTime() }

// DeltaTimeF returns DeltaTime in fractional seconds.
func (m *Manager) DeltaTimeF() float64 { return m.clock.DeltaTimeF() }

// UpdateMode reports what kind of step the most recent Update call
// performed: a render-only step, or one that fired at least one fixed
// logic tick.
func (m *Manager) UpdateMode() UpdateMode { return m.lastUpdateMode }

// MaxHistorySize returns the configured per-entity lag-compensation ring
// buffer depth.
func (m *Manager) MaxHistorySize() int { return m.maxHistorySize }

// PlayerId returns ServerPlayerId by default; ClientManager overrides this
// to return its local player's wire id once SetLocalPlayer has been called.
func (m *Manager) PlayerId() byte { return ServerPlayerId }

// HeaderByte returns the low byte of the class registry's fingerprint, used
// by a transport collaborator to prefix outbound packets for demultiplexing
// and, compared against a peer's, to detect a schema mismatch before
// trusting a decoded snapshot.
func (m *Manager) HeaderByte() byte { return byte(m.registry.RegistryFingerprint()) }

func (m *Manager) lagState(id EntityId) *lagCompensationState {
	s, ok := m.lagStates[id]
	if !ok {
		s = &lagCompensationState{}
		m.lagStates[id] = s
	}
	return s
}

func (m *Manager) classPool(class *EntityClassData) *classDataPool {
	p, ok := m.classPools[class.ClassId]
	if !ok {
		p = newClassDataPool(class.Descriptor.LagCompensatedCount)
		m.classPools[class.ClassId] = p
	}
	return p
}

// AddEntity constructs and inserts a new entity of classID at the given id,
// wiring it into every filter and singleton slot its class belongs to. The
// caller (role specialization) is responsible for allocating id within the
// correct range; AddEntity only validates it.
func (m *Manager) AddEntity(id EntityId, classID ClassId, isLocal bool) (InternalEntity, error) {
	class, ok := m.registry.ClassByID(classID)
	if !ok {
		return nil, fmt.Errorf("sim: AddEntity class %d: %w", classID, ErrUnregisteredClass)
	}
	if class.Descriptor.Kind == KindSingleton {
		if _, exists := m.singletons.get(class.FilterId); exists {
			return nil, fmt.Errorf("sim: AddEntity class %q: %w", class.Descriptor.Name, ErrSingletonAlreadyExists)
		}
	}

	entity := class.Descriptor.Construct(EntityParams{Id: id, ClassId: classID, IsLocal: isLocal})
	version, err := m.store.add(id, entity)
	if err != nil {
		return nil, fmt.Errorf("sim: AddEntity id %d: %w", id, err)
	}
	entity.Base().init(id, version, classID, class.Descriptor.Kind, isLocal)

	switch class.Descriptor.Kind {
	case KindSingleton:
		_ = m.singletons.set(class.FilterId, entity)
	default:
		m.filters.insertAll(class, entity)
	}

	if hook, ok := entity.(OnConstructedHook); ok {
		hook.OnConstructed()
	}

	// ¬IsLocal ∧ kind == KindEntity ∧ LagCompensatedCount > 0 (spec.md §3
	// invariant 4). Registration already rejects LagCompensatedCount > 0 on
	// any kind but KindEntity, so only the locality check remains here.
	if !isLocal && class.Descriptor.LagCompensatedCount > 0 {
		m.lagHistories[id] = newLagHistory(m.maxHistorySize, m.classPool(class))
	}

	if m.isAlivePredicate(class, entity) {
		m.alive.add(entity)
		if h, ok := m.hooks.(AliveAddedHook); ok {
			h.OnAliveEntityAdded(entity)
		}
	}
	m.log.Debug("entity constructed", "id", id, "class", class.Descriptor.Name, "version", version)
	return entity, nil
}

// isAlivePredicate implements spec.md §3 invariant 3: Flags.Updateable ∧
// (Server ∨ e.IsLocal ∨ (Client ∧ Flags.UpdateOnClient)).
func (m *Manager) isAlivePredicate(class *EntityClassData, entity InternalEntity) bool {
	if class.Descriptor.Flags&FlagUpdateable == 0 {
		return false
	}
	if m.mode == ModeServer || entity.Base().IsLocal() {
		return true
	}
	return class.Descriptor.Flags&FlagUpdateOnClient != 0
}

// DestroyEntity marks id destroyed: it is removed from every filter and
// singleton slot immediately but remains resolvable via AllEntities until
// RemoveEntity runs.
func (m *Manager) DestroyEntity(id EntityId) error {
	entity, ok := m.store.getAlive(id)
	if !ok {
		return fmt.Errorf("sim: DestroyEntity id %d: %w", id, ErrInvalidEntityId)
	}
	class, ok := m.registry.ClassByID(entity.Base().ClassID())
	if !ok {
		return fmt.Errorf("sim: DestroyEntity id %d: %w", id, ErrUnregisteredClass)
	}

	if !m.store.markDestroyed(id) {
		return fmt.Errorf("sim: DestroyEntity id %d: %w", id, ErrInvalidEntityId)
	}
	entity.Base().destroyed = true

	switch class.Descriptor.Kind {
	case KindSingleton:
		m.singletons.clear(class.FilterId)
	default:
		m.filters.removeAll(class, id)
	}
	if hist, ok := m.lagHistories[id]; ok {
		for _, snap := range hist.buf {
			hist.pool.put(snap.values)
		}
	}
	delete(m.lagHistories, id)
	delete(m.lagStates, id)
	m.alive.remove(id)

	if hook, ok := entity.(OnDestroyedHook); ok {
		hook.OnEntityDestroyed()
	}
	m.log.Debug("entity destroyed", "id", id, "class", class.Descriptor.Name)
	return nil
}

// RemoveEntity fully clears id's slot, freeing it for reuse at a later
// version. Calling it on an entity that was never destroyed is a logic
// warning (logged and swallowed, not returned as an error) per spec.md §7's
// LogicWarning kind.
func (m *Manager) RemoveEntity(id EntityId) {
	entity, ok := m.store.get(id)
	if !ok {
		return
	}
	if !entity.Base().IsDestroyed() {
		m.log.Warn("RemoveEntity called on non-destroyed entity", "id", id)
	}
	m.store.remove(id)
}

// GetEntity resolves id to its current occupant, including a destroyed but
// not-yet-removed entity.
func (m *Manager) GetEntity(id EntityId) (InternalEntity, bool) {
	return m.store.get(id)
}

// ResolveReference resolves a stable handle to its live entity, failing if
// the slot has since been reused by a later generation.
func (m *Manager) ResolveReference(ref EntitySharedReference) (InternalEntity, bool) {
	return m.store.resolve(ref)
}

// AllEntities iterates every occupied slot, destroyed or not.
func (m *Manager) AllEntities() func(func(InternalEntity) bool) {
	return m.store.all()
}

// AliveEntities iterates every entity for which the alive predicate
// (spec.md §3 invariant 3) currently holds: Updateable, and either this is
// the server, the entity is local, or it is UpdateOnClient on a client.
func (m *Manager) AliveEntities() func(func(InternalEntity) bool) {
	return func(yield func(InternalEntity) bool) {
		for _, e := range m.alive.members {
			if !yield(e) {
				return
			}
		}
	}
}

// IsEntityAlive reports whether entity currently belongs to AliveEntities.
func (m *Manager) IsEntityAlive(entity InternalEntity) bool {
	return m.alive.contains(entity.Base().ID())
}

// EntitiesCount returns the number of non-destroyed, occupied slots in the
// entity store (spec.md §3 invariant 7), independent of the alive predicate.
func (m *Manager) EntitiesCount() int { return m.store.aliveCount() }

// allocateLocalID hands out the next id in the local (non-synced) range,
// wrapping back to MaxSyncedEntityCount+1 past MaxEntityCount. It does not
// skip occupied ids: when the id it hands out is still occupied, the
// subsequent store.add call returns ErrEntitySlotOccupied.
func (m *Manager) allocateLocalID() EntityId {
	id := m.nextLocalID
	if id > MaxEntityCount {
		id = MaxSyncedEntityCount + 1
	}
	m.nextLocalID = id + 1
	return id
}

// Reset returns the manager to its pre-first-tick state: the clock is
// replaced with a fresh one at the same tick rate, every entity (including
// local singletons, which are ordinary store-managed entities) is destroyed
// and removed, and every filter and singleton slot is cleared. It is
// idempotent and safe to call between any two Update calls; a subsequent
// Update behaves identically to a fresh construction.
func (m *Manager) Reset() {
	for entity := range m.store.all() {
		id := entity.Base().ID()
		if !entity.Base().IsDestroyed() {
			_ = m.DestroyEntity(id)
		}
		m.store.remove(id)
	}
	m.clock = NewClock(m.clock.TickRate)
	m.rollback = false
	m.nextLocalID = MaxSyncedEntityCount + 1
	m.lagHistories = map[EntityId]*lagHistory{}
	m.lagStates = map[EntityId]*lagCompensationState{}
	m.lagCompensationActive = false
}

// Update advances the clock by elapsed, following spec.md §4.4's seven-step
// schedule: it runs any local-singleton visual-update hook immediately, then
// fires OnLogicTick once per fixed tick that becomes due (preceded each time
// by local-singleton logic-update hooks and followed by lag-compensation
// history recording), up to MaxTicksPerUpdate.
func (m *Manager) Update(elapsed time.Duration) {
	fired := m.clock.Advance(elapsed, m.visualUpdateLocalSingletons, m.fireLogicTick)
	if fired > 0 {
		m.lastUpdateMode = UpdateLogicTick
	} else {
		m.lastUpdateMode = UpdateRender
	}
}

// visualUpdateLocalSingletons invokes VisualUpdater on every local singleton
// entity, once per Update call regardless of whether any fixed tick fires.
func (m *Manager) visualUpdateLocalSingletons(deltaSeconds float64) {
	for _, e := range m.singletons.slots {
		if e == nil || !e.Base().IsLocal() {
			continue
		}
		if vu, ok := e.(VisualUpdater); ok {
			vu.VisualUpdate(deltaSeconds)
		}
	}
}

// logicUpdateLocalSingletons invokes LogicUpdater on every local singleton
// entity, once per fixed tick, immediately before OnLogicTick.
func (m *Manager) logicUpdateLocalSingletons() {
	for _, e := range m.singletons.slots {
		if e == nil || !e.Base().IsLocal() {
			continue
		}
		if lu, ok := e.(LogicUpdater); ok {
			lu.LogicUpdate()
		}
	}
}

// fireLogicTick runs one fixed tick's worth of work: local-singleton logic
// updates, the role's OnLogicTick, then lag-compensation history recording.
func (m *Manager) fireLogicTick() {
	m.logicUpdateLocalSingletons()
	m.hooks.OnLogicTick(m)
	m.recordLagHistory()
}

func (m *Manager) recordLagHistory() {
	if len(m.lagHistories) == 0 {
		return
	}
	tick := uint64(m.clock.Tick())
	for id, hist := range m.lagHistories {
		entity, ok := m.store.getAlive(id)
		if !ok {
			continue
		}
		class, ok := m.registry.ClassByID(entity.Base().ClassID())
		if !ok {
			continue
		}
		fields := class.Descriptor.Fields[:class.Descriptor.LagCompensatedCount]
		values := m.classPool(class).get()
		for i, f := range fields {
			values[i] = f.Get(entity)
		}
		hist.record(tick, values)
	}
}

// SetField writes value to field on entity, routing to the predicted slot
// when the manager is in rollback and the field is predicted, and
// otherwise to the fixed slot. EntityFieldChanged fires unconditionally;
// the entity's own OnFieldChanged callback fires only when the field has
// SyncChangeNotification set and the entity implements
// fieldChangeNotifiable.
func SetField[T any](m *Manager, entity InternalEntity, field *EntityFieldInfo, value T) {
	if m.InRollBackState() && field.IsPredicted() {
		field.SetPredicted(entity, value)
	} else {
		field.Set(entity, value)
	}
	m.hooks.EntityFieldChanged(entity, field.ID, value)
	if field.HasChangeNotification() {
		if notifiable, ok := entity.(fieldChangeNotifiable); ok {
			notifiable.OnFieldChanged(field.ID, value)
		}
	}
}

// GetField reads field from entity, routing to the predicted slot under the
// same condition SetField writes to it.
func GetField[T any](m *Manager, entity InternalEntity, field *EntityFieldInfo) T {
	var raw any
	if m.InRollBackState() && field.IsPredicted() {
		raw = field.GetPredicted(entity)
	} else {
		raw = field.Get(entity)
	}
	v, _ := raw.(T)
	return v
}
