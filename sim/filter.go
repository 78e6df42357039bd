package sim

// entityFilter is one queryable, non-singleton view: an ordered member list
// for stable iteration plus an index map for O(1) add/remove.
//
// A plain Go map is used for the index rather than a specialized int-keyed
// map type; see DESIGN.md for why the teacher's intintmap dependency was
// not pulled in here.
type entityFilter struct {
	members []InternalEntity
	index   map[EntityId]int
}

func newEntityFilter() *entityFilter {
	return &entityFilter{index: map[EntityId]int{}}
}

func (f *entityFilter) add(e InternalEntity) {
	id := e.Base().ID()
	if _, exists := f.index[id]; exists {
		return
	}
	f.index[id] = len(f.members)
	f.members = append(f.members, e)
}

func (f *entityFilter) contains(id EntityId) bool {
	_, ok := f.index[id]
	return ok
}

func (f *entityFilter) remove(id EntityId) {
	i, ok := f.index[id]
	if !ok {
		return
	}
	last := len(f.members) - 1
	if i != last {
		f.members[i] = f.members[last]
		f.index[f.members[i].Base().ID()] = i
	}
	f.members = f.members[:last]
	delete(f.index, id)
}

// filterTable owns every non-singleton entityFilter, indexed densely by
// FilterId as assigned by ClassRegistry.Register.
type filterTable struct {
	filters []*entityFilter
}

func newFilterTable(count int) *filterTable {
	t := &filterTable{filters: make([]*entityFilter, count)}
	for i := range t.filters {
		t.filters[i] = newEntityFilter()
	}
	return t
}

func (t *filterTable) addTo(id FilterId, e InternalEntity) {
	if int(id) >= len(t.filters) {
		return
	}
	t.filters[id].add(e)
}

func (t *filterTable) removeFrom(id FilterId, entityID EntityId) {
	if int(id) >= len(t.filters) {
		return
	}
	t.filters[id].remove(entityID)
}

// insertAll adds e to its own filter and every ancestor's, using the
// resolved BaseIds fan-out from the class's EntityClassData.
func (t *filterTable) insertAll(class *EntityClassData, e InternalEntity) {
	t.addTo(class.FilterId, e)
	for _, id := range class.BaseIds {
		t.addTo(id, e)
	}
}

// removeAll removes e's EntityId from its own filter and every ancestor's.
func (t *filterTable) removeAll(class *EntityClassData, id EntityId) {
	t.removeFrom(class.FilterId, id)
	for _, baseID := range class.BaseIds {
		t.removeFrom(baseID, id)
	}
}

// singletonTable holds at most one entity per singleton FilterId.
type singletonTable struct {
	slots []InternalEntity
}

func newSingletonTable(count int) *singletonTable {
	return &singletonTable{slots: make([]InternalEntity, count)}
}

func (t *singletonTable) set(id FilterId, e InternalEntity) error {
	if int(id) >= len(t.slots) {
		return ErrInvalidEntityId
	}
	if t.slots[id] != nil {
		return ErrSingletonAlreadyExists
	}
	t.slots[id] = e
	return nil
}

func (t *singletonTable) clear(id FilterId) {
	if int(id) >= len(t.slots) {
		return
	}
	t.slots[id] = nil
}

func (t *singletonTable) get(id FilterId) (InternalEntity, bool) {
	if int(id) >= len(t.slots) {
		return nil, false
	}
	e := t.slots[id]
	return e, e != nil
}

// GetEntityById resolves ref and type-asserts the result to T. ok is false
// if the reference is stale/invalid or the live entity does not implement T.
func GetEntityById[T any](m *Manager, ref EntitySharedReference) (T, bool) {
	var zero T
	entity, ok := m.ResolveReference(ref)
	if !ok {
		return zero, false
	}
	typed, ok := entity.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// TryGetEntityById is GetEntityById without the boolean return, yielding the
// zero value of T when the reference does not resolve.
func TryGetEntityById[T any](m *Manager, ref EntitySharedReference) T {
	v, _ := GetEntityById[T](m, ref)
	return v
}

// GetEntities returns every live member of T's filter (T itself or any
// registered descendant naming T as an ancestor), type-asserted to T. The
// assertion always succeeds because filter membership, resolved once at
// construction from BaseIds, already guarantees every member implements T.
func GetEntities[T any](m *Manager) []T {
	id, ok := FilterIDFor[T](m.registry, false)
	if !ok {
		return nil
	}
	filter := m.filters.filters[id]
	out := make([]T, 0, len(filter.members))
	for _, e := range filter.members {
		out = append(out, e.(T))
	}
	return out
}

// GetControllers returns every live controller entity, type-asserted to T.
// Unlike GetEntities, this does not key off FilterIDFor: every KindController
// class is fanned into the reserved ControllerLogic filter automatically
// during registration (see ClassRegistry.Register), since a concrete
// controller struct embeds ControllerLogic rather than being assignable to
// it, so T is typically an interface (InternalEntity, or a marker interface
// the caller's controller classes implement) rather than *ControllerLogic
// itself.
func GetControllers[T any](m *Manager) []T {
	filter := m.filters.filters[m.registry.controllerFilterId]
	out := make([]T, 0, len(filter.members))
	for _, e := range filter.members {
		if typed, ok := e.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

// GetSingleton returns the single live instance of singleton type T. ok is
// false if none currently exists.
func GetSingleton[T any](m *Manager) (T, bool) {
	var zero T
	id, ok := FilterIDFor[T](m.registry, true)
	if !ok {
		return zero, false
	}
	e, ok := m.singletons.get(id)
	if !ok {
		return zero, false
	}
	return e.(T), true
}

// TryGetSingleton is GetSingleton without the boolean return, returning the
// zero value of T when absent.
func TryGetSingleton[T any](m *Manager) T {
	v, _ := GetSingleton[T](m)
	return v
}

// HasSingleton reports whether an instance of singleton type T exists.
func HasSingleton[T any](m *Manager) bool {
	_, ok := GetSingleton[T](m)
	return ok
}
