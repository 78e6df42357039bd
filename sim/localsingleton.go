package sim

// AddLocalSingleton constructs a local (non-networked) instance of
// singleton class classID and inserts it through the normal construction
// pipeline, allocating its EntityId from the local id range rather than
// requiring the caller to pick one. It is sugar over AddEntity: a local
// singleton is an ordinary store-managed entity, so it is destroyed by
// DestroyEntity like any other and cleared by Manager.Reset like any other,
// with no separate bookkeeping to keep in sync.
func AddLocalSingleton[T any](m *Manager, classID ClassId) (T, error) {
	var zero T
	id := m.allocateLocalID()
	entity, err := m.AddEntity(id, classID, true)
	if err != nil {
		return zero, err
	}
	typed, ok := entity.(T)
	if !ok {
		return zero, ErrUnregisteredType
	}
	return typed, nil
}

// GetLocalSingleton is an alias of GetSingleton: a local singleton is
// stored in the same singleton slot as a networked one, distinguished only
// by its IsLocal flag.
func GetLocalSingleton[T any](m *Manager) (T, bool) {
	return GetSingleton[T](m)
}

// TryGetLocalSingleton is an alias of TryGetSingleton.
func TryGetLocalSingleton[T any](m *Manager) T {
	return TryGetSingleton[T](m)
}
