package sim

import (
	"fmt"
	"reflect"
)

// ClassFlags carries the core-visible bits of a class's per-class Flags
// word. Every other bit a concrete engine might define (rendering,
// physics categories, and the like) is opaque to this package.
type ClassFlags uint8

const (
	// FlagUpdateable marks a class whose instances belong in AliveEntities
	// at all (subject further to FlagUpdateOnClient on the client side).
	FlagUpdateable ClassFlags = 1 << 0
	// FlagUpdateOnClient marks a class whose non-local instances are still
	// alive (ticked) on a client, not just on the server and not just when
	// local. Irrelevant on the server, where Updateable alone suffices.
	FlagUpdateOnClient ClassFlags = 1 << 1
)

// ClassDescriptor is the type-map collaborator contract: the caller
// supplies one per registered entity class, the registry turns it into an
// EntityClassData and assigns FilterIds.
type ClassDescriptor struct {
	// Name identifies the class for logging and config, and contributes to
	// the registry fingerprint.
	Name string
	// GoType is the concrete Go type (obtained via reflect.TypeOf on a zero
	// value or reflect.TypeFor) implementing this class, used as the
	// registry's lookup key for GetEntities[T]/GetSingleton[T].
	GoType reflect.Type
	// AncestorTypes lists, nearest first, the Go types this class should
	// also appear under when queried generically. Go has no runtime class
	// hierarchy to walk, so the caller states the hierarchy explicitly.
	AncestorTypes []reflect.Type
	// Kind classifies the class for store/filter/singleton routing.
	Kind EntityKind
	// Flags carries the core-visible Updateable/UpdateOnClient bits that
	// decide AliveEntities membership.
	Flags ClassFlags
	// Construct builds a new instance of this class from spawn parameters.
	Construct EntityConstructor
	// Fields lists the class's replicated/predicted/lag-compensated field
	// descriptors in declaration order. By convention the first
	// LagCompensatedCount fields are the ones recorded into rewind history.
	Fields []*EntityFieldInfo
	// LagCompensatedCount is how many leading entries of Fields are
	// recorded into per-entity rewind history. Zero means this class is
	// never lag-compensated, which is mandatory for KindController and
	// KindSingleton classes.
	LagCompensatedCount int
}

// EntityClassData is the resolved, registration-time-computed metadata for
// one class: the FilterId space it occupies and its fan-out of ancestor
// FilterIds, ready for O(1) use on the hot path.
type EntityClassData struct {
	ClassId    ClassId
	Descriptor *ClassDescriptor
	FilterId   FilterId
	BaseIds    []FilterId
	filterSet  map[FilterId]struct{}
}

// filters reports every FilterId this class's instances belong to: its own
// plus every ancestor's, computed once at registration.
func (c *EntityClassData) filters() map[FilterId]struct{} { return c.filterSet }

// ClassRegistry is the "type map" assembled at startup from a list of
// ClassDescriptors. It is immutable once Register returns and is never
// mutated on the simulation hot path.
type ClassRegistry struct {
	classes            []*EntityClassData
	byGoType           map[reflect.Type]*EntityClassData
	filterByType       map[reflect.Type]FilterId
	singletonByType    map[reflect.Type]FilterId
	nextFilterId       FilterId
	nextSingletonId    FilterId
	controllerFilterId FilterId
}

// NewClassRegistry builds an empty registry. Call Register once with every
// ClassDescriptor the simulation will use; the registry is read-only
// afterward.
func NewClassRegistry() *ClassRegistry {
	return &ClassRegistry{
		byGoType:        map[reflect.Type]*EntityClassData{},
		filterByType:    map[reflect.Type]FilterId{},
		singletonByType: map[reflect.Type]FilterId{},
	}
}

// Register assigns ClassIds and FilterIds to every descriptor and resolves
// ancestor fan-out. It must be called exactly once, before any entity is
// constructed. A second call panics once any class has been registered,
// since FilterId assignment is only meaningful when performed over the
// whole class set at once.
func (r *ClassRegistry) Register(descriptors []*ClassDescriptor) error {
	if len(r.classes) != 0 {
		panic("sim: ClassRegistry.Register called more than once")
	}

	// Pre-register ControllerLogic's own type at FilterId 0, preserving the
	// source protocol's reservation even though nothing here depends on the
	// specific value.
	controllerType := reflect.TypeOf((*ControllerLogic)(nil))
	r.controllerFilterId = r.assignFilterId(controllerType, false)

	for i, d := range descriptors {
		if d.GoType == nil {
			return fmt.Errorf("sim: class %q: %w", d.Name, ErrInvalidClassDescriptor)
		}
		if d.Construct == nil {
			return fmt.Errorf("sim: class %q: %w", d.Name, ErrInvalidClassDescriptor)
		}
		if _, exists := r.byGoType[d.GoType]; exists {
			return fmt.Errorf("sim: class %q: %w", d.Name, ErrDuplicateClass)
		}
		if d.Kind != KindEntity && d.LagCompensatedCount != 0 {
			return fmt.Errorf("sim: class %q: %w", d.Name, ErrLagCompensationNotAllowed)
		}

		data := &EntityClassData{
			ClassId:    ClassId(i + 1),
			Descriptor: d,
		}

		isSingleton := d.Kind == KindSingleton
		data.FilterId = r.assignFilterId(d.GoType, isSingleton)

		r.byGoType[d.GoType] = data
		r.classes = append(r.classes, data)
	}

	// Second pass: resolve BaseIds and the full filter-membership set now
	// that every type in the descriptor list has a FilterId. Ancestor types
	// receive theirs here, the first time any descriptor names them.
	for _, data := range r.classes {
		isSingleton := data.Descriptor.Kind == KindSingleton
		set := map[FilterId]struct{}{data.FilterId: {}}
		baseIds := make([]FilterId, 0, len(data.Descriptor.AncestorTypes)+1)
		for _, anc := range data.Descriptor.AncestorTypes {
			id := r.assignFilterId(anc, isSingleton)
			baseIds = append(baseIds, id)
			set[id] = struct{}{}
		}
		// Every controller class fans into the reserved ControllerLogic
		// filter automatically; the caller never names it as an ancestor
		// type, since the concrete controller struct embeds ControllerLogic
		// rather than being assignable to it.
		if data.Descriptor.Kind == KindController {
			if _, already := set[r.controllerFilterId]; !already {
				baseIds = append(baseIds, r.controllerFilterId)
				set[r.controllerFilterId] = struct{}{}
			}
		}
		data.BaseIds = baseIds
		data.filterSet = set
	}

	return nil
}

// assignFilterId returns t's FilterId, allocating a new one from the
// singleton or non-singleton dense counter on first sight.
func (r *ClassRegistry) assignFilterId(t reflect.Type, singleton bool) FilterId {
	table := r.filterByType
	counter := &r.nextFilterId
	if singleton {
		table = r.singletonByType
		counter = &r.nextSingletonId
	}
	if id, ok := table[t]; ok {
		return id
	}
	id := *counter
	*counter++
	table[t] = id
	return id
}

// ClassByGoType returns the resolved class data for a registered Go type.
func (r *ClassRegistry) ClassByGoType(t reflect.Type) (*EntityClassData, bool) {
	d, ok := r.byGoType[t]
	return d, ok
}

// ClassByID returns the resolved class data for a ClassId, which are
// assigned densely starting at 1 in registration order.
func (r *ClassRegistry) ClassByID(id ClassId) (*EntityClassData, bool) {
	if id == 0 || int(id) > len(r.classes) {
		return nil, false
	}
	return r.classes[id-1], true
}

// FilterIDFor returns the FilterId associated with Go type T, resolved from
// the registry populated during Register. ok is false if T was never named
// by any descriptor's GoType or AncestorTypes.
func FilterIDFor[T any](r *ClassRegistry, singleton bool) (FilterId, bool) {
	t := reflect.TypeFor[T]()
	table := r.filterByType
	if singleton {
		table = r.singletonByType
	}
	id, ok := table[t]
	return id, ok
}
