package sim

// EntityKind classifies how an entity's class participates in the lifecycle
// views (filters, singleton slots, lag compensation). It is assigned from
// class-registration data, not derived from a Go type at runtime, since Go
// has no classical inheritance to inspect.
type EntityKind uint8

const (
	// KindEntity is a non-controller, world-replicable entity. It may be
	// lag-compensated.
	KindEntity EntityKind = iota
	// KindController is a player controller entity; it always has a
	// FilterId and is never lag-compensated.
	KindController
	// KindSingleton is an entity of which at most one instance exists per
	// class, stored in a singleton slot instead of a filter.
	KindSingleton
)

// InternalEntity is the abstract base every entity subtype implements. It
// carries identity (Id, Version, ClassId) and lifecycle flags.
type InternalEntity interface {
	// Base returns the common header embedded by every concrete entity
	// type, giving the core access to identity and lifecycle state without
	// reflecting on the concrete type.
	Base() *EntityBase
}

// EntityParams carries the spawn-time parameters for AddEntity. Id
// allocation is the responsibility of the role specialization (server
// assigns synced ids, client assigns local ids); the core only range- and
// version-checks what it is given.
type EntityParams struct {
	Id       EntityId
	ClassId  ClassId
	IsLocal  bool
	PlayerId byte
}

// EntityConstructor builds a concrete InternalEntity from spawn parameters.
// It is supplied per class by the type-map collaborator (see ClassDescriptor).
type EntityConstructor func(params EntityParams) InternalEntity

// EntityBase is the common header embedded by EntityLogic, ControllerLogic
// and SingletonEntityLogic. It is the Go rendition of spec's "enum of
// concrete entity variants with a common header trait".
type EntityBase struct {
	id        EntityId
	version   Version
	classID   ClassId
	kind      EntityKind
	isLocal   bool
	destroyed bool
}

// Base implements InternalEntity.
func (b *EntityBase) Base() *EntityBase { return b }

// ID returns the entity's slot id.
func (b *EntityBase) ID() EntityId { return b.id }

// EntityVersion returns the entity's generation, distinguishing it from
// earlier occupants of the same id.
func (b *EntityBase) EntityVersion() Version { return b.version }

// ClassID returns the entity's registered class.
func (b *EntityBase) ClassID() ClassId { return b.classID }

// Kind reports whether this is a plain entity, a controller, or a
// singleton, as declared at class registration.
func (b *EntityBase) Kind() EntityKind { return b.kind }

// IsLocal reports whether the entity is local to this side only (not
// synchronized over the network).
func (b *EntityBase) IsLocal() bool { return b.isLocal }

// IsDestroyed reports whether DestroyInternal has been called for this
// entity. A destroyed entity may still be indexable until RemoveEntity runs.
func (b *EntityBase) IsDestroyed() bool { return b.destroyed }

// Ref returns the stable handle resolving back to this exact entity
// generation.
func (b *EntityBase) Ref() EntitySharedReference {
	return EntitySharedReference{Id: b.id, Version: b.version}
}

func (b *EntityBase) init(id EntityId, version Version, classID ClassId, kind EntityKind, isLocal bool) {
	b.id = id
	b.version = version
	b.classID = classID
	b.kind = kind
	b.isLocal = isLocal
	b.destroyed = false
}

// EntityLogic is the base embedded by non-controller, world-replicable
// entities. Instances of classes descending from EntityLogic are eligible
// for lag compensation when their class declares a positive
// LagCompensatedCount.
type EntityLogic struct {
	EntityBase
}

// ControllerLogic is the base embedded by entities representing a player's
// controller. Controller classes always receive a FilterId, preassigned at
// FilterId 0 for the abstract base itself.
type ControllerLogic struct {
	EntityBase
}

// SingletonEntityLogic is the base embedded by entities of which at most one
// instance exists per class. Singleton instances are stored in a dedicated
// slot rather than a filter.
type SingletonEntityLogic struct {
	EntityBase
}

// OnConstructedHook is implemented by entities that want a callback once
// they have been fully inserted into all applicable views, before alive/lag
// set membership is computed.
type OnConstructedHook interface {
	OnConstructed()
}

// OnDestroyedHook is implemented by entities that want a callback once they
// have been marked destroyed and removed from all views.
type OnDestroyedHook interface {
	OnEntityDestroyed()
}

// fieldChangeNotifiable is implemented by entities whose class declares at
// least one field with HasChangeNotification set.
type fieldChangeNotifiable interface {
	OnFieldChanged(fieldID uint16, newValue any)
}

// VisualUpdater is an optional interface for local singleton entities that
// want a callback on every Update call (not just on fixed logic ticks).
type VisualUpdater interface {
	VisualUpdate(deltaSeconds float64)
}

// LogicUpdater is an optional interface for local singleton entities that
// want a callback immediately before OnLogicTick on every fixed tick.
type LogicUpdater interface {
	LogicUpdate()
}
