package sim

import "reflect"

// Test entity types and descriptors shared across the sim package's test
// files. Kept deliberately minimal: just enough fields to exercise field
// accessors, lag compensation, the alive predicate and ancestor fan-out.

// markerLiving, markerDamageable and markerPlayerControlled model a small
// ancestor chain: a concrete class can declare any subset of these in its
// AncestorTypes to appear in the corresponding polymorphic query.
type markerLiving interface {
	InternalEntity
	living()
}

type markerDamageable interface {
	markerLiving
	damageable()
}

// testCreature is a plain world entity: non-singleton, updateable, with one
// lag-compensated field (Health) and one non-lag-compensated field (Name).
type testCreature struct {
	EntityLogic

	Health      float32
	Name        string
	changes     []uint16
	constructed bool
	destroyed   bool
}

func (*testCreature) living()     {}
func (*testCreature) damageable() {}

func (c *testCreature) OnConstructed()     { c.constructed = true }
func (c *testCreature) OnEntityDestroyed() { c.destroyed = true }
func (c *testCreature) OnFieldChanged(fieldID uint16, _ any) {
	c.changes = append(c.changes, fieldID)
}

func newTestCreature(EntityParams) InternalEntity { return &testCreature{} }

func testCreatureHealthField() *EntityFieldInfo {
	return NewFieldInfo(0, "Health", SyncReplicated|SyncLagCompensated|SyncChangeNotification, "",
		func(e InternalEntity) any { return e.(*testCreature).Health },
		func(e InternalEntity, v any) { e.(*testCreature).Health = v.(float32) },
		nil, nil,
	)
}

func testCreatureNameField() *EntityFieldInfo {
	return NewFieldInfo(1, "Name", SyncReplicated, "",
		func(e InternalEntity) any { return e.(*testCreature).Name },
		func(e InternalEntity, v any) { e.(*testCreature).Name = v.(string) },
		nil, nil,
	)
}

func testCreatureDescriptor() *ClassDescriptor {
	return &ClassDescriptor{
		Name:                "Creature",
		GoType:              reflect.TypeFor[*testCreature](),
		AncestorTypes:       []reflect.Type{reflect.TypeFor[markerDamageable](), reflect.TypeFor[markerLiving]()},
		Kind:                KindEntity,
		Flags:               FlagUpdateable,
		Construct:           newTestCreature,
		Fields:              []*EntityFieldInfo{testCreatureHealthField(), testCreatureNameField()},
		LagCompensatedCount: 1,
	}
}

// testProp is a world entity whose non-local instances are never
// alive-predicate-eligible on a client unless the descriptor also sets
// UpdateOnClient, used to exercise the invariant-3 split
// between Server/IsLocal/UpdateOnClient.
type testProp struct {
	EntityLogic
}

func newTestProp(EntityParams) InternalEntity { return &testProp{} }

func testPropDescriptor(updateOnClient bool) *ClassDescriptor {
	flags := FlagUpdateable
	if updateOnClient {
		flags |= FlagUpdateOnClient
	}
	return &ClassDescriptor{
		Name:      "Prop",
		GoType:    reflect.TypeFor[*testProp](),
		Kind:      KindEntity,
		Flags:     flags,
		Construct: newTestProp,
	}
}

// testWorldSingleton is a singleton class, local-only in most tests, used to
// exercise GetSingleton and the local-singleton Update hooks.
type testWorldSingleton struct {
	SingletonEntityLogic

	visualCalls int
	logicCalls  int
}

func (w *testWorldSingleton) VisualUpdate(float64) { w.visualCalls++ }
func (w *testWorldSingleton) LogicUpdate()         { w.logicCalls++ }

func newTestWorldSingleton(EntityParams) InternalEntity { return &testWorldSingleton{} }

func testWorldSingletonDescriptor() *ClassDescriptor {
	return &ClassDescriptor{
		Name:      "World",
		GoType:    reflect.TypeFor[*testWorldSingleton](),
		Kind:      KindSingleton,
		Flags:     FlagUpdateable,
		Construct: newTestWorldSingleton,
	}
}

// testController is a player controller entity, used to exercise
// GetControllers and the reserved ControllerLogic filter fan-out.
type testController struct {
	ControllerLogic

	Score int
}

func newTestController(EntityParams) InternalEntity { return &testController{} }

func testControllerDescriptor() *ClassDescriptor {
	return &ClassDescriptor{
		Name:      "Controller",
		GoType:    reflect.TypeFor[*testController](),
		Kind:      KindController,
		Flags:     FlagUpdateable,
		Construct: newTestController,
	}
}

// recordingHooks is a minimal RoleHooks implementation recording every call
// for assertions.
type recordingHooks struct {
	logicTicks   int
	fieldChanges []recordedFieldChange
	aliveAdded   []InternalEntity
}

type recordedFieldChange struct {
	entity  InternalEntity
	fieldID uint16
	value   any
}

func (h *recordingHooks) OnLogicTick(*Manager) { h.logicTicks++ }

func (h *recordingHooks) EntityFieldChanged(entity InternalEntity, fieldID uint16, value any) {
	h.fieldChanges = append(h.fieldChanges, recordedFieldChange{entity, fieldID, value})
}

func (h *recordingHooks) OnAliveEntityAdded(entity InternalEntity) {
	h.aliveAdded = append(h.aliveAdded, entity)
}
