package sim

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func newRegistry(t *testing.T, descriptors ...*ClassDescriptor) *ClassRegistry {
	t.Helper()
	r := NewClassRegistry()
	if err := r.Register(descriptors); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return r
}

func TestAddEntityLifecycleAndResolve(t *testing.T) {
	desc := testCreatureDescriptor()
	registry := newRegistry(t, desc)
	hooks := &recordingHooks{}
	m := NewManager(ModeServer, registry, time.Second/30, 4, hooks, nil)

	class, ok := registry.ClassByGoType(reflect.TypeFor[*testCreature]())
	if !ok {
		t.Fatalf("class not registered")
	}

	entity, err := m.AddEntity(1, class.ClassId, false)
	if err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	creature := entity.(*testCreature)
	if !creature.constructed {
		t.Fatalf("OnConstructed was not invoked")
	}
	if m.EntitiesCount() != 1 {
		t.Fatalf("EntitiesCount = %d, want 1", m.EntitiesCount())
	}
	ref := entity.Base().Ref()
	resolved, ok := GetEntityById[*testCreature](m, ref)
	if !ok || resolved != creature {
		t.Fatalf("GetEntityById did not resolve the just-added entity")
	}
	if len(hooks.aliveAdded) != 1 || hooks.aliveAdded[0] != entity {
		t.Fatalf("OnAliveEntityAdded not fired once for the new entity")
	}

	if err := m.DestroyEntity(1); err != nil {
		t.Fatalf("DestroyEntity: %v", err)
	}
	if !creature.destroyed {
		t.Fatalf("OnEntityDestroyed was not invoked")
	}
	if m.EntitiesCount() != 0 {
		t.Fatalf("EntitiesCount after destroy = %d, want 0", m.EntitiesCount())
	}
	if _, ok := GetEntityById[*testCreature](m, ref); ok {
		t.Fatalf("destroyed entity still resolves via GetEntityById")
	}
	if _, ok := m.GetEntity(1); !ok {
		t.Fatalf("destroyed-but-not-removed entity should still be visible via GetEntity")
	}

	m.RemoveEntity(1)
	if _, ok := m.GetEntity(1); ok {
		t.Fatalf("removed entity still visible via GetEntity")
	}

	second, err := m.AddEntity(1, class.ClassId, false)
	if err != nil {
		t.Fatalf("AddEntity (reuse): %v", err)
	}
	secondRef := second.Base().Ref()
	if secondRef.Version == ref.Version {
		t.Fatalf("reused id did not receive a later version: old=%d new=%d", ref.Version, secondRef.Version)
	}
	if _, ok := m.ResolveReference(ref); ok {
		t.Fatalf("stale reference resolved against the new generation")
	}
	if _, ok := m.ResolveReference(secondRef); !ok {
		t.Fatalf("current reference failed to resolve")
	}
}

func TestAncestorFanOutQuery(t *testing.T) {
	desc := testCreatureDescriptor()
	registry := newRegistry(t, desc)
	m := NewManager(ModeServer, registry, time.Second/30, 0, &recordingHooks{}, nil)

	class, _ := registry.ClassByGoType(reflect.TypeFor[*testCreature]())
	entity, err := m.AddEntity(1, class.ClassId, false)
	if err != nil {
		t.Fatalf("AddEntity: %v", err)
	}

	own := GetEntities[*testCreature](m)
	if len(own) != 1 || own[0] != entity {
		t.Fatalf("GetEntities[*testCreature] = %v, want [entity]", own)
	}
	living := GetEntities[markerLiving](m)
	if len(living) != 1 {
		t.Fatalf("GetEntities[markerLiving] len = %d, want 1", len(living))
	}
	damageable := GetEntities[markerDamageable](m)
	if len(damageable) != 1 {
		t.Fatalf("GetEntities[markerDamageable] len = %d, want 1", len(damageable))
	}

	if err := m.DestroyEntity(1); err != nil {
		t.Fatalf("DestroyEntity: %v", err)
	}
	if living := GetEntities[markerLiving](m); len(living) != 0 {
		t.Fatalf("GetEntities[markerLiving] after destroy = %v, want empty", living)
	}
}

func TestSingletonLifecycle(t *testing.T) {
	desc := testWorldSingletonDescriptor()
	registry := newRegistry(t, desc)
	m := NewManager(ModeServer, registry, time.Second/30, 0, &recordingHooks{}, nil)
	class, _ := registry.ClassByGoType(reflect.TypeFor[*testWorldSingleton]())

	if _, ok := GetSingleton[*testWorldSingleton](m); ok {
		t.Fatalf("singleton present before any was added")
	}

	first, err := m.AddEntity(1, class.ClassId, true)
	if err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	got, ok := GetSingleton[*testWorldSingleton](m)
	if !ok || got != first {
		t.Fatalf("GetSingleton did not return the added instance")
	}
	if !HasSingleton[*testWorldSingleton](m) {
		t.Fatalf("HasSingleton false with an instance present")
	}

	if _, err := m.AddEntity(2, class.ClassId, true); !errors.Is(err, ErrSingletonAlreadyExists) {
		t.Fatalf("AddEntity second singleton: err = %v, want ErrSingletonAlreadyExists", err)
	}

	if err := m.DestroyEntity(1); err != nil {
		t.Fatalf("DestroyEntity: %v", err)
	}
	if _, ok := GetSingleton[*testWorldSingleton](m); ok {
		t.Fatalf("singleton still resolves after destroy")
	}

	second, err := m.AddEntity(2, class.ClassId, true)
	if err != nil {
		t.Fatalf("AddEntity after freeing singleton slot: %v", err)
	}
	if got, ok := GetSingleton[*testWorldSingleton](m); !ok || got != second {
		t.Fatalf("GetSingleton did not pick up the replacement instance")
	}
}

func TestAlivePredicateServerVsClient(t *testing.T) {
	// testProp is registered under the same GoType in three independent
	// registries (one per manager below) since a single registry cannot
	// hold two descriptors for the same concrete type.
	serverRegistry := newRegistry(t, testPropDescriptor(false))
	server := NewManager(ModeServer, serverRegistry, time.Second/30, 0, &recordingHooks{}, nil)
	serverClass, _ := serverRegistry.ClassByGoType(reflect.TypeFor[*testProp]())
	remote, err := server.AddEntity(1, serverClass.ClassId, false)
	if err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	if !server.IsEntityAlive(remote) {
		t.Fatalf("non-local entity on a server manager should be alive")
	}

	clientPlainRegistry := newRegistry(t, testPropDescriptor(false))
	clientPlain := NewManager(ModeClient, clientPlainRegistry, time.Second/30, 0, &recordingHooks{}, nil)
	plainClass, _ := clientPlainRegistry.ClassByGoType(reflect.TypeFor[*testProp]())
	remoteOnClient, err := clientPlain.AddEntity(1, plainClass.ClassId, false)
	if err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	if clientPlain.IsEntityAlive(remoteOnClient) {
		t.Fatalf("non-local, non-UpdateOnClient entity should not be alive on a client")
	}
	local, err := clientPlain.AddEntity(2, plainClass.ClassId, true)
	if err != nil {
		t.Fatalf("AddEntity local: %v", err)
	}
	if !clientPlain.IsEntityAlive(local) {
		t.Fatalf("local entity should be alive on a client regardless of UpdateOnClient")
	}

	clientLiveRegistry := newRegistry(t, testPropDescriptor(true))
	clientLive := NewManager(ModeClient, clientLiveRegistry, time.Second/30, 0, &recordingHooks{}, nil)
	liveClass, _ := clientLiveRegistry.ClassByGoType(reflect.TypeFor[*testProp]())
	remoteLive, err := clientLive.AddEntity(1, liveClass.ClassId, false)
	if err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	if !clientLive.IsEntityAlive(remoteLive) {
		t.Fatalf("non-local UpdateOnClient entity should be alive on a client")
	}
}

func TestFieldAccessAndChangeNotification(t *testing.T) {
	desc := testCreatureDescriptor()
	registry := newRegistry(t, desc)
	hooks := &recordingHooks{}
	m := NewManager(ModeServer, registry, time.Second/30, 0, hooks, nil)
	class, _ := registry.ClassByGoType(reflect.TypeFor[*testCreature]())
	entity, err := m.AddEntity(1, class.ClassId, false)
	if err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	creature := entity.(*testCreature)
	healthField, nameField := desc.Fields[0], desc.Fields[1]

	SetField(m, entity, healthField, float32(12.5))
	if creature.Health != 12.5 {
		t.Fatalf("Health = %v, want 12.5", creature.Health)
	}
	if got := GetField[float32](m, entity, healthField); got != 12.5 {
		t.Fatalf("GetField = %v, want 12.5", got)
	}
	if len(hooks.fieldChanges) != 1 || hooks.fieldChanges[0].fieldID != healthField.ID {
		t.Fatalf("EntityFieldChanged not recorded for Health write")
	}
	if len(creature.changes) != 1 || creature.changes[0] != healthField.ID {
		t.Fatalf("OnFieldChanged not invoked for a change-notification field")
	}

	SetField(m, entity, nameField, "Boar")
	if creature.Name != "Boar" {
		t.Fatalf("Name = %q, want Boar", creature.Name)
	}
	if len(creature.changes) != 1 {
		t.Fatalf("OnFieldChanged fired for a field without SyncChangeNotification")
	}
	if len(hooks.fieldChanges) != 2 {
		t.Fatalf("EntityFieldChanged should fire unconditionally, got %d calls", len(hooks.fieldChanges))
	}
}

type lagHistoryHooks struct {
	field *EntityFieldInfo
}

func (h *lagHistoryHooks) OnLogicTick(m *Manager) {
	e, ok := m.GetEntity(1)
	if !ok {
		return
	}
	SetField(m, e, h.field, float32(m.Tick()))
}

func (h *lagHistoryHooks) EntityFieldChanged(InternalEntity, uint16, any) {}

func TestLagCompensationEnableDisable(t *testing.T) {
	desc := testCreatureDescriptor()
	registry := newRegistry(t, desc)
	hooks := &lagHistoryHooks{field: desc.Fields[0]}
	m := NewManager(ModeServer, registry, 10*time.Millisecond, 8, hooks, nil)
	class, _ := registry.ClassByGoType(reflect.TypeFor[*testCreature]())

	entity, err := m.AddEntity(1, class.ClassId, false)
	if err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	creature := entity.(*testCreature)

	m.Update(0) // prime the clock
	for i := 0; i < 5; i++ {
		m.Update(10 * time.Millisecond)
	}
	if m.Tick() != 5 {
		t.Fatalf("Tick = %d, want 5", m.Tick())
	}
	if creature.Health != 4 {
		t.Fatalf("Health after 5 ticks = %v, want 4 (last pre-increment tick value)", creature.Health)
	}

	player := NewBasicNetPlayer(1)
	player.SetSimulatedServerTick(2)
	if err := m.EnableLagCompensation(player); err != nil {
		t.Fatalf("EnableLagCompensation: %v", err)
	}
	if creature.Health != 2 {
		t.Fatalf("Health rewound = %v, want 2", creature.Health)
	}

	// A second enable before disable must be a no-op (idempotent guard).
	if err := m.EnableLagCompensation(player); err != nil {
		t.Fatalf("second EnableLagCompensation: %v", err)
	}
	if creature.Health != 2 {
		t.Fatalf("Health changed across a redundant enable: %v", creature.Health)
	}

	if err := m.DisableLagCompensation(); err != nil {
		t.Fatalf("DisableLagCompensation: %v", err)
	}
	if creature.Health != 4 {
		t.Fatalf("Health after disable = %v, want restored 4", creature.Health)
	}

	if err := m.DisableLagCompensation(); err != nil {
		t.Fatalf("redundant DisableLagCompensation: %v", err)
	}
	if creature.Health != 4 {
		t.Fatalf("Health changed across a redundant disable: %v", creature.Health)
	}
}

func TestClientLagCompensationNoopOutsideRollback(t *testing.T) {
	desc := testCreatureDescriptor()
	registry := newRegistry(t, desc)
	hooks := &lagHistoryHooks{field: desc.Fields[0]}
	m := NewManager(ModeClient, registry, 10*time.Millisecond, 8, hooks, nil)
	class, _ := registry.ClassByGoType(reflect.TypeFor[*testCreature]())

	entity, err := m.AddEntity(1, class.ClassId, false)
	if err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	creature := entity.(*testCreature)
	m.Update(0)
	for i := 0; i < 3; i++ {
		m.Update(10 * time.Millisecond)
	}
	before := creature.Health

	player := NewBasicNetPlayer(0)
	player.SetSimulatedServerTick(0)
	if err := m.EnableLagCompensation(player); err != nil {
		t.Fatalf("EnableLagCompensation: %v", err)
	}
	if creature.Health != before {
		t.Fatalf("client manager outside rollback rewound fields: %v != %v", creature.Health, before)
	}
}

func TestResetIsIdempotentAndClearsState(t *testing.T) {
	desc := testCreatureDescriptor()
	registry := newRegistry(t, desc)
	m := NewManager(ModeServer, registry, time.Second/30, 4, &recordingHooks{}, nil)
	class, _ := registry.ClassByGoType(reflect.TypeFor[*testCreature]())

	first, err := m.AddEntity(1, class.ClassId, false)
	if err != nil {
		t.Fatalf("AddEntity: %v", err)
	}
	firstVersion := first.Base().EntityVersion()
	m.Update(0)
	m.Update(time.Second / 30)

	m.Reset()
	if m.EntitiesCount() != 0 {
		t.Fatalf("EntitiesCount after Reset = %d, want 0", m.EntitiesCount())
	}
	if m.Tick() != 0 {
		t.Fatalf("Tick after Reset = %d, want 0", m.Tick())
	}
	if m.IsRunning() {
		t.Fatalf("clock still running after Reset")
	}
	if len(GetEntities[*testCreature](m)) != 0 {
		t.Fatalf("filter not cleared by Reset")
	}

	m.Reset() // must not panic or error on an already-clean manager

	second, err := m.AddEntity(1, class.ClassId, false)
	if err != nil {
		t.Fatalf("AddEntity after Reset: %v", err)
	}
	if second.Base().EntityVersion() <= firstVersion {
		t.Fatalf("reused id after Reset did not get a later version: first=%d second=%d", firstVersion, second.Base().EntityVersion())
	}
}
