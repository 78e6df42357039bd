package sim

// SyncFlags controls how a field is replicated, predicted and
// lag-compensated.
type SyncFlags uint8

const (
	// SyncNone marks a field local to one side, never placed on the wire.
	SyncNone SyncFlags = 0
	// SyncReplicated marks a field sent from server to clients.
	SyncReplicated SyncFlags = 1 << 0
	// SyncAlwaysRollback forces IsPredicted regardless of the other two
	// prediction bits: the field always maintains a separate predicted slot.
	SyncAlwaysRollback SyncFlags = 1 << 1
	// SyncOnlyForOtherPlayers marks a field only ever rolled back for
	// entities other than the client's own controller; combined with
	// SyncNeverRollBack clear, this is the common "remote player" case.
	SyncOnlyForOtherPlayers SyncFlags = 1 << 2
	// SyncNeverRollBack forces IsPredicted false unless SyncAlwaysRollback
	// is also set: the field then always reads and writes the fixed slot.
	SyncNeverRollBack SyncFlags = 1 << 3
	// SyncLagCompensated marks a field recorded into the per-entity history
	// ring buffer for rewind-based lag compensation.
	SyncLagCompensated SyncFlags = 1 << 4
	// SyncChangeNotification marks a field whose writes should also invoke
	// the owning entity's optional OnFieldChanged callback.
	SyncChangeNotification SyncFlags = 1 << 5
)

// EntityFieldInfo describes one field of a registered class: its identity,
// its synchronization behaviour, and the accessor closures the core uses to
// read and write it without depending on the field's concrete Go type.
//
// FixedOffset/PredictedOffset in the source protocol are raw struct byte
// offsets into a fixed slot and a predicted slot; here the same two-slot
// contract is expressed as four accessor closures bound to the field's
// concrete storage when the class is registered.
type EntityFieldInfo struct {
	// ID is the field's identifier, stable across registrations of the same
	// class and stable across the wire (collaborator concern; not enforced
	// here).
	ID uint16
	// Name is the field's declared name, used only for logging/diagnostics.
	Name string
	// Flags controls replication, prediction, lag-compensation eligibility
	// and change notification.
	Flags SyncFlags
	// ValueType names the registered ValueTypeProcessor used to interpolate
	// and diff this field's values. Empty means the field is never
	// interpolated (discrete/opaque values).
	ValueType string

	// Get reads the authoritative ("fixed") slot.
	Get func(entity InternalEntity) any
	// Set writes the authoritative ("fixed") slot.
	Set func(entity InternalEntity, value any)
	// GetPredicted reads the prediction slot. Nil when IsPredicted() is
	// false for every field of this class.
	GetPredicted func(entity InternalEntity) any
	// SetPredicted writes the prediction slot. Nil when IsPredicted() is
	// false for every field of this class.
	SetPredicted func(entity InternalEntity, value any)

	isPredicted bool
}

// NewFieldInfo constructs an EntityFieldInfo, deriving IsPredicted from
// Flags as AlwaysRollback OR (NOT OnlyForOtherPlayers AND NOT
// NeverRollBack). Pass nil getPredicted/setPredicted when the derived value
// is false.
func NewFieldInfo(id uint16, name string, flags SyncFlags, valueType string,
	get func(InternalEntity) any, set func(InternalEntity, any),
	getPredicted func(InternalEntity) any, setPredicted func(InternalEntity, any),
) *EntityFieldInfo {
	predicted := flags&SyncAlwaysRollback != 0 ||
		(flags&SyncOnlyForOtherPlayers == 0 && flags&SyncNeverRollBack == 0)
	return &EntityFieldInfo{
		ID:           id,
		Name:         name,
		Flags:        flags,
		ValueType:    valueType,
		Get:          get,
		Set:          set,
		GetPredicted: getPredicted,
		SetPredicted: setPredicted,
		isPredicted:  predicted,
	}
}

// IsPredicted reports whether this field maintains a separate predicted
// slot, derived once at registration so hot-path field writes never
// re-evaluate the three contributing flag bits.
func (f *EntityFieldInfo) IsPredicted() bool { return f.isPredicted }

// IsReplicated reports whether this field is sent to clients at all.
func (f *EntityFieldInfo) IsReplicated() bool {
	return f.Flags&SyncReplicated != 0
}

// IsLagCompensated reports whether this field is recorded into rewind
// history.
func (f *EntityFieldInfo) IsLagCompensated() bool {
	return f.Flags&SyncLagCompensated != 0
}

// HasChangeNotification reports whether writes to this field should also
// invoke the owning entity's OnFieldChanged callback (only meaningful when
// the entity's concrete type implements fieldChangeNotifiable).
func (f *EntityFieldInfo) HasChangeNotification() bool {
	return f.Flags&SyncChangeNotification != 0
}
