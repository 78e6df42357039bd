package sim

// Wire-format constants fixed by the replication protocol.
const (
	// InvalidEntityId is the reserved id meaning "no entity".
	InvalidEntityId EntityId = 0
	// MaxSyncedEntityCount bounds the id range handed out to entities
	// replicated over the network: [1, MaxSyncedEntityCount].
	MaxSyncedEntityCount = 8192
	// MaxEntityCount bounds the whole id space, synced and local:
	// local (non-synced) ids occupy (MaxSyncedEntityCount, MaxEntityCount].
	MaxEntityCount = 16384
	// ServerPlayerId is the player id reserved for the server itself.
	ServerPlayerId byte = 0
	// MaxPlayers is the largest number of distinct players a NetPlayer id
	// byte can address (ServerPlayerId excluded).
	MaxPlayers = 254
	// MaxParts bounds the number of parts a single entity may be split
	// into for delta encoding purposes (collaborator contract only).
	MaxParts = 256
	// MaxSavedStateDiff bounds how many historical snapshots a client may
	// keep for prediction reconciliation (collaborator contract only).
	MaxSavedStateDiff = 30
	// MaxTicksPerUpdate caps the number of fixed logic ticks a single
	// Update call may fire, bounding stall-recovery work.
	MaxTicksPerUpdate = 5
	// TimeSpeedChangeCoef is the default coefficient applied to the clock
	// slowdown window used to slew SpeedMultiplier.
	TimeSpeedChangeCoef = 0.1
)

// EntityId identifies an entity slot. 0 is reserved as invalid. Ids in
// [1, MaxSyncedEntityCount] are synced over the network; ids in
// (MaxSyncedEntityCount, MaxEntityCount] are local to one side only.
type EntityId uint16

// Version distinguishes successive occupants of the same EntityId. It
// increases monotonically every time an id is reused so that a stale
// EntitySharedReference never resolves to a live entity of a later
// generation.
type Version uint32

// ClassId uniquely identifies a registered entity subtype.
type ClassId uint16

// FilterId identifies a queryable view: either a non-singleton filter or a
// singleton slot. The two kinds are numbered from separate dense counters,
// so FilterId values are only comparable within the same kind.
type FilterId uint16

// IsSyncedId reports whether id falls in the network-synced range.
func IsSyncedId(id EntityId) bool {
	return id >= 1 && id <= MaxSyncedEntityCount
}

// IsLocalId reports whether id falls in the local-only range.
func IsLocalId(id EntityId) bool {
	return id > MaxSyncedEntityCount && id <= MaxEntityCount
}

// EntitySharedReference is a stable handle to an entity that survives across
// ticks and across the network. It resolves to a live entity only when the
// entity currently stored at Id has the same Version; a stale reference
// (pointing at a destroyed-and-reused id) resolves to none.
type EntitySharedReference struct {
	Id      EntityId
	Version Version
}

// IsInvalid reports whether the reference is the zero/invalid reference.
func (r EntitySharedReference) IsInvalid() bool {
	return r.Id == InvalidEntityId
}
