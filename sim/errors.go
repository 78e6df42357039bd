package sim

import "errors"

// Sentinel errors returned by the core. Callers should use errors.Is, since
// most are wrapped with additional context via fmt.Errorf.
var (
	// ErrInvalidEntityId is returned when an EntityId falls outside
	// [1, MaxEntityCount] or is InvalidEntityId where a live id is required.
	ErrInvalidEntityId = errors.New("sim: invalid entity id")
	// ErrUnregisteredClass is returned when a ClassId has no corresponding
	// registered class.
	ErrUnregisteredClass = errors.New("sim: unregistered class id")
	// ErrUnregisteredType is returned when a Go type argument to a generic
	// query has no corresponding FilterId, meaning it was never named by a
	// ClassDescriptor's GoType or AncestorTypes.
	ErrUnregisteredType = errors.New("sim: unregistered entity type")
	// ErrInvalidClassDescriptor is returned when a ClassDescriptor is
	// missing required fields (GoType, Construct).
	ErrInvalidClassDescriptor = errors.New("sim: invalid class descriptor")
	// ErrDuplicateClass is returned when two descriptors share a GoType.
	ErrDuplicateClass = errors.New("sim: duplicate class descriptor")
	// ErrLagCompensationNotAllowed is returned when a non-KindEntity class
	// descriptor declares a nonzero LagCompensatedCount.
	ErrLagCompensationNotAllowed = errors.New("sim: lag compensation not allowed for this entity kind")
	// ErrEntitySlotOccupied is returned by AddEntity when the requested id
	// already holds a live entity.
	ErrEntitySlotOccupied = errors.New("sim: entity slot already occupied")
	// ErrStoreFull is returned when no id remains in the requested range.
	ErrStoreFull = errors.New("sim: entity store full")
	// ErrSingletonAlreadyExists is returned when constructing a second
	// instance of a singleton class without first destroying the first.
	ErrSingletonAlreadyExists = errors.New("sim: singleton already exists")
	// ErrHeaderCheckFailed is returned by a collaborator decoder (defined
	// here for the shared contract) when a peer's RegistryFingerprint does
	// not match the local registry.
	ErrHeaderCheckFailed = errors.New("sim: registry fingerprint mismatch")
	// ErrDecode is returned by a collaborator decoder on malformed input.
	ErrDecode = errors.New("sim: decode failed")
)
