package sim

import (
	"fmt"
	"log/slog"
	"time"
)

// ServerManager is the authoritative simulation. It owns id allocation for
// the synced range and never enters rollback.
type ServerManager struct {
	*Manager

	nextSyncedID EntityId
	players      map[byte]NetPlayer
}

// NewServerManager constructs a ServerManager over registry, ticking at
// tickRate and retaining up to maxHistorySize lag-compensation snapshots
// per entity.
func NewServerManager(registry *ClassRegistry, tickRate time.Duration, maxHistorySize int, hooks RoleHooks, log *slog.Logger) *ServerManager {
	return &ServerManager{
		Manager:      NewManager(ModeServer, registry, tickRate, maxHistorySize, hooks, log),
		nextSyncedID: 1,
		players:      map[byte]NetPlayer{},
	}
}

// Spawn allocates the next synced EntityId and constructs an entity of
// classID there. Use AddEntity directly instead when the caller must pick
// a specific id (e.g. replaying a client-predicted spawn at a known id).
func (s *ServerManager) Spawn(classID ClassId) (InternalEntity, error) {
	for attempts := 0; attempts < MaxSyncedEntityCount; attempts++ {
		id := s.nextSyncedID
		s.nextSyncedID++
		if s.nextSyncedID > MaxSyncedEntityCount {
			s.nextSyncedID = 1
		}
		if _, occupied := s.store.getAlive(id); occupied {
			continue
		}
		return s.AddEntity(id, classID, false)
	}
	return nil, fmt.Errorf("sim: Spawn class %d: %w", classID, ErrStoreFull)
}

// AttachPlayer associates a NetPlayer with its wire-level PlayerId for
// controller/player-id correlation lookups.
func (s *ServerManager) AttachPlayer(p NetPlayer) {
	s.players[p.PlayerId()] = p
}

// DetachPlayer removes a previously attached NetPlayer.
func (s *ServerManager) DetachPlayer(id byte) {
	delete(s.players, id)
}

// Player looks up a previously attached NetPlayer by wire id.
func (s *ServerManager) Player(id byte) (NetPlayer, bool) {
	p, ok := s.players[id]
	return p, ok
}
