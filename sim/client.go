package sim

import (
	"log/slog"
	"time"
)

// ClientManager is a predicting simulation: it allocates local (non-synced)
// ids for entities the server has not yet acknowledged, and can replay
// fixed ticks under rollback to reconcile a late server snapshot against
// locally predicted state.
type ClientManager struct {
	*Manager

	localPlayer NetPlayer
}

// NewClientManager constructs a ClientManager over registry, ticking at
// tickRate and retaining up to maxHistorySize lag-compensation snapshots
// per entity (used for rewind during rollback replay rather than
// server-side lag compensation of remote players).
func NewClientManager(registry *ClassRegistry, tickRate time.Duration, maxHistorySize int, hooks RoleHooks, log *slog.Logger) *ClientManager {
	return &ClientManager{
		Manager: NewManager(ModeClient, registry, tickRate, maxHistorySize, hooks, log),
	}
}

// SetLocalPlayer records which NetPlayer this client instance predicts for.
func (c *ClientManager) SetLocalPlayer(p NetPlayer) { c.localPlayer = p }

// LocalPlayer returns the NetPlayer previously set by SetLocalPlayer.
func (c *ClientManager) LocalPlayer() (NetPlayer, bool) {
	return c.localPlayer, c.localPlayer != nil
}

// PlayerId overrides Manager.PlayerId, returning the local player's wire id
// once SetLocalPlayer has been called, or ServerPlayerId beforehand.
func (c *ClientManager) PlayerId() byte {
	if c.localPlayer == nil {
		return ServerPlayerId
	}
	return c.localPlayer.PlayerId()
}

// Reconcile replays ticksToReplay fixed ticks in rollback state, starting
// from the manager's current entity state (assumed already rewound to the
// server's last acknowledged snapshot by the caller), then restores normal
// (non-rollback) state. This is the client-side prediction reconciliation
// loop named in spec.md §9: predicted fields diverge from fixed fields only
// for the duration of the replay.
func (c *ClientManager) Reconcile(ticksToReplay int) {
	c.SetRollbackState(true)
	defer c.SetRollbackState(false)
	for i := 0; i < ticksToReplay; i++ {
		c.hooks.OnLogicTick(c.Manager)
	}
}
