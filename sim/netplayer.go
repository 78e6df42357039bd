package sim

import "github.com/google/uuid"

// NetPlayer is the collaborator contract for whatever owns a connection:
// the core never opens sockets itself, but needs to correlate a
// ControllerLogic entity with a wire-level player id byte and, for lag
// compensation, the server tick the player's last input was simulated
// against.
type NetPlayer interface {
	// PlayerId is the single-byte wire identity, ServerPlayerId on the
	// server's own loopback controller, 1..MaxPlayers otherwise.
	PlayerId() byte
	// SimulatedServerTick is the server tick the player last observed when
	// they issued the action being lag-compensated (e.g. a hit-detection
	// shot), used by EnableLagCompensation to pick which rewind snapshot to
	// restore.
	SimulatedServerTick() uint16
	// CorrelationID is a log-only identity stable across reconnects,
	// independent of the transient PlayerId byte a reconnect may reassign.
	CorrelationID() uuid.UUID
}

// BasicNetPlayer is a minimal NetPlayer usable directly by tests and
// cmd/demo, mirroring the teacher's practice of keying its online-player
// table by uuid.UUID (server/conf.go) rather than inventing a bespoke id
// type for this purpose.
type BasicNetPlayer struct {
	id                  byte
	simulatedServerTick uint16
	correlationID       uuid.UUID
}

// NewBasicNetPlayer constructs a BasicNetPlayer with a freshly generated
// correlation id.
func NewBasicNetPlayer(id byte) *BasicNetPlayer {
	return &BasicNetPlayer{id: id, correlationID: uuid.New()}
}

func (p *BasicNetPlayer) PlayerId() byte { return p.id }

// SimulatedServerTick returns the tick last set by SetSimulatedServerTick.
func (p *BasicNetPlayer) SimulatedServerTick() uint16 { return p.simulatedServerTick }

// SetSimulatedServerTick records the server tick the player's latest input
// was observed against, for the next EnableLagCompensation call.
func (p *BasicNetPlayer) SetSimulatedServerTick(tick uint16) { p.simulatedServerTick = tick }

func (p *BasicNetPlayer) CorrelationID() uuid.UUID { return p.correlationID }
