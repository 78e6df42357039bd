// Command demo runs a ServerManager and a ClientManager side by side in one
// process, each on its own tick loop. No state passes between them and
// the client never reconciles; the demo exercises class registration,
// entity spawning, lag-compensation setup and fixed ticks on both sides.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voxelnet/entitysim/sim"
)

// npc is a lag-compensated world entity: its Health is recorded into rewind
// history so a server could later rewind it for hit verification.
type npc struct {
	sim.EntityLogic

	Health float32
}

func newNPC(sim.EntityParams) sim.InternalEntity { return &npc{Health: 100} }

func npcDescriptor() *sim.ClassDescriptor {
	return &sim.ClassDescriptor{
		Name:      "NPC",
		GoType:    reflect.TypeFor[*npc](),
		Kind:      sim.KindEntity,
		Flags:     sim.FlagUpdateable,
		Construct: newNPC,
		Fields: []*sim.EntityFieldInfo{
			sim.NewFieldInfo(0, "Health", sim.SyncReplicated|sim.SyncLagCompensated, "",
				func(e sim.InternalEntity) any { return e.(*npc).Health },
				func(e sim.InternalEntity, v any) { e.(*npc).Health = v.(float32) },
				nil, nil,
			),
		},
		LagCompensatedCount: 1,
	}
}

// pawn is the player controller entity each connected player owns.
type pawn struct {
	sim.ControllerLogic

	X float32
}

func newPawn(sim.EntityParams) sim.InternalEntity { return &pawn{} }

func pawnDescriptor() *sim.ClassDescriptor {
	return &sim.ClassDescriptor{
		Name:      "Pawn",
		GoType:    reflect.TypeFor[*pawn](),
		Kind:      sim.KindController,
		Flags:     sim.FlagUpdateable | sim.FlagUpdateOnClient,
		Construct: newPawn,
	}
}

func classDescriptors() []*sim.ClassDescriptor {
	return []*sim.ClassDescriptor{npcDescriptor(), pawnDescriptor()}
}

// demoHooks drives logic ticks for both sides: it moves every pawn forward
// and logs the tick count.
type demoHooks struct {
	log *slog.Logger
	who string
}

func (h *demoHooks) OnLogicTick(m *sim.Manager) {
	for _, p := range sim.GetControllers[*pawn](m) {
		p.X++
	}
	if m.Tick()%30 == 0 {
		h.log.Info("tick", "side", h.who, "tick", m.Tick(), "pawns", len(sim.GetControllers[*pawn](m)))
	}
}

func (h *demoHooks) EntityFieldChanged(sim.InternalEntity, uint16, any) {}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverRegistry := sim.NewClassRegistry()
	if err := serverRegistry.Register(classDescriptors()); err != nil {
		log.Error("register server classes", "error", err)
		os.Exit(1)
	}
	clientRegistry := sim.NewClassRegistry()
	if err := clientRegistry.Register(classDescriptors()); err != nil {
		log.Error("register client classes", "error", err)
		os.Exit(1)
	}

	tickRate := time.Second / 30
	server := sim.NewServerManager(serverRegistry, tickRate, 64, &demoHooks{log: log, who: "server"}, log)
	client := sim.NewClientManager(clientRegistry, tickRate, 64, &demoHooks{log: log, who: "client"}, log)

	player := sim.NewBasicNetPlayer(1)
	server.AttachPlayer(player)
	client.SetLocalPlayer(player)

	npcClass, _ := serverRegistry.ClassByGoType(reflect.TypeFor[*npc]())
	pawnClass, _ := serverRegistry.ClassByGoType(reflect.TypeFor[*pawn]())
	if _, err := server.Spawn(npcClass.ClassId); err != nil {
		log.Error("spawn npc", "error", err)
		os.Exit(1)
	}
	if _, err := server.Spawn(pawnClass.ClassId); err != nil {
		log.Error("spawn server pawn", "error", err)
		os.Exit(1)
	}
	if err := server.EnableLagCompensation(player); err != nil {
		log.Error("enable lag compensation", "error", err)
		os.Exit(1)
	}

	clientPawnClass, _ := clientRegistry.ClassByGoType(reflect.TypeFor[*pawn]())
	if _, err := client.AddEntity(sim.MaxSyncedEntityCount+1, clientPawnClass.ClassId, true); err != nil {
		log.Error("predict local pawn", "error", err)
		os.Exit(1)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return runLoop(ctx, server.Manager, tickRate) })
	group.Go(func() error { return runLoop(ctx, client.Manager, tickRate) })

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("demo loop exited", "error", err)
		os.Exit(1)
	}
	fmt.Println("demo stopped")
}

func runLoop(ctx context.Context, m *sim.Manager, tickRate time.Duration) error {
	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			m.Update(now.Sub(last))
			last = now
		}
	}
}
