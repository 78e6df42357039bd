package sim

import "time"

// Clock implements the fixed-step tick schedule described in spec.md §4.4:
// an accumulator-driven fixed timestep, with an externally-set
// SpeedMultiplier a client slews toward the server's simulation, and a
// LerpFactor exposed for render interpolation between the last two
// completed ticks.
//
// Clock is pure math: it has no goroutines, timers or locks, and advancing
// it is entirely the caller's (Manager.Update's) responsibility, consistent
// with the single-threaded cooperative model the rest of the core uses.
// Go's time.Duration already counts nanoseconds, so it stands in directly
// for the spec's abstract "clock ticks" at ClockFrequency = 1e9.
type Clock struct {
	// TickRate is the fixed logic step, e.g. 1/30s for 30 ticks per second.
	TickRate time.Duration

	deltaTimeTicks  int64
	slowdownTicks   int64
	speedChangeCoef float64

	running         bool
	accumulator     int64
	speedMultiplier float64
	tick            uint16
	lerpFactor      float64
	visualDeltaTime time.Duration
	lastFired       int
}

// NewClock constructs a Clock ticking at tickRate with the default speed
// change coefficient, stopped until its first Advance call.
func NewClock(tickRate time.Duration) *Clock {
	if tickRate <= 0 {
		tickRate = time.Second / 30
	}
	deltaTimeTicks := int64(tickRate)
	// SlowdownTicks = max(100, DeltaTime * SpeedChangeCoef * ClockFrequency).
	slowdown := int64(float64(deltaTimeTicks) * TimeSpeedChangeCoef)
	if slowdown < 100 {
		slowdown = 100
	}
	return &Clock{
		TickRate:        tickRate,
		deltaTimeTicks:  deltaTimeTicks,
		slowdownTicks:   slowdown,
		speedChangeCoef: TimeSpeedChangeCoef,
	}
}

// FramesPerSecond returns the configured fixed tick rate F.
func (c *Clock) FramesPerSecond() int {
	if c.TickRate <= 0 {
		return 0
	}
	return int(time.Second / c.TickRate)
}

// DeltaTime returns the fixed per-tick step, 1/F.
func (c *Clock) DeltaTime() time.Duration { return c.TickRate }

// DeltaTimeF returns DeltaTime in fractional seconds.
func (c *Clock) DeltaTimeF() float64 { return c.TickRate.Seconds() }

// Tick returns the number of fixed ticks completed so far. It wraps on
// overflow like any uint16, matching spec.md §3.
func (c *Clock) Tick() uint16 { return c.tick }

// LerpFactor returns how far, in [0,1), the accumulator has progressed
// toward the next tick, for render-time interpolation between the last two
// completed tick states.
func (c *Clock) LerpFactor() float64 { return c.lerpFactor }

// VisualDeltaTime returns the wall-clock time elapsed since the previous
// Advance call, independent of how many (if any) fixed ticks fired.
func (c *Clock) VisualDeltaTime() time.Duration { return c.visualDeltaTime }

// IsRunning reports whether the clock has seen its first Advance call.
func (c *Clock) IsRunning() bool { return c.running }

// SpeedMultiplier returns the current external slew value, roughly within
// [-1, +1], that the client sets to converge its tick rate toward the
// server's observed latency.
func (c *Clock) SpeedMultiplier() float64 { return c.speedMultiplier }

// SetSpeedMultiplier sets the slew value used to compute MaxTicks on the
// next Advance call. The core never sets this itself; a client role
// specialization adjusts it based on observed server latency.
func (c *Clock) SetSpeedMultiplier(v float64) { c.speedMultiplier = v }

// LastTickCount returns how many ticks the most recent Advance call fired.
func (c *Clock) LastTickCount() int { return c.lastFired }

// maxTicks computes MaxTicks = DeltaTimeTicks + SpeedMultiplier*SlowdownTicks,
// floored at 1 clock tick so a pathological SpeedMultiplier can never stall
// Advance's while loop or divide by zero in the LerpFactor computation.
func (c *Clock) maxTicks() int64 {
	mt := c.deltaTimeTicks + int64(c.speedMultiplier*float64(c.slowdownTicks))
	if mt < 1 {
		mt = 1
	}
	return mt
}

// Advance runs the seven-step schedule from spec.md §4.4 for one frame of
// length elapsed.
//
// onVisual fires once, immediately, with the frame's VisualDeltaTime in
// fractional seconds (step 2), regardless of whether any fixed tick fires.
// onTick fires once per fixed tick that becomes due (step 5), in order,
// each call happening before Tick increments for that tick; it is nil-safe.
// Advance returns how many ticks fired, in [0, MaxTicksPerUpdate].
func (c *Clock) Advance(elapsed time.Duration, onVisual func(deltaSeconds float64), onTick func()) int {
	if elapsed < 0 {
		elapsed = 0
	}

	// Step 1: starting the clock consumes this call; the first real
	// accumulation happens on the next one.
	if !c.running {
		c.running = true
		c.lastFired = 0
		return 0
	}

	// Step 2.
	c.visualDeltaTime = elapsed
	if onVisual != nil {
		onVisual(elapsed.Seconds())
	}

	// Step 3.
	c.accumulator += int64(elapsed)

	// Step 4.
	maxTicks := c.maxTicks()

	// Step 5.
	fired := 0
	for c.accumulator >= maxTicks && fired < MaxTicksPerUpdate {
		if onTick != nil {
			onTick()
		}
		c.tick++
		c.accumulator -= maxTicks
		fired++
	}

	// Step 6.
	if fired == MaxTicksPerUpdate {
		c.accumulator = 0
		c.lastFired = fired
		return fired
	}

	// Step 7.
	c.lerpFactor = float64(c.accumulator) / float64(maxTicks)
	c.lastFired = fired
	return fired
}
