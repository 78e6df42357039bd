package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ValueTypeProcessor interpolates and diffs values of one field value type
// for replication and prediction. It is the generic counterpart of the
// source protocol's per-value-type lerp/equals pair.
type ValueTypeProcessor[T any] struct {
	// Lerp returns the value t (0..1) of the way from a to b.
	Lerp func(a, b T, t float64) T
	// Equal reports whether two values are interchangeable for diffing
	// purposes (used to decide whether a field needs to be sent at all).
	Equal func(a, b T) bool
}

// valueTypeRegistry maps a value-type name to its processor, erased to
// `any` so processors of different T can share one map. Registration
// happens once at startup; GetEntities and friends never touch this map on
// the hot path.
var valueTypeRegistry = map[string]any{}

// RegisterValueType installs a named ValueTypeProcessor[T]. Re-registering
// the same name overwrites the previous processor; this is only ever done
// at program startup, never mid-simulation.
func RegisterValueType[T any](name string, proc ValueTypeProcessor[T]) {
	valueTypeRegistry[name] = proc
}

// LookupValueType retrieves a previously registered ValueTypeProcessor[T]
// by name. ok is false if the name is unregistered or was registered for a
// different T.
func LookupValueType[T any](name string) (proc ValueTypeProcessor[T], ok bool) {
	v, exists := valueTypeRegistry[name]
	if !exists {
		return proc, false
	}
	proc, ok = v.(ValueTypeProcessor[T])
	return proc, ok
}

// FloatAngle is an angle in radians normalized to (-pi, pi]. Interpolating
// two FloatAngle values takes the shortest arc between them rather than a
// naive linear blend, which would spin the long way around when the values
// straddle the +-pi seam.
type FloatAngle float64

// NormalizeFloatAngle wraps a into (-pi, pi].
func NormalizeFloatAngle(a FloatAngle) FloatAngle {
	v := math.Mod(float64(a)-math.Pi, 2*math.Pi)
	if v > 0 {
		v -= 2 * math.Pi
	}
	return FloatAngle(v + math.Pi)
}

func lerpFloatAngle(a, b FloatAngle, t float64) FloatAngle {
	diff := NormalizeFloatAngle(b - a)
	if diff > math.Pi {
		diff -= 2 * math.Pi
	}
	return NormalizeFloatAngle(a + FloatAngle(mgl32.Clamp(float32(t), 0, 1))*diff)
}

func init() {
	RegisterValueType("FloatAngle", ValueTypeProcessor[FloatAngle]{
		Lerp: lerpFloatAngle,
		Equal: func(a, b FloatAngle) bool {
			return NormalizeFloatAngle(a) == NormalizeFloatAngle(b)
		},
	})
	RegisterValueType("Float64", ValueTypeProcessor[float64]{
		Lerp:  func(a, b float64, t float64) float64 { return a + (b-a)*t },
		Equal: func(a, b float64) bool { return a == b },
	})
	RegisterValueType("Vec2", ValueTypeProcessor[mgl32.Vec2]{
		Lerp: func(a, b mgl32.Vec2, t float64) mgl32.Vec2 {
			return a.Add(b.Sub(a).Mul(float32(t)))
		},
		Equal: func(a, b mgl32.Vec2) bool { return a == b },
	})
	RegisterValueType("Vec3", ValueTypeProcessor[mgl32.Vec3]{
		Lerp: func(a, b mgl32.Vec3, t float64) mgl32.Vec3 {
			return a.Add(b.Sub(a).Mul(float32(t)))
		},
		Equal: func(a, b mgl32.Vec3) bool { return a == b },
	})
}
