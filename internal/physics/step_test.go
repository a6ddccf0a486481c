package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"spheretree/internal/scene"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Radius = 2.0 // sum of radii 4, matches the collision scenarios
	return cfg
}

func TestStep_PlanarConstraint(t *testing.T) {
	cfg := testConfig()
	s := &scene.Sphere{
		ID:       "a",
		Position: mgl64.Vec3{1, 1, 0.5},
		Velocity: mgl64.Vec3{0.1, 0, 0.3},
	}

	Step([]*scene.Sphere{s}, cfg)

	if s.Position.Z() != 0 {
		t.Errorf("expected z exactly 0, got %v", s.Position.Z())
	}
	if s.Velocity.Z() != 0 {
		t.Errorf("expected vz exactly 0, got %v", s.Velocity.Z())
	}
}

func TestStep_BoundaryReflection(t *testing.T) {
	cfg := testConfig()
	s := &scene.Sphere{
		ID:       "a",
		Position: mgl64.Vec3{cfg.Bounds.Max.X() - 0.1, 0, 0},
		Velocity: mgl64.Vec3{0.5, 0, 0},
	}

	Step([]*scene.Sphere{s}, cfg)

	if s.Position.X() > cfg.Bounds.Max.X() {
		t.Errorf("position exceeds bound: %v", s.Position.X())
	}
	if s.Velocity.X() >= 0 {
		t.Errorf("velocity sign not flipped: %v", s.Velocity.X())
	}
	// Reflection loses energy: |v'| = restitution * damping * |v|.
	want := 0.5 * cfg.Restitution * cfg.Damping
	if math.Abs(-s.Velocity.X()-want) > 1e-12 {
		t.Errorf("expected speed %f after reflection, got %f", want, -s.Velocity.X())
	}
}

func TestStep_VerticalOnlyBounds(t *testing.T) {
	cfg := testConfig()
	cfg.Bounds.VerticalOnly = true
	s := &scene.Sphere{
		ID:       "a",
		Position: mgl64.Vec3{cfg.Bounds.Max.X() + 5, cfg.Bounds.Min.Y() - 1, 0},
		Velocity: mgl64.Vec3{1, -1, 0},
	}

	Step([]*scene.Sphere{s}, cfg)

	if s.Position.Y() != cfg.Bounds.Min.Y() {
		t.Errorf("y not clamped: %v", s.Position.Y())
	}
	if s.Velocity.Y() <= 0 {
		t.Errorf("vy not reflected: %v", s.Velocity.Y())
	}
	// X must be free in the vertical-only variant.
	if s.Velocity.X() < 0 {
		t.Errorf("vx reflected despite vertical-only bounds: %v", s.Velocity.X())
	}
}

func TestStep_Damping(t *testing.T) {
	cfg := testConfig()
	s := &scene.Sphere{ID: "a", Velocity: mgl64.Vec3{1, 0, 0}}

	Step([]*scene.Sphere{s}, cfg)

	if math.Abs(s.Velocity.X()-cfg.Damping) > 1e-12 {
		t.Errorf("expected damped velocity %f, got %f", cfg.Damping, s.Velocity.X())
	}
}

func TestStep_IdempotentAtRest(t *testing.T) {
	cfg := testConfig()
	spheres := []*scene.Sphere{
		{ID: "a", Position: mgl64.Vec3{0, 0, 0}},
		{ID: "b", Position: mgl64.Vec3{10, 0, 0}},
	}

	before := snapshot(spheres)
	Step(spheres, cfg)

	for i, s := range spheres {
		if s.Position != before[i].pos || s.Velocity != before[i].vel {
			t.Errorf("sphere %s changed with zero velocity and no overlap", s.ID)
		}
	}
}

// Two spheres at distance 3 with radius sum 4, approaching at closing
// speed 2, restitution 0.8: expect an impulse, post-step separation, and
// opposite velocity changes along the normal.
func TestStep_CollisionScenario(t *testing.T) {
	cfg := testConfig()
	cfg.Damping = 1.0 // isolate the impulse math

	a := &scene.Sphere{ID: "a", Position: mgl64.Vec3{0, 0, 0}, Velocity: mgl64.Vec3{1, 0, 0}}
	b := &scene.Sphere{ID: "b", Position: mgl64.Vec3{5, 0, 0}, Velocity: mgl64.Vec3{-1, 0, 0}}
	// After integration a is at 1 and b is at 4: distance 3 with a
	// closing speed of 2 along +X.

	Step([]*scene.Sphere{a, b}, cfg)

	dist := b.Position.Sub(a.Position).Len()
	if dist < 4-1e-9 {
		t.Errorf("residual penetration: distance %f < 4", dist)
	}

	// Impulse j = closing * restitution = 1.6 applied equal-and-opposite.
	if math.Abs(a.Velocity.X()-(1-1.6)) > 1e-9 {
		t.Errorf("expected vA.x -0.6, got %f", a.Velocity.X())
	}
	if math.Abs(b.Velocity.X()-(-1+1.6)) > 1e-9 {
		t.Errorf("expected vB.x 0.6, got %f", b.Velocity.X())
	}

	// Momentum along the normal is conserved exactly.
	if math.Abs(a.Velocity.X()+b.Velocity.X()) > 1e-9 {
		t.Errorf("momentum not conserved: %f", a.Velocity.X()+b.Velocity.X())
	}
}

func TestStep_SeparatingPairGetsNoImpulse(t *testing.T) {
	cfg := testConfig()
	cfg.Damping = 1.0

	// Overlapping but already separating: positions correct, velocities
	// along the normal must be untouched.
	a := &scene.Sphere{ID: "a", Position: mgl64.Vec3{0, 0, 0}, Velocity: mgl64.Vec3{-0.5, 0, 0}}
	b := &scene.Sphere{ID: "b", Position: mgl64.Vec3{2, 0, 0}, Velocity: mgl64.Vec3{0.5, 0, 0}}

	Step([]*scene.Sphere{a, b}, cfg)

	if a.Velocity.X() != -0.5 || b.Velocity.X() != 0.5 {
		t.Errorf("impulse applied to separating pair: %f, %f", a.Velocity.X(), b.Velocity.X())
	}
	dist := b.Position.Sub(a.Position).Len()
	if dist < 4-1e-9 {
		t.Errorf("pair not separated: distance %f", dist)
	}
}

func TestStep_FreezeWhileGrabbed(t *testing.T) {
	cfg := testConfig()
	grabbed := &scene.Sphere{ID: "g", Grabbed: true, Velocity: mgl64.Vec3{5, 5, 0}}
	others := []*scene.Sphere{
		{ID: "a", Position: mgl64.Vec3{0, 0, 0}, Velocity: mgl64.Vec3{1, 2, 0}},
		{ID: "b", Position: mgl64.Vec3{1, 0, 0}, Velocity: mgl64.Vec3{-1, 0, 0}},
	}
	spheres := append([]*scene.Sphere{grabbed}, others...)

	before := snapshot(others)
	Step(spheres, cfg)

	// Global freeze: every other sphere must be bit-identical, overlaps
	// and all.
	for i, s := range others {
		if s.Position != before[i].pos {
			t.Errorf("sphere %s position changed during drag", s.ID)
		}
		if s.Velocity != before[i].vel {
			t.Errorf("sphere %s velocity changed during drag", s.ID)
		}
	}
}

func TestStep_CoincidentCenters(t *testing.T) {
	cfg := testConfig()
	a := &scene.Sphere{ID: "a", Position: mgl64.Vec3{0, 0, 0}}
	b := &scene.Sphere{ID: "b", Position: mgl64.Vec3{0, 0, 0}}

	Step([]*scene.Sphere{a, b}, cfg)

	dist := b.Position.Sub(a.Position).Len()
	if dist < 4-1e-9 {
		t.Errorf("coincident pair not separated: %f", dist)
	}
	for _, s := range []*scene.Sphere{a, b} {
		if math.IsNaN(s.Position.X()) || math.IsNaN(s.Velocity.X()) {
			t.Fatal("NaN leaked from degenerate collision")
		}
	}
}

func TestKineticEnergy(t *testing.T) {
	spheres := []*scene.Sphere{
		{ID: "a", Velocity: mgl64.Vec3{2, 0, 0}},
		{ID: "b", Velocity: mgl64.Vec3{0, 1, 0}},
	}
	// ½·4 + ½·1
	if ke := KineticEnergy(spheres); math.Abs(ke-2.5) > 1e-12 {
		t.Errorf("expected 2.5, got %f", ke)
	}
}

func TestSettled(t *testing.T) {
	spheres := []*scene.Sphere{{ID: "a", Velocity: mgl64.Vec3{0.001, 0, 0}}}
	if !Settled(spheres, 0.01) {
		t.Error("expected settled below eps")
	}
	if Settled(spheres, 0.0001) {
		t.Error("expected not settled above eps")
	}
}

type state struct {
	pos, vel mgl64.Vec3
}

func snapshot(spheres []*scene.Sphere) []state {
	out := make([]state, len(spheres))
	for i, s := range spheres {
		out[i] = state{s.Position, s.Velocity}
	}
	return out
}
