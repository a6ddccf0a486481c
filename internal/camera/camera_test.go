package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"spheretree/internal/gesture"
	"spheretree/internal/scene"
)

func testLayout() scene.Layout {
	return scene.Layout{Spacing: 2.2, RowHeight: 2.0, ApexY: 10}
}

func newTestPinhole(t *testing.T) (*Pinhole, *scene.Registry) {
	t.Helper()
	cam := gesture.NewCamera(20, 5, 60)
	reg := scene.NewRegistry(testLayout())
	return NewPinhole(cam, reg, 500, mgl64.Vec2{400, 300}, 1.0), reg
}

func TestProjectUnprojectRoundTrip(t *testing.T) {
	p, _ := newTestPinhole(t)
	p.Cam.Target = mgl64.Vec2{3, -1}

	points := []mgl64.Vec3{
		{0, 0, 0},
		{4.4, 6, 0},
		{-2.2, 8, 1.5},
		{3, -1, -3},
	}
	for _, world := range points {
		pt, depth, ok := p.Project(world)
		if !ok {
			t.Fatalf("Project(%v) not ok", world)
		}
		back := p.Unproject(pt, depth)
		if back.Sub(world).Len() > 1e-9 {
			t.Errorf("roundtrip %v -> %v -> %v", world, pt, back)
		}
	}
}

func TestProjectCenterOfView(t *testing.T) {
	p, _ := newTestPinhole(t)

	// A point directly on the view axis lands on the screen center.
	pt, depth, ok := p.Project(mgl64.Vec3{0, 0, 0})
	if !ok {
		t.Fatal("Project not ok")
	}
	if pt != p.Center {
		t.Errorf("on-axis point projected to %v, want %v", pt, p.Center)
	}
	if depth != p.Cam.Zoom {
		t.Errorf("depth = %v, want %v", depth, p.Cam.Zoom)
	}

	// Screen Y grows downward, so a point above the target projects up.
	pt, _, _ = p.Project(mgl64.Vec3{0, 5, 0})
	if pt.Y() >= p.Center.Y() {
		t.Errorf("point above target projected to y=%v, want < %v", pt.Y(), p.Center.Y())
	}
}

func TestProjectBehindCamera(t *testing.T) {
	p, _ := newTestPinhole(t)

	if _, _, ok := p.Project(mgl64.Vec3{0, 0, p.Cam.Zoom + 1}); ok {
		t.Error("point behind the camera projected ok")
	}
}

func TestHitTestNearestSphere(t *testing.T) {
	p, reg := newTestPinhole(t)

	// Two spheres stacked on the view axis; the closer one (larger Z)
	// must win even though both cover the screen center.
	if err := reg.Add(&scene.Sphere{ID: "far", Position: mgl64.Vec3{0, 0, -5}}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Add(&scene.Sphere{ID: "near", Position: mgl64.Vec3{0, 0, 5}}); err != nil {
		t.Fatal(err)
	}

	id, ok := p.HitTest(p.Center)
	if !ok {
		t.Fatal("expected a hit at screen center")
	}
	if id != "near" {
		t.Errorf("HitTest picked %q, want near", id)
	}
}

func TestHitTestMiss(t *testing.T) {
	p, reg := newTestPinhole(t)
	if err := reg.Add(&scene.Sphere{ID: "a", Position: mgl64.Vec3{2, 0, 0}}); err != nil {
		t.Fatal(err)
	}

	// The sphere center projects to x=450; radius 1 at depth 20 with
	// focal 500 covers 25px around it.
	if _, ok := p.HitTest(mgl64.Vec2{450 + 26, 300}); ok {
		t.Error("expected a miss just outside the projected radius")
	}
	if id, ok := p.HitTest(mgl64.Vec2{450 + 24, 300}); !ok || id != "a" {
		t.Errorf("expected a hit just inside the projected radius, got %q %v", id, ok)
	}
}

func TestWorldPerPixelScalesWithZoom(t *testing.T) {
	p, _ := newTestPinhole(t)

	before := p.WorldPerPixel()
	p.Cam.ZoomBy(20)
	after := p.WorldPerPixel()
	if after <= before {
		t.Errorf("zooming out should raise world-per-pixel: %v -> %v", before, after)
	}
	if math.Abs(after/before-2) > 1e-9 {
		t.Errorf("doubling zoom should double the pan scale, got ratio %v", after/before)
	}
}
