// Package camera provides the server-side projection model: a pinhole
// camera over the scene registry implementing [gesture.Projector].
// The browser client owns the real rendering; this implementation keeps
// hit-testing and reprojection available for the gesture machine, the
// live terminal view, and tests.
package camera

import (
	"github.com/go-gl/mathgl/mgl64"

	"spheretree/internal/gesture"
	"spheretree/internal/scene"
)

// Pinhole sits at (target.X, target.Y, zoom) looking down -Z at the
// z=0 sphere plane. Screen coordinates are pixels with Y growing down.
type Pinhole struct {
	Cam    *gesture.Camera
	Reg    *scene.Registry
	Focal  float64    // focal length in pixels
	Center mgl64.Vec2 // screen center in pixels
	Radius float64    // shared sphere radius for hit-testing
}

func NewPinhole(cam *gesture.Camera, reg *scene.Registry, focal float64, center mgl64.Vec2, radius float64) *Pinhole {
	return &Pinhole{Cam: cam, Reg: reg, Focal: focal, Center: center, Radius: radius}
}

// Project maps a world point to screen pixels and returns its camera
// depth. Points at or behind the camera project with ok=false.
func (p *Pinhole) Project(world mgl64.Vec3) (pt mgl64.Vec2, depth float64, ok bool) {
	depth = p.Depth(world)
	if depth <= 1e-9 {
		return mgl64.Vec2{}, depth, false
	}
	relX := world.X() - p.Cam.Target.X()
	relY := world.Y() - p.Cam.Target.Y()
	pt = mgl64.Vec2{
		p.Center.X() + p.Focal*relX/depth,
		p.Center.Y() - p.Focal*relY/depth,
	}
	return pt, depth, true
}

// Unproject maps a screen point back to world space at the given camera
// depth. It is the inverse of Project for depth > 0.
func (p *Pinhole) Unproject(pt mgl64.Vec2, depth float64) mgl64.Vec3 {
	relX := (pt.X() - p.Center.X()) * depth / p.Focal
	relY := -(pt.Y() - p.Center.Y()) * depth / p.Focal
	return mgl64.Vec3{
		p.Cam.Target.X() + relX,
		p.Cam.Target.Y() + relY,
		p.Cam.Zoom - depth,
	}
}

// Depth is the distance from the camera plane along the view direction.
func (p *Pinhole) Depth(world mgl64.Vec3) float64 {
	return p.Cam.Zoom - world.Z()
}

// WorldPerPixel is the pan scale at the current zoom: how much world
// distance one screen pixel covers on the sphere plane.
func (p *Pinhole) WorldPerPixel() float64 {
	return p.Cam.Zoom / p.Focal
}

// HitTest returns the nearest sphere whose projected disc contains the
// screen point. A miss is a normal outcome, not an error.
func (p *Pinhole) HitTest(pt mgl64.Vec2) (string, bool) {
	bestID := ""
	bestDepth := 0.0
	for _, s := range p.Reg.All() {
		center, depth, ok := p.Project(s.Position)
		if !ok {
			continue
		}
		screenRadius := p.Focal * p.Radius / depth
		if pt.Sub(center).Len() > screenRadius {
			continue
		}
		if bestID == "" || depth < bestDepth {
			bestID = s.ID
			bestDepth = depth
		}
	}
	return bestID, bestID != ""
}

var _ gesture.Projector = (*Pinhole)(nil)
