package gesture

import "github.com/go-gl/mathgl/mgl64"

// Camera is the look-at target and zoom distance driven by pan and
// pinch gestures. It is never persisted.
type Camera struct {
	Target  mgl64.Vec2
	Zoom    float64
	MinZoom float64
	MaxZoom float64
}

func NewCamera(zoom, min, max float64) *Camera {
	c := &Camera{Zoom: zoom, MinZoom: min, MaxZoom: max}
	c.clamp()
	return c
}

// Pan shifts the target by a screen-pixel delta scaled to world units,
// so pan speed is resolution- and zoom-independent. The scene follows
// the pointer; screen Y grows downward while world Y grows up, hence
// the sign split.
func (c *Camera) Pan(deltaPx mgl64.Vec2, worldPerPixel float64) {
	c.Target[0] -= deltaPx.X() * worldPerPixel
	c.Target[1] += deltaPx.Y() * worldPerPixel
}

// ZoomBy adjusts the zoom distance and clamps it to the configured
// range. Negative deltas zoom in.
func (c *Camera) ZoomBy(delta float64) {
	c.Zoom += delta
	c.clamp()
}

func (c *Camera) clamp() {
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
	if c.Zoom > c.MaxZoom {
		c.Zoom = c.MaxZoom
	}
}
