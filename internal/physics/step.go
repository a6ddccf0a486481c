package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"spheretree/internal/scene"
)

// Bounds is an axis-aligned box. With VerticalOnly set, only the Y axis
// reflects; X and Z run free (the hanging-ornament variant).
type Bounds struct {
	Min          mgl64.Vec3 `yaml:"min"`
	Max          mgl64.Vec3 `yaml:"max"`
	VerticalOnly bool       `yaml:"vertical_only"`
}

// Config holds the per-frame constants. All spheres share one radius and
// unit mass.
type Config struct {
	Radius      float64 `yaml:"radius"`
	Restitution float64 `yaml:"restitution"`
	Damping     float64 `yaml:"damping"`
	PlanarLock  bool    `yaml:"planar_lock"` // pin Z position and velocity to 0
	Bounds      Bounds  `yaml:"bounds"`
}

func DefaultConfig() Config {
	return Config{
		Radius:      1.0,
		Restitution: 0.8,
		Damping:     0.98,
		PlanarLock:  true,
		Bounds: Bounds{
			Min: mgl64.Vec3{-12, -2, -12},
			Max: mgl64.Vec3{12, 14, 12},
		},
	}
}

// Step advances every non-grabbed sphere by one frame. Order matters for
// determinism: integrate, constrain, reflect, damp, then resolve pairs.
// While any sphere is grabbed the entire scene is frozen and the call
// leaves every sphere bit-identical.
func Step(spheres []*scene.Sphere, cfg Config) {
	for _, s := range spheres {
		if s.Grabbed {
			return
		}
	}

	for _, s := range spheres {
		s.Position = s.Position.Add(s.Velocity)

		if cfg.PlanarLock {
			s.Position[2] = 0
			s.Velocity[2] = 0
		}

		reflect(s, cfg)

		s.Velocity = s.Velocity.Mul(cfg.Damping)
	}

	resolvePairs(spheres, cfg)
}

// reflect clamps a sphere to the bounds and negates the offending
// velocity component, scaled by restitution.
func reflect(s *scene.Sphere, cfg Config) {
	lo, hi := cfg.Bounds.Min, cfg.Bounds.Max
	for axis := 0; axis < 3; axis++ {
		if cfg.Bounds.VerticalOnly && axis != 1 {
			continue
		}
		if s.Position[axis] < lo[axis] {
			s.Position[axis] = lo[axis]
			s.Velocity[axis] = -s.Velocity[axis] * cfg.Restitution
		} else if s.Position[axis] > hi[axis] {
			s.Position[axis] = hi[axis]
			s.Velocity[axis] = -s.Velocity[axis] * cfg.Restitution
		}
	}
}

// resolvePairs applies a simplified equal-mass elastic impulse to every
// overlapping pair, then separates the pair by half the overlap each so
// penetration is corrected within the frame.
func resolvePairs(spheres []*scene.Sphere, cfg Config) {
	sumRadii := 2 * cfg.Radius

	for i := 0; i < len(spheres); i++ {
		for j := i + 1; j < len(spheres); j++ {
			a, b := spheres[i], spheres[j]

			delta := b.Position.Sub(a.Position)
			dist := delta.Len()
			if dist >= sumRadii {
				continue
			}

			var normal mgl64.Vec3
			if dist > 0 {
				normal = delta.Mul(1 / dist)
			} else {
				// Coincident centers have no meaningful normal; push
				// along X so the pair still separates deterministically.
				normal = mgl64.Vec3{1, 0, 0}
			}

			// Closing speed along the normal; separating pairs get no
			// impulse, which avoids injecting energy the frame after a
			// prior separation.
			closing := a.Velocity.Sub(b.Velocity).Dot(normal)
			if closing > 0 {
				impulse := normal.Mul(closing * cfg.Restitution)
				a.Velocity = a.Velocity.Sub(impulse)
				b.Velocity = b.Velocity.Add(impulse)
			}

			half := (sumRadii - dist) / 2
			a.Position = a.Position.Sub(normal.Mul(half))
			b.Position = b.Position.Add(normal.Mul(half))

			if cfg.PlanarLock {
				a.Position[2] = 0
				b.Position[2] = 0
			}
		}
	}
}

// KineticEnergy sums ½|v|² over the scene (unit mass). Used by the
// recorder and the live view to watch damping settle.
func KineticEnergy(spheres []*scene.Sphere) float64 {
	total := 0.0
	for _, s := range spheres {
		v := s.Velocity
		total += 0.5 * v.Dot(v)
	}
	return total
}

// Settled reports whether every sphere's speed is below eps.
func Settled(spheres []*scene.Sphere, eps float64) bool {
	for _, s := range spheres {
		if s.Velocity.Len() > eps {
			return false
		}
	}
	return true
}
