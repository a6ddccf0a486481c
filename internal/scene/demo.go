package scene

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// DemoRegistry fills a registry with count placeholder spheres, each
// given a reproducible random shove. Used by the live view and by
// headless recordings, which have no participant store behind them.
func DemoRegistry(layout Layout, count int, seed int64) *Registry {
	reg := NewRegistry(layout)
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < count; i++ {
		s := &Sphere{
			ID:   fmt.Sprintf("demo-%02d", i),
			Name: fmt.Sprintf("Sphere %d", i+1),
			Velocity: mgl64.Vec3{
				(rng.Float64() - 0.5) * 0.4,
				(rng.Float64() - 0.5) * 0.4,
				0,
			},
		}
		// Add assigns the tree slot.
		if err := reg.Add(s); err != nil {
			panic(err)
		}
	}
	return reg
}
