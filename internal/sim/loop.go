// Package sim runs the scene's frame loop. One goroutine owns the
// registry and all physics state; everything else talks to it through
// [Loop.Do] jobs and receives immutable [Snapshot] values through
// [Observer] callbacks.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"spheretree/internal/physics"
	"spheretree/internal/scene"
)

// SphereState is a value copy of one sphere, safe to share across
// goroutines.
type SphereState struct {
	ID       string
	Name     string
	Failed   bool
	Grabbed  bool
	Position mgl64.Vec3
	Velocity mgl64.Vec3
}

// Snapshot is the scene after one frame.
type Snapshot struct {
	Frame   int
	Time    time.Time
	Spheres []SphereState
	Kinetic float64
}

// Observer receives every frame on the loop goroutine. Callbacks must
// not block; ship the snapshot elsewhere if the work is slow.
type Observer interface {
	OnFrame(Snapshot)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Snapshot)

func (f ObserverFunc) OnFrame(snap Snapshot) { f(snap) }

// Loop ticks the scene at a fixed rate.
type Loop struct {
	reg       *scene.Registry
	cfg       physics.Config
	tps       int
	jobs      chan func()
	quit      chan struct{}
	observers []Observer
	frame     int
}

func New(reg *scene.Registry, cfg physics.Config, tps int) *Loop {
	return &Loop{
		reg:  reg,
		cfg:  cfg,
		tps:  tps,
		jobs: make(chan func(), 64),
		quit: make(chan struct{}),
	}
}

// AddObserver registers a frame consumer. Call before Run; the list is
// not guarded afterwards.
func (l *Loop) AddObserver(o Observer) { l.observers = append(l.observers, o) }

// Do schedules a job on the loop goroutine before the next physics
// step. This is the only sanctioned way to touch the registry while
// the loop runs. Jobs scheduled after Run has returned are dropped
// rather than blocking the caller.
func (l *Loop) Do(job func()) {
	select {
	case l.jobs <- job:
	case <-l.quit:
	}
}

// Run blocks, ticking until the context is cancelled. Run once; after
// it returns the loop is permanently stopped.
func (l *Loop) Run(ctx context.Context) error {
	if l.tps <= 0 {
		return fmt.Errorf("tps must be positive, got %d", l.tps)
	}
	defer close(l.quit)
	ticker := time.NewTicker(time.Second / time.Duration(l.tps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snap := l.step()
			for _, o := range l.observers {
				o.OnFrame(snap)
			}
		}
	}
}

// RunFrames advances the scene by n frames without a ticker, for
// offline recording and tests. Observers fire as usual.
func (l *Loop) RunFrames(n int) []Snapshot {
	snaps := make([]Snapshot, 0, n)
	for i := 0; i < n; i++ {
		snap := l.step()
		for _, o := range l.observers {
			o.OnFrame(snap)
		}
		snaps = append(snaps, snap)
	}
	return snaps
}

// Current snapshots the scene as it stands. It reads the registry, so
// while the loop runs it must be called from a [Loop.Do] job.
func (l *Loop) Current() Snapshot { return l.snapshot() }

func (l *Loop) step() Snapshot {
	l.drainJobs()
	physics.Step(l.reg.All(), l.cfg)
	l.frame++
	return l.snapshot()
}

func (l *Loop) drainJobs() {
	for {
		select {
		case job := <-l.jobs:
			job()
		default:
			return
		}
	}
}

func (l *Loop) snapshot() Snapshot {
	spheres := l.reg.All()
	snap := Snapshot{
		Frame:   l.frame,
		Time:    time.Now(),
		Spheres: make([]SphereState, len(spheres)),
		Kinetic: physics.KineticEnergy(spheres),
	}
	for i, s := range spheres {
		snap.Spheres[i] = SphereState{
			ID:       s.ID,
			Name:     s.Name,
			Failed:   s.Failed,
			Grabbed:  s.Grabbed,
			Position: s.Position,
			Velocity: s.Velocity,
		}
	}
	return snap
}
