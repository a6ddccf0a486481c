package sim

import (
	"context"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"spheretree/internal/physics"
	"spheretree/internal/scene"
)

func testLayout() scene.Layout {
	return scene.Layout{Spacing: 2.2, RowHeight: 2.0, ApexY: 10}
}

func newTestLoop(t *testing.T) (*Loop, *scene.Registry) {
	t.Helper()
	reg := scene.NewRegistry(testLayout())
	return New(reg, physics.DefaultConfig(), 30), reg
}

func TestRunFramesAdvancesScene(t *testing.T) {
	loop, reg := newTestLoop(t)
	s := &scene.Sphere{ID: "a", Position: mgl64.Vec3{0, 5, 0}, Velocity: mgl64.Vec3{1, 0, 0}}
	if err := reg.Add(s); err != nil {
		t.Fatal(err)
	}

	snaps := loop.RunFrames(3)
	if len(snaps) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snaps))
	}
	if snaps[0].Frame != 1 || snaps[2].Frame != 3 {
		t.Errorf("frame numbers = %d..%d, want 1..3", snaps[0].Frame, snaps[2].Frame)
	}
	if s.Position.X() <= 0 {
		t.Errorf("sphere did not move, x = %f", s.Position.X())
	}
	if snaps[0].Kinetic <= 0 {
		t.Error("moving sphere should have kinetic energy")
	}
}

func TestJobsRunBeforeStep(t *testing.T) {
	loop, reg := newTestLoop(t)
	s := &scene.Sphere{ID: "a", Position: mgl64.Vec3{0, 5, 0}}
	if err := reg.Add(s); err != nil {
		t.Fatal(err)
	}

	loop.Do(func() { s.Velocity = mgl64.Vec3{2, 0, 0} })
	loop.RunFrames(1)

	// The job landed before integration, so the first frame already
	// moved the sphere.
	if s.Position.X() != 2 {
		t.Errorf("x = %f, want 2", s.Position.X())
	}
}

func TestSnapshotIsDetachedCopy(t *testing.T) {
	loop, reg := newTestLoop(t)
	if err := reg.Add(&scene.Sphere{ID: "a", Position: mgl64.Vec3{0, 5, 0}}); err != nil {
		t.Fatal(err)
	}

	snaps := loop.RunFrames(1)
	before := snaps[0].Spheres[0].Position
	loop.RunFrames(5)
	if snaps[0].Spheres[0].Position != before {
		t.Error("snapshot mutated by later frames")
	}
}

func TestGrabFreezesFrames(t *testing.T) {
	loop, reg := newTestLoop(t)
	s := &scene.Sphere{ID: "a", Position: mgl64.Vec3{0, 5, 0}, Velocity: mgl64.Vec3{1, 0, 0}}
	if err := reg.Add(s); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Grab("a"); err != nil {
		t.Fatal(err)
	}

	loop.RunFrames(4)
	if s.Position.X() != 0 {
		t.Errorf("grabbed scene advanced, x = %f", s.Position.X())
	}
}

func TestRunTicksAndStops(t *testing.T) {
	reg := scene.NewRegistry(testLayout())
	loop := New(reg, physics.DefaultConfig(), 200)

	frames := make(chan int, 16)
	loop.AddObserver(ObserverFunc(func(snap Snapshot) {
		select {
		case frames <- snap.Frame:
		default:
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	select {
	case <-frames:
	case <-time.After(2 * time.Second):
		t.Fatal("no frame within 2s")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestDoAfterStopDoesNotBlock(t *testing.T) {
	reg := scene.NewRegistry(testLayout())
	loop := New(reg, physics.DefaultConfig(), 200)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	cancel()
	<-done

	// Well past the queue capacity: every call must drop, not block.
	finished := make(chan struct{})
	go func() {
		for i := 0; i < 2*cap(loop.jobs); i++ {
			loop.Do(func() {})
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Do blocked after the loop stopped")
	}
}

func TestRunRejectsBadTPS(t *testing.T) {
	reg := scene.NewRegistry(testLayout())
	loop := New(reg, physics.DefaultConfig(), 0)
	if err := loop.Run(context.Background()); err == nil {
		t.Error("expected an error for tps 0")
	}
}

func TestDoFromAnotherGoroutine(t *testing.T) {
	loop, reg := newTestLoop(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	added := make(chan struct{})
	loop.AddObserver(ObserverFunc(func(snap Snapshot) {
		if len(snap.Spheres) == 1 {
			select {
			case <-added:
			default:
				close(added)
			}
		}
	}))

	go loop.Run(ctx)
	loop.Do(func() {
		if err := reg.Add(&scene.Sphere{ID: "late"}); err != nil {
			t.Error(err)
		}
	})

	select {
	case <-added:
	case <-time.After(2 * time.Second):
		t.Fatal("job never applied")
	}
}
