package gesture

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"spheretree/internal/scene"
)

type State int

const (
	StateIdle State = iota
	StateDragging
	StatePanning
	StatePinching
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StatePanning:
		return "panning"
	case StatePinching:
		return "pinching"
	}
	return "unknown"
}

// Projector is the rendering-engine capability the machine calls into:
// ray hit-testing and screen-to-world reprojection at a given depth.
type Projector interface {
	// HitTest returns the nearest sphere under a screen point, if any.
	HitTest(p mgl64.Vec2) (id string, ok bool)
	// Unproject maps a screen point back to world space at the given
	// distance from the camera.
	Unproject(p mgl64.Vec2, depth float64) mgl64.Vec3
	// Depth is a world point's distance from the camera along the view.
	Depth(world mgl64.Vec3) float64
	// WorldPerPixel is the pan scale at the camera's current zoom.
	WorldPerPixel() float64
}

type Config struct {
	TapThreshold  float64 // px of total displacement below which a drag release is a tap
	DragThreshold float64 // px beyond which a pan is a real pan, not a tap-to-select
	ZoomScale     float64 // finger-distance pixels to zoom-distance units
	PlanarLock    bool    // keep dragged spheres on the z=0 plane
	FrameInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		TapThreshold:  6,
		DragThreshold: 4,
		ZoomScale:     0.05,
		PlanarLock:    true,
		FrameInterval: 33 * time.Millisecond,
	}
}

// Velocity updates are skipped below this gap between move samples; a
// division by (near) zero here would send NaN through every later
// collision for the sphere.
const minVelocityDt = 100 * time.Microsecond

// session is the per-gesture record. It owns the grabbed sphere
// reference together with the gesture bookkeeping, so the grab flag and
// the session can never disagree.
type session struct {
	start     mgl64.Vec2
	last      mgl64.Vec2
	lastTime  time.Time
	sphere    *scene.Sphere // non-nil only while dragging
	depth     float64       // camera distance of the sphere at grab time
	dragged   bool          // exceeded DragThreshold at least once
	prevPinch float64       // finger distance on the previous pinch sample
}

// Machine interprets pointer events against one registry and camera.
// One machine per pointer source (per connection); not thread-safe.
type Machine struct {
	cfg  Config
	reg  *scene.Registry
	proj Projector
	cam  *Camera

	state         State
	sess          session
	suppressClick bool
}

func NewMachine(cfg Config, reg *scene.Registry, proj Projector, cam *Camera) *Machine {
	return &Machine{cfg: cfg, reg: reg, proj: proj, cam: cam}
}

func (m *Machine) State() State { return m.state }

func (m *Machine) Camera() *Camera { return m.cam }

// Handle advances the machine by one event and returns the effects the
// surrounding layers should act on.
func (m *Machine) Handle(ev Event) []Effect {
	if ev.Phase == Click {
		return m.handleClick(ev)
	}

	// A two-finger touch takes precedence over any single-finger
	// interpretation for the frame.
	if ev.twoFinger() && m.state != StatePinching && ev.Phase != Release {
		m.enterPinch(ev)
		return nil
	}

	switch m.state {
	case StateIdle:
		return m.handleIdle(ev)
	case StateDragging:
		return m.handleDragging(ev)
	case StatePanning:
		return m.handlePanning(ev)
	case StatePinching:
		return m.handlePinching(ev)
	}
	return nil
}

func (m *Machine) handleIdle(ev Event) []Effect {
	if ev.Phase != Press {
		return nil
	}

	m.sess = session{start: ev.Point, last: ev.Point, lastTime: ev.Time}

	if id, ok := m.proj.HitTest(ev.Point); ok {
		if s, err := m.reg.Grab(id); err == nil {
			m.sess.sphere = s
			m.sess.depth = m.proj.Depth(s.Position)
			m.state = StateDragging
			return nil
		}
		// Grabbed elsewhere (another pointer session holds it): fall
		// through to panning like a miss.
	}
	m.state = StatePanning
	return nil
}

func (m *Machine) handleDragging(ev Event) []Effect {
	s := m.sess.sphere

	switch ev.Phase {
	case Move:
		world := m.proj.Unproject(ev.Point, m.sess.depth)
		if m.cfg.PlanarLock {
			world[2] = 0
		}

		elapsed := ev.Time.Sub(m.sess.lastTime)
		if elapsed >= minVelocityDt {
			// Release inherits a throw: velocity is the per-frame
			// displacement rate, no separate impulse step.
			perFrame := m.cfg.FrameInterval.Seconds() / elapsed.Seconds()
			s.Velocity = world.Sub(s.Position).Mul(perFrame)
			if m.cfg.PlanarLock {
				s.Velocity[2] = 0
			}
		}
		s.Position = world
		m.sess.last = ev.Point
		m.sess.lastTime = ev.Time

	case Release:
		m.reg.Release()
		m.state = StateIdle
		m.suppressClick = true

		var effects []Effect
		if ev.Point.Sub(m.sess.start).Len() < m.cfg.TapThreshold {
			effects = append(effects, OpenDetail{ID: s.ID})
		} else {
			effects = append(effects, PersistPosition{ID: s.ID, Position: s.Position})
		}
		m.sess = session{}
		return effects
	}
	return nil
}

func (m *Machine) handlePanning(ev Event) []Effect {
	switch ev.Phase {
	case Move:
		delta := ev.Point.Sub(m.sess.last)
		m.cam.Pan(delta, m.proj.WorldPerPixel())
		m.sess.last = ev.Point
		if ev.Point.Sub(m.sess.start).Len() > m.cfg.DragThreshold {
			m.sess.dragged = true
		}

	case Release:
		dragged := m.sess.dragged
		m.state = StateIdle
		m.sess = session{}
		if dragged {
			m.suppressClick = true
			return nil
		}
		// Never exceeded the drag threshold: the terminating click is a
		// tap-to-select at the release point.
		if id, ok := m.proj.HitTest(ev.Point); ok {
			m.suppressClick = true
			return []Effect{OpenDetail{ID: id}}
		}
	}
	return nil
}

func (m *Machine) handlePinching(ev Event) []Effect {
	switch ev.Phase {
	case Move:
		if !ev.twoFinger() {
			return nil
		}
		d := ev.Second.Sub(ev.Point).Len()
		m.cam.ZoomBy((m.sess.prevPinch - d) * m.cfg.ZoomScale)
		m.sess.prevPinch = d

	case Release:
		if ev.Touches >= 1 {
			// One finger left: continue as a pan from its position.
			m.state = StatePanning
			m.sess = session{start: ev.Point, last: ev.Point, lastTime: ev.Time, dragged: true}
			return nil
		}
		m.state = StateIdle
		m.sess = session{}
		m.suppressClick = true
	}
	return nil
}

func (m *Machine) enterPinch(ev Event) {
	if m.state == StateDragging {
		m.reg.Release()
	}
	m.state = StatePinching
	m.sess = session{
		start:     ev.Point,
		last:      ev.Point,
		lastTime:  ev.Time,
		prevPinch: ev.Second.Sub(ev.Point).Len(),
	}
}

func (m *Machine) handleClick(ev Event) []Effect {
	if m.suppressClick {
		// Consumed exactly once.
		m.suppressClick = false
		return nil
	}
	if id, ok := m.proj.HitTest(ev.Point); ok {
		return []Effect{OpenDetail{ID: id}}
	}
	return nil
}
