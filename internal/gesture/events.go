package gesture

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

type Phase int

const (
	Press Phase = iota
	Move
	Release
	// Click is the synthetic activation event some pointer sources fire
	// after press/release. It is suppressed once following a gesture
	// that exceeded the drag threshold.
	Click
)

// Event is one raw pointer sample. Point is the primary pointer in
// screen pixels; Second is the second touch point when two fingers are
// down, nil otherwise. For Release events Touches counts the fingers
// still down after the lift.
type Event struct {
	Phase   Phase
	Point   mgl64.Vec2
	Second  *mgl64.Vec2
	Touches int
	Time    time.Time
}

func (e Event) twoFinger() bool { return e.Second != nil }

// Effect is an intent the machine hands to surrounding layers. Camera
// mutations are applied directly to the machine's camera; everything
// that crosses the core boundary comes back as an effect.
type Effect interface{ effect() }

// OpenDetail asks the UI layer to show the detail view for a sphere.
type OpenDetail struct {
	ID string
}

// PersistPosition asks the persistence collaborator to store a sphere's
// released position. Fire-and-forget from the core's perspective.
type PersistPosition struct {
	ID       string
	Position mgl64.Vec3
}

func (OpenDetail) effect()      {}
func (PersistPosition) effect() {}
