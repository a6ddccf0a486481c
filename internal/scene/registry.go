package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrNotFound = errors.New("sphere not found")

// Sphere is one participant avatar in the scene. Display fields are
// server-owned and cosmetic; Position, Velocity and Grabbed are the
// transient physics state mutated every frame.
type Sphere struct {
	ID       string
	Name     string
	Bio      string
	ImageURL string
	Failed   bool

	Position mgl64.Vec3
	Velocity mgl64.Vec3
	// Placed marks Position as explicit even when it is the zero
	// vector, e.g. a sphere dragged to the origin and persisted there.
	Placed  bool
	Grabbed bool
}

// Layout controls where spheres without an explicit position are placed.
// Row r of the triangle holds r+1 slots; row 0 is the apex. Slots fill in
// row order as spheres are inserted.
type Layout struct {
	Spacing   float64 // horizontal distance between slots in a row
	RowHeight float64 // vertical distance between rows
	ApexY     float64 // Y of row 0
}

// SlotPosition returns the world position for insertion index i.
// The off-plane axis (Z) is always zero.
func (l Layout) SlotPosition(i int) mgl64.Vec3 {
	row := 0
	for (row+1)*(row+2)/2 <= i {
		row++
	}
	slot := i - row*(row+1)/2
	x := (float64(slot) - float64(row)/2) * l.Spacing
	y := l.ApexY - float64(row)*l.RowHeight
	return mgl64.Vec3{x, y, 0}
}

// Registry holds the live sphere list.
type Registry struct {
	spheres []*Sphere
	layout  Layout
	nextIdx int // running insertion index for triangle placement
	grabbed *Sphere
}

func NewRegistry(layout Layout) *Registry {
	return &Registry{
		spheres: make([]*Sphere, 0, 32),
		layout:  layout,
	}
}

// Add appends a sphere. An unplaced zero Position means "no explicit
// position" and assigns the next triangle slot; explicit positions are
// kept as-is but still consume an insertion index so later spheres do
// not collide with reserved slots.
func (r *Registry) Add(s *Sphere) error {
	if s.ID == "" {
		return errors.New("sphere id must not be empty")
	}
	if _, ok := r.Get(s.ID); ok {
		return fmt.Errorf("sphere %s already present", s.ID)
	}
	if !s.Placed && s.Position == (mgl64.Vec3{}) {
		s.Position = r.layout.SlotPosition(r.nextIdx)
	}
	r.nextIdx++
	r.spheres = append(r.spheres, s)
	return nil
}

// Remove deletes a sphere by identity. Removing the grabbed sphere also
// clears the grab.
func (r *Registry) Remove(id string) error {
	for i, s := range r.spheres {
		if s.ID == id {
			if r.grabbed == s {
				r.grabbed = nil
			}
			r.spheres = append(r.spheres[:i], r.spheres[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// SetFailed updates the cosmetic failure flag only; physics state is
// untouched.
func (r *Registry) SetFailed(id string, failed bool) error {
	s, ok := r.Get(id)
	if !ok {
		return ErrNotFound
	}
	s.Failed = failed
	return nil
}

func (r *Registry) Get(id string) (*Sphere, bool) {
	for _, s := range r.spheres {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// All returns the live sequence for iteration by the physics step and
// hit-testing. Callers must not retain it across frames.
func (r *Registry) All() []*Sphere {
	return r.spheres
}

func (r *Registry) Len() int { return len(r.spheres) }

// Grab marks a sphere as held by a pointer session. It fails if the
// sphere is unknown or any sphere (including this one) is already held.
func (r *Registry) Grab(id string) (*Sphere, error) {
	if r.grabbed != nil {
		return nil, fmt.Errorf("sphere %s already grabbed", r.grabbed.ID)
	}
	s, ok := r.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	s.Grabbed = true
	r.grabbed = s
	return s, nil
}

// Release clears the grab. Releasing when nothing is held is a no-op.
func (r *Registry) Release() {
	if r.grabbed != nil {
		r.grabbed.Grabbed = false
		r.grabbed = nil
	}
}

// Grabbed returns the held sphere, or nil.
func (r *Registry) Grabbed() *Sphere { return r.grabbed }
