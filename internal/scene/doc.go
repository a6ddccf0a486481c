// Package scene owns the authoritative list of sphere entities and their
// transient physics state.
//
//   - [Sphere]: a participant's avatar ball (display fields + position,
//     velocity, grabbed flag)
//   - [Registry]: add/remove/lookup plus deterministic triangle-row
//     placement for spheres created without an explicit position
//
// The registry enforces the single-grab invariant: at most one sphere is
// grabbed at any instant, and only [Registry.Grab] and [Registry.Release]
// touch the flag, so it cannot desynchronize from the pointer session
// holding it.
//
// # Thread Safety
//
// Registry instances are NOT thread-safe. All mutation happens on the
// simulation goroutine; see the sim package.
package scene
