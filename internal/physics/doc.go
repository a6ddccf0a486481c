// Package physics advances the sphere scene by one frame per call.
//
// [Step] is a pure transform over the registry contents with a fixed
// conceptual time unit: Euler integration, planar constraint, boundary
// reflection with restitution, per-frame damping, then O(n²) pairwise
// impulse resolution with half-overlap separation. It has no error
// states; boundary clamps and overlaps are normal control flow.
//
// A single grabbed sphere freezes the whole step. The original design
// stops all motion during any drag, and that observable behavior is kept
// as-is rather than excluding only the grabbed sphere.
package physics
