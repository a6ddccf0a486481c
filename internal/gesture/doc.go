// Package gesture interprets raw pointer events as scene interactions.
//
// [Machine] is an explicit finite-state machine over four mutually
// exclusive gesture states:
//
//   - Idle: no active gesture
//   - Dragging: a sphere is grabbed and follows the pointer
//   - Panning: the camera target follows the pointer
//   - Pinching: two-finger zoom
//
// Transitions take (state, event) and produce (new state, effects); the
// machine is independent of any windowing or event-dispatch mechanism,
// so websocket pointer messages and synthetic test events drive it the
// same way. Projection and ray hit-testing are consumed through the
// [Projector] interface; the rendering side owns that math.
//
// Tap vs drag disambiguation uses two separate pixel cutoffs: the tap
// threshold (total displacement at drag release) and the drag threshold
// (whether a pan ever became a real pan), tracked independently because
// a click after a threshold-exceeding gesture must be suppressed exactly
// once.
package gesture
