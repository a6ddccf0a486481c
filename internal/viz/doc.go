// Package viz renders the sphere scene in the terminal.
//
// The live view is a Bubble Tea program drawing spheres on a
// Braille-based pixel canvas, with a kinetic-energy sparkline:
//
//   - [Model]: the live simulation view
//   - [Canvas]: Braille pixel canvas
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to initial layout
//	+/-   - Zoom in/out
//	Arrows - Pan the view
//	?     - Show help overlay
package viz
