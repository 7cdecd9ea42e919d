// Package viz provides the terminal live view of a running integration.
//
// The driver runs in its own goroutine and reports every accepted step
// through a [ProgramObserver], which forwards copies to the Bubble Tea
// program as [StepMsg] values. The [Model] keeps a bounded history and
// draws it with asciigraph.
//
// # Key Bindings
//
//	G     - Cycle the plotted series (T9, entropy, rho, x0, dt)
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit (cancels a running integration)
package viz
