// Package ui renders the live access heatmap in the terminal using Bubble Tea.
//
// The grid draws one cell per bucket of the current view. Cells are shaded by
// the active color scheme, flash when they received traffic since the last
// frame and carry a cursor whose bucket is described in the inspector line.
//
// The model reads tail statistics and published heat snapshots from
// state.Store on every tick and drives the aggregator directly through the
// Controller interface for zoom, pan, reset and frame scrubbing, so view
// changes show up without waiting for the next poll.
//
// Files:
//
//   - app.go: Model, Update loop, commands and Run
//   - grid.go: grid geometry, rendering and mouse handling
//   - header.go: header, status bar, inspector and legend
//   - heat.go: color schemes
//   - scrub.go: archived frame navigation and the frame file panel
//   - theme.go, style_helpers.go: palettes and background-safe rendering
//   - keys.go, help.go: key bindings and the help overlay
package ui
