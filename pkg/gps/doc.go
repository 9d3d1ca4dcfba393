// Package gps assigns grid positions to a built scene.
//
// The canvas is a square grid of GridCells×GridCells cells, each CellSize
// wide. Objects occupy whole blocks of cells, rounded up from their size,
// and are centred inside their block. Row 0 and column 0 are kept for
// top-level variables so every root arrow enters from the top or the left.
//
// Placement is greedy and runs in stages:
//
//  1. Values held by a single top-level variable, along a spiral of
//     interior cells starting at (1, 1).
//  2. Collections with a single reference, in the first row with room.
//     Values held only by one of their slots are stacked below that slot;
//     values with two references follow further down.
//  3. Everything else, first fit in row order.
//  4. Top-level variables, each on the free border cell that makes its
//     arrow shortest.
//
// [Layout] fails with LAYOUT_OVERFLOW when a stage runs out of cells. No
// position is written to the scene unless all stages succeed.
package gps
