// Package schedule computes recurring in-game event windows that follow
// cyclic rotations rather than simple daily/weekly clocks.
//
// Two calculators live here:
//   - ocean voyages: 2-hour slots stepping short destination/time cycles from
//     a fixed epoch, precomputed into a 144-slot table
//   - GATE spawns: a fixed 20-minute rotation of candidate events
//
// Everything is a pure function of UTC wall-clock time and compile-time
// constants; nothing is persisted.
package schedule
