// Package collision resolves a dragged rectangle to the best drop target.
//
// The algorithms are pure functions of their input. Callers remove invalid
// candidates with Filter before detection.
package collision
