//go:build biffdebug

package biff

// debugAsserts is true under the biffdebug tag: invariant violations panic at
// the point of detection.
const debugAsserts = true
