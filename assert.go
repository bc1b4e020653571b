//go:build !biffdebug

package biff

// debugAsserts is false in regular builds: invariant violations are reported
// as errors wrapping ErrInvariant.
const debugAsserts = false
