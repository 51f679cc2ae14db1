// Package cache provides a small generic key/value cache with an in-memory
// implementation and a Redis implementation sharing one interface.
//
// GetOrSet collapses concurrent misses for the same key into a single load.
package cache
