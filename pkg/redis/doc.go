// Package redis opens a go-redis client from a URL with retries and exposes
// health and shutdown hooks for it.
package redis
