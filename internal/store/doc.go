// Package store defines persistence interfaces for the booktone domain
// and a shared transaction helper. Implementations live under
// internal/platform.
package store
