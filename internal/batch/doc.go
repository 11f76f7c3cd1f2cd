// Package batch implements the background processing engine for tone
// recommendation jobs. It provides a FIFO submission queue, a single
// worker loop that drains it, and dual status tracking across an
// in-memory cache for active jobs and the durable store for history.
package batch
