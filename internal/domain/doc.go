// Package domain contains the core entities of the booktone service:
// batch jobs and their work items, the append-only audit and error logs,
// resource metric samples, and the tone recommendations produced for
// each book. Entities validate themselves; persistence lives elsewhere.
package domain
