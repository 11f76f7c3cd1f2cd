// Package generation defines the tone generation boundary between the
// batch engine and external AI/metadata services.
package generation
