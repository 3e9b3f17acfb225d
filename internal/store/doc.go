// Package store holds the conversation history an engine owns for the
// lifetime of one instance. History is never shared across engines and is
// discarded when the engine is closed.
package store
