// Package attention computes windowed and block-sparse softmax attention over
// key/value buffers placed through a tiered memory manager.
//
// The engine owns its memtier.Manager. It charges key and value buffers
// against the manager, triggers prefetch migrations when they land on the
// slow tier, and then runs the numerical kernel on the caller's slices as if
// they were resident. The manager is bookkeeping only; no bytes are copied.
//
// Engines are synchronous and single-writer. Use one engine per goroutine.
package attention
