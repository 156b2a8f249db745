// Package engine is the evaluation orchestrator.
//
// For one entity a pass runs in a fixed order, each stage winning over the
// previous one:
//
//  1. Animation: the NLA stack, then the active clip as an implicit Replace
//     layer on top, flushed once through the property resolver.
//  2. Drivers: each driver channel is evaluated and written directly.
//  3. Overrides: literal user values, applied on every pass.
//
// The entity's recalculation flags are cleared at the end of the pass.
//
// EvaluateEntity is safe for concurrent calls on distinct entities. The only
// shared mutable state is each driver's compiled expression cache and the
// process-wide lock around full expression evaluation.
//
// Player runs the scene update loop: updates are queued in FIFO order and a
// single goroutine evaluates the whole world for each of them, stamping
// every pass with a logical sequence number from Clock.
package engine
