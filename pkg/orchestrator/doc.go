// Package orchestrator wires descriptor loading, form transforms, theme
// resolution and rendering behind a single entry point, and hands out
// submission sessions for the same pipeline.
package orchestrator
