// Package harness runs conformance scenarios against the evaluation engine.
//
// A scenario names a scene file, the frames to evaluate and assertions about
// property values and driver state at those frames.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: wave_rises
//	description: "Cube rises along Z while the lamp follows the control"
//	scene: ../scenes/wave.cue
//	frames: [1, 12, 24]
//	entities: [Cube]
//	assertions:
//	  - type: value
//	    frame: 24
//	    entity: Cube
//	    path: location
//	    index: 2
//	    expect: 2
//	    tolerance: 1e-6
//	  - type: driver_valid
//	    frame: 24
//	    entity: Lamp
//	    path: location
//
// The scene path is relative to the scenario file. When frames is omitted
// the scene's own frame range is evaluated, stepping by step (default 1).
// Frames are evaluated in the order given, and each assertion is checked
// right after its frame is evaluated.
//
// # Assertion Types
//
//   - value: the property element equals expect, within tolerance
//   - driver_invalid: the driver on the property element has been invalidated
//   - driver_valid: the driver on the property element is still valid
//
// # Deterministic Testing
//
// Each run compiles the scene afresh, evaluates with the reference host
// capabilities and a fresh evaluation clock, and logs nowhere. Snapshots of
// the sampled values are canonical JSON, so golden files compare byte for
// byte across runs and platforms.
package harness
