// Package anim holds the animation data model evaluated by the engine:
// curve channels, drivers, clips and their groups, NLA tracks and strips,
// and the per-entity AnimData that ties them together.
//
// The package owns the structural editing rules of the model (group
// splicing, clip duplication, strip placement, tweak mode) but performs no
// evaluation. Evaluation lives in the driver, nla and engine packages.
//
// Key invariants:
//   - Within a Clip, the channels of every Group form one contiguous range,
//     ordered by Group order. Ranges are recomputed after every edit.
//   - A Track's strips are sorted by start frame and never overlap.
//   - A DriverVariable always has exactly as many targets as its kind needs.
//   - A Driver's compiled expression is installed by compare-and-swap and is
//     never mutated in place.
package anim
