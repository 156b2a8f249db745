package anim

import (
	"sync/atomic"

	"github.com/roach88/animeval/internal/expr"
	"github.com/roach88/animeval/internal/mathx"
)

// DriverKind selects how a driver combines its variables.
type DriverKind int

const (
	DriverAverage DriverKind = iota
	DriverSum
	DriverExpression
	DriverMin
	DriverMax
)

var driverKindNames = [...]string{"average", "sum", "expression", "min", "max"}

func (k DriverKind) String() string {
	if k < 0 || int(k) >= len(driverKindNames) {
		return "unknown"
	}
	return driverKindNames[k]
}

// ParseDriverKind parses the lower-case kind name.
func ParseDriverKind(s string) (DriverKind, bool) {
	for i, n := range driverKindNames {
		if n == s {
			return DriverKind(i), true
		}
	}
	return DriverAverage, false
}

// CompiledExpression is an immutable compile result cached on a Driver.
type CompiledExpression struct {
	// Params is the parameter signature the program was compiled against:
	// "frame" followed by the variable names, joined with commas.
	Params string
	// Program is nil when the expression is outside the restricted grammar
	// and must be handed to the full expression host.
	Program *expr.Program
	// Err holds the restricted compile error when Program is nil.
	Err error
}

// Driver computes a channel value from its variables.
type Driver struct {
	Kind       DriverKind
	Expression string
	Variables  []*DriverVariable

	// Value is the result of the most recent evaluation.
	Value float64

	invalid  atomic.Bool
	compiled atomic.Pointer[CompiledExpression]
}

// NewDriver creates a driver of the given kind.
func NewDriver(kind DriverKind, expression string) *Driver {
	return &Driver{Kind: kind, Expression: expression}
}

// AddVariable appends a variable of the given kind with its targets
// allocated.
func (d *Driver) AddVariable(name string, kind VarKind) *DriverVariable {
	v := &DriverVariable{Name: name}
	v.SetKind(kind)
	d.Variables = append(d.Variables, v)
	return v
}

// FindVariable returns the variable with the given name.
func (d *Driver) FindVariable(name string) *DriverVariable {
	for _, v := range d.Variables {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Invalid reports whether the driver has been marked invalid.
func (d *Driver) Invalid() bool { return d.invalid.Load() }

// MarkInvalid flags the driver. An invalid driver evaluates to zero until it
// is Reset.
func (d *Driver) MarkInvalid() { d.invalid.Store(true) }

// Compiled returns the cached compile result, or nil.
func (d *Driver) Compiled() *CompiledExpression { return d.compiled.Load() }

// InstallCompiled swaps the cached compile result from old to c. It reports
// false when another evaluation installed a result first.
func (d *Driver) InstallCompiled(old, c *CompiledExpression) bool {
	return d.compiled.CompareAndSwap(old, c)
}

// SetExpression replaces the expression source and drops the compiled cache.
func (d *Driver) SetExpression(s string) {
	d.Expression = s
	d.compiled.Store(nil)
}

// Reset clears the invalid flag, the compiled cache and all target flags.
func (d *Driver) Reset() {
	d.invalid.Store(false)
	d.compiled.Store(nil)
	for _, v := range d.Variables {
		for i := range v.Targets {
			v.Targets[i].Flags &^= TargetInvalid
		}
	}
}

// Copy returns a deep copy with a fresh cache. The invalid flag is carried.
func (d *Driver) Copy() *Driver {
	out := &Driver{Kind: d.Kind, Expression: d.Expression, Value: d.Value}
	out.invalid.Store(d.invalid.Load())
	for _, v := range d.Variables {
		nv := *v
		out.Variables = append(out.Variables, &nv)
	}
	return out
}

// VarKind identifies what a driver variable reads.
type VarKind int

const (
	VarSingleProperty VarKind = iota
	VarRotationDifference
	VarLocationDifference
	VarTransformChannel
)

var varKindNames = [...]string{"single_property", "rotation_difference", "location_difference", "transform_channel"}

func (k VarKind) String() string {
	if k < 0 || int(k) >= len(varKindNames) {
		return "unknown"
	}
	return varKindNames[k]
}

// ParseVarKind parses the snake_case kind name.
func ParseVarKind(s string) (VarKind, bool) {
	for i, n := range varKindNames {
		if n == s {
			return VarKind(i), true
		}
	}
	return VarSingleProperty, false
}

// Arity returns the number of targets a variable of this kind uses.
func (k VarKind) Arity() int {
	switch k {
	case VarRotationDifference, VarLocationDifference:
		return 2
	default:
		return 1
	}
}

// NameFlags records why a variable name cannot be used in an expression.
type NameFlags uint16

const (
	NameEmpty NameFlags = 1 << iota
	NameStartsWithNumber
	NameStartsWithUnderscore
	NameHasSpace
	NameHasDot
	NameHasSpecial
	NameReservedKeyword

	// NameInvalid is set whenever any other bit is set.
	NameInvalid
)

// TargetFlags are per-target state bits.
type TargetFlags uint8

const (
	// TargetIDObjectOnly restricts the target to object entities.
	TargetIDObjectOnly TargetFlags = 1 << iota
	// TargetInvalid is set when the target failed to resolve.
	TargetInvalid
)

// Space selects the coordinate space of a transform read.
type Space int

const (
	SpaceWorld Space = iota
	// SpaceTransform is the entity's own transform channels, without parent
	// or constraint effects.
	SpaceTransform
	// SpaceLocal is relative to the parent.
	SpaceLocal
)

var spaceNames = [...]string{"world", "transform", "local"}

func (s Space) String() string {
	if s < 0 || int(s) >= len(spaceNames) {
		return "unknown"
	}
	return spaceNames[s]
}

// ParseSpace parses "world", "transform" or "local".
func ParseSpace(s string) (Space, bool) {
	for i, n := range spaceNames {
		if n == s {
			return Space(i), true
		}
	}
	return SpaceWorld, false
}

// TransformChannel selects the component a transform-channel variable reads.
type TransformChannel int

const (
	LocX TransformChannel = iota
	LocY
	LocZ
	RotX
	RotY
	RotZ
	RotW
	ScaleX
	ScaleY
	ScaleZ
	ScaleAvg
)

var transformChannelNames = [...]string{
	"loc_x", "loc_y", "loc_z",
	"rot_x", "rot_y", "rot_z", "rot_w",
	"scale_x", "scale_y", "scale_z", "scale_avg",
}

func (c TransformChannel) String() string {
	if c < 0 || int(c) >= len(transformChannelNames) {
		return "unknown"
	}
	return transformChannelNames[c]
}

// ParseTransformChannel parses names like "loc_x" and "scale_avg".
func ParseTransformChannel(s string) (TransformChannel, bool) {
	for i, n := range transformChannelNames {
		if n == s {
			return TransformChannel(i), true
		}
	}
	return LocX, false
}

// RotationMode selects how rotation components are reported.
type RotationMode struct {
	// Kind is RotEuler, RotQuaternion or RotAxisAngle.
	Kind RotationKind
	// Order is used when Kind is RotEuler.
	Order mathx.EulerOrder
}

// RotationKind is the representation used for rotation reads.
type RotationKind int

const (
	RotEuler RotationKind = iota
	RotQuaternion
	RotAxisAngle
)

// ParseRotationMode parses "quaternion", "axis_angle" or an euler order such
// as "XYZ". The empty string is euler XYZ.
func ParseRotationMode(s string) (RotationMode, bool) {
	switch s {
	case "", "auto":
		return RotationMode{Kind: RotEuler, Order: mathx.EulerXYZ}, true
	case "quaternion":
		return RotationMode{Kind: RotQuaternion}, true
	case "axis_angle":
		return RotationMode{Kind: RotAxisAngle}, true
	}
	o, err := mathx.ParseEulerOrder(s)
	if err != nil {
		return RotationMode{}, false
	}
	return RotationMode{Kind: RotEuler, Order: o}, true
}

// DriverTarget addresses one input of a driver variable.
type DriverTarget struct {
	Entity  string
	SubPart string
	Path    string
	Index   int

	TransformChannel TransformChannel
	RotationMode     RotationMode
	Space            Space

	Flags TargetFlags
}

// DriverVariable is one named input of a driver.
type DriverVariable struct {
	Name       string
	Kind       VarKind
	Targets    [2]DriverTarget
	NumTargets int

	NameFlags NameFlags

	// Value is the result of the most recent evaluation.
	Value float64
}

// SetKind changes the variable kind, resizing the target list to the kind's
// arity and clearing per-target flags other than TargetIDObjectOnly for
// transform kinds.
func (v *DriverVariable) SetKind(kind VarKind) {
	v.Kind = kind
	v.NumTargets = kind.Arity()
	for i := range v.Targets {
		t := &v.Targets[i]
		if i >= v.NumTargets {
			*t = DriverTarget{}
			continue
		}
		t.Flags = 0
		if kind != VarSingleProperty {
			t.Flags |= TargetIDObjectOnly
		}
	}
}

// ActiveTargets returns the targets in use for the current kind.
func (v *DriverVariable) ActiveTargets() []DriverTarget {
	return v.Targets[:v.NumTargets]
}
