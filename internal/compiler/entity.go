package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/animeval/internal/anim"
	"github.com/roach88/animeval/internal/host"
	"github.com/roach88/animeval/internal/scene"
)

var slotKinds = map[string]host.SlotKind{
	"float": host.SlotFloat,
	"int":   host.SlotInt,
	"bool":  host.SlotBool,
	"enum":  host.SlotEnum,
}

// compileEntity adds one entity to the world and its properties to the
// scene:
//
//	Cube: {
//		kind: "object"
//		parent: "Root"
//		props: {location: [0, 0, 0], visible: {type: "bool", values: [1]}}
//		bones: Arm: {parent: "", rotation_mode: "quaternion"}
//		action: "Wave"
//		tracks: [{name: "Base", strips: [{clip: "Idle", start: 1}]}]
//		drivers: [{path: "scale", index: 0, type: "sum", variables: [...]}]
//		overrides: [{path: "location", index: 0, value: 2}]
//	}
func (d *Document) compileEntity(id string, v cue.Value) error {
	kindName, err := optString(v, "kind", "object")
	if err != nil {
		return err
	}
	kind, ok := anim.ParseEntityKind(kindName)
	if !ok {
		return &CompileError{
			Field:   "kind",
			Message: fmt.Sprintf("entity %q: unknown kind %q", id, kindName),
			Pos:     field(v, "kind").Pos(),
		}
	}
	if d.World.Find(id) != nil {
		return &CompileError{Field: "entity", Message: fmt.Sprintf("duplicate entity %q", id), Pos: v.Pos()}
	}

	parent, err := optString(v, "parent", "")
	if err != nil {
		return err
	}
	obj := d.Scene.AddObject(id, parent)
	if err := compileNode(obj.Node, v); err != nil {
		return err
	}
	if bones := field(v, "bones"); bones.Exists() {
		iter, err := bones.Fields()
		if err != nil {
			return formatCUEError(err)
		}
		for iter.Next() {
			bparent, err := optString(iter.Value(), "parent", "")
			if err != nil {
				return err
			}
			if err := compileNode(obj.AddBone(iter.Label(), bparent), iter.Value()); err != nil {
				return err
			}
		}
	}

	ent := &anim.Entity{ID: id, Kind: kind}
	ad, err := d.compileAnimData(id, v)
	if err != nil {
		return err
	}
	ent.Anim = ad
	d.World.Add(ent)
	return nil
}

// compileNode applies rotation_mode and props to an object or bone.
func compileNode(n *scene.Node, v cue.Value) error {
	if f := field(v, "rotation_mode"); f.Exists() {
		s, err := f.String()
		if err != nil {
			return fieldError("rotation_mode", f, err)
		}
		mode, ok := anim.ParseRotationMode(s)
		if !ok {
			return &CompileError{Field: "rotation_mode", Message: fmt.Sprintf("unknown rotation mode %q", s), Pos: f.Pos()}
		}
		n.Rotation = mode
	}

	props := field(v, "props")
	if !props.Exists() {
		return nil
	}
	iter, err := props.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		pv := iter.Value()
		kind := host.SlotFloat
		values := pv
		if pv.IncompleteKind() == cue.StructKind {
			tname, err := optString(pv, "type", "float")
			if err != nil {
				return err
			}
			k, ok := slotKinds[tname]
			if !ok {
				return &CompileError{Field: "props.type", Message: fmt.Sprintf("unknown property type %q", tname), Pos: field(pv, "type").Pos()}
			}
			kind = k
			values = field(pv, "values")
			if !values.Exists() {
				values = field(pv, "value")
			}
		}
		vals := []float64{0}
		if values.Exists() {
			if vals, err = floats(values); err != nil {
				return err
			}
		}
		n.AddProperty(iter.Label(), kind, vals...)
	}
	return nil
}

// compileAnimData returns nil for entities without any animation fields.
func (d *Document) compileAnimData(id string, v cue.Value) (*anim.AnimData, error) {
	present := false
	for _, f := range []string{"action", "tracks", "drivers", "overrides", "nla_off"} {
		if field(v, f).Exists() {
			present = true
		}
	}
	if !present {
		return nil, nil
	}

	ad := &anim.AnimData{Recalc: anim.RecalcAll}
	if f := field(v, "action"); f.Exists() {
		name, err := f.String()
		if err != nil {
			return nil, fieldError("action", f, err)
		}
		ad.Action = d.Clips[name]
		if ad.Action == nil {
			d.issue(ErrUnknownClip, fmt.Sprintf("entity.%s.action", id), fmt.Sprintf("unknown clip %q", name), f.Pos())
		}
	}
	var err error
	if ad.NLAOff, err = optBool(v, "nla_off", false); err != nil {
		return nil, err
	}

	if tracks := field(v, "tracks"); tracks.Exists() {
		if ad.Tracks, err = d.compileTracks(fmt.Sprintf("entity.%s.tracks", id), tracks); err != nil {
			return nil, err
		}
		for _, t := range ad.Tracks {
			if t.Solo {
				ad.SoloMode = true
			}
			if t.Active {
				ad.ActTrack = t
			}
		}
	}

	if drivers := field(v, "drivers"); drivers.Exists() {
		iter, err := drivers.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			if err := d.compileDriver(fmt.Sprintf("entity.%s.drivers[%d]", id, i), ad, iter.Value()); err != nil {
				return nil, err
			}
		}
	}

	if overrides := field(v, "overrides"); overrides.Exists() {
		iter, err := overrides.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			ov := iter.Value()
			path, err := optString(ov, "path", "")
			if err != nil {
				return nil, err
			}
			index, err := optInt(ov, "index", 0)
			if err != nil {
				return nil, err
			}
			value, err := optFloat(ov, "value", 0)
			if err != nil {
				return nil, err
			}
			ad.SetOverride(path, index, value)
		}
	}
	return ad, nil
}

func (d *Document) compileDriver(at string, ad *anim.AnimData, v cue.Value) error {
	path, err := optString(v, "path", "")
	if err != nil {
		return err
	}
	if path == "" {
		return &CompileError{Field: "path", Message: at + ": driver path is required", Pos: v.Pos()}
	}
	index, err := optInt(v, "index", 0)
	if err != nil {
		return err
	}
	kindName, err := optString(v, "type", "average")
	if err != nil {
		return err
	}
	kind, ok := anim.ParseDriverKind(kindName)
	if !ok {
		return &CompileError{Field: "type", Message: fmt.Sprintf("%s: unknown driver type %q", at, kindName), Pos: field(v, "type").Pos()}
	}
	expression, err := optString(v, "expression", "")
	if err != nil {
		return err
	}
	drv := anim.NewDriver(kind, expression)

	if vars := field(v, "variables"); vars.Exists() {
		iter, err := vars.List()
		if err != nil {
			return formatCUEError(err)
		}
		for i := 0; iter.Next(); i++ {
			if err := d.compileVariable(fmt.Sprintf("%s.variables[%d]", at, i), drv, iter.Value()); err != nil {
				return err
			}
		}
	}
	ad.AddDriver(path, index, drv)
	return nil
}

func (d *Document) compileVariable(at string, drv *anim.Driver, v cue.Value) error {
	name, err := optString(v, "name", "")
	if err != nil {
		return err
	}
	kindName, err := optString(v, "kind", "single_property")
	if err != nil {
		return err
	}
	kind, ok := anim.ParseVarKind(kindName)
	if !ok {
		return &CompileError{Field: "kind", Message: fmt.Sprintf("%s: unknown variable kind %q", at, kindName), Pos: field(v, "kind").Pos()}
	}
	dv := drv.AddVariable(name, kind)

	targets := field(v, "targets")
	if !targets.Exists() {
		d.issue(ErrVariableArity, at, fmt.Sprintf("%s needs %d target(s), has 0", kind, kind.Arity()), v.Pos())
		return nil
	}
	iter, err := targets.List()
	if err != nil {
		return formatCUEError(err)
	}
	n := 0
	for ; iter.Next(); n++ {
		if n >= len(dv.Targets) {
			continue
		}
		if err := compileTarget(&dv.Targets[n], iter.Value()); err != nil {
			return err
		}
	}
	if n != kind.Arity() {
		d.issue(ErrVariableArity, at, fmt.Sprintf("%s needs %d target(s), has %d", kind, kind.Arity(), n), targets.Pos())
	}
	return nil
}

func compileTarget(t *anim.DriverTarget, v cue.Value) error {
	var err error
	if t.Entity, err = optString(v, "entity", ""); err != nil {
		return err
	}
	if t.SubPart, err = optString(v, "bone", ""); err != nil {
		return err
	}
	if t.Path, err = optString(v, "path", ""); err != nil {
		return err
	}
	if t.Index, err = optInt(v, "index", 0); err != nil {
		return err
	}
	if f := field(v, "channel"); f.Exists() {
		s, err := f.String()
		if err != nil {
			return fieldError("channel", f, err)
		}
		c, ok := anim.ParseTransformChannel(s)
		if !ok {
			return &CompileError{Field: "channel", Message: fmt.Sprintf("unknown transform channel %q", s), Pos: f.Pos()}
		}
		t.TransformChannel = c
	}
	mode, err := optString(v, "rotation_mode", "")
	if err != nil {
		return err
	}
	rm, ok := anim.ParseRotationMode(mode)
	if !ok {
		return &CompileError{Field: "rotation_mode", Message: fmt.Sprintf("unknown rotation mode %q", mode), Pos: field(v, "rotation_mode").Pos()}
	}
	t.RotationMode = rm
	space, err := optString(v, "space", "world")
	if err != nil {
		return err
	}
	sp, ok := anim.ParseSpace(space)
	if !ok {
		return &CompileError{Field: "space", Message: fmt.Sprintf("unknown space %q", space), Pos: field(v, "space").Pos()}
	}
	t.Space = sp
	return nil
}
