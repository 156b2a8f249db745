package driver

import (
	"github.com/roach88/animeval/internal/anim"
	"github.com/roach88/animeval/internal/evalctx"
	"github.com/roach88/animeval/internal/mathx"
)

// EvaluateVariable reads one driver variable. The result is stored in
// dv.Value. A target that fails to resolve is flagged invalid, marks the
// driver invalid and yields 0.
func (e *Evaluator) EvaluateVariable(ec *evalctx.Context, call Call, d *anim.Driver, dv *anim.DriverVariable) float64 {
	var v float64
	if dv.NumTargets < dv.Kind.Arity() {
		d.MarkInvalid()
		ec.Report(evalctx.NewInsufficientTargets(call.Owner, dv.Name, dv.NumTargets, dv.Kind.Arity()))
		dv.Value = 0
		return 0
	}

	switch dv.Kind {
	case anim.VarSingleProperty:
		v = e.singleProperty(ec, call, d, dv)
	case anim.VarRotationDifference:
		v = e.rotationDifference(ec, call, d, dv)
	case anim.VarLocationDifference:
		v = e.locationDifference(ec, call, d, dv)
	case anim.VarTransformChannel:
		v = e.transformChannel(ec, call, d, dv)
	}
	dv.Value = v
	return v
}

func targetEntity(t *anim.DriverTarget, owner string) string {
	if t.Entity != "" {
		return t.Entity
	}
	return owner
}

func (e *Evaluator) singleProperty(ec *evalctx.Context, call Call, d *anim.Driver, dv *anim.DriverVariable) float64 {
	t := &dv.Targets[0]
	entity := targetEntity(t, call.Owner)
	if t.Path == "" || e.Resolver == nil {
		return e.targetFailed(ec, call, d, dv, t, entity)
	}
	slot, ok := e.Resolver.Resolve(entity, t.Path, t.Index)
	if !ok {
		return e.targetFailed(ec, call, d, dv, t, entity)
	}
	t.Flags &^= anim.TargetInvalid
	return slot.Get()
}

func (e *Evaluator) targetFailed(ec *evalctx.Context, call Call, d *anim.Driver, dv *anim.DriverVariable, t *anim.DriverTarget, entity string) float64 {
	t.Flags |= anim.TargetInvalid
	d.MarkInvalid()
	ref := entity
	if t.SubPart != "" {
		ref += "/" + t.SubPart
	}
	if t.Path != "" {
		ref += "." + t.Path
	}
	ec.Report(evalctx.NewInvalidTarget(call.Owner, dv.Name, ref))
	return 0
}

// transforms resolves the transform of every active target in the given
// space (or each target's own space when perTarget is true). It returns false
// after reporting when fewer than all targets resolve.
func (e *Evaluator) transforms(ec *evalctx.Context, call Call, d *anim.Driver, dv *anim.DriverVariable, perTarget bool) ([]mathx.Mat4, bool) {
	out := make([]mathx.Mat4, 0, dv.NumTargets)
	valid := 0
	for i := 0; i < dv.NumTargets; i++ {
		t := &dv.Targets[i]
		space := anim.SpaceWorld
		if perTarget {
			space = t.Space
		}
		var (
			m  mathx.Mat4
			ok bool
		)
		if e.Transforms != nil {
			m, ok = e.Transforms.Transform(targetEntity(t, call.Owner), t.SubPart, space)
		}
		if !ok {
			t.Flags |= anim.TargetInvalid
			continue
		}
		t.Flags &^= anim.TargetInvalid
		out = append(out, m)
		valid++
	}
	if valid < dv.NumTargets {
		d.MarkInvalid()
		ec.Report(evalctx.NewInsufficientTargets(call.Owner, dv.Name, valid, dv.NumTargets))
		return nil, false
	}
	return out, true
}

func (e *Evaluator) rotationDifference(ec *evalctx.Context, call Call, d *anim.Driver, dv *anim.DriverVariable) float64 {
	ms, ok := e.transforms(ec, call, d, dv, false)
	if !ok {
		return 0
	}
	return ms[0].Rotation().AngleTo(ms[1].Rotation())
}

func (e *Evaluator) locationDifference(ec *evalctx.Context, call Call, d *anim.Driver, dv *anim.DriverVariable) float64 {
	ms, ok := e.transforms(ec, call, d, dv, true)
	if !ok {
		return 0
	}
	return ms[0].Translation().Sub(ms[1].Translation()).Length()
}

func (e *Evaluator) transformChannel(ec *evalctx.Context, call Call, d *anim.Driver, dv *anim.DriverVariable) float64 {
	ms, ok := e.transforms(ec, call, d, dv, true)
	if !ok {
		return 0
	}
	return TransformComponent(ms[0], dv.Targets[0].TransformChannel, dv.Targets[0].RotationMode)
}

// TransformComponent extracts one scalar channel from a transform matrix.
// Rotation channels follow mode: euler angles for the given order (RotW is
// 0), quaternion components, or axis-angle (RotW is the angle).
func TransformComponent(m mathx.Mat4, ch anim.TransformChannel, mode anim.RotationMode) float64 {
	switch ch {
	case anim.LocX, anim.LocY, anim.LocZ:
		return m.Translation()[ch-anim.LocX]
	case anim.ScaleX, anim.ScaleY, anim.ScaleZ:
		return m.Scale()[ch-anim.ScaleX]
	case anim.ScaleAvg:
		return m.VolumeScale()
	}

	q := m.Rotation()
	switch mode.Kind {
	case anim.RotQuaternion:
		switch ch {
		case anim.RotW:
			return q.W
		case anim.RotX:
			return q.X
		case anim.RotY:
			return q.Y
		case anim.RotZ:
			return q.Z
		}
	case anim.RotAxisAngle:
		axis, angle := q.AxisAngle()
		if ch == anim.RotW {
			return angle
		}
		return axis[ch-anim.RotX]
	default:
		if ch == anim.RotW {
			return 0
		}
		return q.Euler(mode.Order)[ch-anim.RotX]
	}
	return 0
}
