package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/animeval/internal/anim"
	"github.com/roach88/animeval/internal/curve"
)

// compileClip parses one clip block:
//
//	Wave: {
//		markers: [{name: "hit", frame: 12}]
//		channels: [{path: "location", index: 2, group: "Transform", keys: [[1, 0], [24, 2]]}]
//	}
func compileClip(name string, v cue.Value) (*anim.Clip, error) {
	clip := anim.NewClip(name)

	if markers := field(v, "markers"); markers.Exists() {
		iter, err := markers.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			m := iter.Value()
			mname, err := optString(m, "name", "")
			if err != nil {
				return nil, err
			}
			frame, err := optFloat(m, "frame", 0)
			if err != nil {
				return nil, err
			}
			clip.Markers = append(clip.Markers, anim.Marker{Name: mname, Frame: frame})
		}
	}

	channels := field(v, "channels")
	if !channels.Exists() {
		return clip, nil
	}
	iter, err := channels.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	groups := make(map[string]*anim.Group)
	for iter.Next() {
		cv := iter.Value()
		ch, err := compileChannel(cv)
		if err != nil {
			return nil, err
		}
		if clip.FindChannel(ch.Path, ch.Index) != nil {
			return nil, &CompileError{
				Field:   "channels",
				Message: fmt.Sprintf("clip %q: duplicate channel %s", name, ch.ID()),
				Pos:     cv.Pos(),
			}
		}
		gname, err := optString(cv, "group", "")
		if err != nil {
			return nil, err
		}
		if gname == "" {
			anim.AddChannel(clip, ch)
			continue
		}
		g, ok := groups[gname]
		if !ok {
			g = anim.AddGroup(clip, gname)
			groups[gname] = g
		}
		anim.AddChannelToGroup(clip, g, ch)
	}
	return clip, nil
}

// compileChannel parses a channel. Keys are [frame, value] pairs or
// {frame, value, interp, ease} structs; the channel's interp and ease are
// the defaults for its keys.
func compileChannel(v cue.Value) (*anim.CurveChannel, error) {
	path, err := optString(v, "path", "")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, &CompileError{Field: "path", Message: "channel path is required", Pos: v.Pos()}
	}
	index, err := optInt(v, "index", 0)
	if err != nil {
		return nil, err
	}
	ch := anim.NewChannel(path, index)

	defInterp, defEase, err := interpolation(v, anim.InterpLinear, "")
	if err != nil {
		return nil, err
	}

	if keys := field(v, "keys"); keys.Exists() {
		if err := compileKeys(ch, keys, defInterp, defEase); err != nil {
			return nil, err
		}
	}

	extrap, err := optString(v, "extrapolation", "constant")
	if err != nil {
		return nil, err
	}
	switch extrap {
	case "constant":
		ch.Extrapolation = anim.ExtrapConstant
	case "linear":
		ch.Extrapolation = anim.ExtrapLinear
	default:
		return nil, &CompileError{
			Field:   "extrapolation",
			Message: fmt.Sprintf("unknown extrapolation %q", extrap),
			Pos:     field(v, "extrapolation").Pos(),
		}
	}

	cycles, err := optBool(v, "cycles", false)
	if err != nil {
		return nil, err
	}
	if cycles {
		ch.Modifiers = append(ch.Modifiers, anim.ChannelModifier{Kind: anim.ModCycles})
	}
	if ch.Muted, err = optBool(v, "muted", false); err != nil {
		return nil, err
	}
	if ch.Disabled, err = optBool(v, "disabled", false); err != nil {
		return nil, err
	}
	return ch, nil
}

func compileKeys(ch *anim.CurveChannel, keys cue.Value, defInterp anim.Interpolation, defEase string) error {
	iter, err := keys.List()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		kv := iter.Value()
		k := anim.Keyframe{Interp: defInterp, Ease: defEase}
		if kv.IncompleteKind() == cue.ListKind {
			pair, err := floats(kv)
			if err != nil {
				return err
			}
			if len(pair) != 2 {
				return &CompileError{Field: "keys", Message: "key must be [frame, value]", Pos: kv.Pos()}
			}
			k.Frame, k.Value = pair[0], pair[1]
		} else {
			if !field(kv, "frame").Exists() {
				return &CompileError{Field: "keys.frame", Message: "key frame is required", Pos: kv.Pos()}
			}
			if k.Frame, err = optFloat(kv, "frame", 0); err != nil {
				return err
			}
			if k.Value, err = optFloat(kv, "value", 0); err != nil {
				return err
			}
			if k.Interp, k.Ease, err = interpolation(kv, defInterp, defEase); err != nil {
				return err
			}
		}
		ch.InsertKeyframe(k)
	}
	return nil
}

// interpolation reads interp and ease. Naming an ease implies ease
// interpolation.
func interpolation(v cue.Value, defInterp anim.Interpolation, defEase string) (anim.Interpolation, string, error) {
	interp := defInterp
	if f := field(v, "interp"); f.Exists() {
		s, err := f.String()
		if err != nil {
			return interp, "", fieldError("interp", f, err)
		}
		if interp, err = anim.ParseInterpolation(s); err != nil {
			return interp, "", &CompileError{Field: "interp", Message: err.Error(), Pos: f.Pos()}
		}
	}
	ease, err := optString(v, "ease", defEase)
	if err != nil {
		return interp, "", err
	}
	if ease != "" && ease != defEase {
		if _, ok := curve.LookupEase(ease); !ok {
			return interp, "", &CompileError{
				Field:   "ease",
				Message: fmt.Sprintf("unknown ease %q", ease),
				Pos:     field(v, "ease").Pos(),
			}
		}
		if !field(v, "interp").Exists() {
			interp = anim.InterpEase
		}
	}
	return interp, ease, nil
}
