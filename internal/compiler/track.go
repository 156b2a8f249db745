package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/animeval/internal/anim"
)

// compileTracks parses a list of tracks, bottom first. Strips keep their
// declared order; overlaps are reported by Validate rather than rejected
// here.
func (d *Document) compileTracks(at string, v cue.Value) ([]*anim.Track, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var tracks []*anim.Track
	for i := 0; iter.Next(); i++ {
		tv := iter.Value()
		t := &anim.Track{}
		if t.Name, err = optString(tv, "name", fmt.Sprintf("Track.%03d", i)); err != nil {
			return nil, err
		}
		if t.Muted, err = optBool(tv, "muted", false); err != nil {
			return nil, err
		}
		if t.Solo, err = optBool(tv, "solo", false); err != nil {
			return nil, err
		}
		if t.Disabled, err = optBool(tv, "disabled", false); err != nil {
			return nil, err
		}
		if t.Active, err = optBool(tv, "active", false); err != nil {
			return nil, err
		}

		if strips := field(tv, "strips"); strips.Exists() {
			siter, err := strips.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			var bounded []bool
			for j := 0; siter.Next(); j++ {
				s, hasBounds, err := d.compileStrip(fmt.Sprintf("%s[%d].strips[%d]", at, i, j), siter.Value())
				if err != nil {
					return nil, err
				}
				t.Strips = append(t.Strips, s)
				bounded = append(bounded, hasBounds)
			}
			fillTransitions(t, bounded)
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// fillTransitions spans unbounded transitions across the gap between their
// siblings.
func fillTransitions(t *anim.Track, bounded []bool) {
	for i, s := range t.Strips {
		if s.Kind != anim.StripTransition || bounded[i] {
			continue
		}
		prev, next := t.Siblings(i)
		if prev != nil {
			s.Start = prev.End
		}
		if next != nil {
			s.End = next.Start
		}
	}
}

// compileStrip parses one strip. hasBounds reports whether a transition
// declared both start and end.
func (d *Document) compileStrip(at string, v cue.Value) (s *anim.Strip, hasBounds bool, err error) {
	kindName, err := optString(v, "kind", "clip")
	if err != nil {
		return nil, false, err
	}
	kind, ok := anim.ParseStripKind(kindName)
	if !ok {
		return nil, false, &CompileError{Field: "kind", Message: fmt.Sprintf("%s: unknown strip kind %q", at, kindName), Pos: field(v, "kind").Pos()}
	}

	start, err := optFloat(v, "start", 0)
	if err != nil {
		return nil, false, err
	}

	switch kind {
	case anim.StripClip:
		cname, err := optString(v, "clip", "")
		if err != nil {
			return nil, false, err
		}
		clip := d.Clips[cname]
		if clip == nil {
			d.issue(ErrUnknownClip, at+".clip", fmt.Sprintf("unknown clip %q", cname), v.Pos())
		}
		s = anim.NewClipStrip(clip, start)
		if clip == nil {
			s.Name = cname
		}
		if s.ClipStart, err = optFloat(v, "clip_start", s.ClipStart); err != nil {
			return nil, false, err
		}
		if s.ClipEnd, err = optFloat(v, "clip_end", s.ClipEnd); err != nil {
			return nil, false, err
		}
		if s.Scale, err = optFloat(v, "scale", s.Scale); err != nil {
			return nil, false, err
		}
		if s.Repeat, err = optFloat(v, "repeat", s.Repeat); err != nil {
			return nil, false, err
		}
		s.RecalcBounds()

	case anim.StripTransition:
		s = &anim.Strip{Name: "Transition", Kind: anim.StripTransition, Scale: 1, Repeat: 1, Influence: 1}
		hasBounds = field(v, "start").Exists() && field(v, "end").Exists()
		s.Start = start
		if s.End, err = optFloat(v, "end", start); err != nil {
			return nil, false, err
		}

	case anim.StripMeta:
		var tracks []*anim.Track
		if tv := field(v, "tracks"); tv.Exists() {
			if tracks, err = d.compileTracks(at+".tracks", tv); err != nil {
				return nil, false, err
			}
		}
		s = anim.NewMetaStrip("Meta", tracks...)
	}

	if s.Name, err = optString(v, "name", s.Name); err != nil {
		return nil, false, err
	}
	if err := compileStripControls(s, v); err != nil {
		return nil, false, err
	}
	return s, hasBounds, nil
}

func compileStripControls(s *anim.Strip, v cue.Value) error {
	var err error
	if f := field(v, "blend"); f.Exists() {
		name, err := f.String()
		if err != nil {
			return fieldError("blend", f, err)
		}
		mode, ok := anim.ParseBlendMode(name)
		if !ok {
			return &CompileError{Field: "blend", Message: fmt.Sprintf("unknown blend mode %q", name), Pos: f.Pos()}
		}
		s.BlendMode = mode
	}
	for _, ext := range []struct {
		name string
		dst  *anim.Extend
	}{{"extend_before", &s.ExtendBefore}, {"extend_after", &s.ExtendAfter}} {
		f := field(v, ext.name)
		if !f.Exists() {
			continue
		}
		name, err := f.String()
		if err != nil {
			return fieldError(ext.name, f, err)
		}
		e, ok := anim.ParseExtend(name)
		if !ok {
			return &CompileError{Field: ext.name, Message: fmt.Sprintf("unknown extend mode %q", name), Pos: f.Pos()}
		}
		*ext.dst = e
	}

	if s.BlendIn, err = optFloat(v, "blend_in", s.BlendIn); err != nil {
		return err
	}
	if s.BlendOut, err = optFloat(v, "blend_out", s.BlendOut); err != nil {
		return err
	}
	if s.Influence, err = optFloat(v, "influence", s.Influence); err != nil {
		return err
	}
	if f := field(v, "influence_curve"); f.Exists() {
		s.InfluenceCurve = anim.NewChannel("influence", 0)
		if err := compileKeys(s.InfluenceCurve, f, anim.InterpLinear, ""); err != nil {
			return err
		}
		s.UseInfluenceCurve = true
	}
	if f := field(v, "time_curve"); f.Exists() {
		s.TimeCurve = anim.NewChannel("strip_time", 0)
		if err := compileKeys(s.TimeCurve, f, anim.InterpLinear, ""); err != nil {
			return err
		}
		s.UseTimeCurve = true
	}
	if s.CyclicTime, err = optBool(v, "cyclic_time", false); err != nil {
		return err
	}
	if s.Reverse, err = optBool(v, "reverse", false); err != nil {
		return err
	}
	if s.Muted, err = optBool(v, "muted", false); err != nil {
		return err
	}
	if s.Active, err = optBool(v, "active", false); err != nil {
		return err
	}

	if mods := field(v, "modifiers"); mods.Exists() {
		iter, err := mods.List()
		if err != nil {
			return formatCUEError(err)
		}
		for iter.Next() {
			mv := iter.Value()
			kind, err := optString(mv, "kind", "")
			if err != nil {
				return err
			}
			var m anim.StripModifier
			switch kind {
			case "stepped":
				m.Kind = anim.StripModStepped
			case "cycles":
				m.Kind = anim.StripModCycles
			default:
				return &CompileError{Field: "modifiers.kind", Message: fmt.Sprintf("unknown strip modifier %q", kind), Pos: mv.Pos()}
			}
			if m.Step, err = optFloat(mv, "step", 1); err != nil {
				return err
			}
			if m.Offset, err = optFloat(mv, "offset", 0); err != nil {
				return err
			}
			if m.Muted, err = optBool(mv, "muted", false); err != nil {
				return err
			}
			s.Modifiers = append(s.Modifiers, m)
		}
	}
	return nil
}
