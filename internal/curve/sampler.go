// Package curve is the reference keyframe sampler used by the CLI, the
// bake pipeline and the conformance harness. It implements host.CurveSampler.
//
// Segments interpolate per the left key: constant holds, linear lerps, and
// eased keys use a named easing function from tanema/gween. Outside the key
// range the channel extrapolates constant or linear, unless a cycles
// modifier repeats the key range.
package curve

import (
	"math"
	"sort"

	"github.com/tanema/gween/ease"

	"github.com/roach88/animeval/internal/anim"
)

var easings = map[string]ease.TweenFunc{
	"Linear":       ease.Linear,
	"InQuad":       ease.InQuad,
	"OutQuad":      ease.OutQuad,
	"InOutQuad":    ease.InOutQuad,
	"InCubic":      ease.InCubic,
	"OutCubic":     ease.OutCubic,
	"InOutCubic":   ease.InOutCubic,
	"InSine":       ease.InSine,
	"OutSine":      ease.OutSine,
	"InOutSine":    ease.InOutSine,
	"InExpo":       ease.InExpo,
	"OutExpo":      ease.OutExpo,
	"InOutExpo":    ease.InOutExpo,
	"InCirc":       ease.InCirc,
	"OutCirc":      ease.OutCirc,
	"InOutCirc":    ease.InOutCirc,
	"InBack":       ease.InBack,
	"OutBack":      ease.OutBack,
	"InOutBack":    ease.InOutBack,
	"InBounce":     ease.InBounce,
	"OutBounce":    ease.OutBounce,
	"InOutBounce":  ease.InOutBounce,
	"InElastic":    ease.InElastic,
	"OutElastic":   ease.OutElastic,
	"InOutElastic": ease.InOutElastic,
}

// DefaultEase is used for eased keys without an ease name.
const DefaultEase = "InOutQuad"

// LookupEase returns the easing function with the given name. The empty
// name selects DefaultEase.
func LookupEase(name string) (ease.TweenFunc, bool) {
	if name == "" {
		name = DefaultEase
	}
	f, ok := easings[name]
	return f, ok
}

// EaseNames returns the known easing names in sorted order.
func EaseNames() []string {
	names := make([]string, 0, len(easings))
	for n := range easings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Sampler samples curve channels. The zero value is ready to use.
type Sampler struct{}

// Sample evaluates ch at time t. A channel without keys is 0.
func (Sampler) Sample(ch *anim.CurveChannel, t float64) float64 {
	keys := ch.Keyframes
	if len(keys) == 0 {
		return 0
	}
	if len(keys) == 1 {
		return keys[0].Value
	}

	first, last := keys[0], keys[len(keys)-1]
	if ch.HasModifier(anim.ModCycles) && last.Frame > first.Frame {
		span := last.Frame - first.Frame
		t = first.Frame + floorMod(t-first.Frame, span)
	}

	switch {
	case t <= first.Frame:
		if ch.Extrapolation == anim.ExtrapLinear && first.Interp != anim.InterpConstant {
			return first.Value + (t-first.Frame)*slope(keys[0], keys[1])
		}
		return first.Value
	case t >= last.Frame:
		prev := keys[len(keys)-2]
		if ch.Extrapolation == anim.ExtrapLinear && prev.Interp != anim.InterpConstant {
			return last.Value + (t-last.Frame)*slope(prev, last)
		}
		return last.Value
	}

	// keys[i-1].Frame <= t < keys[i].Frame
	i := sort.Search(len(keys), func(i int) bool { return keys[i].Frame > t })
	return segment(keys[i-1], keys[i], t)
}

func segment(a, b anim.Keyframe, t float64) float64 {
	span := b.Frame - a.Frame
	if span <= 0 {
		return b.Value
	}
	switch a.Interp {
	case anim.InterpConstant:
		return a.Value
	case anim.InterpEase:
		f, ok := LookupEase(a.Ease)
		if !ok {
			f = ease.Linear
		}
		return float64(f(float32(t-a.Frame), float32(a.Value), float32(b.Value-a.Value), float32(span)))
	default:
		return a.Value + (b.Value-a.Value)*(t-a.Frame)/span
	}
}

func slope(a, b anim.Keyframe) float64 {
	if b.Frame == a.Frame {
		return 0
	}
	return (b.Value - a.Value) / (b.Frame - a.Frame)
}

func floorMod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m < 0 {
		m += b
	}
	return m
}
