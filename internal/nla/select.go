package nla

import (
	"math"

	"github.com/roach88/animeval/internal/anim"
)

// State is where the evaluation time falls relative to a selected strip.
type State int

const (
	StateWithin State = iota
	StateBefore
	StateAfter
	// StateTransitionStart and StateTransitionEnd mark the two flanks of a
	// transition being evaluated.
	StateTransitionStart
	StateTransitionEnd
)

var stateNames = [...]string{"within", "before", "after", "transition_start", "transition_end"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// EvalStrip is a strip chosen for evaluation with its computed controls.
type EvalStrip struct {
	Strip *anim.Strip
	Track *anim.Track
	// Index is the strip's position in Track.
	Index int
	State State
	// Time is the strip-local evaluation time: clip time for clip strips,
	// the window fraction for transitions and meta strips.
	Time      float64
	Influence float64
}

// SelectStrip picks the strip of track that contributes at time t. The
// first strip whose inclusive range contains t wins. Otherwise a strip whose
// extend mode holds on the facing side is used with t clamped to its
// boundary. Muted strips and strips with no influence are never selected.
func (e *Evaluator) SelectStrip(track *anim.Track, t float64) *EvalStrip {
	strips := track.Strips
	idx := -1
	state := StateWithin
	for i, s := range strips {
		if t < s.Start {
			if i == 0 {
				if s.ExtendBefore == anim.ExtendHold {
					idx, state = 0, StateBefore
				}
			} else if strips[i-1].ExtendAfter == anim.ExtendHold {
				idx, state = i-1, StateAfter
			}
			break
		}
		if t <= s.End {
			idx = i
			break
		}
		if i == len(strips)-1 && s.ExtendAfter == anim.ExtendHold {
			idx, state = i, StateAfter
		}
	}
	if idx < 0 {
		return nil
	}

	s := strips[idx]
	switch state {
	case StateBefore:
		t = s.Start
	case StateAfter:
		t = s.End
	}
	if s.Muted {
		return nil
	}
	time, inf := e.controls(s, t)
	if inf <= 0 {
		return nil
	}
	return &EvalStrip{Strip: s, Track: track, Index: idx, State: state, Time: time, Influence: inf}
}

// controls computes the strip-local time and influence at global time t.
func (e *Evaluator) controls(s *anim.Strip, t float64) (time, influence float64) {
	if s.UseInfluenceCurve {
		influence = s.Influence
		if s.InfluenceCurve != nil && e.Sampler != nil {
			influence = e.Sampler.Sample(s.InfluenceCurve, t)
		}
	} else {
		influence = Influence(s, t)
	}

	if s.UseTimeCurve {
		time = s.StripTime
		if s.TimeCurve != nil && e.Sampler != nil {
			time = e.Sampler.Sample(s.TimeCurve, t)
		}
		if s.CyclicTime {
			if span := s.ClipEnd - s.ClipStart; span > 0 {
				time = s.ClipStart + floorMod(time-s.ClipStart, span)
			}
		}
		return time, influence
	}
	return StripTime(s, t), influence
}

// Influence returns the analytic influence of s at t: a linear ramp over the
// blend-in window at the start, over the blend-out window at the end, and 1
// in between.
func Influence(s *anim.Strip, t float64) float64 {
	in, out := math.Abs(s.BlendIn), math.Abs(s.BlendOut)
	if in != 0 && t <= s.Start+in {
		return math.Abs(t-s.Start) / in
	}
	if out != 0 && t >= s.End-out {
		return math.Abs(s.End-t) / out
	}
	return 1
}

// StripTime maps global time t into s. Clip strips map to clip-local time,
// honoring scale, repeat and reverse. Transitions and meta strips map to the
// fraction of their window.
func StripTime(s *anim.Strip, t float64) float64 {
	switch s.Kind {
	case anim.StripClip:
		return clipTime(s, t)
	case anim.StripTransition:
		return fraction(s.Start, s.End, t)
	default:
		if s.Reverse {
			return fraction(s.Start, s.End, s.Start+s.End-t)
		}
		return fraction(s.Start, s.End, t)
	}
}

func fraction(start, end, t float64) float64 {
	if end <= start {
		return 0
	}
	return (t - start) / (end - start)
}

func scaleAndLength(s *anim.Strip) (scale, length float64) {
	scale = math.Abs(s.Scale)
	if scale == 0 {
		scale = 1
	}
	length = s.ClipEnd - s.ClipStart
	if length == 0 {
		length = 1
	}
	return scale, length
}

func clipTime(s *anim.Strip, t float64) float64 {
	scale, length := scaleAndLength(s)
	repeat := s.Repeat
	if repeat == 0 {
		repeat = 1
	}
	// At the strip end with whole repeats, hold the last clip frame instead
	// of wrapping to the first.
	atEnd := t == s.End && repeat == math.Floor(repeat)
	offset := math.Mod(t-s.Start, length*scale) / scale
	if s.Reverse {
		if atEnd {
			return s.ClipStart
		}
		return s.ClipEnd - offset
	}
	if atEnd {
		return s.ClipEnd
	}
	return s.ClipStart + offset
}

// LocalTime converts global time t into the clip time of s without repeat
// wrapping. It is used to play a tweaked strip's clip in place.
func LocalTime(s *anim.Strip, t float64) float64 {
	scale, _ := scaleAndLength(s)
	if s.Reverse {
		return (s.End + (s.ClipStart*scale - t)) / scale
	}
	return s.ClipStart + (t-s.Start)/scale
}

// remapTime applies strip time modifiers in order.
func remapTime(s *anim.Strip, mods []anim.StripModifier, t float64) float64 {
	for _, m := range mods {
		if m.Muted {
			continue
		}
		switch m.Kind {
		case anim.StripModStepped:
			if m.Step > 0 {
				t = math.Trunc((t-m.Offset)/m.Step)*m.Step + m.Offset
			}
		case anim.StripModCycles:
			if span := s.ClipEnd - s.ClipStart; span > 0 {
				t = s.ClipStart + floorMod(t-s.ClipStart, span)
			}
		}
	}
	return t
}

func floorMod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m < 0 {
		m += b
	}
	return m
}
