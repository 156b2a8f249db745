package anim

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrStripOverlap is returned when a strip would overlap another strip
	// on the same track.
	ErrStripOverlap = errors.New("strip overlaps an existing strip")
	// ErrNoGap is returned when a transition is requested between strips
	// that touch.
	ErrNoGap = errors.New("no gap between strips")
	// ErrBadTransition is returned when a transition would not sit between
	// two non-transition strips.
	ErrBadTransition = errors.New("transition needs a non-transition strip on both sides")
)

// StripKind identifies what a strip evaluates.
type StripKind int

const (
	StripClip StripKind = iota
	StripTransition
	StripMeta
)

var stripKindNames = [...]string{"clip", "transition", "meta"}

func (k StripKind) String() string {
	if k < 0 || int(k) >= len(stripKindNames) {
		return "unknown"
	}
	return stripKindNames[k]
}

// ParseStripKind parses "clip", "transition" or "meta".
func ParseStripKind(s string) (StripKind, bool) {
	for i, n := range stripKindNames {
		if n == s {
			return StripKind(i), true
		}
	}
	return StripClip, false
}

// BlendMode selects how a strip's values combine with the layers below.
type BlendMode int

const (
	BlendReplace BlendMode = iota
	BlendAdd
	BlendSubtract
	BlendMultiply
	BlendCombine
)

var blendModeNames = [...]string{"replace", "add", "subtract", "multiply", "blend"}

func (m BlendMode) String() string {
	if m < 0 || int(m) >= len(blendModeNames) {
		return "unknown"
	}
	return blendModeNames[m]
}

// ParseBlendMode parses "replace", "add", "subtract", "multiply" or "blend".
func ParseBlendMode(s string) (BlendMode, bool) {
	for i, n := range blendModeNames {
		if n == s {
			return BlendMode(i), true
		}
	}
	return BlendReplace, false
}

// Extend selects what a strip does outside its frame range on one side.
type Extend int

const (
	ExtendNone Extend = iota
	ExtendHold
)

// ParseExtend parses "none" or "hold".
func ParseExtend(s string) (Extend, bool) {
	switch s {
	case "none":
		return ExtendNone, true
	case "hold":
		return ExtendHold, true
	}
	return ExtendNone, false
}

// StripModifierKind identifies a strip time modifier.
type StripModifierKind int

const (
	// StripModStepped holds strip time on multiples of Step offset by Offset.
	StripModStepped StripModifierKind = iota
	// StripModCycles wraps strip time into the clip window.
	StripModCycles
)

// StripModifier remaps a strip's local time.
type StripModifier struct {
	Kind   StripModifierKind
	Step   float64
	Offset float64
	Muted  bool
}

// Strip is one placed block on an NLA track.
type Strip struct {
	Name string
	Kind StripKind

	Start, End float64

	// ClipStart and ClipEnd are the local window of the referenced clip.
	// For meta strips they map the strip onto the nested tracks' time.
	ClipStart, ClipEnd float64
	Scale              float64
	Repeat             float64

	BlendMode BlendMode
	BlendIn   float64
	BlendOut  float64

	ExtendBefore Extend
	ExtendAfter  Extend

	Influence         float64
	UseInfluenceCurve bool
	InfluenceCurve    *CurveChannel

	StripTime    float64
	UseTimeCurve bool
	TimeCurve    *CurveChannel
	CyclicTime   bool

	Reverse bool
	Muted   bool
	Active  bool

	Clip      *Clip
	Tracks    []*Track
	Modifiers []StripModifier
}

// NewClipStrip creates a strip playing clip once from start, with its local
// window set to the clip's keyed range.
func NewClipStrip(clip *Clip, start float64) *Strip {
	s := &Strip{
		Kind:        StripClip,
		Start:       start,
		Scale:       1,
		Repeat:      1,
		ExtendAfter: ExtendHold,
		Influence:   1,
		Clip:        clip,
	}
	if clip != nil {
		s.Name = clip.Name
		s.ClipStart, s.ClipEnd = clip.FrameRange()
	} else {
		s.ClipStart, s.ClipEnd = 0, 1
	}
	s.RecalcBounds()
	return s
}

// NewMetaStrip wraps tracks in a meta strip spanning their strips.
func NewMetaStrip(name string, tracks ...*Track) *Strip {
	s := &Strip{
		Name:      name,
		Kind:      StripMeta,
		Scale:     1,
		Repeat:    1,
		Influence: 1,
		Tracks:    tracks,
	}
	first := true
	for _, t := range tracks {
		for _, c := range t.Strips {
			if first {
				s.Start, s.End = c.Start, c.End
				first = false
				continue
			}
			s.Start = min(s.Start, c.Start)
			s.End = max(s.End, c.End)
		}
	}
	s.ClipStart, s.ClipEnd = s.Start, s.End
	return s
}

// RecalcBounds recomputes End for clip strips from the local window, scale
// and repeat.
func (s *Strip) RecalcBounds() {
	if s.Kind != StripClip {
		return
	}
	length := s.ClipEnd - s.ClipStart
	if length == 0 {
		length = 1
	}
	scale := s.Scale
	if scale == 0 {
		scale = 1
	}
	repeat := s.Repeat
	if repeat == 0 {
		repeat = 1
	}
	s.End = s.Start + length*scale*repeat
}

// Length returns End - Start.
func (s *Strip) Length() float64 {
	return s.End - s.Start
}

func (s *Strip) String() string {
	return fmt.Sprintf("%s %q [%g, %g]", s.Kind, s.Name, s.Start, s.End)
}

// Track is one layer of the NLA stack. Strips are sorted by Start and do not
// overlap.
type Track struct {
	Name     string
	Strips   []*Strip
	Muted    bool
	Solo     bool
	Disabled bool
	Active   bool
}

// AddStrip inserts s in start order. Strips may touch but not overlap.
func (t *Track) AddStrip(s *Strip) error {
	for _, o := range t.Strips {
		if s.Start < o.End && o.Start < s.End {
			return fmt.Errorf("add %s to track %q: %w", s, t.Name, ErrStripOverlap)
		}
	}
	i := sort.Search(len(t.Strips), func(i int) bool {
		return t.Strips[i].Start >= s.Start
	})
	t.Strips = append(t.Strips, nil)
	copy(t.Strips[i+1:], t.Strips[i:])
	t.Strips[i] = s
	return nil
}

// AddTransition inserts a transition filling the gap after the strip at
// index i.
func (t *Track) AddTransition(i int) (*Strip, error) {
	if i < 0 || i+1 >= len(t.Strips) {
		return nil, fmt.Errorf("transition after strip %d on track %q: %w", i, t.Name, ErrBadTransition)
	}
	prev, next := t.Strips[i], t.Strips[i+1]
	if prev.Kind == StripTransition || next.Kind == StripTransition {
		return nil, fmt.Errorf("transition after strip %d on track %q: %w", i, t.Name, ErrBadTransition)
	}
	if next.Start <= prev.End {
		return nil, fmt.Errorf("transition after strip %d on track %q: %w", i, t.Name, ErrNoGap)
	}
	tr := &Strip{
		Name:      "Transition",
		Kind:      StripTransition,
		Start:     prev.End,
		End:       next.Start,
		Scale:     1,
		Repeat:    1,
		Influence: 1,
	}
	if err := t.AddStrip(tr); err != nil {
		return nil, err
	}
	return tr, nil
}

// StripIndex returns the index of s in the track, or -1.
func (t *Track) StripIndex(s *Strip) int {
	for i, x := range t.Strips {
		if x == s {
			return i
		}
	}
	return -1
}

// Siblings returns the strips immediately before and after index i.
func (t *Track) Siblings(i int) (prev, next *Strip) {
	if i > 0 {
		prev = t.Strips[i-1]
	}
	if i+1 < len(t.Strips) {
		next = t.Strips[i+1]
	}
	return prev, next
}

// ActiveStrip returns the strip flagged Active.
func (t *Track) ActiveStrip() *Strip {
	for _, s := range t.Strips {
		if s.Active {
			return s
		}
	}
	return nil
}
