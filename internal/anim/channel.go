package anim

import (
	"fmt"
	"sort"
)

// Interpolation selects how a keyframe segment is interpolated towards the
// next key.
type Interpolation int

const (
	InterpLinear Interpolation = iota
	InterpConstant
	InterpEase
)

var interpNames = map[string]Interpolation{
	"linear":   InterpLinear,
	"constant": InterpConstant,
	"ease":     InterpEase,
}

// ParseInterpolation parses "linear", "constant" or "ease".
func ParseInterpolation(s string) (Interpolation, error) {
	if i, ok := interpNames[s]; ok {
		return i, nil
	}
	return InterpLinear, fmt.Errorf("unknown interpolation %q", s)
}

// Extrapolation selects how a channel behaves outside of its keyframe range.
type Extrapolation int

const (
	ExtrapConstant Extrapolation = iota
	ExtrapLinear
)

// Keyframe is one key of a curve channel.
type Keyframe struct {
	Frame  float64
	Value  float64
	Interp Interpolation
	// Ease names the easing function used when Interp is InterpEase,
	// e.g. "InOutQuad".
	Ease string
}

// ChannelModifierKind identifies a channel modifier.
type ChannelModifierKind int

const (
	// ModCycles repeats the keyframe range forever in both directions.
	ModCycles ChannelModifierKind = iota
)

// ChannelModifier is one entry of a channel's modifier stack.
type ChannelModifier struct {
	Kind  ChannelModifierKind
	Muted bool
}

// ChannelID identifies the property a channel animates.
type ChannelID struct {
	Path  string
	Index int
}

func (id ChannelID) String() string {
	return fmt.Sprintf("%s[%d]", id.Path, id.Index)
}

// CurveChannel is one animated scalar: a property path plus array index,
// its keyframes and modifiers, and an optional driver.
type CurveChannel struct {
	Path  string
	Index int

	Keyframes     []Keyframe
	Extrapolation Extrapolation
	Modifiers     []ChannelModifier

	// Group is the group this channel belongs to within its clip, or nil.
	Group *Group

	Muted    bool
	Disabled bool

	// Driver is set for driver channels (those listed in AnimData.Drivers).
	Driver *Driver
}

// NewChannel creates a channel with the given keys sorted by frame.
func NewChannel(path string, index int, keys ...Keyframe) *CurveChannel {
	ch := &CurveChannel{Path: path, Index: index}
	for _, k := range keys {
		ch.InsertKeyframe(k)
	}
	return ch
}

// ID returns the channel's property identity.
func (c *CurveChannel) ID() ChannelID {
	return ChannelID{Path: c.Path, Index: c.Index}
}

// InsertKeyframe adds k keeping keys sorted by frame. A key already on the
// same frame is replaced.
func (c *CurveChannel) InsertKeyframe(k Keyframe) {
	i := sort.Search(len(c.Keyframes), func(i int) bool {
		return c.Keyframes[i].Frame >= k.Frame
	})
	if i < len(c.Keyframes) && c.Keyframes[i].Frame == k.Frame {
		c.Keyframes[i] = k
		return
	}
	c.Keyframes = append(c.Keyframes, Keyframe{})
	copy(c.Keyframes[i+1:], c.Keyframes[i:])
	c.Keyframes[i] = k
}

// IsEmpty reports whether the channel has neither keys nor modifiers and so
// cannot produce a value on its own.
func (c *CurveChannel) IsEmpty() bool {
	return len(c.Keyframes) == 0 && len(c.Modifiers) == 0
}

// Range returns the first and last keyed frame.
func (c *CurveChannel) Range() (start, end float64, ok bool) {
	if len(c.Keyframes) == 0 {
		return 0, 0, false
	}
	return c.Keyframes[0].Frame, c.Keyframes[len(c.Keyframes)-1].Frame, true
}

// HasModifier reports whether an unmuted modifier of the given kind is
// present.
func (c *CurveChannel) HasModifier(kind ChannelModifierKind) bool {
	for _, m := range c.Modifiers {
		if m.Kind == kind && !m.Muted {
			return true
		}
	}
	return false
}

// Copy returns a deep copy of the channel. The copy has no group; CopyClip
// re-links groups by position.
func (c *CurveChannel) Copy() *CurveChannel {
	out := &CurveChannel{
		Path:          c.Path,
		Index:         c.Index,
		Extrapolation: c.Extrapolation,
		Muted:         c.Muted,
		Disabled:      c.Disabled,
	}
	out.Keyframes = append([]Keyframe(nil), c.Keyframes...)
	out.Modifiers = append([]ChannelModifier(nil), c.Modifiers...)
	if c.Driver != nil {
		out.Driver = c.Driver.Copy()
	}
	return out
}
