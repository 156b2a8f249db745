package anim

import (
	"errors"
	"fmt"
)

// ErrNoActiveStrip is returned by EnterTweakMode when no active strip with a
// clip can be found.
var ErrNoActiveStrip = errors.New("no active strip to tweak")

// RecalcFlags mark which parts of an entity's animation need evaluation.
type RecalcFlags uint8

const (
	RecalcAnim RecalcFlags = 1 << iota
	RecalcDrivers

	RecalcAll = RecalcAnim | RecalcDrivers
)

// Override pins a property to a fixed value after all animation is applied.
type Override struct {
	Path  string
	Index int
	Value float64
}

// AnimData is the animation attached to one entity.
type AnimData struct {
	// Action is the active clip, evaluated on top of the NLA stack.
	Action *Clip
	// TmpAction stores Action while tweak mode substitutes the tweaked
	// strip's clip.
	TmpAction *Clip

	Tracks    []*Track
	Drivers   []*CurveChannel
	Overrides []Override

	SoloMode  bool
	NLAOff    bool
	TweakMode bool

	ActTrack *Track
	ActStrip *Strip

	Recalc RecalcFlags
}

// AddTrack appends a track on top of the stack.
func (ad *AnimData) AddTrack(name string) *Track {
	t := &Track{Name: name}
	ad.Tracks = append(ad.Tracks, t)
	return t
}

// SetSolo makes t the only solo track, or clears solo when on is false.
func (ad *AnimData) SetSolo(t *Track, on bool) {
	for _, x := range ad.Tracks {
		x.Solo = false
	}
	if t != nil && on {
		t.Solo = true
		ad.SoloMode = true
		return
	}
	ad.SoloMode = false
}

// AddDriver appends a driver channel for path and index.
func (ad *AnimData) AddDriver(path string, index int, d *Driver) *CurveChannel {
	ch := &CurveChannel{Path: path, Index: index, Driver: d}
	ad.Drivers = append(ad.Drivers, ch)
	return ch
}

// SetOverride pins path[index] to value, replacing an existing override.
func (ad *AnimData) SetOverride(path string, index int, value float64) {
	for i := range ad.Overrides {
		if ad.Overrides[i].Path == path && ad.Overrides[i].Index == index {
			ad.Overrides[i].Value = value
			return
		}
	}
	ad.Overrides = append(ad.Overrides, Override{Path: path, Index: index, Value: value})
}

// ClearOverride removes the override for path[index].
func (ad *AnimData) ClearOverride(path string, index int) {
	for i := range ad.Overrides {
		if ad.Overrides[i].Path == path && ad.Overrides[i].Index == index {
			ad.Overrides = append(ad.Overrides[:i], ad.Overrides[i+1:]...)
			return
		}
	}
}

// Tag marks parts of the animation dirty.
func (ad *AnimData) Tag(flags RecalcFlags) {
	ad.Recalc |= flags
}

// EnterTweakMode substitutes the active strip's clip as the active clip so it
// can be edited in place. The active track and every track above it are
// disabled. The active track is ActTrack or the track flagged Active; the
// active strip is ActStrip or that track's Active strip.
func (ad *AnimData) EnterTweakMode() error {
	if ad.TweakMode {
		return nil
	}
	track := ad.ActTrack
	if track == nil {
		for _, t := range ad.Tracks {
			if t.Active {
				track = t
			}
		}
	}
	if track == nil {
		return ErrNoActiveStrip
	}
	strip := ad.ActStrip
	if strip == nil || track.StripIndex(strip) < 0 {
		strip = track.ActiveStrip()
	}
	if strip == nil || strip.Kind != StripClip || strip.Clip == nil {
		return fmt.Errorf("track %q: %w", track.Name, ErrNoActiveStrip)
	}

	disable := false
	for _, t := range ad.Tracks {
		if t == track {
			disable = true
		}
		if disable {
			t.Disabled = true
		}
	}
	ad.TmpAction = ad.Action
	ad.Action = strip.Clip
	ad.ActTrack = track
	ad.ActStrip = strip
	ad.TweakMode = true
	ad.Tag(RecalcAnim)
	return nil
}

// ExitTweakMode restores the stored active clip and re-enables tracks.
func (ad *AnimData) ExitTweakMode() {
	if !ad.TweakMode {
		return
	}
	for _, t := range ad.Tracks {
		t.Disabled = false
	}
	ad.Action = ad.TmpAction
	ad.TmpAction = nil
	ad.ActStrip = nil
	ad.TweakMode = false
	ad.Tag(RecalcAnim)
}
