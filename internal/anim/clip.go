package anim

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultGroupName is used when AddGroup is called with an empty name.
const DefaultGroupName = "Group"

// Marker is a named frame on a clip.
type Marker struct {
	Name  string
	Frame float64
}

// Group is a named, contiguous run of channels inside a clip.
type Group struct {
	Name     string
	Active   bool
	Muted    bool
	Selected bool
	Expanded bool

	start int
	count int
}

// Range returns the index of the group's first channel and the number of
// channels in it. An empty group reports (-1, 0).
func (g *Group) Range() (start, n int) {
	if g.count == 0 {
		return -1, 0
	}
	return g.start, g.count
}

// Clip is a reusable collection of curve channels.
type Clip struct {
	Name     string
	Channels []*CurveChannel
	Groups   []*Group
	Markers  []Marker
}

// NewClip creates an empty clip.
func NewClip(name string) *Clip {
	return &Clip{Name: name}
}

// AddGroup appends a new group. The name is NFC-normalized, defaulted to
// "Group" and made unique within the clip with a numeric suffix.
func AddGroup(c *Clip, name string) *Group {
	if c == nil {
		return nil
	}
	name = norm.NFC.String(name)
	if name == "" {
		name = DefaultGroupName
	}
	g := &Group{Name: uniqueName(name, c.hasGroup), Selected: true, start: -1}
	c.Groups = append(c.Groups, g)
	return g
}

func (c *Clip) hasGroup(name string) bool {
	return c.FindGroup(name) != nil
}

// uniqueName returns name if unused, otherwise base.001, base.002, ...
// where base is name without an existing numeric suffix.
func uniqueName(name string, exists func(string) bool) string {
	if !exists(name) {
		return name
	}
	base := name
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		if _, err := strconv.Atoi(name[i+1:]); err == nil {
			base = name[:i]
		}
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s.%03d", base, n)
		if !exists(candidate) {
			return candidate
		}
	}
}

// FindGroup returns the group with the given name.
func (c *Clip) FindGroup(name string) *Group {
	name = norm.NFC.String(name)
	for _, g := range c.Groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// FindChannel returns the channel for path and index.
func (c *Clip) FindChannel(path string, index int) *CurveChannel {
	for _, ch := range c.Channels {
		if ch.Path == path && ch.Index == index {
			return ch
		}
	}
	return nil
}

// GroupChannels returns the channels of g in order.
func (c *Clip) GroupChannels(g *Group) []*CurveChannel {
	start, n := g.Range()
	if n == 0 {
		return nil
	}
	return c.Channels[start : start+n]
}

// FrameRange returns the keyed extent of the clip. A clip without keys
// reports [0, 1]; a single-frame clip is widened by one frame.
func (c *Clip) FrameRange() (start, end float64) {
	first := true
	for _, ch := range c.Channels {
		lo, hi, ok := ch.Range()
		if !ok {
			continue
		}
		if first {
			start, end = lo, hi
			first = false
			continue
		}
		start = min(start, lo)
		end = max(end, hi)
	}
	if first {
		return 0, 1
	}
	if end == start {
		end = start + 1
	}
	return start, end
}

// AddChannel appends an ungrouped channel.
func AddChannel(c *Clip, ch *CurveChannel) {
	if c == nil || ch == nil {
		return
	}
	c.unlink(ch)
	ch.Group = nil
	c.Channels = append(c.Channels, ch)
	c.reindex()
}

// AddChannelToGroup places ch into group g, keeping every group's channels
// contiguous. The call is a no-op if any argument is nil or g does not belong
// to the clip. A channel already in the clip is moved.
func AddChannelToGroup(c *Clip, g *Group, ch *CurveChannel) {
	if c == nil || g == nil || ch == nil {
		return
	}
	gi := c.groupIndex(g)
	if gi < 0 {
		return
	}
	c.unlink(ch)
	c.reindex()
	ch.Group = g

	if len(c.Channels) == 0 {
		c.Channels = []*CurveChannel{ch}
		c.reindex()
		return
	}

	var pos int
	if g.count > 0 {
		pos = g.start + g.count
	} else {
		pos = 0
		for j := gi - 1; j >= 0; j-- {
			if prev := c.Groups[j]; prev.count > 0 {
				pos = prev.start + prev.count
				break
			}
		}
	}
	c.insertAt(pos, ch)
	c.reindex()
}

// RemoveChannelFromGroup clears the channel's group membership and unlinks
// it from the clip.
func RemoveChannelFromGroup(c *Clip, ch *CurveChannel) {
	if c == nil || ch == nil {
		return
	}
	ch.Group = nil
	c.unlink(ch)
	c.reindex()
}

// CopyClip returns a deep copy of src. Channel group references are re-linked
// to the copied groups by position.
func CopyClip(src *Clip) *Clip {
	if src == nil {
		return nil
	}
	dst := &Clip{Name: src.Name}
	dst.Markers = append([]Marker(nil), src.Markers...)
	for _, g := range src.Groups {
		dst.Groups = append(dst.Groups, &Group{
			Name:     g.Name,
			Active:   g.Active,
			Muted:    g.Muted,
			Selected: g.Selected,
			Expanded: g.Expanded,
			start:    -1,
		})
	}
	for _, ch := range src.Channels {
		nc := ch.Copy()
		if ch.Group != nil {
			if gi := src.groupIndex(ch.Group); gi >= 0 {
				nc.Group = dst.Groups[gi]
			}
		}
		dst.Channels = append(dst.Channels, nc)
	}
	dst.reindex()
	return dst
}

// Contiguous reports whether every group's channels form one unbroken run.
func (c *Clip) Contiguous() bool {
	seen := make(map[*Group]bool, len(c.Groups))
	var prev *Group
	for _, ch := range c.Channels {
		if ch.Group != nil && ch.Group != prev {
			if seen[ch.Group] {
				return false
			}
			seen[ch.Group] = true
		}
		prev = ch.Group
	}
	return true
}

func (c *Clip) groupIndex(g *Group) int {
	for i, x := range c.Groups {
		if x == g {
			return i
		}
	}
	return -1
}

func (c *Clip) unlink(ch *CurveChannel) {
	for i, x := range c.Channels {
		if x == ch {
			c.Channels = append(c.Channels[:i], c.Channels[i+1:]...)
			return
		}
	}
}

func (c *Clip) insertAt(pos int, ch *CurveChannel) {
	if pos > len(c.Channels) {
		pos = len(c.Channels)
	}
	c.Channels = append(c.Channels, nil)
	copy(c.Channels[pos+1:], c.Channels[pos:])
	c.Channels[pos] = ch
}

// reindex recomputes every group's (start, count) from channel membership.
func (c *Clip) reindex() {
	for _, g := range c.Groups {
		g.start, g.count = -1, 0
	}
	for i, ch := range c.Channels {
		g := ch.Group
		if g == nil {
			continue
		}
		if g.count == 0 {
			g.start = i
		}
		g.count++
	}
}
