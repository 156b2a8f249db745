package anim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paths(c *Clip) []string {
	out := make([]string, 0, len(c.Channels))
	for _, ch := range c.Channels {
		out = append(out, ch.ID().String())
	}
	return out
}

func TestAddGroup_DefaultAndUnique(t *testing.T) {
	c := NewClip("Walk")

	g1 := AddGroup(c, "")
	g2 := AddGroup(c, "")
	g3 := AddGroup(c, "Group.001")
	legs := AddGroup(c, "Legs")

	assert.Equal(t, "Group", g1.Name)
	assert.Equal(t, "Group.001", g2.Name)
	assert.Equal(t, "Group.002", g3.Name)
	assert.Equal(t, "Legs", legs.Name)
	assert.True(t, g1.Selected)
	assert.Len(t, c.Groups, 4)
}

func TestAddGroup_NFC(t *testing.T) {
	c := NewClip("Walk")
	// "e" followed by a combining acute accent normalizes to U+00E9.
	g := AddGroup(c, "Pose\u0301")
	assert.Equal(t, "Pos\u00e9", g.Name)
	assert.Same(t, g, c.FindGroup("Pose\u0301"))
	assert.Same(t, g, c.FindGroup("Pos\u00e9"))

	dup := AddGroup(c, "Pos\u00e9")
	assert.Equal(t, "Pos\u00e9.001", dup.Name)
}

func TestAddChannelToGroup_EmptyClip(t *testing.T) {
	c := NewClip("A")
	g := AddGroup(c, "Body")
	ch := NewChannel("location", 0)

	AddChannelToGroup(c, g, ch)

	require.Len(t, c.Channels, 1)
	assert.Same(t, g, ch.Group)
	start, n := g.Range()
	assert.Equal(t, 0, start)
	assert.Equal(t, 1, n)
}

func TestAddChannelToGroup_AfterGroupLast(t *testing.T) {
	c := NewClip("A")
	a := AddGroup(c, "A")
	b := AddGroup(c, "B")

	AddChannelToGroup(c, a, NewChannel("a", 0))
	AddChannelToGroup(c, b, NewChannel("b", 0))
	AddChannelToGroup(c, a, NewChannel("a", 1))
	AddChannelToGroup(c, b, NewChannel("b", 1))

	assert.Equal(t, []string{"a[0]", "a[1]", "b[0]", "b[1]"}, paths(c))
	assert.True(t, c.Contiguous())

	start, n := b.Range()
	assert.Equal(t, 2, start)
	assert.Equal(t, 2, n)
}

func TestAddChannelToGroup_EmptyGroupWalksBack(t *testing.T) {
	c := NewClip("A")
	a := AddGroup(c, "A")
	empty := AddGroup(c, "Empty")
	late := AddGroup(c, "Late")

	AddChannelToGroup(c, a, NewChannel("a", 0))
	AddChannel(c, NewChannel("loose", 0))

	// Late has no channels and Empty has none either, so Late goes right
	// after A's last channel, ahead of the ungrouped channel.
	AddChannelToGroup(c, late, NewChannel("late", 0))
	assert.Equal(t, []string{"a[0]", "late[0]", "loose[0]"}, paths(c))

	// Empty sits between A and Late in group order.
	AddChannelToGroup(c, empty, NewChannel("empty", 0))
	assert.Equal(t, []string{"a[0]", "empty[0]", "late[0]", "loose[0]"}, paths(c))
	assert.True(t, c.Contiguous())
}

func TestAddChannelToGroup_FirstGroupEmptyInsertsAtZero(t *testing.T) {
	c := NewClip("A")
	first := AddGroup(c, "First")
	AddChannel(c, NewChannel("loose", 0))

	AddChannelToGroup(c, first, NewChannel("f", 0))
	assert.Equal(t, []string{"f[0]", "loose[0]"}, paths(c))
}

func TestAddChannelToGroup_MovesExistingChannel(t *testing.T) {
	c := NewClip("A")
	a := AddGroup(c, "A")
	b := AddGroup(c, "B")
	x := NewChannel("x", 0)

	AddChannelToGroup(c, a, x)
	AddChannelToGroup(c, b, NewChannel("y", 0))
	AddChannelToGroup(c, b, x)

	assert.Equal(t, []string{"y[0]", "x[0]"}, paths(c))
	_, n := a.Range()
	assert.Equal(t, 0, n)
	assert.True(t, c.Contiguous())
}

func TestAddChannelToGroup_NoOps(t *testing.T) {
	c := NewClip("A")
	other := NewClip("B")
	foreign := AddGroup(other, "Foreign")
	ch := NewChannel("x", 0)

	AddChannelToGroup(c, foreign, ch)
	AddChannelToGroup(c, nil, ch)
	AddChannelToGroup(nil, foreign, ch)
	AddChannelToGroup(c, foreign, nil)

	assert.Empty(t, c.Channels)
	assert.Nil(t, ch.Group)
}

func TestRemoveChannelFromGroup(t *testing.T) {
	c := NewClip("A")
	g := AddGroup(c, "G")
	only := NewChannel("x", 0)
	AddChannelToGroup(c, g, only)

	RemoveChannelFromGroup(c, only)

	assert.Empty(t, c.Channels)
	assert.Nil(t, only.Group)
	start, n := g.Range()
	assert.Equal(t, -1, start)
	assert.Equal(t, 0, n)
	assert.Empty(t, c.GroupChannels(g))
}

func TestRemoveChannelFromGroup_KeepsRangeOfOthers(t *testing.T) {
	c := NewClip("A")
	g := AddGroup(c, "G")
	h := AddGroup(c, "H")
	x, y, z := NewChannel("x", 0), NewChannel("y", 0), NewChannel("z", 0)
	AddChannelToGroup(c, g, x)
	AddChannelToGroup(c, g, y)
	AddChannelToGroup(c, h, z)

	RemoveChannelFromGroup(c, x)

	assert.Equal(t, []*CurveChannel{y}, c.GroupChannels(g))
	assert.Equal(t, []*CurveChannel{z}, c.GroupChannels(h))
}

func TestGroupContiguity_RandomEdits(t *testing.T) {
	c := NewClip("A")
	groups := []*Group{AddGroup(c, "0"), AddGroup(c, "1"), AddGroup(c, "2"), AddGroup(c, "3")}
	var chans []*CurveChannel

	// Deterministic pseudo-random sequence of inserts, moves and removals.
	seed := uint32(7)
	next := func(n int) int {
		seed = seed*1103515245 + 12345
		return int((seed >> 16) % uint32(n))
	}
	for i := 0; i < 200; i++ {
		switch next(3) {
		case 0:
			ch := NewChannel("p", i)
			chans = append(chans, ch)
			AddChannelToGroup(c, groups[next(len(groups))], ch)
		case 1:
			if len(chans) > 0 {
				AddChannelToGroup(c, groups[next(len(groups))], chans[next(len(chans))])
			}
		case 2:
			if len(chans) > 0 {
				RemoveChannelFromGroup(c, chans[next(len(chans))])
			}
		}
		require.True(t, c.Contiguous(), "step %d", i)

		// Ranges must agree with membership and follow group order.
		last := -1
		for _, g := range groups {
			start, n := g.Range()
			for _, ch := range c.GroupChannels(g) {
				require.Same(t, g, ch.Group)
			}
			if n > 0 {
				require.Greater(t, start, last)
				last = start + n - 1
			}
		}
	}
}

func TestCopyClip(t *testing.T) {
	src := NewClip("Run")
	a := AddGroup(src, "A")
	b := AddGroup(src, "B")
	b.Muted = true
	src.Markers = []Marker{{Name: "contact", Frame: 12}}

	ch := NewChannel("location", 2, Keyframe{Frame: 1, Value: 0}, Keyframe{Frame: 10, Value: 5})
	ch.Driver = NewDriver(DriverSum, "")
	ch.Driver.AddVariable("v", VarSingleProperty)
	AddChannelToGroup(src, a, NewChannel("rotation_euler", 0))
	AddChannelToGroup(src, b, ch)

	dst := CopyClip(src)

	require.Len(t, dst.Groups, 2)
	require.Len(t, dst.Channels, 2)
	assert.NotSame(t, src.Groups[1], dst.Groups[1])
	assert.Same(t, dst.Groups[1], dst.Channels[1].Group)
	assert.True(t, dst.Groups[1].Muted)
	assert.Equal(t, src.Markers, dst.Markers)

	// Deep: edits to the copy do not reach the source.
	dst.Channels[1].Keyframes[0].Value = 99
	dst.Channels[1].Driver.Variables[0].Name = "w"
	dst.Markers[0].Frame = 1
	assert.Equal(t, 0.0, ch.Keyframes[0].Value)
	assert.Equal(t, "v", ch.Driver.Variables[0].Name)
	assert.Equal(t, 12.0, src.Markers[0].Frame)

	start, n := dst.Groups[1].Range()
	assert.Equal(t, 1, start)
	assert.Equal(t, 1, n)
}

func TestFrameRange(t *testing.T) {
	c := NewClip("A")
	s, e := c.FrameRange()
	assert.Equal(t, 0.0, s)
	assert.Equal(t, 1.0, e)

	AddChannel(c, NewChannel("a", 0, Keyframe{Frame: 5}))
	s, e = c.FrameRange()
	assert.Equal(t, 5.0, s)
	assert.Equal(t, 6.0, e)

	AddChannel(c, NewChannel("b", 0, Keyframe{Frame: -2}, Keyframe{Frame: 20}))
	s, e = c.FrameRange()
	assert.Equal(t, -2.0, s)
	assert.Equal(t, 20.0, e)
}

func TestInsertKeyframe_SortedAndReplace(t *testing.T) {
	ch := NewChannel("x", 0, Keyframe{Frame: 10, Value: 1}, Keyframe{Frame: 1, Value: 2})
	ch.InsertKeyframe(Keyframe{Frame: 5, Value: 3})
	ch.InsertKeyframe(Keyframe{Frame: 10, Value: 4})

	require.Len(t, ch.Keyframes, 3)
	assert.Equal(t, []float64{1, 5, 10}, []float64{ch.Keyframes[0].Frame, ch.Keyframes[1].Frame, ch.Keyframes[2].Frame})
	assert.Equal(t, 4.0, ch.Keyframes[2].Value)
}
