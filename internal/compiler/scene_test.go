package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/animeval/internal/anim"
	"github.com/roach88/animeval/internal/host"
)

func compile(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := CompileSource("test.cue", []byte(src))
	require.NoError(t, err)
	return doc
}

func TestCompileSceneBasic(t *testing.T) {
	doc := compile(t, `
scene: {name: "demo", fps: 30, frame_start: 1, frame_end: 10}
clip: Wave: {
	markers: [{name: "hit", frame: 5}]
	channels: [
		{path: "location", index: 0, group: "Transform", keys: [[1, 0], [11, 10]]},
		{path: "custom", keys: [{frame: 1, value: 1, interp: "constant"}]},
		{path: "location", index: 1, group: "Transform", keys: [[1, 0]]},
	]
}
entity: Cube: {
	action: "Wave"
	props: custom: 0
}
`)

	assert.Equal(t, Info{Name: "demo", FPS: 30, FrameStart: 1, FrameEnd: 10}, doc.Info)
	require.Equal(t, []string{"Wave"}, doc.ClipNames)

	clip := doc.Clips["Wave"]
	require.Len(t, clip.Channels, 3)
	assert.Equal(t, "location", clip.Channels[0].Path)
	assert.Equal(t, 1, clip.Channels[1].Index)
	assert.Equal(t, "custom", clip.Channels[2].Path)
	assert.Equal(t, anim.InterpConstant, clip.Channels[2].Keyframes[0].Interp)
	assert.Equal(t, []anim.Marker{{Name: "hit", Frame: 5}}, clip.Markers)

	g := clip.FindGroup("Transform")
	require.NotNil(t, g)
	start, n := g.Range()
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, n)

	ent := doc.World.Find("Cube")
	require.NotNil(t, ent)
	assert.Equal(t, anim.KindObject, ent.Kind)
	require.NotNil(t, ent.Anim)
	assert.Same(t, clip, ent.Anim.Action)
	assert.Equal(t, anim.RecalcAll, ent.Anim.Recalc)

	slot, ok := doc.Scene.Resolve("Cube", "custom", 0)
	require.True(t, ok)
	assert.Equal(t, host.SlotFloat, slot.Kind())
	_, ok = doc.Scene.Resolve("Cube", "location", 2)
	assert.True(t, ok, "transform properties exist by default")

	assert.Empty(t, Validate(doc))
}

func TestCompileSceneDefaults(t *testing.T) {
	doc := compile(t, `entity: Lamp: kind: "light"`)
	assert.Equal(t, Info{Name: "scene", FPS: 24, FrameStart: 1, FrameEnd: 250}, doc.Info)
	ent := doc.World.Find("Lamp")
	require.NotNil(t, ent)
	assert.Equal(t, anim.KindLight, ent.Kind)
	assert.Nil(t, ent.Anim, "no animation fields means no anim data")
}

func TestInfoFrames(t *testing.T) {
	info := Info{FrameStart: 1, FrameEnd: 3}
	assert.Equal(t, []float64{1, 2, 3}, info.Frames(1))
	assert.Equal(t, []float64{1, 1.5, 2, 2.5, 3}, info.Frames(0.5))
	assert.Equal(t, []float64{1, 2, 3}, info.Frames(0))
	assert.Equal(t, []float64{1, 3}, info.Frames(2))
}

func TestCompileSceneErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"no entities", `scene: name: "x"`, "entity"},
		{"empty entity block", `entity: {}`, "entity"},
		{"unknown entity kind", `entity: X: kind: "spaceship"`, "kind"},
		{"bad fps", `scene: fps: 0
entity: X: {}`, "scene.fps"},
		{"end before start", `scene: {frame_start: 10, frame_end: 1}
entity: X: {}`, "scene.frame_end"},
		{"channel without path", `clip: A: channels: [{index: 0}]
entity: X: {}`, "path"},
		{"duplicate channel", `clip: A: channels: [{path: "p"}, {path: "p"}]
entity: X: {}`, "channels"},
		{"unknown interpolation", `clip: A: channels: [{path: "p", interp: "cubic"}]
entity: X: {}`, "interp"},
		{"unknown ease", `clip: A: channels: [{path: "p", ease: "Wobble"}]
entity: X: {}`, "ease"},
		{"bad key pair", `clip: A: channels: [{path: "p", keys: [[1, 2, 3]]}]
entity: X: {}`, "keys"},
		{"unknown blend", `entity: X: tracks: [{strips: [{clip: "A", blend: "screen"}]}]`, "blend"},
		{"unknown strip kind", `entity: X: tracks: [{strips: [{kind: "sound"}]}]`, "kind"},
		{"unknown driver type", `entity: X: drivers: [{path: "p", type: "median"}]`, "type"},
		{"unknown space", `entity: X: drivers: [{path: "p", variables: [{name: "a", targets: [{entity: "X", space: "screen"}]}]}]`, "space"},
		{"unknown property type", `entity: X: props: p: {type: "string"}`, "props.type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileSource("test.cue", []byte(tt.src))
			require.Error(t, err)
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileSceneInvalidCUESyntax(t *testing.T) {
	_, err := CompileSource("bad.cue", []byte(`entity: X: {`))
	require.Error(t, err)
}

func TestCompileSceneErrorPosition(t *testing.T) {
	_, err := CompileSource("pos.cue", []byte("entity: X: {\n\tkind: \"spaceship\"\n}\n"))
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	require.True(t, ce.Pos.IsValid())
	assert.Equal(t, 2, ce.Pos.Line())
	assert.Contains(t, ce.Error(), "pos.cue:2:")
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "kind", Message: "bad"}
	assert.Equal(t, "kind: bad", err.Error())
}

func TestCompileKeysEase(t *testing.T) {
	doc := compile(t, `
clip: A: channels: [{
	path: "p"
	ease: "OutBounce"
	keys: [[1, 0], {frame: 5, value: 1, ease: "InSine"}, {frame: 9, value: 2, interp: "linear"}]
}]
entity: X: action: "A"
`)
	keys := doc.Clips["A"].Channels[0].Keyframes
	require.Len(t, keys, 3)
	assert.Equal(t, anim.InterpEase, keys[0].Interp)
	assert.Equal(t, "OutBounce", keys[0].Ease)
	assert.Equal(t, anim.InterpEase, keys[1].Interp)
	assert.Equal(t, "InSine", keys[1].Ease)
	assert.Equal(t, anim.InterpLinear, keys[2].Interp)
}

func TestCompileChannelModifiers(t *testing.T) {
	doc := compile(t, `
clip: A: channels: [{path: "p", cycles: true, extrapolation: "linear", muted: true}]
entity: X: action: "A"
`)
	ch := doc.Clips["A"].Channels[0]
	assert.True(t, ch.HasModifier(anim.ModCycles))
	assert.Equal(t, anim.ExtrapLinear, ch.Extrapolation)
	assert.True(t, ch.Muted)
}

func TestCompileTracks(t *testing.T) {
	doc := compile(t, `
clip: {
	Idle: channels: [{path: "location", keys: [[1, 0], [11, 1]]}]
	Run:  channels: [{path: "location", keys: [[1, 5], [6, 6]]}]
}
entity: Hero: tracks: [
	{name: "Base", strips: [
		{clip: "Idle", start: 1},
		{kind: "transition"},
		{clip: "Run", start: 20, blend: "add", influence: 0.5, extend_before: "hold", repeat: 2, active: true},
	]},
	{name: "Layer", solo: true, active: true, strips: [{
		kind: "meta"
		name: "Combo"
		tracks: [{strips: [{clip: "Run", start: 40, modifiers: [{kind: "stepped", step: 2}]}]}]
	}]},
	{name: "Curves", muted: true, strips: [{
		clip: "Idle"
		start: 100
		reverse: true
		influence_curve: [[100, 0], [110, 1]]
		time_curve: [[100, 0], [110, 1]]
		cyclic_time: true
	}]},
]
`)
	ad := doc.World.Find("Hero").Anim
	require.NotNil(t, ad)
	require.Len(t, ad.Tracks, 3)
	assert.True(t, ad.SoloMode)
	assert.Same(t, ad.Tracks[1], ad.ActTrack)

	base := ad.Tracks[0]
	require.Len(t, base.Strips, 3)
	idle, tr, run := base.Strips[0], base.Strips[1], base.Strips[2]
	assert.Equal(t, "Idle", idle.Name)
	assert.Equal(t, 11.0, idle.End)
	assert.Equal(t, anim.StripTransition, tr.Kind)
	assert.Equal(t, 11.0, tr.Start, "transition starts at the previous strip's end")
	assert.Equal(t, 20.0, tr.End, "transition ends at the next strip's start")
	assert.Equal(t, anim.BlendAdd, run.BlendMode)
	assert.Equal(t, 0.5, run.Influence)
	assert.Equal(t, anim.ExtendHold, run.ExtendBefore)
	assert.Equal(t, 30.0, run.End, "5 frames repeated twice")
	assert.True(t, run.Active)

	meta := ad.Tracks[1].Strips[0]
	assert.Equal(t, anim.StripMeta, meta.Kind)
	assert.Equal(t, "Combo", meta.Name)
	require.Len(t, meta.Tracks, 1)
	assert.Equal(t, 40.0, meta.Start)
	assert.Equal(t, 45.0, meta.End)
	inner := meta.Tracks[0].Strips[0]
	require.Len(t, inner.Modifiers, 1)
	assert.Equal(t, anim.StripModStepped, inner.Modifiers[0].Kind)
	assert.Equal(t, 2.0, inner.Modifiers[0].Step)

	curves := ad.Tracks[2]
	assert.True(t, curves.Muted)
	s := curves.Strips[0]
	assert.True(t, s.Reverse)
	assert.True(t, s.UseInfluenceCurve)
	require.NotNil(t, s.InfluenceCurve)
	assert.Len(t, s.InfluenceCurve.Keyframes, 2)
	assert.True(t, s.UseTimeCurve)
	assert.True(t, s.CyclicTime)

	assert.Empty(t, Validate(doc))
}

func TestCompileDrivers(t *testing.T) {
	doc := compile(t, `
entity: {
	Ctrl: props: amount: 2
	Rig: bones: {
		Root: {}
		Hand: {parent: "Root", rotation_mode: "quaternion"}
	}
	Cube: {
		props: flag: {type: "bool", values: [0]}
		drivers: [
			{path: "location", index: 2, type: "expression", expression: "amount * 2", variables: [
				{name: "amount", targets: [{entity: "Ctrl", path: "amount"}]},
			]},
			{path: "scale", type: "max", variables: [
				{name: "dist", kind: "location_difference", targets: [{entity: "Ctrl"}, {entity: "Rig", bone: "Hand", space: "local"}]},
				{name: "rot", kind: "transform_channel", targets: [{entity: "Rig", bone: "Hand", channel: "rot_w", rotation_mode: "quaternion", space: "transform"}]},
			]},
		]
		overrides: [{path: "flag", value: 1}]
	}
}
`)
	ad := doc.World.Find("Cube").Anim
	require.NotNil(t, ad)
	require.Len(t, ad.Drivers, 2)

	d0 := ad.Drivers[0]
	assert.Equal(t, "location", d0.Path)
	assert.Equal(t, 2, d0.Index)
	assert.Equal(t, anim.DriverExpression, d0.Driver.Kind)
	assert.Equal(t, "amount * 2", d0.Driver.Expression)
	v := d0.Driver.FindVariable("amount")
	require.NotNil(t, v)
	assert.Equal(t, "Ctrl", v.Targets[0].Entity)
	assert.Equal(t, "amount", v.Targets[0].Path)

	d1 := ad.Drivers[1].Driver
	assert.Equal(t, anim.DriverMax, d1.Kind)
	dist := d1.FindVariable("dist")
	require.NotNil(t, dist)
	assert.Equal(t, 2, dist.NumTargets)
	assert.Equal(t, "Hand", dist.Targets[1].SubPart)
	assert.Equal(t, anim.SpaceLocal, dist.Targets[1].Space)
	rot := d1.FindVariable("rot")
	require.NotNil(t, rot)
	assert.Equal(t, anim.RotW, rot.Targets[0].TransformChannel)
	assert.Equal(t, anim.RotQuaternion, rot.Targets[0].RotationMode.Kind)
	assert.Equal(t, anim.SpaceTransform, rot.Targets[0].Space)

	assert.Equal(t, []anim.Override{{Path: "flag", Index: 0, Value: 1}}, ad.Overrides)

	slot, ok := doc.Scene.Resolve("Cube", "flag", 0)
	require.True(t, ok)
	assert.Equal(t, host.SlotBool, slot.Kind())

	hand := doc.Scene.Object("Rig").Bones["Hand"]
	require.NotNil(t, hand)
	assert.Equal(t, "Root", hand.Parent)
	assert.Equal(t, anim.RotQuaternion, hand.Rotation.Kind)

	assert.Empty(t, Validate(doc))
}
