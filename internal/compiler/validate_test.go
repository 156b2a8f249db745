package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/animeval/internal/anim"
)

func codes(errs []ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidateSceneIssues(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "overlapping strips",
			src: `
clip: A: channels: [{path: "p", keys: [[1, 0], [11, 1]]}]
entity: X: tracks: [{strips: [{clip: "A", start: 1}, {clip: "A", start: 5}]}]`,
			want: []string{ErrStripOverlap},
		},
		{
			name: "transition at track end",
			src: `
clip: A: channels: [{path: "p", keys: [[1, 0], [11, 1]]}]
entity: X: tracks: [{strips: [{clip: "A", start: 1}, {kind: "transition", start: 11, end: 20}]}]`,
			want: []string{ErrTransitionSiblings},
		},
		{
			name: "unknown action clip",
			src:  `entity: X: action: "Missing"`,
			want: []string{ErrUnknownClip},
		},
		{
			name: "unknown strip clip",
			src:  `entity: X: tracks: [{strips: [{clip: "Missing", start: 1}]}]`,
			want: []string{ErrUnknownClip},
		},
		{
			name: "too few targets",
			src: `entity: X: drivers: [{path: "p", variables: [
	{name: "d", kind: "rotation_difference", targets: [{entity: "X"}]},
]}]`,
			want: []string{ErrVariableArity},
		},
		{
			name: "no targets",
			src:  `entity: X: drivers: [{path: "p", variables: [{name: "d"}]}]`,
			want: []string{ErrVariableArity},
		},
		{
			name: "invalid expression variable names",
			src: `entity: X: drivers: [{path: "p", type: "expression", expression: "1", variables: [
	{name: "2fast", targets: [{entity: "X", path: "p"}]},
	{name: "if", targets: [{entity: "X", path: "p"}]},
]}]`,
			want: []string{ErrVariableName, ErrVariableName},
		},
		{
			name: "names are not checked for non-expression drivers",
			src: `entity: X: drivers: [{path: "p", type: "sum", variables: [
	{name: "has space", targets: [{entity: "X", path: "p"}]},
]}]`,
			want: []string{},
		},
		{
			name: "empty meta strip",
			src:  `entity: X: tracks: [{strips: [{kind: "meta", tracks: [{name: "inner"}]}]}]`,
			want: []string{ErrEmptyMeta},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := compile(t, tt.src)
			assert.Equal(t, tt.want, codes(Validate(doc)))
		})
	}
}

func TestValidateRecordsLine(t *testing.T) {
	doc := compile(t, "entity: X: {\n\taction: \"Missing\"\n}\n")
	errs := Validate(doc)
	require.Len(t, errs, 1)
	assert.Equal(t, 2, errs[0].Line)
	assert.Equal(t, "entity.X.action", errs[0].Field)
}

func TestValidateSetsNameFlags(t *testing.T) {
	w := &anim.World{}
	ad := &anim.AnimData{}
	d := anim.NewDriver(anim.DriverExpression, "a.b")
	d.AddVariable("a.b", anim.VarSingleProperty)
	ad.AddDriver("p", 0, d)
	w.Add(&anim.Entity{ID: "X", Anim: ad})

	errs := Validate(w)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrVariableName, errs[0].Code)
	assert.NotZero(t, d.Variables[0].NameFlags&anim.NameHasDot)
	assert.NotZero(t, d.Variables[0].NameFlags&anim.NameInvalid)
}

func TestValidateNestedMetaOverlap(t *testing.T) {
	inner := &anim.Track{Name: "inner", Strips: []*anim.Strip{
		{Kind: anim.StripClip, Start: 0, End: 10},
		{Kind: anim.StripClip, Start: 5, End: 15},
	}}
	outer := &anim.Track{Name: "outer", Strips: []*anim.Strip{anim.NewMetaStrip("m", inner)}}
	w := &anim.World{}
	w.Add(&anim.Entity{ID: "X", Anim: &anim.AnimData{Tracks: []*anim.Track{outer}}})

	errs := Validate(w)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrStripOverlap, errs[0].Code)
	assert.Equal(t, "entity.X.tracks[0].strips[0].tracks[0].strips[1]", errs[0].Field)
}

func TestValidateClipContiguity(t *testing.T) {
	c := anim.NewClip("A")
	g := anim.AddGroup(c, "G")
	anim.AddChannelToGroup(c, g, anim.NewChannel("a", 0))
	assert.Empty(t, Validate(c))
}

func TestValidateUnsupportedType(t *testing.T) {
	errs := Validate(42)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedType, errs[0].Code)
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "entity.X", Message: "bad", Code: ErrUnknownClip}
	assert.Equal(t, "[E112] entity.X: bad", err.Error())

	err.Line = 4
	assert.Equal(t, "[E112] line 4: entity.X: bad", err.Error())
}
