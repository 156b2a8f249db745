package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/animeval/internal/anim"
	"github.com/roach88/animeval/internal/canon"
	"github.com/roach88/animeval/internal/scene"
)

// Info is the scene block of a scene file.
type Info struct {
	Name       string  `json:"name"`
	FPS        float64 `json:"fps"`
	FrameStart float64 `json:"frame_start"`
	FrameEnd   float64 `json:"frame_end"`
}

// Frames returns FrameStart, FrameStart+step, ... up to and including
// FrameEnd. A non-positive step is treated as 1.
func (i Info) Frames(step float64) []float64 {
	if step <= 0 {
		step = 1
	}
	var out []float64
	for n := 0; ; n++ {
		f := i.FrameStart + float64(n)*step
		if f > i.FrameEnd {
			break
		}
		out = append(out, f)
	}
	return out
}

// Document is a compiled scene file: the animation world plus the reference
// scene its properties live in.
type Document struct {
	Info  Info
	// Hash identifies the source text. Empty when compiled from a value.
	Hash  string
	World *anim.World
	Scene *scene.Scene
	// Clips are indexed by name; ClipNames keeps declaration order.
	Clips     map[string]*anim.Clip
	ClipNames []string

	// issues are problems found while compiling that leave a usable but
	// incomplete world (unknown clip references, wrong target counts).
	issues []ValidationError
}

// CompileScene parses a CUE scene value with scene, clip and entity blocks:
//
//	scene: {name: "demo", fps: 24, frame_start: 1, frame_end: 48}
//	clip: Wave: channels: [{path: "location", index: 2, keys: [[1, 0], [24, 2]]}]
//	entity: Cube: {kind: "object", action: "Wave"}
//
// Clips are compiled before entities so strips and actions can refer to any
// clip in the file.
func CompileScene(v cue.Value) (*Document, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	doc := &Document{
		World: &anim.World{},
		Scene: scene.New(),
		Clips: make(map[string]*anim.Clip),
	}

	info, err := parseInfo(v.LookupPath(cue.ParsePath("scene")))
	if err != nil {
		return nil, err
	}
	doc.Info = info

	if clips := v.LookupPath(cue.ParsePath("clip")); clips.Exists() {
		iter, err := clips.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			clip, err := compileClip(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			if _, dup := doc.Clips[clip.Name]; dup {
				return nil, &CompileError{
					Field:   "clip",
					Message: fmt.Sprintf("duplicate clip %q", clip.Name),
					Pos:     iter.Value().Pos(),
				}
			}
			doc.Clips[clip.Name] = clip
			doc.ClipNames = append(doc.ClipNames, clip.Name)
		}
	}

	entities := v.LookupPath(cue.ParsePath("entity"))
	if !entities.Exists() {
		return nil, &CompileError{
			Field:   "entity",
			Message: "at least one entity is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := entities.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		if err := doc.compileEntity(iter.Label(), iter.Value()); err != nil {
			return nil, err
		}
	}
	if len(doc.World.Entities) == 0 {
		return nil, &CompileError{
			Field:   "entity",
			Message: "at least one entity is required",
			Pos:     entities.Pos(),
		}
	}

	return doc, nil
}

// CompileSource compiles scene source read from filename.
func CompileSource(filename string, src []byte) (*Document, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	doc, err := CompileScene(v)
	if err != nil {
		return nil, err
	}
	doc.Hash = canon.SceneHash(src)
	return doc, nil
}

// CompileFile reads and compiles a single scene file.
func CompileFile(path string) (*Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return CompileSource(path, src)
}

func parseInfo(v cue.Value) (Info, error) {
	info := Info{Name: "scene", FPS: 24, FrameStart: 1, FrameEnd: 250}
	if !v.Exists() {
		return info, nil
	}
	var err error
	if info.Name, err = optString(v, "name", info.Name); err != nil {
		return info, err
	}
	if info.FPS, err = optFloat(v, "fps", info.FPS); err != nil {
		return info, err
	}
	if info.FrameStart, err = optFloat(v, "frame_start", info.FrameStart); err != nil {
		return info, err
	}
	if info.FrameEnd, err = optFloat(v, "frame_end", info.FrameEnd); err != nil {
		return info, err
	}
	if info.FPS <= 0 {
		return info, &CompileError{Field: "scene.fps", Message: "fps must be positive", Pos: v.LookupPath(cue.ParsePath("fps")).Pos()}
	}
	if info.FrameEnd < info.FrameStart {
		return info, &CompileError{
			Field:   "scene.frame_end",
			Message: fmt.Sprintf("frame_end %g is before frame_start %g", info.FrameEnd, info.FrameStart),
			Pos:     v.LookupPath(cue.ParsePath("frame_end")).Pos(),
		}
	}
	return info, nil
}

// issue records a problem that Validate reports later.
func (d *Document) issue(code, field, msg string, pos token.Pos) {
	d.issues = append(d.issues, ValidationError{
		Field:   field,
		Message: msg,
		Code:    code,
		Line:    pos.Line(),
	})
}

// field looks up a direct child of v.
func field(v cue.Value, name string) cue.Value {
	return v.LookupPath(cue.MakePath(cue.Str(name)))
}

func optString(v cue.Value, name, def string) (string, error) {
	f := field(v, name)
	if !f.Exists() {
		return def, nil
	}
	s, err := f.String()
	if err != nil {
		return "", fieldError(name, f, err)
	}
	return s, nil
}

func optFloat(v cue.Value, name string, def float64) (float64, error) {
	f := field(v, name)
	if !f.Exists() {
		return def, nil
	}
	n, err := f.Float64()
	if err != nil {
		return 0, fieldError(name, f, err)
	}
	return n, nil
}

func optInt(v cue.Value, name string, def int) (int, error) {
	f := field(v, name)
	if !f.Exists() {
		return def, nil
	}
	n, err := f.Int64()
	if err != nil {
		return 0, fieldError(name, f, err)
	}
	return int(n), nil
}

func optBool(v cue.Value, name string, def bool) (bool, error) {
	f := field(v, name)
	if !f.Exists() {
		return def, nil
	}
	b, err := f.Bool()
	if err != nil {
		return false, fieldError(name, f, err)
	}
	return b, nil
}

// floats reads a number or a list of numbers.
func floats(v cue.Value) ([]float64, error) {
	if v.IncompleteKind() != cue.ListKind {
		n, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return []float64{n}, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []float64
	for iter.Next() {
		n, err := iter.Value().Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, n)
	}
	return out, nil
}

func fieldError(name string, v cue.Value, err error) error {
	pos := v.Pos()
	if ps := errors.Positions(err); len(ps) > 0 {
		pos = ps[0]
	}
	return &CompileError{Field: name, Message: err.Error(), Pos: pos}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
