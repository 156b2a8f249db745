package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/animeval/internal/canon"
	"github.com/roach88/animeval/internal/compiler"
)

// LoadResult is a compiled scene and the files it came from.
type LoadResult struct {
	Doc   *compiler.Document
	Files []string
}

// LoadError represents an error that occurred while loading a scene.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadScene compiles the scene at path. A file is compiled on its own; a
// directory has its top-level .cue files unified into one scene, so they
// must share a package clause (or all have none).
func LoadScene(path string) (*LoadResult, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("scene not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing scene: %v", err)}
	}

	if !info.IsDir() {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading scene: %v", err)}
		}
		doc, err := compiler.CompileSource(path, src)
		if err != nil {
			return nil, convertCompileError(err, path)
		}
		return &LoadResult{Doc: doc, Files: []string{path}}, nil
	}

	files, err := FindCUEFiles(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: path})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	doc, err := compiler.CompileScene(value)
	if err != nil {
		return nil, convertCompileError(err, path)
	}
	if doc.Hash, err = hashFiles(files); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading scene: %v", err)}
	}
	return &LoadResult{Doc: doc, Files: files}, nil
}

// FindCUEFiles returns the .cue files directly in dir, sorted by name.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// hashFiles hashes the base names and contents of files in order.
func hashFiles(files []string) (string, error) {
	var buf bytes.Buffer
	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			return "", err
		}
		buf.WriteString(filepath.Base(f))
		buf.WriteByte(0)
		buf.Write(src)
		buf.WriteByte(0)
	}
	return canon.SceneHash(buf.Bytes()), nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants, shared by all commands. Structural validation codes
// (E100, E110-E116) come from the compiler package.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error

	ErrCodeSceneSettings = "E101" // Invalid scene block
	ErrCodeClip          = "E102" // Invalid clip, channel or key
	ErrCodeEntity        = "E103" // Invalid entity, property or bone
	ErrCodeDriver        = "E104" // Invalid driver, variable or target
	ErrCodeStrip         = "E105" // Invalid track, strip or modifier
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "cue":
		return ErrCodeBuildFailed
	case strings.HasPrefix(field, "scene."):
		return ErrCodeSceneSettings
	case strings.HasPrefix(field, "entity."):
		return ErrCodeEntity
	}
	switch field {
	case "clip", "channels", "keys", "keys.frame", "interp", "ease", "extrapolation", "path":
		return ErrCodeClip
	case "entity", "kind", "props.type", "rotation_mode", "action":
		return ErrCodeEntity
	case "type", "space", "channel":
		return ErrCodeDriver
	case "blend", "extend_before", "extend_after", "modifiers.kind":
		return ErrCodeStrip
	default:
		return ErrCodeGeneric
	}
}
