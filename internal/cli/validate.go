package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/animeval/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Scene    string                     `json:"scene,omitempty"`
	Entities int                        `json:"entities"`
	Clips    int                        `json:"clips"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scene>",
		Short: "Validate a scene without evaluating it",
		Long: `Compile a CUE scene file (or a directory of scene files) and check
its structure: overlapping strips, transitions without neighbours,
unknown clip references, driver variable problems and empty meta strips.

Exit codes:
  0 - Scene is valid
  1 - Validation errors found
  2 - Command error (scene not found, CUE syntax error, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loaded, err := LoadScene(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			// Compile errors are validation failures; everything else is a
			// command error.
			if loadErr.Pos.IsValid() && loadErr.Code != ErrCodeBuildFailed {
				return outputValidationErrors(formatter, ValidationResult{
					Errors: []compiler.ValidationError{{
						Field:   "compile",
						Message: loadErr.Message,
						Code:    loadErr.Code,
						Line:    loadErr.Pos.Line(),
					}},
				})
			}
			return outputValidateError(formatter, loadErr.Code, loadErr.Error())
		}
		return outputValidateError(formatter, ErrCodeGeneric, err.Error())
	}

	doc := loaded.Doc
	formatter.VerboseLog("Compiled %d file(s): %d entities, %d clips", len(loaded.Files), len(doc.World.Entities), len(doc.ClipNames))

	result := ValidationResult{
		Valid:    true,
		Scene:    doc.Info.Name,
		Entities: len(doc.World.Entities),
		Clips:    len(doc.ClipNames),
	}
	if errs := compiler.Validate(doc); len(errs) > 0 {
		result.Valid = false
		result.Errors = errs
		return outputValidationErrors(formatter, result)
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Scene %q valid (%d entities, %d clips)\n", result.Scene, result.Entities, result.Clips)
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, message)
}

// outputValidationErrors outputs validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	exit := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.IsJSON() {
		if err := formatter.Respond(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}); err != nil {
			return err
		}
		return exit
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}
	return exit
}
