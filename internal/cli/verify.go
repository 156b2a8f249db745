package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/animeval/internal/bake"
	"github.com/roach88/animeval/internal/engine"
	"github.com/roach88/animeval/internal/store"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - defaults to the latest run
}

// maxMismatchLines caps the mismatches printed in text mode.
const maxMismatchLines = 20

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <scene>",
		Short: "Re-evaluate a baked run and check it is reproduced exactly",
		Long: `Evaluate the scene again over the frames of a stored run and compare
every sample with the stored value. The scene must be the same source the
run was baked from.

Exit codes:
  0 - The run was reproduced exactly
  1 - Values differ, or the scene changed since the bake
  2 - Command error (database not found, unknown run, etc.)

Examples:
  animeval verify scene.cue --db ./bake.db
  animeval verify scene.cue --db ./bake.db --run 0191d6a8-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to verify (default latest)")

	return cmd
}

func runVerify(opts *VerifyOptions, path string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, formatter.GetErrWriter())

	loaded, err := LoadScene(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scene", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runID := opts.RunID
	if runID == "" {
		latest, err := st.LatestRun(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "no run to verify", err)
		}
		runID = latest.ID
	}

	b := bake.New(st,
		bake.WithLogger(logger),
		bake.WithEngineOptions(engine.WithLogger(logger)),
	)
	rep, err := b.Verify(ctx, runID, loaded.Doc)
	switch {
	case errors.Is(err, bake.ErrSceneChanged):
		_ = formatter.Error("E_SCENE_CHANGED", err.Error(), nil)
		return WrapExitError(ExitFailure, "verification failed", err)
	case err != nil:
		return WrapExitError(ExitCommandError, "verification error", err)
	}

	if formatter.IsJSON() {
		resp := CLIResponse{Status: "ok", Data: rep, RunID: runID}
		if !rep.Match {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "E_DETERMINISM", Message: "run was not reproduced"}
		}
		if err := formatter.Respond(resp); err != nil {
			return err
		}
	} else {
		outputVerifyText(formatter, rep)
	}

	if !rep.Match {
		return NewExitError(ExitFailure, "run was not reproduced")
	}
	return nil
}

func outputVerifyText(formatter *OutputFormatter, rep *bake.Report) {
	w := formatter.Writer
	status := "✓"
	if !rep.Match {
		status = "✗"
	}
	fmt.Fprintf(w, "%s Run: %s\n", status, rep.RunID)
	fmt.Fprintf(w, "  Samples: %d\n", rep.Samples)
	fmt.Fprintf(w, "  Mismatches: %d, missing: %d, extra: %d\n", len(rep.Mismatches), rep.Missing, rep.Extra)

	for i, m := range rep.Mismatches {
		if i == maxMismatchLines && !formatter.Verbose {
			fmt.Fprintf(w, "  ... %d more (use --verbose to list all)\n", len(rep.Mismatches)-i)
			break
		}
		fmt.Fprintf(w, "  frame %g %s.%s[%d]: stored %g, got %g\n", m.Frame, m.Entity, m.Path, m.Index, m.Want, m.Got)
	}

	if rep.Match {
		fmt.Fprintln(w, "✓ Run reproduced exactly")
	} else {
		fmt.Fprintln(w, "✗ Determinism verification failed")
	}
}
