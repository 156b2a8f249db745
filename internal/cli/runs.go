package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/animeval/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	RunID    string // show one run's samples
	Entity   string // filter samples to one entity
}

// RunDetail is one run with its samples.
type RunDetail struct {
	Run     store.Run      `json:"run"`
	Samples []store.Sample `json:"samples"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List baked runs or show the samples of one run",
		Long: `Without --run, list every run in the bake database in the order
they were baked. With --run, print that run's samples ordered by frame,
entity, path and index.

Examples:
  animeval runs --db ./bake.db
  animeval runs --db ./bake.db --run 0191d6a8-... --entity Cube
  animeval runs --db ./bake.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to show")
	cmd.Flags().StringVar(&opts.Entity, "entity", "", "only show samples of this entity")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Entity != "" && opts.RunID == "" {
		return NewExitError(ExitCommandError, "--entity requires --run")
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		if formatter.IsJSON() {
			return formatter.Success(runs)
		}
		outputRunsText(formatter, runs)
		return nil
	}

	run, err := st.ReadRun(ctx, opts.RunID)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			_ = formatter.Error("E_RUN_NOT_FOUND", err.Error(), nil)
		}
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	samples, err := st.ReadSamples(ctx, run.ID, opts.Entity)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read samples", err)
	}

	detail := RunDetail{Run: run, Samples: samples}
	if formatter.IsJSON() {
		return formatter.Respond(CLIResponse{Status: "ok", Data: detail, RunID: run.ID})
	}
	outputRunDetailText(formatter, detail)
	return nil
}

func outputRunsText(formatter *OutputFormatter, runs []store.Run) {
	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%4d  %s  %s  frames %g-%g step %g\n", r.Seq, r.ID, r.SceneName, r.FrameStart, r.FrameEnd, r.FrameStep)
	}
}

func outputRunDetailText(formatter *OutputFormatter, d RunDetail) {
	w := formatter.Writer
	r := d.Run
	fmt.Fprintf(w, "Run: %s (seq %d)\n", r.ID, r.Seq)
	fmt.Fprintf(w, "  Scene: %s\n", r.SceneName)
	fmt.Fprintf(w, "  Frames: %g-%g step %g at %g fps\n", r.FrameStart, r.FrameEnd, r.FrameStep, r.FPS)
	if len(r.Entities) > 0 {
		fmt.Fprintf(w, "  Entities: %s\n", strings.Join(r.Entities, ", "))
	}
	formatter.VerboseLog("scene hash %s, samples hash %s, engine %s", r.SceneHash, r.SamplesHash, r.EngineVersion)

	frame := 0.0
	for i, s := range d.Samples {
		if i == 0 || s.Frame != frame {
			frame = s.Frame
			fmt.Fprintf(w, "frame %g\n", frame)
		}
		fmt.Fprintf(w, "  %s.%s[%d] = %g\n", s.Entity, s.Path, s.Index, s.Value)
	}
}
