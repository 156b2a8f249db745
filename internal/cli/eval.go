package cli

import (
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/animeval/internal/bake"
	"github.com/roach88/animeval/internal/engine"
	"github.com/roach88/animeval/internal/metrics"
	"github.com/roach88/animeval/internal/scene"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Frames   []float64
	Entities []string
	Debug    []string
	Metrics  bool
}

// FrameValues holds the sampled properties after one frame.
type FrameValues struct {
	Frame   float64        `json:"frame"`
	Samples []scene.Sample `json:"samples"`
}

// EvalResult holds the output of the eval command.
type EvalResult struct {
	Scene   string             `json:"scene"`
	Frames  []FrameValues      `json:"frames"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <scene>",
		Short: "Evaluate a scene at one or more frames",
		Long: `Evaluate a scene at the given frames, in order, and print the
resolved property values. Without --frame the scene's first frame is used.

Examples:
  animeval eval scene.cue --frame 12
  animeval eval scene.cue --frame 1 --frame 24 --entity Cube
  animeval eval scene.cue --frame 10 --debug drivers,bindings --verbose
  animeval eval scene.cue --frame 10 --metrics --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().Float64SliceVar(&opts.Frames, "frame", nil, "frame to evaluate (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Entities, "entity", nil, "entity to print (repeatable; default all)")
	cmd.Flags().StringSliceVar(&opts.Debug, "debug", nil, "trace events to log: drivers, bindings, nla, all")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "report evaluation metrics")

	return cmd
}

func runEval(opts *EvalOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	debug, err := parseDebug(opts.Debug)
	if err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}

	loaded, err := LoadScene(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scene", err)
	}
	doc := loaded.Doc
	for _, id := range opts.Entities {
		if doc.Scene.Object(id) == nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown entity %q", id))
		}
	}

	engineOpts := []engine.Option{
		engine.WithLogger(newLogger(opts.RootOptions, formatter.GetErrWriter())),
		engine.WithDebug(debug),
	}
	reg := prometheus.NewRegistry()
	if opts.Metrics {
		engineOpts = append(engineOpts, engine.WithMetrics(metrics.New(reg)))
	}
	eng := engine.New(bake.Capabilities(doc), engineOpts...)

	frames := opts.Frames
	if len(frames) == 0 {
		frames = []float64{doc.Info.FrameStart}
	}

	result := EvalResult{Scene: doc.Info.Name, Frames: make([]FrameValues, 0, len(frames))}
	for _, f := range frames {
		eng.EvaluateAll(doc.World, f)
		formatter.VerboseLog("Evaluated frame %g (%d entity passes so far)", f, eng.Clock().Current())
		samples := doc.Scene.Snapshot(opts.Entities...)
		if samples == nil {
			samples = []scene.Sample{}
		}
		result.Frames = append(result.Frames, FrameValues{Frame: f, Samples: samples})
	}

	if opts.Metrics {
		if result.Metrics, err = gatherMetrics(reg); err != nil {
			return WrapExitError(ExitCommandError, "failed to gather metrics", err)
		}
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	return outputEvalText(formatter, result)
}

// gatherMetrics flattens counters (summed over labels) and histogram sample
// counts by metric name.
func gatherMetrics(reg *prometheus.Registry) (map[string]float64, error) {
	families, err := reg.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(families))
	for _, mf := range families {
		var v float64
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				v += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				v += float64(m.GetHistogram().GetSampleCount())
			}
		}
		out[mf.GetName()] = v
	}
	return out, nil
}

func outputEvalText(formatter *OutputFormatter, result EvalResult) error {
	w := formatter.Writer
	for _, fv := range result.Frames {
		fmt.Fprintf(w, "frame %g\n", fv.Frame)
		for _, s := range fv.Samples {
			fmt.Fprintf(w, "  %s.%s[%d] = %g\n", s.Entity, s.Path, s.Index, s.Value)
		}
	}
	if len(result.Metrics) > 0 {
		names := make([]string, 0, len(result.Metrics))
		for name := range result.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(w, "metrics")
		for _, name := range names {
			fmt.Fprintf(w, "  %s %g\n", name, result.Metrics[name])
		}
	}
	return nil
}
