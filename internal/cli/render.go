package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zcancio/aide/internal/blueprint"
	"github.com/zcancio/aide/internal/reduce"
	"github.com/zcancio/aide/internal/render"
	"github.com/zcancio/aide/internal/state"
	"github.com/zcancio/aide/internal/store"
	"github.com/zcancio/aide/internal/value"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Aide      string
	Blueprint string
	Footer    string
	Out       string
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render [events-file]",
		Short: "Render an aide as a self-contained HTML page",
		Long: `Render an aide's current snapshot to HTML. The page embeds the
blueprint, snapshot, and event log as data islands, so the output file
carries everything needed to reconstruct the aide.

The snapshot comes from the stored aide log, or from replaying an
events file when one is given.

Examples:
  aide render --aide party -o party.html
  aide render events.jsonl --blueprint party.cue -o party.html`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Aide, "aide", "", "aide id to render from the database")
	cmd.Flags().StringVar(&opts.Blueprint, "blueprint", "", "path to a CUE blueprint file")
	cmd.Flags().StringVar(&opts.Footer, "footer", "", "footer text")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "output file (default stdout)")

	return cmd
}

func runRender(opts *RenderOptions, cmd *cobra.Command, args []string) error {
	var (
		snap   *state.Snapshot
		events []reduce.Event
	)

	if len(args) == 1 {
		loaded, err := LoadEvents(args[0])
		if err != nil {
			return WrapExitError(ExitCommandError, "load events", err)
		}
		events = loaded
		snap = reduce.Replay(events)
	} else {
		if opts.Aide == "" {
			return NewExitError(ExitCommandError, "either an events file or --aide is required")
		}
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "open database", err)
		}
		defer st.Close()

		ctx := context.Background()
		snap, _, err = st.Materialize(ctx, opts.Aide)
		if err != nil {
			return WrapExitError(ExitCommandError, "materialize snapshot", err)
		}
		events, err = st.Events(ctx, opts.Aide)
		if err != nil {
			return WrapExitError(ExitCommandError, "read events", err)
		}
	}

	var bp value.Value = value.Object{}
	if opts.Blueprint != "" {
		src, err := os.ReadFile(opts.Blueprint)
		if err != nil {
			return WrapExitError(ExitCommandError, "read blueprint", err)
		}
		bp, err = blueprint.Compile(string(src))
		if err != nil {
			return WrapExitError(ExitFailure, "compile blueprint", err)
		}
	}

	var renderOpts []render.Option
	if opts.Footer != "" {
		renderOpts = append(renderOpts, render.WithFooter(opts.Footer))
	}
	html := render.Render(snap, bp, events, renderOpts...)

	if opts.Out == "" {
		fmt.Fprint(cmd.OutOrStdout(), html)
		return nil
	}
	if err := os.WriteFile(opts.Out, []byte(html), 0o644); err != nil {
		return WrapExitError(ExitCommandError, "write output", err)
	}
	return nil
}
