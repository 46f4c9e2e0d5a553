package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/zcancio/aide/internal/grid"
	"github.com/zcancio/aide/internal/reduce"
	"github.com/zcancio/aide/internal/store"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Aide        string
	ResolveGrid bool
}

// ApplyEventResult reports the outcome of one applied event.
type ApplyEventResult struct {
	Seq      int64            `json:"seq"`
	Type     string           `json:"type"`
	Applied  bool             `json:"applied"`
	Error    string           `json:"error,omitempty"`
	Warnings []reduce.Warning `json:"warnings,omitempty"`
}

// ApplyResult is the overall outcome of an apply run.
type ApplyResult struct {
	Aide     string             `json:"aide"`
	Events   []ApplyEventResult `json:"events"`
	Applied  int                `json:"applied"`
	Rejected int                `json:"rejected"`
	Queries  []string           `json:"queries,omitempty"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <events-file>",
		Short: "Apply events from a file to an aide",
		Long: `Apply events to an aide's log, one at a time, in file order.

Every event is written to the log and then reduced; rejected events are
reported with their error and stay in the log as inert entries, since
replay skips them the same way on every rebuild. The events file is
JSON Lines by default, or a YAML list when the extension is .yaml/.yml.

Examples:
  aide apply --aide party events.jsonl
  aide apply --aide board --grid moves.yaml
  aide apply --aide party --format json events.jsonl`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Aide, "aide", "", "aide id (required)")
	_ = cmd.MarkFlagRequired("aide")
	cmd.Flags().BoolVar(&opts.ResolveGrid, "grid", false, "resolve cell_ref payloads before applying")

	return cmd
}

func runApply(opts *ApplyOptions, cmd *cobra.Command, eventsPath string) error {
	ctx := context.Background()

	events, err := LoadEvents(eventsPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load events", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer st.Close()

	if err := st.EnsureAide(ctx, opts.Aide); err != nil {
		return WrapExitError(ExitCommandError, "ensure aide", err)
	}
	snap, _, err := st.Materialize(ctx, opts.Aide)
	if err != nil {
		return WrapExitError(ExitCommandError, "materialize snapshot", err)
	}

	result := ApplyResult{Aide: opts.Aide}

	if opts.ResolveGrid {
		resolved, responses, err := grid.ResolvePrimitives(events, snap)
		if err != nil {
			return WrapExitError(ExitFailure, "resolve grid refs", err)
		}
		events = resolved
		result.Queries = responses
	}

	for _, ev := range events {
		seq, err := st.AppendEvent(ctx, opts.Aide, ev)
		if err != nil {
			return WrapExitError(ExitCommandError, "append event", err)
		}
		ev.Seq = seq

		res := reduce.Reduce(snap, ev)
		snap = res.Snapshot

		evResult := ApplyEventResult{
			Seq:      seq,
			Type:     ev.Type,
			Applied:  res.Applied,
			Error:    res.ErrorString(),
			Warnings: res.Warnings,
		}
		result.Events = append(result.Events, evResult)
		if res.Applied {
			result.Applied++
		} else {
			result.Rejected++
			slog.Debug("event rejected", "aide", opts.Aide, "seq", seq, "type", ev.Type, "error", res.ErrorString())
		}

		if err := st.SaveSnapshot(ctx, opts.Aide, seq, snap); err != nil {
			return WrapExitError(ExitCommandError, "save snapshot", err)
		}
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), Response{Status: "ok", Data: result})
	}
	return outputApplyText(cmd, result, opts.Verbose)
}

func outputApplyText(cmd *cobra.Command, result ApplyResult, verbose bool) error {
	w := cmd.OutOrStdout()

	for _, q := range result.Queries {
		fmt.Fprintln(w, q)
	}
	for _, ev := range result.Events {
		if ev.Applied {
			if verbose {
				fmt.Fprintf(w, "✓ %d %s\n", ev.Seq, ev.Type)
			}
		} else {
			fmt.Fprintf(w, "✗ %d %s: %s\n", ev.Seq, ev.Type, ev.Error)
		}
		for _, warn := range ev.Warnings {
			fmt.Fprintf(w, "  warning %s: %s\n", warn.Code, warn.Message)
		}
	}
	fmt.Fprintf(w, "%d applied, %d rejected\n", result.Applied, result.Rejected)
	return nil
}
