package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zcancio/aide/internal/blueprint"
	"github.com/zcancio/aide/internal/grid"
	"github.com/zcancio/aide/internal/reduce"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidateIssue is one problem found in an input file.
type ValidateIssue struct {
	File    string `json:"file"`
	Index   int    `json:"index,omitempty"`
	Message string `json:"message"`
}

// ValidateResult is the outcome of a validate run.
type ValidateResult struct {
	Files  int             `json:"files"`
	Issues []ValidateIssue `json:"issues"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate event files and blueprints",
		Long: `Validate input files without touching any aide. Event files
(.jsonl/.yaml) are checked for parseability and recognized primitive
types; .cue files are compiled against the blueprint schema.

Exit codes:
  0 - all files valid
  1 - validation issues found
  2 - command error

Examples:
  aide validate events.jsonl
  aide validate party.cue moves.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd, args)
		},
	}
	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command, paths []string) error {
	result := ValidateResult{Files: len(paths)}

	for _, path := range paths {
		if strings.EqualFold(filepath.Ext(path), ".cue") {
			result.Issues = append(result.Issues, validateBlueprint(path)...)
			continue
		}
		result.Issues = append(result.Issues, validateEvents(path)...)
	}

	if opts.Format == "json" {
		resp := Response{Status: "ok", Data: result}
		if len(result.Issues) > 0 {
			resp.Status = "error"
			resp.Error = &CmdError{Code: "E_VALIDATE", Message: fmt.Sprintf("%d issue(s) found", len(result.Issues))}
		}
		if err := writeJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, issue := range result.Issues {
			if issue.Index > 0 {
				fmt.Fprintf(w, "%s: event %d: %s\n", issue.File, issue.Index, issue.Message)
			} else {
				fmt.Fprintf(w, "%s: %s\n", issue.File, issue.Message)
			}
		}
		if len(result.Issues) == 0 {
			fmt.Fprintf(w, "✓ %d file(s) valid\n", result.Files)
		}
	}

	if len(result.Issues) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d issue(s) found", len(result.Issues)))
	}
	return nil
}

func validateBlueprint(path string) []ValidateIssue {
	src, err := os.ReadFile(path)
	if err != nil {
		return []ValidateIssue{{File: path, Message: err.Error()}}
	}
	if _, err := blueprint.Compile(string(src)); err != nil {
		return []ValidateIssue{{File: path, Message: err.Error()}}
	}
	return nil
}

func validateEvents(path string) []ValidateIssue {
	events, err := LoadEvents(path)
	if err != nil {
		return []ValidateIssue{{File: path, Message: err.Error()}}
	}
	var issues []ValidateIssue
	for i, ev := range events {
		if !reduce.Known(ev.Type) && ev.Type != grid.QueryPrimitive {
			issues = append(issues, ValidateIssue{
				File:    path,
				Index:   i + 1,
				Message: fmt.Sprintf("unknown primitive %q", ev.Type),
			})
		}
	}
	return issues
}
