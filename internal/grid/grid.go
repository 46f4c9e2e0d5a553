// Package grid resolves spatial cell references ("3,4", "B7") into
// entity refs for collections laid out as grids.
package grid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zcancio/aide/internal/state"
	"github.com/zcancio/aide/internal/value"
)

const (
	defaultRows = 10
	defaultCols = 10
)

// ResolveCell turns a cell reference into an entity ref
// "{collection}/cell_{row}_{col}". Numeric forms use "row,col",
// "row-col" or "row_col" separators; when the snapshot declares
// meta.col_labels and meta.row_labels, letter forms like "B7" resolve
// through the label sets instead.
func ResolveCell(cellRef, collectionID string, snap *state.Snapshot) (string, error) {
	rows, cols := gridBounds(snap, collectionID)

	ref := strings.TrimSpace(cellRef)
	if ref == "" {
		return "", fmt.Errorf("No square %q: empty reference", cellRef)
	}

	if row, col, ok := parseNumeric(ref); ok {
		if row < 1 || row > rows {
			return "", fmt.Errorf("No square %q: row %d out of range 1-%d", cellRef, row, rows)
		}
		if col < 1 || col > cols {
			return "", fmt.Errorf("No square %q: column %d out of range 1-%d", cellRef, col, cols)
		}
		return cellEntityRef(collectionID, row, col), nil
	}

	colLabels := metaLabels(snap, "col_labels")
	rowLabels := metaLabels(snap, "row_labels")
	if len(colLabels) == 0 || len(rowLabels) == 0 {
		return "", fmt.Errorf("No square %q: expected row,col form", cellRef)
	}
	return resolveLabeled(cellRef, collectionID, colLabels, rowLabels)
}

// resolveLabeled matches each character of the uppercased reference
// against exactly one axis. A character on both axes, an axis matched
// twice, or an unmatched character is an error.
func resolveLabeled(cellRef, collectionID string, colLabels, rowLabels []string) (string, error) {
	row, col := 0, 0
	for _, ch := range strings.ToUpper(strings.TrimSpace(cellRef)) {
		label := string(ch)
		ci := labelIndex(colLabels, label)
		ri := labelIndex(rowLabels, label)
		switch {
		case ci > 0 && ri > 0:
			return "", fmt.Errorf("No square %q: %q is both a column (%s) and a row (%s) label",
				cellRef, label, labelRange(colLabels), labelRange(rowLabels))
		case ci > 0:
			if col != 0 {
				return "", fmt.Errorf("No square %q: two column labels (columns are %s)", cellRef, labelRange(colLabels))
			}
			col = ci
		case ri > 0:
			if row != 0 {
				return "", fmt.Errorf("No square %q: two row labels (rows are %s)", cellRef, labelRange(rowLabels))
			}
			row = ri
		default:
			return "", fmt.Errorf("No square %q: %q matches no label (columns are %s, rows are %s)",
				cellRef, label, labelRange(colLabels), labelRange(rowLabels))
		}
	}
	if row == 0 || col == 0 {
		return "", fmt.Errorf("No square %q: need one column label (%s) and one row label (%s)",
			cellRef, labelRange(colLabels), labelRange(rowLabels))
	}
	return cellEntityRef(collectionID, row, col), nil
}

func cellEntityRef(collectionID string, row, col int) string {
	return fmt.Sprintf("%s/cell_%d_%d", collectionID, row, col)
}

func parseNumeric(ref string) (row, col int, ok bool) {
	for _, sep := range []string{",", "-", "_"} {
		parts := strings.SplitN(ref, sep, 2)
		if len(parts) != 2 {
			continue
		}
		r, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		c, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 == nil && err2 == nil {
			return r, c, true
		}
	}
	return 0, 0, false
}

// gridBounds reads grid.rows/grid.cols from the collection's settings,
// defaulting to a 10x10 board. Removed collections keep their bounds;
// resolution against a tombstoned board still addresses stable refs.
func gridBounds(snap *state.Snapshot, collectionID string) (rows, cols int) {
	rows, cols = defaultRows, defaultCols
	col, ok := snap.Collections[collectionID]
	if !ok {
		return rows, cols
	}
	grid, ok := col.Settings.Obj("grid")
	if !ok {
		return rows, cols
	}
	if n, ok := grid.Int64("rows"); ok && n > 0 {
		rows = int(n)
	}
	if n, ok := grid.Int64("cols"); ok && n > 0 {
		cols = int(n)
	}
	return rows, cols
}

func metaLabels(snap *state.Snapshot, key string) []string {
	arr, ok := snap.Meta.Arr(key)
	if !ok {
		return nil
	}
	labels := make([]string, 0, len(arr))
	for _, elem := range arr {
		s, ok := elem.(value.String)
		if !ok {
			return nil
		}
		labels = append(labels, strings.ToUpper(string(s)))
	}
	return labels
}

// labelIndex returns the 1-based position of label, or 0.
func labelIndex(labels []string, label string) int {
	for i, l := range labels {
		if l == label {
			return i + 1
		}
	}
	return 0
}

func labelRange(labels []string) string {
	if len(labels) == 0 {
		return "none"
	}
	return labels[0] + "-" + labels[len(labels)-1]
}
