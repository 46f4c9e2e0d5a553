// Package tier classifies an incoming user message into a capability
// tier. The classifier is purely lexical: an ordered rule cascade where
// the first match wins, so later rules may assume earlier ones missed.
package tier

import (
	"strings"

	"github.com/zcancio/aide/internal/state"
)

// Capability tiers, lowest to highest.
const (
	L2 = "L2"
	L3 = "L3"
	L4 = "L4"
)

// structuralKeywords signal page-level restructuring, the most
// expensive kind of change.
var structuralKeywords = []string{
	"redesign",
	"restructure",
	"reorganize",
	"rearrange",
	"layout",
	"theme",
	"rebuild",
	"start over",
	"from scratch",
}

// creationVerbs signal net-new structure (collections, views, fields).
var creationVerbs = []string{
	"create",
	"add a ",
	"add an ",
	"make a ",
	"make an ",
	"new ",
	"set up",
	"track ",
	"build ",
}

var interrogativePrefixes = []string{
	"who", "what", "when", "where", "why", "how",
	"is ", "are ", "do ", "does ", "did ", "can ", "could ",
	"should ", "will ", "which",
}

// Classify returns the tier a message should be routed to. Rules run
// in strict order: structural keywords, creation verbs, questions,
// empty-table fills, multi-item batches, then the L2 default.
func Classify(message string, snap *state.Snapshot) string {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return L2
	}

	for _, kw := range structuralKeywords {
		if strings.Contains(msg, kw) {
			return L4
		}
	}

	for _, verb := range creationVerbs {
		if strings.Contains(msg, verb) {
			return L3
		}
	}

	if strings.HasSuffix(msg, "?") {
		return L2
	}
	for _, prefix := range interrogativePrefixes {
		if strings.HasPrefix(msg, prefix) {
			return L2
		}
	}

	if mentionsEmptyCollection(msg, snap) {
		return L3
	}

	if multiItem(msg) {
		return L3
	}

	return L2
}

// mentionsEmptyCollection reports whether the message names a live
// collection that has no live entities yet. Filling an empty table is
// a batch operation, not a single edit.
func mentionsEmptyCollection(msg string, snap *state.Snapshot) bool {
	if snap == nil {
		return false
	}
	for id, col := range snap.Collections {
		if col.Removed || col.LiveCount() > 0 {
			continue
		}
		if strings.Contains(msg, strings.ToLower(col.Name)) || strings.Contains(msg, strings.ToLower(id)) {
			return true
		}
	}
	return false
}

// multiItem detects comma-segmented lists of three or more items,
// which expand into one event per item.
func multiItem(msg string) bool {
	segments := 0
	for _, part := range strings.Split(msg, ",") {
		if strings.TrimSpace(part) != "" {
			segments++
		}
	}
	return segments >= 3
}
