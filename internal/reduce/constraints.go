package reduce

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zcancio/aide/internal/state"
	"github.com/zcancio/aide/internal/value"
)

// Declarative rules the constraint engine evaluates. Constraints with
// any other rule name are stored but never checked.
const (
	RuleCollectionMaxEntities = "collection_max_entities"
	RuleUniqueField           = "unique_field"
)

// checkConstraints runs the post-mutation constraint pass for rules
// scoped to the affected collection. Non-strict violations become
// warnings and the mutation stands; the first strict violation
// converts the whole operation into a rejection.
func (c *applyCtx) checkConstraints(collectionID string) *Error {
	col, ok := c.snap.LiveCollection(collectionID)
	if !ok {
		return nil
	}
	for _, cons := range c.snap.Constraints {
		if cons.Collection != collectionID {
			continue
		}
		msg, violated := evaluateConstraint(col, cons)
		if !violated {
			continue
		}
		if cons.Strict {
			c.warn(WarnStrictConstraintViolated, "%s", msg)
			return reject(CodeStrictConstraintViolated, "%s", msg)
		}
		c.warn(WarnConstraintViolated, "%s", msg)
	}
	return nil
}

func evaluateConstraint(col *state.Collection, cons state.Constraint) (string, bool) {
	switch cons.Rule {
	case RuleCollectionMaxEntities:
		limit, ok := constraintLimit(cons.Value)
		if !ok {
			return "", false
		}
		if n := int64(col.LiveCount()); n > limit {
			return violationMessage(cons,
				fmt.Sprintf("collection %s has %d entities, max is %d", col.ID, n, limit)), true
		}
	case RuleUniqueField:
		if cons.Field == "" {
			return "", false
		}
		if dup, found := firstDuplicate(col, cons.Field); found {
			return violationMessage(cons,
				fmt.Sprintf("field %s must be unique in %s, duplicate value %q", cons.Field, col.ID, dup)), true
		}
	}
	return "", false
}

func violationMessage(cons state.Constraint, fallback string) string {
	if cons.Message != "" {
		return cons.Message
	}
	return fallback
}

func constraintLimit(v value.Value) (int64, bool) {
	switch n := v.(type) {
	case value.Int:
		return int64(n), true
	case value.Float:
		return int64(n), true
	case value.String:
		parsed, err := strconv.ParseInt(string(n), 10, 64)
		return parsed, err == nil
	}
	return 0, false
}

// firstDuplicate compares string-normalized field values across live
// entities, in creation order so the reported duplicate is stable.
func firstDuplicate(col *state.Collection, field string) (string, bool) {
	seen := make(map[string]bool)
	for _, id := range col.LiveEntityIDs() {
		v, ok := col.Entities[id][field]
		if !ok || value.IsNull(v) {
			continue
		}
		norm := normalizeForUniqueness(v)
		if seen[norm] {
			return norm, true
		}
		seen[norm] = true
	}
	return "", false
}

func normalizeForUniqueness(v value.Value) string {
	var s string
	switch val := v.(type) {
	case value.String:
		s = string(val)
	default:
		b, err := value.Marshal(v)
		if err != nil {
			s = fmt.Sprintf("%v", v)
		} else {
			s = string(b)
		}
	}
	return strings.ToLower(strings.TrimSpace(s))
}
