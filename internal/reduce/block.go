package reduce

import (
	"github.com/zcancio/aide/internal/state"
	"github.com/zcancio/aide/internal/value"
)

// applyBlockSet handles block.set {id, type?, parent?, position?,
// props?} as an upsert. Existing blocks get their props shallow-merged
// and may be reparented; new blocks require a type and a pre-existing
// parent (defaulting to the root).
//
// Reparenting first detaches the id from every block's children so a
// block never appears under two parents, and refuses a parent that is
// the block itself or one of its descendants.
func applyBlockSet(c *applyCtx) *Error {
	id, ok := c.payload.Str("id")
	if !ok || id == "" {
		return reject(CodeInvalidPayload, "id is required")
	}

	block, exists := c.snap.Blocks[id]
	if !exists {
		blockType, ok := c.payload.Str("type")
		if !ok || blockType == "" {
			return reject(CodeBlockTypeMissing, "%s", id)
		}
		parent, _ := c.payload.Str("parent")
		if parent == "" {
			parent = state.RootBlockID
		}
		parentBlock, ok := c.snap.Blocks[parent]
		if !ok {
			return reject(CodeBlockNotFound, "%s", parent)
		}
		props, _ := c.payload.Obj("props")
		if props == nil {
			props = value.Object{}
		}
		c.snap.Blocks[id] = &state.Block{
			Type:     blockType,
			Children: []string{},
			Props:    props.Clone(),
		}
		insertChild(parentBlock, id, c.payload)
		return nil
	}

	if blockType, ok := c.payload.Str("type"); ok && blockType != "" {
		block.Type = blockType
	}
	if props, ok := c.payload.Obj("props"); ok {
		mergeNullDeletes(block.Props, props)
	}

	parent, hasParent := c.payload.Str("parent")
	_, hasPosition := c.payload["position"]
	if hasParent || hasPosition {
		if !hasParent || parent == "" {
			parent = currentParent(c.snap, id)
		}
		parentBlock, ok := c.snap.Blocks[parent]
		if !ok {
			return reject(CodeBlockNotFound, "%s", parent)
		}
		if parent == id || isDescendant(c.snap, id, parent) {
			return reject(CodeBlockCycle, "%s", id)
		}
		detachFromAllParents(c.snap, id)
		insertChild(parentBlock, id, c.payload)
	}
	return nil
}

// insertChild places id into parent's children at payload position, or
// appends when no position is given.
func insertChild(parent *state.Block, id string, payload value.Object) {
	pos, hasPos := payload.Int64("position")
	if !hasPos || pos < 0 || pos >= int64(len(parent.Children)) {
		parent.Children = append(parent.Children, id)
		return
	}
	parent.Children = append(parent.Children, "")
	copy(parent.Children[pos+1:], parent.Children[pos:])
	parent.Children[pos] = id
}

func currentParent(snap *state.Snapshot, id string) string {
	for parentID, b := range snap.Blocks {
		for _, child := range b.Children {
			if child == id {
				return parentID
			}
		}
	}
	return state.RootBlockID
}

// isDescendant reports whether candidate sits in root's subtree.
func isDescendant(snap *state.Snapshot, root, candidate string) bool {
	stack := append([]string(nil), snap.Blocks[root].Children...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == candidate {
			return true
		}
		if b, ok := snap.Blocks[id]; ok {
			stack = append(stack, b.Children...)
		}
	}
	return false
}

func detachFromAllParents(snap *state.Snapshot, id string) {
	for _, b := range snap.Blocks {
		kept := b.Children[:0]
		for _, child := range b.Children {
			if child == id {
				continue
			}
			kept = append(kept, child)
		}
		b.Children = kept
	}
}

// applyBlockRemove hard-deletes a block and its whole subtree. The
// root is never removable. Unlike entities, blocks leave no tombstone.
func applyBlockRemove(c *applyCtx) *Error {
	id, ok := c.payload.Str("id")
	if !ok || id == "" {
		return reject(CodeInvalidPayload, "id is required")
	}
	if id == state.RootBlockID {
		return reject(CodeCantRemoveRoot, "")
	}
	if _, exists := c.snap.Blocks[id]; !exists {
		return reject(CodeBlockNotFound, "%s", id)
	}

	doomed := []string{id}
	for i := 0; i < len(doomed); i++ {
		if b, ok := c.snap.Blocks[doomed[i]]; ok {
			doomed = append(doomed, b.Children...)
		}
	}
	detachFromAllParents(c.snap, id)
	for _, d := range doomed {
		delete(c.snap.Blocks, d)
	}
	return nil
}

// applyBlockReorder handles block.reorder {parent, children}. Existing
// children omitted from the requested order are appended afterward in
// their prior relative order, never dropped; requested ids that are
// not current children are ignored.
func applyBlockReorder(c *applyCtx) *Error {
	parentID, ok := c.payload.Str("parent")
	if !ok || parentID == "" {
		return reject(CodeInvalidPayload, "parent is required")
	}
	parent, ok := c.snap.Blocks[parentID]
	if !ok {
		return reject(CodeBlockNotFound, "%s", parentID)
	}
	requested, _ := c.payload.Arr("children")

	current := make(map[string]bool, len(parent.Children))
	for _, child := range parent.Children {
		current[child] = true
	}

	reordered := make([]string, 0, len(parent.Children))
	placed := make(map[string]bool, len(parent.Children))
	for _, elem := range requested {
		id, isStr := elem.(value.String)
		if !isStr {
			continue
		}
		child := string(id)
		if current[child] && !placed[child] {
			reordered = append(reordered, child)
			placed[child] = true
		}
	}
	for _, child := range parent.Children {
		if !placed[child] {
			reordered = append(reordered, child)
			placed[child] = true
		}
	}
	parent.Children = reordered
	return nil
}
