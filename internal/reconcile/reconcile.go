// Package reconcile implements the sibling-group matching algorithm that
// turns an old committed child list and a freshly rendered child request
// list into a minimal patch of reuse, replace, insert, and remove
// operations.
//
// Matching is applied per sibling group, not globally across the tree.
// Explicit keys take precedence over positional matching, and the emitted
// patch sequence is fully deterministic: both inputs are walked in order
// and no map iteration ever reaches the output.
package reconcile

import (
	"fmt"

	"github.com/ignius299792458/rv-react/internal/fiber"
	"github.com/ignius299792458/rv-react/internal/types"
)

// OpKind tags a patch operation.
type OpKind int

const (
	// OpReuse carries the old node's instance (its full slot list) into
	// the new tree under updated props.
	OpReuse OpKind = iota
	// OpReplace discards the old node at a position, slot list included,
	// and mounts a fresh instance. State never transfers across different
	// component identities, even at the same position.
	OpReplace
	// OpInsert mounts a fresh instance at a position with no old
	// counterpart.
	OpInsert
	// OpRemove unmounts an old node that matched nothing in the new list.
	OpRemove
)

// String returns the string representation of the op kind.
func (k OpKind) String() string {
	switch k {
	case OpReuse:
		return "reuse"
	case OpReplace:
		return "replace"
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// PatchOp is one reconciliation decision, consumed once by the committer.
type PatchOp struct {
	Kind OpKind
	// Old is the committed node (reuse, replace, remove).
	Old *fiber.Node
	// New is the in-progress node (reuse, replace, insert). Reuse nodes
	// share the old node's slot list and point back at it via Alternate.
	New *fiber.Node
	// Index is the position in the new child list, or the old position
	// for removes.
	Index int
}

// String returns a compact description, useful in logs and test failures.
func (op PatchOp) String() string {
	switch op.Kind {
	case OpRemove:
		return fmt.Sprintf("remove(%s@%d)", op.Old.ID(), op.Index)
	case OpInsert:
		return fmt.Sprintf("insert(%s@%d)", op.New.ID(), op.Index)
	case OpReplace:
		return fmt.Sprintf("replace(%s->%s@%d)", op.Old.ID(), op.New.ID(), op.Index)
	default:
		return fmt.Sprintf("reuse(%s@%d)", op.New.ID(), op.Index)
	}
}

// Reconcile matches one sibling group. Ops for new children are emitted in
// request order, followed by removes in old child order.
func Reconcile(oldChildren []*fiber.Node, requests []types.ChildRequest) []PatchOp {
	ops := make([]PatchOp, 0, len(requests)+len(oldChildren))

	// Lookup of old children by explicit key. Later duplicates among the
	// old children are unreachable by key and can only be removed.
	oldByKey := make(map[string]int, len(oldChildren))
	for i, old := range oldChildren {
		if old.Key == "" {
			continue
		}
		if _, exists := oldByKey[old.Key]; !exists {
			oldByKey[old.Key] = i
		}
	}

	// Keys still wanted by the new list. An old keyed child is protected
	// from positional replacement while its key remains wanted, so keyed
	// matching always wins over positional collisions.
	wantedKeys := make(map[string]int, len(requests))
	for _, req := range requests {
		if req.Key != "" {
			wantedKeys[req.Key]++
		}
	}

	matched := make([]bool, len(oldChildren))
	claimed := make(map[string]bool, len(requests))

	for i, req := range requests {
		var old *fiber.Node
		oldIndex := -1
		duplicateKey := false

		if req.Key != "" {
			wantedKeys[req.Key]--
			// Duplicate explicit keys: the first occurrence wins, later
			// ones are treated as unmatched and always insert fresh.
			if claimed[req.Key] {
				duplicateKey = true
			} else {
				claimed[req.Key] = true
				if j, ok := oldByKey[req.Key]; ok && !matched[j] {
					old = oldChildren[j]
					oldIndex = j
				}
			}
		} else if i < len(oldChildren) && !matched[i] && oldChildren[i].Key == "" {
			// Absent-key positional match.
			old = oldChildren[i]
			oldIndex = i
		}

		if old != nil && old.SameIdentity(req) {
			matched[oldIndex] = true
			ops = append(ops, PatchOp{
				Kind:  OpReuse,
				Old:   old,
				New:   fiber.NewCounterpart(old, req),
				Index: i,
			})
			continue
		}

		// No reusable match: replace a positionally colliding old child
		// if one is free, otherwise insert. Duplicate keyed requests never
		// consume an old child; the collision surfaces as insert + remove.
		if j := i; !duplicateKey && j < len(oldChildren) && !matched[j] && !keyStillWanted(oldChildren[j], wantedKeys) {
			matched[j] = true
			ops = append(ops, PatchOp{
				Kind:  OpReplace,
				Old:   oldChildren[j],
				New:   fiber.NewNode(req),
				Index: i,
			})
			continue
		}

		ops = append(ops, PatchOp{
			Kind:  OpInsert,
			New:   fiber.NewNode(req),
			Index: i,
		})
	}

	for i, old := range oldChildren {
		if !matched[i] {
			ops = append(ops, PatchOp{Kind: OpRemove, Old: old, Index: i})
		}
	}

	return ops
}

// keyStillWanted reports whether old carries an explicit key that a
// not-yet-processed request will claim.
func keyStillWanted(old *fiber.Node, wantedKeys map[string]int) bool {
	return old.Key != "" && wantedKeys[old.Key] > 0
}

// Children assembles the new child list from a patch, in new-list order.
func Children(ops []PatchOp) []*fiber.Node {
	children := make([]*fiber.Node, 0, len(ops))
	for _, op := range ops {
		if op.Kind != OpRemove {
			children = append(children, op.New)
		}
	}
	return children
}

// Removed returns the old nodes a patch unmounts: removes plus the old
// sides of replaces. The committer tears their effect slots down before
// the nodes are discarded.
func Removed(ops []PatchOp) []*fiber.Node {
	removed := make([]*fiber.Node, 0)
	for _, op := range ops {
		if op.Kind == OpRemove || op.Kind == OpReplace {
			removed = append(removed, op.Old)
		}
	}
	return removed
}
