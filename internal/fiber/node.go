// Package fiber defines the tree node representing one mounted component
// instance. Two node graphs coexist transiently: the committed graph, last
// published to the display sink, and the in-progress graph being computed
// for the next commit. In-progress nodes carry a back-reference
// ("Alternate") to their committed counterpart for slot reuse; nodes never
// store parent pointers, so the graphs are acyclic and parent lookups are
// answered by the traversal stack of whoever is walking the tree.
package fiber

import (
	"github.com/ignius299792458/rv-react/internal/hooks"
	"github.com/ignius299792458/rv-react/internal/types"
)

// Node represents one mounted component instance or host leaf.
type Node struct {
	// Name plus Key form the component identity used for matching across
	// passes. Name identifies the render function; host leaves use the
	// output tag as their name and have a nil Render.
	Name   string
	Key    string
	Props  types.Props
	Render types.RenderFunc

	// Slots is the instance's persistent state, exclusively owned. It is
	// carried verbatim from the committed counterpart on reuse and is nil
	// for host leaves.
	Slots *hooks.SlotList

	// Children are owned by this node, in sibling order.
	Children []*Node

	// Alternate points from an in-progress node to its committed
	// counterpart. It is set during reconciliation and cleared on commit.
	Alternate *Node

	// PendingEffects are the effects staged by this instance during the
	// current pass, run by the committer after the graph swap.
	PendingEffects []hooks.StagedEffect
}

// ID returns the node's component identity.
func (n *Node) ID() types.ComponentID {
	return types.ComponentID{Name: n.Name, Key: n.Key}
}

// IsHost reports whether the node is a host leaf rendered directly by the
// display sink.
func (n *Node) IsHost() bool {
	return n.Render == nil
}

// SameIdentity reports whether a child request names the same component
// identity as this node. State never transfers across different
// identities, even at the same sibling position.
func (n *Node) SameIdentity(req types.ChildRequest) bool {
	return n.Name == req.Name && n.Key == req.Key
}

// NewNode constructs a fresh node for a child request with an empty,
// newly initialized slot list. Host leaves get no slot list.
func NewNode(req types.ChildRequest) *Node {
	node := &Node{
		Name:   req.Name,
		Key:    req.Key,
		Props:  req.Props,
		Render: req.Render,
	}
	if !node.IsHost() {
		node.Slots = hooks.NewSlotList(nil)
	}
	return node
}

// NewCounterpart constructs the in-progress counterpart of a committed
// node for a matching child request: new props, the committed node's slot
// list carried over verbatim, and Alternate pointing back at it.
func NewCounterpart(old *Node, req types.ChildRequest) *Node {
	return &Node{
		Name:      old.Name,
		Key:       old.Key,
		Props:     req.Props,
		Render:    req.Render,
		Slots:     old.Slots,
		Alternate: old,
	}
}

// Finalize clears pass-transient fields after this node has been
// committed. The alternate link must not outlive the pass or the old
// graph could never be collected.
func (n *Node) Finalize() {
	n.Alternate = nil
	n.PendingEffects = nil
}

// WalkPostOrder visits the subtree rooted at n children-first, siblings in
// child-list order. This is the traversal order for effect execution:
// child effects run before parent effects.
func (n *Node) WalkPostOrder(visit func(*Node)) {
	for _, child := range n.Children {
		child.WalkPostOrder(visit)
	}
	visit(n)
}

// WalkPreOrder visits the subtree rooted at n parents-first.
func (n *Node) WalkPreOrder(visit func(*Node)) {
	visit(n)
	for _, child := range n.Children {
		child.WalkPreOrder(visit)
	}
}

// CountNodes returns the number of nodes in the subtree rooted at n.
func (n *Node) CountNodes() int {
	count := 0
	n.WalkPreOrder(func(*Node) { count++ })
	return count
}
