// Package render implements the component invocation engine: it calls a
// component's render function against the instance's slot cursor and turns
// the result into the node's child requests and staged effects.
//
// The renderer never runs effects and never touches the committed tree; a
// failing or panicking render function is captured as a structured render
// failure so the surrounding pass can abort without corrupting anything.
package render

import (
	"errors"
	"fmt"

	rverrors "github.com/ignius299792458/rv-react/internal/errors"
	"github.com/ignius299792458/rv-react/internal/fiber"
	"github.com/ignius299792458/rv-react/internal/types"
)

// Invoke calls node's render function with a fresh slot cursor reset to 0,
// returning the ordered child requests the component wants mounted.
// Effects whose dependencies changed since the last committed pass are
// left staged on node.PendingEffects; they run only if the pass commits.
//
// Host leaves have no render function and no children of their own; Invoke
// returns an empty request list for them.
func Invoke(node *fiber.Node) (requests []types.ChildRequest, err error) {
	if node.IsHost() {
		return nil, nil
	}
	if node.Slots == nil {
		return nil, rverrors.NewInternalError(
			"component node has no slot list", nil,
		).WithComponent(node.ID().String())
	}

	node.Slots.Begin()
	defer func() {
		staged := node.Slots.End()

		if r := recover(); r != nil {
			err = renderFailure(node, r)
			return
		}
		if err != nil {
			err = asRenderFailure(node, err)
			return
		}
		node.PendingEffects = staged
	}()

	requests, err = node.Render(node.Props, node.Slots)
	return requests, err
}

// renderFailure wraps a recovered panic from a render function.
func renderFailure(node *fiber.Node, recovered interface{}) error {
	var cause error
	if e, ok := recovered.(error); ok {
		cause = e
	} else {
		cause = fmt.Errorf("%v", recovered)
	}
	return asRenderFailure(node, cause)
}

// asRenderFailure normalizes any error out of a render invocation into a
// render failure carrying the component identity. Slot errors keep their
// own code and slot index so the error sink can point at the offending
// slot.
func asRenderFailure(node *fiber.Node, err error) error {
	if rverrors.IsSlotError(err) {
		var re *rverrors.RuntimeError
		if errors.As(err, &re) && re.Component == "" {
			re.Component = node.ID().String()
		}
		return err
	}
	return rverrors.NewRenderError("render function failed", err).
		WithComponent(node.ID().String()).
		WithSlot(rverrors.SlotIndexOf(err))
}
