// Package runtime ties the renderer, reconciler, and committer into the
// render-pass loop: an external trigger marks an instance dirty, affected
// render functions are re-invoked against their slot lists, the in-progress
// tree is reconciled against the committed tree, and the resulting patch is
// committed by an atomic root swap followed by deferred effect execution.
//
// Scheduling is single-logical-thread and run-to-completion per pass. A
// mutation arriving mid-pass merges into the pass when it targets a
// component the pass has not yet reached (dirtiness is consulted at visit
// time); otherwise it stays in the dirty set and the loop runs another
// pass. A pass abandoned before commit discards its in-progress graph with
// no observable effect.
package runtime

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	rverrors "github.com/ignius299792458/rv-react/internal/errors"
	"github.com/ignius299792458/rv-react/internal/fiber"
	"github.com/ignius299792458/rv-react/internal/hooks"
	"github.com/ignius299792458/rv-react/internal/logging"
	"github.com/ignius299792458/rv-react/internal/monitoring"
	"github.com/ignius299792458/rv-react/internal/reconcile"
	"github.com/ignius299792458/rv-react/internal/render"
	"github.com/ignius299792458/rv-react/internal/types"
)

// maxPassesPerFlush bounds render loops caused by effects or renders that
// keep scheduling new work.
const maxPassesPerFlush = 64

// Sink consumes committed changes: the new committed root and the minimal
// patch that produced it. The display layer (HTML preview, terminal, DOM)
// lives behind this interface.
type Sink interface {
	Apply(root *fiber.Node, ops []reconcile.PatchOp) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(root *fiber.Node, ops []reconcile.PatchOp) error

// Apply implements Sink.
func (f SinkFunc) Apply(root *fiber.Node, ops []reconcile.PatchOp) error {
	return f(root, ops)
}

// MultiSink fans committed changes out to several sinks in order.
type MultiSink []Sink

// Apply implements Sink. The first error stops the fan-out.
func (m MultiSink) Apply(root *fiber.Node, ops []reconcile.PatchOp) error {
	for _, sink := range m {
		if err := sink.Apply(root, ops); err != nil {
			return err
		}
	}
	return nil
}

// Runtime owns one component tree: the committed graph, the dirty set, and
// the pass loop that keeps them converged.
type Runtime struct {
	rootName   string
	rootRender types.RenderFunc

	// root is the committed graph, published only by full pointer swap so
	// a reader holding an old root keeps observing a consistent snapshot.
	root atomic.Pointer[fiber.Node]

	mu        sync.Mutex
	rootProps types.Props
	dirty     map[*hooks.SlotList]struct{}
	rootDirty bool

	wake chan struct{}

	sink    Sink
	errSink types.ErrorSink
	logger  logging.Logger
	metrics *monitoring.Metrics
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithSink installs the display sink receiving committed patches.
func WithSink(sink Sink) Option {
	return func(rt *Runtime) { rt.sink = sink }
}

// WithErrorSink installs the sink receiving render and commit failures.
func WithErrorSink(sink types.ErrorSink) Option {
	return func(rt *Runtime) { rt.errSink = sink }
}

// WithLogger installs a structured logger.
func WithLogger(logger logging.Logger) Option {
	return func(rt *Runtime) { rt.logger = logger }
}

// WithMetrics installs pass and commit metrics.
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(rt *Runtime) { rt.metrics = metrics }
}

// New creates a runtime for a root component. Nothing renders until the
// first Flush (or Start).
func New(rootName string, rootRender types.RenderFunc, rootProps types.Props, opts ...Option) *Runtime {
	rt := &Runtime{
		rootName:   rootName,
		rootRender: rootRender,
		rootProps:  rootProps,
		dirty:      make(map[*hooks.SlotList]struct{}),
		rootDirty:  true,
		wake:       make(chan struct{}, 1),
		logger:     logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Root returns the committed graph, nil before the first commit. The
// returned tree is read-shared: the runtime never mutates a published
// root in place.
func (rt *Runtime) Root() *fiber.Node {
	return rt.root.Load()
}

// SetRootProps replaces the root component's props and schedules a pass.
func (rt *Runtime) SetRootProps(props types.Props) {
	rt.mu.Lock()
	rt.rootProps = props
	rt.rootDirty = true
	rt.mu.Unlock()
	rt.wakeUp()
}

// RequestRender schedules a full re-render of the root subtree.
func (rt *Runtime) RequestRender() {
	rt.mu.Lock()
	rt.rootDirty = true
	rt.mu.Unlock()
	rt.wakeUp()
}

// markDirty records a state-slot mutation for an instance. Only that
// instance's subtree is re-rendered by the next pass to reach it.
func (rt *Runtime) markDirty(slots *hooks.SlotList) {
	rt.mu.Lock()
	rt.dirty[slots] = struct{}{}
	rt.mu.Unlock()
	rt.wakeUp()
}

func (rt *Runtime) wakeUp() {
	select {
	case rt.wake <- struct{}{}:
	default:
	}
}

func (rt *Runtime) isDirty(slots *hooks.SlotList) bool {
	if slots == nil {
		return false
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	_, ok := rt.dirty[slots]
	return ok
}

// clearDirty consumes the dirty flag for an instance the pass is about to
// render. Marks arriving later for this instance stay in the set and force
// another pass.
func (rt *Runtime) clearDirty(slots *hooks.SlotList) {
	if slots == nil {
		return
	}
	rt.mu.Lock()
	delete(rt.dirty, slots)
	rt.mu.Unlock()
}

func (rt *Runtime) hasWork() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.rootDirty || len(rt.dirty) > 0
}

// Flush runs render passes until no instance is dirty, committing each
// pass. It is the synchronous entry point used by tests and by the Start
// loop. On failure the committed graph is untouched and the error, already
// reported to the error sink, is returned wrapped as a commit abort.
func (rt *Runtime) Flush(ctx context.Context) error {
	for passes := 0; rt.hasWork(); passes++ {
		if passes >= maxPassesPerFlush {
			err := rverrors.NewInternalError("render loop did not settle", nil).
				WithComponent(rt.rootName)
			rt.logger.Error(ctx, err, "Flush aborted", "passes", passes)
			return err
		}
		if err := rt.renderPass(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Start runs the pass loop until ctx is cancelled. Failures are reported
// through the error sink and logged; the loop keeps serving the last
// committed graph.
func (rt *Runtime) Start(ctx context.Context) {
	rt.wakeUp()
	for {
		select {
		case <-ctx.Done():
			return
		case <-rt.wake:
			if err := rt.Flush(ctx); err != nil {
				rt.logger.Error(ctx, err, "Render pass failed, committed tree retained")
			}
		}
	}
}

// renderPass computes one in-progress graph, reconciles it against the
// committed graph, and commits it.
func (rt *Runtime) renderPass(ctx context.Context) error {
	start := time.Now()

	rt.mu.Lock()
	rootProps := rt.rootProps
	rootWasDirty := rt.rootDirty
	rt.rootDirty = false
	rt.mu.Unlock()

	old := rt.root.Load()

	rootReq := types.ChildRequest{
		Name:   rt.rootName,
		Props:  rootProps,
		Render: rt.rootRender,
	}

	var wip *fiber.Node
	if old == nil {
		wip = fiber.NewNode(rootReq)
	} else {
		wip = fiber.NewCounterpart(old, rootReq)
	}

	var patch []reconcile.PatchOp
	var removed []*fiber.Node

	if err := rt.renderNode(wip, old == nil || rootWasDirty, &patch, &removed); err != nil {
		// Abort: the in-progress graph is discarded untouched; the
		// committed graph stays authoritative.
		rt.reportFailure(ctx, err)
		rt.metrics.PassAborted()
		return rverrors.NewCommitAborted(err)
	}

	rt.commit(ctx, wip, patch, removed)
	rt.metrics.PassCommitted(time.Since(start), patch)
	rt.logger.Debug(ctx, "Pass committed",
		"ops", len(patch),
		"nodes", wip.CountNodes(),
		"duration", time.Since(start).String(),
	)
	return nil
}

// renderNode fills in the children of one in-progress node, re-invoking
// its render function when the instance is new, dirty, or received
// different props, and otherwise carrying the committed subtree forward.
func (rt *Runtime) renderNode(wip *fiber.Node, isNew bool, patch *[]reconcile.PatchOp, removed *[]*fiber.Node) error {
	old := wip.Alternate

	if wip.Slots != nil {
		slots := wip.Slots
		wip.Slots.SetSchedule(func() { rt.markDirty(slots) })
	}

	needsRender := isNew || old == nil ||
		rt.isDirty(wip.Slots) ||
		!propsEqual(wip.Props, old.Props)

	if !needsRender {
		// Nothing changed here; carry committed children forward, but
		// keep descending wherever a dirty instance hides below.
		return rt.carryChildren(wip, old, patch, removed)
	}

	rt.clearDirty(wip.Slots)

	requests, err := render.Invoke(wip)
	if err != nil {
		return err
	}

	var oldChildren []*fiber.Node
	if old != nil {
		oldChildren = old.Children
	}

	ops := reconcile.Reconcile(oldChildren, requests)
	wip.Children = reconcile.Children(ops)
	*patch = append(*patch, ops...)
	*removed = append(*removed, reconcile.Removed(ops)...)

	for _, op := range ops {
		switch op.Kind {
		case reconcile.OpReuse:
			if err := rt.renderNode(op.New, false, patch, removed); err != nil {
				return err
			}
		case reconcile.OpReplace, reconcile.OpInsert:
			if err := rt.renderNode(op.New, true, patch, removed); err != nil {
				return err
			}
		}
	}
	return nil
}

// carryChildren clones the committed children into the in-progress node
// without re-invoking renders, recursing so that dirty descendants still
// get their subtree rebuilt. Subtrees with no dirty instance are shared
// structurally with the committed graph.
func (rt *Runtime) carryChildren(wip, old *fiber.Node, patch *[]reconcile.PatchOp, removed *[]*fiber.Node) error {
	wip.Children = make([]*fiber.Node, 0, len(old.Children))
	for _, oldChild := range old.Children {
		if !rt.subtreeDirty(oldChild) {
			wip.Children = append(wip.Children, oldChild)
			continue
		}
		childWip := fiber.NewCounterpart(oldChild, types.ChildRequest{
			Name:   oldChild.Name,
			Key:    oldChild.Key,
			Props:  oldChild.Props,
			Render: oldChild.Render,
		})
		if err := rt.renderNode(childWip, false, patch, removed); err != nil {
			return err
		}
		wip.Children = append(wip.Children, childWip)
	}
	return nil
}

// subtreeDirty reports whether any instance in the committed subtree has a
// pending state mutation.
func (rt *Runtime) subtreeDirty(node *fiber.Node) bool {
	if rt.isDirty(node.Slots) {
		return true
	}
	for _, child := range node.Children {
		if rt.subtreeDirty(child) {
			return true
		}
	}
	return false
}

// commit publishes the in-progress graph and runs deferred work: the swap
// is the only externally observable state transition, then removed nodes
// run their effect teardowns children-first, then newly committed effects
// run children-before-parents in sibling order, each at most once.
func (rt *Runtime) commit(ctx context.Context, wip *fiber.Node, patch []reconcile.PatchOp, removed []*fiber.Node) {
	rt.root.Store(wip)

	if rt.sink != nil {
		if err := rt.sink.Apply(wip, patch); err != nil {
			rt.logger.Warn(ctx, err, "Display sink rejected committed patch")
		}
	}

	for _, node := range removed {
		node.WalkPostOrder(func(n *fiber.Node) {
			if n.Slots != nil {
				// Unbind the schedule first: a setter retained past unmount
				// (through a ref or a closure) must become a no-op, not an
				// orphaned dirty mark no pass can clear.
				n.Slots.SetSchedule(nil)
				n.Slots.Teardown()
				rt.clearDirty(n.Slots)
			}
		})
	}

	wip.WalkPostOrder(func(n *fiber.Node) {
		for _, effect := range n.PendingEffects {
			if err := n.Slots.RunEffect(effect); err != nil {
				rt.logger.Error(ctx, err, "Effect execution failed",
					"component", n.ID().String(),
					"slot", effect.Index,
				)
				continue
			}
			rt.metrics.EffectRan()
		}
		n.Finalize()
	})
}

// reportFailure forwards a pass failure to the error sink with component
// identity and slot index when one is attributable.
func (rt *Runtime) reportFailure(ctx context.Context, err error) {
	id := types.ComponentID{Name: rt.rootName}
	var re *rverrors.RuntimeError
	if errors.As(err, &re) && re.Component != "" {
		id = types.ComponentID{Name: re.Component}
	}
	rt.logger.Error(ctx, err, "Render pass aborted",
		"component", id.String(),
		"slot", rverrors.SlotIndexOf(err),
	)
	if rt.errSink != nil {
		rt.errSink.ReportError(id, rverrors.SlotIndexOf(err), err)
	}
}

// propsEqual compares two prop maps structurally. Props are developer
// data and may hold slices or maps, so plain interface comparison is not
// enough.
func propsEqual(a, b types.Props) bool {
	if len(a) != len(b) {
		return false
	}
	return reflect.DeepEqual(a, b)
}
