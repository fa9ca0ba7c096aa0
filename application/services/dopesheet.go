package services

import (
	"go.uber.org/zap"

	"dopesheet/application/commands"
	"dopesheet/application/ports"
	"dopesheet/domain/config"
	"dopesheet/domain/core/entities"
	"dopesheet/domain/core/graph"
	"dopesheet/domain/core/valueobjects"
	"dopesheet/domain/events"
	domain "dopesheet/domain/services"
	"dopesheet/pkg/observability"
)

// RowKind tells node rows from knob rows
type RowKind int

const (
	RowKindNode RowKind = iota
	RowKindKnob
)

// Row is one line of the dope sheet, in display order
type Row struct {
	ID    valueobjects.RowID
	Kind  RowKind
	Depth int
	Node  *entities.NodeContext
	Knob  *entities.KnobContext
}

// DopeSheet is the animation model: the index from graph nodes to their
// contexts and the editing entry points. Each edit builds one command and
// pushes it on the undo stack. It is not safe for concurrent use.
type DopeSheet struct {
	config   *config.DomainConfig
	timeline graph.Timeline

	nodes    map[string]*entities.NodeContext
	order    []*entities.NodeContext
	nodeRows map[valueobjects.RowID]*entities.NodeContext
	knobRows map[valueobjects.RowID]*entities.KnobContext

	selection *domain.SelectionModel
	ranges    *domain.RangeEngine
	stack     *commands.Stack

	clipboard    []valueobjects.KeyFrame
	destinations []*entities.KnobContext

	bus      ports.EventBus
	reporter ports.Reporter
	logger   *zap.Logger
}

// NewDopeSheet creates an empty dope sheet over timeline
func NewDopeSheet(
	cfg *config.DomainConfig,
	timeline graph.Timeline,
	bus ports.EventBus,
	reporter ports.Reporter,
	metrics *observability.Collector,
	logger *zap.Logger,
) *DopeSheet {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = ports.ReporterFunc(func(msg string) {
			logger.Warn("User report", zap.String("message", msg))
		})
	}

	d := &DopeSheet{
		config:   cfg,
		timeline: timeline,
		nodes:    make(map[string]*entities.NodeContext),
		nodeRows: make(map[valueobjects.RowID]*entities.NodeContext),
		knobRows: make(map[valueobjects.RowID]*entities.KnobContext),
		bus:      bus,
		reporter: reporter,
		logger:   logger,
	}

	var publisher events.Publisher
	if bus != nil {
		publisher = bus
	}
	d.selection = domain.NewSelectionModel(publisher, metrics, logger.Named("selection"))
	d.ranges = domain.NewRangeEngine(d, cfg, publisher, metrics, logger.Named("ranges"))
	d.stack = commands.NewStack(cfg.UndoLimit, publisher, metrics, logger.Named("undo"))

	if bus != nil {
		// commands change keyframes and range knobs; every range may follow
		bus.Subscribe(events.TypeKeyframeSetOrRemoved, func(events.DomainEvent) {
			d.recomputeRanges()
		})
	}
	return d
}

// Selection returns the keyframe and range node selection
func (d *DopeSheet) Selection() *domain.SelectionModel { return d.selection }

// Stack returns the undo stack
func (d *DopeSheet) Stack() *commands.Stack { return d.stack }

// Timeline returns the project timeline
func (d *DopeSheet) Timeline() graph.Timeline { return d.timeline }

// Config returns the domain configuration
func (d *DopeSheet) Config() *config.DomainConfig { return d.config }

// ItemType classifies node by its plugin ID
func (d *DopeSheet) ItemType(node graph.Node) valueobjects.ItemType {
	pluginID := node.PluginID()
	switch {
	case d.config.IsReader(pluginID):
		return valueobjects.ItemTypeReader
	case pluginID == d.config.GroupPluginID:
		return valueobjects.ItemTypeGroup
	case pluginID == d.config.RetimePluginID:
		return valueobjects.ItemTypeRetime
	case pluginID == d.config.TimeOffsetPluginID:
		return valueobjects.ItemTypeTimeOffset
	case pluginID == d.config.FrameRangePluginID:
		return valueobjects.ItemTypeFrameRange
	default:
		return valueobjects.ItemTypeCommon
	}
}

func (d *DopeSheet) isExcluded(node graph.Node) bool {
	if d.config.IsExcluded(node.PluginID()) {
		return true
	}
	if coll := node.Group(); coll != nil && coll.Owner() != nil {
		return d.config.IsExcludedContainer(coll.Owner().PluginID())
	}
	return false
}

// AddNode inserts node into the dope sheet. It returns false for nodes that
// are never shown: group I/O helpers, roto internals and common nodes
// without animatable knobs.
func (d *DopeSheet) AddNode(node graph.Node) (*entities.NodeContext, bool) {
	if node == nil || !node.IsAlive() {
		return nil, false
	}
	if nc, ok := d.nodes[node.ID()]; ok {
		return nc, true
	}
	if d.isExcluded(node) {
		return nil, false
	}

	itemType := d.ItemType(node)
	nc, err := entities.NewNodeContext(node, itemType)
	if err != nil {
		d.logger.Error("Failed to create node context", zap.Error(err))
		return nil, false
	}
	if itemType == valueobjects.ItemTypeCommon && !nc.HasKnobContexts() {
		return nil, false
	}

	d.nodes[node.ID()] = nc
	d.order = append(d.order, nc)
	d.nodeRows[nc.ID()] = nc
	for _, k := range nc.AllKnobContexts() {
		d.knobRows[k.ID()] = k
	}

	d.nest(nc)
	for _, other := range d.order {
		if other != nc && other.Parent() == nil {
			d.nest(other)
		}
	}

	d.logger.Debug("Node added",
		zap.String("node", node.Label()),
		zap.String("item_type", itemType.String()),
	)
	d.publish(events.NewNodeAdded(nc.ID(), node.ID(), itemType))
	d.publish(events.NewModelChanged("node_added"))

	if nc.IsRangeDrawingEnabled() {
		d.ranges.ComputeNodeRange(nc)
	}
	if group := domain.GroupNodeContext(d, nc); group != nil {
		d.ranges.ComputeNodeRange(group)
	}
	return nc, true
}

// AddCollection adds every node of coll and of the groups it contains
func (d *DopeSheet) AddCollection(coll graph.NodeCollection) {
	if coll == nil {
		return
	}
	for _, n := range coll.Nodes() {
		d.AddNode(n)
		if inner := n.AsGroup(); inner != nil {
			d.AddCollection(inner)
		}
	}
}

// nest puts nc under its group row or, failing that, under the nearest
// downstream time node.
func (d *DopeSheet) nest(nc *entities.NodeContext) {
	parent := domain.GroupNodeContext(d, nc)
	if parent == nil {
		parent = domain.NearestTimeNodeFromOutputs(d, nc)
	}
	if parent == nil || isAncestor(nc, parent) {
		return
	}
	nc.SetParent(parent)
}

// isAncestor reports whether a is b or one of b's display ancestors
func isAncestor(a, b *entities.NodeContext) bool {
	for n := b; n != nil; n = n.Parent() {
		if n == a {
			return true
		}
	}
	return false
}

// RemoveNode takes node out of the dope sheet. The selection is pruned
// before the node context is torn down; nested rows move to its parent.
// Every range is recomputed afterwards: the node may have fed time nodes
// and groups anywhere downstream.
func (d *DopeSheet) RemoveNode(node graph.Node) bool {
	nc := d.FindNodeContext(node)
	if nc == nil {
		return false
	}

	d.selection.OnNodeAboutToBeRemoved(nc)
	d.publish(events.NewNodeAboutToBeRemoved(nc.ID(), node.ID()))

	delete(d.nodes, node.ID())
	delete(d.nodeRows, nc.ID())
	for _, k := range nc.AllKnobContexts() {
		delete(d.knobRows, k.ID())
	}
	for i, n := range d.order {
		if n == nc {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	nc.Invalidate()

	kept := d.destinations[:0]
	for _, dst := range d.destinations {
		if dst.IsValid() {
			kept = append(kept, dst)
		}
	}
	d.destinations = kept

	d.recomputeRanges()
	d.logger.Debug("Node removed", zap.String("node", node.Label()))
	d.publish(events.NewModelChanged("node_removed"))
	return true
}

// OnNodeChanged recomputes what depends on the knobs of node: its own range
// and the range of its group.
func (d *DopeSheet) OnNodeChanged(node graph.Node) {
	nc := d.FindNodeContext(node)
	if nc == nil {
		return
	}
	if nc.IsRangeDrawingEnabled() {
		d.ranges.ComputeNodeRange(nc)
	}
	if group := domain.GroupNodeContext(d, nc); group != nil {
		d.ranges.ComputeNodeRange(group)
	}
}

// FindNodeContext returns the context of node, nil when not in the model
func (d *DopeSheet) FindNodeContext(node graph.Node) *entities.NodeContext {
	if node == nil {
		return nil
	}
	return d.nodes[node.ID()]
}

// FindNodeContextByKnob returns the context of the node owning knob
func (d *DopeSheet) FindNodeContextByKnob(knob graph.Knob) *entities.NodeContext {
	if knob == nil {
		return nil
	}
	nc := d.FindNodeContext(knob.Holder())
	if nc == nil || nc.KnobContext(knob) == nil {
		return nil
	}
	return nc
}

// FindKnobContext returns the knob row with handle id
func (d *DopeSheet) FindKnobContext(id valueobjects.RowID) *entities.KnobContext {
	return d.knobRows[id]
}

// FindNodeContextByRow returns the node row with handle id
func (d *DopeSheet) FindNodeContextByRow(id valueobjects.RowID) *entities.NodeContext {
	return d.nodeRows[id]
}

// FindParentNodeContext returns the node owning the row with handle id:
// the node itself for a node row, the owning node for a knob row.
func (d *DopeSheet) FindParentNodeContext(id valueobjects.RowID) *entities.NodeContext {
	if nc, ok := d.nodeRows[id]; ok {
		return nc
	}
	if k, ok := d.knobRows[id]; ok {
		return k.NodeContext()
	}
	return nil
}

// IsPartOfGroup reports whether nc lives in a group of the model
func (d *DopeSheet) IsPartOfGroup(nc *entities.NodeContext) bool {
	return domain.IsPartOfGroup(d, nc)
}

// GroupNodeContext returns the group of the model nc lives in
func (d *DopeSheet) GroupNodeContext(nc *entities.NodeContext) *entities.NodeContext {
	return domain.GroupNodeContext(d, nc)
}

// ImportantNodes returns the members of a group or the upstream nodes of a
// time node that are in the model.
func (d *DopeSheet) ImportantNodes(nc *entities.NodeContext) []*entities.NodeContext {
	return domain.ImportantNodes(d, nc)
}

// NearestTimeNodeFromOutputs returns the first time node downstream of nc
func (d *DopeSheet) NearestTimeNodeFromOutputs(nc *entities.NodeContext) *entities.NodeContext {
	return domain.NearestTimeNodeFromOutputs(d, nc)
}

// NearestReader returns the first reader upstream of nc
func (d *DopeSheet) NearestReader(nc *entities.NodeContext) graph.Node {
	return domain.NearestReader(d, nc, func(n graph.Node) bool {
		return d.config.IsReader(n.PluginID())
	})
}

// NodeContexts returns every node context in insertion order
func (d *DopeSheet) NodeContexts() []*entities.NodeContext {
	out := make([]*entities.NodeContext, len(d.order))
	copy(out, d.order)
	return out
}

// Range returns the computed range of nc
func (d *DopeSheet) Range(nc *entities.NodeContext) (valueobjects.Range, bool) {
	return d.ranges.Range(nc)
}

// ComputeNodeRange recomputes the range of nc
func (d *DopeSheet) ComputeNodeRange(nc *entities.NodeContext) {
	d.ranges.ComputeNodeRange(nc)
}

// ComputeRangesBelow recomputes the range of nc and of every node shown
// below it.
func (d *DopeSheet) ComputeRangesBelow(nc *entities.NodeContext) {
	found := false
	for _, row := range d.Rows() {
		if row.Kind != RowKindNode {
			continue
		}
		if row.Node == nc {
			found = true
		}
		if found {
			d.ranges.ComputeNodeRange(row.Node)
		}
	}
}

func (d *DopeSheet) recomputeRanges() {
	d.ranges.ComputeRanges(d.order)
}

// Rows returns the visible rows in display order: each node row, then its
// knob rows and its nested node rows when expanded.
func (d *DopeSheet) Rows() []Row {
	var rows []Row
	var visit func(nc *entities.NodeContext, depth int)
	visit = func(nc *entities.NodeContext, depth int) {
		if !nc.IsVisible() || !nc.IsValid() {
			return
		}
		rows = append(rows, Row{ID: nc.ID(), Kind: RowKindNode, Depth: depth, Node: nc})
		if !nc.IsExpanded() {
			return
		}
		for _, k := range nc.KnobContexts() {
			rows = append(rows, Row{ID: k.ID(), Kind: RowKindKnob, Depth: depth + 1, Node: nc, Knob: k})
			for _, child := range k.Children() {
				rows = append(rows, Row{ID: child.ID(), Kind: RowKindKnob, Depth: depth + 2, Node: nc, Knob: child})
			}
		}
		for _, child := range nc.Children() {
			visit(child, depth+1)
		}
	}
	for _, nc := range d.order {
		if nc.Parent() == nil {
			visit(nc, 0)
		}
	}
	return rows
}

// VisibleKnobContexts returns the knob rows currently shown
func (d *DopeSheet) VisibleKnobContexts() []*entities.KnobContext {
	var out []*entities.KnobContext
	for _, row := range d.Rows() {
		if row.Kind == RowKindKnob {
			out = append(out, row.Knob)
		}
	}
	return out
}

// RangeNodeContexts returns the shown node rows that draw a range
func (d *DopeSheet) RangeNodeContexts() []*entities.NodeContext {
	var out []*entities.NodeContext
	for _, row := range d.Rows() {
		if row.Kind == RowKindNode && row.Node.IsRangeDrawingEnabled() {
			out = append(out, row.Node)
		}
	}
	return out
}

// SetNodeExpanded folds or unfolds a node row and recomputes the ranges
// from that row down.
func (d *DopeSheet) SetNodeExpanded(nc *entities.NodeContext, expanded bool) {
	if nc == nil || nc.IsExpanded() == expanded {
		return
	}
	nc.SetExpanded(expanded)
	d.ComputeRangesBelow(nc)
	d.publish(events.NewModelChanged("node_expanded"))
}

// SetNodeVisible shows or hides a node; its group range follows
func (d *DopeSheet) SetNodeVisible(nc *entities.NodeContext, visible bool) {
	if nc == nil || nc.IsVisible() == visible {
		return
	}
	nc.SetVisible(visible)
	if group := domain.GroupNodeContext(d, nc); group != nil {
		d.ranges.ComputeNodeRange(group)
	}
	d.publish(events.NewModelChanged("node_visibility"))
}

func (d *DopeSheet) publish(e events.DomainEvent) {
	if d.bus != nil {
		d.bus.Publish(e)
	}
}
