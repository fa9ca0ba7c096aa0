package services

import (
	"go.uber.org/zap"

	"dopesheet/domain/core/entities"
	"dopesheet/domain/core/valueobjects"
	"dopesheet/domain/events"
	pkgerrors "dopesheet/pkg/errors"
	"dopesheet/pkg/observability"
)

// SelectionFlags drive MakeSelection
type SelectionFlags uint8

const (
	// SelectionClear empties the selection before applying the other flags
	SelectionClear SelectionFlags = 1 << iota
	// SelectionAdd unions the given items into the selection
	SelectionAdd
	// SelectionToggle flips the selection state of each given item
	SelectionToggle
	// SelectionRecurse extends root knob rows and nodes to their children
	SelectionRecurse
)

// SelectionProvider exposes what SelectAll selects
type SelectionProvider interface {
	VisibleKnobContexts() []*entities.KnobContext
	RangeNodeContexts() []*entities.NodeContext
}

// KeyMove tells the selection that a keyframe changed time
type KeyMove struct {
	Context *entities.KnobContext
	From    float64
	To      valueobjects.KeyFrame
}

// SelectionModel holds the selected keyframes and range nodes
type SelectionModel struct {
	keys  []entities.KeyPtr
	index map[entities.KeyIdentity]struct{}
	nodes []*entities.NodeContext

	publisher events.Publisher
	metrics   *observability.Collector
	logger    *zap.Logger
}

// NewSelectionModel creates an empty selection publishing its changes
func NewSelectionModel(publisher events.Publisher, metrics *observability.Collector, logger *zap.Logger) *SelectionModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectionModel{
		index:     make(map[entities.KeyIdentity]struct{}),
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// SelectAll selects every keyframe of the visible rows and every range node
func (s *SelectionModel) SelectAll(provider SelectionProvider) {
	var keys []entities.KeyPtr
	for _, ctx := range provider.VisibleKnobContexts() {
		if ctx.IsRoot() {
			continue
		}
		for _, k := range ctx.KeyFrames() {
			keys = append(keys, entities.NewKeyPtr(ctx, k))
		}
	}
	// flags are valid, the error can only be nil
	_ = s.MakeSelection(keys, provider.RangeNodeContexts(), SelectionClear|SelectionAdd|SelectionRecurse)
}

// ClearKeyframeSelection empties the selection. Nothing is published when it
// was already empty.
func (s *SelectionModel) ClearKeyframeSelection() {
	if s.IsEmpty() {
		return
	}
	s.clear()
	s.notify()
}

// MakeSelection is the single mutating entry point of the selection.
// It publishes one SelectionChanged event when, and only when, the selection
// differs afterwards.
func (s *SelectionModel) MakeSelection(keys []entities.KeyPtr, nodes []*entities.NodeContext, flags SelectionFlags) error {
	if flags&SelectionAdd != 0 && flags&SelectionToggle != 0 {
		return pkgerrors.NewInvalidArgumentError("selection flags Add and Toggle are mutually exclusive")
	}

	beforeKeys := s.keyIdentities()
	beforeNodes := s.nodeSet()

	if flags&SelectionClear != 0 {
		s.clear()
	}

	if flags&SelectionRecurse != 0 {
		keys, nodes = s.expand(keys, nodes)
	}

	toggle := flags&SelectionToggle != 0
	add := flags&SelectionAdd != 0

	seen := make(map[entities.KeyIdentity]struct{}, len(keys))
	for _, k := range keys {
		if !k.IsValid() {
			continue
		}
		id := k.Identity()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		_, selected := s.index[id]
		switch {
		case toggle && selected:
			s.removeKey(id)
		case toggle || (add && !selected):
			s.keys = append(s.keys, k)
			s.index[id] = struct{}{}
		}
	}

	seenNodes := make(map[*entities.NodeContext]struct{}, len(nodes))
	for _, n := range nodes {
		if n == nil || !n.IsValid() || !n.IsRangeDrawingEnabled() {
			continue
		}
		if _, dup := seenNodes[n]; dup {
			continue
		}
		seenNodes[n] = struct{}{}

		selected := s.RangeIsSelected(n)
		switch {
		case toggle && selected:
			s.removeNode(n)
		case toggle || (add && !selected):
			s.nodes = append(s.nodes, n)
		}
	}

	if !sameKeys(beforeKeys, s.index) || !sameNodes(beforeNodes, s.nodes) {
		s.notify()
	}
	return nil
}

// expand adds, for each root knob entry, the entries of its dimensions at
// the same time, and for each node the keyframes of its rows and its nested
// range nodes.
func (s *SelectionModel) expand(keys []entities.KeyPtr, nodes []*entities.NodeContext) ([]entities.KeyPtr, []*entities.NodeContext) {
	outKeys := make([]entities.KeyPtr, 0, len(keys))
	for _, k := range keys {
		outKeys = append(outKeys, k)
		if k.Context == nil || !k.Context.IsRoot() {
			continue
		}
		for _, child := range k.Context.Children() {
			if key, ok := child.KeyFrameAt(k.Key.Time); ok {
				outKeys = append(outKeys, entities.NewKeyPtr(child, key))
			}
		}
	}

	var outNodes []*entities.NodeContext
	visited := make(map[*entities.NodeContext]bool)
	var visit func(n *entities.NodeContext)
	visit = func(n *entities.NodeContext) {
		if n == nil || visited[n] {
			return
		}
		visited[n] = true
		outNodes = append(outNodes, n)
		for _, ctx := range n.DimensionContexts() {
			for _, key := range ctx.KeyFrames() {
				outKeys = append(outKeys, entities.NewKeyPtr(ctx, key))
			}
		}
		for _, child := range n.Children() {
			visit(child)
		}
	}
	for _, n := range nodes {
		visit(n)
	}
	return outKeys, outNodes
}

// KeyframeIsSelected reports whether key is selected on ctx. A root row key
// also counts as selected when every dimension holding a key at that time
// has it selected.
func (s *SelectionModel) KeyframeIsSelected(ctx *entities.KnobContext, key valueobjects.KeyFrame) bool {
	if ctx == nil {
		return false
	}
	if _, ok := s.index[entities.NewKeyPtr(ctx, key).Identity()]; ok {
		return true
	}
	if !ctx.IsRoot() {
		return false
	}
	found := false
	for _, child := range ctx.Children() {
		childKey, ok := child.KeyFrameAt(key.Time)
		if !ok {
			continue
		}
		found = true
		if _, ok := s.index[entities.NewKeyPtr(child, childKey).Identity()]; !ok {
			return false
		}
	}
	return found
}

// RangeIsSelected reports whether the range of node is selected
func (s *SelectionModel) RangeIsSelected(node *entities.NodeContext) bool {
	for _, n := range s.nodes {
		if n == node {
			return true
		}
	}
	return false
}

// CurrentSelection returns copies of the selected keys and nodes
func (s *SelectionModel) CurrentSelection() ([]entities.KeyPtr, []*entities.NodeContext) {
	keys := make([]entities.KeyPtr, len(s.keys))
	copy(keys, s.keys)
	nodes := make([]*entities.NodeContext, len(s.nodes))
	copy(nodes, s.nodes)
	return keys, nodes
}

// HasSingleKeyFrameTimeSelected returns the common time of the selected
// keyframes when they all share the same time and the same knob.
func (s *SelectionModel) HasSingleKeyFrameTimeSelected() (float64, bool) {
	if len(s.keys) == 0 {
		return 0, false
	}
	first := s.keys[0]
	for _, k := range s.keys[1:] {
		if k.Key.Time != first.Key.Time || k.Context.Knob() != first.Context.Knob() {
			return 0, false
		}
	}
	return first.Key.Time, true
}

// OnNodeAboutToBeRemoved drops every selected key owned by node and the node
// itself. It must run before node is torn down.
func (s *SelectionModel) OnNodeAboutToBeRemoved(node *entities.NodeContext) {
	if node == nil {
		return
	}
	changed := false
	kept := s.keys[:0]
	for _, k := range s.keys {
		if k.Context != nil && k.Context.NodeContext() == node {
			delete(s.index, k.Identity())
			changed = true
			continue
		}
		kept = append(kept, k)
	}
	s.keys = kept

	if s.RangeIsSelected(node) {
		s.removeNode(node)
		changed = true
	}
	if changed {
		s.logger.Debug("Pruned selection of removed node", zap.String("node", node.Label()))
		s.notify()
	}
}

// RetimeKeys follows keyframes that moved: every selected entry at a move's
// source time takes the destination keyframe. Root entries follow the moves
// of their dimensions. Nothing is published, the selected items are the same.
func (s *SelectionModel) RetimeKeys(moves []KeyMove) {
	if len(moves) == 0 || len(s.keys) == 0 {
		return
	}
	type source struct {
		ctx  *entities.KnobContext
		time float64
	}
	dest := make(map[source]valueobjects.KeyFrame, len(moves))
	for _, m := range moves {
		if m.Context == nil {
			continue
		}
		dest[source{m.Context, m.From}] = m.To
		if root := m.Context.Parent(); root != nil {
			if _, taken := dest[source{root, m.From}]; !taken {
				dest[source{root, m.From}] = m.To
			}
		}
	}

	s.index = make(map[entities.KeyIdentity]struct{}, len(s.keys))
	kept := s.keys[:0]
	for _, k := range s.keys {
		if to, ok := dest[source{k.Context, k.Key.Time}]; ok {
			if k.Context.IsRoot() {
				if rootKey, found := k.Context.KeyFrameAt(to.Time); found {
					to = rootKey
				}
			}
			k.Key = to
		}
		id := k.Identity()
		if _, dup := s.index[id]; dup {
			continue
		}
		s.index[id] = struct{}{}
		kept = append(kept, k)
	}
	s.keys = kept
}

// KeyCount returns the number of selected keyframes
func (s *SelectionModel) KeyCount() int { return len(s.keys) }

// NodeCount returns the number of selected range nodes
func (s *SelectionModel) NodeCount() int { return len(s.nodes) }

// IsEmpty reports whether nothing is selected
func (s *SelectionModel) IsEmpty() bool {
	return len(s.keys) == 0 && len(s.nodes) == 0
}

func (s *SelectionModel) clear() {
	s.keys = nil
	s.index = make(map[entities.KeyIdentity]struct{})
	s.nodes = nil
}

func (s *SelectionModel) removeKey(id entities.KeyIdentity) {
	delete(s.index, id)
	for i, k := range s.keys {
		if k.Identity() == id {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			return
		}
	}
}

func (s *SelectionModel) removeNode(node *entities.NodeContext) {
	for i, n := range s.nodes {
		if n == node {
			s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
			return
		}
	}
}

func (s *SelectionModel) keyIdentities() map[entities.KeyIdentity]struct{} {
	out := make(map[entities.KeyIdentity]struct{}, len(s.index))
	for id := range s.index {
		out[id] = struct{}{}
	}
	return out
}

func (s *SelectionModel) nodeSet() map[*entities.NodeContext]struct{} {
	out := make(map[*entities.NodeContext]struct{}, len(s.nodes))
	for _, n := range s.nodes {
		out[n] = struct{}{}
	}
	return out
}

func (s *SelectionModel) notify() {
	s.metrics.RecordSelectionChange()
	if s.publisher != nil {
		s.publisher.Publish(events.NewSelectionChanged(len(s.keys), len(s.nodes)))
	}
}

func sameKeys(a, b map[entities.KeyIdentity]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}

func sameNodes(before map[*entities.NodeContext]struct{}, after []*entities.NodeContext) bool {
	if len(before) != len(after) {
		return false
	}
	for _, n := range after {
		if _, ok := before[n]; !ok {
			return false
		}
	}
	return true
}
