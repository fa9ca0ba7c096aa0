package entities

import (
	"dopesheet/domain/core/graph"
	"dopesheet/domain/core/valueobjects"
	pkgerrors "dopesheet/pkg/errors"
)

// NodeContext wraps a graph node in the dope sheet.
// The item type is fixed at construction and never reclassified.
type NodeContext struct {
	id       valueobjects.RowID
	node     graph.Node
	itemType valueobjects.ItemType

	// top-level knob rows in display order, and the same rows by knob name
	knobs  []*KnobContext
	byName map[string]*KnobContext

	// display nesting, independent from graph groups
	parent   *NodeContext
	children []*NodeContext

	visible  bool
	expanded bool
	valid    bool
}

// NewNodeContext creates the context of node and one KnobContext per
// animatable, animation-enabled knob. Knobs with at most one dimension get a
// single dimension-0 row; others get a root row plus one row per dimension.
func NewNodeContext(node graph.Node, itemType valueobjects.ItemType) (*NodeContext, error) {
	if node == nil {
		return nil, pkgerrors.NewValidationError("node cannot be nil")
	}

	nc := &NodeContext{
		id:       valueobjects.NewRowID(),
		node:     node,
		itemType: itemType,
		byName:   make(map[string]*KnobContext),
		visible:  true,
		expanded: true,
		valid:    true,
	}

	for _, knob := range node.Knobs() {
		if knob == nil || !knob.CanAnimate() || !knob.IsAnimationEnabled() {
			continue
		}
		if _, dup := nc.byName[knob.Name()]; dup {
			continue
		}

		var row *KnobContext
		if knob.Dimension() <= 1 {
			row = newKnobContext(nc, knob, 0, nil)
		} else {
			row = newKnobContext(nc, knob, -1, nil)
			for d := 0; d < knob.Dimension(); d++ {
				row.children = append(row.children, newKnobContext(nc, knob, d, row))
			}
		}
		nc.knobs = append(nc.knobs, row)
		nc.byName[knob.Name()] = row
	}

	return nc, nil
}

// ID returns the row handle of the context
func (n *NodeContext) ID() valueobjects.RowID { return n.id }

// Node returns the wrapped graph node
func (n *NodeContext) Node() graph.Node { return n.node }

// ItemType returns the classification of the node
func (n *NodeContext) ItemType() valueobjects.ItemType { return n.itemType }

// Label returns the node label
func (n *NodeContext) Label() string { return n.node.Label() }

// IsTimeNode holds for Retime, TimeOffset and FrameRange nodes
func (n *NodeContext) IsTimeNode() bool { return n.itemType.IsTimeNode() }

// IsRangeDrawingEnabled holds for nodes that expose a frame range
func (n *NodeContext) IsRangeDrawingEnabled() bool { return n.itemType.IsRangeDrawingEnabled() }

// CanContainOtherNodeContexts holds for nodes that nest other node rows
func (n *NodeContext) CanContainOtherNodeContexts() bool {
	return n.itemType.CanContainOtherNodeContexts()
}

// HasKnobContexts reports whether at least one knob of the node can be animated
func (n *NodeContext) HasKnobContexts() bool { return len(n.knobs) > 0 }

// KnobContexts returns a copy of the top-level knob rows
func (n *NodeContext) KnobContexts() []*KnobContext {
	out := make([]*KnobContext, len(n.knobs))
	copy(out, n.knobs)
	return out
}

// AllKnobContexts returns every knob row, roots followed by their children
func (n *NodeContext) AllKnobContexts() []*KnobContext {
	var out []*KnobContext
	for _, k := range n.knobs {
		out = append(out, k)
		out = append(out, k.children...)
	}
	return out
}

// DimensionContexts returns the knob rows that carry a curve
func (n *NodeContext) DimensionContexts() []*KnobContext {
	var out []*KnobContext
	for _, k := range n.knobs {
		if k.IsRoot() {
			out = append(out, k.children...)
		} else {
			out = append(out, k)
		}
	}
	return out
}

// KnobContext returns the top-level row of knob
func (n *NodeContext) KnobContext(knob graph.Knob) *KnobContext {
	if knob == nil {
		return nil
	}
	row, ok := n.byName[knob.Name()]
	if !ok || row.knob != knob {
		return nil
	}
	return row
}

// DimensionContext returns the row carrying the curve of knob at dim
func (n *NodeContext) DimensionContext(knob graph.Knob, dim int) *KnobContext {
	row := n.KnobContext(knob)
	if row == nil {
		return nil
	}
	if !row.IsRoot() {
		if dim == 0 {
			return row
		}
		return nil
	}
	return row.Child(dim)
}

// Parent returns the node row this one is nested under for display
func (n *NodeContext) Parent() *NodeContext { return n.parent }

// Children returns a copy of the node rows nested under this one
func (n *NodeContext) Children() []*NodeContext {
	out := make([]*NodeContext, len(n.children))
	copy(out, n.children)
	return out
}

// SetParent moves the row under parent, or to the top level when parent is nil
func (n *NodeContext) SetParent(parent *NodeContext) {
	if n.parent == parent || parent == n {
		return
	}
	if n.parent != nil {
		n.parent.removeChild(n)
	}
	n.parent = parent
	if parent != nil {
		parent.children = append(parent.children, n)
	}
}

func (n *NodeContext) removeChild(child *NodeContext) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

// IsVisible reports whether the node rows are shown
func (n *NodeContext) IsVisible() bool { return n.visible }

// SetVisible shows or hides the node rows
func (n *NodeContext) SetVisible(visible bool) { n.visible = visible }

// IsExpanded reports whether the node's child rows are unfolded
func (n *NodeContext) IsExpanded() bool { return n.expanded }

// SetExpanded folds or unfolds the node's child rows
func (n *NodeContext) SetExpanded(expanded bool) { n.expanded = expanded }

// IsValid is false once the context has been torn down
func (n *NodeContext) IsValid() bool {
	return n.valid && n.node != nil && n.node.IsAlive()
}

// Invalidate tears the context down: its knob rows become invalid and the
// nested node rows move to this row's former parent.
func (n *NodeContext) Invalidate() {
	if !n.valid {
		return
	}
	n.valid = false
	for _, k := range n.knobs {
		k.invalidate()
	}
	for _, child := range n.Children() {
		child.SetParent(n.parent)
	}
	n.SetParent(nil)
}
