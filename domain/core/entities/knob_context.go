package entities

import (
	"sort"

	"dopesheet/domain/core/graph"
	"dopesheet/domain/core/valueobjects"
)

// KnobContext wraps one dimension of a knob in the dope sheet hierarchy.
// Dimension -1 is the root row aggregating every dimension of a
// multi-dimensional knob; its children are the per-dimension rows.
type KnobContext struct {
	id       valueobjects.RowID
	knob     graph.Knob
	dim      int
	node     *NodeContext
	parent   *KnobContext
	children []*KnobContext
	valid    bool
}

func newKnobContext(node *NodeContext, knob graph.Knob, dim int, parent *KnobContext) *KnobContext {
	return &KnobContext{
		id:     valueobjects.NewRowID(),
		knob:   knob,
		dim:    dim,
		node:   node,
		parent: parent,
		valid:  true,
	}
}

// ID returns the row handle of the context
func (k *KnobContext) ID() valueobjects.RowID { return k.id }

// Knob returns the wrapped knob
func (k *KnobContext) Knob() graph.Knob { return k.knob }

// Dimension returns the dimension index, -1 for a root
func (k *KnobContext) Dimension() int { return k.dim }

// IsRoot reports whether the context aggregates all dimensions of its knob
func (k *KnobContext) IsRoot() bool { return k.dim < 0 }

// Parent returns the root context of a per-dimension child, nil otherwise
func (k *KnobContext) Parent() *KnobContext { return k.parent }

// NodeContext returns the owning node context
func (k *KnobContext) NodeContext() *NodeContext { return k.node }

// Children returns a copy of the per-dimension children of a root
func (k *KnobContext) Children() []*KnobContext {
	out := make([]*KnobContext, len(k.children))
	copy(out, k.children)
	return out
}

// Child returns the child context of dimension dim
func (k *KnobContext) Child(dim int) *KnobContext {
	if dim < 0 || dim >= len(k.children) {
		return nil
	}
	return k.children[dim]
}

// IsValid is false once the owning node has been removed from the model
func (k *KnobContext) IsValid() bool {
	return k.valid && k.node != nil && k.node.IsValid()
}

// IsVisible reports whether the row is shown: its node must be visible
func (k *KnobContext) IsVisible() bool {
	return k.IsValid() && k.node.IsVisible()
}

// Curve returns the curve of a per-dimension context; roots have none
func (k *KnobContext) Curve() graph.Curve {
	if k.IsRoot() {
		return nil
	}
	return k.knob.Curve(k.dim)
}

// Dimensions returns the concrete dimensions covered by the context
func (k *KnobContext) Dimensions() []int {
	if !k.IsRoot() {
		return []int{k.dim}
	}
	dims := make([]int, len(k.children))
	for i, c := range k.children {
		dims[i] = c.dim
	}
	return dims
}

// KeyFrames returns the keyframes displayed on the row. A root shows one
// keyframe per distinct time across its dimensions, taking the value of
// the lowest dimension holding a key at that time.
func (k *KnobContext) KeyFrames() []valueobjects.KeyFrame {
	if !k.IsRoot() {
		if c := k.knob.Curve(k.dim); c != nil {
			return c.KeyFrames()
		}
		return nil
	}
	seen := make(map[float64]bool)
	var keys []valueobjects.KeyFrame
	for _, child := range k.children {
		for _, key := range child.KeyFrames() {
			if seen[key.Time] {
				continue
			}
			seen[key.Time] = true
			keys = append(keys, key)
		}
	}
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].Time < keys[j].Time })
	return keys
}

// KeyFrameAt returns the keyframe displayed at time t
func (k *KnobContext) KeyFrameAt(t float64) (valueobjects.KeyFrame, bool) {
	if !k.IsRoot() {
		if c := k.knob.Curve(k.dim); c != nil {
			return c.KeyFrameAt(t)
		}
		return valueobjects.KeyFrame{}, false
	}
	for _, child := range k.children {
		if key, ok := child.KeyFrameAt(t); ok {
			return key, true
		}
	}
	return valueobjects.KeyFrame{}, false
}

func (k *KnobContext) invalidate() {
	k.valid = false
	for _, c := range k.children {
		c.valid = false
	}
}
