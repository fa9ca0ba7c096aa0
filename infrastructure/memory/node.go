package memory

import (
	"github.com/google/uuid"

	"dopesheet/domain/core/graph"
	"dopesheet/domain/core/valueobjects"
)

// KnobHook runs after a knob of the node changed, before listeners are told
type KnobHook func(k *Knob, dim int)

// Node is an in-memory graph node
type Node struct {
	id       string
	pluginID string
	label    string
	knobs    []*Knob
	inputs   []*Node
	outputs  []*Node
	group    *Collection
	inner    *Collection
	alive    bool

	framesNeeded func(time float64) []valueobjects.Range

	hooks     []KnobHook
	listeners []func(n *Node)

	changeDepth   int
	pending       bool
	notifications int
}

// NewNode creates a node of pluginID owning knobs
func NewNode(pluginID, label string, knobs ...*Knob) *Node {
	n := &Node{
		id:       uuid.New().String(),
		pluginID: pluginID,
		label:    label,
		alive:    true,
	}
	for _, k := range knobs {
		n.AddKnob(k)
	}
	return n
}

// NewGroupNode creates a group node with an empty inner collection
func NewGroupNode(pluginID, label string, knobs ...*Knob) *Node {
	n := NewNode(pluginID, label, knobs...)
	n.inner = &Collection{owner: n}
	return n
}

// ID returns the node identifier
func (n *Node) ID() string { return n.id }

// PluginID returns the plugin identifier
func (n *Node) PluginID() string { return n.pluginID }

// Label returns the node label
func (n *Node) Label() string { return n.label }

// SetLabel renames the node
func (n *Node) SetLabel(label string) { n.label = label }

// AddKnob attaches k to the node
func (n *Node) AddKnob(k *Knob) {
	k.holder = n
	n.knobs = append(n.knobs, k)
}

// Knobs returns the node knobs
func (n *Node) Knobs() []graph.Knob {
	out := make([]graph.Knob, len(n.knobs))
	for i, k := range n.knobs {
		out[i] = k
	}
	return out
}

// KnobByName returns the knob called name
func (n *Node) KnobByName(name string) graph.Knob {
	if k := n.Knob(name); k != nil {
		return k
	}
	return nil
}

// Knob returns the concrete knob called name
func (n *Node) Knob(name string) *Knob {
	for _, k := range n.knobs {
		if k.name == name {
			return k
		}
	}
	return nil
}

// Connect plugs input into the next input slot of n
func (n *Node) Connect(input *Node) {
	n.inputs = append(n.inputs, input)
	if input != nil {
		input.outputs = append(input.outputs, n)
	}
}

// Disconnect removes every link from input to n
func (n *Node) Disconnect(input *Node) {
	for i, in := range n.inputs {
		if in == input {
			n.inputs[i] = nil
		}
	}
	if input != nil {
		input.outputs = removeNode(input.outputs, n)
	}
}

// Inputs returns the input slots, nil for disconnected ones
func (n *Node) Inputs() []graph.Node {
	out := make([]graph.Node, len(n.inputs))
	for i, in := range n.inputs {
		if in != nil && in.alive {
			out[i] = in
		}
	}
	return out
}

// Outputs returns the nodes fed by n
func (n *Node) Outputs() []graph.Node {
	out := make([]graph.Node, 0, len(n.outputs))
	for _, o := range n.outputs {
		if o.alive {
			out = append(out, o)
		}
	}
	return out
}

// Group returns the collection the node lives in
func (n *Node) Group() graph.NodeCollection {
	if n.group == nil {
		return nil
	}
	return n.group
}

// AsGroup returns the inner collection of a group node
func (n *Node) AsGroup() graph.NodeCollection {
	if n.inner == nil {
		return nil
	}
	return n.inner
}

// Inner returns the concrete inner collection of a group node
func (n *Node) Inner() *Collection { return n.inner }

// IsAlive is false once Delete was called
func (n *Node) IsAlive() bool { return n.alive }

// Delete removes the node from its collection and unplugs it. The members
// of a group are deleted first.
func (n *Node) Delete() {
	if !n.alive {
		return
	}
	if n.inner != nil {
		for _, m := range n.inner.Members() {
			m.Delete()
		}
	}
	n.alive = false
	if n.group != nil {
		n.group.nodeRemoving(n)
	}
	for _, in := range n.inputs {
		if in != nil {
			in.outputs = removeNode(in.outputs, n)
		}
	}
	for _, o := range n.outputs {
		for i, in := range o.inputs {
			if in == n {
				o.inputs[i] = nil
			}
		}
	}
	if n.group != nil {
		n.group.Remove(n)
	}
}

// SetFramesNeeded installs the time mapping reported by FramesNeeded
func (n *Node) SetFramesNeeded(fn func(time float64) []valueobjects.Range) {
	n.framesNeeded = fn
}

// FramesNeeded returns the input frames needed to render time
func (n *Node) FramesNeeded(time float64) []valueobjects.Range {
	if n.framesNeeded == nil {
		return nil
	}
	return n.framesNeeded(time)
}

// AddKnobHook registers a hook run on every knob change
func (n *Node) AddKnobHook(h KnobHook) {
	n.hooks = append(n.hooks, h)
}

// OnChanged registers a listener told once per change batch
func (n *Node) OnChanged(fn func(n *Node)) {
	n.listeners = append(n.listeners, fn)
}

// Notifications returns how many change batches listeners were told about
func (n *Node) Notifications() int { return n.notifications }

// BeginChanges opens a change batch
func (n *Node) BeginChanges() { n.changeDepth++ }

// EndChanges closes a change batch and notifies once if anything changed
func (n *Node) EndChanges() {
	if n.changeDepth == 0 {
		return
	}
	n.changeDepth--
	if n.changeDepth == 0 && n.pending {
		n.pending = false
		n.notify()
	}
}

func (n *Node) knobChanged(k *Knob, dim int) {
	for _, h := range n.hooks {
		h(k, dim)
	}
	if n.changeDepth > 0 {
		n.pending = true
		return
	}
	n.notify()
}

func (n *Node) notify() {
	n.notifications++
	for _, fn := range n.listeners {
		fn(n)
	}
}

func removeNode(list []*Node, n *Node) []*Node {
	out := list[:0]
	for _, x := range list {
		if x != n {
			out = append(out, x)
		}
	}
	return out
}
