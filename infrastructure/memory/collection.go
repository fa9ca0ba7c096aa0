package memory

import "dopesheet/domain/core/graph"

// Collection is the project root or the inside of a group node
type Collection struct {
	owner *Node
	nodes []*Node

	added    []func(n *Node)
	removing []func(n *Node)
}

// NewProject creates an empty root collection
func NewProject() *Collection {
	return &Collection{}
}

// Add moves nodes into the collection. Nodes that were in no collection
// yet are announced to the OnNodeAdded listeners.
func (c *Collection) Add(nodes ...*Node) {
	for _, n := range nodes {
		if n.group == c {
			continue
		}
		moved := n.group != nil
		if moved {
			n.group.Remove(n)
		}
		n.group = c
		c.nodes = append(c.nodes, n)
		if !moved {
			for _, fn := range c.root().added {
				fn(n)
			}
		}
	}
}

// OnNodeAdded registers fn on the root collection. It is told about every
// node entering the root or one of its groups.
func (c *Collection) OnNodeAdded(fn func(n *Node)) {
	r := c.root()
	r.added = append(r.added, fn)
}

// OnNodeAboutToBeRemoved registers fn on the root collection. It is told
// about every node being deleted, once the node is no longer alive and
// before it leaves its collection and its links.
func (c *Collection) OnNodeAboutToBeRemoved(fn func(n *Node)) {
	r := c.root()
	r.removing = append(r.removing, fn)
}

func (c *Collection) nodeRemoving(n *Node) {
	for _, fn := range c.root().removing {
		fn(n)
	}
}

// root climbs group owners up to the outermost collection
func (c *Collection) root() *Collection {
	for c.owner != nil && c.owner.group != nil {
		c = c.owner.group
	}
	return c
}

// Remove takes n out of the collection
func (c *Collection) Remove(n *Node) {
	if n.group != c {
		return
	}
	c.nodes = removeNode(c.nodes, n)
	n.group = nil
}

// Nodes returns the live member nodes
func (c *Collection) Nodes() []graph.Node {
	out := make([]graph.Node, 0, len(c.nodes))
	for _, n := range c.nodes {
		if n.alive {
			out = append(out, n)
		}
	}
	return out
}

// Members returns the concrete member nodes
func (c *Collection) Members() []*Node {
	out := make([]*Node, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// Owner returns the group node owning the collection
func (c *Collection) Owner() graph.Node {
	if c.owner == nil {
		return nil
	}
	return c.owner
}

// Walk visits every node of the collection and of nested groups
func (c *Collection) Walk(fn func(n *Node)) {
	for _, n := range c.Members() {
		fn(n)
		if n.inner != nil {
			n.inner.Walk(fn)
		}
	}
}

// Timeline is an in-memory playhead
type Timeline struct {
	frame float64
}

// NewTimeline creates a timeline positioned at frame
func NewTimeline(frame float64) *Timeline {
	return &Timeline{frame: frame}
}

// CurrentFrame returns the playhead position
func (t *Timeline) CurrentFrame() float64 { return t.frame }

// SeekFrame moves the playhead
func (t *Timeline) SeekFrame(time float64) { t.frame = time }
