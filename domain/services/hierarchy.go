// Package services holds the dope sheet domain services: the keyframe
// selection, the graph walks over the model and the range engine.
package services

import (
	"dopesheet/domain/core/entities"
	"dopesheet/domain/core/graph"
	"dopesheet/domain/core/valueobjects"
)

// NodeIndex resolves graph nodes to their contexts in the model
type NodeIndex interface {
	// FindNodeContext returns nil when node is not in the model
	FindNodeContext(node graph.Node) *entities.NodeContext
}

// GroupNodeContext returns the context of the group node whose collection
// holds nc's node, when that group is in the model.
func GroupNodeContext(index NodeIndex, nc *entities.NodeContext) *entities.NodeContext {
	if nc == nil || nc.Node() == nil {
		return nil
	}
	coll := nc.Node().Group()
	if coll == nil || coll.Owner() == nil {
		return nil
	}
	group := index.FindNodeContext(coll.Owner())
	if group == nil || group.ItemType() != valueobjects.ItemTypeGroup {
		return nil
	}
	return group
}

// IsPartOfGroup reports whether nc lives inside a group node of the model
func IsPartOfGroup(index NodeIndex, nc *entities.NodeContext) bool {
	return GroupNodeContext(index, nc) != nil
}

// ImportantNodes returns, for a group, its members present in the model and,
// for a time node, every upstream node present in the model.
func ImportantNodes(index NodeIndex, nc *entities.NodeContext) []*entities.NodeContext {
	if nc == nil {
		return nil
	}
	var out []*entities.NodeContext
	if inner := nc.Node().AsGroup(); inner != nil && nc.ItemType() == valueobjects.ItemTypeGroup {
		for _, member := range inner.Nodes() {
			if ctx := index.FindNodeContext(member); ctx != nil {
				out = append(out, ctx)
			}
		}
		return out
	}
	if !nc.IsTimeNode() {
		return nil
	}
	visited := map[string]bool{nc.Node().ID(): true}
	var walk func(n graph.Node)
	walk = func(n graph.Node) {
		for _, in := range n.Inputs() {
			if in == nil || visited[in.ID()] {
				continue
			}
			visited[in.ID()] = true
			if ctx := index.FindNodeContext(in); ctx != nil {
				out = append(out, ctx)
			}
			walk(in)
		}
	}
	walk(nc.Node())
	return out
}

// NearestTimeNodeFromOutputs walks downstream depth first and returns the
// first Retime, TimeOffset or FrameRange node of the model.
func NearestTimeNodeFromOutputs(index NodeIndex, nc *entities.NodeContext) *entities.NodeContext {
	if nc == nil {
		return nil
	}
	visited := map[string]bool{nc.Node().ID(): true}
	var walk func(n graph.Node) *entities.NodeContext
	walk = func(n graph.Node) *entities.NodeContext {
		for _, out := range n.Outputs() {
			if out == nil || visited[out.ID()] {
				continue
			}
			visited[out.ID()] = true
			if ctx := index.FindNodeContext(out); ctx != nil && ctx.IsTimeNode() {
				return ctx
			}
			if found := walk(out); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(nc.Node())
}

// NearestReader walks upstream depth first and returns the first reader
func NearestReader(index NodeIndex, nc *entities.NodeContext, isReader func(graph.Node) bool) graph.Node {
	if nc == nil {
		return nil
	}
	visited := map[string]bool{nc.Node().ID(): true}
	var walk func(n graph.Node) graph.Node
	walk = func(n graph.Node) graph.Node {
		for _, in := range n.Inputs() {
			if in == nil || visited[in.ID()] {
				continue
			}
			visited[in.ID()] = true
			if isReader(in) {
				return in
			}
			if found := walk(in); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(nc.Node())
}
