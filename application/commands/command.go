// Package commands implements the undoable dope sheet edits and the undo
// stack running them.
package commands

import (
	"sort"

	"dopesheet/domain/core/entities"
	"dopesheet/domain/core/graph"
	"dopesheet/domain/services"
)

// Command is an undoable edit.
// Redo applies the edit, Undo applies its exact inverse. Commands sharing an
// ID other than NoMergeID may absorb each other through MergeWith, which
// only succeeds when both target the same entities.
type Command interface {
	Name() string
	ID() int
	Redo()
	Undo()
	MergeWith(other Command) bool
}

// NoMergeID marks commands that never merge
const NoMergeID = -1

// Mergeable command classes
const (
	MoveID = iota + 1
	TransformID
	TrimLeftID
	TrimRightID
	SlipID
)

// KeyRetimer follows keyframes across time changes, usually the selection
type KeyRetimer interface {
	RetimeKeys(moves []services.KeyMove)
}

type nopRetimer struct{}

func (nopRetimer) RetimeKeys([]services.KeyMove) {}

func retimerOrNop(r KeyRetimer) KeyRetimer {
	if r == nil {
		return nopRetimer{}
	}
	return r
}

// changeScope opens one change batch per distinct holder and closes them
// all at once.
type changeScope struct {
	holders []graph.Node
	seen    map[string]struct{}
}

func newChangeScope() *changeScope {
	return &changeScope{seen: make(map[string]struct{})}
}

func (s *changeScope) add(n graph.Node) {
	if n == nil {
		return
	}
	if _, ok := s.seen[n.ID()]; ok {
		return
	}
	s.seen[n.ID()] = struct{}{}
	s.holders = append(s.holders, n)
	n.BeginChanges()
}

func (s *changeScope) addKnob(k graph.Knob) {
	if k != nil {
		s.add(k.Holder())
	}
}

func (s *changeScope) end() {
	for _, n := range s.holders {
		n.EndChanges()
	}
	s.holders = nil
}

// sameContexts reports whether a and b target the same rows in the same order
func sameContexts(a, b []*entities.KnobContext) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameNodes(a, b []*entities.NodeContext) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SortKeysForMove orders keys by row then time: descending when moving
// right, ascending when moving left, so a key never lands on a neighbor
// that has not moved yet.
func SortKeysForMove(keys []entities.KeyPtr, dt float64) {
	sort.SliceStable(keys, func(i, j int) bool {
		ri, rj := keys[i].Context.ID().String(), keys[j].Context.ID().String()
		if ri != rj {
			return ri < rj
		}
		if dt > 0 {
			return keys[i].Key.Time > keys[j].Key.Time
		}
		return keys[i].Key.Time < keys[j].Key.Time
	})
}
