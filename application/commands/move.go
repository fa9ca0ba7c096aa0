package commands

import (
	"dopesheet/domain/config"
	"dopesheet/domain/core/entities"
	"dopesheet/domain/core/graph"
	"dopesheet/domain/core/valueobjects"
	"dopesheet/domain/services"
)

// knobShift is a knob whose values follow a moved range node
type knobShift struct {
	knob graph.Knob
	dims []int
}

// MoveCommand moves keyframes and range nodes in time by the same offset
type MoveCommand struct {
	// keys hold the times before the move
	keys   []entities.KeyPtr
	nodes  []*entities.NodeContext
	shifts []knobShift
	dt     float64

	retimer KeyRetimer
}

// NewMoveCommand creates a move of keys and nodes by dt. Keys must be
// per-dimension entries; nodes are moved through their range knobs.
func NewMoveCommand(keys []entities.KeyPtr, nodes []*entities.NodeContext, dt float64, knobs config.KnobNames, retimer KeyRetimer) *MoveCommand {
	c := &MoveCommand{
		keys:    append([]entities.KeyPtr(nil), keys...),
		nodes:   append([]*entities.NodeContext(nil), nodes...),
		dt:      dt,
		retimer: retimerOrNop(retimer),
	}
	for _, nc := range c.nodes {
		c.shifts = append(c.shifts, rangeShifts(nc, knobs)...)
	}
	return c
}

// rangeShifts returns the knobs carrying the position of nc in time
func rangeShifts(nc *entities.NodeContext, knobs config.KnobNames) []knobShift {
	node := nc.Node()
	one := func(name string, dims ...int) []knobShift {
		k := node.KnobByName(name)
		if k == nil {
			return nil
		}
		return []knobShift{{knob: k, dims: dims}}
	}
	switch nc.ItemType() {
	case valueobjects.ItemTypeReader:
		return one(knobs.StartingTime, 0)
	case valueobjects.ItemTypeTimeOffset:
		return one(knobs.TimeOffset, 0)
	case valueobjects.ItemTypeFrameRange:
		return one(knobs.FrameRange, 0, 1)
	case valueobjects.ItemTypeCommon:
		enabled := node.KnobByName(knobs.EnableLifetime)
		if enabled == nil || enabled.Value(0) == 0 {
			return nil
		}
		return one(knobs.Lifetime, 0, 1)
	}
	return nil
}

// Name implements Command
func (c *MoveCommand) Name() string { return "Move keyframes" }

// ID implements Command
func (c *MoveCommand) ID() int { return MoveID }

// Dt returns the accumulated offset
func (c *MoveCommand) Dt() float64 { return c.dt }

// Redo implements Command
func (c *MoveCommand) Redo() { c.apply(c.dt, false) }

// Undo implements Command
func (c *MoveCommand) Undo() { c.apply(-c.dt, true) }

func (c *MoveCommand) apply(dt float64, undo bool) {
	keys := append([]entities.KeyPtr(nil), c.keys...)
	if undo {
		for i := range keys {
			keys[i].Key.Time += c.dt
		}
	}
	SortKeysForMove(keys, dt)

	scope := newChangeScope()
	var moves []services.KeyMove
	for _, k := range keys {
		if !k.IsValid() {
			continue
		}
		knob := k.Context.Knob()
		scope.addKnob(knob)
		moved, ok := knob.MoveValueAtTime(k.Context.Dimension(), k.Key.Time, dt, 0)
		if !ok {
			continue
		}
		moves = append(moves, services.KeyMove{Context: k.Context, From: k.Key.Time, To: moved})
	}
	for _, s := range c.shifts {
		if s.knob.Holder() != nil && !s.knob.Holder().IsAlive() {
			continue
		}
		scope.addKnob(s.knob)
		for _, d := range s.dims {
			s.knob.SetValue(d, s.knob.Value(d)+dt)
		}
	}
	scope.end()

	c.retimer.RetimeKeys(moves)
}

// MergeWith absorbs a move of the same keyframes and nodes starting where
// this one ends, summing the offsets.
func (c *MoveCommand) MergeWith(other Command) bool {
	o, ok := other.(*MoveCommand)
	if !ok || len(o.keys) != len(c.keys) || !sameNodes(c.nodes, o.nodes) {
		return false
	}
	type slot struct {
		ctx  *entities.KnobContext
		time float64
	}
	ends := make(map[slot]int, len(c.keys))
	for _, k := range c.keys {
		ends[slot{k.Context, k.Key.Time + c.dt}]++
	}
	for _, k := range o.keys {
		s := slot{k.Context, k.Key.Time}
		if ends[s] == 0 {
			return false
		}
		ends[s]--
	}
	c.dt += o.dt
	return true
}
