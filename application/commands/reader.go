package commands

import (
	"dopesheet/domain/config"
	"dopesheet/domain/core/entities"
	"dopesheet/domain/core/graph"
)

// TrimCommand sets the first (left) or last (right) frame of a reader
type TrimCommand struct {
	reader  *entities.NodeContext
	knob    graph.Knob
	left    bool
	oldTime float64
	newTime float64
}

// NewTrimLeftCommand changes the first frame of reader from oldTime to newTime
func NewTrimLeftCommand(reader *entities.NodeContext, oldTime, newTime float64, knobs config.KnobNames) *TrimCommand {
	return newTrimCommand(reader, knobs.FirstFrame, true, oldTime, newTime)
}

// NewTrimRightCommand changes the last frame of reader from oldTime to newTime
func NewTrimRightCommand(reader *entities.NodeContext, oldTime, newTime float64, knobs config.KnobNames) *TrimCommand {
	return newTrimCommand(reader, knobs.LastFrame, false, oldTime, newTime)
}

func newTrimCommand(reader *entities.NodeContext, knobName string, left bool, oldTime, newTime float64) *TrimCommand {
	return &TrimCommand{
		reader:  reader,
		knob:    reader.Node().KnobByName(knobName),
		left:    left,
		oldTime: oldTime,
		newTime: newTime,
	}
}

// Name implements Command
func (c *TrimCommand) Name() string {
	if c.left {
		return "Trim left"
	}
	return "Trim right"
}

// ID implements Command
func (c *TrimCommand) ID() int {
	if c.left {
		return TrimLeftID
	}
	return TrimRightID
}

// Times returns the frame before and after the trim
func (c *TrimCommand) Times() (oldTime, newTime float64) { return c.oldTime, c.newTime }

// Redo implements Command
func (c *TrimCommand) Redo() { c.set(c.newTime) }

// Undo implements Command
func (c *TrimCommand) Undo() { c.set(c.oldTime) }

func (c *TrimCommand) set(t float64) {
	if c.knob == nil || !c.reader.IsValid() {
		return
	}
	scope := newChangeScope()
	scope.addKnob(c.knob)
	c.knob.SetValue(0, t)
	scope.end()
}

// MergeWith absorbs a trim of the same reader side; the merged trim goes
// from this one's start to the other's end.
func (c *TrimCommand) MergeWith(other Command) bool {
	o, ok := other.(*TrimCommand)
	if !ok || o.reader != c.reader || o.left != c.left {
		return false
	}
	c.newTime = o.newTime
	return true
}

// SlipCommand slides the visible window of a reader over its footage: the
// first and last frames move by -dt while the time offset moves by +dt, so
// the clip stays in place on the timeline.
type SlipCommand struct {
	reader *entities.NodeContext
	first  graph.Knob
	last   graph.Knob
	offset graph.Knob
	dt     float64
}

// NewSlipCommand creates a slip of reader by dt
func NewSlipCommand(reader *entities.NodeContext, dt float64, knobs config.KnobNames) *SlipCommand {
	n := reader.Node()
	return &SlipCommand{
		reader: reader,
		first:  n.KnobByName(knobs.FirstFrame),
		last:   n.KnobByName(knobs.LastFrame),
		offset: n.KnobByName(knobs.ReaderTimeOffset),
		dt:     dt,
	}
}

// Name implements Command
func (c *SlipCommand) Name() string { return "Slip reader" }

// ID implements Command
func (c *SlipCommand) ID() int { return SlipID }

// Dt returns the accumulated slip
func (c *SlipCommand) Dt() float64 { return c.dt }

// Redo implements Command
func (c *SlipCommand) Redo() { c.apply(c.dt) }

// Undo implements Command
func (c *SlipCommand) Undo() { c.apply(-c.dt) }

func (c *SlipCommand) apply(dt float64) {
	if c.first == nil || c.last == nil || c.offset == nil || !c.reader.IsValid() {
		return
	}
	scope := newChangeScope()
	scope.addKnob(c.first)
	c.first.SetValue(0, c.first.Value(0)-dt)
	c.last.SetValue(0, c.last.Value(0)-dt)
	c.offset.SetValue(0, c.offset.Value(0)+dt)
	scope.end()
}

// MergeWith absorbs a slip of the same reader, summing the offsets
func (c *SlipCommand) MergeWith(other Command) bool {
	o, ok := other.(*SlipCommand)
	if !ok || o.reader != c.reader {
		return false
	}
	c.dt += o.dt
	return true
}
