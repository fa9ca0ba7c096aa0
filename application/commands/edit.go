package commands

import (
	"dopesheet/domain/core/entities"
	"dopesheet/domain/core/valueobjects"
)

// RemoveCommand deletes keyframes and puts them back on undo
type RemoveCommand struct {
	keys []entities.KeyPtr
}

// NewRemoveCommand creates the removal of keys, which must be per-dimension
// entries carrying the keyframes to restore.
func NewRemoveCommand(keys []entities.KeyPtr) *RemoveCommand {
	return &RemoveCommand{keys: append([]entities.KeyPtr(nil), keys...)}
}

// Name implements Command
func (c *RemoveCommand) Name() string { return "Delete keyframes" }

// ID implements Command
func (c *RemoveCommand) ID() int { return NoMergeID }

// Redo implements Command
func (c *RemoveCommand) Redo() {
	scope := newChangeScope()
	defer scope.end()
	for _, k := range c.keys {
		if !k.IsValid() {
			continue
		}
		scope.addKnob(k.Context.Knob())
		k.Context.Knob().DeleteValueAtTime(k.Context.Dimension(), k.Key.Time)
	}
}

// Undo implements Command
func (c *RemoveCommand) Undo() {
	scope := newChangeScope()
	defer scope.end()
	for _, k := range c.keys {
		if !k.IsValid() {
			continue
		}
		scope.addKnob(k.Context.Knob())
		k.Context.Knob().SetKeyFrame(k.Context.Dimension(), k.Key)
	}
}

// MergeWith implements Command
func (c *RemoveCommand) MergeWith(Command) bool { return false }

type interpolationChange struct {
	key entities.KeyPtr
	old valueobjects.Interpolation
}

// SetInterpolationCommand gives keyframes one interpolation type
type SetInterpolationCommand struct {
	changes []interpolationChange
	interp  valueobjects.Interpolation
}

// NewSetInterpolationCommand records the current interpolation of keys
// and the one to apply.
func NewSetInterpolationCommand(keys []entities.KeyPtr, interp valueobjects.Interpolation) *SetInterpolationCommand {
	c := &SetInterpolationCommand{interp: interp}
	for _, k := range keys {
		c.changes = append(c.changes, interpolationChange{key: k, old: k.Key.Interpolation})
	}
	return c
}

// Name implements Command
func (c *SetInterpolationCommand) Name() string { return "Set interpolation" }

// ID implements Command
func (c *SetInterpolationCommand) ID() int { return NoMergeID }

// Redo implements Command
func (c *SetInterpolationCommand) Redo() {
	c.apply(func(interpolationChange) valueobjects.Interpolation { return c.interp })
}

// Undo implements Command
func (c *SetInterpolationCommand) Undo() {
	c.apply(func(ch interpolationChange) valueobjects.Interpolation { return ch.old })
}

func (c *SetInterpolationCommand) apply(pick func(interpolationChange) valueobjects.Interpolation) {
	scope := newChangeScope()
	defer scope.end()
	for _, ch := range c.changes {
		k := ch.key
		if !k.IsValid() {
			continue
		}
		scope.addKnob(k.Context.Knob())
		k.Context.Knob().SetInterpolationAtTime(k.Context.Dimension(), k.Key.Time, pick(ch))
	}
}

// MergeWith implements Command
func (c *SetInterpolationCommand) MergeWith(Command) bool { return false }

// PasteCommand writes keyframes into destination rows. Undo restores the
// destination curves as they were before the paste.
type PasteCommand struct {
	keys         []valueobjects.KeyFrame
	destinations []*entities.KnobContext
	before       map[*entities.KnobContext][]valueobjects.KeyFrame
}

// NewPasteCommand creates a paste of keys, already placed in time, into
// every destination. Destinations must be per-dimension rows.
func NewPasteCommand(keys []valueobjects.KeyFrame, destinations []*entities.KnobContext) *PasteCommand {
	c := &PasteCommand{
		keys:         append([]valueobjects.KeyFrame(nil), keys...),
		destinations: append([]*entities.KnobContext(nil), destinations...),
		before:       make(map[*entities.KnobContext][]valueobjects.KeyFrame, len(destinations)),
	}
	for _, dst := range c.destinations {
		if dst.IsValid() && dst.Curve() != nil {
			c.before[dst] = dst.Curve().KeyFrames()
		}
	}
	return c
}

// Name implements Command
func (c *PasteCommand) Name() string { return "Paste keyframes" }

// ID implements Command
func (c *PasteCommand) ID() int { return NoMergeID }

// Redo implements Command
func (c *PasteCommand) Redo() {
	scope := newChangeScope()
	defer scope.end()
	for _, dst := range c.destinations {
		if !dst.IsValid() {
			continue
		}
		scope.addKnob(dst.Knob())
		for _, k := range c.keys {
			dst.Knob().SetKeyFrame(dst.Dimension(), k)
		}
	}
}

// Undo implements Command
func (c *PasteCommand) Undo() {
	scope := newChangeScope()
	defer scope.end()
	for _, dst := range c.destinations {
		before, ok := c.before[dst]
		if !ok || !dst.IsValid() {
			continue
		}
		scope.addKnob(dst.Knob())
		dst.Knob().CloneCurve(dst.Dimension(), before)
	}
}

// MergeWith implements Command
func (c *PasteCommand) MergeWith(Command) bool { return false }

// RenameCommand changes the label of a node
type RenameCommand struct {
	node     *entities.NodeContext
	oldLabel string
	newLabel string
}

// NewRenameCommand creates the renaming of node to label
func NewRenameCommand(node *entities.NodeContext, label string) *RenameCommand {
	return &RenameCommand{node: node, oldLabel: node.Label(), newLabel: label}
}

// Name implements Command
func (c *RenameCommand) Name() string { return "Rename node" }

// ID implements Command
func (c *RenameCommand) ID() int { return NoMergeID }

// Redo implements Command
func (c *RenameCommand) Redo() {
	if c.node.IsValid() {
		c.node.Node().SetLabel(c.newLabel)
	}
}

// Undo implements Command
func (c *RenameCommand) Undo() {
	if c.node.IsValid() {
		c.node.Node().SetLabel(c.oldLabel)
	}
}

// MergeWith implements Command
func (c *RenameCommand) MergeWith(Command) bool { return false }
