package commands

import (
	"sort"

	"dopesheet/domain/core/entities"
	"dopesheet/domain/core/valueobjects"
	"dopesheet/domain/services"
)

type curveSnapshot struct {
	ctx    *entities.KnobContext
	before []valueobjects.KeyFrame
	after  []valueobjects.KeyFrame
}

// TransformCommand applies an affine transform to the (time, value) of
// keyframes. The transform runs once; later redos restore the curves it
// produced.
type TransformCommand struct {
	keys   []entities.KeyPtr
	result []entities.KeyPtr
	matrix valueobjects.Matrix3

	curves  []*curveSnapshot
	applied bool

	retimer KeyRetimer
}

// NewTransformCommand creates a transform of keys by m. Keys must be
// per-dimension entries.
func NewTransformCommand(keys []entities.KeyPtr, m valueobjects.Matrix3, retimer KeyRetimer) *TransformCommand {
	c := &TransformCommand{
		keys:    append([]entities.KeyPtr(nil), keys...),
		matrix:  m,
		retimer: retimerOrNop(retimer),
	}
	seen := make(map[*entities.KnobContext]bool)
	for _, k := range c.keys {
		if k.Context == nil || seen[k.Context] {
			continue
		}
		seen[k.Context] = true
		c.curves = append(c.curves, &curveSnapshot{ctx: k.Context})
	}
	return c
}

// Name implements Command
func (c *TransformCommand) Name() string { return "Transform keyframes" }

// ID implements Command
func (c *TransformCommand) ID() int { return TransformID }

// Matrix returns the accumulated transform
func (c *TransformCommand) Matrix() valueobjects.Matrix3 { return c.matrix }

// Redo implements Command
func (c *TransformCommand) Redo() {
	if !c.applied {
		c.firstRedo()
		return
	}
	c.restore(false)
	c.retimer.RetimeKeys(keyMoves(c.keys, c.result))
}

// Undo implements Command
func (c *TransformCommand) Undo() {
	c.restore(true)
	c.retimer.RetimeKeys(keyMoves(c.result, c.keys))
}

func (c *TransformCommand) firstRedo() {
	scope := newChangeScope()
	for _, s := range c.curves {
		if !s.ctx.IsValid() {
			continue
		}
		scope.addKnob(s.ctx.Knob())
		s.before = s.ctx.Curve().KeyFrames()
	}

	// keys moving right go first, from the rightmost, then keys moving
	// left from the leftmost, so none lands on one not yet transformed
	type job struct {
		index int
		from  float64
		to    float64
	}
	jobs := make([]job, 0, len(c.keys))
	for i, k := range c.keys {
		to, _ := c.matrix.Apply(k.Key.Time, k.Key.Value)
		jobs = append(jobs, job{index: i, from: k.Key.Time, to: to})
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		ri, rj := jobs[i].to > jobs[i].from, jobs[j].to > jobs[j].from
		if ri != rj {
			return ri
		}
		if ri {
			return jobs[i].from > jobs[j].from
		}
		return jobs[i].from < jobs[j].from
	})

	c.result = make([]entities.KeyPtr, len(c.keys))
	copy(c.result, c.keys)
	for _, j := range jobs {
		k := c.keys[j.index]
		if !k.IsValid() {
			continue
		}
		if updated, ok := k.Context.Knob().TransformValueAtTime(k.Context.Dimension(), k.Key.Time, c.matrix); ok {
			c.result[j.index].Key = updated
		}
	}

	for _, s := range c.curves {
		if s.ctx.IsValid() {
			s.after = s.ctx.Curve().KeyFrames()
		}
	}
	scope.end()
	c.applied = true

	c.retimer.RetimeKeys(keyMoves(c.keys, c.result))
}

func (c *TransformCommand) restore(undo bool) {
	scope := newChangeScope()
	for _, s := range c.curves {
		if !s.ctx.IsValid() {
			continue
		}
		scope.addKnob(s.ctx.Knob())
		keys := s.after
		if undo {
			keys = s.before
		}
		s.ctx.Knob().CloneCurve(s.ctx.Dimension(), keys)
	}
	scope.end()
}

// MergeWith absorbs a transform of the keyframes this one produced. The
// merged matrix applies this transform first.
func (c *TransformCommand) MergeWith(other Command) bool {
	o, ok := other.(*TransformCommand)
	if !ok || !c.applied || !o.applied || len(o.keys) != len(c.result) {
		return false
	}
	for i := range o.keys {
		if o.keys[i].Context != c.result[i].Context || o.keys[i].Key.Time != c.result[i].Key.Time {
			return false
		}
	}
	if len(o.curves) != len(c.curves) {
		return false
	}
	for i := range o.curves {
		if o.curves[i].ctx != c.curves[i].ctx {
			return false
		}
	}

	c.matrix = o.matrix.Multiply(c.matrix)
	c.result = o.result
	for i := range c.curves {
		c.curves[i].after = o.curves[i].after
	}
	return true
}

func keyMoves(from, to []entities.KeyPtr) []services.KeyMove {
	moves := make([]services.KeyMove, 0, len(from))
	for i := range from {
		if i >= len(to) || from[i].Context == nil {
			continue
		}
		moves = append(moves, services.KeyMove{Context: from[i].Context, From: from[i].Key.Time, To: to[i].Key})
	}
	return moves
}
