package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dopesheet/domain/config"
	"dopesheet/domain/core/entities"
	"dopesheet/domain/core/valueobjects"
	"dopesheet/domain/events"
	"dopesheet/domain/services"
	"dopesheet/infrastructure/memory"
	"dopesheet/infrastructure/messaging"
	"dopesheet/pkg/observability"
)

var knobNames = config.DefaultDomainConfig().Knobs

func kf(t, v float64) valueobjects.KeyFrame {
	return valueobjects.NewKeyFrame(t, v, valueobjects.InterpolationSmooth)
}

// curveNode builds a node with one single-dimension knob holding keys
func curveNode(t *testing.T, keys ...valueobjects.KeyFrame) (*memory.Node, *entities.KnobContext) {
	t.Helper()
	n := memory.NewNode("net.sf.openfx.Blur", "Blur1",
		memory.NewKnob("size", 1, memory.WithKeyFrames(0, keys...)))
	nc, err := entities.NewNodeContext(n, valueobjects.ItemTypeCommon)
	require.NoError(t, err)
	return n, nc.DimensionContexts()[0]
}

func times(ctx *entities.KnobContext) []float64 {
	var out []float64
	for _, k := range ctx.KeyFrames() {
		out = append(out, k.Time)
	}
	return out
}

func ptrs(ctx *entities.KnobContext, ts ...float64) []entities.KeyPtr {
	var out []entities.KeyPtr
	for _, t := range ts {
		k, ok := ctx.KeyFrameAt(t)
		if !ok {
			continue
		}
		out = append(out, entities.NewKeyPtr(ctx, k))
	}
	return out
}

func readerContext(t *testing.T, first, last float64) (*memory.Node, *entities.NodeContext) {
	t.Helper()
	n := memory.NewFactory(nil).Reader("Read1", first, last)
	nc, err := entities.NewNodeContext(n, valueobjects.ItemTypeReader)
	require.NoError(t, err)
	return n, nc
}

func TestMoveCommand(t *testing.T) {
	t.Run("adjacent selected keys move without collision", func(t *testing.T) {
		_, ctx := curveNode(t, kf(10, 0), kf(11, 1), kf(20, 2))
		keys := ptrs(ctx, 10, 11)
		SortKeysForMove(keys, 1)

		cmd := NewMoveCommand(keys, nil, 1, knobNames, nil)
		cmd.Redo()
		assert.Equal(t, []float64{11, 12, 20}, times(ctx))

		cmd.Undo()
		assert.Equal(t, []float64{10, 11, 20}, times(ctx))
	})

	t.Run("one change batch per holder", func(t *testing.T) {
		n, ctx := curveNode(t, kf(1, 0), kf(2, 0), kf(3, 0))
		before := n.Notifications()

		NewMoveCommand(ptrs(ctx, 1, 2, 3), nil, -0.5, knobNames, nil).Redo()

		assert.Equal(t, before+1, n.Notifications())
	})

	t.Run("moves range nodes through their knobs", func(t *testing.T) {
		reader, readerCtx := readerContext(t, 1, 100)
		f := memory.NewFactory(nil)
		fr := f.FrameRange("FrameRange1", 5, 50)
		frCtx, err := entities.NewNodeContext(fr, valueobjects.ItemTypeFrameRange)
		require.NoError(t, err)
		blur := f.Effect("net.sf.openfx.Blur", "Blur1")
		f.Lifetime(blur, 10, 20, true)
		blurCtx, err := entities.NewNodeContext(blur, valueobjects.ItemTypeCommon)
		require.NoError(t, err)

		cmd := NewMoveCommand(nil, []*entities.NodeContext{readerCtx, frCtx, blurCtx}, 5, knobNames, nil)
		cmd.Redo()
		assert.Equal(t, 6.0, reader.Knob(knobNames.StartingTime).Value(0))
		assert.Equal(t, 10.0, fr.Knob(knobNames.FrameRange).Value(0))
		assert.Equal(t, 55.0, fr.Knob(knobNames.FrameRange).Value(1))
		assert.Equal(t, 25.0, blur.Knob(knobNames.Lifetime).Value(1))

		cmd.Undo()
		assert.Equal(t, 1.0, reader.Knob(knobNames.StartingTime).Value(0))
		assert.Equal(t, 5.0, fr.Knob(knobNames.FrameRange).Value(0))
		assert.Equal(t, 10.0, blur.Knob(knobNames.Lifetime).Value(0))
	})

	t.Run("selection follows the keys", func(t *testing.T) {
		_, ctx := curveNode(t, kf(10, 0))
		sel := services.NewSelectionModel(nil, nil, nil)
		require.NoError(t, sel.MakeSelection(ptrs(ctx, 10), nil, services.SelectionAdd))

		cmd := NewMoveCommand(ptrs(ctx, 10), nil, 3, knobNames, sel)
		cmd.Redo()
		assert.True(t, sel.KeyframeIsSelected(ctx, kf(13, 0)))

		cmd.Undo()
		assert.True(t, sel.KeyframeIsSelected(ctx, kf(10, 0)))
	})
}

func TestMoveCommand_MergeWith(t *testing.T) {
	_, ctx := curveNode(t, kf(10, 0), kf(20, 0), kf(30, 0))
	_, other := curveNode(t, kf(10, 0))

	t.Run("sums offsets of a continued drag", func(t *testing.T) {
		a := NewMoveCommand(ptrs(ctx, 10), nil, 2, knobNames, nil)
		a.Redo()
		b := NewMoveCommand(ptrs(ctx, 12), nil, 3, knobNames, nil)
		b.Redo()

		require.True(t, a.MergeWith(b))
		assert.Equal(t, 5.0, a.Dt())

		a.Undo()
		assert.Equal(t, []float64{10, 20, 30}, times(ctx))
	})

	tests := []struct {
		name  string
		other *MoveCommand
	}{
		{"different size", NewMoveCommand(ptrs(ctx, 10, 20), nil, 1, knobNames, nil)},
		{"different member", NewMoveCommand(ptrs(ctx, 20), nil, 1, knobNames, nil)},
		{"different row", NewMoveCommand(ptrs(other, 10), nil, 1, knobNames, nil)},
		{"different class", nil},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			a := NewMoveCommand(ptrs(ctx, 10), nil, 0, knobNames, nil)
			var cmd Command = tt.other
			if tt.other == nil {
				cmd = NewRemoveCommand(ptrs(ctx, 10))
			}

			assert.False(t, a.MergeWith(cmd))
			assert.Equal(t, 0.0, a.Dt())
			if tt.other != nil {
				assert.Equal(t, 1.0, tt.other.Dt())
			}
		})
	}
}

func TestTransformCommand(t *testing.T) {
	t.Run("redo after undo restores instead of reapplying", func(t *testing.T) {
		_, ctx := curveNode(t, kf(10, 1), kf(20, 2), kf(30, 3))
		m := valueobjects.ScaleAround(20, 0, 2, 2)

		cmd := NewTransformCommand(ptrs(ctx, 10, 20, 30), m, nil)
		cmd.Redo()
		once := ctx.KeyFrames()
		assert.Equal(t, []float64{0, 20, 40}, times(ctx))

		cmd.Undo()
		assert.Equal(t, []float64{10, 20, 30}, times(ctx))

		cmd.Redo()
		assert.Equal(t, once, ctx.KeyFrames())
	})

	t.Run("merge composes matrices", func(t *testing.T) {
		_, ctx := curveNode(t, kf(10, 1))
		a := NewTransformCommand(ptrs(ctx, 10), valueobjects.Translation(5, 0), nil)
		a.Redo()
		b := NewTransformCommand(ptrs(ctx, 15), valueobjects.Scale(2, 1), nil)
		b.Redo()

		require.True(t, a.MergeWith(b))
		x, _ := a.Matrix().Apply(10, 1)
		assert.InDelta(t, 30, x, 1e-9)

		a.Undo()
		assert.Equal(t, []float64{10}, times(ctx))
		a.Redo()
		assert.Equal(t, []float64{30}, times(ctx))
	})

	t.Run("merge rejects other keys", func(t *testing.T) {
		_, ctx := curveNode(t, kf(10, 1), kf(50, 1))
		a := NewTransformCommand(ptrs(ctx, 10), valueobjects.Translation(5, 0), nil)
		a.Redo()
		b := NewTransformCommand(ptrs(ctx, 50), valueobjects.Translation(5, 0), nil)
		b.Redo()

		assert.False(t, a.MergeWith(b))
		assert.Equal(t, valueobjects.Translation(5, 0), a.Matrix())
	})
}

func TestTrimCommands(t *testing.T) {
	reader, nc := readerContext(t, 1, 100)

	left := NewTrimLeftCommand(nc, 1, 10, knobNames)
	left.Redo()
	assert.Equal(t, 10.0, reader.Knob(knobNames.FirstFrame).Value(0))

	right := NewTrimRightCommand(nc, 100, 80, knobNames)
	assert.False(t, left.MergeWith(right))

	next := NewTrimLeftCommand(nc, 10, 15, knobNames)
	next.Redo()
	require.True(t, left.MergeWith(next))
	oldTime, newTime := left.Times()
	assert.Equal(t, 1.0, oldTime)
	assert.Equal(t, 15.0, newTime)

	left.Undo()
	assert.Equal(t, 1.0, reader.Knob(knobNames.FirstFrame).Value(0))

	_, otherReader := readerContext(t, 1, 100)
	assert.False(t, left.MergeWith(NewTrimLeftCommand(otherReader, 1, 5, knobNames)))
}

func TestSlipCommand(t *testing.T) {
	reader, nc := readerContext(t, 1, 100)
	reader.Knob(knobNames.FirstFrame).SetValue(0, 10)
	reader.Knob(knobNames.LastFrame).SetValue(0, 90)
	start := reader.Knob(knobNames.StartingTime).Value(0)

	cmd := NewSlipCommand(nc, 4, knobNames)
	cmd.Redo()
	assert.Equal(t, 6.0, reader.Knob(knobNames.FirstFrame).Value(0))
	assert.Equal(t, 86.0, reader.Knob(knobNames.LastFrame).Value(0))
	assert.Equal(t, start, reader.Knob(knobNames.StartingTime).Value(0))

	require.True(t, cmd.MergeWith(NewSlipCommand(nc, 2, knobNames)))
	assert.Equal(t, 6.0, cmd.Dt())

	cmd.Undo()
	assert.Equal(t, 12.0, reader.Knob(knobNames.FirstFrame).Value(0))
}

func TestRemoveCommand(t *testing.T) {
	_, ctx := curveNode(t, kf(10, 1), kf(20, 2))
	cmd := NewRemoveCommand(ptrs(ctx, 10))

	cmd.Redo()
	assert.Equal(t, []float64{20}, times(ctx))

	cmd.Undo()
	k, ok := ctx.KeyFrameAt(10)
	require.True(t, ok)
	assert.Equal(t, 1.0, k.Value)
}

func TestSetInterpolationCommand(t *testing.T) {
	n := memory.NewNode("net.sf.openfx.Blur", "Blur1", memory.NewKnob("size", 1, memory.WithKeyFrames(0,
		valueobjects.NewKeyFrame(1, 0, valueobjects.InterpolationLinear),
		valueobjects.NewKeyFrame(2, 0, valueobjects.InterpolationCubic),
	)))
	nc, err := entities.NewNodeContext(n, valueobjects.ItemTypeCommon)
	require.NoError(t, err)
	ctx := nc.DimensionContexts()[0]

	cmd := NewSetInterpolationCommand(ptrs(ctx, 1, 2), valueobjects.InterpolationConstant)
	cmd.Redo()
	for _, k := range ctx.KeyFrames() {
		assert.Equal(t, valueobjects.InterpolationConstant, k.Interpolation)
	}

	cmd.Undo()
	keys := ctx.KeyFrames()
	assert.Equal(t, valueobjects.InterpolationLinear, keys[0].Interpolation)
	assert.Equal(t, valueobjects.InterpolationCubic, keys[1].Interpolation)
}

func TestPasteCommand(t *testing.T) {
	_, ctx := curveNode(t, kf(100, 9))

	cmd := NewPasteCommand([]valueobjects.KeyFrame{kf(100, 1), kf(102, 2)}, []*entities.KnobContext{ctx})
	cmd.Redo()
	assert.Equal(t, []float64{100, 102}, times(ctx))
	k, _ := ctx.KeyFrameAt(100)
	assert.Equal(t, 1.0, k.Value)

	cmd.Undo()
	assert.Equal(t, []float64{100}, times(ctx))
	k, _ = ctx.KeyFrameAt(100)
	assert.Equal(t, 9.0, k.Value)
}

func TestRenameCommand(t *testing.T) {
	reader, nc := readerContext(t, 1, 10)
	cmd := NewRenameCommand(nc, "Plate")

	cmd.Redo()
	assert.Equal(t, "Plate", reader.Label())
	cmd.Undo()
	assert.Equal(t, "Read1", reader.Label())

	reader.Delete()
	cmd.Redo()
	assert.Equal(t, "Read1", reader.Label())
}

func TestStack(t *testing.T) {
	ctx := context.Background()

	newStack := func(limit int) (*Stack, *messaging.EventBus) {
		bus := messaging.NewEventBus(zap.NewNop(), 50)
		return NewStack(limit, bus, observability.NewCollector("test"), zap.NewNop()), bus
	}

	t.Run("push applies and merges", func(t *testing.T) {
		stack, bus := newStack(0)
		_, row := curveNode(t, kf(10, 0))

		stack.Push(ctx, NewMoveCommand(ptrs(row, 10), nil, 1, knobNames, nil))
		stack.Push(ctx, NewMoveCommand(ptrs(row, 11), nil, 1, knobNames, nil))

		assert.Equal(t, 1, stack.Len())
		assert.Equal(t, []float64{12}, times(row))
		assert.Len(t, bus.Recent(), 2)
		assert.Equal(t, events.TypeKeyframeSetOrRemoved, bus.Recent()[0].GetEventType())

		require.True(t, stack.Undo(ctx))
		assert.Equal(t, []float64{10}, times(row))
		assert.False(t, stack.Undo(ctx))
		require.True(t, stack.Redo(ctx))
		assert.Equal(t, []float64{12}, times(row))
		assert.False(t, stack.Redo(ctx))
	})

	t.Run("push drops the redo tail", func(t *testing.T) {
		stack, _ := newStack(0)
		_, row := curveNode(t, kf(10, 0), kf(20, 0))

		stack.Push(ctx, NewRemoveCommand(ptrs(row, 10)))
		stack.Push(ctx, NewRemoveCommand(ptrs(row, 20)))
		require.True(t, stack.Undo(ctx))
		assert.Equal(t, "Delete keyframes", stack.RedoText())

		stack.Push(ctx, NewRenameCommand(row.NodeContext(), "Blur2"))
		assert.Equal(t, 2, stack.Len())
		assert.False(t, stack.CanRedo())
		assert.Equal(t, "Rename node", stack.UndoText())
	})

	t.Run("limit keeps the most recent commands", func(t *testing.T) {
		stack, _ := newStack(2)
		_, row := curveNode(t, kf(1, 0), kf(2, 0), kf(3, 0))

		for _, tm := range []float64{1, 2, 3} {
			stack.Push(ctx, NewRemoveCommand(ptrs(row, tm)))
		}

		assert.Equal(t, 2, stack.Len())
		assert.Equal(t, 2, stack.Index())
		stack.Undo(ctx)
		stack.Undo(ctx)
		assert.Equal(t, []float64{2, 3}, times(row))
	})

	t.Run("lowering the limit drops the oldest commands", func(t *testing.T) {
		stack, _ := newStack(0)
		_, row := curveNode(t, kf(1, 0), kf(2, 0), kf(3, 0))
		for _, tm := range []float64{1, 2, 3} {
			stack.Push(ctx, NewRemoveCommand(ptrs(row, tm)))
		}
		stack.Undo(ctx)

		stack.SetLimit(1)

		assert.Equal(t, 1, stack.Len())
		assert.Equal(t, 0, stack.Index())
		assert.True(t, stack.CanRedo())
		assert.Equal(t, []string{"Delete keyframes"}, stack.Names())
	})

	t.Run("nil commands are ignored", func(t *testing.T) {
		stack, bus := newStack(0)
		stack.Push(ctx, nil)
		assert.Zero(t, stack.Len())
		assert.Empty(t, bus.Recent())
	})
}
