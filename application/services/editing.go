package services

import (
	"context"
	"math"

	"go.uber.org/zap"

	"dopesheet/application/commands"
	"dopesheet/domain/core/entities"
	"dopesheet/domain/core/valueobjects"
	"dopesheet/domain/events"
	domain "dopesheet/domain/services"
	pkgerrors "dopesheet/pkg/errors"
)

// User facing messages
const (
	MsgRenameNeedsOneNode    = "You must select exactly 1 node to rename."
	MsgPasteNeedsDestination = "You must select at least one destination dimension to paste keyframes to."
)

// selectedDimensionKeys returns the selected keyframes as per-dimension
// entries: root entries expand to the dimensions holding a key at their
// time, and every entry carries the current keyframe.
func (d *DopeSheet) selectedDimensionKeys() []entities.KeyPtr {
	keys, _ := d.selection.CurrentSelection()
	seen := make(map[entities.KeyIdentity]bool, len(keys))
	var out []entities.KeyPtr
	add := func(ctx *entities.KnobContext, t float64) {
		key, ok := ctx.KeyFrameAt(t)
		if !ok {
			return
		}
		p := entities.NewKeyPtr(ctx, key)
		if seen[p.Identity()] {
			return
		}
		seen[p.Identity()] = true
		out = append(out, p)
	}
	for _, k := range keys {
		if !k.IsValid() {
			continue
		}
		if !k.Context.IsRoot() {
			add(k.Context, k.Key.Time)
			continue
		}
		for _, child := range k.Context.Children() {
			add(child, k.Key.Time)
		}
	}
	return out
}

// DeleteSelectedKeyframes removes the selected keyframes. Nothing is pushed
// when no keyframe is selected.
func (d *DopeSheet) DeleteSelectedKeyframes(ctx context.Context) {
	keys := d.selectedDimensionKeys()
	if len(keys) == 0 {
		return
	}
	d.selection.ClearKeyframeSelection()
	d.stack.Push(ctx, commands.NewRemoveCommand(keys))
}

// MoveSelectedKeysAndNodes moves the selected keyframes and range nodes by
// dt. The offset is clamped so that no keyframe reaches an unselected
// neighbor; a group moves with its members and their keyframes.
func (d *DopeSheet) MoveSelectedKeysAndNodes(ctx context.Context, dt float64) {
	keys := d.selectedDimensionKeys()
	_, selectedNodes := d.selection.CurrentSelection()
	if len(keys) == 0 && len(selectedNodes) == 0 {
		return
	}

	nodes, memberKeys := d.expandMovedNodes(selectedNodes)
	selected := make(map[entities.KeyIdentity]bool, len(keys)+len(memberKeys))
	for _, k := range keys {
		selected[k.Identity()] = true
	}
	for _, k := range memberKeys {
		if !selected[k.Identity()] {
			selected[k.Identity()] = true
			keys = append(keys, k)
		}
	}

	dt = clampMove(keys, selected, dt)
	if dt == 0 {
		return
	}

	commands.SortKeysForMove(keys, dt)
	d.stack.Push(ctx, commands.NewMoveCommand(keys, nodes, dt, d.config.Knobs, d.selection))
}

// clampMove bounds dt by the nearest unselected keyframe on each side of
// every moved keyframe.
func clampMove(keys []entities.KeyPtr, selected map[entities.KeyIdentity]bool, dt float64) float64 {
	maxRight, maxLeft := math.Inf(1), math.Inf(-1)
	for _, k := range keys {
		curve := k.Context.Curve()
		if curve == nil {
			continue
		}
		t := k.Key.Time
		if next, ok := curve.NextKeyFrameTime(t); ok && !selected[entities.NewKeyPtr(k.Context, k.Key.WithTime(next)).Identity()] {
			maxRight = math.Min(maxRight, next-t-1)
		}
		if prev, ok := curve.PreviousKeyFrameTime(t); ok && !selected[entities.NewKeyPtr(k.Context, k.Key.WithTime(prev)).Identity()] {
			maxLeft = math.Max(maxLeft, prev-t+1)
		}
	}
	switch {
	case dt > 0:
		return math.Max(0, math.Min(dt, maxRight))
	case dt < 0:
		return math.Min(0, math.Max(dt, maxLeft))
	}
	return 0
}

// expandMovedNodes adds to nodes the members of selected groups, recursively,
// and returns the keyframes of those members.
func (d *DopeSheet) expandMovedNodes(nodes []*entities.NodeContext) ([]*entities.NodeContext, []entities.KeyPtr) {
	var out []*entities.NodeContext
	var keys []entities.KeyPtr
	visited := make(map[*entities.NodeContext]bool)
	var visit func(nc *entities.NodeContext, member bool)
	visit = func(nc *entities.NodeContext, member bool) {
		if nc == nil || !nc.IsValid() || visited[nc] {
			return
		}
		visited[nc] = true
		out = append(out, nc)
		if member {
			for _, ctx := range nc.DimensionContexts() {
				for _, key := range ctx.KeyFrames() {
					keys = append(keys, entities.NewKeyPtr(ctx, key))
				}
			}
		}
		if nc.ItemType() == valueobjects.ItemTypeGroup {
			for _, m := range domain.ImportantNodes(d, nc) {
				visit(m, true)
			}
		}
	}
	for _, nc := range nodes {
		visit(nc, false)
	}
	return out, keys
}

func (d *DopeSheet) readerFrames(reader *entities.NodeContext) (first, last, origFirst, origLast float64, ok bool) {
	if reader == nil || !reader.IsValid() || reader.ItemType() != valueobjects.ItemTypeReader {
		return 0, 0, 0, 0, false
	}
	k := d.config.Knobs
	n := reader.Node()
	firstKnob, lastKnob, orig := n.KnobByName(k.FirstFrame), n.KnobByName(k.LastFrame), n.KnobByName(k.OriginalFrameRange)
	if firstKnob == nil || lastKnob == nil || orig == nil || orig.Dimension() < 2 {
		d.logger.Debug("Reader without frame knobs", zap.String("node", reader.Label()))
		return 0, 0, 0, 0, false
	}
	return firstKnob.Value(0), lastKnob.Value(0), orig.Value(0), orig.Value(1), true
}

// TrimReaderLeft sets the first frame of reader, clamped into
// [original first frame, current last frame].
func (d *DopeSheet) TrimReaderLeft(ctx context.Context, reader *entities.NodeContext, newFirst float64) {
	first, last, origFirst, _, ok := d.readerFrames(reader)
	if !ok {
		return
	}
	newFirst = clamp(newFirst, origFirst, last)
	if newFirst == first {
		return
	}
	d.stack.Push(ctx, commands.NewTrimLeftCommand(reader, first, newFirst, d.config.Knobs))
}

// TrimReaderRight sets the last frame of reader, clamped into
// [current first frame, original last frame].
func (d *DopeSheet) TrimReaderRight(ctx context.Context, reader *entities.NodeContext, newLast float64) {
	first, last, _, origLast, ok := d.readerFrames(reader)
	if !ok {
		return
	}
	newLast = clamp(newLast, first, origLast)
	if newLast == last {
		return
	}
	d.stack.Push(ctx, commands.NewTrimRightCommand(reader, last, newLast, d.config.Knobs))
}

// CanSlipReader reports whether reader is trimmed on either side
func (d *DopeSheet) CanSlipReader(reader *entities.NodeContext) bool {
	first, last, origFirst, origLast, ok := d.readerFrames(reader)
	return ok && (first != origFirst || last != origLast)
}

// SlipReader slides the trimmed window of reader over its footage by dt.
// dt is clamped to [last - original last, first - original first] so the
// window stays inside the footage.
func (d *DopeSheet) SlipReader(ctx context.Context, reader *entities.NodeContext, dt float64) {
	first, last, origFirst, origLast, ok := d.readerFrames(reader)
	if !ok {
		return
	}
	dt = clamp(dt, last-origLast, first-origFirst)
	if dt == 0 {
		return
	}
	d.stack.Push(ctx, commands.NewSlipCommand(reader, dt, d.config.Knobs))
}

// CopySelectedKeys snapshots the selected keyframes into the clipboard
func (d *DopeSheet) CopySelectedKeys() {
	keys := d.selectedDimensionKeys()
	if len(keys) == 0 {
		return
	}
	d.clipboard = d.clipboard[:0]
	for _, k := range keys {
		d.clipboard = append(d.clipboard, k.Key)
	}
}

// Clipboard returns a copy of the copied keyframes
func (d *DopeSheet) Clipboard() []valueobjects.KeyFrame {
	return append([]valueobjects.KeyFrame(nil), d.clipboard...)
}

// SetDestinationDimensions selects the rows pasted keyframes go to. Root
// rows stand for all their dimensions.
func (d *DopeSheet) SetDestinationDimensions(rows []*entities.KnobContext) {
	d.destinations = d.destinations[:0]
	seen := make(map[*entities.KnobContext]bool)
	for _, row := range rows {
		if row == nil || !row.IsValid() {
			continue
		}
		dims := []*entities.KnobContext{row}
		if row.IsRoot() {
			dims = row.Children()
		}
		for _, dim := range dims {
			if !seen[dim] {
				seen[dim] = true
				d.destinations = append(d.destinations, dim)
			}
		}
	}
}

// DestinationDimensions returns the rows pasted keyframes go to
func (d *DopeSheet) DestinationDimensions() []*entities.KnobContext {
	return append([]*entities.KnobContext(nil), d.destinations...)
}

// PasteKeys pastes the clipboard into the destination dimensions
func (d *DopeSheet) PasteKeys(ctx context.Context, relative bool) error {
	return d.PasteExplicitKeys(ctx, d.clipboard, relative)
}

// PasteExplicitKeys pastes keys into every destination dimension. In
// relative mode the earliest key lands on the current frame.
func (d *DopeSheet) PasteExplicitKeys(ctx context.Context, keys []valueobjects.KeyFrame, relative bool) error {
	var destinations []*entities.KnobContext
	for _, dst := range d.destinations {
		if dst.IsValid() {
			destinations = append(destinations, dst)
		}
	}
	if len(destinations) == 0 {
		d.reporter.Report(MsgPasteNeedsDestination)
		return pkgerrors.NewValidationError(MsgPasteNeedsDestination)
	}
	if len(keys) == 0 {
		return nil
	}

	offset := 0.0
	if relative && d.timeline != nil {
		earliest := keys[0].Time
		for _, k := range keys[1:] {
			earliest = math.Min(earliest, k.Time)
		}
		offset = d.timeline.CurrentFrame() - earliest
	}
	placed := make([]valueobjects.KeyFrame, len(keys))
	for i, k := range keys {
		placed[i] = k.WithTime(k.Time + offset)
	}

	d.stack.Push(ctx, commands.NewPasteCommand(placed, destinations))
	return nil
}

// SetSelectedKeysInterpolation gives every selected keyframe interp
func (d *DopeSheet) SetSelectedKeysInterpolation(ctx context.Context, interp valueobjects.Interpolation) {
	keys := d.selectedDimensionKeys()
	if len(keys) == 0 {
		return
	}
	d.stack.Push(ctx, commands.NewSetInterpolationCommand(keys, interp))
}

// TransformSelectedKeys applies m to the (time, value) of every selected
// keyframe.
func (d *DopeSheet) TransformSelectedKeys(ctx context.Context, m valueobjects.Matrix3) {
	keys := d.selectedDimensionKeys()
	if len(keys) == 0 || m.IsIdentity() {
		return
	}
	d.stack.Push(ctx, commands.NewTransformCommand(keys, m, d.selection))
}

// RenameSelectedNode renames the single selected node to label
func (d *DopeSheet) RenameSelectedNode(ctx context.Context, label string) error {
	_, nodes := d.selection.CurrentSelection()
	if len(nodes) != 1 {
		d.reporter.Report(MsgRenameNeedsOneNode)
		return pkgerrors.NewValidationError(MsgRenameNeedsOneNode)
	}
	if label == "" {
		return pkgerrors.NewValidationError("node label cannot be empty")
	}
	if nodes[0].Label() == label {
		return nil
	}
	d.stack.Push(ctx, commands.NewRenameCommand(nodes[0], label))
	d.publish(events.NewModelChanged("node_renamed"))
	return nil
}

// Undo reverts the last command
func (d *DopeSheet) Undo(ctx context.Context) bool {
	return d.stack.Undo(ctx)
}

// Redo reapplies the last undone command
func (d *DopeSheet) Redo(ctx context.Context) bool {
	return d.stack.Redo(ctx)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
