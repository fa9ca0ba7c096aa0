package services

import (
	"dopesheet/domain/core/entities"
	"dopesheet/domain/core/valueobjects"
	domain "dopesheet/domain/services"
)

// SelectAll selects every keyframe of the shown rows and every shown range node
func (d *DopeSheet) SelectAll() {
	d.selection.SelectAll(d)
}

// ClearSelection empties the keyframe and range node selection
func (d *DopeSheet) ClearSelection() {
	d.selection.ClearKeyframeSelection()
}

// MakeSelection edits the selection, see SelectionModel.MakeSelection
func (d *DopeSheet) MakeSelection(keys []entities.KeyPtr, nodes []*entities.NodeContext, flags domain.SelectionFlags) error {
	return d.selection.MakeSelection(keys, nodes, flags)
}

// rowIndex maps every shown row to its display position
func (d *DopeSheet) rowIndex() map[valueobjects.RowID]int {
	rows := d.Rows()
	index := make(map[valueobjects.RowID]int, len(rows))
	for i, row := range rows {
		index[row.ID] = i
	}
	return index
}

// SelectKeysInRect selects the keyframes and ranges under rect. X is time,
// Y is the display row position: row i spans [i, i+1) and is hit when its
// middle lies inside rect.
func (d *DopeSheet) SelectKeysInRect(rect valueobjects.Rect, flags domain.SelectionFlags) error {
	var keys []entities.KeyPtr
	var nodes []*entities.NodeContext
	for i, row := range d.Rows() {
		middle := float64(i) + 0.5
		if middle < rect.Top || middle > rect.Bottom {
			continue
		}
		switch row.Kind {
		case RowKindKnob:
			for _, key := range row.Knob.KeyFrames() {
				if rect.Contains(key.Time, middle) {
					keys = append(keys, entities.NewKeyPtr(row.Knob, key))
				}
			}
		case RowKindNode:
			if !row.Node.IsRangeDrawingEnabled() {
				continue
			}
			if r, ok := d.ranges.Range(row.Node); ok && !r.IsZero() && r.Overlaps(rect.Left, rect.Right) {
				nodes = append(nodes, row.Node)
			}
		}
	}
	return d.selection.MakeSelection(keys, nodes, flags)
}

// SelectionBoundingRect returns the rect around the selected keyframes and
// ranges, nil when fewer than two items are selected.
func (d *DopeSheet) SelectionBoundingRect() *valueobjects.Rect {
	keys, nodes := d.selection.CurrentSelection()
	if len(keys)+len(nodes) < 2 {
		return nil
	}
	index := d.rowIndex()

	var rect *valueobjects.Rect
	grow := func(r valueobjects.Rect) {
		if rect == nil {
			rect = &r
			return
		}
		u := rect.Union(r)
		rect = &u
	}
	for _, k := range keys {
		i, ok := index[k.Context.ID()]
		if !ok {
			continue
		}
		grow(valueobjects.NewRect(k.Key.Time, float64(i), k.Key.Time, float64(i+1)))
	}
	for _, n := range nodes {
		i, ok := index[n.ID()]
		r, hasRange := d.ranges.Range(n)
		if !ok || !hasRange {
			continue
		}
		grow(valueobjects.NewRect(r.Start, float64(i), r.End, float64(i+1)))
	}
	return rect
}
