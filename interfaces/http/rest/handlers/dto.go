package handlers

import (
	"dopesheet/application/services"
	"dopesheet/domain/core/entities"
	"dopesheet/domain/core/valueobjects"
)

// KeyRef names one keyframe by its row and time
type KeyRef struct {
	Row  string  `json:"row" validate:"required,uuid"`
	Time float64 `json:"time"`
}

// SelectionRequest represents the request body for editing the selection
type SelectionRequest struct {
	Keys  []KeyRef `json:"keys,omitempty" validate:"omitempty,dive"`
	Nodes []string `json:"nodes,omitempty" validate:"omitempty,dive,uuid"`
	Flags []string `json:"flags" validate:"required,min=1,dive,oneof=clear add toggle recurse"`
}

// MoveRequest represents the request body for moving the selection
type MoveRequest struct {
	Dt float64 `json:"dt" validate:"ne=0"`
}

// PasteRequest represents the request body for pasting the clipboard
type PasteRequest struct {
	Relative bool `json:"relative"`
}

// DestinationsRequest represents the request body for choosing paste targets
type DestinationsRequest struct {
	Rows []string `json:"rows" validate:"required,min=1,dive,uuid"`
}

// InterpolationRequest represents the request body for changing interpolation
type InterpolationRequest struct {
	Interpolation string `json:"interpolation" validate:"required"`
}

// ScaleRequest represents the request body for scaling the selected keyframes
type ScaleRequest struct {
	PivotTime  float64 `json:"pivotTime"`
	PivotValue float64 `json:"pivotValue"`
	ScaleX     float64 `json:"scaleX" validate:"ne=0"`
	ScaleY     float64 `json:"scaleY" validate:"ne=0"`
}

// TrimRequest represents the request body for trimming a reader
type TrimRequest struct {
	Time float64 `json:"time"`
}

// SlipRequest represents the request body for slipping a reader
type SlipRequest struct {
	Dt float64 `json:"dt" validate:"ne=0"`
}

// RenameRequest represents the request body for renaming the selected node
type RenameRequest struct {
	Label string `json:"label" validate:"required,max=200"`
}

// RangeResponse is a half-open frame range
type RangeResponse struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// KeyResponse is one keyframe of a row
type KeyResponse struct {
	Row           string  `json:"row"`
	Time          float64 `json:"time"`
	Value         float64 `json:"value"`
	Interpolation string  `json:"interpolation"`
}

// RowResponse is one displayed row
type RowResponse struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Depth     int            `json:"depth"`
	Label     string         `json:"label"`
	ItemType  string         `json:"itemType,omitempty"`
	Knob      string         `json:"knob,omitempty"`
	Dimension *int           `json:"dimension,omitempty"`
	Range     *RangeResponse `json:"range,omitempty"`
	Keys      []KeyResponse  `json:"keys,omitempty"`
}

// SelectionResponse lists the selected keyframes and range nodes
type SelectionResponse struct {
	Keys  []KeyResponse `json:"keys"`
	Nodes []string      `json:"nodes"`
}

// HistoryResponse describes the undo stack
type HistoryResponse struct {
	Commands []string `json:"commands"`
	Index    int      `json:"index"`
	UndoText string   `json:"undoText,omitempty"`
	RedoText string   `json:"redoText,omitempty"`
}

func toRange(r valueobjects.Range) *RangeResponse {
	return &RangeResponse{Start: r.Start, End: r.End}
}

func toKeys(ctx *entities.KnobContext, keys []valueobjects.KeyFrame) []KeyResponse {
	out := make([]KeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, KeyResponse{
			Row:           ctx.ID().String(),
			Time:          k.Time,
			Value:         k.Value,
			Interpolation: k.Interpolation.String(),
		})
	}
	return out
}

func toRow(ds *services.DopeSheet, row services.Row) RowResponse {
	resp := RowResponse{
		ID:    row.ID.String(),
		Depth: row.Depth,
		Label: row.Node.Label(),
	}
	switch row.Kind {
	case services.RowKindNode:
		resp.Kind = "node"
		resp.ItemType = row.Node.ItemType().String()
		if row.Node.IsRangeDrawingEnabled() {
			if r, ok := ds.Range(row.Node); ok {
				resp.Range = toRange(r)
			}
		}
	case services.RowKindKnob:
		resp.Kind = "knob"
		resp.Knob = row.Knob.Knob().Name()
		if !row.Knob.IsRoot() {
			dim := row.Knob.Dimension()
			resp.Dimension = &dim
		}
		resp.Keys = toKeys(row.Knob, row.Knob.KeyFrames())
	}
	return resp
}

func toHistory(ds *services.DopeSheet) HistoryResponse {
	stack := ds.Stack()
	return HistoryResponse{
		Commands: stack.Names(),
		Index:    stack.Index(),
		UndoText: stack.UndoText(),
		RedoText: stack.RedoText(),
	}
}
