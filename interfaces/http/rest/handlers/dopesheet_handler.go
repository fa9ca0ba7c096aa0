package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"dopesheet/application/services"
	"dopesheet/domain/core/entities"
	"dopesheet/domain/core/valueobjects"
	domain "dopesheet/domain/services"
	"dopesheet/pkg/common"
	pkgerrors "dopesheet/pkg/errors"
	"dopesheet/pkg/utils"
)

const maxBodyBytes = 1 << 20

// Error codes of the requests the dope sheet refuses
const (
	CodeNothingToUndo = "NOTHING_TO_UNDO"
	CodeNothingToRedo = "NOTHING_TO_REDO"
	CodeNotTrimmed    = "NOT_TRIMMED"
	CodeNotAReader    = "NOT_A_READER"
)

var selectionFlags = map[string]domain.SelectionFlags{
	"clear":   domain.SelectionClear,
	"add":     domain.SelectionAdd,
	"toggle":  domain.SelectionToggle,
	"recurse": domain.SelectionRecurse,
}

// DopeSheetHandler handles the dope sheet HTTP requests. The dope sheet is
// single threaded: every request holds mu for its whole duration.
type DopeSheetHandler struct {
	mu     sync.Mutex
	ds     *services.DopeSheet
	errors *pkgerrors.ErrorHandler
	logger *zap.Logger
}

// NewDopeSheetHandler creates a new dope sheet handler
func NewDopeSheetHandler(ds *services.DopeSheet, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *DopeSheetHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if errorHandler == nil {
		errorHandler = pkgerrors.NewErrorHandler(logger, false)
	}
	return &DopeSheetHandler{ds: ds, errors: errorHandler, logger: logger}
}

// Lock serializes access to the dope sheet outside HTTP requests
func (h *DopeSheetHandler) Lock() { h.mu.Lock() }

// Unlock releases Lock
func (h *DopeSheetHandler) Unlock() { h.mu.Unlock() }

// decode parses and validates the request body into req
func (h *DopeSheetHandler) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := common.ParseJSONBody(w, r, req, maxBodyBytes); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("Invalid request body: "+err.Error()))
		return false
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return false
	}
	return true
}

func (h *DopeSheetHandler) nodeFromPath(r *http.Request) (*entities.NodeContext, error) {
	id, err := valueobjects.ParseRowID(chi.URLParam(r, "id"))
	if err != nil {
		return nil, pkgerrors.NewValidationError("invalid row id")
	}
	nc := h.ds.FindNodeContextByRow(id)
	if nc == nil {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	return nc, nil
}

func (h *DopeSheetHandler) readerFromPath(r *http.Request) (*entities.NodeContext, error) {
	nc, err := h.nodeFromPath(r)
	if err != nil {
		return nil, err
	}
	if nc.ItemType() != valueobjects.ItemTypeReader {
		return nil, pkgerrors.NewValidationError(nc.Label() + " is not a reader").
			WithCode(CodeNotAReader).
			WithDetails(map[string]interface{}{"node": nc.Label(), "item_type": nc.ItemType().String()})
	}
	return nc, nil
}

// ListRows handles GET /nodes
func (h *DopeSheetHandler) ListRows(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rows := h.ds.Rows()
	resp := make([]RowResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, toRow(h.ds, row))
	}
	common.RespondJSON(w, http.StatusOK, resp)
}

// GetRange handles GET /nodes/{id}/range
func (h *DopeSheetHandler) GetRange(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	nc, err := h.nodeFromPath(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	rng, ok := h.ds.Range(nc)
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewNotFoundError("range"))
		return
	}
	common.RespondJSON(w, http.StatusOK, toRange(rng))
}

// GetSelection handles GET /selection
func (h *DopeSheetHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.respondSelection(w)
}

func (h *DopeSheetHandler) respondSelection(w http.ResponseWriter) {
	keys, nodes := h.ds.Selection().CurrentSelection()
	resp := SelectionResponse{Keys: []KeyResponse{}, Nodes: []string{}}
	for _, k := range keys {
		resp.Keys = append(resp.Keys, toKeys(k.Context, []valueobjects.KeyFrame{k.Key})...)
	}
	for _, n := range nodes {
		resp.Nodes = append(resp.Nodes, n.ID().String())
	}
	common.RespondJSON(w, http.StatusOK, resp)
}

// MakeSelection handles POST /selection
func (h *DopeSheetHandler) MakeSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var flags domain.SelectionFlags
	for _, f := range req.Flags {
		flags |= selectionFlags[f]
	}

	var keys []entities.KeyPtr
	for _, ref := range req.Keys {
		id, err := valueobjects.ParseRowID(ref.Row)
		if err != nil {
			h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid row id"))
			return
		}
		ctx := h.ds.FindKnobContext(id)
		if ctx == nil {
			h.errors.Handle(w, r, pkgerrors.NewNotFoundError("row"))
			return
		}
		key, ok := ctx.KeyFrameAt(ref.Time)
		if !ok {
			h.errors.Handle(w, r, pkgerrors.NewNotFoundError("keyframe"))
			return
		}
		keys = append(keys, entities.NewKeyPtr(ctx, key))
	}

	var nodes []*entities.NodeContext
	for _, raw := range req.Nodes {
		id, err := valueobjects.ParseRowID(raw)
		if err != nil {
			h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid row id"))
			return
		}
		nc := h.ds.FindNodeContextByRow(id)
		if nc == nil {
			h.errors.Handle(w, r, pkgerrors.NewNotFoundError("node"))
			return
		}
		nodes = append(nodes, nc)
	}

	if err := h.ds.MakeSelection(keys, nodes, flags); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondSelection(w)
}

// SelectAll handles POST /selection/all
func (h *DopeSheetHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ds.SelectAll()
	h.respondSelection(w)
}

// ClearSelection handles DELETE /selection
func (h *DopeSheetHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ds.ClearSelection()
	h.respondSelection(w)
}

// MoveKeys handles POST /keys/move
func (h *DopeSheetHandler) MoveKeys(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ds.MoveSelectedKeysAndNodes(r.Context(), req.Dt)
	h.respondHistory(w)
}

// DeleteKeys handles POST /keys/delete
func (h *DopeSheetHandler) DeleteKeys(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ds.DeleteSelectedKeyframes(r.Context())
	h.respondHistory(w)
}

// CopyKeys handles POST /keys/copy
func (h *DopeSheetHandler) CopyKeys(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ds.CopySelectedKeys()
	common.RespondJSON(w, http.StatusOK, map[string]int{"copied": len(h.ds.Clipboard())})
}

// SetDestinations handles POST /keys/destinations
func (h *DopeSheetHandler) SetDestinations(w http.ResponseWriter, r *http.Request) {
	var req DestinationsRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	rows := make([]*entities.KnobContext, 0, len(req.Rows))
	for _, raw := range req.Rows {
		id, err := valueobjects.ParseRowID(raw)
		if err != nil {
			h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid row id"))
			return
		}
		ctx := h.ds.FindKnobContext(id)
		if ctx == nil {
			h.errors.Handle(w, r, pkgerrors.NewNotFoundError("row"))
			return
		}
		rows = append(rows, ctx)
	}
	h.ds.SetDestinationDimensions(rows)
	common.RespondJSON(w, http.StatusOK, map[string]int{"destinations": len(h.ds.DestinationDimensions())})
}

// PasteKeys handles POST /keys/paste
func (h *DopeSheetHandler) PasteKeys(w http.ResponseWriter, r *http.Request) {
	var req PasteRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.ds.PasteKeys(r.Context(), req.Relative); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondHistory(w)
}

// SetInterpolation handles POST /keys/interpolation
func (h *DopeSheetHandler) SetInterpolation(w http.ResponseWriter, r *http.Request) {
	var req InterpolationRequest
	if !h.decode(w, r, &req) {
		return
	}
	interp, err := valueobjects.ParseInterpolation(req.Interpolation)
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ds.SetSelectedKeysInterpolation(r.Context(), interp)
	h.respondHistory(w)
}

// ScaleKeys handles POST /keys/scale
func (h *DopeSheetHandler) ScaleKeys(w http.ResponseWriter, r *http.Request) {
	var req ScaleRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	m := valueobjects.ScaleAround(req.PivotTime, req.PivotValue, req.ScaleX, req.ScaleY)
	h.ds.TransformSelectedKeys(r.Context(), m)
	h.respondHistory(w)
}

// TrimLeft handles POST /readers/{id}/trim-left
func (h *DopeSheetHandler) TrimLeft(w http.ResponseWriter, r *http.Request) {
	h.trim(w, r, h.ds.TrimReaderLeft)
}

// TrimRight handles POST /readers/{id}/trim-right
func (h *DopeSheetHandler) TrimRight(w http.ResponseWriter, r *http.Request) {
	h.trim(w, r, h.ds.TrimReaderRight)
}

func (h *DopeSheetHandler) trim(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, reader *entities.NodeContext, t float64)) {
	var req TrimRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	reader, err := h.readerFromPath(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	apply(r.Context(), reader, req.Time)
	h.respondReader(w, reader)
}

// Slip handles POST /readers/{id}/slip
func (h *DopeSheetHandler) Slip(w http.ResponseWriter, r *http.Request) {
	var req SlipRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	reader, err := h.readerFromPath(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if !h.ds.CanSlipReader(reader) {
		h.errors.Handle(w, r, pkgerrors.NewConflictError(reader.Label()+" is not trimmed").
			WithCode(CodeNotTrimmed).
			WithDetails(map[string]interface{}{"node": reader.Label()}))
		return
	}
	h.ds.SlipReader(r.Context(), reader, req.Dt)
	h.respondReader(w, reader)
}

func (h *DopeSheetHandler) respondReader(w http.ResponseWriter, reader *entities.NodeContext) {
	resp := RowResponse{
		ID:       reader.ID().String(),
		Kind:     "node",
		Label:    reader.Label(),
		ItemType: reader.ItemType().String(),
	}
	if rng, ok := h.ds.Range(reader); ok {
		resp.Range = toRange(rng)
	}
	common.RespondJSON(w, http.StatusOK, resp)
}

// RenameNode handles POST /nodes/rename
func (h *DopeSheetHandler) RenameNode(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.ds.RenameSelectedNode(r.Context(), req.Label); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondHistory(w)
}

// Undo handles POST /undo
func (h *DopeSheetHandler) Undo(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.ds.Undo(r.Context()) {
		h.errors.Handle(w, r, pkgerrors.NewConflictError("nothing to undo").WithCode(CodeNothingToUndo))
		return
	}
	h.respondHistory(w)
}

// Redo handles POST /redo
func (h *DopeSheetHandler) Redo(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.ds.Redo(r.Context()) {
		h.errors.Handle(w, r, pkgerrors.NewConflictError("nothing to redo").WithCode(CodeNothingToRedo))
		return
	}
	h.respondHistory(w)
}

// History handles GET /history
func (h *DopeSheetHandler) History(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.respondHistory(w)
}

func (h *DopeSheetHandler) respondHistory(w http.ResponseWriter) {
	common.RespondJSON(w, http.StatusOK, toHistory(h.ds))
}
