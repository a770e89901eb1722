package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hongminglow/aparthus-be/internal/http/respond"
	"github.com/hongminglow/aparthus-be/internal/models"
	"github.com/hongminglow/aparthus-be/internal/models/dto"
	"github.com/hongminglow/aparthus-be/internal/storage"
)

// QRHandler registers visitors and checks them in at the gate.
type QRHandler struct {
	visitors storage.VisitorStore
	now      func() time.Time
}

func NewQRHandler(visitors storage.VisitorStore) *QRHandler {
	return &QRHandler{visitors: visitors, now: time.Now}
}

func (h *QRHandler) Register(api *mux.Router) {
	api.Handle("/qr-routes/save-qr", only(h.handleSave, models.RoleResident, models.RoleAdmin)).Methods(http.MethodPost)
	api.Handle("/qr-routes/check-qr", only(h.handleCheck, models.RoleSecurity, models.RoleAdmin)).Methods(http.MethodPost)
	api.Handle("/qr-routes/visitor-entry", only(h.handleEntry, models.RoleSecurity, models.RoleAdmin)).Methods(http.MethodPost)
}

func (h *QRHandler) handleSave(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req dto.SaveQRRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.VisitorName)
	if name == "" {
		respond.Error(w, http.StatusBadRequest, "visitorName is required")
		return
	}
	code := strings.TrimSpace(req.QRCode)
	if code == "" {
		code = uuid.NewString()
	}
	saved, err := h.visitors.SaveVisitor(r.Context(), models.Visitor{
		QRCode:      code,
		VisitorName: name,
		ResidentID:  claims.ResidentID,
		Purpose:     strings.TrimSpace(req.Purpose),
	})
	if err != nil {
		respond.StoreError(w, "save visitor", err)
		return
	}
	respond.JSON(w, http.StatusCreated, "visitor registered", saved)
}

func (h *QRHandler) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckQRRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	code := strings.TrimSpace(req.QRCode)
	if code == "" {
		respond.Error(w, http.StatusBadRequest, "qrCode is required")
		return
	}
	_, err := h.visitors.FindVisitorByCode(r.Context(), code)
	switch {
	case err == nil:
		respond.JSON(w, http.StatusOK, "visitor registered", dto.CheckQRResponse{IsRegistered: true})
	case errors.Is(err, storage.ErrNotFound):
		respond.JSON(w, http.StatusOK, "visitor not registered", dto.CheckQRResponse{IsRegistered: false})
	default:
		respond.StoreError(w, "check qr code", err)
	}
}

func (h *QRHandler) handleEntry(w http.ResponseWriter, r *http.Request) {
	var req dto.VisitorEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	code := strings.TrimSpace(req.QRCode)
	if code == "" {
		respond.Error(w, http.StatusBadRequest, "qrCode is required")
		return
	}
	visitor, already, err := h.visitors.MarkVisitorEntered(r.Context(), code, h.now())
	if err != nil {
		respond.StoreError(w, "record visitor entry", err)
		return
	}
	msg := "entry recorded"
	if already {
		msg = "visitor already entered"
	}
	respond.JSON(w, http.StatusOK, msg, dto.VisitorEntryResponse{AlreadyEntered: already, Visitor: visitor})
}
