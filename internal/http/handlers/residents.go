package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/aparthus-be/internal/auth"
	"github.com/hongminglow/aparthus-be/internal/http/respond"
	"github.com/hongminglow/aparthus-be/internal/models"
	"github.com/hongminglow/aparthus-be/internal/models/dto"
	"github.com/hongminglow/aparthus-be/internal/storage"
)

// Reminders sends dues reminders.
type Reminders interface {
	Remind(ctx context.Context, residentID string) (models.Notification, error)
	RemindAll(ctx context.Context) (int, error)
}

// ResidentHandler serves resident management and dues payment.
type ResidentHandler struct {
	residents    storage.ResidentStore
	transactions storage.TransactionStore
	reminders    Reminders
}

// NewResidentHandler constructs the handler.
func NewResidentHandler(residents storage.ResidentStore, transactions storage.TransactionStore, reminders Reminders) *ResidentHandler {
	return &ResidentHandler{residents: residents, transactions: transactions, reminders: reminders}
}

// Register attaches resident routes. Fixed paths go before /residents/{id}.
func (h *ResidentHandler) Register(api *mux.Router) {
	api.Handle("/residents/summary", only(h.handleSummary, models.RoleAdmin)).Methods(http.MethodGet)
	api.Handle("/residents/reminders", only(h.handleRemindAll, models.RoleAdmin)).Methods(http.MethodPost)
	api.Handle("/residents/payAidat", only(h.handlePay, models.RoleResident, models.RoleAdmin)).Methods(http.MethodPost)
	api.Handle("/residents/payments/{id}", only(h.handlePayments, models.RoleResident, models.RoleAdmin)).Methods(http.MethodGet)
	api.Handle("/residents/yonetici-residents", only(h.handleManagerList, models.RoleAdmin)).Methods(http.MethodGet)

	api.Handle("/residents", only(h.handleList, models.RoleAdmin)).Methods(http.MethodGet)
	api.Handle("/residents", only(h.handleCreate, models.RoleAdmin)).Methods(http.MethodPost)
	api.Handle("/residents/{id}", only(h.handleGet, models.RoleAdmin)).Methods(http.MethodGet)
	api.Handle("/residents/{id}", only(h.handleUpdate, models.RoleAdmin)).Methods(http.MethodPut)
	api.Handle("/residents/{id}", only(h.handleDelete, models.RoleAdmin)).Methods(http.MethodDelete)
	api.Handle("/residents/{id}/reminder", only(h.handleRemind, models.RoleAdmin)).Methods(http.MethodPost)
}

func (h *ResidentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	residents, err := h.residents.ListResidents(r.Context())
	if err != nil {
		respond.StoreError(w, "list residents", err)
		return
	}
	respond.JSON(w, http.StatusOK, "residents fetched", residents)
}

// handleManagerList returns the residents linked to the calling manager.
func (h *ResidentHandler) handleManagerList(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	residents, err := h.residents.ListResidentsByManager(r.Context(), claims.Subject)
	if err != nil {
		respond.StoreError(w, "list manager residents", err)
		return
	}
	respond.JSON(w, http.StatusOK, "residents fetched", residents)
}

// handleCreate links the new resident to the admin who creates it.
func (h *ResidentHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req dto.ResidentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resident, err := residentFromRequest(req, true)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	resident.ManagerID = claims.Subject
	created, err := h.residents.CreateResident(r.Context(), resident)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, "username already taken")
			return
		}
		respond.StoreError(w, "create resident", err)
		return
	}
	respond.JSON(w, http.StatusCreated, "resident created", created)
}

func (h *ResidentHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	resident, err := h.residents.GetResident(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.StoreError(w, "get resident", err)
		return
	}
	respond.JSON(w, http.StatusOK, "resident fetched", resident)
}

func (h *ResidentHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.ResidentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resident, err := residentFromRequest(req, false)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	resident.ID = mux.Vars(r)["id"]
	updated, err := h.residents.UpdateResident(r.Context(), resident)
	if err != nil {
		respond.StoreError(w, "update resident", err)
		return
	}
	respond.JSON(w, http.StatusOK, "resident updated", updated)
}

func (h *ResidentHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.residents.DeleteResident(r.Context(), mux.Vars(r)["id"]); err != nil {
		respond.StoreError(w, "delete resident", err)
		return
	}
	respond.JSON(w, http.StatusOK, "resident deleted", nil)
}

func (h *ResidentHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	residents, err := h.residents.ListResidents(r.Context())
	if err != nil {
		respond.StoreError(w, "summarise dues", err)
		return
	}
	transactions, err := h.transactions.ListTransactions(r.Context())
	if err != nil {
		respond.StoreError(w, "summarise dues", err)
		return
	}
	respond.JSON(w, http.StatusOK, "dues summary", summarise(residents, transactions))
}

func summarise(residents []models.Resident, transactions []models.Transaction) models.DuesSummary {
	summary := models.DuesSummary{
		TotalPaid:     decimal.Zero,
		TotalUnpaid:   decimal.Zero,
		ResidentCount: len(residents),
	}
	for _, r := range residents {
		if r.HasPaid {
			summary.PaidCount++
			continue
		}
		summary.UnpaidCount++
		summary.TotalUnpaid = summary.TotalUnpaid.Add(r.AmountDue)
	}
	for _, t := range transactions {
		if t.Kind == models.TransactionPayment {
			summary.TotalPaid = summary.TotalPaid.Add(t.Amount)
		}
	}
	return summary
}

func (h *ResidentHandler) handleRemind(w http.ResponseWriter, r *http.Request) {
	n, err := h.reminders.Remind(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyPaid) {
			respond.Error(w, http.StatusConflict, "resident has no outstanding dues")
			return
		}
		respond.StoreError(w, "send reminder", err)
		return
	}
	respond.JSON(w, http.StatusCreated, "reminder sent", n)
}

func (h *ResidentHandler) handleRemindAll(w http.ResponseWriter, r *http.Request) {
	sent, err := h.reminders.RemindAll(r.Context())
	if err != nil {
		respond.StoreError(w, "send reminders", err)
		return
	}
	respond.JSON(w, http.StatusOK, "reminders sent", dto.SendNotificationResponse{Delivered: sent})
}

func (h *ResidentHandler) handlePayments(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if !mayActFor(claims, id) {
		respond.Error(w, http.StatusForbidden, "residents may only view their own payments")
		return
	}
	resident, err := h.residents.GetResident(r.Context(), id)
	if err != nil {
		respond.StoreError(w, "get payments", err)
		return
	}
	respond.JSON(w, http.StatusOK, "payment status fetched", resident)
}

func (h *ResidentHandler) handlePay(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req dto.PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	residentID := strings.TrimSpace(req.ResidentID)
	if residentID == "" && claims.Role == models.RoleResident {
		residentID = claims.ResidentID
	}
	if residentID == "" {
		respond.Error(w, http.StatusBadRequest, "residentId is required")
		return
	}
	if !mayActFor(claims, residentID) {
		respond.Error(w, http.StatusForbidden, "residents may only pay their own dues")
		return
	}
	if !req.Amount.IsPositive() {
		respond.Error(w, http.StatusBadRequest, "amount must be greater than zero")
		return
	}

	resident, tx, err := h.residents.ApplyPayment(r.Context(), residentID, req.Amount, models.Transaction{
		Description: "Aidat ödemesi",
	})
	if err != nil {
		respond.StoreError(w, "apply payment", err)
		return
	}
	respond.JSON(w, http.StatusOK, "payment recorded", dto.PaymentResponse{Resident: resident, Transaction: tx})
}

// mayActFor lets admins act for anyone and residents only for themselves.
func mayActFor(claims *auth.Claims, residentID string) bool {
	if claims.Role == models.RoleAdmin {
		return true
	}
	return claims.Role == models.RoleResident && claims.ResidentID != "" && claims.ResidentID == residentID
}

// residentFromRequest validates the body. Passwords are required when creating a resident
// with a username and optional on update. hasPaid always follows amountDue.
func residentFromRequest(req dto.ResidentRequest, creating bool) (models.Resident, error) {
	resident := models.Resident{
		Username:        strings.TrimSpace(req.Username),
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Email:           strings.TrimSpace(req.Email),
		ContactNumber:   strings.TrimSpace(req.ContactNumber),
		SiteName:        strings.TrimSpace(req.SiteName),
		Block:           strings.TrimSpace(req.Block),
		ApartmentNumber: req.ApartmentNumber,
		AmountDue:       req.AmountDue,
	}
	if resident.FirstName == "" && resident.LastName == "" {
		return models.Resident{}, errors.New("firstName or lastName is required")
	}
	if resident.ApartmentNumber < 0 {
		return models.Resident{}, errors.New("apartmentNumber must not be negative")
	}
	if resident.AmountDue.IsNegative() {
		return models.Resident{}, errors.New("amountDue must not be negative")
	}
	if req.HasPaid && !resident.AmountDue.IsZero() {
		return models.Resident{}, errors.New("hasPaid requires amountDue to be 0")
	}
	resident.HasPaid = resident.AmountDue.IsZero()
	if req.DueDate != "" {
		due, err := dto.ParseDate(req.DueDate)
		if err != nil {
			return models.Resident{}, err
		}
		resident.DueDate = due
	}

	switch {
	case req.Password != "":
		if resident.Username == "" {
			return models.Resident{}, errors.New("username is required when setting a password")
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return models.Resident{}, err
		}
		resident.PasswordHash = hash
	case creating && resident.Username != "":
		return models.Resident{}, fmt.Errorf("password is required for resident %s", resident.Username)
	}
	return resident, nil
}
