package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/hongminglow/aparthus-be/internal/http/respond"
	"github.com/hongminglow/aparthus-be/internal/models"
	"github.com/hongminglow/aparthus-be/internal/models/dto"
	"github.com/hongminglow/aparthus-be/internal/storage"
)

// LedgerStore is the persistence behind the expense and bank screens.
type LedgerStore interface {
	storage.ExpenseStore
	storage.TransactionStore
}

// LedgerHandler serves expenses and bank transactions. Both are admin only.
type LedgerHandler struct {
	store LedgerStore
}

func NewLedgerHandler(store LedgerStore) *LedgerHandler {
	return &LedgerHandler{store: store}
}

func (h *LedgerHandler) Register(api *mux.Router) {
	api.Handle("/expenses", only(h.handleListExpenses, models.RoleAdmin)).Methods(http.MethodGet)
	api.Handle("/expenses", only(h.handleCreateExpense, models.RoleAdmin)).Methods(http.MethodPost)
	api.Handle("/transactions", only(h.handleListTransactions, models.RoleAdmin)).Methods(http.MethodGet)
	api.Handle("/transactions", only(h.handleCreateTransaction, models.RoleAdmin)).Methods(http.MethodPost)
}

func (h *LedgerHandler) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.store.ListExpenses(r.Context())
	if err != nil {
		respond.StoreError(w, "list expenses", err)
		return
	}
	respond.JSON(w, http.StatusOK, "expenses fetched", expenses)
}

func (h *LedgerHandler) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req dto.ExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		respond.Error(w, http.StatusBadRequest, "description is required")
		return
	}
	if !req.Amount.IsPositive() {
		respond.Error(w, http.StatusBadRequest, "amount must be greater than zero")
		return
	}
	date, ok := optionalDate(w, req.Date)
	if !ok {
		return
	}

	created, err := h.store.CreateExpense(r.Context(), models.Expense{
		Description: description,
		Amount:      req.Amount,
		Date:        date,
	})
	if err != nil {
		respond.StoreError(w, "create expense", err)
		return
	}
	respond.JSON(w, http.StatusCreated, "expense recorded", created)
}

func (h *LedgerHandler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.store.ListTransactions(r.Context())
	if err != nil {
		respond.StoreError(w, "list transactions", err)
		return
	}
	respond.JSON(w, http.StatusOK, "transactions fetched", transactions)
}

func (h *LedgerHandler) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.TransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		respond.Error(w, http.StatusBadRequest, "description is required")
		return
	}
	if req.Amount.IsZero() {
		respond.Error(w, http.StatusBadRequest, "amount is required")
		return
	}
	kind := req.Kind
	switch kind {
	case "":
		kind = models.TransactionManual
	case models.TransactionExpense, models.TransactionManual:
	case models.TransactionPayment:
		respond.Error(w, http.StatusBadRequest, "payments are recorded through /api/residents/payAidat")
		return
	default:
		respond.Error(w, http.StatusBadRequest, "unknown transaction kind")
		return
	}
	date, ok := optionalDate(w, req.Date)
	if !ok {
		return
	}

	created, err := h.store.CreateTransaction(r.Context(), models.Transaction{
		ResidentID:  strings.TrimSpace(req.ResidentID),
		Description: description,
		Amount:      req.Amount,
		Kind:        kind,
		Date:        date,
	})
	if err != nil {
		respond.StoreError(w, "create transaction", err)
		return
	}
	respond.JSON(w, http.StatusCreated, "transaction recorded", created)
}

// optionalDate parses value when present, answering 400 itself on failure.
func optionalDate(w http.ResponseWriter, value string) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, true
	}
	date, err := dto.ParseDate(value)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return time.Time{}, false
	}
	return date, true
}
