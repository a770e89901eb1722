package handlers

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/aparthus-be/internal/models"
	"github.com/hongminglow/aparthus-be/internal/storage/memory"
)

func TestExpenses(t *testing.T) {
	api := newTestAPI(t, memory.New())
	admin := api.adminToken()

	rec, env := api.do(http.MethodPost, "/api/expenses", admin, map[string]any{
		"description": "Asansör bakımı",
		"amount":      "1250.50",
		"date":        "2026-10-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	expense := decodeData[models.Expense](t, env)
	assert.True(t, decimal.RequireFromString("1250.50").Equal(expense.Amount))
	assert.Equal(t, 10, int(expense.Date.Month()))

	rec, env = api.do(http.MethodGet, "/api/expenses", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	expenses := decodeData[[]models.Expense](t, env)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Asansör bakımı", expenses[0].Description)

	invalid := []map[string]any{
		{"description": "", "amount": 10},
		{"description": "Temizlik", "amount": 0},
		{"description": "Temizlik", "amount": -3},
		{"description": "Temizlik", "amount": 10, "date": "01/10/2026"},
	}
	for _, body := range invalid {
		rec, _ = api.do(http.MethodPost, "/api/expenses", admin, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec, _ = api.do(http.MethodGet, "/api/expenses", api.securityToken(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTransactions(t *testing.T) {
	api := newTestAPI(t, memory.New())
	admin := api.adminToken()

	rec, env := api.do(http.MethodPost, "/api/transactions", admin, map[string]any{
		"description": "Banka faizi",
		"amount":      42,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, models.TransactionManual, decodeData[models.Transaction](t, env).Kind)

	rec, env = api.do(http.MethodPost, "/api/transactions", admin, map[string]any{
		"description": "Bahçe düzenlemesi",
		"amount":      -900,
		"kind":        "expense",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, models.TransactionExpense, decodeData[models.Transaction](t, env).Kind)

	rec, _ = api.do(http.MethodPost, "/api/transactions", admin, map[string]any{
		"description": "Aidat",
		"amount":      300,
		"kind":        "payment",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.do(http.MethodPost, "/api/transactions", admin, map[string]any{
		"description": "Aidat",
		"amount":      300,
		"kind":        "refund",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.do(http.MethodPost, "/api/transactions", admin, map[string]any{"description": "Boş"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = api.do(http.MethodGet, "/api/transactions", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]models.Transaction](t, env), 2)
}
