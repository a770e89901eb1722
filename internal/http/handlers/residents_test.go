package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/aparthus-be/internal/auth"
	"github.com/hongminglow/aparthus-be/internal/models"
	"github.com/hongminglow/aparthus-be/internal/models/dto"
	"github.com/hongminglow/aparthus-be/internal/storage/memory"
)

func TestResidentCRUD(t *testing.T) {
	api := newTestAPI(t, memory.New())
	admin := api.adminToken()

	rec, env := api.do(http.MethodPost, "/api/residents", admin, map[string]any{
		"username":        "res01",
		"password":        "res01pass",
		"firstName":       "Ayşe",
		"lastName":        "Demir",
		"block":           "B",
		"apartmentNumber": 12,
		"amountDue":       300,
		"dueDate":         "2026-11-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeData[models.Resident](t, env)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.RoleResident, created.Role)
	assert.True(t, decimal.NewFromInt(300).Equal(created.AmountDue))
	assert.False(t, created.HasPaid)
	assert.Equal(t, 2026, created.DueDate.Year())
	assert.NotContains(t, rec.Body.String(), "res01pass")

	rec, env = api.do(http.MethodGet, "/api/residents", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]models.Resident](t, env), 1)

	rec, env = api.do(http.MethodGet, "/api/residents/"+created.ID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ayşe Demir", decodeData[models.Resident](t, env).FullName())

	rec, env = api.do(http.MethodPut, "/api/residents/"+created.ID, admin, map[string]any{
		"username":  "res01",
		"firstName": "Ayşe",
		"lastName":  "Yılmaz",
		"block":     "B",
		"amountDue": 0,
		"hasPaid":   true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeData[models.Resident](t, env)
	assert.Equal(t, "Yılmaz", updated.LastName)
	assert.True(t, updated.HasPaid)

	// Updating without a password keeps the old one.
	rec, _ = api.do(http.MethodPost, "/api/residents/login", "", map[string]string{"username": "res01", "password": "res01pass"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.do(http.MethodDelete, "/api/residents/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = api.do(http.MethodGet, "/api/residents/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, env.Code)

	rec, _ = api.do(http.MethodDelete, "/api/residents/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateResidentValidation(t *testing.T) {
	api := newTestAPI(t, memory.New())
	createResident(t, api.store, "taken", "takenpass", 0)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{name: "no name", body: map[string]any{"block": "A"}, want: http.StatusBadRequest},
		{name: "negative due", body: map[string]any{"firstName": "A", "amountDue": -5}, want: http.StatusBadRequest},
		{name: "paid with balance", body: map[string]any{"firstName": "A", "amountDue": 10, "hasPaid": true}, want: http.StatusBadRequest},
		{name: "username without password", body: map[string]any{"firstName": "A", "username": "x"}, want: http.StatusBadRequest},
		{name: "short password", body: map[string]any{"firstName": "A", "username": "x", "password": "123"}, want: http.StatusBadRequest},
		{name: "bad due date", body: map[string]any{"firstName": "A", "dueDate": "next week"}, want: http.StatusBadRequest},
		{name: "duplicate username", body: map[string]any{"firstName": "A", "username": "taken", "password": "secret1"}, want: http.StatusConflict},
		{name: "record without login", body: map[string]any{"firstName": "A", "amountDue": 0, "hasPaid": true}, want: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := api.do(http.MethodPost, "/api/residents", api.adminToken(), tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestResidentRoutesRequireAdmin(t *testing.T) {
	api := newTestAPI(t, memory.New())
	resident := createResident(t, api.store, "res01", "res01pass", 300)

	rec, env := api.do(http.MethodGet, "/api/residents", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, env.Code)

	rec, _ = api.do(http.MethodGet, "/api/residents", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	for _, token := range []string{api.securityToken(), api.residentToken(resident)} {
		rec, env = api.do(http.MethodGet, "/api/residents", token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, http.StatusForbidden, env.Code)

		rec, _ = api.do(http.MethodDelete, "/api/residents/"+resident.ID, token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	}

	_, err := api.store.GetResident(context.Background(), resident.ID)
	assert.NoError(t, err)
}

func TestPayDues(t *testing.T) {
	api := newTestAPI(t, memory.New())
	resident := createResident(t, api.store, "res01", "res01pass", 300)
	token := api.residentToken(resident)

	rec, _ := api.do(http.MethodPost, "/api/residents/payAidat", token, map[string]any{"amount": 500})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.do(http.MethodPost, "/api/residents/payAidat", token, map[string]any{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := api.do(http.MethodPost, "/api/residents/payAidat", token, map[string]any{"amount": 100})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	partial := decodeData[dto.PaymentResponse](t, env)
	assert.True(t, decimal.NewFromInt(200).Equal(partial.Resident.AmountDue))
	assert.False(t, partial.Resident.HasPaid)
	assert.Equal(t, models.TransactionPayment, partial.Transaction.Kind)
	assert.Equal(t, resident.ID, partial.Transaction.ResidentID)

	rec, env = api.do(http.MethodPost, "/api/residents/payAidat", token, map[string]any{"residentId": resident.ID, "amount": 200})
	require.Equal(t, http.StatusOK, rec.Code)
	settled := decodeData[dto.PaymentResponse](t, env)
	assert.True(t, settled.Resident.AmountDue.IsZero())
	assert.True(t, settled.Resident.HasPaid)

	rec, _ = api.do(http.MethodPost, "/api/residents/payAidat", token, map[string]any{"amount": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = api.do(http.MethodGet, "/api/residents/payments/"+resident.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeData[models.Resident](t, env).HasPaid)

	txs, err := api.store.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestAdminPaysForResident(t *testing.T) {
	api := newTestAPI(t, memory.New())
	resident := createResident(t, api.store, "res01", "res01pass", 300)

	rec, _ := api.do(http.MethodPost, "/api/residents/payAidat", api.adminToken(), map[string]any{"amount": 300})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := api.do(http.MethodPost, "/api/residents/payAidat", api.adminToken(), map[string]any{"residentId": resident.ID, "amount": 300})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeData[dto.PaymentResponse](t, env).Resident.HasPaid)

	rec, _ = api.do(http.MethodPost, "/api/residents/payAidat", api.adminToken(), map[string]any{"residentId": "missing", "amount": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = api.do(http.MethodPost, "/api/residents/payAidat", api.securityToken(), map[string]any{"residentId": resident.ID, "amount": 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestResidentCannotTouchOthers(t *testing.T) {
	api := newTestAPI(t, memory.New())
	alice := createResident(t, api.store, "alice", "alicepass", 300)
	bob := createResident(t, api.store, "bob", "bobpass", 300)
	token := api.residentToken(alice)

	rec, _ := api.do(http.MethodGet, "/api/residents/payments/"+bob.ID, token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = api.do(http.MethodPost, "/api/residents/payAidat", token, map[string]any{"residentId": bob.ID, "amount": 300})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	stored, err := api.store.GetResident(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(300).Equal(stored.AmountDue))

	rec, _ = api.do(http.MethodGet, "/api/residents/payments/"+bob.ID, api.adminToken(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDuesSummary(t *testing.T) {
	api := newTestAPI(t, memory.New())
	payer := createResident(t, api.store, "payer", "payerpass", 250)
	createResident(t, api.store, "debtor", "debtorpass", 400)
	createResident(t, api.store, "settled", "", 0)

	rec, _ := api.do(http.MethodPost, "/api/residents/payAidat", api.residentToken(payer), map[string]any{"amount": 250})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := api.do(http.MethodGet, "/api/residents/summary", api.adminToken(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeData[models.DuesSummary](t, env)
	assert.Equal(t, 3, summary.ResidentCount)
	assert.Equal(t, 2, summary.PaidCount)
	assert.Equal(t, 1, summary.UnpaidCount)
	assert.True(t, decimal.NewFromInt(250).Equal(summary.TotalPaid), summary.TotalPaid.String())
	assert.True(t, decimal.NewFromInt(400).Equal(summary.TotalUnpaid), summary.TotalUnpaid.String())
}

func TestReminders(t *testing.T) {
	api := newTestAPI(t, memory.New())
	debtor := createResident(t, api.store, "debtor", "debtorpass", 400)
	settled := createResident(t, api.store, "settled", "", 0)
	createResident(t, api.store, "other", "otherpass", 50)

	rec, env := api.do(http.MethodPost, "/api/residents/"+debtor.ID+"/reminder", api.adminToken(), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	n := decodeData[models.Notification](t, env)
	assert.Equal(t, debtor.ID, n.ResidentID)
	assert.Contains(t, n.Message, "400.00 TL")

	rec, _ = api.do(http.MethodPost, "/api/residents/"+settled.ID+"/reminder", api.adminToken(), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = api.do(http.MethodPost, "/api/residents/missing/reminder", api.adminToken(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = api.do(http.MethodPost, "/api/residents/reminders", api.adminToken(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decodeData[dto.SendNotificationResponse](t, env).Delivered)

	rec, env = api.do(http.MethodGet, "/api/notifications", api.residentToken(debtor), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]models.Notification](t, env), 2)
}

func TestResidentPaidFollowsBalance(t *testing.T) {
	api := newTestAPI(t, memory.New())
	admin := api.adminToken()

	rec, env := api.do(http.MethodPost, "/api/residents", admin, map[string]any{
		"username":  "zero",
		"password":  "zeropass",
		"firstName": "Deniz",
		"amountDue": 0,
		"hasPaid":   false,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	settled := decodeData[models.Resident](t, env)
	assert.True(t, settled.HasPaid)

	rec, env = api.do(http.MethodGet, "/api/residents/summary", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeData[models.DuesSummary](t, env)
	assert.Equal(t, 1, summary.PaidCount)
	assert.Zero(t, summary.UnpaidCount)

	rec, env = api.do(http.MethodPost, "/api/residents/payAidat", api.residentToken(settled), map[string]any{"amount": 10})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "dues already paid", env.Message)

	// PUT without hasPaid keeps a settled resident settled.
	rec, env = api.do(http.MethodPut, "/api/residents/"+settled.ID, admin, map[string]any{
		"username":  "zero",
		"firstName": "Deniz",
		"amountDue": 0,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decodeData[models.Resident](t, env).HasPaid)

	rec, env = api.do(http.MethodPut, "/api/residents/"+settled.ID, admin, map[string]any{
		"username":  "zero",
		"firstName": "Deniz",
		"amountDue": 150,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reopened := decodeData[models.Resident](t, env)
	assert.False(t, reopened.HasPaid)
	assert.True(t, decimal.NewFromInt(150).Equal(reopened.AmountDue))
}

func TestManagerResidents(t *testing.T) {
	api := newTestAPI(t, memory.New())
	first := api.token(auth.Principal{ID: "yonetici-1", Username: "ayse", Role: models.RoleAdmin})
	second := api.token(auth.Principal{ID: "yonetici-2", Username: "mehmet", Role: models.RoleAdmin})

	for _, name := range []string{"Ali", "Veli"} {
		rec, _ := api.do(http.MethodPost, "/api/residents", first, map[string]any{"firstName": name, "block": "A"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec, env := api.do(http.MethodPost, "/api/residents", second, map[string]any{"firstName": "Zeynep", "block": "C"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	zeynep := decodeData[models.Resident](t, env)
	assert.Equal(t, "yonetici-2", zeynep.ManagerID)

	rec, env = api.do(http.MethodGet, "/api/residents/yonetici-residents", first, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decodeData[[]models.Resident](t, env)
	require.Len(t, mine, 2)
	for _, r := range mine {
		assert.Equal(t, "yonetici-1", r.ManagerID)
	}

	// An update without yoneticiId keeps the link.
	rec, _ = api.do(http.MethodPut, "/api/residents/"+zeynep.ID, second, map[string]any{"firstName": "Zeynep", "block": "D"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, env = api.do(http.MethodGet, "/api/residents/yonetici-residents", second, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	theirs := decodeData[[]models.Resident](t, env)
	require.Len(t, theirs, 1)
	assert.Equal(t, "D", theirs[0].Block)

	rec, _ = api.do(http.MethodGet, "/api/residents/yonetici-residents", api.securityToken(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
