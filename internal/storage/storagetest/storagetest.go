// Package storagetest holds behaviour every storage.Store backend must share.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/aparthus-be/internal/models"
	"github.com/hongminglow/aparthus-be/internal/storage"
)

// Run exercises store against the shared contract. Usernames and codes are suffixed so
// the suite can run against a database that already holds data.
func Run(t *testing.T, store storage.Store) {
	t.Helper()
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())

	t.Run("users", func(t *testing.T) { users(t, store, suffix) })
	t.Run("residents", func(t *testing.T) { residents(t, store, suffix) })
	t.Run("managers", func(t *testing.T) { managers(t, store, suffix) })
	t.Run("payments", func(t *testing.T) { payments(t, store, suffix) })
	t.Run("failed payment keeps balance", func(t *testing.T) { failedPayment(t, store, suffix) })
	t.Run("visitors", func(t *testing.T) { visitors(t, store, suffix) })
	t.Run("announcements", func(t *testing.T) { announcements(t, store, suffix) })
	t.Run("notifications", func(t *testing.T) { notifications(t, store, suffix) })
}

func users(t *testing.T, store storage.Store, suffix string) {
	ctx := context.Background()
	created, err := store.CreateUser(ctx, models.User{
		Username:     "admin_" + suffix,
		Email:        "admin_" + suffix + "@site.com",
		Role:         models.RoleAdmin,
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	byEmail, err := store.FindByUsernameOrEmail(ctx, "ADMIN_"+suffix+"@site.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	assert.Equal(t, models.RoleAdmin, byEmail.Role)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	_, err = store.CreateUser(ctx, models.User{Username: "admin_" + suffix, Role: models.RoleAdmin})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	_, err = store.FindUserByID(ctx, storage.NewID())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func residents(t *testing.T, store storage.Store, suffix string) {
	ctx := context.Background()
	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	created, err := store.CreateResident(ctx, models.Resident{
		Username:        "res_" + suffix,
		PasswordHash:    "hash",
		FirstName:       "Ali",
		LastName:        "Yilmaz",
		Block:           "A",
		ApartmentNumber: 12,
		AmountDue:       decimal.RequireFromString("300.50"),
		DueDate:         due,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleResident, created.Role)

	got, err := store.GetResident(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.AmountDue.Equal(decimal.RequireFromString("300.50")))
	assert.True(t, got.DueDate.Equal(due))

	got.FirstName = "Veli"
	got.PasswordHash = ""
	updated, err := store.UpdateResident(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Veli", updated.FirstName)

	byName, err := store.FindResidentByUsername(ctx, "res_"+suffix)
	require.NoError(t, err)
	assert.Equal(t, "hash", byName.PasswordHash)

	list, err := store.ListResidents(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	require.NoError(t, store.DeleteResident(ctx, created.ID))
	assert.ErrorIs(t, store.DeleteResident(ctx, created.ID), storage.ErrNotFound)
}

func managers(t *testing.T, store storage.Store, suffix string) {
	ctx := context.Background()
	due := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	manager, err := store.CreateUser(ctx, models.User{
		Username:     "yonetici_" + suffix,
		Role:         models.RoleAdmin,
		PasswordHash: "hash",
		FirstName:    "Ayse",
		LastName:     "Demir",
		SiteName:     "Gul Sitesi " + suffix,
		DueAmount:    decimal.RequireFromString("450.00"),
		DueDate:      due,
		IBAN:         "TR330006100519786457841326",
	})
	require.NoError(t, err)

	got, err := store.FindUserByID(ctx, manager.ID)
	require.NoError(t, err)
	assert.True(t, got.ManagesSite())
	assert.Equal(t, "Gul Sitesi "+suffix, got.SiteName)
	assert.True(t, got.DueAmount.Equal(decimal.RequireFromString("450")))
	assert.True(t, got.DueDate.Equal(due))
	assert.Equal(t, "TR330006100519786457841326", got.IBAN)

	linked, err := store.CreateResident(ctx, models.Resident{Username: "linked_" + suffix, FirstName: "Can", ManagerID: manager.ID})
	require.NoError(t, err)
	_, err = store.CreateResident(ctx, models.Resident{Username: "other_" + suffix, FirstName: "Ece"})
	require.NoError(t, err)

	list, err := store.ListResidentsByManager(ctx, manager.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, linked.ID, list[0].ID)
	assert.Equal(t, manager.ID, list[0].ManagerID)

	linked.ManagerID = ""
	linked.FirstName = "Cem"
	updated, err := store.UpdateResident(ctx, linked)
	require.NoError(t, err)
	assert.Equal(t, manager.ID, updated.ManagerID)

	none, err := store.ListResidentsByManager(ctx, storage.NewID())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func payments(t *testing.T, store storage.Store, suffix string) {
	ctx := context.Background()
	r, err := store.CreateResident(ctx, models.Resident{
		Username:  "payer_" + suffix,
		AmountDue: decimal.NewFromInt(300),
	})
	require.NoError(t, err)

	_, _, err = store.ApplyPayment(ctx, r.ID, decimal.NewFromInt(400), models.Transaction{})
	require.ErrorIs(t, err, storage.ErrInsufficientDue)

	partial, tx, err := store.ApplyPayment(ctx, r.ID, decimal.NewFromInt(100), models.Transaction{Description: "aidat"})
	require.NoError(t, err)
	assert.True(t, partial.AmountDue.Equal(decimal.NewFromInt(200)))
	assert.False(t, partial.HasPaid)
	assert.Equal(t, models.TransactionPayment, tx.Kind)

	settled, _, err := store.ApplyPayment(ctx, r.ID, decimal.NewFromInt(200), models.Transaction{Description: "aidat"})
	require.NoError(t, err)
	assert.True(t, settled.HasPaid)
	assert.True(t, settled.AmountDue.IsZero())

	_, _, err = store.ApplyPayment(ctx, r.ID, decimal.NewFromInt(1), models.Transaction{})
	assert.ErrorIs(t, err, storage.ErrAlreadyPaid)

	txs, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	var mine int
	for _, tx := range txs {
		if tx.ResidentID == r.ID {
			mine++
		}
	}
	assert.Equal(t, 2, mine)
}

// failedPayment makes the transaction insert fail by reusing a recorded id; the balance must
// stay where it was and no second record may appear.
func failedPayment(t *testing.T, store storage.Store, suffix string) {
	ctx := context.Background()
	r, err := store.CreateResident(ctx, models.Resident{
		Username:  "retry_" + suffix,
		AmountDue: decimal.NewFromInt(300),
	})
	require.NoError(t, err)

	_, first, err := store.ApplyPayment(ctx, r.ID, decimal.NewFromInt(100), models.Transaction{})
	require.NoError(t, err)

	_, _, err = store.ApplyPayment(ctx, r.ID, decimal.NewFromInt(50), models.Transaction{ID: first.ID})
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	got, err := store.GetResident(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, got.AmountDue.Equal(decimal.NewFromInt(200)), got.AmountDue.String())
	assert.False(t, got.HasPaid)

	txs, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	var mine int
	for _, tx := range txs {
		if tx.ResidentID == r.ID {
			mine++
		}
	}
	assert.Equal(t, 1, mine)
}

func visitors(t *testing.T, store storage.Store, suffix string) {
	ctx := context.Background()
	code := "qr-" + suffix
	_, err := store.SaveVisitor(ctx, models.Visitor{QRCode: code, VisitorName: "Mehmet"})
	require.NoError(t, err)
	_, err = store.SaveVisitor(ctx, models.Visitor{QRCode: code})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	at := time.Now().UTC().Truncate(time.Second)
	v, already, err := store.MarkVisitorEntered(ctx, code, at)
	require.NoError(t, err)
	assert.False(t, already)
	require.NotNil(t, v.EnteredAt)

	_, already, err = store.MarkVisitorEntered(ctx, code, at)
	require.NoError(t, err)
	assert.True(t, already)

	_, _, err = store.MarkVisitorEntered(ctx, "missing-"+suffix, at)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func announcements(t *testing.T, store storage.Store, suffix string) {
	ctx := context.Background()
	block := "blk-" + suffix
	_, err := store.CreateAnnouncement(ctx, models.Announcement{Message: "asansor bakimi", Block: block})
	require.NoError(t, err)

	list, err := store.ListAnnouncements(ctx, block)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "asansor bakimi", list[0].Message)
	assert.False(t, list[0].ScheduledAt.IsZero())
}

func notifications(t *testing.T, store storage.Store, suffix string) {
	ctx := context.Background()
	resident := "resident-" + suffix
	_, err := store.CreateNotification(ctx, models.Notification{ResidentID: resident, Message: "aidat hatirlatma"})
	require.NoError(t, err)

	list, err := store.ListNotifications(ctx, resident)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Read)

	empty, err := store.ListNotifications(ctx, "nobody-"+suffix)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
