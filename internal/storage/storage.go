package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/aparthus-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrAlreadyPaid indicates a payment against a resident whose dues are settled.
var ErrAlreadyPaid = errors.New("dues already paid")

// ErrInsufficientDue indicates a payment larger than the outstanding amount.
var ErrInsufficientDue = errors.New("payment exceeds amount due")

// UserStore persists staff identities.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, identifier string) (models.User, error)
}

// ResidentStore persists resident records and their dues.
type ResidentStore interface {
	CreateResident(ctx context.Context, resident models.Resident) (models.Resident, error)
	ListResidents(ctx context.Context) ([]models.Resident, error)
	// ListResidentsByManager returns the residents linked to one site manager.
	ListResidentsByManager(ctx context.Context, managerID string) ([]models.Resident, error)
	GetResident(ctx context.Context, id string) (models.Resident, error)
	FindResidentByUsername(ctx context.Context, username string) (models.Resident, error)
	// UpdateResident replaces the record, keeping the password hash and manager link when
	// the update leaves them empty.
	UpdateResident(ctx context.Context, resident models.Resident) (models.Resident, error)
	DeleteResident(ctx context.Context, id string) error
	// ApplyPayment lowers the resident's amount due and records the payment transaction
	// as one unit; hasPaid flips once the amount due reaches zero.
	ApplyPayment(ctx context.Context, residentID string, amount decimal.Decimal, tx models.Transaction) (models.Resident, models.Transaction, error)
}

type ExpenseStore interface {
	CreateExpense(ctx context.Context, expense models.Expense) (models.Expense, error)
	ListExpenses(ctx context.Context) ([]models.Expense, error)
}

type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
}

type AnnouncementStore interface {
	CreateAnnouncement(ctx context.Context, a models.Announcement) (models.Announcement, error)
	// ListAnnouncements returns every announcement when block is empty.
	ListAnnouncements(ctx context.Context, block string) ([]models.Announcement, error)
}

type IssueStore interface {
	CreateIssue(ctx context.Context, issue models.Issue) (models.Issue, error)
	ListIssues(ctx context.Context) ([]models.Issue, error)
}

type EmergencyStore interface {
	CreateEmergencyReport(ctx context.Context, report models.EmergencyReport) (models.EmergencyReport, error)
	ListEmergencyReports(ctx context.Context) ([]models.EmergencyReport, error)
}

// VisitorStore persists QR-registered visitors.
type VisitorStore interface {
	SaveVisitor(ctx context.Context, v models.Visitor) (models.Visitor, error)
	FindVisitorByCode(ctx context.Context, code string) (models.Visitor, error)
	// MarkVisitorEntered records the first entry; later calls report alreadyEntered.
	MarkVisitorEntered(ctx context.Context, code string, at time.Time) (v models.Visitor, alreadyEntered bool, err error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)
	ListNotifications(ctx context.Context, residentID string) ([]models.Notification, error)
}

// Store is the full persistence surface used by the server.
type Store interface {
	UserStore
	ResidentStore
	ExpenseStore
	TransactionStore
	AnnouncementStore
	IssueStore
	EmergencyStore
	VisitorStore
	NotificationStore
	Close()
}

// NewID returns a fresh record identifier shared by every backend.
func NewID() string {
	return uuid.NewString()
}
