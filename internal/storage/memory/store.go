// Package memory keeps every collection in process memory. It backs the handler tests and
// STORAGE_DRIVER=memory for local runs; nothing survives a restart.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/aparthus-be/internal/models"
	"github.com/hongminglow/aparthus-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store is a mutex-guarded set of ordered collections.
type Store struct {
	mu sync.RWMutex

	users         []models.User
	residents     []models.Resident
	expenses      []models.Expense
	transactions  []models.Transaction
	announcements []models.Announcement
	issues        []models.Issue
	emergencies   []models.EmergencyReport
	visitors      []models.Visitor
	notifications []models.Notification

	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{now: time.Now}
}

// Close is a no-op kept for the storage.Store contract.
func (s *Store) Close() {}

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username || (user.Email != "" && strings.EqualFold(existing.Email, user.Email)) {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	if user.ID == "" {
		user.ID = storage.NewID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}
	s.users = append(s.users, user)
	return user, nil
}

func (s *Store) FindUserByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) FindByUsernameOrEmail(_ context.Context, identifier string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == identifier || (user.Email != "" && strings.EqualFold(user.Email, identifier)) {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) CreateResident(_ context.Context, resident models.Resident) (models.Resident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if resident.Username != "" {
		for _, existing := range s.residents {
			if existing.Username == resident.Username {
				return models.Resident{}, storage.ErrAlreadyExists
			}
		}
	}
	if resident.ID == "" {
		resident.ID = storage.NewID()
	}
	now := s.now().UTC()
	resident.Role = models.RoleResident
	resident.CreatedAt = now
	resident.UpdatedAt = now
	s.residents = append(s.residents, resident)
	return resident, nil
}

func (s *Store) ListResidents(_ context.Context) ([]models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Resident{}, s.residents...), nil
}

func (s *Store) ListResidentsByManager(_ context.Context, managerID string) ([]models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Resident{}
	for _, resident := range s.residents {
		if managerID != "" && resident.ManagerID == managerID {
			out = append(out, resident)
		}
	}
	return out, nil
}

func (s *Store) GetResident(_ context.Context, id string) (models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.residentIndex(id); i >= 0 {
		return s.residents[i], nil
	}
	return models.Resident{}, storage.ErrNotFound
}

func (s *Store) FindResidentByUsername(_ context.Context, username string) (models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, resident := range s.residents {
		if resident.Username != "" && resident.Username == username {
			return resident, nil
		}
	}
	return models.Resident{}, storage.ErrNotFound
}

func (s *Store) UpdateResident(_ context.Context, resident models.Resident) (models.Resident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.residentIndex(resident.ID)
	if i < 0 {
		return models.Resident{}, storage.ErrNotFound
	}
	for j, existing := range s.residents {
		if j != i && resident.Username != "" && existing.Username == resident.Username {
			return models.Resident{}, storage.ErrAlreadyExists
		}
	}
	current := s.residents[i]
	resident.Role = models.RoleResident
	resident.CreatedAt = current.CreatedAt
	resident.UpdatedAt = s.now().UTC()
	if resident.PasswordHash == "" {
		resident.PasswordHash = current.PasswordHash
	}
	if resident.ManagerID == "" {
		resident.ManagerID = current.ManagerID
	}
	s.residents[i] = resident
	return resident, nil
}

func (s *Store) DeleteResident(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.residentIndex(id)
	if i < 0 {
		return storage.ErrNotFound
	}
	s.residents = append(s.residents[:i], s.residents[i+1:]...)
	return nil
}

func (s *Store) ApplyPayment(_ context.Context, residentID string, amount decimal.Decimal, tx models.Transaction) (models.Resident, models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.residentIndex(residentID)
	if i < 0 {
		return models.Resident{}, models.Transaction{}, storage.ErrNotFound
	}
	resident := s.residents[i]
	if resident.HasPaid || resident.AmountDue.IsZero() {
		return models.Resident{}, models.Transaction{}, storage.ErrAlreadyPaid
	}
	if amount.GreaterThan(resident.AmountDue) {
		return models.Resident{}, models.Transaction{}, storage.ErrInsufficientDue
	}
	if tx.ID != "" && s.transactionIndex(tx.ID) >= 0 {
		return models.Resident{}, models.Transaction{}, storage.ErrAlreadyExists
	}
	now := s.now().UTC()
	resident.AmountDue = resident.AmountDue.Sub(amount)
	resident.HasPaid = resident.AmountDue.IsZero()
	resident.UpdatedAt = now
	s.residents[i] = resident

	tx = paymentTransaction(tx, residentID, amount, now)
	s.transactions = append(s.transactions, tx)
	return resident, tx, nil
}

func (s *Store) residentIndex(id string) int {
	for i, resident := range s.residents {
		if resident.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) CreateExpense(_ context.Context, expense models.Expense) (models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if expense.ID == "" {
		expense.ID = storage.NewID()
	}
	expense.CreatedAt = s.now().UTC()
	if expense.Date.IsZero() {
		expense.Date = expense.CreatedAt
	}
	s.expenses = append(s.expenses, expense)
	return expense, nil
}

func (s *Store) ListExpenses(_ context.Context) ([]models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Expense{}, s.expenses...), nil
}

func (s *Store) CreateTransaction(_ context.Context, tx models.Transaction) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.ID == "" {
		tx.ID = storage.NewID()
	}
	if tx.Date.IsZero() {
		tx.Date = s.now().UTC()
	}
	if tx.Kind == "" {
		tx.Kind = models.TransactionManual
	}
	if s.transactionIndex(tx.ID) >= 0 {
		return models.Transaction{}, storage.ErrAlreadyExists
	}
	s.transactions = append(s.transactions, tx)
	return tx, nil
}

func (s *Store) transactionIndex(id string) int {
	for i, tx := range s.transactions {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) ListTransactions(_ context.Context) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Transaction{}, s.transactions...), nil
}

func (s *Store) CreateAnnouncement(_ context.Context, a models.Announcement) (models.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = storage.NewID()
	}
	a.CreatedAt = s.now().UTC()
	if a.ScheduledAt.IsZero() {
		a.ScheduledAt = a.CreatedAt
	}
	s.announcements = append(s.announcements, a)
	return a, nil
}

func (s *Store) ListAnnouncements(_ context.Context, block string) ([]models.Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Announcement, 0, len(s.announcements))
	for _, a := range s.announcements {
		if block == "" || strings.EqualFold(a.Block, block) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) CreateIssue(_ context.Context, issue models.Issue) (models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if issue.ID == "" {
		issue.ID = storage.NewID()
	}
	if issue.Status == "" {
		issue.Status = models.IssueOpen
	}
	issue.CreatedAt = s.now().UTC()
	s.issues = append(s.issues, issue)
	return issue, nil
}

func (s *Store) ListIssues(_ context.Context) ([]models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Issue{}, s.issues...), nil
}

func (s *Store) CreateEmergencyReport(_ context.Context, report models.EmergencyReport) (models.EmergencyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if report.ID == "" {
		report.ID = storage.NewID()
	}
	report.CreatedAt = s.now().UTC()
	s.emergencies = append(s.emergencies, report)
	return report, nil
}

func (s *Store) ListEmergencyReports(_ context.Context) ([]models.EmergencyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.EmergencyReport{}, s.emergencies...), nil
}

func (s *Store) SaveVisitor(_ context.Context, v models.Visitor) (models.Visitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.visitors {
		if existing.QRCode == v.QRCode {
			return models.Visitor{}, storage.ErrAlreadyExists
		}
	}
	if v.ID == "" {
		v.ID = storage.NewID()
	}
	v.RegisteredAt = s.now().UTC()
	v.EnteredAt = nil
	s.visitors = append(s.visitors, v)
	return v, nil
}

func (s *Store) FindVisitorByCode(_ context.Context, code string) (models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.visitors {
		if v.QRCode == code {
			return v, nil
		}
	}
	return models.Visitor{}, storage.ErrNotFound
}

func (s *Store) MarkVisitorEntered(_ context.Context, code string, at time.Time) (models.Visitor, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range s.visitors {
		if v.QRCode != code {
			continue
		}
		if v.EnteredAt != nil {
			return v, true, nil
		}
		entered := at.UTC()
		v.EnteredAt = &entered
		s.visitors[i] = v
		return v, false, nil
	}
	return models.Visitor{}, false, storage.ErrNotFound
}

func (s *Store) CreateNotification(_ context.Context, n models.Notification) (models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		n.ID = storage.NewID()
	}
	n.CreatedAt = s.now().UTC()
	s.notifications = append(s.notifications, n)
	return n, nil
}

func (s *Store) ListNotifications(_ context.Context, residentID string) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, 0)
	for _, n := range s.notifications {
		if n.ResidentID == residentID {
			out = append(out, n)
		}
	}
	return out, nil
}

func paymentTransaction(tx models.Transaction, residentID string, amount decimal.Decimal, at time.Time) models.Transaction {
	if tx.ID == "" {
		tx.ID = storage.NewID()
	}
	tx.ResidentID = residentID
	tx.Amount = amount
	tx.Kind = models.TransactionPayment
	if tx.Date.IsZero() {
		tx.Date = at
	}
	return tx
}
