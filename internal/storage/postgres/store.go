package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hongminglow/aparthus-be/internal/models"
	"github.com/hongminglow/aparthus-be/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides Postgres-backed persistence for every collection.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`ALTER TABLE users
			ADD COLUMN IF NOT EXISTS first_name TEXT NOT NULL DEFAULT '',
			ADD COLUMN IF NOT EXISTS last_name TEXT NOT NULL DEFAULT '',
			ADD COLUMN IF NOT EXISTS site_name TEXT NOT NULL DEFAULT '',
			ADD COLUMN IF NOT EXISTS block TEXT NOT NULL DEFAULT '',
			ADD COLUMN IF NOT EXISTS due_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			ADD COLUMN IF NOT EXISTS due_date TIMESTAMPTZ,
			ADD COLUMN IF NOT EXISTS iban TEXT NOT NULL DEFAULT '';`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_unique_idx ON users (lower(email)) WHERE email <> '';`,
		`CREATE TABLE IF NOT EXISTS residents (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			contact_number TEXT NOT NULL DEFAULT '',
			site_name TEXT NOT NULL DEFAULT '',
			block TEXT NOT NULL DEFAULT '',
			apartment_number INTEGER NOT NULL DEFAULT 0,
			amount_due NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (amount_due >= 0),
			has_paid BOOLEAN NOT NULL DEFAULT FALSE,
			due_date TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`ALTER TABLE residents ADD COLUMN IF NOT EXISTS manager_id TEXT NOT NULL DEFAULT '';`,
		`CREATE UNIQUE INDEX IF NOT EXISTS residents_username_unique_idx ON residents (username) WHERE username <> '';`,
		`CREATE INDEX IF NOT EXISTS residents_manager_idx ON residents (manager_id) WHERE manager_id <> '';`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			amount NUMERIC(12,2) NOT NULL,
			date TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			resident_id TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			amount NUMERIC(12,2) NOT NULL,
			kind TEXT NOT NULL DEFAULT 'manual',
			date TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS announcements (
			id TEXT PRIMARY KEY,
			message TEXT NOT NULL,
			block TEXT NOT NULL DEFAULT '',
			scheduled_at TIMESTAMPTZ NOT NULL,
			media_url TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS issues (
			id TEXT PRIMARY KEY,
			resident_id TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS emergency_reports (
			id TEXT PRIMARY KEY,
			resident_id TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			priority TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS visitors (
			id TEXT PRIMARY KEY,
			qr_code TEXT UNIQUE NOT NULL,
			visitor_name TEXT NOT NULL DEFAULT '',
			resident_id TEXT NOT NULL DEFAULT '',
			purpose TEXT NOT NULL DEFAULT '',
			registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			entered_at TIMESTAMPTZ
		);`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			resident_id TEXT NOT NULL,
			message TEXT NOT NULL,
			read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS notifications_resident_idx ON notifications (resident_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

const userColumns = `id, username, email, phone, role, password_hash, first_name, last_name,
	site_name, block, due_amount, due_date, iban, created_at`

// CreateUser inserts a new staff user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == "" {
		user.ID = storage.NewID()
	}
	const query = `
		INSERT INTO users (id, username, email, phone, role, password_hash, first_name, last_name,
			site_name, block, due_amount, due_date, iban)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, query, user.ID, user.Username, user.Email, user.Phone, string(user.Role), user.PasswordHash,
		user.FirstName, user.LastName, user.SiteName, user.Block, user.DueAmount, nullableTime(user.DueDate), user.IBAN)
	created, err := scanUser(row)
	if err != nil {
		return models.User{}, mapWriteErr(err)
	}
	return created, nil
}

// FindUserByID fetches a user by primary key.
func (s *Store) FindUserByID(ctx context.Context, id string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByUsernameOrEmail fetches the first user matching the identifier as username or email.
func (s *Store) FindByUsernameOrEmail(ctx context.Context, identifier string) (models.User, error) {
	const query = `
	SELECT ` + userColumns + `
	FROM users
	WHERE username = $1 OR (email <> '' AND lower(email) = lower($1))
	LIMIT 1;
	`
	row := s.pool.QueryRow(ctx, query, identifier)
	return scanUser(row)
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	var role string
	var dueDate *time.Time
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Phone, &role, &user.PasswordHash, &user.FirstName,
		&user.LastName, &user.SiteName, &user.Block, &user.DueAmount, &dueDate, &user.IBAN, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	parsed, err := models.ParseRole(role)
	if err != nil {
		return models.User{}, fmt.Errorf("user %s: %w", user.ID, err)
	}
	user.Role = parsed
	if dueDate != nil {
		user.DueDate = *dueDate
	}
	return user, nil
}

const residentColumns = `id, username, password_hash, first_name, last_name, email, contact_number,
	site_name, block, apartment_number, amount_due, has_paid, due_date, manager_id, created_at, updated_at`

// CreateResident inserts a resident row.
func (s *Store) CreateResident(ctx context.Context, r models.Resident) (models.Resident, error) {
	if r.ID == "" {
		r.ID = storage.NewID()
	}
	const query = `
		INSERT INTO residents (id, username, password_hash, first_name, last_name, email, contact_number,
			site_name, block, apartment_number, amount_due, has_paid, due_date, manager_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + residentColumns
	row := s.pool.QueryRow(ctx, query, r.ID, r.Username, r.PasswordHash, r.FirstName, r.LastName, r.Email,
		r.ContactNumber, r.SiteName, r.Block, r.ApartmentNumber, r.AmountDue, r.HasPaid, nullableTime(r.DueDate), r.ManagerID)
	created, err := scanResident(row)
	if err != nil {
		return models.Resident{}, mapWriteErr(err)
	}
	return created, nil
}

// ListResidents returns every resident in creation order.
func (s *Store) ListResidents(ctx context.Context) ([]models.Resident, error) {
	return s.queryResidents(ctx, `SELECT `+residentColumns+` FROM residents ORDER BY created_at, id`)
}

// ListResidentsByManager returns a manager's residents in creation order.
func (s *Store) ListResidentsByManager(ctx context.Context, managerID string) ([]models.Resident, error) {
	return s.queryResidents(ctx, `SELECT `+residentColumns+` FROM residents
		WHERE manager_id <> '' AND manager_id = $1 ORDER BY created_at, id`, managerID)
}

func (s *Store) queryResidents(ctx context.Context, query string, args ...any) ([]models.Resident, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Resident, 0)
	for rows.Next() {
		r, err := scanResident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetResident fetches a resident by id.
func (s *Store) GetResident(ctx context.Context, id string) (models.Resident, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+residentColumns+` FROM residents WHERE id = $1`, id)
	return scanResident(row)
}

// FindResidentByUsername fetches a resident by login name.
func (s *Store) FindResidentByUsername(ctx context.Context, username string) (models.Resident, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+residentColumns+` FROM residents WHERE username <> '' AND username = $1`, username)
	return scanResident(row)
}

// UpdateResident overwrites the mutable resident fields. An empty password hash or manager id
// keeps the stored one.
func (s *Store) UpdateResident(ctx context.Context, r models.Resident) (models.Resident, error) {
	const query = `
		UPDATE residents SET
			username = $2,
			password_hash = CASE WHEN $3 = '' THEN password_hash ELSE $3 END,
			first_name = $4, last_name = $5, email = $6, contact_number = $7,
			site_name = $8, block = $9, apartment_number = $10,
			amount_due = $11, has_paid = $12, due_date = $13,
			manager_id = CASE WHEN $14 = '' THEN manager_id ELSE $14 END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + residentColumns
	row := s.pool.QueryRow(ctx, query, r.ID, r.Username, r.PasswordHash, r.FirstName, r.LastName, r.Email,
		r.ContactNumber, r.SiteName, r.Block, r.ApartmentNumber, r.AmountDue, r.HasPaid, nullableTime(r.DueDate), r.ManagerID)
	updated, err := scanResident(row)
	if err != nil {
		return models.Resident{}, mapWriteErr(err)
	}
	return updated, nil
}

// DeleteResident removes a resident row.
func (s *Store) DeleteResident(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM residents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ApplyPayment locks the resident row, lowers amount_due and inserts the payment transaction
// in one database transaction.
func (s *Store) ApplyPayment(ctx context.Context, residentID string, amount decimal.Decimal, t models.Transaction) (models.Resident, models.Transaction, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Resident{}, models.Transaction{}, fmt.Errorf("begin payment: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanResident(tx.QueryRow(ctx, `SELECT `+residentColumns+` FROM residents WHERE id = $1 FOR UPDATE`, residentID))
	if err != nil {
		return models.Resident{}, models.Transaction{}, err
	}
	if current.HasPaid || current.AmountDue.IsZero() {
		return models.Resident{}, models.Transaction{}, storage.ErrAlreadyPaid
	}
	if amount.GreaterThan(current.AmountDue) {
		return models.Resident{}, models.Transaction{}, storage.ErrInsufficientDue
	}
	remaining := current.AmountDue.Sub(amount)

	updated, err := scanResident(tx.QueryRow(ctx, `
		UPDATE residents SET amount_due = $2, has_paid = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+residentColumns, residentID, remaining, remaining.IsZero()))
	if err != nil {
		return models.Resident{}, models.Transaction{}, err
	}

	if t.ID == "" {
		t.ID = storage.NewID()
	}
	if t.Date.IsZero() {
		t.Date = time.Now().UTC()
	}
	t.ResidentID = residentID
	t.Amount = amount
	t.Kind = models.TransactionPayment
	recorded, err := scanTransaction(tx.QueryRow(ctx, insertTransaction, t.ID, t.ResidentID, t.Description, t.Amount, string(t.Kind), t.Date))
	if err != nil {
		return models.Resident{}, models.Transaction{}, fmt.Errorf("record payment transaction: %w", mapWriteErr(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Resident{}, models.Transaction{}, fmt.Errorf("commit payment: %w", err)
	}
	return updated, recorded, nil
}

func scanResident(row pgx.Row) (models.Resident, error) {
	var r models.Resident
	var dueDate *time.Time
	if err := row.Scan(&r.ID, &r.Username, &r.PasswordHash, &r.FirstName, &r.LastName, &r.Email, &r.ContactNumber,
		&r.SiteName, &r.Block, &r.ApartmentNumber, &r.AmountDue, &r.HasPaid, &dueDate, &r.ManagerID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Resident{}, storage.ErrNotFound
		}
		return models.Resident{}, err
	}
	r.Role = models.RoleResident
	if dueDate != nil {
		r.DueDate = *dueDate
	}
	return r, nil
}

// CreateExpense appends an expense.
func (s *Store) CreateExpense(ctx context.Context, e models.Expense) (models.Expense, error) {
	if e.ID == "" {
		e.ID = storage.NewID()
	}
	if e.Date.IsZero() {
		e.Date = time.Now().UTC()
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO expenses (id, description, amount, date) VALUES ($1, $2, $3, $4)
		RETURNING id, description, amount, date, created_at`, e.ID, e.Description, e.Amount, e.Date)
	var out models.Expense
	if err := row.Scan(&out.ID, &out.Description, &out.Amount, &out.Date, &out.CreatedAt); err != nil {
		return models.Expense{}, mapWriteErr(err)
	}
	return out, nil
}

// ListExpenses returns the ledger oldest first.
func (s *Store) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, description, amount, date, created_at FROM expenses ORDER BY date, created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]models.Expense, 0)
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.Description, &e.Amount, &e.Date, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const insertTransaction = `
	INSERT INTO transactions (id, resident_id, description, amount, kind, date)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, resident_id, description, amount, kind, date`

// CreateTransaction records a bank movement.
func (s *Store) CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if t.ID == "" {
		t.ID = storage.NewID()
	}
	if t.Date.IsZero() {
		t.Date = time.Now().UTC()
	}
	if t.Kind == "" {
		t.Kind = models.TransactionManual
	}
	out, err := scanTransaction(s.pool.QueryRow(ctx, insertTransaction, t.ID, t.ResidentID, t.Description, t.Amount, string(t.Kind), t.Date))
	if err != nil {
		return models.Transaction{}, mapWriteErr(err)
	}
	return out, nil
}

// ListTransactions returns bank movements oldest first.
func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, resident_id, description, amount, kind, date FROM transactions ORDER BY date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]models.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var t models.Transaction
	var kind string
	if err := row.Scan(&t.ID, &t.ResidentID, &t.Description, &t.Amount, &kind, &t.Date); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Transaction{}, storage.ErrNotFound
		}
		return models.Transaction{}, err
	}
	t.Kind = models.TransactionKind(kind)
	return t, nil
}

// CreateAnnouncement stores an announcement.
func (s *Store) CreateAnnouncement(ctx context.Context, a models.Announcement) (models.Announcement, error) {
	if a.ID == "" {
		a.ID = storage.NewID()
	}
	if a.ScheduledAt.IsZero() {
		a.ScheduledAt = time.Now().UTC()
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO announcements (id, message, block, scheduled_at, media_url, author)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, message, block, scheduled_at, media_url, author, created_at`,
		a.ID, a.Message, a.Block, a.ScheduledAt, a.MediaURL, a.Author)
	out, err := scanAnnouncement(row)
	if err != nil {
		return models.Announcement{}, mapWriteErr(err)
	}
	return out, nil
}

// ListAnnouncements returns announcements newest schedule first, optionally for one block.
func (s *Store) ListAnnouncements(ctx context.Context, block string) ([]models.Announcement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, message, block, scheduled_at, media_url, author, created_at
		FROM announcements
		WHERE $1 = '' OR lower(block) = lower($1)
		ORDER BY scheduled_at DESC`, block)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]models.Announcement, 0)
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAnnouncement(row pgx.Row) (models.Announcement, error) {
	var a models.Announcement
	if err := row.Scan(&a.ID, &a.Message, &a.Block, &a.ScheduledAt, &a.MediaURL, &a.Author, &a.CreatedAt); err != nil {
		return models.Announcement{}, err
	}
	return a, nil
}

// CreateIssue stores a reported issue.
func (s *Store) CreateIssue(ctx context.Context, issue models.Issue) (models.Issue, error) {
	if issue.ID == "" {
		issue.ID = storage.NewID()
	}
	if issue.Status == "" {
		issue.Status = models.IssueOpen
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO issues (id, resident_id, description, status) VALUES ($1, $2, $3, $4)
		RETURNING id, resident_id, description, status, created_at`,
		issue.ID, issue.ResidentID, issue.Description, issue.Status)
	var out models.Issue
	if err := row.Scan(&out.ID, &out.ResidentID, &out.Description, &out.Status, &out.CreatedAt); err != nil {
		return models.Issue{}, mapWriteErr(err)
	}
	return out, nil
}

// ListIssues returns issues newest first.
func (s *Store) ListIssues(ctx context.Context) ([]models.Issue, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, resident_id, description, status, created_at FROM issues ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]models.Issue, 0)
	for rows.Next() {
		var i models.Issue
		if err := rows.Scan(&i.ID, &i.ResidentID, &i.Description, &i.Status, &i.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// CreateEmergencyReport stores an emergency report.
func (s *Store) CreateEmergencyReport(ctx context.Context, r models.EmergencyReport) (models.EmergencyReport, error) {
	if r.ID == "" {
		r.ID = storage.NewID()
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO emergency_reports (id, resident_id, type, priority, description) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, resident_id, type, priority, description, created_at`,
		r.ID, r.ResidentID, r.Type, r.Priority, r.Description)
	var out models.EmergencyReport
	if err := row.Scan(&out.ID, &out.ResidentID, &out.Type, &out.Priority, &out.Description, &out.CreatedAt); err != nil {
		return models.EmergencyReport{}, mapWriteErr(err)
	}
	return out, nil
}

// ListEmergencyReports returns reports newest first.
func (s *Store) ListEmergencyReports(ctx context.Context) ([]models.EmergencyReport, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, resident_id, type, priority, description, created_at FROM emergency_reports ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]models.EmergencyReport, 0)
	for rows.Next() {
		var r models.EmergencyReport
		if err := rows.Scan(&r.ID, &r.ResidentID, &r.Type, &r.Priority, &r.Description, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const visitorColumns = `id, qr_code, visitor_name, resident_id, purpose, registered_at, entered_at`

// SaveVisitor registers a visitor QR code.
func (s *Store) SaveVisitor(ctx context.Context, v models.Visitor) (models.Visitor, error) {
	if v.ID == "" {
		v.ID = storage.NewID()
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO visitors (id, qr_code, visitor_name, resident_id, purpose) VALUES ($1, $2, $3, $4, $5)
		RETURNING `+visitorColumns, v.ID, v.QRCode, v.VisitorName, v.ResidentID, v.Purpose)
	out, err := scanVisitor(row)
	if err != nil {
		return models.Visitor{}, mapWriteErr(err)
	}
	return out, nil
}

// FindVisitorByCode fetches a visitor by QR code.
func (s *Store) FindVisitorByCode(ctx context.Context, code string) (models.Visitor, error) {
	return scanVisitor(s.pool.QueryRow(ctx, `SELECT `+visitorColumns+` FROM visitors WHERE qr_code = $1`, code))
}

// MarkVisitorEntered sets entered_at once; a second call reports the earlier entry.
func (s *Store) MarkVisitorEntered(ctx context.Context, code string, at time.Time) (models.Visitor, bool, error) {
	v, err := scanVisitor(s.pool.QueryRow(ctx, `
		UPDATE visitors SET entered_at = $2
		WHERE qr_code = $1 AND entered_at IS NULL
		RETURNING `+visitorColumns, code, at.UTC()))
	if err == nil {
		return v, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.Visitor{}, false, err
	}
	existing, err := s.FindVisitorByCode(ctx, code)
	if err != nil {
		return models.Visitor{}, false, err
	}
	return existing, true, nil
}

func scanVisitor(row pgx.Row) (models.Visitor, error) {
	var v models.Visitor
	if err := row.Scan(&v.ID, &v.QRCode, &v.VisitorName, &v.ResidentID, &v.Purpose, &v.RegisteredAt, &v.EnteredAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Visitor{}, storage.ErrNotFound
		}
		return models.Visitor{}, err
	}
	return v, nil
}

// CreateNotification stores a notification for one resident.
func (s *Store) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.ID == "" {
		n.ID = storage.NewID()
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO notifications (id, resident_id, message) VALUES ($1, $2, $3)
		RETURNING id, resident_id, message, read, created_at`, n.ID, n.ResidentID, n.Message)
	var out models.Notification
	if err := row.Scan(&out.ID, &out.ResidentID, &out.Message, &out.Read, &out.CreatedAt); err != nil {
		return models.Notification{}, mapWriteErr(err)
	}
	return out, nil
}

// ListNotifications returns a resident's notifications newest first.
func (s *Store) ListNotifications(ctx context.Context, residentID string) ([]models.Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, resident_id, message, read, created_at FROM notifications
		WHERE resident_id = $1 ORDER BY created_at DESC`, residentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.ResidentID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return storage.ErrAlreadyExists
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
