// Package mongo persists the community collections in MongoDB, the document database the
// mobile app has always used.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hongminglow/aparthus-be/internal/models"
	"github.com/hongminglow/aparthus-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

const (
	colUsers         = "users"
	colResidents     = "residents"
	colExpenses      = "expenses"
	colTransactions  = "transactions"
	colAnnouncements = "announcements"
	colIssues        = "issues"
	colEmergencies   = "emergencies"
	colVisitors      = "visitors"
	colNotifications = "notifications"
)

// Store provides MongoDB-backed persistence.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore connects, pings, and ensures the unique indexes exist.
func NewStore(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{
				Keys: bson.D{{Key: "emailLower", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"emailLower": bson.M{"$gt": ""}}),
			},
		},
		colResidents: {
			{
				Keys: bson.D{{Key: "username", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"username": bson.M{"$gt": ""}}),
			},
		},
		colVisitors: {
			{Keys: bson.D{{Key: "qrCode", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colNotifications: {
			{Keys: bson.D{{Key: "residentId", Value: 1}}},
		},
		colTransactions: {
			{Keys: bson.D{{Key: "residentId", Value: 1}}},
		},
	}
	for collection, idx := range indexes {
		if _, err := s.db.Collection(collection).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", collection, err)
		}
	}
	return nil
}

type userDoc struct {
	ID           string                `bson:"_id"`
	Username     string                `bson:"username"`
	Email        string                `bson:"email"`
	EmailLower   string                `bson:"emailLower"`
	Phone        string                `bson:"phone"`
	Role         string                `bson:"role"`
	PasswordHash string                `bson:"passwordHash"`
	FirstName    string                `bson:"firstName,omitempty"`
	LastName     string                `bson:"lastName,omitempty"`
	SiteName     string                `bson:"siteName,omitempty"`
	Block        string                `bson:"block,omitempty"`
	DueAmount    *primitive.Decimal128 `bson:"dueAmount,omitempty"`
	DueDate      *time.Time            `bson:"dueDate,omitempty"`
	IBAN         string                `bson:"iban,omitempty"`
	CreatedAt    time.Time             `bson:"createdAt"`
}

func (d userDoc) model() (models.User, error) {
	role, err := models.ParseRole(d.Role)
	if err != nil {
		return models.User{}, fmt.Errorf("user %s: %w", d.ID, err)
	}
	user := models.User{
		ID:           d.ID,
		Username:     d.Username,
		Email:        d.Email,
		Phone:        d.Phone,
		Role:         role,
		PasswordHash: d.PasswordHash,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		SiteName:     d.SiteName,
		Block:        d.Block,
		IBAN:         d.IBAN,
		CreatedAt:    d.CreatedAt,
	}
	if d.DueAmount != nil {
		if user.DueAmount, err = fromDecimal128(*d.DueAmount); err != nil {
			return models.User{}, fmt.Errorf("user %s dueAmount: %w", d.ID, err)
		}
	}
	if d.DueDate != nil {
		user.DueDate = *d.DueDate
	}
	return user, nil
}

func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == "" {
		user.ID = storage.NewID()
	}
	user.CreatedAt = now()
	doc := userDoc{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		EmailLower:   lower(user.Email),
		Phone:        user.Phone,
		Role:         string(user.Role),
		PasswordHash: user.PasswordHash,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		SiteName:     user.SiteName,
		Block:        user.Block,
		IBAN:         user.IBAN,
		CreatedAt:    user.CreatedAt,
	}
	if !user.DueAmount.IsZero() {
		due, err := toDecimal128(user.DueAmount)
		if err != nil {
			return models.User{}, err
		}
		doc.DueAmount = &due
	}
	if !user.DueDate.IsZero() {
		dueDate := user.DueDate.UTC()
		doc.DueDate = &dueDate
	}
	if _, err := s.db.Collection(colUsers).InsertOne(ctx, doc); err != nil {
		return models.User{}, mapErr(err)
	}
	return user, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *Store) FindByUsernameOrEmail(ctx context.Context, identifier string) (models.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"username": identifier},
		bson.M{"emailLower": lower(identifier)},
	}}
	return s.findUser(ctx, filter)
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (models.User, error) {
	var doc userDoc
	if err := s.db.Collection(colUsers).FindOne(ctx, filter).Decode(&doc); err != nil {
		return models.User{}, mapErr(err)
	}
	return doc.model()
}

type residentDoc struct {
	ID              string               `bson:"_id"`
	Username        string               `bson:"username"`
	PasswordHash    string               `bson:"passwordHash"`
	FirstName       string               `bson:"firstName"`
	LastName        string               `bson:"lastName"`
	Email           string               `bson:"email"`
	ContactNumber   string               `bson:"contactNumber"`
	SiteName        string               `bson:"siteName"`
	Block           string               `bson:"block"`
	ApartmentNumber int                  `bson:"apartmentNumber"`
	AmountDue       primitive.Decimal128 `bson:"amountDue"`
	HasPaid         bool                 `bson:"hasPaid"`
	DueDate         *time.Time           `bson:"dueDate,omitempty"`
	ManagerID       string               `bson:"yoneticiId,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt"`
}

func newResidentDoc(r models.Resident) (residentDoc, error) {
	due, err := toDecimal128(r.AmountDue)
	if err != nil {
		return residentDoc{}, err
	}
	doc := residentDoc{
		ID:              r.ID,
		Username:        r.Username,
		PasswordHash:    r.PasswordHash,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Email:           r.Email,
		ContactNumber:   r.ContactNumber,
		SiteName:        r.SiteName,
		Block:           r.Block,
		ApartmentNumber: r.ApartmentNumber,
		AmountDue:       due,
		HasPaid:         r.HasPaid,
		ManagerID:       r.ManagerID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if !r.DueDate.IsZero() {
		dueDate := r.DueDate.UTC()
		doc.DueDate = &dueDate
	}
	return doc, nil
}

func (d residentDoc) model() (models.Resident, error) {
	due, err := fromDecimal128(d.AmountDue)
	if err != nil {
		return models.Resident{}, fmt.Errorf("resident %s amountDue: %w", d.ID, err)
	}
	r := models.Resident{
		ID:              d.ID,
		Username:        d.Username,
		PasswordHash:    d.PasswordHash,
		Role:            models.RoleResident,
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		Email:           d.Email,
		ContactNumber:   d.ContactNumber,
		SiteName:        d.SiteName,
		Block:           d.Block,
		ApartmentNumber: d.ApartmentNumber,
		AmountDue:       due,
		HasPaid:         d.HasPaid,
		ManagerID:       d.ManagerID,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.DueDate != nil {
		r.DueDate = *d.DueDate
	}
	return r, nil
}

func (s *Store) CreateResident(ctx context.Context, r models.Resident) (models.Resident, error) {
	if r.ID == "" {
		r.ID = storage.NewID()
	}
	r.Role = models.RoleResident
	r.CreatedAt = now()
	r.UpdatedAt = r.CreatedAt
	doc, err := newResidentDoc(r)
	if err != nil {
		return models.Resident{}, err
	}
	if _, err := s.db.Collection(colResidents).InsertOne(ctx, doc); err != nil {
		return models.Resident{}, mapErr(err)
	}
	return r, nil
}

func (s *Store) ListResidents(ctx context.Context) ([]models.Resident, error) {
	return s.listResidents(ctx, bson.M{})
}

func (s *Store) ListResidentsByManager(ctx context.Context, managerID string) ([]models.Resident, error) {
	if managerID == "" {
		return []models.Resident{}, nil
	}
	return s.listResidents(ctx, bson.M{"yoneticiId": managerID})
}

func (s *Store) listResidents(ctx context.Context, filter bson.M) ([]models.Resident, error) {
	cur, err := s.db.Collection(colResidents).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []residentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Resident, 0, len(docs))
	for _, doc := range docs {
		r, err := doc.model()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) GetResident(ctx context.Context, id string) (models.Resident, error) {
	return s.findResident(ctx, bson.M{"_id": id})
}

func (s *Store) FindResidentByUsername(ctx context.Context, username string) (models.Resident, error) {
	if username == "" {
		return models.Resident{}, storage.ErrNotFound
	}
	return s.findResident(ctx, bson.M{"username": username})
}

func (s *Store) findResident(ctx context.Context, filter bson.M) (models.Resident, error) {
	var doc residentDoc
	if err := s.db.Collection(colResidents).FindOne(ctx, filter).Decode(&doc); err != nil {
		return models.Resident{}, mapErr(err)
	}
	return doc.model()
}

func (s *Store) UpdateResident(ctx context.Context, r models.Resident) (models.Resident, error) {
	due, err := toDecimal128(r.AmountDue)
	if err != nil {
		return models.Resident{}, err
	}
	set := bson.M{
		"username":        r.Username,
		"firstName":       r.FirstName,
		"lastName":        r.LastName,
		"email":           r.Email,
		"contactNumber":   r.ContactNumber,
		"siteName":        r.SiteName,
		"block":           r.Block,
		"apartmentNumber": r.ApartmentNumber,
		"amountDue":       due,
		"hasPaid":         r.HasPaid,
		"updatedAt":       now(),
	}
	update := bson.M{"$set": set}
	if r.PasswordHash != "" {
		set["passwordHash"] = r.PasswordHash
	}
	if r.ManagerID != "" {
		set["yoneticiId"] = r.ManagerID
	}
	if r.DueDate.IsZero() {
		update["$unset"] = bson.M{"dueDate": ""}
	} else {
		set["dueDate"] = r.DueDate.UTC()
	}

	var doc residentDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.db.Collection(colResidents).FindOneAndUpdate(ctx, bson.M{"_id": r.ID}, update, opts).Decode(&doc); err != nil {
		return models.Resident{}, mapErr(err)
	}
	return doc.model()
}

func (s *Store) DeleteResident(ctx context.Context, id string) error {
	res, err := s.db.Collection(colResidents).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ApplyPayment inserts the payment transaction first and then decrements amountDue with a
// compare-and-set on the value read, so two concurrent payments cannot both succeed against
// the same balance. If the resident update does not go through the transaction is deleted
// again; a balance never drops without its payment record.
func (s *Store) ApplyPayment(ctx context.Context, residentID string, amount decimal.Decimal, t models.Transaction) (models.Resident, models.Transaction, error) {
	current, err := s.GetResident(ctx, residentID)
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

	previous, err := toDecimal128(current.AmountDue)
	if err != nil {
		return models.Resident{}, models.Transaction{}, err
	}
	next, err := toDecimal128(remaining)
	if err != nil {
		return models.Resident{}, models.Transaction{}, err
	}

	t.ResidentID = residentID
	t.Amount = amount
	t.Kind = models.TransactionPayment
	recorded, err := s.CreateTransaction(ctx, t)
	if err != nil {
		return models.Resident{}, models.Transaction{}, fmt.Errorf("record payment transaction: %w", err)
	}

	filter := bson.M{"_id": residentID, "amountDue": previous, "hasPaid": false}
	update := bson.M{"$set": bson.M{"amountDue": next, "hasPaid": remaining.IsZero(), "updatedAt": now()}}
	var doc residentDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.db.Collection(colResidents).FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		s.discardTransaction(ctx, recorded.ID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Resident{}, models.Transaction{}, fmt.Errorf("resident %s changed during payment: %w", residentID, storage.ErrAlreadyPaid)
		}
		return models.Resident{}, models.Transaction{}, err
	}
	updated, err := doc.model()
	if err != nil {
		return models.Resident{}, models.Transaction{}, err
	}
	return updated, recorded, nil
}

// discardTransaction removes a payment record whose balance update failed. It runs even when
// ctx is already cancelled.
func (s *Store) discardTransaction(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := s.db.Collection(colTransactions).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		log.Printf("payment rollback: delete transaction %s: %v", id, err)
	}
}

type expenseDoc struct {
	ID          string               `bson:"_id"`
	Description string               `bson:"description"`
	Amount      primitive.Decimal128 `bson:"amount"`
	Date        time.Time            `bson:"date"`
	CreatedAt   time.Time            `bson:"createdAt"`
}

func (s *Store) CreateExpense(ctx context.Context, e models.Expense) (models.Expense, error) {
	if e.ID == "" {
		e.ID = storage.NewID()
	}
	e.CreatedAt = now()
	if e.Date.IsZero() {
		e.Date = e.CreatedAt
	}
	amount, err := toDecimal128(e.Amount)
	if err != nil {
		return models.Expense{}, err
	}
	doc := expenseDoc{ID: e.ID, Description: e.Description, Amount: amount, Date: e.Date.UTC(), CreatedAt: e.CreatedAt}
	if _, err := s.db.Collection(colExpenses).InsertOne(ctx, doc); err != nil {
		return models.Expense{}, mapErr(err)
	}
	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	var docs []expenseDoc
	if err := s.findAll(ctx, colExpenses, bson.M{}, bson.D{{Key: "date", Value: 1}}, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Expense, 0, len(docs))
	for _, d := range docs {
		amount, err := fromDecimal128(d.Amount)
		if err != nil {
			return nil, err
		}
		out = append(out, models.Expense{ID: d.ID, Description: d.Description, Amount: amount, Date: d.Date, CreatedAt: d.CreatedAt})
	}
	return out, nil
}

type transactionDoc struct {
	ID          string               `bson:"_id"`
	ResidentID  string               `bson:"residentId"`
	Description string               `bson:"description"`
	Amount      primitive.Decimal128 `bson:"amount"`
	Kind        string               `bson:"kind"`
	Date        time.Time            `bson:"date"`
}

func (s *Store) CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if t.ID == "" {
		t.ID = storage.NewID()
	}
	if t.Date.IsZero() {
		t.Date = now()
	}
	if t.Kind == "" {
		t.Kind = models.TransactionManual
	}
	amount, err := toDecimal128(t.Amount)
	if err != nil {
		return models.Transaction{}, err
	}
	doc := transactionDoc{ID: t.ID, ResidentID: t.ResidentID, Description: t.Description, Amount: amount, Kind: string(t.Kind), Date: t.Date.UTC()}
	if _, err := s.db.Collection(colTransactions).InsertOne(ctx, doc); err != nil {
		return models.Transaction{}, mapErr(err)
	}
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	var docs []transactionDoc
	if err := s.findAll(ctx, colTransactions, bson.M{}, bson.D{{Key: "date", Value: 1}}, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Transaction, 0, len(docs))
	for _, d := range docs {
		amount, err := fromDecimal128(d.Amount)
		if err != nil {
			return nil, err
		}
		out = append(out, models.Transaction{
			ID:          d.ID,
			ResidentID:  d.ResidentID,
			Description: d.Description,
			Amount:      amount,
			Kind:        models.TransactionKind(d.Kind),
			Date:        d.Date,
		})
	}
	return out, nil
}

type announcementDoc struct {
	ID          string    `bson:"_id"`
	Message     string    `bson:"message"`
	Block       string    `bson:"block"`
	BlockLower  string    `bson:"blockLower"`
	ScheduledAt time.Time `bson:"scheduledAt"`
	MediaURL    string    `bson:"mediaUrl,omitempty"`
	Author      string    `bson:"author,omitempty"`
	CreatedAt   time.Time `bson:"createdAt"`
}

func (s *Store) CreateAnnouncement(ctx context.Context, a models.Announcement) (models.Announcement, error) {
	if a.ID == "" {
		a.ID = storage.NewID()
	}
	a.CreatedAt = now()
	if a.ScheduledAt.IsZero() {
		a.ScheduledAt = a.CreatedAt
	}
	doc := announcementDoc{
		ID:          a.ID,
		Message:     a.Message,
		Block:       a.Block,
		BlockLower:  lower(a.Block),
		ScheduledAt: a.ScheduledAt.UTC(),
		MediaURL:    a.MediaURL,
		Author:      a.Author,
		CreatedAt:   a.CreatedAt,
	}
	if _, err := s.db.Collection(colAnnouncements).InsertOne(ctx, doc); err != nil {
		return models.Announcement{}, mapErr(err)
	}
	return a, nil
}

func (s *Store) ListAnnouncements(ctx context.Context, block string) ([]models.Announcement, error) {
	filter := bson.M{}
	if block != "" {
		filter["blockLower"] = lower(block)
	}
	var docs []announcementDoc
	if err := s.findAll(ctx, colAnnouncements, filter, bson.D{{Key: "scheduledAt", Value: -1}}, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Announcement, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.Announcement{
			ID:          d.ID,
			Message:     d.Message,
			Block:       d.Block,
			ScheduledAt: d.ScheduledAt,
			MediaURL:    d.MediaURL,
			Author:      d.Author,
			CreatedAt:   d.CreatedAt,
		})
	}
	return out, nil
}

type issueDoc struct {
	ID          string    `bson:"_id"`
	ResidentID  string    `bson:"residentId"`
	Description string    `bson:"description"`
	Status      string    `bson:"status"`
	CreatedAt   time.Time `bson:"createdAt"`
}

func (s *Store) CreateIssue(ctx context.Context, issue models.Issue) (models.Issue, error) {
	if issue.ID == "" {
		issue.ID = storage.NewID()
	}
	if issue.Status == "" {
		issue.Status = models.IssueOpen
	}
	issue.CreatedAt = now()
	doc := issueDoc(issue)
	if _, err := s.db.Collection(colIssues).InsertOne(ctx, doc); err != nil {
		return models.Issue{}, mapErr(err)
	}
	return issue, nil
}

func (s *Store) ListIssues(ctx context.Context) ([]models.Issue, error) {
	var docs []issueDoc
	if err := s.findAll(ctx, colIssues, bson.M{}, bson.D{{Key: "createdAt", Value: -1}}, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Issue, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.Issue(d))
	}
	return out, nil
}

type emergencyDoc struct {
	ID          string    `bson:"_id"`
	ResidentID  string    `bson:"residentId"`
	Type        string    `bson:"type"`
	Priority    string    `bson:"priority"`
	Description string    `bson:"description"`
	CreatedAt   time.Time `bson:"createdAt"`
}

func (s *Store) CreateEmergencyReport(ctx context.Context, r models.EmergencyReport) (models.EmergencyReport, error) {
	if r.ID == "" {
		r.ID = storage.NewID()
	}
	r.CreatedAt = now()
	if _, err := s.db.Collection(colEmergencies).InsertOne(ctx, emergencyDoc(r)); err != nil {
		return models.EmergencyReport{}, mapErr(err)
	}
	return r, nil
}

func (s *Store) ListEmergencyReports(ctx context.Context) ([]models.EmergencyReport, error) {
	var docs []emergencyDoc
	if err := s.findAll(ctx, colEmergencies, bson.M{}, bson.D{{Key: "createdAt", Value: -1}}, &docs); err != nil {
		return nil, err
	}
	out := make([]models.EmergencyReport, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.EmergencyReport(d))
	}
	return out, nil
}

type visitorDoc struct {
	ID           string     `bson:"_id"`
	QRCode       string     `bson:"qrCode"`
	VisitorName  string     `bson:"visitorName"`
	ResidentID   string     `bson:"residentId"`
	Purpose      string     `bson:"purpose"`
	RegisteredAt time.Time  `bson:"registeredAt"`
	EnteredAt    *time.Time `bson:"enteredAt"`
}

func (s *Store) SaveVisitor(ctx context.Context, v models.Visitor) (models.Visitor, error) {
	if v.ID == "" {
		v.ID = storage.NewID()
	}
	v.RegisteredAt = now()
	v.EnteredAt = nil
	if _, err := s.db.Collection(colVisitors).InsertOne(ctx, visitorDoc(v)); err != nil {
		return models.Visitor{}, mapErr(err)
	}
	return v, nil
}

func (s *Store) FindVisitorByCode(ctx context.Context, code string) (models.Visitor, error) {
	var doc visitorDoc
	if err := s.db.Collection(colVisitors).FindOne(ctx, bson.M{"qrCode": code}).Decode(&doc); err != nil {
		return models.Visitor{}, mapErr(err)
	}
	return models.Visitor(doc), nil
}

func (s *Store) MarkVisitorEntered(ctx context.Context, code string, at time.Time) (models.Visitor, bool, error) {
	filter := bson.M{"qrCode": code, "enteredAt": nil}
	update := bson.M{"$set": bson.M{"enteredAt": at.UTC()}}
	var doc visitorDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.db.Collection(colVisitors).FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return models.Visitor(doc), false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Visitor{}, false, err
	}
	existing, err := s.FindVisitorByCode(ctx, code)
	if err != nil {
		return models.Visitor{}, false, err
	}
	return existing, true, nil
}

type notificationDoc struct {
	ID         string    `bson:"_id"`
	ResidentID string    `bson:"residentId"`
	Message    string    `bson:"message"`
	Read       bool      `bson:"read"`
	CreatedAt  time.Time `bson:"createdAt"`
}

func (s *Store) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.ID == "" {
		n.ID = storage.NewID()
	}
	n.CreatedAt = now()
	if _, err := s.db.Collection(colNotifications).InsertOne(ctx, notificationDoc(n)); err != nil {
		return models.Notification{}, mapErr(err)
	}
	return n, nil
}

func (s *Store) ListNotifications(ctx context.Context, residentID string) ([]models.Notification, error) {
	var docs []notificationDoc
	if err := s.findAll(ctx, colNotifications, bson.M{"residentId": residentID}, bson.D{{Key: "createdAt", Value: -1}}, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Notification, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.Notification(d))
	}
	return out, nil
}

func (s *Store) findAll(ctx context.Context, collection string, filter bson.M, sort bson.D, out any) error {
	cur, err := s.db.Collection(collection).Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return fmt.Errorf("find %s: %w", collection, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return storage.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return storage.ErrAlreadyExists
	}
	return err
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode amount %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(v.String())
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
