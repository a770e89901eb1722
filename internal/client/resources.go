package client

import (
	"context"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/aparthus-be/internal/models"
	"github.com/hongminglow/aparthus-be/internal/models/dto"
)

// LoginStaff calls the generic login route used for email identifiers.
func (c *Client) LoginStaff(ctx context.Context, identifier, password string) (dto.LoginResponse, error) {
	var out dto.LoginResponse
	err := c.postAnonymous(ctx, "/api/login", dto.LoginRequest{Identifier: identifier, Password: password}, &out)
	return out, err
}

// LoginResident calls the resident login route used for bare usernames.
func (c *Client) LoginResident(ctx context.Context, username, password string) (dto.ResidentLoginResponse, error) {
	var out dto.ResidentLoginResponse
	err := c.postAnonymous(ctx, "/api/residents/login", dto.ResidentLoginRequest{Username: username, Password: password}, &out)
	return out, err
}

// RegisterUser creates a staff account. Signed in as an admin it creates any staff role;
// signed out it registers a site manager.
func (c *Client) RegisterUser(ctx context.Context, req dto.RegisterRequest) (models.User, error) {
	var out models.User
	err := c.post(ctx, "/api/users/register", req, &out)
	return out, err
}

// RegisterResident signs a resident up under the manager named by req.ManagerID.
func (c *Client) RegisterResident(ctx context.Context, req dto.ResidentRegisterRequest) (models.Resident, error) {
	var out models.Resident
	err := c.postAnonymous(ctx, "/api/residents/register", req, &out)
	return out, err
}

// Site looks up the site a manager runs.
func (c *Client) Site(ctx context.Context, managerID string) (dto.SiteInfo, error) {
	var out dto.SiteInfo
	err := c.get(ctx, "/api/users/"+url.PathEscape(managerID), &out)
	return out, err
}

// ManagerResidents lists the residents of the signed-in manager's site.
func (c *Client) ManagerResidents(ctx context.Context) ([]models.Resident, error) {
	var out []models.Resident
	err := c.get(ctx, "/api/residents/yonetici-residents", &out)
	return out, err
}

func (c *Client) ListResidents(ctx context.Context) ([]models.Resident, error) {
	var out []models.Resident
	err := c.get(ctx, "/api/residents", &out)
	return out, err
}

func (c *Client) GetResident(ctx context.Context, id string) (models.Resident, error) {
	var out models.Resident
	err := c.get(ctx, "/api/residents/"+url.PathEscape(id), &out)
	return out, err
}

func (c *Client) CreateResident(ctx context.Context, req dto.ResidentRequest) (models.Resident, error) {
	var out models.Resident
	err := c.post(ctx, "/api/residents", req, &out)
	return out, err
}

func (c *Client) UpdateResident(ctx context.Context, id string, req dto.ResidentRequest) (models.Resident, error) {
	var out models.Resident
	err := c.put(ctx, "/api/residents/"+url.PathEscape(id), req, &out)
	return out, err
}

func (c *Client) DeleteResident(ctx context.Context, id string) error {
	return c.delete(ctx, "/api/residents/"+url.PathEscape(id))
}

func (c *Client) DuesSummary(ctx context.Context) (models.DuesSummary, error) {
	var out models.DuesSummary
	err := c.get(ctx, "/api/residents/summary", &out)
	return out, err
}

// PaymentStatus reads a resident's dues. Residents may only read their own.
func (c *Client) PaymentStatus(ctx context.Context, residentID string) (models.Resident, error) {
	var out models.Resident
	err := c.get(ctx, "/api/residents/payments/"+url.PathEscape(residentID), &out)
	return out, err
}

// PayDues pays amount towards residentID. Residents may leave residentID empty.
func (c *Client) PayDues(ctx context.Context, residentID string, amount decimal.Decimal) (dto.PaymentResponse, error) {
	var out dto.PaymentResponse
	err := c.post(ctx, "/api/residents/payAidat", dto.PaymentRequest{ResidentID: residentID, Amount: amount}, &out)
	return out, err
}

func (c *Client) SendReminder(ctx context.Context, residentID string) (models.Notification, error) {
	var out models.Notification
	err := c.post(ctx, "/api/residents/"+url.PathEscape(residentID)+"/reminder", nil, &out)
	return out, err
}

func (c *Client) SendReminders(ctx context.Context) (int, error) {
	var out dto.SendNotificationResponse
	err := c.post(ctx, "/api/residents/reminders", nil, &out)
	return out.Delivered, err
}

func (c *Client) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	var out []models.Expense
	err := c.get(ctx, "/api/expenses", &out)
	return out, err
}

func (c *Client) CreateExpense(ctx context.Context, req dto.ExpenseRequest) (models.Expense, error) {
	var out models.Expense
	err := c.post(ctx, "/api/expenses", req, &out)
	return out, err
}

func (c *Client) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	var out []models.Transaction
	err := c.get(ctx, "/api/transactions", &out)
	return out, err
}

func (c *Client) CreateTransaction(ctx context.Context, req dto.TransactionRequest) (models.Transaction, error) {
	var out models.Transaction
	err := c.post(ctx, "/api/transactions", req, &out)
	return out, err
}

// ListAnnouncements returns every announcement, or only those for block when it is set.
func (c *Client) ListAnnouncements(ctx context.Context, block string) ([]models.Announcement, error) {
	path := "/api/announcements"
	if block != "" {
		path += "?" + url.Values{"block": {block}}.Encode()
	}
	var out []models.Announcement
	err := c.get(ctx, path, &out)
	return out, err
}

func (c *Client) CreateAnnouncement(ctx context.Context, req dto.AnnouncementRequest) (models.Announcement, error) {
	var out models.Announcement
	err := c.post(ctx, "/api/announcements", req, &out)
	return out, err
}

func (c *Client) ReportIssue(ctx context.Context, description string) (models.Issue, error) {
	var out models.Issue
	err := c.post(ctx, "/api/issues/report", dto.IssueRequest{Description: description}, &out)
	return out, err
}

func (c *Client) ListIssues(ctx context.Context) ([]models.Issue, error) {
	var out []models.Issue
	err := c.get(ctx, "/api/issues", &out)
	return out, err
}

func (c *Client) ReportEmergency(ctx context.Context, req dto.EmergencyRequest) (models.EmergencyReport, error) {
	var out models.EmergencyReport
	err := c.post(ctx, "/api/emergency/report", req, &out)
	return out, err
}

func (c *Client) ListEmergencies(ctx context.Context) ([]models.EmergencyReport, error) {
	var out []models.EmergencyReport
	err := c.get(ctx, "/api/emergency", &out)
	return out, err
}

func (c *Client) SaveVisitor(ctx context.Context, req dto.SaveQRRequest) (models.Visitor, error) {
	var out models.Visitor
	err := c.post(ctx, "/api/qr-routes/save-qr", req, &out)
	return out, err
}

func (c *Client) CheckQR(ctx context.Context, code string) (bool, error) {
	var out dto.CheckQRResponse
	err := c.post(ctx, "/api/qr-routes/check-qr", dto.CheckQRRequest{QRCode: code}, &out)
	return out.IsRegistered, err
}

func (c *Client) RecordEntry(ctx context.Context, code string) (dto.VisitorEntryResponse, error) {
	var out dto.VisitorEntryResponse
	err := c.post(ctx, "/api/qr-routes/visitor-entry", dto.VisitorEntryRequest{QRCode: code}, &out)
	return out, err
}

// SendNotification addresses one resident, or all of them with residentID "all".
func (c *Client) SendNotification(ctx context.Context, residentID, message string) (int, error) {
	var out dto.SendNotificationResponse
	err := c.post(ctx, "/api/notifications/send", dto.SendNotificationRequest{ResidentID: residentID, Message: message}, &out)
	return out.Delivered, err
}

func (c *Client) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	var out []models.Notification
	err := c.get(ctx, "/api/notifications", &out)
	return out, err
}
