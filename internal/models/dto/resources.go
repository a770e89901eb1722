package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/aparthus-be/internal/models"
)

// ResidentRequest is the create/update body for resident records.
type ResidentRequest struct {
	Username        string          `json:"username"`
	Password        string          `json:"password,omitempty"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	Email           string          `json:"email,omitempty"`
	ContactNumber   string          `json:"contactNumber"`
	SiteName        string          `json:"siteName"`
	Block           string          `json:"block"`
	ApartmentNumber int             `json:"apartmentNumber"`
	AmountDue       decimal.Decimal `json:"amountDue"`
	HasPaid         bool            `json:"hasPaid"`
	DueDate         string          `json:"dueDate,omitempty"`
}

type PaymentRequest struct {
	ResidentID string          `json:"residentId"`
	Amount     decimal.Decimal `json:"amount"`
}

type PaymentResponse struct {
	Resident    models.Resident    `json:"resident"`
	Transaction models.Transaction `json:"transaction"`
}

type ExpenseRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date,omitempty"`
}

type TransactionRequest struct {
	ResidentID  string                 `json:"residentId,omitempty"`
	Description string                 `json:"description"`
	Amount      decimal.Decimal        `json:"amount"`
	Kind        models.TransactionKind `json:"kind,omitempty"`
	Date        string                 `json:"date,omitempty"`
}

type AnnouncementRequest struct {
	Message     string     `json:"message"`
	Block       string     `json:"block"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	MediaURL    string     `json:"mediaUrl,omitempty"`
}

type IssueRequest struct {
	Description string `json:"description"`
}

type EmergencyRequest struct {
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Description string `json:"description,omitempty"`
}

type SaveQRRequest struct {
	QRCode      string `json:"qrCode,omitempty"`
	VisitorName string `json:"visitorName"`
	Purpose     string `json:"purpose,omitempty"`
}

type CheckQRRequest struct {
	QRCode string `json:"qrCode"`
}

type CheckQRResponse struct {
	IsRegistered bool `json:"isRegistered"`
}

type VisitorEntryRequest struct {
	QRCode string `json:"qrCode"`
	Status string `json:"status,omitempty"`
}

type VisitorEntryResponse struct {
	AlreadyEntered bool           `json:"alreadyEntered"`
	Visitor        models.Visitor `json:"visitor"`
}

// SendNotificationRequest addresses one resident, or every resident with "all".
type SendNotificationRequest struct {
	ResidentID string `json:"residentId"`
	Message    string `json:"message"`
}

type SendNotificationResponse struct {
	Delivered int `json:"delivered"`
}

// ParseDate accepts the YYYY-MM-DD form used by the forms as well as RFC 3339.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD or RFC 3339", value)
	}
	return t, nil
}
