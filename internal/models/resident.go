package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Resident is a household account: identity, address within the site, and dues state.
type Resident struct {
	ID              string          `json:"id"`
	Username        string          `json:"username"`
	PasswordHash    string          `json:"-"`
	Role            Role            `json:"role"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	Email           string          `json:"email,omitempty"`
	ContactNumber   string          `json:"contactNumber"`
	SiteName        string          `json:"siteName"`
	Block           string          `json:"block"`
	ApartmentNumber int             `json:"apartmentNumber"`
	AmountDue       decimal.Decimal `json:"amountDue"`
	HasPaid         bool            `json:"hasPaid"`
	DueDate         time.Time       `json:"dueDate"`
	ManagerID       string          `json:"yoneticiId,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// FullName joins first and last names for notification text.
func (r Resident) FullName() string {
	switch {
	case r.FirstName == "":
		return r.LastName
	case r.LastName == "":
		return r.FirstName
	}
	return r.FirstName + " " + r.LastName
}

// DuesSummary totals settled and outstanding dues across residents.
type DuesSummary struct {
	TotalPaid     decimal.Decimal `json:"totalPaid"`
	TotalUnpaid   decimal.Decimal `json:"totalUnpaid"`
	PaidCount     int             `json:"paidCount"`
	UnpaidCount   int             `json:"unpaidCount"`
	ResidentCount int             `json:"residentCount"`
}
