package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User captures staff identities (admins, managers, security) that log in by username or email.
// Site managers also carry the site they run and the dues its residents owe.
type User struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	Role         Role            `json:"role"`
	PasswordHash string          `json:"-"`
	FirstName    string          `json:"firstName,omitempty"`
	LastName     string          `json:"lastName,omitempty"`
	SiteName     string          `json:"siteName,omitempty"`
	Block        string          `json:"block,omitempty"`
	DueAmount    decimal.Decimal `json:"dueAmount,omitzero"`
	DueDate      time.Time       `json:"dueDate,omitzero"`
	IBAN         string          `json:"IBAN,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ManagesSite reports whether u is a site manager residents can register under.
func (u User) ManagesSite() bool {
	return u.Role == RoleAdmin && u.SiteName != ""
}
