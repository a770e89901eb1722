package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is an append-only, admin-visible ledger entry.
type Expense struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TransactionKind classifies bank ledger entries.
type TransactionKind string

const (
	TransactionPayment TransactionKind = "payment"
	TransactionExpense TransactionKind = "expense"
	TransactionManual  TransactionKind = "manual"
)

// Transaction is a bank movement shown on the bank transactions screen.
type Transaction struct {
	ID          string          `json:"id"`
	ResidentID  string          `json:"residentId,omitempty"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        TransactionKind `json:"kind"`
	Date        time.Time       `json:"date"`
}
