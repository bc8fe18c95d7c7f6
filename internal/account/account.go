package account

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a cash movement.
type TransactionType string

const (
	TypeDeposit    TransactionType = "DEPOSIT"
	TypeWithdrawal TransactionType = "WITHDRAWAL"
)

// Account is a cash account owned by a user. Balance never goes below zero
// after a committed operation.
type Account struct {
	ID                    uuid.UUID
	UserID                uuid.UUID
	Name                  string
	Balance               decimal.Decimal
	LastInterestAppliedAt *time.Time // nil until interest has been applied once
	CreatedAt             time.Time
}

// CashTransaction is an append-only audit record of a single balance
// mutation on an account. It is never updated or deleted on its own.
type CashTransaction struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Type      TransactionType
	Amount    decimal.Decimal
	Timestamp time.Time
}

// Signed returns the amount with withdrawals negated, so that summing the
// signed amounts of an account's transactions yields its net cash movement.
func (t *CashTransaction) Signed() decimal.Decimal {
	if t.Type == TypeWithdrawal {
		return t.Amount.Neg()
	}

	return t.Amount
}
