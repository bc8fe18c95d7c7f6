package investment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bngy/siminvest/internal/account"
)

// Position is an investment position simulated against a cash account.
// It starts unconfirmed with no funds committed; confirming it moves the
// principal out of the account and anchors the contribution schedule.
type Position struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	AccountID           uuid.UUID
	Asset               string
	Amount              decimal.Decimal // current principal
	DurationMonths      int
	AnnualRatePercent   decimal.Decimal // nominal annual rate, e.g. 7 means 7%
	MonthlyContribution decimal.Decimal // zero means no periodic contribution
	ExpectedReturn      decimal.Decimal // projected at simulation time, never recomputed
	Confirmed           bool
	SimulatedAt         time.Time
	ConfirmedAt         *time.Time // contribution-schedule anchor, set on confirmation
	PaidContributions   int
}

// PositionTransaction is the append-only audit record of a principal
// mutation, mirroring account.CashTransaction on the position side. Every
// fund movement between an account and a position writes one of each, of
// equal magnitude, in the same unit of work.
type PositionTransaction struct {
	ID         uuid.UUID
	PositionID uuid.UUID
	Type       account.TransactionType
	Amount     decimal.Decimal
	Timestamp  time.Time
}
