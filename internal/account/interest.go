package account

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Interest compounds once per whole elapsed year. A year is a fixed 365
// days; the anchor advances by whole years only, so partially elapsed years
// keep counting from the same point instead of drifting towards "now".
const daysPerYear = 365

// interestDue is a cheap pre-check done without a row lock. Accounts with a
// nil anchor always pass because the real anchor (the first deposit) is only
// known inside the unit of work.
func interestDue(acc *Account, now time.Time) bool {
	if acc.LastInterestAppliedAt == nil {
		return true
	}

	return wholeYearsBetween(*acc.LastInterestAppliedAt, now) >= 1
}

// accrue applies all interest owed to the account since its anchor in a
// single unit of work and returns the updated account, or nil when nothing
// was owed. The interest credit is recorded as a DEPOSIT transaction so the
// audit trail stays complete.
func (s *Service) accrue(ctx context.Context, id uuid.UUID, now time.Time) (*Account, error) {
	var acc *Account

	err := s.inTx(ctx, func(tx Tx) error {
		var err error

		acc, err = tx.GetAccountForUpdate(ctx, id)
		if err != nil {
			return err
		}

		anchor := acc.LastInterestAppliedAt
		if anchor == nil {
			first, err := tx.FirstDeposit(ctx, acc.ID)
			if err != nil {
				return err
			}

			if first == nil {
				// No deposit has ever been made; nothing accrues.
				acc = nil
				return nil
			}

			anchor = &first.Timestamp
		}

		years := wholeYearsBetween(*anchor, now)
		if years < 1 {
			acc = nil
			return nil
		}

		growth, err := decimal.NewFromInt(1).Add(s.rate).PowInt32(int32(years))
		if err != nil {
			return err
		}

		newBalance := acc.Balance.Mul(growth)
		interest := newBalance.Sub(acc.Balance)

		next := anchor.AddDate(years, 0, 0)
		acc.Balance = newBalance
		acc.LastInterestAppliedAt = &next

		if err := tx.SaveAccount(ctx, acc); err != nil {
			return err
		}

		if !interest.IsPositive() {
			return nil
		}

		return tx.CreateTransaction(ctx, &CashTransaction{
			AccountID: acc.ID,
			Type:      TypeDeposit,
			Amount:    interest,
			Timestamp: now,
		})
	})
	if err != nil {
		return nil, err
	}

	return acc, nil
}

func wholeYearsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}

	days := int(to.Sub(from).Hours() / 24)

	return days / daysPerYear
}
