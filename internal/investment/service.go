package investment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bngy/siminvest/internal/account"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=investment
type Repository interface {
	CreatePosition(ctx context.Context, p *Position) error
	GetPosition(ctx context.Context, id uuid.UUID) (*Position, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Position, error)
	ListByUserConfirmed(ctx context.Context, userID uuid.UUID, confirmed bool) ([]*Position, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Position, error)
	ListConfirmed(ctx context.Context) ([]*Position, error)
	ListTransactions(ctx context.Context, positionID uuid.UUID) ([]*PositionTransaction, error)

	Begin(ctx context.Context) (Tx, error)
}

// Tx is a unit of work spanning a position and its backing account. Every
// fund movement writes both balances and both audit records before
// committing; nothing partial is ever observable.
//
// Row locks are always taken position first, then account, so concurrent
// transitions on the same pair serialize instead of deadlocking.
type Tx interface {
	GetPositionForUpdate(ctx context.Context, id uuid.UUID) (*Position, error)
	GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error)
	SavePosition(ctx context.Context, p *Position) error
	SaveAccount(ctx context.Context, acc *account.Account) error
	CreateCashTransaction(ctx context.Context, ct *account.CashTransaction) error
	CreatePositionTransaction(ctx context.Context, pt *PositionTransaction) error
	DeletePosition(ctx context.Context, id uuid.UUID) error

	Commit() error
	Rollback() error
}

const maxConflictRetries = 3

// Service is the position lifecycle manager. All fund movement between
// accounts and positions, including the scheduler's periodic contributions,
// goes through it.
type Service struct {
	repo Repository
	now  func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type SimulateParams struct {
	AccountID           uuid.UUID
	Asset               string
	Amount              decimal.Decimal
	DurationMonths      int
	AnnualRatePercent   decimal.Decimal
	MonthlyContribution decimal.Decimal
}

// Simulate creates an unconfirmed position with its expected return
// precomputed. No funds move until the position is confirmed.
func (s *Service) Simulate(ctx context.Context, userID uuid.UUID, params SimulateParams) (*Position, error) {
	if !params.Amount.IsPositive() ||
		params.DurationMonths <= 0 ||
		!params.AnnualRatePercent.IsPositive() ||
		params.MonthlyContribution.IsNegative() ||
		strings.TrimSpace(params.Asset) == "" {
		return nil, ErrInvalidParameters
	}

	acc, err := s.repo.GetAccount(ctx, params.AccountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, ErrInvalidParameters
		}

		return nil, err
	}

	if acc.UserID != userID {
		return nil, ErrInvalidParameters
	}

	expected, err := ExpectedReturn(params.Amount, params.MonthlyContribution, params.AnnualRatePercent, params.DurationMonths)
	if err != nil {
		return nil, fmt.Errorf("projecting expected return: %w", err)
	}

	p := &Position{
		UserID:              userID,
		AccountID:           params.AccountID,
		Asset:               params.Asset,
		Amount:              params.Amount,
		DurationMonths:      params.DurationMonths,
		AnnualRatePercent:   params.AnnualRatePercent,
		MonthlyContribution: params.MonthlyContribution,
		ExpectedReturn:      expected,
		Confirmed:           false,
		SimulatedAt:         s.now(),
	}

	if err := s.repo.CreatePosition(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// Confirm funds the position from its account: the principal is debited
// from the account and credited to the position, the contribution anchor is
// set, and the paid-contribution counter resets. A position can only be
// confirmed once.
func (s *Service) Confirm(ctx context.Context, userID, id uuid.UUID) (*Position, error) {
	var p *Position

	err := s.inTx(ctx, func(tx Tx) error {
		var err error

		p, err = lockOwned(ctx, tx, userID, id)
		if err != nil {
			return err
		}

		if p.Confirmed {
			return ErrAlreadyConfirmed
		}

		acc, err := tx.GetAccountForUpdate(ctx, p.AccountID)
		if err != nil {
			return err
		}

		if acc.Balance.LessThan(p.Amount) {
			return ErrInsufficientFunds
		}

		now := s.now()
		acc.Balance = acc.Balance.Sub(p.Amount)
		p.Confirmed = true
		p.ConfirmedAt = &now
		p.PaidContributions = 0

		return s.transfer(ctx, tx, acc, p, transferFunding, p.Amount, now)
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Withdraw moves funds out of a confirmed position back into its account.
// Withdrawals are locked for the first half of the position's declared
// duration, counted in calendar months from the confirmation anchor.
func (s *Service) Withdraw(ctx context.Context, userID, id uuid.UUID, amount decimal.Decimal) (*Position, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidParameters
	}

	var p *Position

	err := s.inTx(ctx, func(tx Tx) error {
		var err error

		p, err = lockOwned(ctx, tx, userID, id)
		if err != nil {
			return err
		}

		if !p.Confirmed || p.ConfirmedAt == nil {
			return ErrNotConfirmed
		}

		if p.Amount.LessThan(amount) {
			return ErrInvalidParameters
		}

		now := s.now()

		unlockAt := addMonths(*p.ConfirmedAt, p.DurationMonths/2)
		if now.Before(unlockAt) {
			return ErrLockedPeriod
		}

		acc, err := tx.GetAccountForUpdate(ctx, p.AccountID)
		if err != nil {
			return err
		}

		p.Amount = p.Amount.Sub(amount)
		acc.Balance = acc.Balance.Add(amount)

		return s.transfer(ctx, tx, acc, p, transferRedemption, amount, now)
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Deposit moves additional funds from the account into a confirmed position.
func (s *Service) Deposit(ctx context.Context, userID, id uuid.UUID, amount decimal.Decimal) (*Position, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidParameters
	}

	var p *Position

	err := s.inTx(ctx, func(tx Tx) error {
		var err error

		p, err = lockOwned(ctx, tx, userID, id)
		if err != nil {
			return err
		}

		if !p.Confirmed {
			return ErrNotConfirmed
		}

		acc, err := tx.GetAccountForUpdate(ctx, p.AccountID)
		if err != nil {
			return err
		}

		if acc.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		acc.Balance = acc.Balance.Sub(amount)
		p.Amount = p.Amount.Add(amount)

		return s.transfer(ctx, tx, acc, p, transferFunding, amount, s.now())
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Close deletes the position and its transaction history. If the position
// was confirmed its remaining principal is returned to the account first;
// the returned flag reports whether that happened.
func (s *Service) Close(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	var fundsReturned bool

	err := s.inTx(ctx, func(tx Tx) error {
		p, err := lockOwned(ctx, tx, userID, id)
		if err != nil {
			return err
		}

		fundsReturned = false

		if p.Confirmed {
			acc, err := tx.GetAccountForUpdate(ctx, p.AccountID)
			if err != nil {
				return err
			}

			acc.Balance = acc.Balance.Add(p.Amount)
			if err := tx.SaveAccount(ctx, acc); err != nil {
				return err
			}

			if p.Amount.IsPositive() {
				err = tx.CreateCashTransaction(ctx, &account.CashTransaction{
					AccountID: acc.ID,
					Type:      account.TypeDeposit,
					Amount:    p.Amount,
					Timestamp: s.now(),
				})
				if err != nil {
					return err
				}
			}

			fundsReturned = true
		}

		return tx.DeletePosition(ctx, p.ID)
	})
	if err != nil {
		return false, err
	}

	return fundsReturned, nil
}

// ApplyContribution pays exactly one periodic contribution into the
// position, if one is due and the account can cover it. Eligibility is
// checked under the row lock, so replaying it in the same instant cannot
// double-charge. Invoked by the contribution scheduler.
func (s *Service) ApplyContribution(ctx context.Context, id uuid.UUID, now time.Time) error {
	return s.inTx(ctx, func(tx Tx) error {
		p, err := tx.GetPositionForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if !p.Confirmed || p.ConfirmedAt == nil {
			return ErrNotConfirmed
		}

		if !p.MonthlyContribution.IsPositive() {
			return ErrContributionNotDue
		}

		if p.PaidContributions >= wholeMonthsBetween(*p.ConfirmedAt, now) {
			return ErrContributionNotDue
		}

		acc, err := tx.GetAccountForUpdate(ctx, p.AccountID)
		if err != nil {
			return err
		}

		if acc.Balance.LessThan(p.MonthlyContribution) {
			return ErrInsufficientFunds
		}

		acc.Balance = acc.Balance.Sub(p.MonthlyContribution)
		p.Amount = p.Amount.Add(p.MonthlyContribution)
		p.PaidContributions++

		return s.transfer(ctx, tx, acc, p, transferFunding, p.MonthlyContribution, now)
	})
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Position, error) {
	p, err := s.repo.GetPosition(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.UserID != userID {
		return nil, ErrNotFound
	}

	return p, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Position, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListForUserConfirmed(ctx context.Context, userID uuid.UUID, confirmed bool) ([]*Position, error) {
	return s.repo.ListByUserConfirmed(ctx, userID, confirmed)
}

func (s *Service) ListForAccount(ctx context.Context, accountID uuid.UUID) ([]*Position, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

// ListConfirmed returns every confirmed position regardless of owner. Used
// by the contribution scheduler.
func (s *Service) ListConfirmed(ctx context.Context) ([]*Position, error) {
	return s.repo.ListConfirmed(ctx)
}

func (s *Service) Transactions(ctx context.Context, userID, id uuid.UUID) ([]*PositionTransaction, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}

	return s.repo.ListTransactions(ctx, id)
}

type transferDirection int

const (
	// transferFunding moves cash from the account into the position.
	transferFunding transferDirection = iota
	// transferRedemption moves principal from the position back to cash.
	transferRedemption
)

// transfer persists both mutated entities and their paired audit records.
// Balance arithmetic has already been done by the caller.
func (s *Service) transfer(ctx context.Context, tx Tx, acc *account.Account, p *Position, dir transferDirection, amount decimal.Decimal, now time.Time) error {
	if err := tx.SaveAccount(ctx, acc); err != nil {
		return err
	}

	if err := tx.SavePosition(ctx, p); err != nil {
		return err
	}

	cashType, positionType := account.TypeWithdrawal, account.TypeDeposit
	if dir == transferRedemption {
		cashType, positionType = account.TypeDeposit, account.TypeWithdrawal
	}

	err := tx.CreateCashTransaction(ctx, &account.CashTransaction{
		AccountID: acc.ID,
		Type:      cashType,
		Amount:    amount,
		Timestamp: now,
	})
	if err != nil {
		return err
	}

	return tx.CreatePositionTransaction(ctx, &PositionTransaction{
		PositionID: p.ID,
		Type:       positionType,
		Amount:     amount,
		Timestamp:  now,
	})
}

func lockOwned(ctx context.Context, tx Tx, userID, id uuid.UUID) (*Position, error) {
	p, err := tx.GetPositionForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.UserID != userID {
		return nil, ErrNotFound
	}

	return p, nil
}

func (s *Service) inTx(ctx context.Context, fn func(tx Tx) error) error {
	var err error

	for i := 0; i < maxConflictRetries; i++ {
		err = s.runOnce(ctx, fn)
		if !errors.Is(err, ErrConflictingUpdate) {
			return err
		}
	}

	return err
}

func (s *Service) runOnce(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning unit of work: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing unit of work: %w", err)
	}

	return nil
}
