package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=account
type Repository interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]*Account, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID) ([]*CashTransaction, error)

	Begin(ctx context.Context) (Tx, error)
}

// Tx is a unit of work over accounts and their cash transactions. A balance
// mutation and its audit record commit together or not at all.
type Tx interface {
	CreateAccount(ctx context.Context, acc *Account) error
	GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)
	SaveAccount(ctx context.Context, acc *Account) error
	CreateTransaction(ctx context.Context, ct *CashTransaction) error
	FirstDeposit(ctx context.Context, accountID uuid.UUID) (*CashTransaction, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error

	Commit() error
	Rollback() error
}

// maxConflictRetries bounds how often a unit of work is replayed after
// losing to a concurrent mutation before ErrConflictingUpdate surfaces.
const maxConflictRetries = 3

type Service struct {
	repo Repository
	rate decimal.Decimal // annual nominal interest rate on idle cash
	now  func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, annualRate decimal.Decimal, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		rate: annualRate,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Open creates an account for the user. A positive initial balance produces
// a seed DEPOSIT transaction in the same unit of work.
func (s *Service) Open(ctx context.Context, userID uuid.UUID, name string, initialBalance decimal.Decimal) (*Account, error) {
	if strings.TrimSpace(name) == "" || initialBalance.IsNegative() {
		return nil, ErrInvalidParameters
	}

	acc := &Account{
		UserID:  userID,
		Name:    name,
		Balance: initialBalance,
	}

	err := s.inTx(ctx, func(tx Tx) error {
		if err := tx.CreateAccount(ctx, acc); err != nil {
			return err
		}

		if !initialBalance.IsPositive() {
			return nil
		}

		return tx.CreateTransaction(ctx, &CashTransaction{
			AccountID: acc.ID,
			Type:      TypeDeposit,
			Amount:    initialBalance,
			Timestamp: s.now(),
		})
	})
	if err != nil {
		return nil, err
	}

	return acc, nil
}

// ListForUser returns the user's accounts, applying any interest owed to
// each one first so accrued balances are visible on the read.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Account, error) {
	accounts, err := s.repo.ListAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()

	for i, acc := range accounts {
		if !interestDue(acc, now) {
			continue
		}

		accrued, err := s.accrue(ctx, acc.ID, now)
		if err != nil {
			return nil, fmt.Errorf("accruing interest on account %s: %w", acc.ID, err)
		}

		if accrued != nil {
			accounts[i] = accrued
		}
	}

	return accounts, nil
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Account, error) {
	acc, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	if acc.UserID != userID {
		return nil, ErrNotFound
	}

	return acc, nil
}

func (s *Service) Deposit(ctx context.Context, userID, id uuid.UUID, amount decimal.Decimal) (*Account, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidParameters
	}

	var acc *Account

	err := s.inTx(ctx, func(tx Tx) error {
		var err error

		acc, err = lockOwned(ctx, tx, userID, id)
		if err != nil {
			return err
		}

		acc.Balance = acc.Balance.Add(amount)
		if err := tx.SaveAccount(ctx, acc); err != nil {
			return err
		}

		return tx.CreateTransaction(ctx, &CashTransaction{
			AccountID: acc.ID,
			Type:      TypeDeposit,
			Amount:    amount,
			Timestamp: s.now(),
		})
	})
	if err != nil {
		return nil, err
	}

	return acc, nil
}

func (s *Service) Withdraw(ctx context.Context, userID, id uuid.UUID, amount decimal.Decimal) (*Account, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidParameters
	}

	var acc *Account

	err := s.inTx(ctx, func(tx Tx) error {
		var err error

		acc, err = lockOwned(ctx, tx, userID, id)
		if err != nil {
			return err
		}

		if acc.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		acc.Balance = acc.Balance.Sub(amount)
		if err := tx.SaveAccount(ctx, acc); err != nil {
			return err
		}

		return tx.CreateTransaction(ctx, &CashTransaction{
			AccountID: acc.ID,
			Type:      TypeWithdrawal,
			Amount:    amount,
			Timestamp: s.now(),
		})
	})
	if err != nil {
		return nil, err
	}

	return acc, nil
}

func (s *Service) Transactions(ctx context.Context, userID, id uuid.UUID) ([]*CashTransaction, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}

	return s.repo.ListTransactions(ctx, id)
}

// Close deletes the account together with its transactions and positions.
func (s *Service) Close(ctx context.Context, userID, id uuid.UUID) error {
	return s.inTx(ctx, func(tx Tx) error {
		if _, err := lockOwned(ctx, tx, userID, id); err != nil {
			return err
		}

		return tx.DeleteAccount(ctx, id)
	})
}

// lockOwned reads the account under a row lock and hides rows owned by
// someone else behind ErrNotFound.
func lockOwned(ctx context.Context, tx Tx, userID, id uuid.UUID) (*Account, error) {
	acc, err := tx.GetAccountForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	if acc.UserID != userID {
		return nil, ErrNotFound
	}

	return acc, nil
}

// inTx runs fn inside a unit of work, replaying it a bounded number of
// times when the store reports a conflicting concurrent update.
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
