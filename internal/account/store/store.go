package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bngy/siminvest/internal/account"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectAccountColumns = `id, user_id, name, balance, last_interest_applied_at, created_at`

func scanAccount(s scanner) (*account.Account, error) {
	var acc account.Account

	if err := s.Scan(
		&acc.ID, &acc.UserID, &acc.Name, &acc.Balance, &acc.LastInterestAppliedAt, &acc.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &acc, nil
}

func scanTransaction(s scanner) (*account.CashTransaction, error) {
	var ct account.CashTransaction

	var typeStr string

	if err := s.Scan(&ct.ID, &ct.AccountID, &typeStr, &ct.Amount, &ct.Timestamp); err != nil {
		return nil, err
	}

	ct.Type = account.TransactionType(typeStr)

	return &ct, nil
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + selectAccountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrNotFound
		}

		return nil, fmt.Errorf("getting account: %w", err)
	}

	return acc, nil
}

func (s *Store) ListAccounts(ctx context.Context, userID uuid.UUID) ([]*account.Account, error) {
	query := `SELECT ` + selectAccountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account

	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}

		accounts = append(accounts, acc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating account rows: %w", err)
	}

	return accounts, nil
}

func (s *Store) ListTransactions(ctx context.Context, accountID uuid.UUID) ([]*account.CashTransaction, error) {
	query := `
		SELECT id, account_id, type, amount, timestamp
		FROM cash_transactions
		WHERE account_id = $1
		ORDER BY timestamp ASC
	`

	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*account.CashTransaction

	for rows.Next() {
		ct, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, ct)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}

	return txs, nil
}

func (s *Store) Begin(ctx context.Context) (account.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning account tx: %w", err)
	}

	return &accountTx{tx: dbTx}, nil
}

type accountTx struct {
	tx *sql.Tx
}

func (t *accountTx) Commit() error   { return mapConflict(t.tx.Commit()) }
func (t *accountTx) Rollback() error { return t.tx.Rollback() }

func (t *accountTx) CreateAccount(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (user_id, name, balance, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`

	err := t.tx.QueryRowContext(ctx, query, acc.UserID, acc.Name, acc.Balance).
		Scan(&acc.ID, &acc.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating account: %w", mapConflict(err))
	}

	return nil
}

func (t *accountTx) GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + selectAccountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	acc, err := scanAccount(t.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrNotFound
		}

		return nil, fmt.Errorf("locking account: %w", mapConflict(err))
	}

	return acc, nil
}

func (t *accountTx) SaveAccount(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts
		SET name = $1, balance = $2, last_interest_applied_at = $3
		WHERE id = $4
	`

	_, err := t.tx.ExecContext(ctx, query, acc.Name, acc.Balance, acc.LastInterestAppliedAt, acc.ID)
	if err != nil {
		return fmt.Errorf("saving account: %w", mapConflict(err))
	}

	return nil
}

func (t *accountTx) CreateTransaction(ctx context.Context, ct *account.CashTransaction) error {
	query := `
		INSERT INTO cash_transactions (account_id, type, amount, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := t.tx.QueryRowContext(ctx, query, ct.AccountID, ct.Type, ct.Amount, ct.Timestamp).
		Scan(&ct.ID)
	if err != nil {
		return fmt.Errorf("creating cash transaction: %w", mapConflict(err))
	}

	return nil
}

func (t *accountTx) FirstDeposit(ctx context.Context, accountID uuid.UUID) (*account.CashTransaction, error) {
	query := `
		SELECT id, account_id, type, amount, timestamp
		FROM cash_transactions
		WHERE account_id = $1 AND type = $2
		ORDER BY timestamp ASC
		LIMIT 1
	`

	ct, err := scanTransaction(t.tx.QueryRowContext(ctx, query, accountID, account.TypeDeposit))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("finding first deposit: %w", mapConflict(err))
	}

	return ct, nil
}

// DeleteAccount relies on ON DELETE CASCADE foreign keys to remove the
// account's transactions, positions, and position transactions with it.
func (t *accountTx) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting account: %w", mapConflict(err))
	}

	return nil
}

// mapConflict turns Postgres serialization failures and deadlocks into the
// domain's retryable conflict error.
func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return account.ErrConflictingUpdate
		}
	}

	return err
}
