package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bngy/siminvest/internal/account"
	"github.com/bngy/siminvest/internal/investment"
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

const selectPositionColumns = `
	id, user_id, account_id, asset, amount, duration_months, annual_rate_percent,
	monthly_contribution, expected_return, confirmed, simulated_at, confirmed_at, paid_contributions
`

func scanPosition(s scanner) (*investment.Position, error) {
	var p investment.Position

	if err := s.Scan(
		&p.ID, &p.UserID, &p.AccountID, &p.Asset, &p.Amount, &p.DurationMonths, &p.AnnualRatePercent,
		&p.MonthlyContribution, &p.ExpectedReturn, &p.Confirmed, &p.SimulatedAt, &p.ConfirmedAt, &p.PaidContributions,
	); err != nil {
		return nil, err
	}

	return &p, nil
}

func (s *Store) CreatePosition(ctx context.Context, p *investment.Position) error {
	query := `
		INSERT INTO positions (
			user_id, account_id, asset, amount, duration_months, annual_rate_percent,
			monthly_contribution, expected_return, confirmed, simulated_at, paid_contributions
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		p.UserID, p.AccountID, p.Asset, p.Amount, p.DurationMonths, p.AnnualRatePercent,
		p.MonthlyContribution, p.ExpectedReturn, p.Confirmed, p.SimulatedAt, p.PaidContributions,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("creating position: %w", err)
	}

	return nil
}

func (s *Store) GetPosition(ctx context.Context, id uuid.UUID) (*investment.Position, error) {
	query := `SELECT ` + selectPositionColumns + ` FROM positions WHERE id = $1`

	p, err := scanPosition(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, investment.ErrNotFound
		}

		return nil, fmt.Errorf("getting position: %w", err)
	}

	return p, nil
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT id, user_id, name, balance, last_interest_applied_at, created_at FROM accounts WHERE id = $1`

	var acc account.Account

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&acc.ID, &acc.UserID, &acc.Name, &acc.Balance, &acc.LastInterestAppliedAt, &acc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrNotFound
		}

		return nil, fmt.Errorf("getting account: %w", err)
	}

	return &acc, nil
}

func (s *Store) ListByUser(ctx context.Context, userID uuid.UUID) ([]*investment.Position, error) {
	query := `SELECT ` + selectPositionColumns + ` FROM positions WHERE user_id = $1 ORDER BY simulated_at ASC`

	return s.listPositions(ctx, query, userID)
}

func (s *Store) ListByUserConfirmed(ctx context.Context, userID uuid.UUID, confirmed bool) ([]*investment.Position, error) {
	query := `SELECT ` + selectPositionColumns + ` FROM positions WHERE user_id = $1 AND confirmed = $2 ORDER BY simulated_at ASC`

	return s.listPositions(ctx, query, userID, confirmed)
}

func (s *Store) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*investment.Position, error) {
	query := `SELECT ` + selectPositionColumns + ` FROM positions WHERE account_id = $1 ORDER BY simulated_at ASC`

	return s.listPositions(ctx, query, accountID)
}

func (s *Store) ListConfirmed(ctx context.Context) ([]*investment.Position, error) {
	query := `SELECT ` + selectPositionColumns + ` FROM positions WHERE confirmed = TRUE ORDER BY confirmed_at ASC`

	return s.listPositions(ctx, query)
}

func (s *Store) listPositions(ctx context.Context, query string, args ...any) ([]*investment.Position, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing positions: %w", err)
	}
	defer rows.Close()

	var positions []*investment.Position

	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning position: %w", err)
		}

		positions = append(positions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating position rows: %w", err)
	}

	return positions, nil
}

func (s *Store) ListTransactions(ctx context.Context, positionID uuid.UUID) ([]*investment.PositionTransaction, error) {
	query := `
		SELECT id, position_id, type, amount, timestamp
		FROM position_transactions
		WHERE position_id = $1
		ORDER BY timestamp ASC
	`

	rows, err := s.db.QueryContext(ctx, query, positionID)
	if err != nil {
		return nil, fmt.Errorf("listing position transactions: %w", err)
	}
	defer rows.Close()

	var txs []*investment.PositionTransaction

	for rows.Next() {
		var pt investment.PositionTransaction

		var typeStr string

		if err := rows.Scan(&pt.ID, &pt.PositionID, &typeStr, &pt.Amount, &pt.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning position transaction: %w", err)
		}

		pt.Type = account.TransactionType(typeStr)
		txs = append(txs, &pt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating position transaction rows: %w", err)
	}

	return txs, nil
}

func (s *Store) Begin(ctx context.Context) (investment.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning investment tx: %w", err)
	}

	return &investmentTx{tx: dbTx}, nil
}

type investmentTx struct {
	tx *sql.Tx
}

func (t *investmentTx) Commit() error   { return mapConflict(t.tx.Commit()) }
func (t *investmentTx) Rollback() error { return t.tx.Rollback() }

func (t *investmentTx) GetPositionForUpdate(ctx context.Context, id uuid.UUID) (*investment.Position, error) {
	query := `SELECT ` + selectPositionColumns + ` FROM positions WHERE id = $1 FOR UPDATE`

	p, err := scanPosition(t.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, investment.ErrNotFound
		}

		return nil, fmt.Errorf("locking position: %w", mapConflict(err))
	}

	return p, nil
}

func (t *investmentTx) GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT id, user_id, name, balance, last_interest_applied_at, created_at FROM accounts WHERE id = $1 FOR UPDATE`

	var acc account.Account

	err := t.tx.QueryRowContext(ctx, query, id).Scan(
		&acc.ID, &acc.UserID, &acc.Name, &acc.Balance, &acc.LastInterestAppliedAt, &acc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrNotFound
		}

		return nil, fmt.Errorf("locking account: %w", mapConflict(err))
	}

	return &acc, nil
}

func (t *investmentTx) SavePosition(ctx context.Context, p *investment.Position) error {
	query := `
		UPDATE positions
		SET amount = $1, confirmed = $2, confirmed_at = $3, paid_contributions = $4
		WHERE id = $5
	`

	_, err := t.tx.ExecContext(ctx, query, p.Amount, p.Confirmed, p.ConfirmedAt, p.PaidContributions, p.ID)
	if err != nil {
		return fmt.Errorf("saving position: %w", mapConflict(err))
	}

	return nil
}

func (t *investmentTx) SaveAccount(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts
		SET balance = $1, last_interest_applied_at = $2
		WHERE id = $3
	`

	_, err := t.tx.ExecContext(ctx, query, acc.Balance, acc.LastInterestAppliedAt, acc.ID)
	if err != nil {
		return fmt.Errorf("saving account: %w", mapConflict(err))
	}

	return nil
}

func (t *investmentTx) CreateCashTransaction(ctx context.Context, ct *account.CashTransaction) error {
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

func (t *investmentTx) CreatePositionTransaction(ctx context.Context, pt *investment.PositionTransaction) error {
	query := `
		INSERT INTO position_transactions (position_id, type, amount, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := t.tx.QueryRowContext(ctx, query, pt.PositionID, pt.Type, pt.Amount, pt.Timestamp).
		Scan(&pt.ID)
	if err != nil {
		return fmt.Errorf("creating position transaction: %w", mapConflict(err))
	}

	return nil
}

// DeletePosition removes the position; its transaction history goes with it
// via ON DELETE CASCADE.
func (t *investmentTx) DeletePosition(ctx context.Context, id uuid.UUID) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM positions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting position: %w", mapConflict(err))
	}

	return nil
}

func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return investment.ErrConflictingUpdate
		}
	}

	return err
}
