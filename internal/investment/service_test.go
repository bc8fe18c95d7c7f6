package investment_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/bngy/siminvest/internal/account"
	"github.com/bngy/siminvest/internal/investment"
)

var fixedNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func newServiceWithTx(t *testing.T) (*investment.Service, *investment.MockRepository, *investment.MockTx) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := investment.NewMockRepository(ctrl)
	tx := investment.NewMockTx(ctrl)

	repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().Rollback().Return(nil)

	svc := investment.NewService(repo, investment.WithClock(func() time.Time { return fixedNow }))

	return svc, repo, tx
}

func TestService_Simulate_InvalidParameters(t *testing.T) {
	userID := uuid.New()
	accountID := uuid.New()

	valid := investment.SimulateParams{
		AccountID:         accountID,
		Asset:             "MSCI World",
		Amount:            decimal.NewFromInt(1000),
		DurationMonths:    12,
		AnnualRatePercent: decimal.NewFromInt(5),
	}

	type testCase struct {
		name   string
		mutate func(p *investment.SimulateParams)
	}

	tests := []testCase{
		{"ZeroAmount", func(p *investment.SimulateParams) { p.Amount = decimal.Zero }},
		{"NegativeAmount", func(p *investment.SimulateParams) { p.Amount = decimal.NewFromInt(-1) }},
		{"ZeroDuration", func(p *investment.SimulateParams) { p.DurationMonths = 0 }},
		{"ZeroRate", func(p *investment.SimulateParams) { p.AnnualRatePercent = decimal.Zero }},
		{"EmptyAsset", func(p *investment.SimulateParams) { p.Asset = "  " }},
		{"NegativeContribution", func(p *investment.SimulateParams) { p.MonthlyContribution = decimal.NewFromInt(-10) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := investment.NewMockRepository(ctrl)
			svc := investment.NewService(repo)

			params := valid
			tt.mutate(&params)

			_, err := svc.Simulate(context.Background(), userID, params)
			assert.ErrorIs(t, err, investment.ErrInvalidParameters)
		})
	}
}

func TestService_Simulate_UnknownAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := investment.NewMockRepository(ctrl)
	svc := investment.NewService(repo)

	repo.EXPECT().GetAccount(gomock.Any(), gomock.Any()).Return(nil, account.ErrNotFound)

	_, err := svc.Simulate(context.Background(), uuid.New(), investment.SimulateParams{
		AccountID:         uuid.New(),
		Asset:             "MSCI World",
		Amount:            decimal.NewFromInt(1000),
		DurationMonths:    12,
		AnnualRatePercent: decimal.NewFromInt(5),
	})
	assert.ErrorIs(t, err, investment.ErrInvalidParameters)
}

func TestService_Simulate_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := investment.NewMockRepository(ctrl)
	svc := investment.NewService(repo, investment.WithClock(func() time.Time { return fixedNow }))

	userID := uuid.New()
	accountID := uuid.New()

	repo.EXPECT().GetAccount(gomock.Any(), accountID).
		Return(&account.Account{ID: accountID, UserID: userID}, nil)
	repo.EXPECT().CreatePosition(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p *investment.Position) error {
			p.ID = uuid.New()
			return nil
		})

	p, err := svc.Simulate(context.Background(), userID, investment.SimulateParams{
		AccountID:         accountID,
		Asset:             "MSCI World",
		Amount:            decimal.NewFromInt(1000),
		DurationMonths:    12,
		AnnualRatePercent: decimal.NewFromInt(12),
	})
	require.NoError(t, err)

	assert.False(t, p.Confirmed)
	assert.Equal(t, fixedNow, p.SimulatedAt)
	assert.Nil(t, p.ConfirmedAt)
	assert.InDelta(t, 126.82503, p.ExpectedReturn.InexactFloat64(), 0.0001)
}

func TestService_Simulate_OtherUsersAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := investment.NewMockRepository(ctrl)
	svc := investment.NewService(repo)

	accountID := uuid.New()
	repo.EXPECT().GetAccount(gomock.Any(), accountID).
		Return(&account.Account{ID: accountID, UserID: uuid.New()}, nil)

	_, err := svc.Simulate(context.Background(), uuid.New(), investment.SimulateParams{
		AccountID:         accountID,
		Asset:             "MSCI World",
		Amount:            decimal.NewFromInt(1000),
		DurationMonths:    12,
		AnnualRatePercent: decimal.NewFromInt(5),
	})
	assert.ErrorIs(t, err, investment.ErrInvalidParameters)
}

func TestService_Confirm_Success(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	userID := uuid.New()
	positionID := uuid.New()
	accountID := uuid.New()

	p := &investment.Position{
		ID:        positionID,
		UserID:    userID,
		AccountID: accountID,
		Amount:    decimal.NewFromInt(500),
	}
	acc := &account.Account{ID: accountID, UserID: userID, Balance: decimal.NewFromInt(1000)}

	tx.EXPECT().GetPositionForUpdate(gomock.Any(), positionID).Return(p, nil)
	tx.EXPECT().GetAccountForUpdate(gomock.Any(), accountID).Return(acc, nil)
	tx.EXPECT().SaveAccount(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, got *account.Account) error {
			assert.True(t, got.Balance.Equal(decimal.NewFromInt(500)), "account debited by principal")
			return nil
		})
	tx.EXPECT().SavePosition(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, got *investment.Position) error {
			assert.True(t, got.Confirmed)
			assert.Equal(t, 0, got.PaidContributions)
			require.NotNil(t, got.ConfirmedAt)
			assert.Equal(t, fixedNow, *got.ConfirmedAt)
			return nil
		})
	tx.EXPECT().CreateCashTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ct *account.CashTransaction) error {
			assert.Equal(t, account.TypeWithdrawal, ct.Type)
			assert.True(t, ct.Amount.Equal(decimal.NewFromInt(500)))
			return nil
		})
	tx.EXPECT().CreatePositionTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, pt *investment.PositionTransaction) error {
			assert.Equal(t, account.TypeDeposit, pt.Type)
			assert.True(t, pt.Amount.Equal(decimal.NewFromInt(500)))
			return nil
		})
	tx.EXPECT().Commit().Return(nil)

	got, err := svc.Confirm(context.Background(), userID, positionID)
	require.NoError(t, err)
	assert.True(t, got.Confirmed)
}

func TestService_Confirm_AlreadyConfirmed(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	userID := uuid.New()
	positionID := uuid.New()
	anchor := fixedNow.AddDate(0, -2, 0)

	tx.EXPECT().GetPositionForUpdate(gomock.Any(), positionID).Return(&investment.Position{
		ID:          positionID,
		UserID:      userID,
		Confirmed:   true,
		ConfirmedAt: &anchor,
	}, nil)

	_, err := svc.Confirm(context.Background(), userID, positionID)
	assert.ErrorIs(t, err, investment.ErrAlreadyConfirmed)
}

func TestService_Confirm_InsufficientFunds(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	userID := uuid.New()
	positionID := uuid.New()
	accountID := uuid.New()

	tx.EXPECT().GetPositionForUpdate(gomock.Any(), positionID).Return(&investment.Position{
		ID:        positionID,
		UserID:    userID,
		AccountID: accountID,
		Amount:    decimal.NewFromInt(500),
	}, nil)
	tx.EXPECT().GetAccountForUpdate(gomock.Any(), accountID).Return(&account.Account{
		ID:      accountID,
		UserID:  userID,
		Balance: decimal.NewFromInt(499),
	}, nil)

	_, err := svc.Confirm(context.Background(), userID, positionID)
	assert.ErrorIs(t, err, investment.ErrInsufficientFunds)
}

func TestService_Confirm_NotOwned(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	positionID := uuid.New()

	tx.EXPECT().GetPositionForUpdate(gomock.Any(), positionID).Return(&investment.Position{
		ID:     positionID,
		UserID: uuid.New(),
	}, nil)

	_, err := svc.Confirm(context.Background(), uuid.New(), positionID)
	assert.ErrorIs(t, err, investment.ErrNotFound)
}

func confirmedPosition(userID, accountID uuid.UUID, monthsSinceConfirm int) *investment.Position {
	anchor := addUTCMonths(fixedNow, -monthsSinceConfirm)

	return &investment.Position{
		ID:             uuid.New(),
		UserID:         userID,
		AccountID:      accountID,
		Asset:          "MSCI World",
		Amount:         decimal.NewFromInt(500),
		DurationMonths: 12,
		Confirmed:      true,
		ConfirmedAt:    &anchor,
	}
}

func addUTCMonths(t time.Time, months int) time.Time {
	return t.AddDate(0, months, 0)
}

func TestService_Withdraw_LockedPeriod(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	userID := uuid.New()
	accountID := uuid.New()

	// Confirmed 5 months ago with a 12-month duration: locked until month 6.
	p := confirmedPosition(userID, accountID, 5)

	tx.EXPECT().GetPositionForUpdate(gomock.Any(), p.ID).Return(p, nil)

	_, err := svc.Withdraw(context.Background(), userID, p.ID, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, investment.ErrLockedPeriod)
}

func TestService_Withdraw_AfterLock(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	userID := uuid.New()
	accountID := uuid.New()

	p := confirmedPosition(userID, accountID, 6)
	acc := &account.Account{ID: accountID, UserID: userID, Balance: decimal.NewFromInt(50)}

	tx.EXPECT().GetPositionForUpdate(gomock.Any(), p.ID).Return(p, nil)
	tx.EXPECT().GetAccountForUpdate(gomock.Any(), accountID).Return(acc, nil)
	tx.EXPECT().SaveAccount(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, got *account.Account) error {
			assert.True(t, got.Balance.Equal(decimal.NewFromInt(250)), "account credited by withdrawal")
			return nil
		})
	tx.EXPECT().SavePosition(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, got *investment.Position) error {
			assert.True(t, got.Amount.Equal(decimal.NewFromInt(300)), "principal debited by withdrawal")
			return nil
		})
	tx.EXPECT().CreateCashTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ct *account.CashTransaction) error {
			assert.Equal(t, account.TypeDeposit, ct.Type)
			return nil
		})
	tx.EXPECT().CreatePositionTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, pt *investment.PositionTransaction) error {
			assert.Equal(t, account.TypeWithdrawal, pt.Type)
			return nil
		})
	tx.EXPECT().Commit().Return(nil)

	got, err := svc.Withdraw(context.Background(), userID, p.ID, decimal.NewFromInt(200))
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(300)))
}

func TestService_Withdraw_MoreThanPrincipal(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	userID := uuid.New()
	p := confirmedPosition(userID, uuid.New(), 7)

	tx.EXPECT().GetPositionForUpdate(gomock.Any(), p.ID).Return(p, nil)

	_, err := svc.Withdraw(context.Background(), userID, p.ID, decimal.NewFromInt(501))
	assert.ErrorIs(t, err, investment.ErrInvalidParameters)
}

func TestService_Withdraw_NotConfirmed(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	userID := uuid.New()
	positionID := uuid.New()

	tx.EXPECT().GetPositionForUpdate(gomock.Any(), positionID).Return(&investment.Position{
		ID:     positionID,
		UserID: userID,
		Amount: decimal.NewFromInt(500),
	}, nil)

	_, err := svc.Withdraw(context.Background(), userID, positionID, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, investment.ErrNotConfirmed)
}

func TestService_Deposit_InsufficientFunds(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	userID := uuid.New()
	accountID := uuid.New()
	p := confirmedPosition(userID, accountID, 1)

	tx.EXPECT().GetPositionForUpdate(gomock.Any(), p.ID).Return(p, nil)
	tx.EXPECT().GetAccountForUpdate(gomock.Any(), accountID).Return(&account.Account{
		ID:      accountID,
		UserID:  userID,
		Balance: decimal.NewFromInt(10),
	}, nil)

	_, err := svc.Deposit(context.Background(), userID, p.ID, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, investment.ErrInsufficientFunds)
}

func TestService_Close_ConfirmedReturnsFunds(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	userID := uuid.New()
	accountID := uuid.New()
	p := confirmedPosition(userID, accountID, 3)
	acc := &account.Account{ID: accountID, UserID: userID, Balance: decimal.NewFromInt(100)}

	tx.EXPECT().GetPositionForUpdate(gomock.Any(), p.ID).Return(p, nil)
	tx.EXPECT().GetAccountForUpdate(gomock.Any(), accountID).Return(acc, nil)
	tx.EXPECT().SaveAccount(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, got *account.Account) error {
			assert.True(t, got.Balance.Equal(decimal.NewFromInt(600)), "principal returned to account")
			return nil
		})
	tx.EXPECT().CreateCashTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ct *account.CashTransaction) error {
			assert.Equal(t, account.TypeDeposit, ct.Type)
			assert.True(t, ct.Amount.Equal(decimal.NewFromInt(500)))
			return nil
		})
	tx.EXPECT().DeletePosition(gomock.Any(), p.ID).Return(nil)
	tx.EXPECT().Commit().Return(nil)

	fundsReturned, err := svc.Close(context.Background(), userID, p.ID)
	require.NoError(t, err)
	assert.True(t, fundsReturned)
}

func TestService_Close_SimulatedMovesNoFunds(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	userID := uuid.New()
	positionID := uuid.New()

	tx.EXPECT().GetPositionForUpdate(gomock.Any(), positionID).Return(&investment.Position{
		ID:     positionID,
		UserID: userID,
		Amount: decimal.NewFromInt(500),
	}, nil)
	tx.EXPECT().DeletePosition(gomock.Any(), positionID).Return(nil)
	tx.EXPECT().Commit().Return(nil)

	fundsReturned, err := svc.Close(context.Background(), userID, positionID)
	require.NoError(t, err)
	assert.False(t, fundsReturned)
}

func TestService_ApplyContribution_Due(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	userID := uuid.New()
	accountID := uuid.New()

	p := confirmedPosition(userID, accountID, 3)
	p.MonthlyContribution = decimal.NewFromInt(100)
	p.PaidContributions = 2

	acc := &account.Account{ID: accountID, UserID: userID, Balance: decimal.NewFromInt(1000)}

	tx.EXPECT().GetPositionForUpdate(gomock.Any(), p.ID).Return(p, nil)
	tx.EXPECT().GetAccountForUpdate(gomock.Any(), accountID).Return(acc, nil)
	tx.EXPECT().SaveAccount(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, got *account.Account) error {
			assert.True(t, got.Balance.Equal(decimal.NewFromInt(900)))
			return nil
		})
	tx.EXPECT().SavePosition(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, got *investment.Position) error {
			assert.Equal(t, 3, got.PaidContributions)
			assert.True(t, got.Amount.Equal(decimal.NewFromInt(600)))
			return nil
		})
	tx.EXPECT().CreateCashTransaction(gomock.Any(), gomock.Any()).Return(nil)
	tx.EXPECT().CreatePositionTransaction(gomock.Any(), gomock.Any()).Return(nil)
	tx.EXPECT().Commit().Return(nil)

	err := svc.ApplyContribution(context.Background(), p.ID, fixedNow)
	require.NoError(t, err)
}

func TestService_ApplyContribution_AlreadyCurrent(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	p := confirmedPosition(uuid.New(), uuid.New(), 3)
	p.MonthlyContribution = decimal.NewFromInt(100)
	p.PaidContributions = 3

	tx.EXPECT().GetPositionForUpdate(gomock.Any(), p.ID).Return(p, nil)

	err := svc.ApplyContribution(context.Background(), p.ID, fixedNow)
	assert.ErrorIs(t, err, investment.ErrContributionNotDue)
}

func TestService_ApplyContribution_Underfunded(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	accountID := uuid.New()
	p := confirmedPosition(uuid.New(), accountID, 2)
	p.MonthlyContribution = decimal.NewFromInt(100)

	tx.EXPECT().GetPositionForUpdate(gomock.Any(), p.ID).Return(p, nil)
	tx.EXPECT().GetAccountForUpdate(gomock.Any(), accountID).Return(&account.Account{
		ID:      accountID,
		Balance: decimal.NewFromInt(99),
	}, nil)

	err := svc.ApplyContribution(context.Background(), p.ID, fixedNow)
	assert.ErrorIs(t, err, investment.ErrInsufficientFunds)
}

func TestService_ApplyContribution_NoContributionConfigured(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	p := confirmedPosition(uuid.New(), uuid.New(), 2)

	tx.EXPECT().GetPositionForUpdate(gomock.Any(), p.ID).Return(p, nil)

	err := svc.ApplyContribution(context.Background(), p.ID, fixedNow)
	assert.ErrorIs(t, err, investment.ErrContributionNotDue)
}

func TestService_ConflictRetryExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := investment.NewMockRepository(ctrl)
	svc := investment.NewService(repo)

	userID := uuid.New()
	positionID := uuid.New()

	// Every attempt loses to a concurrent update; the error surfaces after
	// the bounded retries are spent.
	for i := 0; i < 3; i++ {
		tx := investment.NewMockTx(ctrl)
		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetPositionForUpdate(gomock.Any(), positionID).
			Return(nil, investment.ErrConflictingUpdate)
		tx.EXPECT().Rollback().Return(nil)
	}

	_, err := svc.Confirm(context.Background(), userID, positionID)
	assert.ErrorIs(t, err, investment.ErrConflictingUpdate)
}
