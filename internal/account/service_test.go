package account_test

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
)

var fixedNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

var defaultRate = decimal.NewFromFloat(0.04)

func newServiceWithTx(t *testing.T) (*account.Service, *account.MockRepository, *account.MockTx) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := account.NewMockRepository(ctrl)
	tx := account.NewMockTx(ctrl)

	repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().Rollback().Return(nil)

	svc := account.NewService(repo, defaultRate, account.WithClock(func() time.Time { return fixedNow }))

	return svc, repo, tx
}

func TestService_Open_InvalidParameters(t *testing.T) {
	tests := []struct {
		name    string
		accName string
		balance decimal.Decimal
	}{
		{"EmptyName", "  ", decimal.NewFromInt(100)},
		{"NegativeBalance", "Savings", decimal.NewFromInt(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := account.NewMockRepository(ctrl)
			svc := account.NewService(repo, defaultRate)

			_, err := svc.Open(context.Background(), uuid.New(), tt.accName, tt.balance)
			assert.ErrorIs(t, err, account.ErrInvalidParameters)
		})
	}
}

func TestService_Open_SeedsInitialDeposit(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	userID := uuid.New()
	accountID := uuid.New()

	tx.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, acc *account.Account) error {
			acc.ID = accountID
			acc.CreatedAt = fixedNow
			return nil
		})
	tx.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ct *account.CashTransaction) error {
			assert.Equal(t, accountID, ct.AccountID)
			assert.Equal(t, account.TypeDeposit, ct.Type)
			assert.True(t, ct.Amount.Equal(decimal.NewFromInt(750)))
			return nil
		})
	tx.EXPECT().Commit().Return(nil)

	acc, err := svc.Open(context.Background(), userID, "Savings", decimal.NewFromInt(750))
	require.NoError(t, err)
	assert.Equal(t, accountID, acc.ID)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(750)))
}

func TestService_Open_ZeroBalanceSkipsSeedTransaction(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	tx.EXPECT().CreateAccount(gomock.Any(), gomock.Any()).Return(nil)
	tx.EXPECT().Commit().Return(nil)

	_, err := svc.Open(context.Background(), uuid.New(), "Savings", decimal.Zero)
	require.NoError(t, err)
}

func TestService_Get_HidesOtherUsersAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := account.NewMockRepository(ctrl)
	svc := account.NewService(repo, defaultRate)

	accountID := uuid.New()
	repo.EXPECT().GetAccount(gomock.Any(), accountID).
		Return(&account.Account{ID: accountID, UserID: uuid.New()}, nil)

	_, err := svc.Get(context.Background(), uuid.New(), accountID)
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestService_Deposit(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	userID := uuid.New()
	accountID := uuid.New()

	tx.EXPECT().GetAccountForUpdate(gomock.Any(), accountID).Return(&account.Account{
		ID:      accountID,
		UserID:  userID,
		Balance: decimal.NewFromInt(100),
	}, nil)
	tx.EXPECT().SaveAccount(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, acc *account.Account) error {
			assert.True(t, acc.Balance.Equal(decimal.NewFromInt(130)))
			return nil
		})
	tx.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ct *account.CashTransaction) error {
			assert.Equal(t, account.TypeDeposit, ct.Type)
			assert.True(t, ct.Amount.Equal(decimal.NewFromInt(30)))
			return nil
		})
	tx.EXPECT().Commit().Return(nil)

	acc, err := svc.Deposit(context.Background(), userID, accountID, decimal.NewFromInt(30))
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(130)))
}

func TestService_Deposit_NonPositiveAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := account.NewMockRepository(ctrl)
	svc := account.NewService(repo, defaultRate)

	_, err := svc.Deposit(context.Background(), uuid.New(), uuid.New(), decimal.Zero)
	assert.ErrorIs(t, err, account.ErrInvalidParameters)
}

func TestService_Withdraw(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	userID := uuid.New()
	accountID := uuid.New()

	tx.EXPECT().GetAccountForUpdate(gomock.Any(), accountID).Return(&account.Account{
		ID:      accountID,
		UserID:  userID,
		Balance: decimal.NewFromInt(100),
	}, nil)
	tx.EXPECT().SaveAccount(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, acc *account.Account) error {
			assert.True(t, acc.Balance.Equal(decimal.NewFromInt(60)))
			return nil
		})
	tx.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ct *account.CashTransaction) error {
			assert.Equal(t, account.TypeWithdrawal, ct.Type)
			assert.True(t, ct.Amount.Equal(decimal.NewFromInt(40)))
			return nil
		})
	tx.EXPECT().Commit().Return(nil)

	acc, err := svc.Withdraw(context.Background(), userID, accountID, decimal.NewFromInt(40))
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(60)))
}

func TestService_Withdraw_InsufficientFunds(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	userID := uuid.New()
	accountID := uuid.New()

	tx.EXPECT().GetAccountForUpdate(gomock.Any(), accountID).Return(&account.Account{
		ID:      accountID,
		UserID:  userID,
		Balance: decimal.NewFromInt(39),
	}, nil)

	_, err := svc.Withdraw(context.Background(), userID, accountID, decimal.NewFromInt(40))
	assert.ErrorIs(t, err, account.ErrInsufficientFunds)
}

func TestService_Withdraw_NotOwned(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	accountID := uuid.New()

	tx.EXPECT().GetAccountForUpdate(gomock.Any(), accountID).Return(&account.Account{
		ID:      accountID,
		UserID:  uuid.New(),
		Balance: decimal.NewFromInt(100),
	}, nil)

	_, err := svc.Withdraw(context.Background(), uuid.New(), accountID, decimal.NewFromInt(40))
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestService_Close(t *testing.T) {
	svc, _, tx := newServiceWithTx(t)

	userID := uuid.New()
	accountID := uuid.New()

	tx.EXPECT().GetAccountForUpdate(gomock.Any(), accountID).Return(&account.Account{
		ID:     accountID,
		UserID: userID,
	}, nil)
	tx.EXPECT().DeleteAccount(gomock.Any(), accountID).Return(nil)
	tx.EXPECT().Commit().Return(nil)

	err := svc.Close(context.Background(), userID, accountID)
	require.NoError(t, err)
}

func TestCashTransaction_Signed(t *testing.T) {
	deposit := account.CashTransaction{Type: account.TypeDeposit, Amount: decimal.NewFromInt(100)}
	withdrawal := account.CashTransaction{Type: account.TypeWithdrawal, Amount: decimal.NewFromInt(30)}

	net := deposit.Signed().Add(withdrawal.Signed())
	assert.True(t, net.Equal(decimal.NewFromInt(70)))
}

func TestService_ConflictRetryExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := account.NewMockRepository(ctrl)
	svc := account.NewService(repo, defaultRate)

	userID := uuid.New()
	accountID := uuid.New()

	for i := 0; i < 3; i++ {
		tx := account.NewMockTx(ctrl)
		repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
		tx.EXPECT().GetAccountForUpdate(gomock.Any(), accountID).
			Return(nil, account.ErrConflictingUpdate)
		tx.EXPECT().Rollback().Return(nil)
	}

	_, err := svc.Deposit(context.Background(), userID, accountID, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, account.ErrConflictingUpdate)
}
