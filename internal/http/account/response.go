package account

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bngy/siminvest/internal/account"
	"github.com/bngy/siminvest/internal/investment"
)

type accountResponse struct {
	ID                    uuid.UUID       `json:"id"`
	Name                  string          `json:"name"`
	Balance               decimal.Decimal `json:"balance"`
	LastInterestAppliedAt *time.Time      `json:"last_interest_applied_at,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}

type transactionResponse struct {
	ID        uuid.UUID               `json:"id"`
	AccountID uuid.UUID               `json:"account_id"`
	Type      account.TransactionType `json:"type"`
	Amount    decimal.Decimal         `json:"amount"`
	Timestamp time.Time               `json:"timestamp"`
}

func toResponse(acc *account.Account) accountResponse {
	return accountResponse{
		ID:                    acc.ID,
		Name:                  acc.Name,
		Balance:               acc.Balance,
		LastInterestAppliedAt: acc.LastInterestAppliedAt,
		CreatedAt:             acc.CreatedAt,
	}
}

func toResponseList(accounts []*account.Account) []accountResponse {
	resp := make([]accountResponse, len(accounts))
	for i, acc := range accounts {
		resp[i] = toResponse(acc)
	}

	return resp
}

func toTransactionResponse(ct *account.CashTransaction) transactionResponse {
	return transactionResponse{
		ID:        ct.ID,
		AccountID: ct.AccountID,
		Type:      ct.Type,
		Amount:    ct.Amount,
		Timestamp: ct.Timestamp,
	}
}

func toTransactionResponseList(txs []*account.CashTransaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, ct := range txs {
		resp[i] = toTransactionResponse(ct)
	}

	return resp
}

// positionSummary is the account view of an investment position.
type positionSummary struct {
	ID                  uuid.UUID       `json:"id"`
	Asset               string          `json:"asset"`
	Amount              decimal.Decimal `json:"amount"`
	DurationMonths      int             `json:"duration_months"`
	AnnualRatePercent   decimal.Decimal `json:"annual_rate_percent"`
	MonthlyContribution decimal.Decimal `json:"monthly_contribution"`
	ExpectedReturn      decimal.Decimal `json:"expected_return"`
	Confirmed           bool            `json:"confirmed"`
}

func toPositionSummaryList(positions []*investment.Position) []positionSummary {
	resp := make([]positionSummary, len(positions))
	for i, p := range positions {
		resp[i] = positionSummary{
			ID:                  p.ID,
			Asset:               p.Asset,
			Amount:              p.Amount,
			DurationMonths:      p.DurationMonths,
			AnnualRatePercent:   p.AnnualRatePercent,
			MonthlyContribution: p.MonthlyContribution,
			ExpectedReturn:      p.ExpectedReturn,
			Confirmed:           p.Confirmed,
		}
	}

	return resp
}
