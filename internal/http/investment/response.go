package investment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bngy/siminvest/internal/account"
	"github.com/bngy/siminvest/internal/investment"
)

type positionResponse struct {
	ID                  uuid.UUID       `json:"id"`
	AccountID           uuid.UUID       `json:"account_id"`
	Asset               string          `json:"asset"`
	Amount              decimal.Decimal `json:"amount"`
	DurationMonths      int             `json:"duration_months"`
	AnnualRatePercent   decimal.Decimal `json:"annual_rate_percent"`
	MonthlyContribution decimal.Decimal `json:"monthly_contribution"`
	ExpectedReturn      decimal.Decimal `json:"expected_return"`
	Confirmed           bool            `json:"confirmed"`
	SimulatedAt         time.Time       `json:"simulated_at"`
	ConfirmedAt         *time.Time      `json:"confirmed_at,omitempty"`
	PaidContributions   int             `json:"paid_contributions"`
}

type transactionResponse struct {
	ID         uuid.UUID               `json:"id"`
	PositionID uuid.UUID               `json:"position_id"`
	Type       account.TransactionType `json:"type"`
	Amount     decimal.Decimal         `json:"amount"`
	Timestamp  time.Time               `json:"timestamp"`
}

func toResponse(p *investment.Position) positionResponse {
	return positionResponse{
		ID:                  p.ID,
		AccountID:           p.AccountID,
		Asset:               p.Asset,
		Amount:              p.Amount,
		DurationMonths:      p.DurationMonths,
		AnnualRatePercent:   p.AnnualRatePercent,
		MonthlyContribution: p.MonthlyContribution,
		ExpectedReturn:      p.ExpectedReturn,
		Confirmed:           p.Confirmed,
		SimulatedAt:         p.SimulatedAt,
		ConfirmedAt:         p.ConfirmedAt,
		PaidContributions:   p.PaidContributions,
	}
}

func toResponseList(positions []*investment.Position) []positionResponse {
	resp := make([]positionResponse, len(positions))
	for i, p := range positions {
		resp[i] = toResponse(p)
	}

	return resp
}

func toTransactionResponseList(txs []*investment.PositionTransaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, pt := range txs {
		resp[i] = transactionResponse{
			ID:         pt.ID,
			PositionID: pt.PositionID,
			Type:       pt.Type,
			Amount:     pt.Amount,
			Timestamp:  pt.Timestamp,
		}
	}

	return resp
}
