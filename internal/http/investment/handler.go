package investment

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bngy/siminvest/internal/http/middleware"
	"github.com/bngy/siminvest/internal/investment"
)

type Handler struct {
	svc *investment.Service
}

func NewHandler(svc *investment.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.simulate)
	r.Get("/", h.list)
	r.Get("/confirmed", h.listConfirmed)
	r.Get("/unconfirmed", h.listUnconfirmed)
	r.Get("/{id}", h.get)
	r.Get("/{id}/transactions", h.transactions)
	r.Patch("/{id}/confirm", h.confirm)
	r.Post("/{id}/deposit", h.deposit)
	r.Post("/{id}/withdraw", h.withdraw)
	r.Delete("/{id}", h.close)
}

type simulateRequest struct {
	AccountID           uuid.UUID       `json:"account_id"`
	Asset               string          `json:"asset"`
	Amount              decimal.Decimal `json:"amount"`
	DurationMonths      int             `json:"duration_months"`
	InterestRate        decimal.Decimal `json:"interest_rate"`
	MonthlyContribution decimal.Decimal `json:"monthly_contribution"`
}

func (h *Handler) simulate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.svc.Simulate(r.Context(), userID, investment.SimulateParams{
		AccountID:           req.AccountID,
		Asset:               req.Asset,
		Amount:              req.Amount,
		DurationMonths:      req.DurationMonths,
		AnnualRatePercent:   req.InterestRate,
		MonthlyContribution: req.MonthlyContribution,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(p)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	positions, err := h.svc.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, toResponseList(positions))
}

func (h *Handler) listConfirmed(w http.ResponseWriter, r *http.Request) {
	h.listByConfirmation(w, r, true)
}

func (h *Handler) listUnconfirmed(w http.ResponseWriter, r *http.Request) {
	h.listByConfirmation(w, r, false)
}

func (h *Handler) listByConfirmation(w http.ResponseWriter, r *http.Request, confirmed bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	positions, err := h.svc.ListForUserConfirmed(r.Context(), userID, confirmed)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, toResponseList(positions))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requestIDs(w, r)
	if !ok {
		return
	}

	p, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, toResponse(p))
}

func (h *Handler) transactions(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requestIDs(w, r)
	if !ok {
		return
	}

	txs, err := h.svc.Transactions(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, toTransactionResponseList(txs))
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requestIDs(w, r)
	if !ok {
		return
	}

	p, err := h.svc.Confirm(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, toResponse(p))
}

type transferRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) deposit(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requestIDs(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.svc.Deposit(r.Context(), userID, id, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, toResponse(p))
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requestIDs(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.svc.Withdraw(r.Context(), userID, id, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, toResponse(p))
}

type closeResponse struct {
	FundsReturned bool `json:"funds_returned"`
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requestIDs(w, r)
	if !ok {
		return
	}

	fundsReturned, err := h.svc.Close(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, closeResponse{FundsReturned: fundsReturned})
}

func requestIDs(w http.ResponseWriter, r *http.Request) (userID, id uuid.UUID, ok bool) {
	userID, ok = middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}

	return userID, id, true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, investment.ErrNotFound):
		http.Error(w, "position not found", http.StatusNotFound)
	case errors.Is(err, investment.ErrInvalidParameters):
		http.Error(w, "invalid parameters", http.StatusBadRequest)
	case errors.Is(err, investment.ErrInsufficientFunds):
		http.Error(w, "insufficient funds", http.StatusBadRequest)
	case errors.Is(err, investment.ErrAlreadyConfirmed):
		http.Error(w, "position already confirmed", http.StatusBadRequest)
	case errors.Is(err, investment.ErrNotConfirmed):
		http.Error(w, "position not confirmed", http.StatusBadRequest)
	case errors.Is(err, investment.ErrLockedPeriod):
		http.Error(w, "withdrawals are locked for the first half of the duration", http.StatusBadRequest)
	case errors.Is(err, investment.ErrConflictingUpdate):
		http.Error(w, "conflicting update, retry", http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
