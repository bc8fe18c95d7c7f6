package account

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bngy/siminvest/internal/account"
	"github.com/bngy/siminvest/internal/http/middleware"
	"github.com/bngy/siminvest/internal/investment"
)

type Handler struct {
	accounts    *account.Service
	investments *investment.Service
}

func NewHandler(accounts *account.Service, investments *investment.Service) *Handler {
	return &Handler{accounts: accounts, investments: investments}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/transactions", h.transactions)
	r.Get("/{id}/investments", h.investmentsForAccount)
	r.Patch("/{id}/deposit", h.deposit)
	r.Patch("/{id}/withdraw", h.withdraw)
	r.Delete("/{id}", h.delete)
}

type createAccountRequest struct {
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	acc, err := h.accounts.Open(r.Context(), userID, req.Name, req.Balance)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(acc)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	accounts, err := h.accounts.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(accounts)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requestIDs(w, r)
	if !ok {
		return
	}

	acc, err := h.accounts.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(acc)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) transactions(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requestIDs(w, r)
	if !ok {
		return
	}

	txs, err := h.accounts.Transactions(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toTransactionResponseList(txs)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) investmentsForAccount(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requestIDs(w, r)
	if !ok {
		return
	}

	// Ownership check happens on the account; its positions share the owner.
	if _, err := h.accounts.Get(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}

	positions, err := h.investments.ListForAccount(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toPositionSummaryList(positions)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type transactionRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) deposit(w http.ResponseWriter, r *http.Request) {
	h.mutateBalance(w, r, h.accounts.Deposit)
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	h.mutateBalance(w, r, h.accounts.Withdraw)
}

type balanceOp func(ctx context.Context, userID, id uuid.UUID, amount decimal.Decimal) (*account.Account, error)

func (h *Handler) mutateBalance(w http.ResponseWriter, r *http.Request, op balanceOp) {
	userID, id, ok := requestIDs(w, r)
	if !ok {
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	acc, err := op(r.Context(), userID, id, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(acc)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := requestIDs(w, r)
	if !ok {
		return
	}

	if err := h.accounts.Close(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
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

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, account.ErrNotFound):
		http.Error(w, "account not found", http.StatusNotFound)
	case errors.Is(err, account.ErrInvalidParameters):
		http.Error(w, "invalid parameters", http.StatusBadRequest)
	case errors.Is(err, account.ErrInsufficientFunds):
		http.Error(w, "insufficient funds", http.StatusBadRequest)
	case errors.Is(err, account.ErrConflictingUpdate):
		http.Error(w, "conflicting update, retry", http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
