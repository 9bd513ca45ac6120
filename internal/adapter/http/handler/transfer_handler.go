package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/bankcore/internal/adapter/http/dto"
	"github.com/iho/bankcore/internal/domain"
	"github.com/iho/bankcore/internal/usecase"
)

// TransferService defines the engine behavior needed by TransferHandler.
type TransferService interface {
	Transfer(ctx context.Context, senderID, receiverID string, amount decimal.Decimal) (*usecase.TransferResult, error)
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*usecase.TransferResult, error)
	Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (*usecase.TransferResult, error)
}

// TransferQueryService defines transfer record lookups.
type TransferQueryService interface {
	GetTransfer(ctx context.Context, id string) (*domain.TransferRecord, error)
}

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	engine  TransferService
	queries TransferQueryService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(engine TransferService, queries TransferQueryService) *TransferHandler {
	return &TransferHandler{
		engine:  engine,
		queries: queries,
	}
}

// Create executes a transfer between two accounts.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.engine.Transfer(r.Context(), req.SenderID, req.ReceiverID, req.Amount)
	if err != nil {
		writeError(w, mapDomainError(err), "transfer failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferResultFromUseCase(result))
}

// Get retrieves a transfer record by ID.
func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transfer ID", "")
		return
	}

	record, err := h.queries.GetTransfer(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transfer", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(record))
}

// Deposit credits an account from outside the ledger.
func (h *TransferHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, h.engine.Deposit)
}

// Withdraw debits an account to outside the ledger.
func (h *TransferHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, h.engine.Withdraw)
}

func (h *TransferHandler) single(w http.ResponseWriter, r *http.Request, op func(context.Context, string, decimal.Decimal) (*usecase.TransferResult, error)) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	var req dto.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := op(r.Context(), id, req.Amount)
	if err != nil {
		writeError(w, mapDomainError(err), "operation failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferResultFromUseCase(result))
}
