package handler

import (
	"context"
	"net/http"

	"github.com/iho/bankcore/internal/adapter/http/dto"
	"github.com/iho/bankcore/internal/usecase"
)

// LedgerService defines ledger-wide checks.
type LedgerService interface {
	CheckConservation(ctx context.Context) (usecase.ConservationReport, error)
}

// LedgerHandler handles ledger-wide operations.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// CheckConservation verifies that balances match the recorded flows.
// A broken check means a balance was written outside the transfer engine.
func (h *LedgerHandler) CheckConservation(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledgerUC.CheckConservation(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check conservation", err.Error())
		return
	}

	status := http.StatusOK
	if !report.Conserved {
		status = http.StatusConflict
	}

	writeJSON(w, status, dto.ConservationResponse{
		TotalBalance:    report.TotalBalance,
		ExpectedBalance: report.ExpectedBalance,
		Conserved:       report.Conserved,
	})
}
