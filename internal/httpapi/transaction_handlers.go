package httpapi

import (
	"net/http"

	"transferd.org/internal/audit"
)

type depositRequest struct {
	AccountID int64  `json:"account_id"`
	Amount    string `json:"amount"`
	Pin       string `json:"pin"`
}

type withdrawalRequest struct {
	AccountID int64  `json:"account_id"`
	Amount    string `json:"amount"`
	Pin       string `json:"pin"`
}

type transferRequest struct {
	FromAccountID int64  `json:"from_account_id"`
	ToAccountID   int64  `json:"to_account_id"`
	Amount        string `json:"amount"`
	Pin           string `json:"pin"`
}

func (a *API) handleDeposits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req depositRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.AccountID <= 0 {
		writeError(w, r, http.StatusBadRequest, "account_id is required")
		return
	}
	amount, err := parseAmount(req.Amount, false)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "amount must be a positive decimal")
		return
	}

	tx, err := a.ledger.Deposit(r.Context(), req.AccountID, amount, req.Pin)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "transaction.deposit", map[string]any{
		"account_id": req.AccountID,
		"reference":  tx.Reference,
		"amount":     amount.String(),
	})
	writeJSON(w, http.StatusCreated, tx)
}

func (a *API) handleWithdrawals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req withdrawalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.AccountID <= 0 {
		writeError(w, r, http.StatusBadRequest, "account_id is required")
		return
	}
	amount, err := parseAmount(req.Amount, false)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "amount must be a positive decimal")
		return
	}

	tx, err := a.ledger.Withdraw(r.Context(), req.AccountID, amount, req.Pin)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "transaction.withdrawal", map[string]any{
		"account_id": req.AccountID,
		"reference":  tx.Reference,
		"amount":     amount.String(),
	})
	writeJSON(w, http.StatusCreated, tx)
}

func (a *API) handleTransfers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req transferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.FromAccountID <= 0 || req.ToAccountID <= 0 {
		writeError(w, r, http.StatusBadRequest, "from_account_id and to_account_id are required")
		return
	}
	amount, err := parseAmount(req.Amount, false)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "amount must be a positive decimal")
		return
	}

	tx, err := a.ledger.Transfer(r.Context(), req.FromAccountID, req.ToAccountID, amount, req.Pin)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "transaction.transfer", map[string]any{
		"from_account_id": req.FromAccountID,
		"to_account_id":   req.ToAccountID,
		"reference":       tx.Reference,
		"amount":          amount.String(),
	})
	writeJSON(w, http.StatusCreated, tx)
}
