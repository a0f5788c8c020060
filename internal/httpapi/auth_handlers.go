package httpapi

import (
	"net/http"

	"transferd.org/internal/audit"
	"transferd.org/internal/auth"
)

type tokenRequest struct {
	AccountID int64  `json:"account_id"`
	Pin       string `json:"pin"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

// handleToken exchanges an account id and PIN for a bearer token.
func (a *API) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.AccountID <= 0 {
		writeError(w, r, http.StatusBadRequest, "account_id is required")
		return
	}

	acc, err := a.ledger.Authenticate(r.Context(), req.AccountID, req.Pin)
	if err != nil {
		_ = audit.LogEvent(r.Context(), "auth.token_denied", map[string]any{
			"account_id": req.AccountID,
		})
		handleLedgerError(w, r, err)
		return
	}

	token, err := auth.GenerateToken(acc.ID, acc.Number, a.opts.TokenTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token issuance failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.token_issued", map[string]any{
		"account_id": acc.ID,
	})
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(a.opts.TokenTTL.Seconds()),
	})
}
