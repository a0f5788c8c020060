package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"transferd.org/internal/account"
	"transferd.org/internal/audit"
	"transferd.org/internal/ledger"
	"transferd.org/internal/money"
)

type openAccountRequest struct {
	Name           string `json:"name"`
	CustomerID     string `json:"customer_id"`
	Type           string `json:"type"`
	Tier           string `json:"tier"`
	Currency       string `json:"currency"`
	OpeningBalance string `json:"opening_balance"`
	Pin            string `json:"pin"`
}

type updateAccountRequest struct {
	Name *string `json:"name"`
	Type *string `json:"type"`
	Tier *string `json:"tier"`
}

type changePinRequest struct {
	CurrentPin string `json:"current_pin"`
	NewPin     string `json:"new_pin"`
}

type lienRequest struct {
	Amount string `json:"amount"`
}

func (a *API) handleAccountsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.openAccount(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost)
	}
}

// handleAccountResource routes /v1/accounts/{id} and its sub-resources.
func (a *API) handleAccountResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/accounts/")
	if rest == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(strings.TrimSuffix(rest, "/"), "/")

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusNotFound, "account not found")
		return
	}

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			a.getAccount(w, r, id)
		case http.MethodPatch:
			a.updateAccount(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
		}
	case len(parts) == 2 && parts[1] == "balance":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.getBalance(w, r, id)
	case len(parts) == 2 && parts[1] == "transactions":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listTransactions(w, r, id)
	case len(parts) == 3 && parts[1] == "transactions":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		txID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || txID <= 0 {
			writeError(w, r, http.StatusNotFound, "transaction not found")
			return
		}
		a.getTransaction(w, r, id, txID)
	case len(parts) == 2 && parts[1] == "pin":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.changePin(w, r, id)
	case len(parts) == 2 && parts[1] == "lien":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.placeLien(w, r, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) openAccount(w http.ResponseWriter, r *http.Request) {
	var req openAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	customerID, err := uuid.Parse(strings.TrimSpace(req.CustomerID))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "customer_id must be a UUID")
		return
	}
	typ, ok := parseAccountType(req.Type)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "type must be savings or current")
		return
	}
	tier, ok := parseTier(req.Tier)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "tier must be tier_one, tier_two or tier_three")
		return
	}
	opening, err := parseAmount(req.OpeningBalance, true)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "opening_balance must be a decimal number")
		return
	}

	acc, err := a.ledger.OpenAccount(r.Context(), ledger.OpenAccountParams{
		Name:           strings.TrimSpace(req.Name),
		CustomerID:     customerID,
		Type:           typ,
		Tier:           tier,
		Currency:       strings.ToUpper(strings.TrimSpace(req.Currency)),
		OpeningBalance: opening,
		Pin:            req.Pin,
	})
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "account.open", map[string]any{
		"account_id": acc.ID,
		"number":     acc.Number,
		"tier":       string(acc.Tier),
	})

	w.Header().Set("Location", "/v1/accounts/"+strconv.FormatInt(acc.ID, 10))
	writeJSON(w, http.StatusCreated, acc)
}

func (a *API) getAccount(w http.ResponseWriter, r *http.Request, id int64) {
	if err := a.requireAccount(r, id); err != nil {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}
	acc, err := a.ledger.Account(r.Context(), id)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (a *API) getBalance(w http.ResponseWriter, r *http.Request, id int64) {
	if err := a.requireAccount(r, id); err != nil {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}
	summary, err := a.ledger.Balance(r.Context(), id)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) listTransactions(w http.ResponseWriter, r *http.Request, id int64) {
	if err := a.requireAccount(r, id); err != nil {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}
	items, err := a.ledger.Transactions(r.Context(), id)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	if items == nil {
		items = []ledger.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) getTransaction(w http.ResponseWriter, r *http.Request, id, txID int64) {
	if err := a.requireAccount(r, id); err != nil {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}
	tx, err := a.ledger.Transaction(r.Context(), id, txID)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (a *API) updateAccount(w http.ResponseWriter, r *http.Request, id int64) {
	if err := a.requireAccount(r, id); err != nil {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}
	var req updateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var typ *account.Type
	if req.Type != nil {
		t, ok := parseAccountType(*req.Type)
		if !ok {
			writeError(w, r, http.StatusBadRequest, "type must be savings or current")
			return
		}
		typ = &t
	}
	var tier *account.Tier
	if req.Tier != nil {
		t, ok := parseTier(*req.Tier)
		if !ok {
			writeError(w, r, http.StatusBadRequest, "tier must be tier_one, tier_two or tier_three")
			return
		}
		tier = &t
	}
	acc, err := a.ledger.UpdateAccount(r.Context(), id, req.Name, typ, tier)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account.update", map[string]any{"account_id": id})
	writeJSON(w, http.StatusOK, acc)
}

func (a *API) changePin(w http.ResponseWriter, r *http.Request, id int64) {
	if err := a.requireAccount(r, id); err != nil {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}
	var req changePinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.ledger.ChangePin(r.Context(), id, req.CurrentPin, req.NewPin); err != nil {
		handleLedgerError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account.pin_change", map[string]any{"account_id": id})
	writeJSON(w, http.StatusOK, map[string]any{"status": "updated"})
}

func (a *API) placeLien(w http.ResponseWriter, r *http.Request, id int64) {
	if err := a.requireAccount(r, id); err != nil {
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}
	var req lienRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount(req.Amount, true)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "amount must be a decimal number")
		return
	}
	acc, err := a.ledger.PlaceLien(r.Context(), id, amount)
	if err != nil {
		handleLedgerError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "account.lien", map[string]any{
		"account_id": id,
		"amount":     amount.String(),
	})
	writeJSON(w, http.StatusOK, acc)
}

func parseAccountType(s string) (account.Type, bool) {
	switch account.Type(strings.ToLower(strings.TrimSpace(s))) {
	case account.Savings:
		return account.Savings, true
	case account.Current:
		return account.Current, true
	}
	return "", false
}

func parseTier(s string) (account.Tier, bool) {
	switch account.Tier(strings.ToLower(strings.TrimSpace(s))) {
	case account.TierOne:
		return account.TierOne, true
	case account.TierTwo:
		return account.TierTwo, true
	case account.TierThree:
		return account.TierThree, true
	}
	return "", false
}

// parseAmount parses a decimal string. allowZero permits "0" for opening
// balances and liens; movement amounts must be strictly positive and are
// rejected later by the domain layer anyway.
func parseAmount(s string, allowZero bool) (money.Amount, error) {
	amt, err := money.Parse(strings.TrimSpace(s))
	if err != nil {
		return money.Amount{}, err
	}
	if amt.IsNegative() || (!allowZero && amt.IsZero()) {
		return money.Amount{}, account.ErrInvalidAmount
	}
	return amt, nil
}
