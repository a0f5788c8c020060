package httpapi

import (
	"errors"
	"net/http"

	"transferd.org/internal/account"
	"transferd.org/internal/ledger"
	"transferd.org/internal/pin"
	"transferd.org/internal/rules"
)

// handleLedgerError translates domain errors into HTTP status codes. Rule
// violations and funding failures are 409: the request was well-formed but
// conflicts with current account state.
func handleLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	var violation *rules.Violation
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, account.ErrInvalidAmount),
		errors.Is(err, account.ErrInvalidNumber),
		errors.Is(err, account.ErrBelowMinimumBalance),
		errors.Is(err, pin.ErrInvalidFormat),
		errors.Is(err, ledger.ErrSameAccountTransfer):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.As(err, &violation),
		errors.Is(err, account.ErrInsufficientFunds),
		errors.Is(err, account.ErrInactive),
		errors.Is(err, account.ErrRestricted),
		errors.Is(err, account.ErrLienExceedsBalance),
		errors.Is(err, ledger.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
