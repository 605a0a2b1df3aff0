package api

import (
	"context"
	"errors"
	"net/http"

	"cairo-metro-ticketing/internal/domain"
	"cairo-metro-ticketing/internal/infra/logging"

	"github.com/rs/zerolog"
)

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
	// public messages replace err.Error() so upstream text never reaches the caller
	public string
}

// errorTable is matched in order. ErrRollbackFailed wraps alongside
// ErrPaymentInitializationFailed and has to win.
var errorTable = []errorMapping{
	{domain.ErrRollbackFailed, http.StatusInternalServerError, "rollback_failed", "payment could not be started; the purchase is under review"},
	{domain.ErrPaymentInitializationFailed, http.StatusBadGateway, "payment_initialization_failed", "payment could not be started, please try again"},
	{domain.ErrGatewayUnavailable, http.StatusBadGateway, "payment_gateway_unavailable", "payment provider unavailable"},
	{domain.ErrGatewayOrderFailed, http.StatusBadGateway, "payment_gateway_error", "payment provider rejected the order"},
	{domain.ErrGatewayKeyFailed, http.StatusBadGateway, "payment_gateway_error", "payment provider rejected the order"},
	{domain.ErrInvalidSignature, http.StatusBadRequest, "invalid_signature", ""},
	{domain.ErrAmountMismatch, http.StatusConflict, "amount_mismatch", ""},
	{domain.ErrPaymentPending, http.StatusConflict, "payment_pending", ""},
	{domain.ErrInvalidRoute, http.StatusBadRequest, "invalid_route", ""},
	{domain.ErrInvalidPlan, http.StatusBadRequest, "invalid_plan", ""},
	{domain.ErrInvalidScan, http.StatusBadRequest, "invalid_scan", ""},
	{domain.ErrTicketExpired, http.StatusConflict, "ticket_expired", ""},
	{domain.ErrTicketNotUsable, http.StatusConflict, "ticket_not_usable", ""},
	{domain.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument", ""},
	{domain.ErrNotFound, http.StatusNotFound, "not_found", ""},
	{domain.ErrAlreadyExists, http.StatusConflict, "already_exists", ""},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", ""},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", ""},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden", ""},
	{domain.ErrAccountLocked, http.StatusLocked, "account_locked", ""},
	{domain.ErrRateLimited, http.StatusTooManyRequests, "rate_limited", ""},
	{domain.ErrOperationFailed, http.StatusInternalServerError, "database_error", "internal error"},
	{domain.ErrReadDatabaseRow, http.StatusInternalServerError, "database_error", "internal error"},
	{domain.ErrInvalidExecContext, http.StatusInternalServerError, "database_error", "internal error"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout", "request timed out"},
}

// statusFor resolves the HTTP status, machine code and caller-facing message for err.
func statusFor(err error) (int, errorBody) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			msg := m.public
			if msg == "" {
				msg = err.Error()
			}
			return m.status, errorBody{Code: m.code, Message: msg}
		}
	}
	return http.StatusInternalServerError, errorBody{Code: "internal_error", Message: "internal error"}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *zerolog.Logger, err error) {
	status, body := statusFor(err)
	l := logging.With(r.Context(), logger)
	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Str("code", body.Code).Msg("request failed")
	} else {
		l.Debug().Err(err).Str("code", body.Code).Msg("request rejected")
	}
	writeJSON(w, status, body)
}
