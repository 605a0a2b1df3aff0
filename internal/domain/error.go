package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Persistence
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid database execution context")

	// Identity
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountLocked      = errors.New("account locked due to too many failed login attempts")
	ErrRateLimited        = errors.New("too many requests")

	// Routing and fares
	ErrInvalidRoute = errors.New("invalid route: stations must be on the same line")
	ErrInvalidPlan  = errors.New("invalid subscription plan")

	// Payment gateway
	ErrGatewayUnavailable          = errors.New("payment gateway unavailable")
	ErrGatewayOrderFailed          = errors.New("payment gateway order creation failed")
	ErrGatewayKeyFailed            = errors.New("payment gateway key request failed")
	ErrPaymentInitializationFailed = errors.New("payment initialization failed")
	ErrRollbackFailed              = errors.New("compensating rollback failed")

	// Reconciliation
	ErrInvalidSignature = errors.New("invalid callback signature")
	ErrAmountMismatch   = errors.New("callback amount does not match pending payment")
	ErrPaymentPending   = errors.New("a pending payment already exists")

	// Tickets
	ErrTicketNotUsable = errors.New("ticket is not in a usable state")
	ErrTicketExpired   = errors.New("ticket has expired")
	ErrInvalidScan     = errors.New("invalid scan type")
)
