package domain

import "errors"

var (
	// Startup / configuration.
	ErrReadConfig   = errors.New("failed to read config file")
	ErrFormatConfig = errors.New("config file format invalid")
	ErrConfigValue  = errors.New("required config value missing")

	// Authorization.
	ErrPermissionDenied = errors.New("permission denied")
	ErrOwnerOnly        = errors.New("only the owner may perform this action")

	// Appeal lifecycle. Absent and already-decided appeals collapse into a
	// single outcome so callers cannot distinguish the two.
	ErrAppealNotPending = errors.New("appeal not found or already processed")
	ErrInvalidKind      = errors.New("invalid appeal kind")
	ErrEmptyAppealText  = errors.New("appeal text cannot be empty")

	// Roster.
	ErrAlreadyAdmin = errors.New("user is already an admin")
	ErrNotAdmin     = errors.New("user is not an admin")

	// Dialogue.
	ErrNoSession = errors.New("no appeal dialogue in progress")

	// Delivery / bounded operations.
	ErrDeliveryFailed   = errors.New("message delivery failed")
	ErrEmptyMessage     = errors.New("cannot deliver an empty message")
	ErrCommandTimeout   = errors.New("command exceeded its time budget")
	ErrInvalidParameter = errors.New("invalid parameter format")
	ErrCreateQuery      = errors.New("failed to generate query")
	ErrScanResult       = errors.New("failed to scan result")
)
