package constants

import "errors"

// Domain error taxonomy. Services return these (possibly wrapped with %w) and the
// API layer maps them to HTTP status codes; anything outside this set is reported
// as an opaque internal error with the detail logged server side only.
var (
	// ErrNotFound means a referenced user, activity or event does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyRegistered means an active sign-up already exists for the
	// (user, activity) pair, including the case detected via the storage
	// uniqueness constraint under concurrent sign-ups.
	ErrAlreadyRegistered = errors.New("already signed up")

	// ErrNotRegistered means the operation requires a participation record
	// that does not exist or is no longer active.
	ErrNotRegistered = errors.New("not signed up")

	// ErrInvalidState means a participation exists but is in the wrong state
	// for the requested operation.
	ErrInvalidState = errors.New("participation in invalid state")

	// ErrMissingField means a required detail payload field is absent or blank.
	ErrMissingField = errors.New("required field missing")

	// ErrInvalidAmount means the detail amount is absent, non-numeric or below
	// the minimum.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrUnsupportedTemplate means the activity references a template id the
	// codec has no rules for.
	ErrUnsupportedTemplate = errors.New("unsupported template")

	// ErrLedgerUnavailable means the ledger service could not be reached or
	// timed out. The enclosing operation is never partially applied, so the
	// caller may retry it whole.
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrLedgerRejected means the ledger refused the transaction.
	ErrLedgerRejected = errors.New("ledger rejected transaction")
)
