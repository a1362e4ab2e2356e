package tandem

import "errors"

// Sentinel errors returned by Tandem operations.
var (
	// ErrNoStore is returned when a Pipeline is created without a store.
	ErrNoStore = errors.New("tandem: store is required")

	// ErrRuleNotFound is returned when a rule cannot be found.
	ErrRuleNotFound = errors.New("tandem: rule not found")

	// ErrIntegrationNotFound is returned when an integration cannot be found.
	ErrIntegrationNotFound = errors.New("tandem: integration not found")

	// ErrAuditNotFound is returned when an audit entry cannot be found.
	ErrAuditNotFound = errors.New("tandem: audit entry not found")

	// ErrSignatureInvalid is returned when webhook signature verification fails.
	ErrSignatureInvalid = errors.New("tandem: signature verification failed")

	// ErrStoreClosed is returned when a store operation is attempted after the store is closed.
	ErrStoreClosed = errors.New("tandem: store is closed")

	// ErrMigrationFailed is returned when a database migration fails.
	ErrMigrationFailed = errors.New("tandem: migration failed")
)
