// Package tandem is a support-operations automation pipeline: it ingests
// webhooks from helpdesk and productivity platforms, verifies their
// signatures, normalizes their payloads into a canonical event, matches the
// event against user-defined automation rules, and dispatches the matched
// rules' actions to downstream platforms with retry and partial-failure
// handling.
//
// The root Pipeline type wires the stages together; each subsystem lives in
// its own package (signature, normalize, rule, dispatch, adapter,
// integration, audit) behind a composable store interface with in-memory,
// PostgreSQL, and Redis implementations.
package tandem
