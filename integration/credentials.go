package integration

import (
	"context"
	"errors"

	"github.com/tandemhq/tandem/id"
)

// ErrCredentialNotFound indicates no credential is stored for an integration.
var ErrCredentialNotFound = errors.New("integration: credential not found")

// Credential carries the secrets an adapter needs to call its platform.
// Credentials live outside the integration record so the store backing them
// can be hardened independently; they are never serialized with the
// integration.
type Credential struct {
	// Token is the API token or OAuth access token.
	Token string `json:"token"`

	// Secondary is a platform-dependent second secret: Trello's API key,
	// Zendesk's account email, Freshdesk's domain.
	Secondary string `json:"secondary,omitempty"`

	// Extra holds additional platform-specific values.
	Extra map[string]string `json:"extra,omitempty"`
}

// CredentialStore persists integration credentials.
type CredentialStore interface {
	// PutCredential stores the credential for an integration, replacing any
	// existing one.
	PutCredential(ctx context.Context, integrationID id.ID, cred Credential) error

	// GetCredential returns the credential for an integration. Returns
	// ErrCredentialNotFound if none is stored.
	GetCredential(ctx context.Context, integrationID id.ID) (Credential, error)

	// DeleteCredential removes the credential for an integration.
	DeleteCredential(ctx context.Context, integrationID id.ID) error
}
