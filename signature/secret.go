package signature

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strings"
)

// SecretProvider supplies per-platform webhook secrets. Passing a provider
// into the verifier (instead of reading the environment directly) lets tests
// inject deterministic secrets without process-wide environment mutation.
type SecretProvider interface {
	// WebhookSecret returns the shared secret for the platform and whether
	// one is configured.
	WebhookSecret(platform string) (string, bool)
}

// Static is a fixed in-memory SecretProvider, keyed by platform.
type Static map[string]string

// WebhookSecret implements SecretProvider.
func (s Static) WebhookSecret(platform string) (string, bool) {
	secret, ok := s[platform]
	return secret, ok && secret != ""
}

// EnvSecrets resolves secrets from environment variables named
// "<PLATFORM>_WEBHOOK_SECRET" (e.g. ZENDESK_WEBHOOK_SECRET).
type EnvSecrets struct{}

// WebhookSecret implements SecretProvider.
func (EnvSecrets) WebhookSecret(platform string) (string, bool) {
	key := strings.ToUpper(platform) + "_WEBHOOK_SECRET"
	secret := os.Getenv(key)
	return secret, secret != ""
}

// GenerateSecret creates a cryptographically random webhook shared secret.
// Format: "whsec_" + 32 bytes hex = 70 characters total.
func GenerateSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("tandem: failed to generate random secret: " + err.Error())
	}
	return "whsec_" + hex.EncodeToString(b)
}
