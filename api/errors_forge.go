package api

import (
	"errors"
	"net/http"

	"github.com/xraph/forge"

	"github.com/tandemhq/tandem"
	"github.com/tandemhq/tandem/integration"
	"github.com/tandemhq/tandem/normalize"
	"github.com/tandemhq/tandem/rule"
)

// isNotFoundErr reports whether the error is one of the not-found sentinels.
func isNotFoundErr(err error) bool {
	return errors.Is(err, tandem.ErrRuleNotFound) ||
		errors.Is(err, tandem.ErrIntegrationNotFound) ||
		errors.Is(err, tandem.ErrAuditNotFound) ||
		errors.Is(err, integration.ErrCredentialNotFound)
}

// mapError converts tandem sentinel errors to Forge HTTP errors.
func mapError(err error) error {
	var ruleVErr *rule.ValidationError
	var intgVErr *integration.ValidationError

	switch {
	case errors.Is(err, tandem.ErrRuleNotFound):
		return forge.NotFound(err.Error())
	case errors.Is(err, tandem.ErrIntegrationNotFound):
		return forge.NotFound(err.Error())
	case errors.Is(err, tandem.ErrAuditNotFound):
		return forge.NotFound(err.Error())
	case errors.Is(err, integration.ErrCredentialNotFound):
		return forge.NotFound(err.Error())
	case errors.Is(err, tandem.ErrSignatureInvalid):
		return forge.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, normalize.ErrMalformed):
		return forge.BadRequest(err.Error())
	case errors.Is(err, normalize.ErrUnknownPlatform):
		return forge.BadRequest(err.Error())
	case errors.As(err, &ruleVErr):
		return forge.BadRequest(err.Error())
	case errors.As(err, &intgVErr):
		return forge.BadRequest(err.Error())
	case errors.Is(err, tandem.ErrNoStore):
		return forge.InternalError(err)
	case errors.Is(err, tandem.ErrStoreClosed):
		return forge.InternalError(err)
	case errors.Is(err, tandem.ErrMigrationFailed):
		return forge.InternalError(err)
	default:
		return forge.InternalError(err)
	}
}
