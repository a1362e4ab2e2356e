package redis

// Key prefixes for primary entity storage.
const (
	prefixRule        = "tandem:rule:"
	prefixIntegration = "tandem:intg:"
	prefixCredential  = "tandem:cred:"
	prefixAudit       = "tandem:aud:"
)

// Key prefixes for sorted set indexes.
const (
	zRuleAll          = "tandem:z:rule:all"
	zIntegrationAll   = "tandem:z:intg:all"
	zAuditAll         = "tandem:z:aud:all"
	zAuditRule        = "tandem:z:aud:rule:" // + rule ID
	zAuditIntegration = "tandem:z:aud:intg:" // + integration ID
)

// entityKey returns the primary key for an entity.
func entityKey(prefix, id string) string {
	return prefix + id
}
