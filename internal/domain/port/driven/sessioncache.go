package driven

import "github.com/ericfisherdev/heartsync/internal/domain/model"

// SessionCache holds the single active credential.
type SessionCache interface {
	// Get returns the cached credential only if it is usable now, honoring
	// model.CredentialSafetyMargin.
	Get() (model.Credential, bool)
	// Set replaces the cached credential unconditionally.
	Set(cred model.Credential)
	// Clear drops the cached credential.
	Clear()
}
