package model

import "time"

// CredentialSafetyMargin is subtracted from a credential's expiry so a token is
// never handed out moments before it lapses mid-request.
const CredentialSafetyMargin = 5 * time.Minute

// Credential is the bearer token and identity extracted from a completed login.
// A Credential is replaced wholesale on re-login and never mutated in place.
type Credential struct {
	UserID       int64
	AccessToken  string
	RefreshToken string // May be empty.
	ExpiresAt    time.Time
}

// UsableAt reports whether the credential may still be used at the given
// instant, i.e. strictly before ExpiresAt minus CredentialSafetyMargin.
func (c Credential) UsableAt(now time.Time) bool {
	return now.Before(c.ExpiresAt.Add(-CredentialSafetyMargin))
}
