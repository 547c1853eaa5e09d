package driven

import "context"

// CookieSource exposes the cookies of an authenticated browsing context for
// the service's domain.
type CookieSource interface {
	// Cookie returns the value of the named cookie and whether it was present.
	Cookie(name string) (string, bool)
}

// Authenticator performs the interactive login with the configured long-lived
// account credentials. The returned CookieSource is a snapshot; it stays valid
// after the browsing context has been torn down.
type Authenticator interface {
	Login(ctx context.Context) (CookieSource, error)
}
