package application

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ericfisherdev/heartsync/internal/domain/model"
	"github.com/ericfisherdev/heartsync/internal/domain/port/driven"
)

// Cookie names set by the login flow on the service's domain.
const (
	AccessTokenCookie  = "whoop-auth-token"
	RefreshTokenCookie = "whoop-auth-refresh-token"
)

// accessTokenClaims is the subset of the access-token payload we rely on.
type accessTokenClaims struct {
	jwt.RegisteredClaims
	UserID userIDClaim `json:"custom:user_id"`
}

// userIDClaim accepts the user id as either a JSON string or a JSON number.
type userIDClaim struct {
	value int64
	set   bool
}

func (c *userIDClaim) UnmarshalJSON(data []byte) error {
	raw := bytes.Trim(data, `"`)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("user id claim %s is not an integer", data)
	}
	c.value, c.set = v, true
	return nil
}

// tokenParser only decodes. The signing key belongs to the identity provider,
// so the signature is not verified here; the metrics API does that.
var tokenParser = jwt.NewParser()

// ExtractCredential derives a Credential from the cookies of an authenticated
// browsing context. It is a pure function of the cookie values.
//
// A missing access-token cookie yields driven.ErrCredentialNotFound. A token
// that is not a three-segment JWT, has an undecodable payload, or lacks the
// user id or exp claims yields driven.ErrMalformedCredential. The header must
// be JSON naming a registered alg (RS256 for the identity provider's tokens);
// any other header is also malformed.
func ExtractCredential(cookies driven.CookieSource) (model.Credential, error) {
	access, ok := cookies.Cookie(AccessTokenCookie)
	if !ok || access == "" {
		return model.Credential{}, fmt.Errorf("%s cookie missing after login: %w", AccessTokenCookie, driven.ErrCredentialNotFound)
	}

	var claims accessTokenClaims
	if _, _, err := tokenParser.ParseUnverified(access, &claims); err != nil {
		return model.Credential{}, fmt.Errorf("decode access token: %w: %w", driven.ErrMalformedCredential, err)
	}

	if !claims.UserID.set {
		return model.Credential{}, fmt.Errorf("access token has no custom:user_id claim: %w", driven.ErrMalformedCredential)
	}
	if claims.ExpiresAt == nil {
		return model.Credential{}, fmt.Errorf("access token has no exp claim: %w", driven.ErrMalformedCredential)
	}

	refresh, _ := cookies.Cookie(RefreshTokenCookie)

	return model.Credential{
		UserID:       claims.UserID.value,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    claims.ExpiresAt.UTC(),
	}, nil
}
