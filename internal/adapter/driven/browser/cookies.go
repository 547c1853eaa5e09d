package browser

import (
	"strings"

	"github.com/chromedp/cdproto/network"

	"github.com/ericfisherdev/heartsync/internal/domain/port/driven"
)

var _ driven.CookieSource = CookieJar(nil)

// CookieJar is an immutable name-to-value snapshot of browser cookies.
type CookieJar map[string]string

// Cookie returns the value of the named cookie.
func (j CookieJar) Cookie(name string) (string, bool) {
	v, ok := j[name]
	return v, ok
}

// snapshotCookies keeps the cookies that would be sent to host.
func snapshotCookies(cookies []*network.Cookie, host string) CookieJar {
	jar := make(CookieJar, len(cookies))
	for _, c := range cookies {
		if c == nil || !domainMatches(c.Domain, host) {
			continue
		}
		jar[c.Name] = c.Value
	}
	return jar
}

// domainMatches implements cookie domain matching: an exact host match or a
// parent domain of host.
func domainMatches(cookieDomain, host string) bool {
	d := strings.ToLower(strings.TrimPrefix(cookieDomain, "."))
	h := strings.ToLower(host)
	if d == "" {
		return false
	}
	return h == d || strings.HasSuffix(h, "."+d)
}
