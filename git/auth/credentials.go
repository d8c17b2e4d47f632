// Package auth supplies credentials to the native git transport.
//
// Credentials are handed out per remote URL, so a token configured for the
// hosts of the mirrored sources is never sent to any other remote.
package auth

import (
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/input-output-hk/reposync/git"
)

// tokenUser is sent with a token when no username is configured. GitHub,
// GitLab and Bitbucket ignore the username for token authentication.
const tokenUser = "token"

// Credentials authenticates HTTPS remotes with HTTP basic auth.
type Credentials struct {
	auth  *http.BasicAuth
	hosts []string
}

var _ git.AuthProvider = (*Credentials)(nil)

// NewCredentials returns basic-auth credentials. An empty username sends
// secret as a token.
func NewCredentials(username, secret string) *Credentials {
	if username == "" {
		username = tokenUser
	}
	return &Credentials{auth: &http.BasicAuth{Username: username, Password: secret}}
}

// ForHosts limits the credentials to remotes on the given hosts. A pattern
// starting with "*." also matches subdomains. With no hosts every HTTPS
// remote is authenticated.
func (c *Credentials) ForHosts(hosts ...string) *Credentials {
	c.hosts = hosts
	return c
}

// Method implements git.AuthProvider. Remotes that are not https URLs, such
// as local paths and scp-like addresses, or that are on a host outside
// ForHosts, get no credentials.
//
//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (c *Credentials) Method(remoteURL string) (transport.AuthMethod, error) {
	u, err := url.Parse(remoteURL)
	if err != nil || u.Scheme != "https" {
		return nil, nil
	}

	if len(c.hosts) > 0 && !c.allows(u.Hostname()) {
		return nil, nil
	}
	return c.auth, nil
}

func (c *Credentials) allows(host string) bool {
	for _, pattern := range c.hosts {
		if matchHost(host, pattern) {
			return true
		}
	}
	return false
}

func matchHost(host, pattern string) bool {
	host = strings.ToLower(host)
	pattern = strings.ToLower(pattern)

	if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
		return host == suffix || strings.HasSuffix(host, "."+suffix)
	}
	return host == pattern
}

// HostsOf returns the distinct hosts of the https URLs in urls, in first
// seen order.
func HostsOf(urls ...string) []string {
	seen := make(map[string]bool)
	var hosts []string
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme != "https" || u.Hostname() == "" {
			continue
		}
		host := strings.ToLower(u.Hostname())
		if !seen[host] {
			seen[host] = true
			hosts = append(hosts, host)
		}
	}
	return hosts
}
