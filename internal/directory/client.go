package directory

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/rmedeiros-eng/scse/internal"
)

var (
	ErrInvalidCredentials = errors.New("directory: invalid credentials")
	ErrProfileNotFound    = errors.New("directory: no profile for bound identity")
)

// ConnectionError carries the server diagnostic so operators can tell a
// broken integration apart from a wrong password.
type ConnectionError struct {
	Diagnostic string
	Cause      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("directory connection failed: %s", e.Diagnostic)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// SearchError is a lookup failure after a successful bind: the user proved
// who they are, the directory just could not describe them.
type SearchError struct {
	Cause error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("directory search failed after bind: %v", e.Cause)
}

func (e *SearchError) Unwrap() error {
	return e.Cause
}

// Profile is the subset of directory attributes the application reads.
type Profile struct {
	Principal   string
	DisplayName string
	Email       string
	Department  string
	Groups      []string
}

type Client struct {
	cfg internal.DirectoryConfig
}

func NewClient(cfg internal.DirectoryConfig) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	return &Client{cfg: cfg}
}

// ComputePrincipal turns a bare username into a bindable principal. Input
// that already looks like a principal (contains @, cn= or ou=) passes
// through untouched; otherwise the UPN domain is derived from the DC
// components of the base DN.
func ComputePrincipal(username, baseDN string) string {
	lower := strings.ToLower(username)
	if strings.Contains(username, "@") || strings.Contains(lower, "cn=") || strings.Contains(lower, "ou=") {
		return username
	}

	var parts []string
	for _, rdn := range strings.Split(baseDN, ",") {
		rdn = strings.TrimSpace(rdn)
		if strings.HasPrefix(strings.ToLower(rdn), "dc=") {
			parts = append(parts, rdn[3:])
		}
	}
	if len(parts) == 0 {
		return username
	}
	return username + "@" + strings.Join(parts, ".")
}

// ExtractCN returns the CN component of a group DN, or the input unchanged
// when it is not a DN.
func ExtractCN(dn string) string {
	for _, rdn := range strings.Split(dn, ",") {
		rdn = strings.TrimSpace(rdn)
		if strings.HasPrefix(strings.ToLower(rdn), "cn=") {
			return rdn[3:]
		}
	}
	return dn
}

func (c *Client) dial(ctx context.Context) (*ldap.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ConnectionError{Diagnostic: err.Error(), Cause: err}
	}

	conn, err := ldap.DialURL(c.cfg.URL, ldap.DialWithDialer(&net.Dialer{Timeout: c.cfg.ConnectTimeout}))
	if err != nil {
		return nil, &ConnectionError{Diagnostic: err.Error(), Cause: err}
	}
	conn.SetTimeout(c.cfg.ConnectTimeout)
	return conn, nil
}

// Authenticate binds with the supplied credentials and fetches the bound
// identity's profile in a single filtered search.
func (c *Client) Authenticate(ctx context.Context, principal, password string) (*Profile, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := conn.Bind(principal, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, &ConnectionError{Diagnostic: err.Error(), Cause: err}
	}

	return c.searchProfile(conn, principal)
}

func (c *Client) searchProfile(conn *ldap.Conn, principal string) (*Profile, error) {
	req := ldap.NewSearchRequest(
		c.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		1, 0, false,
		fmt.Sprintf("(userPrincipalName=%s)", ldap.EscapeFilter(principal)),
		[]string{"displayName", "mail", "department", "memberOf"},
		nil,
	)

	res, err := conn.Search(req)
	if err != nil {
		// size limit 1 with more matches still yields the first entry
		if !ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) || res == nil || len(res.Entries) == 0 {
			return nil, &SearchError{Cause: err}
		}
	}
	if len(res.Entries) == 0 {
		return nil, ErrProfileNotFound
	}

	entry := res.Entries[0]
	profile := &Profile{
		Principal:   principal,
		DisplayName: entry.GetAttributeValue("displayName"),
		Email:       entry.GetAttributeValue("mail"),
		Department:  entry.GetAttributeValue("department"),
	}
	for _, dn := range entry.GetAttributeValues("memberOf") {
		profile.Groups = append(profile.Groups, ExtractCN(dn))
	}
	return profile, nil
}

// ListProfiles enumerates every person entry under the base DN using the
// configured service account. Used by the sync pass, not by login.
func (c *Client) ListProfiles(ctx context.Context) ([]Profile, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := conn.Bind(c.cfg.BindDN, c.cfg.BindPassword); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, &ConnectionError{Diagnostic: err.Error(), Cause: err}
	}

	req := ldap.NewSearchRequest(
		c.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		"(&(objectClass=user)(userPrincipalName=*))",
		[]string{"userPrincipalName", "displayName", "mail", "department", "memberOf"},
		nil,
	)

	res, err := conn.Search(req)
	if err != nil {
		return nil, &SearchError{Cause: err}
	}

	profiles := make([]Profile, 0, len(res.Entries))
	for _, entry := range res.Entries {
		p := Profile{
			Principal:   entry.GetAttributeValue("userPrincipalName"),
			DisplayName: entry.GetAttributeValue("displayName"),
			Email:       entry.GetAttributeValue("mail"),
			Department:  entry.GetAttributeValue("department"),
		}
		for _, dn := range entry.GetAttributeValues("memberOf") {
			p.Groups = append(p.Groups, ExtractCN(dn))
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
