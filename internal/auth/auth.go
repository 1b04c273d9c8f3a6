package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthMethod records which credential path produced a session.
type AuthMethod string

const (
	AuthMethodLocal          AuthMethod = "local"
	AuthMethodLDAPImported   AuthMethod = "ldap_imported"
	AuthMethodLDAPUnimported AuthMethod = "ldap_unimported"
)

// SessionClaims is the full identity carried by a session token. Downstream
// authorization reads the capability flags straight from the token, so a
// permission revoked mid-session stays effective until expiry (at most the
// 8h TTL). That staleness window is an accepted tradeoff, not a bug.
type SessionClaims struct {
	UserID       *int64        `json:"user_id,omitempty"`
	Username     string        `json:"username"`
	DisplayName  string        `json:"display_name"`
	Email        string        `json:"email,omitempty"`
	Department   string        `json:"department,omitempty"`
	ManagerName  string        `json:"manager_name,omitempty"`
	ManagerEmail string        `json:"manager_email,omitempty"`
	AuthMethod   AuthMethod    `json:"auth_method"`
	Permissions  PermissionSet `json:"permissions"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the session may bypass actor-identity checks.
// Segregation-of-duties on transfers is the one rule an admin cannot bypass.
func (c *SessionClaims) IsAdmin() bool {
	return c.Permissions.CanAccessAdminPanel
}

// Session is the login response: an opaque bearer token plus its claims.
type Session struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Claims    SessionClaims `json:"claims"`
}

// UserRecord is the local user row as the auth service sees it, with the
// manager's identity joined in. PasswordHash is nil for directory-only
// identities.
type UserRecord struct {
	ID           int64
	Username     string
	DisplayName  string
	Email        string
	Department   string
	PasswordHash *string
	Active       bool
	ManagerName  string
	ManagerEmail string
}

// UserRepository is the slice of the record store the auth service needs.
type UserRepository interface {
	// GetByUsername returns (nil, nil) when no local record exists.
	GetByUsername(username string) (*UserRecord, error)
	// UpdateDirectoryProfile syncs display name, email and department from
	// the directory for an imported user. Best-effort at the call site.
	UpdateDirectoryProfile(userID int64, displayName, email, department string) error
}

// TokenGenerator creates and validates session tokens.
type TokenGenerator interface {
	Generate(claims *SessionClaims) (string, time.Time, error)
	Validate(tokenString string) (*SessionClaims, error)
}

type JWTTokenGenerator struct {
	Secret     []byte
	SessionTTL time.Duration
}

func NewJWTTokenGenerator(secret string, ttl time.Duration) *JWTTokenGenerator {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &JWTTokenGenerator{
		Secret:     []byte(secret),
		SessionTTL: ttl,
	}
}

// Generate signs the full claims set. There is no refresh mechanism:
// after expiry the user authenticates again.
func (j *JWTTokenGenerator) Generate(claims *SessionClaims) (string, time.Time, error) {
	expiresAt := time.Now().Add(j.SessionTTL)

	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Subject:   claims.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

func (j *JWTTokenGenerator) Validate(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrProfileNotFound    = errors.New("directory profile not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

// DirectoryError distinguishes "directory integration broken" from "wrong
// password": operators need to tell the two apart.
type DirectoryError struct {
	Stage string // "connect" or "search"
	Cause error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("directory %s failed: %v", e.Stage, e.Cause)
}

func (e *DirectoryError) Unwrap() error {
	return e.Cause
}

type ctxKey string

const contextClaimsKey ctxKey = "session_claims"

func ClaimsFromContext(ctx context.Context) (*SessionClaims, bool) {
	c, ok := ctx.Value(contextClaimsKey).(*SessionClaims)
	return c, ok
}

func ContextWithClaims(ctx context.Context, claims *SessionClaims) context.Context {
	return context.WithValue(ctx, contextClaimsKey, claims)
}
