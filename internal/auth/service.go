package auth

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/rmedeiros-eng/scse/internal"
	"github.com/rmedeiros-eng/scse/internal/directory"
)

// DirectoryAuthenticator is the bind-and-search contract the service needs
// from the directory integration. Nil when directory auth is disabled.
type DirectoryAuthenticator interface {
	Authenticate(ctx context.Context, principal, password string) (*directory.Profile, error)
}

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (*Session, error)
	ValidateToken(tokenString string) (*SessionClaims, error)
}

// Service authenticates in two modes: local bcrypt credentials first, then
// a directory bind for identities without a local password.
type Service struct {
	users    UserRepository
	resolver *PermissionResolver
	dir      DirectoryAuthenticator
	dirCfg   internal.DirectoryConfig
	tokenGen TokenGenerator
	logger   *slog.Logger
}

func NewService(users UserRepository, resolver *PermissionResolver, dir DirectoryAuthenticator, dirCfg internal.DirectoryConfig, tokenGen TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		users:    users,
		resolver: resolver,
		dir:      dir,
		dirCfg:   dirCfg,
		tokenGen: tokenGen,
		logger:   logger,
	}
}

// Authenticate validates credentials and produces a session. The ordering
// is short-circuiting: a local record with a password credential settles
// the attempt locally; only password-less or unknown usernames fall
// through to the directory.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*Session, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	rec, err := s.users.GetByUsername(dto.Username)
	if err != nil {
		s.logger.Error("user lookup failed during login", "username", dto.Username, "error", err)
		return nil, err
	}

	if rec != nil && !rec.Active {
		return nil, ErrAccountDisabled
	}

	if rec != nil && rec.PasswordHash != nil {
		if err := bcrypt.CompareHashAndPassword([]byte(*rec.PasswordHash), []byte(dto.Password)); err != nil {
			return nil, ErrInvalidCredentials
		}
		return s.buildLocalSession(rec, AuthMethodLocal)
	}

	// Directory-only local record, or no local record at all.
	if s.dir == nil || !s.dirCfg.Enabled {
		return nil, ErrInvalidCredentials
	}

	principal := directory.ComputePrincipal(dto.Username, s.dirCfg.BaseDN)
	profile, err := s.dir.Authenticate(ctx, principal, dto.Password)
	if err != nil {
		return nil, s.mapDirectoryError(err)
	}

	if rec != nil {
		// Imported identity: profile fields follow the directory, but the
		// capability set comes from the local group memberships.
		if err := s.users.UpdateDirectoryProfile(rec.ID, profile.DisplayName, profile.Email, profile.Department); err != nil {
			s.logger.Warn("directory profile sync failed during login", "username", rec.Username, "error", err)
		} else {
			rec.DisplayName = profile.DisplayName
			rec.Email = profile.Email
			rec.Department = profile.Department
		}
		return s.buildLocalSession(rec, AuthMethodLDAPImported)
	}

	// Ad-hoc identity: no numeric id; capabilities come from the configured
	// directory group mapping.
	claims := &SessionClaims{
		Username:    dto.Username,
		DisplayName: profile.DisplayName,
		Email:       profile.Email,
		Department:  profile.Department,
		AuthMethod:  AuthMethodLDAPUnimported,
		Permissions: PermissionsFromDirectoryGroups(
			s.dirCfg.AdminGroup, s.dirCfg.ManagerGroup, s.dirCfg.GateGroup, profile.Groups),
	}
	return s.issue(claims)
}

func (s *Service) buildLocalSession(rec *UserRecord, method AuthMethod) (*Session, error) {
	id := rec.ID
	claims := &SessionClaims{
		UserID:       &id,
		Username:     rec.Username,
		DisplayName:  rec.DisplayName,
		Email:        rec.Email,
		Department:   rec.Department,
		ManagerName:  rec.ManagerName,
		ManagerEmail: rec.ManagerEmail,
		AuthMethod:   method,
		Permissions:  s.resolver.Resolve(rec.ID),
	}
	return s.issue(claims)
}

func (s *Service) issue(claims *SessionClaims) (*Session, error) {
	token, expiresAt, err := s.tokenGen.Generate(claims)
	if err != nil {
		return nil, err
	}

	s.logger.Info("session issued",
		"username", claims.Username,
		"auth_method", claims.AuthMethod,
		"expires_at", expiresAt)

	return &Session{Token: token, ExpiresAt: expiresAt, Claims: *claims}, nil
}

func (s *Service) mapDirectoryError(err error) error {
	switch {
	case errors.Is(err, directory.ErrInvalidCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, directory.ErrProfileNotFound):
		return ErrProfileNotFound
	default:
		var searchErr *directory.SearchError
		if errors.As(err, &searchErr) {
			return &DirectoryError{Stage: "search", Cause: searchErr}
		}
		return &DirectoryError{Stage: "connect", Cause: err}
	}
}

func (s *Service) ValidateToken(tokenString string) (*SessionClaims, error) {
	return s.tokenGen.Validate(tokenString)
}

// HashPassword creates a bcrypt hash for a local credential.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
