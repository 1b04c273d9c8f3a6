package directory

import (
	"context"
	"log/slog"
	"strings"
)

// UserImporter is implemented by the user service: create-or-update a local
// record from a directory profile.
type UserImporter interface {
	UpsertFromDirectory(username, displayName, email, department string) (created bool, err error)
}

type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// SyncService runs the full directory-import pass. The same code path
// serves the hourly scheduled sync and the manual admin action, and the
// pass is idempotent: re-running it against an unchanged directory is a
// no-op beyond profile refreshes.
type SyncService struct {
	profiles ProfileLister
	users    UserImporter
	logger   *slog.Logger
}

type ProfileLister interface {
	ListProfiles(ctx context.Context) ([]Profile, error)
}

func NewSyncService(profiles ProfileLister, users UserImporter, logger *slog.Logger) *SyncService {
	return &SyncService{profiles: profiles, users: users, logger: logger}
}

func (s *SyncService) Run(ctx context.Context) (SyncResult, error) {
	var result SyncResult

	profiles, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		s.logger.Error("directory sync aborted", "error", err)
		return result, err
	}

	for _, p := range profiles {
		username := usernameFromPrincipal(p.Principal)
		if username == "" {
			result.Failed++
			continue
		}

		created, err := s.users.UpsertFromDirectory(username, p.DisplayName, p.Email, p.Department)
		if err != nil {
			s.logger.Warn("directory sync: upsert failed", "username", username, "error", err)
			result.Failed++
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.logger.Info("directory sync finished",
		"created", result.Created,
		"updated", result.Updated,
		"failed", result.Failed)

	return result, nil
}

func usernameFromPrincipal(principal string) string {
	if i := strings.Index(principal, "@"); i > 0 {
		return principal[:i]
	}
	return principal
}
