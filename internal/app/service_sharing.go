package app

import (
	"context"
	"regexp"
	"strings"

	"daybook/api/internal/planner"
	"daybook/api/internal/store"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func normalizeViewerEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return "", errInvalidArgument("a valid email address is required")
	}
	return email, nil
}

// GrantGlobal gives viewerEmail standing access to every entry of the
// caller. The grant and the viewer's reverse-index row are written in one
// transaction.
func (s *Service) GrantGlobal(ctx context.Context, session Session, viewerEmail string) error {
	viewerEmail, err := normalizeViewerEmail(viewerEmail)
	if err != nil {
		return err
	}
	if viewerEmail == session.Email {
		return errInvalidArgument("cannot share a plan with yourself")
	}
	return s.store.UpsertGlobalGrant(ctx, session.UserID, session.Email, viewerEmail)
}

// RevokeGlobal removes a standing grant. Revoking an absent grant is a no-op.
func (s *Service) RevokeGlobal(ctx context.Context, session Session, viewerEmail string) error {
	viewerEmail, err := normalizeViewerEmail(viewerEmail)
	if err != nil {
		return err
	}
	return s.store.DeleteGlobalGrant(ctx, session.UserID, viewerEmail)
}

// GrantDaily gives viewerEmail access to a single date. Daily grants do not
// appear in the viewer's shared-with-me list.
func (s *Service) GrantDaily(ctx context.Context, session Session, date, viewerEmail string) error {
	if !planner.ValidDate(date) {
		return errInvalidArgument("date must be YYYY-MM-DD")
	}
	viewerEmail, err := normalizeViewerEmail(viewerEmail)
	if err != nil {
		return err
	}
	if viewerEmail == session.Email {
		return errInvalidArgument("cannot share a plan with yourself")
	}
	return s.store.UpsertDailyGrant(ctx, session.UserID, date, viewerEmail)
}

func (s *Service) RevokeDaily(ctx context.Context, session Session, date, viewerEmail string) error {
	if !planner.ValidDate(date) {
		return errInvalidArgument("date must be YYYY-MM-DD")
	}
	viewerEmail, err := normalizeViewerEmail(viewerEmail)
	if err != nil {
		return err
	}
	return s.store.DeleteDailyGrant(ctx, session.UserID, date, viewerEmail)
}

// CheckAccess reports whether viewerEmail may read ownerID's entry for date.
// A global grant always wins; the per-date grant is consulted only when a
// date is given, so date=="" asks for standing access specifically.
func (s *Service) CheckAccess(ctx context.Context, ownerID, date, viewerEmail string) (bool, error) {
	ok, err := s.store.HasGlobalGrant(ctx, ownerID, viewerEmail)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	if date == "" {
		return false, nil
	}
	return s.store.HasDailyGrant(ctx, ownerID, date, viewerEmail)
}

// GlobalViewers lists everyone the caller has a standing grant for.
func (s *Service) GlobalViewers(ctx context.Context, session Session) ([]store.Viewer, error) {
	return s.store.ListGlobalViewers(ctx, session.UserID)
}

// SharedWithMe lists the owners who granted the caller standing access.
func (s *Service) SharedWithMe(ctx context.Context, session Session) ([]store.SharedOwner, error) {
	return s.store.ListSharedWithMe(ctx, session.Email)
}
