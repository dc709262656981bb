package app

import (
	"context"
	"errors"
	"testing"

	"daybook/api/internal/planner"
)

func TestGlobalGrantAllowsAnyDate(t *testing.T) {
	service, _ := newTestService(t)
	owner := signUpUser(t, service, "amy@example.com", "Amy")
	viewer := signUpUser(t, service, "bob@example.com", "Bob")

	if err := service.GrantGlobal(context.Background(), owner, "bob@example.com"); err != nil {
		t.Fatalf("GrantGlobal: %v", err)
	}

	for _, date := range []string{"2026-03-01", "2026-07-15", ""} {
		ok, err := service.CheckAccess(context.Background(), owner.UserID, date, viewer.Email)
		if err != nil {
			t.Fatalf("CheckAccess(%q): %v", date, err)
		}
		if !ok {
			t.Fatalf("global grant should allow date %q", date)
		}
	}
}

func TestDailyGrantAllowsOnlyThatDate(t *testing.T) {
	service, _ := newTestService(t)
	owner := signUpUser(t, service, "amy@example.com", "Amy")
	viewer := signUpUser(t, service, "bob@example.com", "Bob")

	if err := service.GrantDaily(context.Background(), owner, "2026-03-10", viewer.Email); err != nil {
		t.Fatalf("GrantDaily: %v", err)
	}

	ok, err := service.CheckAccess(context.Background(), owner.UserID, "2026-03-10", viewer.Email)
	if err != nil || !ok {
		t.Fatalf("daily grant should allow its date: ok=%v err=%v", ok, err)
	}
	ok, err = service.CheckAccess(context.Background(), owner.UserID, "2026-03-11", viewer.Email)
	if err != nil || ok {
		t.Fatalf("daily grant must not leak to other dates: ok=%v err=%v", ok, err)
	}
	// Empty date asks for standing access, which a daily grant is not.
	ok, err = service.CheckAccess(context.Background(), owner.UserID, "", viewer.Email)
	if err != nil || ok {
		t.Fatalf("daily grant must not count as standing access: ok=%v err=%v", ok, err)
	}
}

func TestRevokeGlobalRemovesAccessAndReverseIndex(t *testing.T) {
	service, _ := newTestService(t)
	owner := signUpUser(t, service, "amy@example.com", "Amy")
	viewer := signUpUser(t, service, "bob@example.com", "Bob")

	if err := service.GrantGlobal(context.Background(), owner, viewer.Email); err != nil {
		t.Fatalf("GrantGlobal: %v", err)
	}
	shared, err := service.SharedWithMe(context.Background(), viewer)
	if err != nil || len(shared) != 1 || shared[0].OwnerID != owner.UserID {
		t.Fatalf("expected one shared owner, got %v err=%v", shared, err)
	}

	if err := service.RevokeGlobal(context.Background(), owner, viewer.Email); err != nil {
		t.Fatalf("RevokeGlobal: %v", err)
	}
	ok, err := service.CheckAccess(context.Background(), owner.UserID, "2026-03-10", viewer.Email)
	if err != nil || ok {
		t.Fatalf("revoked viewer should have no access: ok=%v err=%v", ok, err)
	}
	shared, err = service.SharedWithMe(context.Background(), viewer)
	if err != nil || len(shared) != 0 {
		t.Fatalf("reverse index should be empty after revoke, got %v err=%v", shared, err)
	}

	// Revoking again is a no-op.
	if err := service.RevokeGlobal(context.Background(), owner, viewer.Email); err != nil {
		t.Fatalf("second RevokeGlobal: %v", err)
	}
}

func TestDailyGrantInvisibleToSharedWithMe(t *testing.T) {
	service, _ := newTestService(t)
	owner := signUpUser(t, service, "amy@example.com", "Amy")
	viewer := signUpUser(t, service, "bob@example.com", "Bob")

	if err := service.GrantDaily(context.Background(), owner, "2026-03-10", viewer.Email); err != nil {
		t.Fatalf("GrantDaily: %v", err)
	}
	shared, err := service.SharedWithMe(context.Background(), viewer)
	if err != nil || len(shared) != 0 {
		t.Fatalf("daily grants must not appear in shared-with-me, got %v err=%v", shared, err)
	}
}

func TestGlobalViewersListsStandingGrantsOnly(t *testing.T) {
	service, _ := newTestService(t)
	owner := signUpUser(t, service, "amy@example.com", "Amy")

	if err := service.GrantGlobal(context.Background(), owner, "bob@example.com"); err != nil {
		t.Fatalf("GrantGlobal: %v", err)
	}
	if err := service.GrantDaily(context.Background(), owner, "2026-03-10", "carol@example.com"); err != nil {
		t.Fatalf("GrantDaily: %v", err)
	}

	viewers, err := service.GlobalViewers(context.Background(), owner)
	if err != nil {
		t.Fatalf("GlobalViewers: %v", err)
	}
	if len(viewers) != 1 || viewers[0].Email != "bob@example.com" {
		t.Fatalf("expected only the standing grant, got %v", viewers)
	}
	if viewers[0].GrantedAt.IsZero() {
		t.Fatal("expected a grant timestamp")
	}
}

func TestGrantRejectsSelfAndBadEmail(t *testing.T) {
	service, _ := newTestService(t)
	owner := signUpUser(t, service, "amy@example.com", "Amy")

	var domainErr *DomainError
	if err := service.GrantGlobal(context.Background(), owner, "amy@example.com"); !errors.As(err, &domainErr) {
		t.Fatalf("expected validation error for self-share, got %v", err)
	}
	if err := service.GrantGlobal(context.Background(), owner, "not-an-email"); !errors.As(err, &domainErr) {
		t.Fatalf("expected validation error for bad email, got %v", err)
	}
}

func TestViewerReadPath(t *testing.T) {
	service, _ := newTestService(t)
	owner := signUpUser(t, service, "amy@example.com", "Amy")
	viewer := signUpUser(t, service, "bob@example.com", "Bob")

	doc := planner.Blank("2026-03-10")
	doc.Intention = "Deep work"
	if err := service.SaveOwnPlan(context.Background(), owner, "2026-03-10", doc); err != nil {
		t.Fatalf("SaveOwnPlan: %v", err)
	}

	// Without a grant the read is forbidden.
	_, err := service.GetPlanForViewer(context.Background(), owner.UserID, "2026-03-10", viewer.Email)
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}

	if err := service.GrantGlobal(context.Background(), owner, viewer.Email); err != nil {
		t.Fatalf("GrantGlobal: %v", err)
	}
	got, err := service.GetPlanForViewer(context.Background(), owner.UserID, "2026-03-10", viewer.Email)
	if err != nil {
		t.Fatalf("GetPlanForViewer: %v", err)
	}
	if got.Intention != "Deep work" {
		t.Fatalf("viewer read lost fields: %+v", got)
	}

	// Absent entries are NotFound for viewers, never seeded.
	_, err = service.GetPlanForViewer(context.Background(), owner.UserID, "2026-03-11", viewer.Email)
	if !errors.As(err, &domainErr) || domainErr.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND for an absent entry, got %v", err)
	}
}

func TestPlanDatesForViewerRequiresGlobalGrant(t *testing.T) {
	service, _ := newTestService(t)
	owner := signUpUser(t, service, "amy@example.com", "Amy")
	viewer := signUpUser(t, service, "bob@example.com", "Bob")

	if err := service.GrantDaily(context.Background(), owner, "2026-03-10", viewer.Email); err != nil {
		t.Fatalf("GrantDaily: %v", err)
	}
	_, err := service.PlanDatesForViewer(context.Background(), owner.UserID, viewer.Email)
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != "FORBIDDEN" {
		t.Fatalf("daily grant must not allow date listing, got %v", err)
	}

	if err := service.GrantGlobal(context.Background(), owner, viewer.Email); err != nil {
		t.Fatalf("GrantGlobal: %v", err)
	}
	if _, err := service.PlanDatesForViewer(context.Background(), owner.UserID, viewer.Email); err != nil {
		t.Fatalf("PlanDatesForViewer: %v", err)
	}
}
