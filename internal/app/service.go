package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"daybook/api/internal/ai"
	"daybook/api/internal/auth"
	"daybook/api/internal/authpw"
	"daybook/api/internal/config"
	"daybook/api/internal/planner"
	"daybook/api/internal/store"

	"github.com/google/uuid"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	Email        string
	Name         string
	JTI          string
	ExpiresAt    time.Time
}

type dataStore interface {
	Ping(context.Context) error

	CreateUser(context.Context, store.User) error
	GetUserByEmail(context.Context, string) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	UpdateDisplayName(ctx context.Context, userID, displayName string) error

	GetPlan(ctx context.Context, ownerID, date string) (store.PlanRecord, error)
	SavePlan(ctx context.Context, ownerID, date string, doc []byte) (store.PlanRecord, error)
	// Newest first, like ListRecentPlans.
	ListPlanDates(ctx context.Context, ownerID string) ([]string, error)
	MostRecentPlanBefore(ctx context.Context, ownerID, beforeDate string) (store.PlanRecord, error)
	ListRecentPlans(ctx context.Context, ownerID string, limit int) ([]store.PlanRecord, error)

	UpsertGlobalGrant(ctx context.Context, ownerID, ownerEmail, viewerEmail string) error
	DeleteGlobalGrant(ctx context.Context, ownerID, viewerEmail string) error
	UpsertDailyGrant(ctx context.Context, ownerID, date, viewerEmail string) error
	DeleteDailyGrant(ctx context.Context, ownerID, date, viewerEmail string) error
	HasGlobalGrant(ctx context.Context, ownerID, viewerEmail string) (bool, error)
	HasDailyGrant(ctx context.Context, ownerID, date, viewerEmail string) (bool, error)
	ListGlobalViewers(ctx context.Context, ownerID string) ([]store.Viewer, error)
	ListSharedWithMe(ctx context.Context, viewerEmail string) ([]store.SharedOwner, error)
}

// RefreshStore is satisfied by both the Redis session store and the
// Postgres fallback.
type RefreshStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (string, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type Service struct {
	cfg       config.Config
	store     dataStore
	refresh   RefreshStore
	passwords *authpw.Service
	completer ai.Completer
	pending   *pendingWrites
}

// New wires a Service. completer may be nil, in which case the AI endpoints
// report themselves unavailable.
func New(cfg config.Config, dataStore dataStore, refresh RefreshStore, completer ai.Completer) *Service {
	s := &Service{
		cfg:       cfg,
		store:     dataStore,
		refresh:   refresh,
		passwords: authpw.NewService(dataStore),
		completer: completer,
	}
	s.pending = newPendingWrites(cfg.WriteFlushDelay, s.persistPlan)
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Shutdown flushes every pending autosave.
func (s *Service) Shutdown() {
	s.pending.FlushAll()
}

// Accounts and sessions

func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (Session, error) {
	user, err := s.passwords.SignUp(ctx, authpw.SignUpRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	})
	if err != nil {
		return Session{}, err
	}
	return s.createSession(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, email, password, displayName string) (Session, error) {
	user, err := s.passwords.SignIn(ctx, authpw.SignInRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	})
	if err != nil {
		return Session{}, err
	}
	return s.createSession(ctx, user)
}

func (s *Service) createSession(ctx context.Context, user store.User) (Session, error) {
	jti := uuid.NewString()
	expiresAt := time.Now().Add(s.cfg.AccessTTL)
	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		Name:  user.DisplayName,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}

	refreshToken := randomToken()
	refreshExpiry := time.Now().Add(s.cfg.RefreshTTL)
	if err := s.refresh.SaveRefreshSession(ctx, auth.HashToken(refreshToken), user.ID, refreshExpiry); err != nil {
		return Session{}, fmt.Errorf("save refresh session: %w", err)
	}

	return Session{
		Token:        token,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.DisplayName,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		UserID:    claims.Sub,
		Email:     claims.Email,
		Name:      claims.Name,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// Refresh rotates the refresh token: the old one is revoked, a new pair is
// issued from the current profile.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	userID, err := s.refresh.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, fmt.Errorf("lookup refresh session: %w", err)
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if err := s.refresh.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, fmt.Errorf("revoke refresh session: %w", err)
	}
	return s.createSession(ctx, user)
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.refresh.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
}

// Planner entries

func (s *Service) PlanDates(ctx context.Context, ownerID string) ([]string, error) {
	if err := s.pending.FlushOwner(ownerID); err != nil {
		return nil, err
	}
	return s.store.ListPlanDates(ctx, ownerID)
}

// GetOwnPlan loads the caller's entry for date. When the entry is absent and
// date is the caller-local today, the most recent prior entry's incomplete
// habits and priorities are carried forward and the seeded entry persisted
// immediately; any failure on that path falls back to a blank entry. Absent
// entries for any other date come back blank and unpersisted.
func (s *Service) GetOwnPlan(ctx context.Context, session Session, date, today string) (planner.Document, error) {
	if !planner.ValidDate(date) {
		return planner.Document{}, errInvalidArgument("date must be YYYY-MM-DD")
	}
	if !planner.ValidDate(today) {
		today = time.Now().Format(planner.DateLayout)
	}

	// Navigating to a date flushes every pending autosave so the read
	// observes the latest edits.
	if err := s.pending.FlushOwner(session.UserID); err != nil {
		return planner.Document{}, err
	}

	record, err := s.store.GetPlan(ctx, session.UserID, date)
	if err == nil {
		return decodeRecord(record)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return planner.Document{}, fmt.Errorf("load plan: %w", err)
	}

	if date != today {
		return planner.Blank(date), nil
	}
	return s.seedToday(ctx, session.UserID, date), nil
}

// seedToday runs the carry-forward decision for an absent today-entry.
func (s *Service) seedToday(ctx context.Context, ownerID, date string) planner.Document {
	prev, err := s.store.MostRecentPlanBefore(ctx, ownerID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return planner.Blank(date)
	}
	if err != nil {
		log.Printf("carry-forward lookup failed for %s: %v", ownerID, err)
		return planner.Blank(date)
	}

	prevDoc, err := planner.FromDocument(prev.Doc)
	if err != nil {
		log.Printf("carry-forward decode failed for %s/%s: %v", ownerID, prev.Date, err)
		return planner.Blank(date)
	}

	seeded, ok := planner.CarryForward(prevDoc, date)
	if !ok {
		return planner.Blank(date)
	}

	raw, err := planner.ToDocument(seeded)
	if err != nil {
		log.Printf("carry-forward encode failed for %s/%s: %v", ownerID, date, err)
		return planner.Blank(date)
	}
	record, err := s.store.SavePlan(ctx, ownerID, date, raw)
	if err != nil {
		log.Printf("carry-forward persist failed for %s/%s: %v", ownerID, date, err)
		return planner.Blank(date)
	}
	stampTimestamps(&seeded, record)
	return seeded
}

// SaveOwnPlan queues the caller's entry for debounced persistence. The
// document's date always follows the path date, and schedule events without
// an id get one assigned.
func (s *Service) SaveOwnPlan(_ context.Context, session Session, date string, doc planner.Document) error {
	if !planner.ValidDate(date) {
		return errInvalidArgument("date must be YYYY-MM-DD")
	}
	doc.Date = date
	for i := range doc.ScheduleEvents {
		if doc.ScheduleEvents[i].ID == "" {
			doc.ScheduleEvents[i].ID = uuid.NewString()
		}
	}
	return s.pending.Put(session.UserID, date, doc)
}

// GetPlanForViewer reads another owner's entry after the access check.
// Unlike the owner path, an absent entry is a NotFound, never a seed.
func (s *Service) GetPlanForViewer(ctx context.Context, ownerID, date, viewerEmail string) (planner.Document, error) {
	if !planner.ValidDate(date) {
		return planner.Document{}, errInvalidArgument("date must be YYYY-MM-DD")
	}
	allowed, err := s.CheckAccess(ctx, ownerID, date, viewerEmail)
	if err != nil {
		return planner.Document{}, err
	}
	if !allowed {
		return planner.Document{}, errPermissionDenied()
	}

	if err := s.pending.Flush(ownerID, date); err != nil {
		return planner.Document{}, err
	}
	record, err := s.store.GetPlan(ctx, ownerID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return planner.Document{}, errNotFound("No daily plan found for this date")
	}
	if err != nil {
		return planner.Document{}, fmt.Errorf("load plan: %w", err)
	}
	return decodeRecord(record)
}

// PlanDatesForViewer lists an owner's dates for a viewer. Only a global
// grant is broad enough to enumerate dates.
func (s *Service) PlanDatesForViewer(ctx context.Context, ownerID, viewerEmail string) ([]string, error) {
	allowed, err := s.store.HasGlobalGrant(ctx, ownerID, viewerEmail)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errPermissionDenied()
	}
	return s.PlanDates(ctx, ownerID)
}

func (s *Service) persistPlan(ownerID, date string, doc planner.Document) error {
	raw, err := planner.ToDocument(doc)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := s.store.SavePlan(ctx, ownerID, date, raw); err != nil {
		return err
	}
	return nil
}

func decodeRecord(record store.PlanRecord) (planner.Document, error) {
	doc, err := planner.FromDocument(record.Doc)
	if err != nil {
		return planner.Document{}, fmt.Errorf("decode plan %s: %w", record.Date, err)
	}
	stampTimestamps(&doc, record)
	return doc, nil
}

func stampTimestamps(doc *planner.Document, record store.PlanRecord) {
	doc.CreatedAt = record.CreatedAt.UTC().Format(time.RFC3339)
	doc.UpdatedAt = record.UpdatedAt.UTC().Format(time.RFC3339)
}

func randomToken() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
