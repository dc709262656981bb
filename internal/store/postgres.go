package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Users

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Email, user.DisplayName, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`, email).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, created_at, updated_at
		FROM users WHERE id = $1
	`, userID).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET display_name = $2, updated_at = NOW() WHERE id = $1
	`, userID, displayName)
	if err != nil {
		return fmt.Errorf("update display name: %w", err)
	}
	return nil
}

// Planner entries

func (s *PostgresStore) GetPlan(ctx context.Context, ownerID, date string) (PlanRecord, error) {
	record := PlanRecord{OwnerID: ownerID, Date: date}
	err := s.db.QueryRowContext(ctx, `
		SELECT doc, created_at, updated_at
		FROM planner_entries
		WHERE owner_id = $1 AND entry_date = $2
	`, ownerID, date).Scan(&record.Doc, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return PlanRecord{}, err
	}
	return record, nil
}

// SavePlan writes the whole document for (owner, date). A rewrite keeps the
// original created_at and refreshes updated_at.
func (s *PostgresStore) SavePlan(ctx context.Context, ownerID, date string, doc []byte) (PlanRecord, error) {
	record := PlanRecord{OwnerID: ownerID, Date: date, Doc: doc}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO planner_entries (owner_id, entry_date, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, entry_date) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()
		RETURNING created_at, updated_at
	`, ownerID, date, doc).Scan(&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return PlanRecord{}, fmt.Errorf("save plan: %w", err)
	}
	return record, nil
}

// ListPlanDates returns the owner's entry dates newest first.
func (s *PostgresStore) ListPlanDates(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entry_date FROM planner_entries WHERE owner_id = $1 ORDER BY entry_date DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list plan dates: %w", err)
	}
	defer rows.Close()

	dates := make([]string, 0)
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("scan plan date: %w", err)
		}
		dates = append(dates, date)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan dates: %w", err)
	}
	return dates, nil
}

// MostRecentPlanBefore returns the entry with the greatest date strictly less
// than beforeDate, or sql.ErrNoRows when none exists.
func (s *PostgresStore) MostRecentPlanBefore(ctx context.Context, ownerID, beforeDate string) (PlanRecord, error) {
	record := PlanRecord{OwnerID: ownerID}
	err := s.db.QueryRowContext(ctx, `
		SELECT entry_date, doc, created_at, updated_at
		FROM planner_entries
		WHERE owner_id = $1 AND entry_date < $2
		ORDER BY entry_date DESC
		LIMIT 1
	`, ownerID, beforeDate).Scan(&record.Date, &record.Doc, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return PlanRecord{}, err
	}
	return record, nil
}

func (s *PostgresStore) ListRecentPlans(ctx context.Context, ownerID string, limit int) ([]PlanRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entry_date, doc, created_at, updated_at
		FROM planner_entries
		WHERE owner_id = $1
		ORDER BY entry_date DESC
		LIMIT $2
	`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent plans: %w", err)
	}
	defer rows.Close()

	records := make([]PlanRecord, 0, limit)
	for rows.Next() {
		record := PlanRecord{OwnerID: ownerID}
		if err := rows.Scan(&record.Date, &record.Doc, &record.CreatedAt, &record.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return records, nil
}

// Viewer grants. Global grants and their reverse-index rows are written in a
// single transaction so the two can never disagree.

func (s *PostgresStore) UpsertGlobalGrant(ctx context.Context, ownerID, ownerEmail, viewerEmail string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin grant tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO viewer_grants (owner_id, viewer_email, entry_date)
		VALUES ($1, $2, '')
		ON CONFLICT (owner_id, viewer_email, entry_date) DO UPDATE SET granted_at = NOW()
	`, ownerID, viewerEmail); err != nil {
		return fmt.Errorf("upsert global grant: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO shared_with_me (viewer_email, owner_id, owner_email)
		VALUES ($1, $2, $3)
		ON CONFLICT (viewer_email, owner_id) DO UPDATE SET owner_email = EXCLUDED.owner_email, shared_at = NOW()
	`, viewerEmail, ownerID, ownerEmail); err != nil {
		return fmt.Errorf("upsert reverse index: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grant tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteGlobalGrant(ctx context.Context, ownerID, viewerEmail string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin revoke tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM viewer_grants WHERE owner_id = $1 AND viewer_email = $2 AND entry_date = ''
	`, ownerID, viewerEmail); err != nil {
		return fmt.Errorf("delete global grant: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM shared_with_me WHERE viewer_email = $2 AND owner_id = $1
	`, ownerID, viewerEmail); err != nil {
		return fmt.Errorf("delete reverse index: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit revoke tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertDailyGrant(ctx context.Context, ownerID, date, viewerEmail string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO viewer_grants (owner_id, viewer_email, entry_date)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, viewer_email, entry_date) DO UPDATE SET granted_at = NOW()
	`, ownerID, viewerEmail, date)
	if err != nil {
		return fmt.Errorf("upsert daily grant: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteDailyGrant(ctx context.Context, ownerID, date, viewerEmail string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM viewer_grants WHERE owner_id = $1 AND viewer_email = $2 AND entry_date = $3
	`, ownerID, viewerEmail, date)
	if err != nil {
		return fmt.Errorf("delete daily grant: %w", err)
	}
	return nil
}

func (s *PostgresStore) HasGlobalGrant(ctx context.Context, ownerID, viewerEmail string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM viewer_grants WHERE owner_id = $1 AND viewer_email = $2 AND entry_date = '')
	`, ownerID, viewerEmail).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check global grant: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) HasDailyGrant(ctx context.Context, ownerID, date, viewerEmail string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM viewer_grants WHERE owner_id = $1 AND viewer_email = $2 AND entry_date = $3)
	`, ownerID, viewerEmail, date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check daily grant: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListGlobalViewers(ctx context.Context, ownerID string) ([]Viewer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT viewer_email, granted_at
		FROM viewer_grants
		WHERE owner_id = $1 AND entry_date = ''
		ORDER BY granted_at
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list global viewers: %w", err)
	}
	defer rows.Close()

	viewers := make([]Viewer, 0)
	for rows.Next() {
		var viewer Viewer
		if err := rows.Scan(&viewer.Email, &viewer.GrantedAt); err != nil {
			return nil, fmt.Errorf("scan viewer: %w", err)
		}
		viewers = append(viewers, viewer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate viewers: %w", err)
	}
	return viewers, nil
}

func (s *PostgresStore) ListSharedWithMe(ctx context.Context, viewerEmail string) ([]SharedOwner, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT owner_id, owner_email, shared_at
		FROM shared_with_me
		WHERE viewer_email = $1
		ORDER BY shared_at DESC
	`, viewerEmail)
	if err != nil {
		return nil, fmt.Errorf("list shared with me: %w", err)
	}
	defer rows.Close()

	owners := make([]SharedOwner, 0)
	for rows.Next() {
		var owner SharedOwner
		if err := rows.Scan(&owner.OwnerID, &owner.OwnerEmail, &owner.SharedAt); err != nil {
			return nil, fmt.Errorf("scan shared owner: %w", err)
		}
		owners = append(owners, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shared owners: %w", err)
	}
	return owners, nil
}

// Refresh sessions (used when Redis is not configured)

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at, revoked_at = NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

// LookupRefreshSession returns the user id a live token belongs to; callers
// re-read the profile so the session never serves stale identity fields.
func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id
		FROM refresh_sessions
		WHERE token_hash = $1
			AND revoked_at IS NULL
			AND expires_at > NOW()
	`, tokenHash).Scan(&userID)
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at = NOW() WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}
