package app

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"daybook/api/internal/store"
)

// fakeStore is an in-memory dataStore plus refreshStore for service and
// handler tests.
type fakeStore struct {
	users        map[string]store.User            // by id
	plans        map[string]map[string]planEntry  // ownerID -> date
	globalGrants map[string]map[string]time.Time  // ownerID -> viewerEmail
	dailyGrants  map[dailyKey]time.Time
	shared       map[string]map[string]sharedRow  // viewerEmail -> ownerID
	refresh      map[string]refreshRow            // tokenHash

	savePlanErr error
	saveCount   int
}

type planEntry struct {
	doc       []byte
	createdAt time.Time
	updatedAt time.Time
}

type dailyKey struct {
	ownerID, date, viewerEmail string
}

type sharedRow struct {
	ownerEmail string
	sharedAt   time.Time
}

type refreshRow struct {
	userID    string
	expiresAt time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[string]store.User{},
		plans:        map[string]map[string]planEntry{},
		globalGrants: map[string]map[string]time.Time{},
		dailyGrants:  map[dailyKey]time.Time{},
		shared:       map[string]map[string]sharedRow{},
		refresh:      map[string]refreshRow{},
	}
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) CreateUser(_ context.Context, user store.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (store.User, error) {
	user, ok := f.users[id]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeStore) UpdateDisplayName(_ context.Context, userID, displayName string) error {
	user := f.users[userID]
	user.DisplayName = displayName
	f.users[userID] = user
	return nil
}

func (f *fakeStore) GetPlan(_ context.Context, ownerID, date string) (store.PlanRecord, error) {
	entry, ok := f.plans[ownerID][date]
	if !ok {
		return store.PlanRecord{}, sql.ErrNoRows
	}
	return store.PlanRecord{OwnerID: ownerID, Date: date, Doc: entry.doc, CreatedAt: entry.createdAt, UpdatedAt: entry.updatedAt}, nil
}

func (f *fakeStore) SavePlan(_ context.Context, ownerID, date string, doc []byte) (store.PlanRecord, error) {
	if f.savePlanErr != nil {
		return store.PlanRecord{}, f.savePlanErr
	}
	f.saveCount++
	if f.plans[ownerID] == nil {
		f.plans[ownerID] = map[string]planEntry{}
	}
	now := time.Now()
	entry, ok := f.plans[ownerID][date]
	if !ok {
		entry = planEntry{createdAt: now}
	}
	entry.doc = doc
	entry.updatedAt = now
	f.plans[ownerID][date] = entry
	return store.PlanRecord{OwnerID: ownerID, Date: date, Doc: doc, CreatedAt: entry.createdAt, UpdatedAt: entry.updatedAt}, nil
}

func (f *fakeStore) ListPlanDates(_ context.Context, ownerID string) ([]string, error) {
	dates := make([]string, 0, len(f.plans[ownerID]))
	for date := range f.plans[ownerID] {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

func (f *fakeStore) MostRecentPlanBefore(ctx context.Context, ownerID, beforeDate string) (store.PlanRecord, error) {
	best := ""
	for date := range f.plans[ownerID] {
		if date < beforeDate && date > best {
			best = date
		}
	}
	if best == "" {
		return store.PlanRecord{}, sql.ErrNoRows
	}
	return f.GetPlan(ctx, ownerID, best)
}

func (f *fakeStore) ListRecentPlans(ctx context.Context, ownerID string, limit int) ([]store.PlanRecord, error) {
	dates, _ := f.ListPlanDates(ctx, ownerID)
	if len(dates) > limit {
		dates = dates[:limit]
	}
	records := make([]store.PlanRecord, 0, len(dates))
	for _, date := range dates {
		record, err := f.GetPlan(ctx, ownerID, date)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (f *fakeStore) UpsertGlobalGrant(_ context.Context, ownerID, ownerEmail, viewerEmail string) error {
	if f.globalGrants[ownerID] == nil {
		f.globalGrants[ownerID] = map[string]time.Time{}
	}
	now := time.Now()
	f.globalGrants[ownerID][viewerEmail] = now
	if f.shared[viewerEmail] == nil {
		f.shared[viewerEmail] = map[string]sharedRow{}
	}
	f.shared[viewerEmail][ownerID] = sharedRow{ownerEmail: ownerEmail, sharedAt: now}
	return nil
}

func (f *fakeStore) DeleteGlobalGrant(_ context.Context, ownerID, viewerEmail string) error {
	delete(f.globalGrants[ownerID], viewerEmail)
	delete(f.shared[viewerEmail], ownerID)
	return nil
}

func (f *fakeStore) UpsertDailyGrant(_ context.Context, ownerID, date, viewerEmail string) error {
	f.dailyGrants[dailyKey{ownerID, date, viewerEmail}] = time.Now()
	return nil
}

func (f *fakeStore) DeleteDailyGrant(_ context.Context, ownerID, date, viewerEmail string) error {
	delete(f.dailyGrants, dailyKey{ownerID, date, viewerEmail})
	return nil
}

func (f *fakeStore) HasGlobalGrant(_ context.Context, ownerID, viewerEmail string) (bool, error) {
	_, ok := f.globalGrants[ownerID][viewerEmail]
	return ok, nil
}

func (f *fakeStore) HasDailyGrant(_ context.Context, ownerID, date, viewerEmail string) (bool, error) {
	_, ok := f.dailyGrants[dailyKey{ownerID, date, viewerEmail}]
	return ok, nil
}

func (f *fakeStore) ListGlobalViewers(_ context.Context, ownerID string) ([]store.Viewer, error) {
	viewers := make([]store.Viewer, 0, len(f.globalGrants[ownerID]))
	for email, grantedAt := range f.globalGrants[ownerID] {
		viewers = append(viewers, store.Viewer{Email: email, GrantedAt: grantedAt})
	}
	sort.Slice(viewers, func(i, j int) bool { return viewers[i].Email < viewers[j].Email })
	return viewers, nil
}

func (f *fakeStore) ListSharedWithMe(_ context.Context, viewerEmail string) ([]store.SharedOwner, error) {
	owners := make([]store.SharedOwner, 0, len(f.shared[viewerEmail]))
	for ownerID, row := range f.shared[viewerEmail] {
		owners = append(owners, store.SharedOwner{OwnerID: ownerID, OwnerEmail: row.ownerEmail, SharedAt: row.sharedAt})
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i].OwnerEmail < owners[j].OwnerEmail })
	return owners, nil
}

func (f *fakeStore) SaveRefreshSession(_ context.Context, tokenHash, userID string, expiresAt time.Time) error {
	f.refresh[tokenHash] = refreshRow{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeStore) LookupRefreshSession(_ context.Context, tokenHash string) (string, error) {
	row, ok := f.refresh[tokenHash]
	if !ok || time.Now().After(row.expiresAt) {
		return "", sql.ErrNoRows
	}
	return row.userID, nil
}

func (f *fakeStore) RevokeRefreshSession(_ context.Context, tokenHash string) error {
	delete(f.refresh, tokenHash)
	return nil
}
