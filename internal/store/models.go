package store

import "time"

type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PlanRecord is one persisted planner entry: the raw JSONB document plus the
// write timestamps the store maintains alongside it.
type PlanRecord struct {
	OwnerID   string
	Date      string
	Doc       []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Viewer is one standing grant as the owner sees it in the share dialog.
type Viewer struct {
	Email     string
	GrantedAt time.Time
}

// SharedOwner is one row of a viewer's reverse index: an owner who granted
// them global access.
type SharedOwner struct {
	OwnerID    string
	OwnerEmail string
	SharedAt   time.Time
}
