package entity

import (
	"context"
	"time"

	"kota/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Base contains the primary key shared by all entities.
type Base struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`
}

// NewBase creates a Base with a generated ID.
func NewBase() Base {
	return Base{ID: id.New()}
}

// Versioned extends Base with the optimistic-concurrency token and
// audit timestamps. The version is the sole concurrency token: it starts
// at 1 and increases by exactly 1 on every successful update.
type Versioned struct {
	Base

	// Version for optimistic locking (incremented on each update)
	Version int `db:"row_version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewVersioned creates a Versioned base with version 1 and current timestamps.
func NewVersioned() Versioned {
	now := time.Now().UTC()
	return Versioned{
		Base:      NewBase(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp and increments the version.
func (v *Versioned) Touch() {
	v.UpdatedAt = time.Now().UTC()
	v.Version++
}

// SetVersion updates the version number (used by repository after a
// successful conditional write).
func (v *Versioned) SetVersion(ver int) {
	v.Version = ver
}
