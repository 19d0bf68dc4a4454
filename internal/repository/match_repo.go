package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/FGuerriero/get-volunteers-backend/internal/db"
)

// MatchRepository provides data access methods for the derived Match
// relation. Every mutating call commits on its own: there is no
// multi-statement transaction across Create/Delete calls, so callers
// must tolerate a cleared-but-not-yet-reinserted window.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// Create inserts one match row. Constraint violations and store
// failures are returned to the caller, never swallowed.
func (r *MatchRepository) Create(ctx context.Context, volunteerID, needID uint64, details string) (*db.Match, error) {
	match := db.Match{
		VolunteerID:  volunteerID,
		NeedID:       needID,
		MatchDetails: details,
	}
	if err := r.db.WithContext(ctx).Create(&match).Error; err != nil {
		return nil, fmt.Errorf("create match (volunteer %d, need %d): %w", volunteerID, needID, err)
	}
	return &match, nil
}

// ListByVolunteer returns all matches referencing the volunteer.
// Match sets are bounded by the need listing, so no pagination.
func (r *MatchRepository) ListByVolunteer(ctx context.Context, volunteerID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("volunteer_id = ?", volunteerID).
		Order("created_at DESC, id DESC").
		Find(&matches).Error
	return matches, err
}

// ListByNeed returns all matches referencing the need.
func (r *MatchRepository) ListByNeed(ctx context.Context, needID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("need_id = ?", needID).
		Order("created_at DESC, id DESC").
		Find(&matches).Error
	return matches, err
}

// CountByVolunteer counts matches referencing the volunteer.
func (r *MatchRepository) CountByVolunteer(ctx context.Context, volunteerID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("volunteer_id = ?", volunteerID).
		Count(&count).Error
	return count, err
}

// CountByNeed counts matches referencing the need.
func (r *MatchRepository) CountByNeed(ctx context.Context, needID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("need_id = ?", needID).
		Count(&count).Error
	return count, err
}

// DeleteByNeed removes every match referencing the need. The matching
// engine calls this before inserting a fresh batch for the same need,
// which is what gives reruns replace semantics.
func (r *MatchRepository) DeleteByNeed(ctx context.Context, needID uint64) error {
	return r.db.WithContext(ctx).
		Where("need_id = ?", needID).
		Delete(&db.Match{}).Error
}

// DeleteByVolunteer removes every match referencing the volunteer.
func (r *MatchRepository) DeleteByVolunteer(ctx context.Context, volunteerID uint64) error {
	return r.db.WithContext(ctx).
		Where("volunteer_id = ?", volunteerID).
		Delete(&db.Match{}).Error
}

// DeleteAll wipes the whole relation. Administrative/test support.
func (r *MatchRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&db.Match{}).Error
}
