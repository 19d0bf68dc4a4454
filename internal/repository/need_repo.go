package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/FGuerriero/get-volunteers-backend/internal/db"
)

// NeedRepository provides data access methods for the Need model.
type NeedRepository struct {
	db *gorm.DB
}

// NewNeedRepository creates a new repository bound to the given DB connection.
func NewNeedRepository(database *gorm.DB) *NeedRepository {
	return &NeedRepository{db: database}
}

// NeedUpdate lists the fields a need update may change. Nil pointers
// leave the current value untouched. Ownership is not transferable.
type NeedUpdate struct {
	Title               *string
	Description         *string
	RequiredTasks       *string
	RequiredSkills      *string
	NumVolunteersNeeded *int
	Format              *string
	LocationDetails     *string
	ContactName         *string
	ContactEmail        *string
	ContactPhone        *string
}

func (r *NeedRepository) Create(ctx context.Context, n *db.Need) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("create need: %w", err)
	}
	return nil
}

func (r *NeedRepository) Get(ctx context.Context, id uint64) (*db.Need, error) {
	var n db.Need
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// List returns the full need listing ordered by id. This is the
// candidate set the matching engine evaluates a volunteer against.
func (r *NeedRepository) List(ctx context.Context) ([]db.Need, error) {
	var needs []db.Need
	err := r.db.WithContext(ctx).Order("id").Find(&needs).Error
	return needs, err
}

// ListByOwner returns the needs created by the given volunteer.
func (r *NeedRepository) ListByOwner(ctx context.Context, ownerID uint64) ([]db.Need, error) {
	var needs []db.Need
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id").Find(&needs).Error
	return needs, err
}

// Update applies the non-nil fields of upd to the need and returns the
// reloaded row.
func (r *NeedRepository) Update(ctx context.Context, id uint64, upd NeedUpdate) (*db.Need, error) {
	n, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if upd.Title != nil {
		changes["title"] = *upd.Title
	}
	if upd.Description != nil {
		changes["description"] = *upd.Description
	}
	if upd.RequiredTasks != nil {
		changes["required_tasks"] = *upd.RequiredTasks
	}
	if upd.RequiredSkills != nil {
		changes["required_skills"] = *upd.RequiredSkills
	}
	if upd.NumVolunteersNeeded != nil {
		changes["num_volunteers_needed"] = *upd.NumVolunteersNeeded
	}
	if upd.Format != nil {
		changes["format"] = *upd.Format
	}
	if upd.LocationDetails != nil {
		changes["location_details"] = *upd.LocationDetails
	}
	if upd.ContactName != nil {
		changes["contact_name"] = *upd.ContactName
	}
	if upd.ContactEmail != nil {
		changes["contact_email"] = *upd.ContactEmail
	}
	if upd.ContactPhone != nil {
		changes["contact_phone"] = *upd.ContactPhone
	}
	if len(changes) == 0 {
		return n, nil
	}

	if err := r.db.WithContext(ctx).Model(n).Updates(changes).Error; err != nil {
		return nil, fmt.Errorf("update need %d: %w", id, err)
	}
	return r.Get(ctx, id)
}

// Delete removes the need and, in the same transaction, every match
// referencing it.
func (r *NeedRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("need_id = ?", id).Delete(&db.Match{}).Error; err != nil {
			return fmt.Errorf("delete matches for need %d: %w", id, err)
		}
		res := tx.Delete(&db.Need{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete need %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
