package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/FGuerriero/get-volunteers-backend/internal/db"
)

// VolunteerRepository provides data access methods for the Volunteer model.
type VolunteerRepository struct {
	db *gorm.DB
}

// NewVolunteerRepository creates a new repository bound to the given DB connection.
func NewVolunteerRepository(database *gorm.DB) *VolunteerRepository {
	return &VolunteerRepository{db: database}
}

// VolunteerUpdate lists the fields a profile update may change. Nil
// pointers leave the current value untouched. Identity (ID) and the
// manager flag are deliberately not updatable through this path.
type VolunteerUpdate struct {
	Name         *string
	Email        *string
	Password     *string
	Phone        *string
	AboutMe      *string
	Skills       *string
	Interests    *string
	Location     *string
	Availability *string
	Active       *bool
}

func (r *VolunteerRepository) Create(ctx context.Context, v *db.Volunteer) error {
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		return fmt.Errorf("create volunteer: %w", err)
	}
	return nil
}

func (r *VolunteerRepository) Get(ctx context.Context, id uint64) (*db.Volunteer, error) {
	var v db.Volunteer
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VolunteerRepository) GetByEmail(ctx context.Context, email string) (*db.Volunteer, error) {
	var v db.Volunteer
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns the full volunteer listing ordered by id. This is the
// candidate set the matching engine evaluates a need against.
func (r *VolunteerRepository) List(ctx context.Context) ([]db.Volunteer, error) {
	var volunteers []db.Volunteer
	err := r.db.WithContext(ctx).Order("id").Find(&volunteers).Error
	return volunteers, err
}

// Update applies the non-nil fields of upd to the volunteer and returns
// the reloaded row.
func (r *VolunteerRepository) Update(ctx context.Context, id uint64, upd VolunteerUpdate) (*db.Volunteer, error) {
	v, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if upd.Name != nil {
		changes["name"] = *upd.Name
	}
	if upd.Email != nil {
		changes["email"] = *upd.Email
	}
	if upd.Password != nil {
		changes["password"] = *upd.Password
	}
	if upd.Phone != nil {
		changes["phone"] = *upd.Phone
	}
	if upd.AboutMe != nil {
		changes["about_me"] = *upd.AboutMe
	}
	if upd.Skills != nil {
		changes["skills"] = *upd.Skills
	}
	if upd.Interests != nil {
		changes["interests"] = *upd.Interests
	}
	if upd.Location != nil {
		changes["location"] = *upd.Location
	}
	if upd.Availability != nil {
		changes["availability"] = *upd.Availability
	}
	if upd.Active != nil {
		changes["active"] = *upd.Active
	}
	if len(changes) == 0 {
		return v, nil
	}

	if err := r.db.WithContext(ctx).Model(v).Updates(changes).Error; err != nil {
		return nil, fmt.Errorf("update volunteer %d: %w", id, err)
	}
	return r.Get(ctx, id)
}

// Delete removes the volunteer and, in the same transaction, every
// match referencing it. Match rows must never outlive either entity
// they reference.
func (r *VolunteerRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("volunteer_id = ?", id).Delete(&db.Match{}).Error; err != nil {
			return fmt.Errorf("delete matches for volunteer %d: %w", id, err)
		}
		res := tx.Delete(&db.Volunteer{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete volunteer %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
