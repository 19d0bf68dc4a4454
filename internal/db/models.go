package db

import (
	"time"
)

// Need formats accepted by the Format column.
const (
	FormatInPerson = "in-person"
	FormatVirtual  = "virtual"
)

// Volunteer table. Email is the login identity and must be unique.
type Volunteer struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	Name         string    `gorm:"size:255;not null"`
	Email        string    `gorm:"uniqueIndex;size:255;not null"`
	Password     string    `gorm:"size:255;not null"`
	Phone        string    `gorm:"size:50"`
	AboutMe      string    `gorm:"type:text"`
	Skills       string    `gorm:"type:text"`
	Interests    string    `gorm:"type:text"`
	Location     string    `gorm:"size:255"`
	Availability string    `gorm:"size:255"`
	Active       bool      `gorm:"default:true"`
	Manager      bool      `gorm:"default:false"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Need is a volunteering opportunity owned by a volunteer.
type Need struct {
	ID                  uint64    `gorm:"primaryKey;autoIncrement"`
	Title               string    `gorm:"size:255;not null"`
	Description         string    `gorm:"type:text;not null"`
	RequiredTasks       string    `gorm:"type:text"`
	RequiredSkills      string    `gorm:"type:text"`
	NumVolunteersNeeded int       `gorm:"not null"`
	Format              string    `gorm:"size:16;not null"`
	LocationDetails     string    `gorm:"type:text"`
	ContactName         string    `gorm:"size:255;not null"`
	ContactEmail        string    `gorm:"size:255;not null"`
	ContactPhone        string    `gorm:"size:50"`
	OwnerID             uint64    `gorm:"not null;index"`
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

// Match is a derived (volunteer, need) pairing produced by the matching
// engine. Rows are entirely owned by the engine: a rerun for a pivot
// clears and rewrites that pivot's rows, and user-driven deletion of a
// volunteer or need cascades through its matches. No uniqueness
// constraint on (volunteer_id, need_id): the same pair may be written
// by a need-pivot run and a volunteer-pivot run independently.
type Match struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	VolunteerID  uint64    `gorm:"not null;index"`
	NeedID       uint64    `gorm:"not null;index"`
	MatchDetails string    `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}
