package db

import (
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedNeed struct {
	title          string
	description    string
	requiredSkills string
	volunteers     int
	format         string
}

var seedVolunteers = []Volunteer{
	{Name: "Alice Ferreira", Email: "alice@example.com", Skills: "Gardening, Composting", Interests: "Environmental protection", AboutMe: "Weekend gardener, happy to get my hands dirty."},
	{Name: "Bruno Costa", Email: "bruno@example.com", Skills: "Teaching, Public Speaking", Interests: "Youth mentorship", AboutMe: "Former school teacher."},
	{Name: "Carla Mendes", Email: "carla@example.com", Skills: "Coding, Web Design", Interests: "Tech for good", AboutMe: "Full-stack developer with free evenings."},
	{Name: "Diego Ramos", Email: "diego@example.com", Skills: "Cooking", Interests: "Food security", AboutMe: "Line cook, available mornings."},
	{Name: "Elena Souza", Email: "elena@example.com", Skills: "First Aid, Logistics", Interests: "Disaster relief", Manager: true},
}

var seedNeeds = []seedNeed{
	{"Community Garden Cleanup", "Seasonal cleanup and replanting of the neighborhood garden.", "Gardening", 4, FormatInPerson},
	{"Homework Help Hotline", "Remote tutoring for middle-school students.", "Teaching", 3, FormatVirtual},
	{"Nonprofit Website Refresh", "Rebuild our aging donation page.", "Coding, Web Design", 2, FormatVirtual},
	{"Soup Kitchen Shift", "Prep and serve meals on Saturdays.", "Cooking", 5, FormatInPerson},
}

// SeedTestData resets the database and populates it with demo volunteers
// and needs. Matches are never seeded: they are derived by the matching
// pipeline only.
//
// Compatible with both MySQL and SQLite (AUTO_INCREMENT reset skipped for SQLite).
func SeedTestData(db *gorm.DB) error {
	// --- Fresh start ---
	for _, table := range []string{"matches", "needs", "volunteers"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE matches AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE needs AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE volunteers AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('matches', 'needs', 'volunteers')")
	}

	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	volunteers := make([]Volunteer, len(seedVolunteers))
	copy(volunteers, seedVolunteers)
	for i := range volunteers {
		volunteers[i].Password = string(hash)
		volunteers[i].Active = true
		if err := db.Create(&volunteers[i]).Error; err != nil {
			return fmt.Errorf("failed to seed volunteer: %w", err)
		}
	}
	log.Printf("Seeded %d volunteers.", len(volunteers))

	// Needs are owned round-robin by the seeded volunteers.
	for i, n := range seedNeeds {
		owner := volunteers[i%len(volunteers)]
		need := Need{
			Title:               n.title,
			Description:         n.description,
			RequiredSkills:      n.requiredSkills,
			NumVolunteersNeeded: n.volunteers,
			Format:              n.format,
			ContactName:         owner.Name,
			ContactEmail:        owner.Email,
			OwnerID:             owner.ID,
		}
		if err := db.Create(&need).Error; err != nil {
			return fmt.Errorf("failed to seed need: %w", err)
		}
	}
	log.Printf("Seeded %d needs.", len(seedNeeds))

	return nil
}
