package matching

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/FGuerriero/get-volunteers-backend/internal/db"
)

//go:embed prompts/need_analysis.md
var needAnalysisRaw string

//go:embed prompts/volunteer_analysis.md
var volunteerAnalysisRaw string

// Parsed once at package init; reused on every matching run.
var (
	needAnalysisTemplate      = template.Must(template.New("need_analysis").Parse(needAnalysisRaw))
	volunteerAnalysisTemplate = template.Must(template.New("volunteer_analysis").Parse(volunteerAnalysisRaw))
)

type needPromptData struct {
	Title               string
	Description         string
	RequiredSkills      string
	NumVolunteersNeeded int
	Candidates          string
}

type volunteerPromptData struct {
	ID         uint64
	Name       string
	Email      string
	Skills     string
	AboutMe    string
	Interests  string
	Candidates string
}

// renderNeedPrompt builds the prompt for matching one need against the
// full volunteer listing. Empty profile fields are rendered as the
// literal "None" so the prompt shape stays stable.
func renderNeedPrompt(need *db.Need, volunteers []db.Volunteer) (string, error) {
	var lines []string
	for _, v := range volunteers {
		lines = append(lines, fmt.Sprintf(
			"- ID: %d, Name: %s, Email: %s, Skills: %s, About: %s, Interests: %s",
			v.ID, v.Name, v.Email, orNone(v.Skills), orNone(v.AboutMe), orNone(v.Interests),
		))
	}

	var sb strings.Builder
	err := needAnalysisTemplate.Execute(&sb, needPromptData{
		Title:               need.Title,
		Description:         need.Description,
		RequiredSkills:      orNone(need.RequiredSkills),
		NumVolunteersNeeded: need.NumVolunteersNeeded,
		Candidates:          strings.Join(lines, "\n"),
	})
	if err != nil {
		return "", fmt.Errorf("render need prompt: %w", err)
	}
	return sb.String(), nil
}

// renderVolunteerPrompt builds the prompt for matching one volunteer
// against the full need listing.
func renderVolunteerPrompt(volunteer *db.Volunteer, needs []db.Need) (string, error) {
	var lines []string
	for _, n := range needs {
		lines = append(lines, fmt.Sprintf(
			"- ID: %d, Title: %s, Description: %s, Required Skills: %s",
			n.ID, n.Title, n.Description, orNone(n.RequiredSkills),
		))
	}

	var sb strings.Builder
	err := volunteerAnalysisTemplate.Execute(&sb, volunteerPromptData{
		ID:         volunteer.ID,
		Name:       volunteer.Name,
		Email:      volunteer.Email,
		Skills:     orNone(volunteer.Skills),
		AboutMe:    orNone(volunteer.AboutMe),
		Interests:  orNone(volunteer.Interests),
		Candidates: strings.Join(lines, "\n"),
	})
	if err != nil {
		return "", fmt.Errorf("render volunteer prompt: %w", err)
	}
	return sb.String(), nil
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None"
	}
	return s
}
