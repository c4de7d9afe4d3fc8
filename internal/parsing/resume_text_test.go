package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResume = `Jane Doe
Austin, TX
jane@example.com
(555) 123-4567

## PROFESSIONAL SUMMARY
Analytics engineer with a **SQL** focus.

TECHNICAL SKILLS
- Languages: SQL, Python
- BI: Tableau

Professional Experience:
Acme Corp - Analytics Engineer | Austin, TX | Jan 2021 – Present
- Built DBT models
- Cut dashboard load time 40% between 2021 - 2022
Beta LLC | Data Analyst | Remote | 2018 - 2020
* Wrote SQL reports

EDUCATION
B.S. Statistics`

func TestParseResumeText(t *testing.T) {
	doc := ParseResumeText(sampleResume)

	assert.Equal(t, "Jane Doe", doc.Header.Name)
	assert.Equal(t, "Austin, TX", doc.Header.LocationLine)
	assert.Equal(t, "jane@example.com | (555) 123-4567", doc.Header.ContactLine)
	assert.Equal(t, "Analytics engineer with a SQL focus.", doc.Sections.ProfessionalSummary)
	assert.Equal(t, []string{"Languages: SQL, Python", "BI: Tableau"}, doc.Sections.TechnicalSkills)
	assert.Equal(t, []string{"B.S. Statistics"}, doc.Sections.Education)

	require.Len(t, doc.Sections.Experience, 2)

	acme := doc.Sections.Experience[0]
	assert.Equal(t, "Acme Corp", acme.Company)
	assert.Equal(t, "Analytics Engineer", acme.Title)
	assert.Equal(t, "Austin, TX", acme.Location)
	assert.Equal(t, "Jan 2021 - Present", acme.Dates)
	assert.Equal(t, []string{"Built DBT models", "Cut dashboard load time 40% between 2021 - 2022"}, acme.Bullets)
	assert.Equal(t, RoleID("Acme Corp", "Analytics Engineer", "Jan 2021 - Present"), acme.RoleID)
	assert.Len(t, acme.RoleID, 10)

	beta := doc.Sections.Experience[1]
	assert.Equal(t, "Beta LLC", beta.Company)
	assert.Equal(t, "Data Analyst", beta.Title)
	assert.Equal(t, "Remote", beta.Location)
	assert.Equal(t, "2018 - 2020", beta.Dates)
	assert.Equal(t, []string{"Wrote SQL reports"}, beta.Bullets)
	assert.NotEqual(t, acme.RoleID, beta.RoleID)
}

func TestParseResumeText_OrphanBullets(t *testing.T) {
	doc := ParseResumeText("Sam\n\nEXPERIENCE\n- Automated reporting\n- Migrated jobs")

	require.Len(t, doc.Sections.Experience, 1)
	role := doc.Sections.Experience[0]
	assert.Equal(t, "Unknown", role.Company)
	assert.Equal(t, "Unknown Role", role.Title)
	assert.Equal(t, []string{"Automated reporting", "Migrated jobs"}, role.Bullets)
	assert.Empty(t, doc.Sections.TechnicalSkills)
}

func TestRenderText_RoundTrip(t *testing.T) {
	doc := ParseResumeText(sampleResume)
	text := RenderText(doc)

	assert.Contains(t, text, "PROFESSIONAL EXPERIENCE\nAcme Corp - Analytics Engineer | Austin, TX | Jan 2021 - Present\n- Built DBT models")
	assert.Contains(t, text, "Beta LLC - Data Analyst | Remote | 2018 - 2020")
	assert.Equal(t, doc, ParseResumeText(text))
}

func TestRoleIDStable(t *testing.T) {
	assert.Equal(t, RoleID("Acme", "Engineer", "2020"), RoleID(" ACME", "engineer", "2020"))
	assert.NotEqual(t, RoleID("Acme", "Engineer", "2020"), RoleID("Acme", "Engineer", "2021"))
}

func TestCleanBullet(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "- Built pipelines", want: "Built pipelines"},
		{in: "• Built\tpipelines\n", want: "Built pipelines"},
		{in: "3. Built  pipelines", want: "Built pipelines"},
		{in: "Built pipelines", want: "Built pipelines"},
		{in: "   ", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanBullet(tt.in), "input %q", tt.in)
	}
}
