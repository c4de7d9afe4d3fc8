package llm

import "strings"

// SkillListPrompt wraps a JD in the extraction instructions and the JSON
// shape the skill extractor parses.
func SkillListPrompt(instructions, jdText string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(instructions))
	sb.WriteString("\n\nReturn only a JSON object of this shape:\n")
	sb.WriteString(`{"required": ["skill", ...], "preferred": ["skill", ...]}`)
	sb.WriteString("\n\nUse names exactly as a recruiter would search for them. ")
	sb.WriteString("Do not add skills the text does not mention.\n\n")
	sb.WriteString("Job description:\n\"\"\"\n")
	sb.WriteString(strings.TrimSpace(jdText))
	sb.WriteString("\n\"\"\"\n")
	return sb.String()
}
