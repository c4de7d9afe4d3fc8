package skills

import "strings"

// variants maps common spellings to the canonical names used in the dictionary.
var variants = map[string]string{
	"golang":                    "Go",
	"go lang":                   "Go",
	"javascript":                "JavaScript",
	"js":                        "JavaScript",
	"typescript":                "TypeScript",
	"ts":                        "TypeScript",
	"k8s":                       "Kubernetes",
	"postgres":                  "PostgreSQL",
	"postgresql":                "PostgreSQL",
	"powerbi":                   "Power BI",
	"data build tool":           "DBT",
	"apache airflow":            "Airflow",
	"apache spark":              "Spark",
	"apache kafka":              "Kafka",
	"cicd":                      "CI/CD",
	"ci cd":                     "CI/CD",
	"google bigquery":           "BigQuery",
	"amazon redshift":           "Redshift",
	"amazon web services":       "AWS",
	"google cloud":              "GCP",
	"google cloud platform":     "GCP",
	"microsoft azure":           "Azure",
	"restful":                   "REST",
	"ms sql server":             "SQL Server",
	"structured query language": "SQL",
}

// Normalize maps a skill name to its canonical form. Dictionary entries keep
// their dictionary spelling, known variants map to their canonical name, and
// unknown single lowercase words are capitalized.
func Normalize(name string) string {
	trimmed := strings.Join(strings.Fields(name), " ")
	if trimmed == "" {
		return ""
	}
	lower := strings.ToLower(trimmed)
	if canonical, ok := variants[lower]; ok {
		return canonical
	}
	if InDictionary(trimmed) {
		return Canonical(trimmed)
	}
	if trimmed == lower && !strings.Contains(trimmed, " ") {
		return strings.ToUpper(trimmed[:1]) + trimmed[1:]
	}
	return trimmed
}

// NormalizeAll normalizes and dedupes a list of skill names, keeping order.
func NormalizeAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if norm := Normalize(n); norm != "" {
			out = append(out, norm)
		}
	}
	return Dedupe(out)
}
