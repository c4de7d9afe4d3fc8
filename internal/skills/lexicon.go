// Package skills provides the skill dictionary, synonym table and token-boundary
// matching used to find skills in job descriptions and resume text.
package skills

import "strings"

// dictionary lists the canonical skill names recognized in JD text.
var dictionary = []string{
	"SQL", "Python", "DBT", "Tableau", "Power BI", "Snowflake", "Fivetran", "Airflow",
	"Databricks", "Spark", "PySpark", "AWS", "Azure", "GCP", "Git", "Docker", "Kubernetes",
	"ETL", "ELT", "Data Warehouse", "Data Modeling", "Dimensional Modeling",
	"Star Schema", "Snowflake Schema", "Data Governance", "Data Quality", "Data Validation",
	"Analytics", "Dashboarding", "Looker", "Redshift", "BigQuery", "PostgreSQL", "MySQL",
	"SQL Server", "Oracle", "NoSQL", "Kafka", "API", "REST", "CI/CD", "Linux",
	"Monitoring", "Data Pipelines", "DBA", "Data Engineering", "Analytics Engineering",
	"Machine Learning", "NLP", "Jupyter", "Terraform", "Jira", "Agile", "Scrum",
	"Unit Testing", "Data Lake", "Delta Lake", "MLflow", "SSIS", "SSRS", "SSAS",
}

// synonyms maps a lowercase skill to related terms that count as partial evidence.
var synonyms = map[string][]string{
	"dbt":                  {"data build tool", "data build tools"},
	"power bi":             {"powerbi"},
	"data modeling":        {"data model", "relational modeling"},
	"dimensional modeling": {"star schema", "snowflake schema", "dimensional model"},
	"data warehouse":       {"data warehousing", "cloud data warehouse"},
	"etl":                  {"extract transform load"},
	"elt":                  {"extract load transform"},
	"sql":                  {"structured query language"},
	"airflow":              {"apache airflow"},
	"spark":                {"apache spark"},
	"kubernetes":           {"k8s"},
	"ci/cd":                {"cicd", "ci cd"},
	"rest":                 {"rest api", "restful"},
}

// categoryHints maps a lowercase skill to fragments of technical-skills
// category labels it belongs under.
var categoryHints = map[string][]string{
	"kafka":     {"stream", "real-time", "realtime"},
	"bigquery":  {"warehous", "cloud", "data engineering"},
	"redshift":  {"warehous", "cloud", "data engineering"},
	"snowflake": {"warehous", "cloud", "data engineering"},
	"fivetran":  {"integration", "ingestion"},
	"airflow":   {"orchestration", "pipeline"},
	"dbt":       {"transform", "model"},
	"spark":     {"transform", "data engineering"},
	"pyspark":   {"transform", "data engineering"},
	"tableau":   {"bi", "visual", "analytics", "report"},
	"power bi":  {"bi", "visual", "analytics", "report"},
	"python":    {"program", "scripting"},
	"java":      {"program", "backend"},
	"aws":       {"cloud"},
	"azure":     {"cloud"},
	"gcp":       {"cloud"},
}

// Dictionary returns a copy of the canonical skill names.
func Dictionary() []string {
	out := make([]string, len(dictionary))
	copy(out, dictionary)
	return out
}

// Synonyms returns the related terms for a skill, or nil.
func Synonyms(skill string) []string {
	return synonyms[Key(skill)]
}

// CategoryHints returns category label fragments for a skill, or nil.
func CategoryHints(skill string) []string {
	return categoryHints[Key(skill)]
}

// Canonical returns the dictionary spelling of a skill when it is known,
// otherwise the trimmed input.
func Canonical(skill string) string {
	key := Key(skill)
	for _, name := range dictionary {
		if strings.ToLower(name) == key {
			return name
		}
	}
	return strings.TrimSpace(skill)
}

// InDictionary reports whether the skill is a known dictionary entry.
func InDictionary(skill string) bool {
	key := Key(skill)
	for _, name := range dictionary {
		if strings.ToLower(name) == key {
			return true
		}
	}
	return false
}

// Key is the case-folded comparison key for a skill name.
func Key(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}
