// Package prompts holds the model prompt templates, embedded as JSON files of
// key to template.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"sync"
)

//go:embed *.json
var files embed.FS

// catalog parses every embedded file on first use.
var catalog = sync.OnceValues(func() (map[string]map[string]string, error) {
	names, err := fs.Glob(files, "*.json")
	if err != nil {
		return nil, err
	}
	out := make(map[string]map[string]string, len(names))
	for _, name := range names {
		data, err := files.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", name, err)
		}
		var entries map[string]string
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", name, err)
		}
		out[name] = entries
	}
	return out, nil
})

// Get returns the template stored under key in file, e.g.
// Get("rewriting.json", "bullet-rewrite-system").
func Get(file, key string) (string, error) {
	all, err := catalog()
	if err != nil {
		return "", err
	}
	entries, ok := all[file]
	if !ok {
		return "", fmt.Errorf("unknown prompt file %s", file)
	}
	tmpl, ok := entries[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, file)
	}
	return tmpl, nil
}

// MustGet is Get for prompts the binary cannot run without.
func MustGet(file, key string) string {
	tmpl, err := Get(file, key)
	if err != nil {
		panic(err)
	}
	return tmpl
}

// Format replaces {{.Key}} placeholders with values from data. Unknown
// placeholders are left in place; blank values render as "None".
func Format(template string, data map[string]string) string {
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		if strings.TrimSpace(value) == "" {
			value = "None"
		}
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
