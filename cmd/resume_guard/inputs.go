package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/resume-guard/internal/observability"
	"github.com/jonathan/resume-guard/internal/parsing"
	"github.com/jonathan/resume-guard/internal/schemas"
	"github.com/jonathan/resume-guard/internal/types"
)

// readResume loads a resume file. JSON files are structured documents and
// are checked against the resume schema; .txt, .md, .pdf and .docx files are
// returned as text for the parser.
func readResume(path string) (*types.ResumeDocument, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read resume file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		if err := schemas.Validate(schemas.ResumeDocument, data); err != nil {
			return nil, "", err
		}
		var doc types.ResumeDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, "", fmt.Errorf("failed to unmarshal resume JSON: %w", err)
		}
		return &doc, "", nil
	}

	text, err := parsing.ExtractText(ext, data)
	if err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(text) == "" {
		return nil, "", fmt.Errorf("no text found in %s", path)
	}
	return nil, text, nil
}

// readJD returns the job description text from a file, or "-" for stdin.
func readJD(path string, stdin io.Reader) (string, error) {
	if path == "" {
		return "", nil
	}
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read job description: %w", err)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".pdf" || ext == ".docx" {
		return parsing.ExtractText(ext, data)
	}
	return string(data), nil
}

// readJSONFile validates a file against a named schema and decodes it.
func readJSONFile(path, schema string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if schema != "" {
		if err := schemas.Validate(schema, data); err != nil {
			return err
		}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	return nil
}

// render prints v as indented JSON, or through text when the format is text.
func (c *cli) render(out io.Writer, v any, text func(p *observability.Printer)) error {
	if c.format == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	if c.format != formatText {
		return fmt.Errorf("unknown format %q (want text or json)", c.format)
	}
	text(observability.NewPrinter(out))
	return nil
}

func optionalBool(set bool, value bool) *bool {
	if !set {
		return nil
	}
	return &value
}
