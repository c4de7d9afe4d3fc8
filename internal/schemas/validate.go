// Package schemas validates JSON payloads (resume documents, patch batches,
// override batches) against embedded JSON Schemas.
package schemas

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed files/*.schema.json
var files embed.FS

// Schema names
const (
	ResumeDocument = "resume_document"
	PatchBatch     = "patch_batch"
	OverrideBatch  = "override_batch"
)

// ValidationError lists every field of a payload that violates its schema.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError is one violation; Field is a dotted path, "(root)" for the top level.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed against " + ve.Schema + ":\n")
	for i, fe := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, fe.Field, fe.Message)
	}
	return sb.String()
}

// SchemaLoadError means the named schema is unknown or does not compile.
type SchemaLoadError struct {
	Name  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to load schema %s: %v", e.Name, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// MalformedError means the payload is not JSON at all.
type MalformedError struct {
	Schema string
	Cause  error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("payload for %s is not valid JSON: %v", e.Schema, e.Cause)
}

func (e *MalformedError) Unwrap() error {
	return e.Cause
}

var (
	compiledMu sync.Mutex
	compiled   = map[string]*gojsonschema.Schema{}
)

// Source returns the embedded schema text for name.
func Source(name string) (string, error) {
	data, err := files.ReadFile("files/" + name + ".schema.json")
	if err != nil {
		return "", &SchemaLoadError{Name: name, Cause: err}
	}
	return string(data), nil
}

func load(name string) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()
	if s, ok := compiled[name]; ok {
		return s, nil
	}
	src, err := Source(name)
	if err != nil {
		return nil, err
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Cause: err}
	}
	compiled[name] = s
	return s, nil
}

// Validate checks a JSON payload against the named embedded schema.
func Validate(name string, data []byte) error {
	schema, err := load(name)
	if err != nil {
		return err
	}
	if !json.Valid(data) {
		var v any
		return &MalformedError{Schema: name, Cause: json.Unmarshal(data, &v)}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &MalformedError{Schema: name, Cause: err}
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Schema: name, Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}
