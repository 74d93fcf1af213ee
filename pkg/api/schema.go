package api

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed tasks.schema.json
var defaultSchema string

const defaultSchemaURL = "https://schemas.tasklist.dev/tasks.schema.json"

// PayloadError describes the first schema violation found in a payload.
type PayloadError struct {
	Path    string
	Message string
}

func (e *PayloadError) Error() string {
	if e.Path == "" {
		return "invalid task payload: " + e.Message
	}
	return fmt.Sprintf("invalid task payload at %s: %s", e.Path, e.Message)
}

// LoadSchema compiles the schema at path, or the built-in task list schema
// when path is empty.
func LoadSchema(path string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()

	if path == "" {
		if err := compiler.AddResource(defaultSchemaURL, strings.NewReader(defaultSchema)); err != nil {
			return nil, fmt.Errorf("add schema: %w", err)
		}
		schema, err := compiler.Compile(defaultSchemaURL)
		if err != nil {
			return nil, fmt.Errorf("compile schema: %w", err)
		}
		return schema, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid schema path: %w", err)
	}
	schema, err := compiler.Compile(absPath)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func validatePayload(schema *jsonschema.Schema, body []byte) error {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return &PayloadError{Message: err.Error()}
	}
	if err := schema.Validate(doc); err != nil {
		return toPayloadError(err)
	}
	return nil
}

func toPayloadError(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &PayloadError{Message: err.Error()}
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	return &PayloadError{
		Path:    pointerToPath(leaf.InstanceLocation),
		Message: leaf.Message,
	}
}

// pointerToPath turns "/2/isComplete" into "[2].isComplete".
func pointerToPath(pointer string) string {
	if pointer == "" || pointer == "/" {
		return ""
	}
	var b strings.Builder
	for _, part := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		part = strings.ReplaceAll(strings.ReplaceAll(part, "~1", "/"), "~0", "~")
		if part != "" && strings.Trim(part, "0123456789") == "" {
			b.WriteString("[" + part + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
