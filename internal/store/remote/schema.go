package remote

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dori/todo/internal/store"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	schemaBase     = "https://schemas.todo.local/"
	todoSchemaURL  = schemaBase + "todo.json"
	todoListSchema = schemaBase + "todo-list.json"
)

// SchemaError reports a response body that does not match the Todo schema.
type SchemaError struct {
	Path    string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid response: %s", e.Message)
	}
	return fmt.Sprintf("invalid response at %s: %s", e.Path, e.Message)
}

func (e *SchemaError) Unwrap() error {
	return store.ErrMalformed
}

type schemas struct {
	todo *jsonschema.Schema
	list *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	compiler := jsonschema.NewCompiler()
	for name, url := range map[string]string{
		"schemas/todo.json":      todoSchemaURL,
		"schemas/todo-list.json": todoListSchema,
	} {
		data, err := schemaFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}

	todo, err := compiler.Compile(todoSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile todo schema: %w", err)
	}
	list, err := compiler.Compile(todoListSchema)
	if err != nil {
		return nil, fmt.Errorf("compile todo list schema: %w", err)
	}
	return &schemas{todo: todo, list: list}, nil
}

// validate checks body against schema before it is decoded into Go types.
func validate(schema *jsonschema.Schema, body []byte) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return &SchemaError{Message: fmt.Sprintf("not JSON: %v", err)}
	}

	if err := schema.Validate(doc); err != nil {
		return toSchemaError(err)
	}
	return nil
}

func toSchemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &SchemaError{Message: err.Error()}
	}
	leaf := firstLeaf(ve)
	return &SchemaError{
		Path:    pointerToPath(leaf.InstanceLocation),
		Message: leaf.Message,
	}
}

// firstLeaf walks to the first cause without further causes.
func firstLeaf(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}

// pointerToPath turns "/0/text" into "[0].text".
func pointerToPath(ptr string) string {
	if ptr == "" || ptr == "/" {
		return ""
	}
	var b strings.Builder
	for _, part := range strings.Split(strings.TrimPrefix(ptr, "/"), "/") {
		if part == "" {
			continue
		}
		if isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteString(".")
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
