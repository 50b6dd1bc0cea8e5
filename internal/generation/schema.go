package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"project-planner/backend/internal/apperrors"
)

type Field struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Items       []Field
}

// Schema declares the JSON object a structured call must return. Decoding
// happens into a Go struct whose validate tags enforce the same contract.
type Schema struct {
	Name        string
	Description string
	Fields      []Field
}

// Instruction renders the schema as a system prompt fragment.
func (s Schema) Instruction() string {
	var b strings.Builder
	b.WriteString("Respond with a single JSON object and nothing else.\n")
	if s.Description != "" {
		b.WriteString(s.Description)
		b.WriteString("\n")
	}
	b.WriteString("The object has these fields:\n")
	writeFields(&b, s.Fields, "")
	b.WriteString("Example shape: ")
	shape, _ := json.Marshal(exampleShape(s.Fields))
	b.Write(shape)
	return b.String()
}

func writeFields(b *strings.Builder, fields []Field, indent string) {
	for _, f := range fields {
		req := "optional"
		if f.Required {
			req = "required"
		}
		fmt.Fprintf(b, "%s- %q (%s, %s): %s\n", indent, f.Name, f.Type, req, f.Description)
		if len(f.Items) > 0 {
			writeFields(b, f.Items, indent+"  ")
		}
	}
}

func exampleShape(fields []Field) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		switch f.Type {
		case "array":
			if len(f.Items) > 0 {
				out[f.Name] = []interface{}{exampleShape(f.Items)}
			} else {
				out[f.Name] = []string{"..."}
			}
		case "object":
			out[f.Name] = exampleShape(f.Items)
		default:
			out[f.Name] = "..."
		}
	}
	return out
}

var ErrEmptyOutput = fmt.Errorf("%w: model returned no JSON object", apperrors.ErrGeneration)

// SchemaError reports which fields of a decoded reply broke the schema.
type SchemaError struct {
	Schema     string
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("output does not match schema %s: %s", e.Schema, strings.Join(e.Violations, "; "))
}

func (e *SchemaError) Unwrap() error {
	return apperrors.ErrGeneration
}

func newSchemaError(schema string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Generation("invalid output for "+schema, err)
	}
	violations := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		violations = append(violations, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	sort.Strings(violations)
	return &SchemaError{Schema: schema, Violations: violations}
}

// extractJSONObject returns the first balanced {...} in s, skipping braces
// inside string literals. Models sometimes wrap JSON in prose or code fences.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
