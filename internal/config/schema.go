package config

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// SchemaError reports a document that does not match the schema.
type SchemaError struct {
	Details string
}

func (e *SchemaError) Error() string {
	return "config does not match schema:\n" + e.Details
}

// checkSchema validates a decoded YAML document against #Config.
func checkSchema(doc any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := ctx.Encode(normalize(doc))
	if err := value.Err(); err != nil {
		return &SchemaError{Details: cueerrors.Details(err, nil)}
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &SchemaError{Details: cueerrors.Details(err, nil)}
	}
	return nil
}

// normalize turns YAML maps with non-string keys (friendly_names: {1111: max})
// into string-keyed maps CUE can encode. Keys with empty values are dropped,
// matching how the YAML decoder treats them.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if val != nil {
				out[k] = normalize(val)
			}
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if val != nil {
				out[fmt.Sprint(k)] = normalize(val)
			}
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	}
	return v
}
