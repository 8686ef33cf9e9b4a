package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Tool is a single callable function exposed to the remote coach. Parameters
// is the JSON schema describing the arguments the remote party must supply.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage

	execute func(ctx context.Context, arguments string) (map[string]any, error)
}

// NewTool builds a tool whose argument schema is reflected from T. The
// handler receives decoded arguments and returns the result payload; the
// executor is responsible for attaching the status field.
func NewTool[T any](name string, description string, handler func(context.Context, T) (map[string]any, error)) Tool {
	reflector := jsonschema.Reflector{DoNotReference: true}

	var parameters T
	schema := reflector.ReflectFromType(reflect.TypeOf(parameters))
	schema.Version = ""

	schemaBytes, err := schema.MarshalJSON()
	if err != nil {
		// Reflection of a plain struct type cannot produce unmarshalable
		// output; treat it as a programming error at registration time.
		panic(fmt.Sprintf("failed to marshal schema for tool %q: %v", name, err))
	}

	return Tool{
		Name:        name,
		Description: description,
		Parameters:  schemaBytes,
		execute: func(ctx context.Context, arguments string) (map[string]any, error) {
			var decoded T
			if err := json.Unmarshal([]byte(arguments), &decoded); err != nil {
				return nil, fmt.Errorf("failed to decode arguments for tool %q: %w", name, err)
			}
			return handler(ctx, decoded)
		},
	}
}

// Execute runs the tool against raw JSON arguments.
func (t Tool) Execute(ctx context.Context, arguments string) (map[string]any, error) {
	if t.execute == nil {
		return nil, fmt.Errorf("tool %q has no handler", t.Name)
	}
	return t.execute(ctx, arguments)
}
