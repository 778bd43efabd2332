package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed job.schema.yaml
var jobSchemaYAML []byte

const jobSchemaURL = "foldbatch://schemas/job.schema.json"

// Validator checks job files against the job schema
type Validator struct {
	jobSchema *jsonschema.Schema
}

// NewValidator compiles the embedded job schema
func NewValidator() (*Validator, error) {
	jobSchema, err := compileYAML(jobSchemaURL, jobSchemaYAML)
	if err != nil {
		return nil, fmt.Errorf("failed to load job schema: %w", err)
	}
	return &Validator{jobSchema: jobSchema}, nil
}

// ValidateJobFile validates raw job file bytes
func (v *Validator) ValidateJobFile(data []byte) error {
	if v == nil || v.jobSchema == nil {
		return fmt.Errorf("job schema not loaded")
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("job file is not valid JSON: %w", err)
	}
	return v.jobSchema.Validate(doc)
}

// compileYAML compiles a schema written in YAML (JSON is valid YAML too)
func compileYAML(url string, data []byte) (*jsonschema.Schema, error) {
	var schemaData interface{}
	if err := yaml.Unmarshal(data, &schemaData); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	// Convert to JSON for schema compiler
	jsonData, err := json.Marshal(schemaData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(jsonData)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return schema, nil
}
