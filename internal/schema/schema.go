// Package schema validates inbound request bodies against the JSON schemas
// embedded under schemas/.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/writeflow/backend/internal/models"
)

// Request body schema names.
const (
	TaskCreate       = "task.create"
	TaskUpdate       = "task.update"
	BidPlace         = "bid.place"
	TransactionNew   = "transaction.create"
	SubmissionCreate = "submission.create"
	SubmissionReview = "submission.review"
)

//go:embed schemas/*.json
var files embed.FS

type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// Load compiles every embedded schema. The schema name is the file name
// without the .json suffix.
func Load() (*Validator, error) {
	entries, err := files.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("read embedded schemas: %w", err)
	}
	schemas := make(map[string]*jsonschema.Schema, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		data, err := files.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", e.Name(), err)
		}
		s, err := jsonschema.CompileString("https://writeflow.dev/schemas/"+e.Name(), string(data))
		if err != nil {
			return nil, fmt.Errorf("compile schema %q: %w", name, err)
		}
		schemas[name] = s
	}
	return &Validator{schemas: schemas}, nil
}

// MustLoad is Load for package initialisation. The schemas are compiled into
// the binary, so a failure is a build defect.
func MustLoad() *Validator {
	v, err := Load()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks data against the named schema. Malformed JSON and schema
// violations are reported as validation errors.
func (v *Validator) Validate(name string, data []byte) error {
	s, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return models.Validationf("invalid JSON: %v", err)
	}
	if dec.More() {
		return models.Validationf("invalid JSON: trailing data")
	}
	if err := s.Validate(doc); err != nil {
		return models.Validationf("%s", describe(err))
	}
	return nil
}

// describe flattens a schema validation error into its leaf messages.
func describe(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var msgs []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "body"
			}
			msgs = append(msgs, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(msgs, "; ")
}
