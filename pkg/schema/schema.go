// Package schema validates stored values against JSON Schema documents.
//
// Values are checked in their native form (see phpfile.Native), so maps
// and objects validate as JSON objects and lists as arrays.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	phpfile "github.com/goliatone/go-phpfile"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const inlineURL = "schema.json"

// Validator is a compiled JSON Schema. It implements phpfile.Validator.
type Validator struct {
	schema *jsonschema.Schema
}

// Compile builds a Validator from a schema given as a Go map.
func Compile(schema map[string]any) (*Validator, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("schema: encode: %w", err)
	}
	return CompileBytes(inlineURL, raw)
}

// CompileBytes builds a Validator from a JSON document registered under url.
// Schemas without "$schema" are treated as draft 2020-12.
func CompileBytes(url string, data []byte) (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// CompileFile builds a Validator from a JSON schema file.
func CompileFile(path string) (*Validator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return CompileBytes("file://"+filepath.ToSlash(abs), data)
}

// Validate reports the first schema violation of value wrapped with
// phpfile.ErrInvalidValue.
func (v *Validator) Validate(value phpfile.Value) error {
	if v == nil || v.schema == nil {
		return nil
	}
	doc, err := jsonDocument(value)
	if err != nil {
		return err
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %w", phpfile.ErrInvalidValue, err)
	}
	return nil
}

// jsonDocument re-decodes the native form so numbers reach the validator
// as json.Number, which is what it expects.
func jsonDocument(value phpfile.Value) (any, error) {
	raw, err := json.Marshal(phpfile.Native(value))
	if err != nil {
		return nil, fmt.Errorf("schema: encode value: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("schema: decode value: %w", err)
	}
	return doc, nil
}
