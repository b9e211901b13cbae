// Package schema checks a memory graph document for structural
// well-formedness and internal consistency before it is persisted.
//
// Validation runs on the generic JSON form of a graph (maps, slices, strings,
// json.Number) so documents that do not fit the Go types at all still get a
// precise error instead of a decoder message. Checks run in a fixed order and
// stop at the first violation.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/papercomputeco/memvault/pkg/graph"
)

var (
	timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d{3})?Z$`)
	versionPattern   = regexp.MustCompile(`^\d+\.\d+$`)

	requiredFields         = []string{"timestamp", "version", "entities", "relations", "metadata"}
	requiredMetadataFields = []string{"entityCount", "relationCount", "extractedBy"}
)

// Validator validates graph documents. The zero value is ready to use.
type Validator struct {
	referentialIntegrity bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithReferentialIntegrity additionally requires entity names to be unique
// and every relation endpoint to name an entity in the same graph.
func WithReferentialIntegrity(enabled bool) Option {
	return func(v *Validator) {
		v.referentialIntegrity = enabled
	}
}

// NewValidator creates a Validator.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks raw, the generic JSON decoding of a graph document.
// Numbers may be float64 or json.Number. The returned error is always a
// *Error.
func (v *Validator) Validate(raw any) error {
	doc, ok := raw.(map[string]any)
	if !ok || doc == nil {
		return fail(RuleShape, "", "graph must be an object, got %s", describe(raw))
	}

	for _, field := range requiredFields {
		if _, ok := doc[field]; !ok {
			return fail(RuleRequired, field, "missing required field")
		}
	}

	entities, relations, metadata, err := checkTypes(doc)
	if err != nil {
		return err
	}

	for i, e := range entities {
		if err := checkEntity(i, e); err != nil {
			return err
		}
	}

	for i, r := range relations {
		if err := checkRelation(i, r); err != nil {
			return err
		}
	}

	if err := checkMetadata(metadata, len(entities), len(relations)); err != nil {
		return err
	}

	if v.referentialIntegrity {
		return checkReferences(entities, relations)
	}

	return nil
}

// ValidateGraph encodes g and validates the result.
func (v *Validator) ValidateGraph(g *graph.MemoryGraph) error {
	if g == nil {
		return fail(RuleShape, "", "graph must be an object, got null")
	}

	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encoding graph: %w", err)
	}

	raw, err := decodeGeneric(data)
	if err != nil {
		return err
	}

	return v.Validate(raw)
}

// Decode validates data as a graph document and decodes it.
func (v *Validator) Decode(data []byte) (*graph.MemoryGraph, error) {
	raw, err := decodeGeneric(data)
	if err != nil {
		return nil, err
	}

	if err := v.Validate(raw); err != nil {
		return nil, err
	}

	g := &graph.MemoryGraph{}
	if err := json.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("decoding graph: %w", err)
	}

	return g, nil
}

// Validate checks raw with a default Validator.
func Validate(raw any) error {
	return NewValidator().Validate(raw)
}

// ValidateGraph checks g with a default Validator.
func ValidateGraph(g *graph.MemoryGraph) error {
	return NewValidator().ValidateGraph(g)
}

func decodeGeneric(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fail(RuleShape, "", "invalid JSON: %v", err)
	}

	return raw, nil
}
