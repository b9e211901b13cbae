package schema

import (
	"encoding/json"
	"fmt"
	"math"
)

func checkTypes(doc map[string]any) ([]any, []any, map[string]any, error) {
	ts, ok := doc["timestamp"].(string)
	if !ok {
		return nil, nil, nil, fail(RuleType, "timestamp", "must be a string")
	}
	if !timestampPattern.MatchString(ts) {
		return nil, nil, nil, fail(RuleType, "timestamp", "must be ISO 8601 UTC (YYYY-MM-DDTHH:MM:SS[.mmm]Z), got %q", ts)
	}

	version, ok := doc["version"].(string)
	if !ok {
		return nil, nil, nil, fail(RuleType, "version", "must be a string")
	}
	if !versionPattern.MatchString(version) {
		return nil, nil, nil, fail(RuleType, "version", "must follow the pattern X.Y (e.g. 1.0), got %q", version)
	}

	entities, ok := doc["entities"].([]any)
	if !ok {
		return nil, nil, nil, fail(RuleType, "entities", "must be an array")
	}

	relations, ok := doc["relations"].([]any)
	if !ok {
		return nil, nil, nil, fail(RuleType, "relations", "must be an array")
	}

	metadata, ok := doc["metadata"].(map[string]any)
	if !ok || metadata == nil {
		return nil, nil, nil, fail(RuleType, "metadata", "must be an object")
	}

	return entities, relations, metadata, nil
}

func checkEntity(index int, raw any) error {
	path := fmt.Sprintf("entities[%d]", index)

	entity, ok := raw.(map[string]any)
	if !ok || entity == nil {
		return fail(RuleEntity, path, "must be an object")
	}

	if !nonEmptyString(entity["name"]) {
		return fail(RuleEntity, path+".name", "missing or invalid name")
	}
	if !nonEmptyString(entity["entityType"]) {
		return fail(RuleEntity, path+".entityType", "missing or invalid entityType")
	}

	observations, ok := entity["observations"].([]any)
	if !ok {
		return fail(RuleEntity, path+".observations", "must be an array")
	}
	for j, obs := range observations {
		if _, ok := obs.(string); !ok {
			return fail(RuleEntity, fmt.Sprintf("%s.observations[%d]", path, j),
				"observation of entity %q must be a string, got %s", entity["name"], describe(obs))
		}
	}

	return nil
}

func checkRelation(index int, raw any) error {
	path := fmt.Sprintf("relations[%d]", index)

	relation, ok := raw.(map[string]any)
	if !ok || relation == nil {
		return fail(RuleRelation, path, "must be an object")
	}

	for _, field := range []string{"from", "to", "relationType"} {
		if !nonEmptyString(relation[field]) {
			return fail(RuleRelation, path+"."+field, "missing or invalid %s", field)
		}
	}

	return nil
}

func checkMetadata(metadata map[string]any, entityLen, relationLen int) error {
	for _, field := range requiredMetadataFields {
		if _, ok := metadata[field]; !ok {
			return fail(RuleMetadata, "metadata."+field, "missing required metadata field")
		}
	}

	entityCount, ok := nonNegativeInt(metadata["entityCount"])
	if !ok {
		return fail(RuleMetadata, "metadata.entityCount", "must be a non-negative integer")
	}

	relationCount, ok := nonNegativeInt(metadata["relationCount"])
	if !ok {
		return fail(RuleMetadata, "metadata.relationCount", "must be a non-negative integer")
	}

	if entityCount != int64(entityLen) {
		return fail(RuleMetadata, "metadata.entityCount",
			"entityCount mismatch: metadata says %d, actual %d", entityCount, entityLen)
	}

	if relationCount != int64(relationLen) {
		return fail(RuleMetadata, "metadata.relationCount",
			"relationCount mismatch: metadata says %d, actual %d", relationCount, relationLen)
	}

	if _, ok := metadata["extractedBy"].(string); !ok {
		return fail(RuleMetadata, "metadata.extractedBy", "must be a string")
	}

	return nil
}

// checkReferences runs after the structural checks, so every entity and
// relation is known to be a well-formed object here.
func checkReferences(entities, relations []any) error {
	names := make(map[string]int, len(entities))
	for i, raw := range entities {
		name := raw.(map[string]any)["name"].(string)
		if first, dup := names[name]; dup {
			return fail(RuleReference, fmt.Sprintf("entities[%d].name", i),
				"duplicate entity name %q (first seen at entities[%d])", name, first)
		}
		names[name] = i
	}

	for i, raw := range relations {
		relation := raw.(map[string]any)
		for _, field := range []string{"from", "to"} {
			name := relation[field].(string)
			if _, ok := names[name]; !ok {
				return fail(RuleReference, fmt.Sprintf("relations[%d].%s", i, field),
					"unknown entity %q", name)
			}
		}
	}

	return nil
}

func nonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}

func nonNegativeInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, i >= 0
	case float64:
		if n < 0 || n != math.Trunc(n) || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), n >= 0
	case int64:
		return n, n >= 0
	default:
		return 0, false
	}
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
