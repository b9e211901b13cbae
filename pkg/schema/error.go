package schema

import "fmt"

// Rule names the validation rule a graph violated.
type Rule string

const (
	RuleShape     Rule = "shape"
	RuleRequired  Rule = "required"
	RuleType      Rule = "type"
	RuleEntity    Rule = "entity"
	RuleRelation  Rule = "relation"
	RuleMetadata  Rule = "metadata"
	RuleReference Rule = "reference"
)

// Error is returned for the first rule a graph violates. Path locates the
// offending value, e.g. "entities[2].name", and is empty for the document
// itself.
type Error struct {
	Rule   Rule
	Path   string
	Reason string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("schema validation failed (%s): %s", e.Rule, e.Reason)
	}
	return fmt.Sprintf("schema validation failed (%s) at %s: %s", e.Rule, e.Path, e.Reason)
}

func fail(rule Rule, path, format string, args ...any) *Error {
	return &Error{Rule: rule, Path: path, Reason: fmt.Sprintf(format, args...)}
}
