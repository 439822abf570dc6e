package llm

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateJSON checks a JSON document against a JSON Schema. Violations
// return *Error with ErrorTypeParse, which is never retried.
func ValidateJSON(document, schema string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(document),
	)
	if err != nil {
		return NewError(ErrorTypeParse, "schema validation could not run", false, err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		violations = append(violations, field+": "+desc.Description())
	}

	return NewError(
		ErrorTypeParse,
		"reply does not match requested shape: "+strings.Join(violations, "; "),
		false,
		nil,
	)
}
