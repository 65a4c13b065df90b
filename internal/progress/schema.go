package progress

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema validates progress documents read back from the cache or
// the remote store. Documents that fail validation are treated as absent
// rather than loaded half-broken.
const documentSchema = `{
	"type": "object",
	"required": ["user_id", "course_id", "subjects_data", "performance_goal"],
	"properties": {
		"user_id": {"type": "string", "minLength": 1},
		"course_id": {"type": "string", "minLength": 1},
		"subjects_data": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"required": ["completed"],
				"properties": {
					"completed": {"type": "boolean"},
					"completed_at": {"type": "string"}
				}
			}
		},
		"performance_goal": {"type": "integer", "minimum": 0, "maximum": 100},
		"exam_date": {"type": "string"},
		"updated_at": {"type": "string"}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// ValidateDocument checks a raw progress document against the schema.
func ValidateDocument(raw []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validate progress document: %w", err)
	}
	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return fmt.Errorf("invalid progress document: %s", errs[0])
		}
		return fmt.Errorf("invalid progress document")
	}
	return nil
}
