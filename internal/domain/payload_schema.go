package domain

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const payloadSchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["title", "body", "data"],
  "properties": {
    "title":   {"type": "string", "minLength": 1},
    "body":    {"type": "string", "minLength": 1},
    "icon":    {"type": "string"},
    "badge":   {"type": "string"},
    "image":   {"type": "string"},
    "vibrate": {"type": "array", "items": {"type": "integer", "minimum": 0}},
    "data": {
      "type": "object",
      "required": ["url"],
      "properties": {"url": {"type": "string"}}
    },
    "actions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["action", "title"],
        "properties": {
          "action": {"type": "string", "minLength": 1},
          "title":  {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

var (
	payloadSchemaOnce sync.Once
	payloadSchema     *gojsonschema.Schema
	payloadSchemaErr  error
)

// ValidatePayloadJSON checks raw JSON against the push payload contract.
func ValidatePayloadJSON(raw []byte) error {
	payloadSchemaOnce.Do(func() {
		payloadSchema, payloadSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(payloadSchemaJSON))
	})
	if payloadSchemaErr != nil {
		return fmt.Errorf("compile payload schema: %w", payloadSchemaErr)
	}

	result, err := payloadSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &ValidationError{Problems: []string{"payload is not valid JSON"}}
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return &ValidationError{Problems: errs}
	}
	return nil
}
