// Package validation checks classification service responses against JSON Schemas.
package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Schema names, one per endpoint whose body is decoded into a typed model.
const (
	SchemaStartSession       = "start_session"
	SchemaAnswer             = "answer"
	SchemaExplanation        = "explanation"
	SchemaHealth             = "health"
	SchemaDepartments        = "departments"
	SchemaDepartment         = "department"
	SchemaSimilarDepartments = "similar_departments"
	SchemaObject             = "object"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Summary joins the errors into a single line.
func (r *ValidationResult) Summary() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(parts, "; ")
}

const questionSchema = `{
	"type": "object",
	"required": ["id", "text"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"text": {"type": "string"},
		"options": {"type": ["array", "null"], "items": {"type": "string"}},
		"secondary_traits": {"type": ["array", "null"], "items": {"type": "string"}},
		"target_departments": {"type": ["array", "null"], "items": {"type": "string"}},
		"information_value": {"type": "number"},
		"question_stage": {"type": "string"}
	}
}`

const traitPairsSchema = `{
	"type": ["array", "null"],
	"items": {
		"type": "array",
		"minItems": 2,
		"maxItems": 2,
		"items": [{"type": "string"}, {"type": "number"}]
	}
}`

var schemaSources = map[string]string{
	SchemaStartSession: `{
		"type": "object",
		"required": ["session_id", "first_question"],
		"properties": {
			"session_id": {"type": "string", "minLength": 1},
			"first_question": ` + questionSchema + `,
			"total_departments": {"type": "integer"},
			"estimated_questions": {"type": "string"},
			"features": {"type": "object"}
		}
	}`,
	SchemaAnswer: `{
		"type": "object",
		"required": ["classification_result"],
		"properties": {
			"next_question": {"oneOf": [{"type": "null"}, ` + questionSchema + `]},
			"classification_result": {
				"type": "object",
				"required": ["top_department", "top_probability", "questions_asked", "should_continue", "is_complete"],
				"properties": {
					"top_department": {"type": "string"},
					"top_probability": {"type": "number"},
					"secondary_department": {"type": ["string", "null"]},
					"secondary_probability": {"type": ["number", "null"]},
					"all_probabilities": {"type": ["object", "null"], "additionalProperties": {"type": "number"}},
					"questions_asked": {"type": "integer", "minimum": 0},
					"confidence_level": {"type": "string"},
					"should_continue": {"type": "boolean"},
					"is_complete": {"type": "boolean"},
					"current_top_traits": ` + traitPairsSchema + `,
					"reasoning": {"type": "string"}
				}
			}
		}
	}`,
	SchemaExplanation: `{
		"type": "object",
		"required": ["explanation"],
		"properties": {
			"department_id": {"type": "string"},
			"department_name": {"type": "string"},
			"explanation": {"type": "object"},
			"classification_confidence": {"type": "number"},
			"user_top_traits": ` + traitPairsSchema + `,
			"alternative_departments": {
				"type": ["array", "null"],
				"items": {"type": "object", "properties": {"probability": {"type": "number"}}}
			},
			"generation_method": {"type": "string"}
		}
	}`,
	SchemaHealth: `{
		"type": "object",
		"properties": {
			"status": {"type": "string"},
			"components": {"type": "object"}
		}
	}`,
	SchemaDepartments: `{
		"type": "object",
		"required": ["departments"],
		"properties": {
			"departments": {"type": "array", "items": {"type": "object", "required": ["id", "name"]}},
			"total": {"type": "integer"},
			"search_applied": {"type": "boolean"},
			"traits_included": {"type": "boolean"}
		}
	}`,
	SchemaDepartment: `{
		"type": "object",
		"required": ["id", "name"],
		"properties": {
			"id": {"type": "string"},
			"name": {"type": "string"},
			"top_traits": {"type": ["array", "null"], "items": {"type": "object"}}
		}
	}`,
	SchemaSimilarDepartments: `{
		"type": "object",
		"required": ["target_department", "similar_departments"],
		"properties": {
			"target_department": {"type": "object", "required": ["id"]},
			"similar_departments": {
				"type": "array",
				"items": {"type": "object", "required": ["id"], "properties": {"similarity_score": {"type": "number"}}}
			},
			"total_found": {"type": "integer"}
		}
	}`,
	SchemaObject: `{"type": "object"}`,
}

var (
	compileOnce sync.Once
	compiled    map[string]*gojsonschema.Schema
	compileErr  error
)

func schemas() (map[string]*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled = make(map[string]*gojsonschema.Schema, len(schemaSources))
		for name, src := range schemaSources {
			s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
			if err != nil {
				compileErr = fmt.Errorf("compile schema %s: %w", name, err)
				return
			}
			compiled[name] = s
		}
	})
	return compiled, compileErr
}

// ValidateResponse validates a raw JSON body against the named schema. A
// returned error means the schema is unknown or the body is not JSON.
func ValidateResponse(name string, body []byte) (*ValidationResult, error) {
	all, err := schemas()
	if err != nil {
		return nil, err
	}
	schema, ok := all[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema: %s", name)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}
