package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const stopSchema = `{
	"type": "object",
	"required": ["sira", "musteriKodu"],
	"properties": {
		"sira":         {"type": "integer", "minimum": 1},
		"musteriKodu":  {"type": "string", "minLength": 1},
		"musteriAdi":   {"type": "string"},
		"musteriDurum": {"type": "string"},
		"grup":         {"type": "string"},
		"adres":        {"type": "string"}
	}
}`

// SubmitPayloadSchema describes the body of POST /rut/talep.
var SubmitPayloadSchema = `{
	"type": "object",
	"required": ["dstId", "gun", "duraklar"],
	"properties": {
		"dstId":    {"type": "string", "minLength": 1},
		"gun":      {"type": "string", "minLength": 1},
		"duraklar": {"type": "array", "minItems": 1, "items": ` + stopSchema + `}
	}
}`

// RequestListSchema describes the data of GET /rut/talepler.
var RequestListSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id", "durum"],
		"properties": {
			"id":              {"type": ["string", "integer"]},
			"dstId":           {"type": "string"},
			"gun":             {"type": "string"},
			"olusturmaTarihi": {"type": ["string", "null"]},
			"durum":           {"type": "string"},
			"duraklar":        {"type": ["array", "null"], "items": ` + stopSchema + `}
		}
	}
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Schema is a compiled JSON schema.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile parses schemaJSON once so it can be reused for every call.
func Compile(name, schemaJSON string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: s}, nil
}

// MustCompile is Compile for package-level schemas.
func MustCompile(name, schemaJSON string) *Schema {
	s, err := Compile(name, schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Name() string {
	return s.name
}

// ValidateJSON validates a raw JSON document.
func (s *Schema) ValidateJSON(document []byte) (*ValidationResult, error) {
	return s.validate(gojsonschema.NewBytesLoader(document))
}

// ValidateValue validates any Go value by its JSON form.
func (s *Schema) ValidateValue(value interface{}) (*ValidationResult, error) {
	return s.validate(gojsonschema.NewGoLoader(value))
}

func (s *Schema) validate(doc gojsonschema.JSONLoader) (*ValidationResult, error) {
	result, err := s.schema.Validate(doc)
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

func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Summary joins all messages into one line.
func (vr *ValidationResult) Summary() string {
	return strings.Join(vr.GetErrorMessages(), "; ")
}
