package schema_test

import (
	"path/filepath"
	"testing"

	"github.com/easyops/tooluse-go/pkg/schema"
)

func sampleSchema() schema.ToolSchema {
	return schema.ToolSchema{
		Name:        "get_weather",
		Description: "Look up the current weather",
		Parameters: []schema.ParameterSchema{
			{Name: "city", ParamType: schema.TypeString, Description: "City name"},
			{Name: "unit", ParamType: schema.TypeString, Enum: []string{"celsius", "fahrenheit"}},
			{Name: "days", ParamType: schema.TypeInteger, Nullable: true},
		},
		Required: []string{"city"},
	}
}

func TestToolSchema_Validate(t *testing.T) {
	s := sampleSchema()
	if err := s.Validate(); err != nil {
		t.Fatalf("expected valid schema, got %v", err)
	}
}

func TestToolSchema_ValidateDuplicateParam(t *testing.T) {
	s := sampleSchema()
	s.Parameters = append(s.Parameters, schema.ParameterSchema{Name: "city", ParamType: schema.TypeString})

	if err := s.Validate(); err == nil {
		t.Fatal("expected error for duplicate parameter")
	}
}

func TestToolSchema_ValidateRequiredNotDeclared(t *testing.T) {
	s := sampleSchema()
	s.Required = append(s.Required, "missing")

	if err := s.Validate(); err == nil {
		t.Fatal("expected error for undeclared required parameter")
	}
}

func TestToolSchema_JSONRoundTrip(t *testing.T) {
	s := sampleSchema()

	data, err := s.ToJSON()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	decoded, err := schema.FromJSON([]byte(data))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !s.Equal(&decoded) {
		t.Fatalf("round trip lost information:\nbefore: %+v\nafter:  %+v", s, decoded)
	}
}

func TestToolSchema_FileRoundTrip(t *testing.T) {
	s := sampleSchema()
	path := filepath.Join(t.TempDir(), "schema.json")

	if err := s.ToFile(path); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	decoded, err := schema.FromFile(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !s.Equal(&decoded) {
		t.Fatal("file round trip lost information")
	}
}

func TestToolSchema_EqualIgnoresOrder(t *testing.T) {
	a := sampleSchema()
	b := sampleSchema()

	// reverse parameter order
	b.Parameters = []schema.ParameterSchema{b.Parameters[2], b.Parameters[1], b.Parameters[0]}

	if !a.Equal(&b) {
		t.Fatal("expected schemas with reordered parameters to be equal")
	}
}

func TestToolSchema_Parameter(t *testing.T) {
	s := sampleSchema()

	p, ok := s.Parameter("unit")
	if !ok {
		t.Fatal("expected to find parameter unit")
	}
	if len(p.Enum) != 2 {
		t.Fatalf("expected 2 enum values, got %d", len(p.Enum))
	}

	if _, ok := s.Parameter("nope"); ok {
		t.Fatal("expected lookup miss for unknown parameter")
	}
}

func TestFromInputSchema(t *testing.T) {
	input := map[string]interface{}{
		"properties": map[string]interface{}{
			"location": map[string]interface{}{
				"type":        "string",
				"description": "Where to look",
			},
			"limit": map[string]interface{}{
				"type":     "integer",
				"nullable": true,
			},
		},
		"required": []interface{}{"location"},
	}

	s := schema.FromInputSchema("search", "Search things", input)

	if s.Name != "search" {
		t.Fatalf("expected name search, got %q", s.Name)
	}
	if len(s.Parameters) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(s.Parameters))
	}

	loc, ok := s.Parameter("location")
	if !ok || loc.ParamType != schema.TypeString || loc.Description != "Where to look" {
		t.Fatalf("unexpected location parameter: %+v", loc)
	}

	limit, ok := s.Parameter("limit")
	if !ok || limit.ParamType != schema.TypeInteger || !limit.Nullable {
		t.Fatalf("unexpected limit parameter: %+v", limit)
	}

	if len(s.Required) != 1 || s.Required[0] != "location" {
		t.Fatalf("unexpected required list: %v", s.Required)
	}
}

func TestFromInputSchema_MissingTypeDefaultsToString(t *testing.T) {
	input := map[string]interface{}{
		"properties": map[string]interface{}{
			"q": map[string]interface{}{},
		},
	}

	s := schema.FromInputSchema("t", "", input)
	p, ok := s.Parameter("q")
	if !ok || p.ParamType != schema.TypeString {
		t.Fatalf("expected string fallback, got %+v", p)
	}
}
