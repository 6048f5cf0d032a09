package validate

import "testing"

func titleSchema() Schema {
	return Schema{Fields: map[string]FieldSpec{
		"title":  {Kind: KindString, Required: true},
		"count":  {Kind: KindNumber, Required: false, Default: float64(0)},
		"active": {Kind: KindBool, Required: false},
	}}
}

func TestValidateAcceptsWellFormedValue(t *testing.T) {
	v, err := Compile(titleSchema())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	out, errs := v.Validate(map[string]any{"title": "hello"})
	if len(errs) != 0 {
		t.Fatalf("Validate errors = %v, want none", errs)
	}
	if out["title"] != "hello" {
		t.Fatalf("title = %v, want %q", out["title"], "hello")
	}
	if out["count"] != float64(0) {
		t.Fatalf("count default = %v, want 0", out["count"])
	}
}

func TestValidateRejectsMissingRequired(t *testing.T) {
	v, err := Compile(titleSchema())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	_, errs := v.Validate(map[string]any{"count": float64(1)})
	if len(errs) != 1 || errs[0].Field != "title" {
		t.Fatalf("Validate errors = %v, want exactly one error on title", errs)
	}
}

func TestValidateRejectsWrongKind(t *testing.T) {
	v, err := Compile(titleSchema())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	_, errs := v.Validate(map[string]any{"title": "hello", "active": "yes"})
	if len(errs) != 1 || errs[0].Field != "active" {
		t.Fatalf("Validate errors = %v, want exactly one error on active", errs)
	}
}

func TestValidatePassesThroughUnknownFields(t *testing.T) {
	v, err := Compile(titleSchema())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	out, errs := v.Validate(map[string]any{"title": "hello", "extra": "anything"})
	if len(errs) != 0 {
		t.Fatalf("Validate errors = %v, want none", errs)
	}
	if out["extra"] != "anything" {
		t.Fatalf("extra field not passed through: %v", out)
	}
}

func TestCompileRejectsUnknownKind(t *testing.T) {
	_, err := Compile(Schema{Fields: map[string]FieldSpec{
		"bad": {Kind: Kind("unknown")},
	}})
	if err == nil {
		t.Fatalf("Compile: expected error for unknown kind")
	}
}
