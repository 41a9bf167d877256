package validatorschema

import "testing"

type greetInput struct {
	Name string `validate:"required,min=1,max=32"`
	Age  int    `validate:"min=0,max=150"`
}

func TestAdapterValidatesSuccessfully(t *testing.T) {
	adapter := New[greetInput]()

	parsed, issues := adapter.Validate(map[string]any{"Name": "World", "Age": 30})
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
	value, ok := parsed.(greetInput)
	if !ok {
		t.Fatalf("expected parsed value to be a greetInput, got %T", parsed)
	}
	if value.Name != "World" || value.Age != 30 {
		t.Fatalf("unexpected parsed value: %+v", value)
	}
}

func TestAdapterReportsMissingRequiredField(t *testing.T) {
	adapter := New[greetInput]()

	_, issues := adapter.Validate(map[string]any{"Age": 10})
	if len(issues) == 0 {
		t.Fatalf("expected at least one issue for a missing required field")
	}
	found := false
	for _, issue := range issues {
		if len(issue.Path) == 1 && issue.Path[0] == "name" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an issue for the name field, got %+v", issues)
	}
}

func TestAdapterHandlesNilInput(t *testing.T) {
	adapter := New[greetInput]()

	_, issues := adapter.Validate(nil)
	if len(issues) == 0 {
		t.Fatalf("expected nil input to fail required-field validation")
	}
}
