// Package validatorschema is the reference Schema adapter, wrapping
// go-playground/validator/v10 struct-tag validation behind the
// duckserver.Schema capability interface.
package validatorschema

import (
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/ducksrv/duckserver"
)

// validate is a single shared validator instance; the library documents it
// as safe for concurrent use once struct-level caches have warmed up.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Adapter validates raw request bodies by first re-shaping them into a
// struct of type T and then running struct-tag validation over the
// result. Raw arrives as a generic map[string]any (or nil) from the codec
// layer, so reshaping goes through a marshal/unmarshal round trip using
// the same sonic engine the JSON codec already depends on.
type Adapter[T any] struct{}

// New builds a Schema that parses and validates raw input as a T, using
// `validate:"..."` struct tags for the rules.
func New[T any]() *Adapter[T] {
	return &Adapter[T]{}
}

// Validate implements duckserver.Schema.
func (a *Adapter[T]) Validate(raw any) (any, []duckserver.Issue) {
	var value T
	if raw != nil {
		buf, err := sonic.Marshal(raw)
		if err != nil {
			return nil, []duckserver.Issue{{Message: "malformed input: " + err.Error()}}
		}
		if err := sonic.Unmarshal(buf, &value); err != nil {
			return nil, []duckserver.Issue{{Message: "malformed input: " + err.Error()}}
		}
	}

	if err := validate.Struct(value); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, []duckserver.Issue{{Message: err.Error()}}
		}
		issues := make([]duckserver.Issue, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			issues = append(issues, duckserver.Issue{
				Message: describeFieldError(fe),
				Path:    pathFor(fe),
			})
		}
		return nil, issues
	}

	return value, nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	default:
		return fe.Field() + " failed validation \"" + fe.Tag() + "\""
	}
}

func pathFor(fe validator.FieldError) []any {
	ns := fe.Namespace()
	parts := strings.Split(ns, ".")
	if len(parts) <= 1 {
		return []any{}
	}
	path := make([]any, 0, len(parts)-1)
	for _, p := range parts[1:] {
		path = append(path, lowerFirst(p))
	}
	return path
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = toLower(r[0])
	return string(r)
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
