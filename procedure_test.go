package duckserver

import "testing"

type echoInput struct {
	Name string
}

type stubSchema struct {
	parsed  any
	issues  []Issue
	calls   int
}

func (s *stubSchema) Validate(raw any) (any, []Issue) {
	s.calls++
	if s.issues != nil {
		return nil, s.issues
	}
	return s.parsed, nil
}

func TestProcedureCallHappyPath(t *testing.T) {
	proc := NewBuilder[testCtx]().Query(func(ctx testCtx, input any) (*Envelope, error) {
		return Ok("hello world", CodeOK), nil
	})

	env := proc.Call(testCtx{}, nil)
	if !env.OK {
		t.Fatalf("expected success, got %+v", env)
	}
	if env.Data != "hello world" {
		t.Fatalf("expected resolver output to pass through, got %v", env.Data)
	}
	if proc.Kind() != KindQuery || proc.Type() != "query" {
		t.Fatalf("expected query kind/type, got %v/%s", proc.Kind(), proc.Type())
	}
}

func TestProcedureCallInputValidationFailure(t *testing.T) {
	schema := &stubSchema{issues: []Issue{{Message: "name required", Path: []any{"name"}}}}

	called := false
	proc := NewBuilder[testCtx]().
		Input(schema).
		Query(func(ctx testCtx, input any) (*Envelope, error) {
			called = true
			return Ok(nil, CodeOK), nil
		})

	env := proc.Call(testCtx{}, map[string]any{})

	if env.OK {
		t.Fatalf("expected failure envelope on validation error")
	}
	if env.Code != CodeBadRequest {
		t.Fatalf("expected %s, got %s", CodeBadRequest, env.Code)
	}
	if called {
		t.Fatalf("resolver must not run when input validation fails")
	}
}

func TestProcedureCallOutputValidationFailureIsServerError(t *testing.T) {
	schema := &stubSchema{issues: []Issue{{Message: "bad shape"}}}

	proc := NewBuilder[testCtx]().
		Output(schema).
		Query(func(ctx testCtx, input any) (*Envelope, error) {
			return Ok("whatever", CodeOK), nil
		})

	env := proc.Call(testCtx{}, nil)

	if env.OK {
		t.Fatalf("expected failure envelope on output validation error")
	}
	if env.Code != CodeInternalServerError {
		t.Fatalf("expected %s for output validation failure, got %s", CodeInternalServerError, env.Code)
	}
}

func TestProcedureValidationOffSkipsSchemas(t *testing.T) {
	inputSchema := &stubSchema{issues: []Issue{{Message: "would fail"}}}

	proc := NewBuilder[testCtx]().
		Input(inputSchema).
		Validation(false).
		Query(func(ctx testCtx, input any) (*Envelope, error) {
			return Ok("passed through", CodeOK), nil
		})

	env := proc.Call(testCtx{}, map[string]any{"anything": true})

	if !env.OK {
		t.Fatalf("expected success since validation is off, got %+v", env)
	}
	if inputSchema.calls != 0 {
		t.Fatalf("expected schema not to be invoked when validation is off, calls=%d", inputSchema.calls)
	}
}

func TestProcedureCallRecoversResolverPanic(t *testing.T) {
	proc := NewBuilder[testCtx]().Mutation(func(ctx testCtx, input any) (*Envelope, error) {
		panic("resolver exploded")
	})

	env := proc.Call(testCtx{}, nil)

	if env.OK {
		t.Fatalf("expected panic to surface as a failure envelope")
	}
	if env.Code != CodeInternalServerError {
		t.Fatalf("expected %s, got %s", CodeInternalServerError, env.Code)
	}
	if proc.Kind() != KindMutation || proc.Type() != "mutation" {
		t.Fatalf("expected mutation kind/type, got %v/%s", proc.Kind(), proc.Type())
	}
}

func TestProcedureCallResolverChoosesSuccessCode(t *testing.T) {
	proc := NewBuilder[testCtx]().Mutation(func(ctx testCtx, input any) (*Envelope, error) {
		return Ok("created", CodeCreated), nil
	})

	env := proc.Call(testCtx{}, nil)

	if !env.OK {
		t.Fatalf("expected success, got %+v", env)
	}
	if env.Code != CodeCreated {
		t.Fatalf("expected resolver's chosen code %s to reach the wire, got %s", CodeCreated, env.Code)
	}
}

func TestProcedureCallPropagatesTypedResolverError(t *testing.T) {
	proc := NewBuilder[testCtx]().Query(func(ctx testCtx, input any) (*Envelope, error) {
		return nil, NewError(CodeConflict, "already exists")
	})

	env := proc.Call(testCtx{}, nil)

	if env.OK {
		t.Fatalf("expected failure")
	}
	if env.Code != CodeConflict {
		t.Fatalf("expected resolver's typed error code %s to be preserved, got %s", CodeConflict, env.Code)
	}
}
