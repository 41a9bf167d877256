package duckserver

// Kind distinguishes the two procedure flavors. Queries and mutations carry
// identical dispatch machinery; the distinction exists so transports (the
// HTTP adapter in particular) can apply different conventions — GET-eligible
// vs POST-only, cacheable vs not.
type Kind int

const (
	KindQuery Kind = iota
	KindMutation
)

func (k Kind) String() string {
	if k == KindMutation {
		return "mutation"
	}
	return "query"
}

// Resolver is the user-supplied handler at the end of a procedure's
// middleware chain. It receives the final context (possibly refined by
// middlewares) and the already-validated input, and returns either a
// populated success *Envelope — built with [Ok], so the handler picks its
// own success Code (CodeOK, CodeCreated, ...) — or an error.
type Resolver[C any] func(ctx C, input any) (*Envelope, error)

// Builder accumulates a procedure's middleware chain and schemas before it
// is sealed into a Query or Mutation. Every method returns a new Builder
// value rather than mutating the receiver, so a partially configured
// builder can be reused as a base for several sibling procedures without
// the branches interfering with each other.
type Builder[C any] struct {
	middlewares  []Middleware[C]
	input        Schema
	output       Schema
	validationOn bool
}

// NewBuilder starts a procedure definition with no middlewares or schemas,
// validation enabled by default.
func NewBuilder[C any]() Builder[C] {
	return Builder[C]{validationOn: true}
}

// Use appends mw to the chain, returning the extended builder. Order is
// preserved: middlewares run outermost-first, in the order they were added.
func (b Builder[C]) Use(mw Middleware[C]) Builder[C] {
	next := append([]Middleware[C](nil), b.middlewares...)
	next = append(next, mw)
	b.middlewares = next
	return b
}

// Input attaches a schema that every call's raw input is validated against
// before the resolver runs.
func (b Builder[C]) Input(schema Schema) Builder[C] {
	b.input = schema
	return b
}

// Output attaches a schema that the Data of the resolver's envelope is
// validated against when that envelope is a success; the parsed value
// replaces Data and the resolver's chosen Code is kept.
func (b Builder[C]) Output(schema Schema) Builder[C] {
	b.output = schema
	return b
}

// Validation toggles whether input/output schemas are enforced at all for
// this procedure. It is on by default; Validation(false) lets a procedure
// declare schemas purely for introspection/description purposes while
// skipping enforcement on the hot path.
func (b Builder[C]) Validation(on bool) Builder[C] {
	b.validationOn = on
	return b
}

// Query seals the builder into a read-oriented procedure.
func (b Builder[C]) Query(resolve Resolver[C]) *Procedure[C] {
	return b.build(KindQuery, resolve)
}

// Mutation seals the builder into a write-oriented procedure.
func (b Builder[C]) Mutation(resolve Resolver[C]) *Procedure[C] {
	return b.build(KindMutation, resolve)
}

func (b Builder[C]) build(kind Kind, resolve Resolver[C]) *Procedure[C] {
	proc := &Procedure[C]{
		kind:         kind,
		input:        b.input,
		output:       b.output,
		validationOn: b.validationOn,
		resolve:      resolve,
	}
	proc.dispatch = Compose(b.middlewares)
	return proc
}

// Procedure is a leaf node in a router tree: a single callable endpoint with
// a sealed middleware chain and optional input/output schemas. Once built it
// is immutable — there is no exported mutator — so the same *Procedure can
// be mounted at multiple router paths and safely called concurrently.
type Procedure[C any] struct {
	kind         Kind
	input        Schema
	output       Schema
	validationOn bool
	resolve      Resolver[C]
	dispatch     Dispatch[C]
}

// Kind reports whether this is a query or mutation.
func (p *Procedure[C]) Kind() Kind { return p.kind }

// Type reports the procedure's kind as the wire string ("query" or
// "mutation") used to match against an inbound request's declared type.
func (p *Procedure[C]) Type() string { return p.kind.String() }

// isNode marks Procedure as a Node implementation.
func (p *Procedure[C]) isNode() {}

// Call runs the full pipeline for one invocation: input validation, the
// composed middleware chain, the resolver, and output validation. It always
// returns a non-nil *Envelope — validation and resolver failures are
// captured as failure envelopes rather than propagated as Go errors, so a
// transport adapter never needs a second error path. A panic anywhere in
// the pipeline is recovered and mapped via ToError.
func (p *Procedure[C]) Call(ctx C, rawInput any) (env *Envelope) {
	defer func() {
		if rv := recover(); rv != nil {
			env, _ = ToError(rv)
		}
	}()

	input := rawInput
	if p.validationOn && p.input != nil {
		parsed, err := ParseInput(p.input, rawInput)
		if err != nil {
			return errEnvelope(err)
		}
		input = parsed
	}

	return p.dispatch(ctx, func(dctx C) Result {
		resEnv, err := p.resolve(dctx, input)
		if err != nil {
			return Failure(toRpcError(err))
		}
		if resEnv == nil {
			resEnv = Ok(nil, CodeOK)
		}
		if p.validationOn && p.output != nil && resEnv.OK {
			validated, verr := ParseOutput(p.output, resEnv.Data)
			if verr != nil {
				return Failure(toRpcError(verr))
			}
			resEnv.Data = validated
		}
		return Success(resEnv)
	})
}

func toRpcError(err error) *RpcError {
	if rpcErr, ok := err.(*RpcError); ok {
		return rpcErr
	}
	return NewError(CodeInternalServerError, err.Error()).WithCause(err)
}

func errEnvelope(err error) *Envelope {
	return toRpcError(err).Envelope()
}
