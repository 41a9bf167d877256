package duckserver

// Result is what a middleware or resolver returns: either downstream
// succeeded and produced an envelope, or the middleware short-circuits with
// a typed error.
type Result struct {
	ok       bool
	envelope *Envelope
	err      *RpcError
}

// Success wraps a downstream envelope as a successful Result.
func Success(env *Envelope) Result {
	return Result{ok: true, envelope: env}
}

// Failure short-circuits the chain with err, skipping all remaining
// middlewares and the resolver.
func Failure(err *RpcError) Result {
	return Result{ok: false, err: err}
}

// IsOK reports whether the chain (so far) succeeded, for middlewares that
// want to branch on downstream outcome without unwrapping the envelope.
func (r Result) IsOK() bool { return r.ok }

// ErrorCode returns the short-circuiting error's code, or "" if the result
// is a success.
func (r Result) ErrorCode() Code {
	if r.err == nil {
		return ""
	}
	return r.err.Code
}

// Next invokes the remainder of the middleware chain, optionally with a
// refined context value of the same static type C.
type Next[C any] func(ctx C) Result

// Middleware wraps request handling. It receives the current context and a
// next callable; next may be invoked at most once per activation.
type Middleware[C any] func(ctx C, next Next[C]) Result

// Dispatch runs a pre-composed middleware chain around a per-request
// resolver closure.
type Dispatch[C any] func(ctx C, resolver func(C) Result) *Envelope

// nextCalledTwice is the programmer error raised when a middleware invokes
// next more than once within a single activation.
var nextCalledTwice = NewError(CodeMiddlewareError, "next() called multiple times")

// Compose pre-builds the dispatch function for a fixed, ordered list of
// middlewares. The slice itself — the chain's structure — is fixed once,
// at procedure-build time (see Builder.Query/Mutation); only the
// resolver closure and the per-call "has next been invoked" bookkeeping
// vary per request.
func Compose[C any](mws []Middleware[C]) Dispatch[C] {
	chain := append([]Middleware[C](nil), mws...)

	return func(ctx C, resolver func(C) Result) *Envelope {
		result := runChain(chain, 0, ctx, resolver)
		if result.ok {
			return result.envelope
		}
		return result.err.Envelope()
	}
}

func runChain[C any](chain []Middleware[C], idx int, ctx C, resolver func(C) Result) (result Result) {
	defer func() {
		if rv := recover(); rv != nil {
			env, _ := ToError(rv)
			result = Result{ok: false, err: NewError(env.Code, env.Error.Message).WithIssues(env.Error.Issues)}
		}
	}()

	if idx >= len(chain) {
		return resolver(ctx)
	}

	mw := chain[idx]
	called := false
	next := func(nextCtx C) Result {
		if called {
			panic(nextCalledTwice)
		}
		called = true
		return runChain(chain, idx+1, nextCtx, resolver)
	}
	return mw(ctx, next)
}
