// Package httprpc adapts an HTTP request to a duckserver router: it parses
// the procedure path and envelope, dispatches the call, and serializes the
// response in the negotiated wire format.
package httprpc

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ducksrv/duckserver"
	"github.com/ducksrv/duckserver/codec"
	"github.com/ducksrv/duckserver/config"
)

// CreateContext builds the per-request context value from the inbound
// request. A returned error maps to RPC_CONTEXT_ERROR and aborts the
// request before any procedure is invoked.
type CreateContext[C any] func(*http.Request) (C, error)

// DefaultPrefix is the endpoint prefix used when Handler.Prefix is empty.
const DefaultPrefix = "/rpc"

// Handler wires a root router to net/http. Its zero value is not usable;
// construct with New, NewFromConfig, or NewFromStore.
type Handler[C any] struct {
	router        *duckserver.Router[C]
	createContext CreateContext[C]

	// Prefix is the path prefix procedure paths are resolved under.
	// Defaults to DefaultPrefix when empty. Ignored once store is set.
	Prefix string

	// Headers, when set, are copied onto every response before the body is
	// written — e.g. a custom X-Powered-By banner. When nil, responses carry
	// the default banner "X-Powered-By: duck-server". Ignored once store is
	// set.
	Headers http.Header

	// GzipEnabled gates gzip compression of JSON responses. New defaults
	// this to true. Ignored once store is set.
	GzipEnabled bool

	// DescribeRoute gates whether the __describe__ introspection endpoint
	// is reachable. New defaults this to true. Ignored once store is set.
	DescribeRoute bool

	// BodyReader, when set, replaces (*http.Request).Body as the source for
	// POST bodies. Host frameworks that already consumed the request body
	// (to do their own routing or logging) can supply the buffered bytes
	// here instead of forcing a second, impossible read.
	BodyReader func(*http.Request) io.Reader

	// Logger receives one structured record per call, tagged with the
	// resolved procedure path and a per-request id. Defaults to
	// slog.Default() when nil.
	Logger *slog.Logger

	// store, when set by NewFromStore, supersedes the Prefix/Headers/
	// GzipEnabled/DescribeRoute fields above: every request reads a fresh
	// snapshot, so a config.Watch reload takes effect for subsequent
	// traffic without rebuilding the Handler.
	store *config.Store
}

// New builds a Handler over router using createContext to build per-request
// context values, with gzip and the describe endpoint enabled.
func New[C any](router *duckserver.Router[C], createContext CreateContext[C]) *Handler[C] {
	return &Handler[C]{
		router:        router,
		createContext: createContext,
		Prefix:        DefaultPrefix,
		GzipEnabled:   true,
		DescribeRoute: true,
	}
}

// NewFromConfig builds a Handler the way New does, then applies the
// endpoint prefix, response headers, and gzip/describe toggles carried by
// cfg as a one-time snapshot. Use NewFromStore instead when cfg is backed
// by a config.Store that config.Watch reloads over the process lifetime.
func NewFromConfig[C any](router *duckserver.Router[C], createContext CreateContext[C], cfg config.ServerConfig) *Handler[C] {
	h := New(router, createContext)
	applyServerConfig(h, cfg)
	return h
}

// NewFromStore builds a Handler whose prefix, response headers, and
// gzip/describe toggles are read from store on every request. Pairing this
// with config.Watch running in the background makes a file edit take
// effect on the next request with no process restart and no handler
// rebuild.
func NewFromStore[C any](router *duckserver.Router[C], createContext CreateContext[C], store *config.Store) *Handler[C] {
	h := New(router, createContext)
	h.store = store
	return h
}

func applyServerConfig[C any](h *Handler[C], cfg config.ServerConfig) {
	if cfg.Prefix != "" {
		h.Prefix = cfg.Prefix
	}
	h.GzipEnabled = cfg.GzipEnabled
	h.DescribeRoute = cfg.DescribeRoute
	if len(cfg.Headers) > 0 {
		headers := make(http.Header, len(cfg.Headers))
		for key, value := range cfg.Headers {
			headers.Set(key, value)
		}
		h.Headers = headers
	}
}

// liveConfig resolves the prefix/headers/toggles that govern the current
// request: a fresh read from store when one is set, otherwise whatever the
// Handler's own fields currently hold.
func (h *Handler[C]) liveConfig() (prefix string, headers http.Header, gzipEnabled, describeRoute bool) {
	if h.store == nil {
		return h.Prefix, h.Headers, h.GzipEnabled, h.DescribeRoute
	}
	snapshot := &Handler[C]{Prefix: DefaultPrefix, GzipEnabled: true, DescribeRoute: true}
	applyServerConfig(snapshot, h.store.Get())
	return snapshot.Prefix, snapshot.Headers, snapshot.GzipEnabled, snapshot.DescribeRoute
}

func (h *Handler[C]) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// ServeHTTP implements http.Handler, running the full algorithm described
// by the framework's HTTP adapter: prefix/method checks, context creation,
// path parsing, envelope parsing, procedure lookup and type-checking,
// dispatch, and response serialization. Every call is logged once it
// resolves, with the dotted procedure path and a fresh per-request id.
func (h *Handler[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := ulid.Make().String()

	env, format, method := h.handle(r)

	h.logger().Info("rpc call",
		"method", method,
		"request_id", requestID,
		"status", env.Status(),
		"code", env.Code,
		"duration", time.Since(start),
	)

	h.writeResponse(w, r, env, format)
}

func (h *Handler[C]) handle(r *http.Request) (env *duckserver.Envelope, format codec.Format, method string) {
	format = negotiateFormat(r)

	defer func() {
		if rv := recover(); rv != nil {
			env, _ = duckserver.ToError(rv)
		}
	}()

	prefix, _, _, describeRoute := h.liveConfig()
	if prefix == "" {
		prefix = DefaultPrefix
	}

	if !strings.HasPrefix(r.URL.Path, prefix) {
		return duckserver.Err(duckserver.CodeNotFound, "unknown endpoint", nil), format, ""
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		return duckserver.Err(duckserver.CodeBadRequest, "method not allowed", nil), format, ""
	}

	ctx, err := h.createContext(r)
	if err != nil {
		return duckserver.Err(duckserver.CodeContextError, err.Error(), nil), format, ""
	}

	rest := strings.TrimPrefix(r.URL.Path, prefix)
	rest = strings.TrimPrefix(rest, "/")
	segments := splitPath(rest)

	if len(segments) == 1 && segments[0] == duckserver.DescribeProcedureName {
		if !describeRoute {
			return duckserver.Err(duckserver.CodeNotFound, "unknown endpoint", nil), format, ""
		}
		return describeEnvelope(h.router), format, duckserver.DescribeProcedureName
	}

	method = strings.Join(segments, ".")

	reqType, input, err := h.parseEnvelope(r)
	if err != nil {
		return duckserver.Err(duckserver.CodeBadRequest, err.Error(), nil), format, method
	}
	if reqType != "query" && reqType != "mutation" {
		return duckserver.Err(duckserver.CodeBadRequest, "type must be \"query\" or \"mutation\"", nil), format, method
	}
	if r.Method == http.MethodGet && reqType == "mutation" {
		return duckserver.Err(duckserver.CodeBadRequest, "mutations must use POST", nil), format, method
	}

	proc, ok := h.router.GetProcedureAtPath(segments)
	if !ok {
		return duckserver.Err(duckserver.CodeNotFound, "no procedure at that path", nil), format, method
	}
	if proc.Type() != reqType {
		return duckserver.Err(duckserver.CodeBadRequest, "procedure type mismatch", nil), format, method
	}

	return proc.Call(ctx, input), format, method
}

func splitPath(rest string) []string {
	if rest == "" {
		return nil
	}
	return strings.Split(rest, ".")
}

func (h *Handler[C]) parseEnvelope(r *http.Request) (reqType string, input any, err error) {
	if r.Method == http.MethodGet {
		return parseGetEnvelope(r.URL.Query())
	}

	var body io.Reader = r.Body
	if h.BodyReader != nil {
		body = h.BodyReader(r)
	}

	contentType := r.Header.Get("Content-Type")
	decoded, format, derr := codec.DecodeRequestBody(contentType, body)
	if derr != nil {
		if format == codec.FormatCBOR {
			return "", nil, wrapDecodeErr("invalid CBOR body", derr)
		}
		return "", nil, wrapDecodeErr("invalid JSON body", derr)
	}

	fields, ok := decoded.(map[string]any)
	if !ok {
		return "", nil, errInvalidEnvelope
	}
	reqType, _ = fields["type"].(string)
	return reqType, fields["input"], nil
}

func parseGetEnvelope(q url.Values) (reqType string, input any, err error) {
	reqType = q.Get("type")
	if reqType == "" {
		reqType = "query"
	}

	if raw := q.Get("input"); raw != "" {
		decoded, _, derr := codec.DecodeRequestBody("application/json", strings.NewReader(raw))
		if derr != nil {
			return reqType, raw, nil
		}
		return reqType, decoded, nil
	}

	flat := make(map[string]any, len(q))
	for key, values := range q {
		if key == "type" || key == "input" {
			continue
		}
		if len(values) > 0 {
			flat[key] = values[0]
		}
	}
	return reqType, flat, nil
}

func (h *Handler[C]) writeResponse(w http.ResponseWriter, r *http.Request, env *duckserver.Envelope, format codec.Format) {
	_, headers, gzipEnabled, _ := h.liveConfig()
	if headers == nil {
		headers = http.Header{"X-Powered-By": []string{"duck-server"}}
	}
	for key, values := range headers {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}

	raw, contentType, err := codec.SerializeResponse(env, format)
	if err != nil {
		env, _ = duckserver.ToError(err)
		raw, contentType, _ = codec.SerializeResponse(env, codec.FormatJSON)
	}

	status := env.Status()

	if format == codec.FormatJSON && gzipEnabled && acceptsGzip(r) {
		writeGzip(w, status, contentType, raw)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

// negotiateFormat picks the response wire format: an Accept header
// mentioning CBOR wins, then a CBOR Content-Type, otherwise JSON.
func negotiateFormat(r *http.Request) codec.Format {
	if strings.Contains(strings.ToLower(r.Header.Get("Accept")), "application/cbor") {
		return codec.FormatCBOR
	}
	if strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/cbor") {
		return codec.FormatCBOR
	}
	return codec.FormatJSON
}
