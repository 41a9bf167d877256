// © Copyright 2026, duck-server contributors
// SPDX-License-Identifier: Apache-2.0

package duckserver

import "fmt"

// ErrRpc is a sentinel for use with errors.Is to check whether any error in
// a chain is an *RpcError, following the same pattern as chirp's CallError.
var ErrRpc = &RpcError{}

// RpcError represents a typed error anywhere in the request pipeline: a
// validation failure, a routing failure, a middleware short-circuit, or a
// server-side fault. Its Code/Message/Issues travel to the wire verbatim;
// Cause is kept in-process only (for logging) and never serialized.
type RpcError struct {
	Code    Code
	Message string
	Issues  []Issue
	Cause   error
}

func (e *RpcError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes Cause to errors.Is/errors.As chains.
func (e *RpcError) Unwrap() error { return e.Cause }

// Is supports errors.Is by matching any *RpcError target.
func (e *RpcError) Is(target error) bool {
	_, ok := target.(*RpcError)
	return ok
}

// Envelope renders the error as a wire envelope.
func (e *RpcError) Envelope() *Envelope {
	return Err(e.Code, e.Message, e.Issues)
}

// NewError builds an *RpcError with the given code and message.
func NewError(code Code, message string) *RpcError {
	return &RpcError{Code: code, Message: message}
}

// WithIssues attaches validation issues to a copy of the error.
func (e *RpcError) WithIssues(issues []Issue) *RpcError {
	clone := *e
	clone.Issues = issues
	return &clone
}

// WithCause attaches an in-process cause to a copy of the error.
func (e *RpcError) WithCause(cause error) *RpcError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// ToError classifies an arbitrary recovered value (from panic recovery or a
// plain error return) into a wire envelope and its HTTP status. It is the
// single place where foreign failures funnel into the closed taxonomy:
//
//   - an already-typed *RpcError is preserved exactly (code, message, and
//     issues travel unchanged);
//   - any other error is wrapped as RPC_INTERNAL_SERVER_ERROR with the
//     original message preserved as Cause;
//   - anything else (a panic'd string, nil, or other arbitrary value) maps
//     to RPC_INTERNAL_SERVER_ERROR with the message "Unknown error".
func ToError(recovered any) (*Envelope, int) {
	switch v := recovered.(type) {
	case *RpcError:
		env := v.Envelope()
		return env, env.Status()
	case error:
		rpcErr := &RpcError{
			Code:    CodeInternalServerError,
			Message: v.Error(),
			Cause:   v,
		}
		env := rpcErr.Envelope()
		return env, env.Status()
	default:
		rpcErr := &RpcError{
			Code:    CodeInternalServerError,
			Message: "Unknown error",
		}
		env := rpcErr.Envelope()
		return env, env.Status()
	}
}
