// Package chiadapter mounts an httprpc.Handler onto a go-chi/chi router for
// hosts that already use chi for everything else. It does not change the
// handler's own routing algorithm, which remains self-contained.
package chiadapter

import (
	"github.com/go-chi/chi/v5"

	"github.com/ducksrv/duckserver/httprpc"
)

// Mount registers h to handle every method and sub-path under pattern.
func Mount[C any](r chi.Router, pattern string, h *httprpc.Handler[C]) {
	mounted := pattern
	if mounted == "" {
		mounted = "/"
	}
	r.Mount(mounted, h)
}
