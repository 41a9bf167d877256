package httprpc

import (
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
)

func acceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}

// writeGzip compresses raw with klauspost/compress/gzip and writes it with
// a Content-Encoding: gzip header, per the response-format negotiation
// rule: gzip only applies to JSON responses, never to CBOR.
func writeGzip(w http.ResponseWriter, status int, contentType string, raw []byte) {
	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	gz := gzip.NewWriter(w)
	_, _ = gz.Write(raw)
	_ = gz.Close()
}
