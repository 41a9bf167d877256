// Package codec decodes request bodies and serializes response envelopes
// in the wire formats the framework understands: JSON and CBOR.
package codec

import (
	"io"
	"strings"
)

// Format identifies a wire encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatCBOR
)

func (f Format) String() string {
	if f == FormatCBOR {
		return "cbor"
	}
	return "json"
}

// ContentType returns the canonical Content-Type value for f.
func (f Format) ContentType() string {
	if f == FormatCBOR {
		return "application/cbor"
	}
	return "application/json"
}

// formatFromContentType inspects a request's Content-Type header and
// decides which codec to use. Parameters (e.g. "; charset=utf-8") are
// stripped and the comparison is case-insensitive. Anything other than an
// exact CBOR match falls back to JSON.
func formatFromContentType(contentType string) Format {
	base := contentType
	if idx := strings.IndexByte(base, ';'); idx >= 0 {
		base = base[:idx]
	}
	base = strings.TrimSpace(base)
	if strings.EqualFold(base, "application/cbor") {
		return FormatCBOR
	}
	return FormatJSON
}

// DecodeRequestBody reads r fully and decodes it according to contentType.
// A JSON decode failure is reported as a nil body with a non-nil error;
// a CBOR decode failure propagates the underlying library error directly.
func DecodeRequestBody(contentType string, r io.Reader) (body any, format Format, err error) {
	format = formatFromContentType(contentType)

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, format, err
	}
	if len(raw) == 0 {
		return nil, format, nil
	}

	switch format {
	case FormatCBOR:
		body, err = decodeCBOR(raw)
		if err != nil {
			return nil, format, err
		}
		return body, format, nil
	default:
		body, err = decodeJSON(raw)
		if err != nil {
			return nil, format, err
		}
		return body, format, nil
	}
}

// SerializeResponse encodes body in the given format, returning the raw
// bytes and the Content-Type that should accompany them.
func SerializeResponse(body any, format Format) ([]byte, string, error) {
	var (
		raw []byte
		err error
	)
	switch format {
	case FormatCBOR:
		raw, err = encodeCBOR(body)
	default:
		raw, err = encodeJSON(body)
	}
	if err != nil {
		return nil, "", err
	}
	return raw, format.ContentType(), nil
}
