package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode and decMode are built once at package init and reused for every
// call: both are documented by fxamacker/cbor as immutable once built and
// safe for concurrent use, so no locking is needed around them. Canonical
// encoding gives deterministic, sorted map keys on the wire.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	encOpts := cbor.CanonicalEncOptions()
	mode, err := encOpts.EncMode()
	if err != nil {
		panic("codec: failed to build canonical CBOR encode mode: " + err.Error())
	}
	encMode = mode

	// Decode CBOR maps into map[string]any rather than cbor's default
	// map[any]any, so a decoded body has the same shape whether it arrived
	// as JSON or CBOR.
	decOpts := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
	}
	dmode, err := decOpts.DecMode()
	if err != nil {
		panic("codec: failed to build CBOR decode mode: " + err.Error())
	}
	decMode = dmode
}

func decodeCBOR(raw []byte) (any, error) {
	var v any
	if err := decMode.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func encodeCBOR(v any) ([]byte, error) {
	return encMode.Marshal(v)
}
