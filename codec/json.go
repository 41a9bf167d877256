package codec

import "github.com/bytedance/sonic"

// decodeJSON unmarshals raw into a generic any using sonic's standard-
// library-compatible API. A nil/invalid body yields a nil value and a
// non-nil error, per DecodeRequestBody's contract.
func decodeJSON(raw []byte) (any, error) {
	var v any
	if err := sonic.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func encodeJSON(v any) ([]byte, error) {
	return sonic.Marshal(v)
}
