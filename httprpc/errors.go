package httprpc

import "errors"

var errInvalidEnvelope = errors.New("request body must be an object with \"type\" and \"input\" fields")

func wrapDecodeErr(prefix string, cause error) error {
	return errors.New(prefix + ": " + cause.Error())
}
