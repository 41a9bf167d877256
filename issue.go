package duckserver

import "fmt"

// Issue is a single validation error surfaced by a [Schema]. Path elements
// are either a string field name or an int index, mirroring how a JSON
// Pointer walks through objects and arrays.
type Issue struct {
	Message string `json:"message" cbor:"message"`
	Path    []any  `json:"path" cbor:"path"`
}

func (i Issue) String() string {
	if len(i.Path) == 0 {
		return i.Message
	}
	return fmt.Sprintf("%v: %s", i.Path, i.Message)
}
