package httprpc

import "github.com/ducksrv/duckserver"

// describeEnvelope builds the introspection response for the reserved
// __describe__ path: a sorted listing of every procedure reachable from
// router, with its dotted path and query/mutation type.
func describeEnvelope[C any](router *duckserver.Router[C]) *duckserver.Envelope {
	return duckserver.Ok(struct {
		Procedures []duckserver.ProcedureDescriptor `json:"procedures" cbor:"procedures"`
	}{Procedures: router.Describe()}, duckserver.CodeOK)
}
