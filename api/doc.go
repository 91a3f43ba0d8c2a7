// Package api is the JSON boundary of the ceremony coordinator.
//
// Each call takes state documents and blobs as JSON and hex text and
// returns the JSON text of an [Envelope]:
//
//	{"success":true,"data":{...},"error":null}
//	{"success":false,"data":null,"error":{"kind":"InsufficientParticipants","message":"...","required":2,"actual":1}}
//
// The package-level functions share one [Service] configured from the
// FROST_CURVE, FROST_HASHER and FROST_LOG environment variables.
package api
