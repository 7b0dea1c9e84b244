// Package lookupproxy services Lookup, PartitionedMetadata, GetSchema and
// GetOrCreateSchema commands on behalf of a connection's principal
// (spec §4.4). It satisfies proxyconn.LookupHandler.
//
// Each call acquires a permit from a shared admission.Semaphore before
// doing any I/O, selects a target broker from the discovery provider,
// opens a short-lived connection to it, forwards the request with the
// client's principal propagated as OriginalPrincipal, and rewrites the
// broker's reply to point back at the proxy's own advertised service URL
// before releasing the permit — so every code path, success or failure,
// releases exactly once (spec §3: "the permit is released on reply,
// error, or client disconnect — never leaked").
package lookupproxy
