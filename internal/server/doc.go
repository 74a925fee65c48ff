// Package server hosts the media-review gateway API from a single HTTP server.
//
// The server builds a consistent middleware chain of CORS, rate limiting,
// request IDs, metrics, and logging so handlers all share common protections
// and instrumentation. Routes forward to the api package, which in turn talks
// to the remote media service.
package server
