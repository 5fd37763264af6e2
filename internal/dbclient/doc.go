// Package dbclient maintains the pipelined request/response channel to the
// long-lived layout/schematic database server.
//
// The server writes its listening port to a well-known file at startup; the
// client discovers the endpoint by polling that file with bounded backoff.
// All traffic flows over a single TCP session: up to the configured pipeline
// depth of requests may be in flight, and responses are matched to requests
// strictly by arrival order. The client never reconnects on its own — the
// server holds exclusive, non-reacquirable locks on the underlying database,
// so attaching to a new server instance without explicit caller intent would
// be unsafe.
package dbclient
