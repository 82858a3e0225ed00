// Package httpapi exposes a core over HTTP.
//
//	POST /rpc                        {"type":"CreateNode","data":{...}}
//	POST /events/{package}/{event}   inject an event with a JSON payload
//	GET  /health
//	GET  /metrics
//
// RPC replies echo the request type with the response as data, or carry an
// "error" object whose "kind" names the failure.
package httpapi
