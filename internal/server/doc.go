// Package server provides the MCP server context and the HTTP servers of the
// coverletter application.
//
// # Key Components
//
// ServerContext holds the Drive and Docs clients and the letter pipeline
// shared by every MCP tool. Pipeline runs are serialized so that concurrent
// tool calls never interleave the steps of two letters.
//
// HTTPServer serves the streamable-http MCP transport on /mcp together with
// the /healthz and /readyz endpoints. Unless explicitly allowed it only binds to
// loopback addresses, since every tool acts with the user's Google credential.
//
// MetricsServer exposes Prometheus metrics on a dedicated port.
package server
