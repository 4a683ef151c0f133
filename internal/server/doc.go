// Package server implements an MCP (Model Context Protocol) server that
// exposes TIRF stack analysis as tools.
//
// The server speaks JSON-RPC 2.0 over stdin/stdout, one message per line.
// Logging goes to stderr so stdout stays clean for the protocol.
//
// # Tools
//
//   - stack_info: load a stack and report shape, sample range, and
//     reference-frame statistics
//   - detect_insertions: run insertion-event detection and return the
//     event list
//   - render_overlay: run detection and write annotated PNG overlays
//   - stack_evict: drop a cached stack
//
// # Caching
//
// Stacks are cached by path after the first load, so an inspection call
// followed by a detection call reads the file once. stack_evict frees the
// memory when a stack is no longer needed.
//
// # Error Handling
//
// Protocol-level problems (unknown method, malformed params) map to
// standard JSON-RPC error codes; tool execution failures, including
// unreadable stacks, return code -32000 with the underlying error message
// in the data field.
package server
