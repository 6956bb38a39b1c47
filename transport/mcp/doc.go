// Package mcp exposes the game to MCP-speaking agents.
//
// The Client is intentionally thin: every tool call is translated into a
// request against the REST API and the JSON response is reformatted as
// human-readable text. No game state lives in this package, so any number
// of MCP clients can point at the same server.
package mcp
