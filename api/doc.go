// Package api exposes the game over HTTP.
//
// All routes live under /api and speak JSON. Errors share one envelope,
// {"error": "..."}, with the status code derived from the kind of
// failure: 400 for malformed input, 403 for host-only actions, 404 for
// unknown games, rooms, players, or statements, and 409 for actions
// that conflict with the current game state.
//
// The server also mounts the WebSocket endpoint at /ws and a health
// probe at /health.
package api
