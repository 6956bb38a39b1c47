// Package session provides the registry of live games.
//
// The session package implements:
//   - Thread-safe game storage indexed by game ID and by room code
//   - Unique ID generation for games, players, and statements
//   - Room-code generation with collision retry against live codes
//   - Idle-game cleanup
//
// Core Types:
//
// Manager is the registry handling all game lookup and lifecycle
// operations. It owns every live engine.Game aggregate; other components
// only reach a game through the manager and operate on it via the
// engine's serialized methods.
//
// Identifiers:
//
// Games, players, and statements use UUIDs. Rooms additionally get a
// 6-character uppercase alphanumeric join code, generated from
// cryptographic randomness and retried until unique among live games.
// Codes are not reserved: when a game is deleted its code may be reused.
//
// Concurrency:
//
// The manager is safe for concurrent use. Its lock covers only the
// indexes; per-game state is serialized by each game's own mutex, so
// different games can be mutated in parallel.
//
// Cleanup:
//
// CleanupExpired removes every game whose last player activity is older
// than the given age, whatever phase it is in. Abandoned in-progress
// games are discarded, not archived. There is no other garbage
// collection; disconnected players merely lose their liveness flag.
package session
