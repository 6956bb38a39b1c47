// Package engine provides the core game logic for the Never Have I Ever
// party game.
//
// The engine package implements the game rules including:
//   - Player admission with host assignment and name checks
//   - The phase state machine (waiting, submitting, guessing, drinking, finished)
//   - Statement submission with a one-time shuffle into guessing order
//   - Vote collection with the author-doesn't-vote threshold
//   - Drink tracking and final score computation
//
// Core Types:
//
// Game is the authoritative aggregate for one room, holding the roster,
// the statements, the round pointer, and the current Phase. Snapshot and
// Results are read-only views derived from it.
//
// Game Rules:
//
// Each player submits one "never have I ever" statement. Statements are
// shuffled once and played in order; for each one, every player except the
// author guesses who wrote it. A correct guess scores a point. After the
// votes close, players who have done the deed drink. Final ranking is
// guessScore minus drinkCount, highest first.
//
// Concurrency:
//
// Every exported method serializes on the game's own mutex, so concurrent
// actions against one game apply as if sequenced, each guard evaluated
// against the state left by the previous action. Different games are
// fully independent. Methods either fully apply or fully reject; a
// rejection never leaves partial state behind.
//
// Usage:
//
//	game := engine.NewGame(gameID, roomCode)
//	host, err := game.AddPlayer(hostID, "Ava")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Host starts once enough players joined
//	if err := game.Start(host.ID); err != nil {
//		log.Fatal(err)
//	}
//
//	phase, err := game.SubmitStatement(host.ID, statementID, "skied")
package engine
