// Package service provides the business logic layer for the Never Have I
// Ever game server.
//
// The service package implements:
//   - Room creation and joining (by room code or by game ID)
//   - Lobby discovery for open games
//   - Action orchestration: start, statement, guess, drink
//   - Auto-transition side effects: statement reveal, score broadcast,
//     drinking-window scheduling, results on finish
//   - Disconnect handling
//
// Architecture:
//
// The service layer sits between the transports (HTTP/WebSocket/MCP) and
// the game engine. It resolves games through the session manager, invokes
// the engine's serialized methods, and fans resulting events out through
// the Notifier interface, which the WebSocket hub implements. Transports
// therefore never touch a game aggregate directly.
//
// Timers:
//
// Entering the drinking phase schedules an auto-advance after DrinkWindow,
// keyed by game ID. If the game is removed by the idle sweep before the
// timer fires, the advance is a documented no-op.
//
// Usage:
//
//	store := session.NewManager()
//	sched := scheduler.New()
//	svc := service.NewGameService(store, sched)
//	svc.SetNotifier(hub)
//
//	room, err := svc.CreateRoom(ctx, "Ava")
//	if err != nil {
//		log.Fatal(err)
//	}
package service
