// Package websocket provides the real-time transport for game rooms.
//
// The Hub is the central fan-out point. Client goroutines never touch
// each other's state; all shared bookkeeping (which connections belong
// to which game) happens on the Hub's single Run loop, fed through the
// register, unregister, and broadcast channels.
//
// # Connection lifecycle
//
// A connection starts unbound. Its first successful create-room or
// join-room message binds it to a (game, player) pair and registers it
// for that game's broadcasts. When the connection drops, the player is
// marked disconnected but keeps their roster slot, so the game can run
// to completion.
//
// # Message flow
//
// Inbound messages are JSON ClientMessage values dispatched to the game
// service one at a time per connection. Outbound events are produced by
// the service layer through the Notifier interface, which the Hub
// implements: each event is encoded once and delivered to every
// connection bound to the game, minus any excluded players.
//
// # Usage
//
//	hub := websocket.NewHub()
//	hub.SetService(svc)
//	go hub.Run()
//	mux.HandleFunc("/ws", hub.ServeWS)
package websocket
