// Package scheduler provides cancellable delayed callbacks and periodic
// background loops for the game server.
//
// The drinking-window auto-advance is a delayed task keyed by game ID:
// when a game is deleted (for example by the idle sweep) its pending task
// is either cancelled or fires against a game that no longer exists, which
// callers treat as a benign no-op rather than an error. The idle sweep
// itself runs as a fixed-interval loop.
//
// Usage:
//
//	sched := scheduler.New()
//	sched.After(gameID, 10*time.Second, advance)
//	sched.Every(5*time.Minute, sweep)
//	defer sched.Stop()
package scheduler
