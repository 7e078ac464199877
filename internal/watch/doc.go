// Package watch lets a caller observe the future values of one live node.
//
// Every live node owns a Hub. A Hub hands out Watches, and every value the
// node's cache receives (a recomputation or an external effect tick) is
// published to all of them.
//
// Each Watch is a single-consumer state machine:
//
//	Idle ──Next()──▶ Awaiting ──value──▶ Idle
//	  │                 │
//	  └──Stop()──▶ Cancelled ◀──Stop()──┘
//
// At most one Next call may be parked at a time. A value that arrives while
// nobody is waiting is held in a single slot and handed to the next Next
// call; a newer value replaces an undelivered older one (latest wins). This
// fits continuous animation, where only the most recent frame matters.
// Stopping a watch wakes a parked Next with ErrStopped instead of leaving it
// hanging.
package watch
