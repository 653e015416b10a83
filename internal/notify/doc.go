// Package notify is the notification delivery engine.
//
// Callers enqueue typed notification jobs (immediately or scheduled);
// a single processor goroutine drains the queue in bounded batches on a
// fixed tick, renders each job from its registered template, and fans
// the rendered message out to the job's destination channels and to
// every webhook subscribed to the job's type. Transient job-level
// faults are retried by re-appending the job to the tail of the queue,
// up to a configured limit.
//
// # Durability
//
// The queue and armed schedule timers are in-memory only: a restart
// loses pending and scheduled deliveries. Subscription and webhook
// routing survive restarts through the storage layer; every mutation
// triggers a full save of the routing document.
//
// # Concurrency
//
// All shared state (queue, directories, counters) is serialized behind
// a single mutex. Sink sends happen outside the lock and are bounded by
// a per-send timeout so a hung transport never stalls the tick loop.
package notify
