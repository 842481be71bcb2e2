package bus

import "time"

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Event kinds published across the client. Subscribers filter by
// namespace prefix, e.g. "store." matches every store mutation.
const (
	StoreReplaced  = "store.replace"
	StoreAppended  = "store.append"
	StoreSeen      = "store.seen"
	PushSeen       = "push.messages_seen"
	PushOnline     = "push.online"
	Projection     = "projection.updated"
	Selection      = "selection.changed"
	ConnStatus     = "conn.status_changed"
	SnapshotFailed = "engine.snapshot_failed"
)
