package system

import "time"

// Manager is the lifecycle contract every long-lived subsystem implements.
// The Runner calls Initialize once, Update once per tick, and Dispose once
// on shutdown. Update is never called outside that window.
type Manager interface {
	Name() string
	Initialize() error
	Update(dt time.Duration) error
	Dispose() error
}
