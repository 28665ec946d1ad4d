package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/tavernsim/server/internal/world"
)

// CleanupSystem flushes the despawn queue at the end of each tick.
// Register it after every manager that can despawn customers.
type CleanupSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewCleanupSystem(ws *world.State, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: ws, log: log.Named("cleanup")}
}

func (s *CleanupSystem) Name() string      { return "CleanupSystem" }
func (s *CleanupSystem) Initialize() error { return nil }

func (s *CleanupSystem) Update(_ time.Duration) error {
	s.flush()
	return nil
}

// Dispose removes anything despawned during the final tick.
func (s *CleanupSystem) Dispose() error {
	s.flush()
	return nil
}

func (s *CleanupSystem) flush() {
	for _, id := range s.world.FlushDespawned() {
		s.log.Debug("customer removed", zap.Stringer("id", id))
	}
}
