package system

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrRunnerSealed is returned by Register once the runner has been initialized.
	ErrRunnerSealed = errors.New("runner already initialized")
	// ErrNotRunning is returned by Tick outside the Initialize..Dispose window.
	ErrNotRunning = errors.New("runner not running")
)

type runnerState int

const (
	stateRegistering runnerState = iota
	stateRunning
	stateDisposed
)

// Runner owns a fixed, ordered list of managers and drives their lifecycle.
// Registration order matters: a manager that subscribes to a startup event
// must be registered before the manager that publishes it.
type Runner struct {
	managers []Manager
	state    runnerState
	ticks    uint64
	log      *zap.Logger
}

func NewRunner(log *zap.Logger) *Runner {
	return &Runner{
		managers: make([]Manager, 0, 8),
		log:      log,
	}
}

func (r *Runner) Register(m Manager) error {
	if r.state != stateRegistering {
		return fmt.Errorf("register %s: %w", m.Name(), ErrRunnerSealed)
	}
	r.managers = append(r.managers, m)
	return nil
}

// Initialize calls Initialize on every manager in registration order. If one
// fails, the managers already initialized are disposed in reverse order and
// the runner is left disposed.
func (r *Runner) Initialize() error {
	if r.state != stateRegistering {
		return ErrRunnerSealed
	}
	for i, m := range r.managers {
		if err := m.Initialize(); err != nil {
			r.state = stateDisposed
			initErr := fmt.Errorf("initialize %s: %w", m.Name(), err)
			return errors.Join(initErr, r.disposeRange(i-1))
		}
		r.log.Debug("manager initialized", zap.String("manager", m.Name()))
	}
	r.state = stateRunning
	r.log.Info("runner initialized", zap.Int("managers", len(r.managers)))
	return nil
}

// Tick runs one frame: Update on every manager in registration order. The
// first error aborts the frame and is returned to the caller.
func (r *Runner) Tick(dt time.Duration) error {
	if r.state != stateRunning {
		return ErrNotRunning
	}
	r.ticks++
	for _, m := range r.managers {
		if err := m.Update(dt); err != nil {
			return fmt.Errorf("tick %d: update %s: %w", r.ticks, m.Name(), err)
		}
	}
	return nil
}

// Ticks returns the number of frames started so far.
func (r *Runner) Ticks() uint64 { return r.ticks }

// Running reports whether the runner is between Initialize and Dispose.
func (r *Runner) Running() bool { return r.state == stateRunning }

// Dispose tears managers down in reverse registration order. It is safe to
// call more than once; only the first call does anything.
func (r *Runner) Dispose() error {
	if r.state != stateRunning {
		return nil
	}
	r.state = stateDisposed
	err := r.disposeRange(len(r.managers) - 1)
	r.log.Info("runner disposed", zap.Uint64("ticks", r.ticks))
	return err
}

func (r *Runner) disposeRange(last int) error {
	var errs []error
	for i := last; i >= 0; i-- {
		m := r.managers[i]
		if err := m.Dispose(); err != nil {
			errs = append(errs, fmt.Errorf("dispose %s: %w", m.Name(), err))
			continue
		}
		r.log.Debug("manager disposed", zap.String("manager", m.Name()))
	}
	return errors.Join(errs...)
}
