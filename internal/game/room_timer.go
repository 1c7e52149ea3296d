// internal/game/room_timer.go
package game

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// Timer is the handle returned by a Scheduler.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. Production rooms use RealScheduler; tests inject a manual one.
type Scheduler func(d time.Duration, f func()) Timer

// RealScheduler schedules on the runtime timer wheel.
func RealScheduler(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// schedule replaces the room's single timer. When it fires, fire runs under the room lock only
// if the room is still open, no newer timer was scheduled, the status is still status and, for
// turn timers, playerID is still the active bidder. Assumes lock is held.
func (r *Room) schedule(d time.Duration, status Status, playerID string, fire func()) {
	r.cancelTimer()
	gen := r.timerGen
	r.timer = r.scheduler(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		stale := r.closed || gen != r.timerGen || r.status != status
		if !stale && playerID != "" {
			stale = r.round == nil || r.round.ActivePlayerID != playerID
		}
		if stale {
			r.logger.WithFields(log.Fields{"status": status, "player": playerID}).Debugf("stale timer ignored")
			return
		}
		r.timer = nil
		r.deadline = time.Time{}
		fire()
	})
}

// cancelTimer stops the outstanding timer and invalidates any callback already in flight.
// Assumes lock is held.
func (r *Room) cancelTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.timerGen++
	r.deadline = time.Time{}
}
