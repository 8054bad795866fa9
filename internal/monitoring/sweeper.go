package monitoring

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// OTPPurger is the slice of the user store the sweeper needs.
type OTPPurger interface {
	PurgeExpiredOTPs(now time.Time) (int64, error)
}

// Sweeper periodically nulls expired OTP pairs. Expiry is always enforced
// logically when a code is consumed; the sweeper only keeps stale challenge
// state from lingering on user rows.
type Sweeper struct {
	users    OTPPurger
	interval time.Duration
	cron     *cron.Cron
}

// NewSweeper creates a sweeper running at the given interval.
func NewSweeper(users OTPPurger, interval time.Duration) *Sweeper {
	return &Sweeper{
		users:    users,
		interval: interval,
		cron:     cron.New(),
	}
}

// Start schedules the sweep and runs it once immediately.
func (s *Sweeper) Start() error {
	s.sweep()
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.sweep); err != nil {
		return fmt.Errorf("schedule otp sweep: %w", err)
	}
	s.cron.Start()
	log.Info().Dur("interval", s.interval).Msg("OTP sweeper started")
	return nil
}

// Stop halts the sweeper, waiting for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("OTP sweeper stopped")
}

func (s *Sweeper) sweep() {
	n, err := s.users.PurgeExpiredOTPs(time.Now())
	if err != nil {
		log.Error().Err(err).Msg("OTP sweep failed")
		return
	}
	if n > 0 {
		log.Info().Int64("rows", n).Msg("Purged expired OTPs")
	}
}
