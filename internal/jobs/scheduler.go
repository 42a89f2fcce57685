package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"wastemarket/mobile/internal/repository"
)

type Scheduler struct {
	cron     *cron.Cron
	sessions repository.Sessions
	spec     string
	log      zerolog.Logger
	now      func() time.Time
}

// NewScheduler sweeps expired login sessions on spec, a six-field cron
// expression. An empty spec disables the sweep.
func NewScheduler(sessions repository.Sessions, spec string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		sessions: sessions,
		spec:     spec,
		log:      log,
		now:      time.Now,
	}
}

func (s *Scheduler) Start() error {
	if s.spec == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.sweep); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits up to five seconds for a running
// sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("session sweep still running at shutdown")
	}
}

// Sweep deletes every session that expired before now.
func (s *Scheduler) Sweep(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now().UTC())
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.Sweep(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("session sweep failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("expired sessions removed")
	}
}
