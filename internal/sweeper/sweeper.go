package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// CouponExpirer flips overdue coupons to expired.
type CouponExpirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// SessionPruner drops playback sessions idle past the TTL.
type SessionPruner interface {
	PruneIdle(ttl time.Duration) int
}

// Sweeper runs the background maintenance jobs: expiring overdue coupons
// and pruning abandoned playback sessions.
type Sweeper struct {
	scheduler gocron.Scheduler

	coupons    CouponExpirer
	sessions   SessionPruner
	interval   time.Duration
	sessionTTL time.Duration
}

// New creates a Sweeper running both jobs at the given interval.
func New(coupons CouponExpirer, sessions SessionPruner, interval, sessionTTL time.Duration) (*Sweeper, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Sweeper{
		scheduler:  scheduler,
		coupons:    coupons,
		sessions:   sessions,
		interval:   interval,
		sessionTTL: sessionTTL,
	}, nil
}

// Start registers the jobs and begins running them.
func (s *Sweeper) Start(ctx context.Context) error {
	if _, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.expireCoupons(ctx) }),
	); err != nil {
		return fmt.Errorf("register coupon expiry job: %w", err)
	}

	if _, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.pruneSessions),
	); err != nil {
		return fmt.Errorf("register session prune job: %w", err)
	}

	s.scheduler.Start()
	log.Info().Dur("interval", s.interval).Msg("background sweeper started")
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs to finish.
func (s *Sweeper) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	return nil
}

func (s *Sweeper) expireCoupons(ctx context.Context) {
	expired, err := s.coupons.ExpireOverdue(ctx, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("coupon expiry sweep failed")
		return
	}
	if expired > 0 {
		log.Info().Int64("expired", expired).Msg("expired overdue coupons")
	}
}

func (s *Sweeper) pruneSessions() {
	s.sessions.PruneIdle(s.sessionTTL)
}
