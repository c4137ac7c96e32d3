package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"shootmap/config"
)

// Triggerable allows workers to be triggered manually
type Triggerable interface {
	Trigger()
}

type Sweeper interface {
	Sweep() int
}

type Pruner interface {
	PruneExpired(ctx context.Context) (int, error)
}

type Scheduler struct {
	cfg      config.SchedulerConfig
	cache    Sweeper
	chat     Pruner
	archiver Triggerable
	cron     *cron.Cron
	ticker   *time.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once
}

func New(cfg config.SchedulerConfig, cache Sweeper, chat Pruner, archiver Triggerable) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		cache:    cache,
		chat:     chat,
		archiver: archiver,
		cron:     cron.New(),
		stopCh:   make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.chat != nil && s.cfg.ChatPruneCron != "" {
		_, err := s.cron.AddFunc(s.cfg.ChatPruneCron, func() { s.pruneChat(ctx) })
		if err != nil {
			return fmt.Errorf("invalid chat prune cron %q: %w", s.cfg.ChatPruneCron, err)
		}
		log.Printf("Chat prune scheduled: %s", s.cfg.ChatPruneCron)
	}

	if s.archiver != nil && s.cfg.ArchiveCron != "" {
		_, err := s.cron.AddFunc(s.cfg.ArchiveCron, func() {
			log.Println("Archive worker triggered by schedule")
			s.archiver.Trigger()
		})
		if err != nil {
			return fmt.Errorf("invalid archive cron %q: %w", s.cfg.ArchiveCron, err)
		}
		log.Printf("Archive scheduled: %s", s.cfg.ArchiveCron)
	}

	s.cron.Start()

	if s.cache != nil && s.cfg.SweepInterval > 0 {
		log.Printf("Cache sweep every %s", s.cfg.SweepInterval)
		s.ticker = time.NewTicker(s.cfg.SweepInterval)
		go s.sweepLoop(ctx, s.ticker.C)
	}

	return nil
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.cron != nil {
			<-s.cron.Stop().Done()
		}
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
	})
}

func (s *Scheduler) sweepLoop(ctx context.Context, tick <-chan time.Time) {
	for {
		select {
		case <-tick:
			if n := s.cache.Sweep(); n > 0 {
				log.Printf("Cache sweep removed %d expired entries", n)
			}
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) pruneChat(ctx context.Context) {
	n, err := s.chat.PruneExpired(ctx)
	if err != nil {
		log.Printf("Chat prune error: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Chat prune flagged %d expired messages", n)
	}
}
