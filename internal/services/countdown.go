package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"auction-explorer/pkg/logger"
)

// CountdownScheduler drives the 1 Hz recomputation of the remaining-time
// text for one auction. At most one recurring entry exists at a time: every
// Start tears the previous one down first, and Stop is idempotent.
type CountdownScheduler struct {
	log  logger.Logger
	cron *cron.Cron
	sink func(text string)
	now  func() time.Time

	mu    sync.Mutex
	entry cron.EntryID
}

func NewCountdownScheduler(log logger.Logger, sink func(text string)) *CountdownScheduler {
	s := &CountdownScheduler{
		log:  log,
		cron: cron.New(cron.WithSeconds()),
		sink: sink,
		now:  time.Now,
	}
	s.cron.Start()
	return s
}

// Start replaces any running countdown. An ended auction renders a fixed
// label and schedules nothing; otherwise the remaining time is rendered
// immediately and then once per second. The whole replace happens under one
// lock so concurrent Starts cannot each schedule an entry.
func (s *CountdownScheduler) Start(endTimestamp int64, ended bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeEntry()

	if ended {
		s.sink("Encerrado")
		return
	}

	if !s.render(endTimestamp) {
		return
	}

	entry, err := s.cron.AddFunc("@every 1s", func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.render(endTimestamp)
	})
	if err != nil {
		s.log.Error("Falha ao agendar contagem regressiva", "error", err)
		return
	}
	s.entry = entry
}

// Stop cancels the running countdown, if any.
func (s *CountdownScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeEntry()
}

// Close stops the countdown and the underlying scheduler. Called on session
// teardown so no periodic work outlives the page.
func (s *CountdownScheduler) Close() {
	s.Stop()
	s.cron.Stop()
}

// removeEntry requires s.mu held.
func (s *CountdownScheduler) removeEntry() {
	if s.entry != 0 {
		s.cron.Remove(s.entry)
		s.entry = 0
	}
}

// render requires s.mu held.
func (s *CountdownScheduler) render(endTimestamp int64) bool {
	diff := endTimestamp - s.now().Unix()
	if diff <= 0 {
		// The next reconciliation pass decides the final state.
		s.sink("Encerrando…")
		s.removeEntry()
		return false
	}
	s.sink(FormatRemaining(diff))
	return true
}

// FormatRemaining renders a positive remaining-seconds value as
// "{hours}h {minutes}m {seconds}s".
func FormatRemaining(seconds int64) string {
	return fmt.Sprintf("%dh %dm %ds", seconds/3600, (seconds%3600)/60, seconds%60)
}
