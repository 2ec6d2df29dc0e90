package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countdownSink struct {
	mu    sync.Mutex
	texts []string
}

func (s *countdownSink) push(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
}

func (s *countdownSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

func newTestScheduler(t *testing.T, now time.Time) (*CountdownScheduler, *countdownSink) {
	t.Helper()
	sink := &countdownSink{}
	scheduler := NewCountdownScheduler(nopLogger{}, sink.push)
	scheduler.now = func() time.Time { return now }
	t.Cleanup(scheduler.Close)
	return scheduler, sink
}

func TestCountdownRendersImmediately(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	scheduler, sink := newTestScheduler(t, now)

	scheduler.Start(now.Unix()+100, false)

	texts := sink.all()
	require.NotEmpty(t, texts)
	require.Equal(t, "0h 1m 40s", texts[0])
}

func TestCountdownEndedAuction(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	scheduler, sink := newTestScheduler(t, now)

	scheduler.Start(now.Unix()+100, true)

	require.Equal(t, []string{"Encerrado"}, sink.all())
}

func TestCountdownExpiredDeadline(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	scheduler, sink := newTestScheduler(t, now)

	scheduler.Start(now.Unix()-5, false)

	require.Equal(t, []string{"Encerrando…"}, sink.all())

	scheduler.mu.Lock()
	entry := scheduler.entry
	scheduler.mu.Unlock()
	require.Zero(t, entry, "nothing scheduled past the deadline")
}

func TestCountdownStartReplacesPrevious(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	scheduler, sink := newTestScheduler(t, now)

	scheduler.Start(now.Unix()+30, false)
	scheduler.Start(now.Unix()+3700, false)

	texts := sink.all()
	require.GreaterOrEqual(t, len(texts), 2)
	require.Equal(t, "0h 0m 30s", texts[0])
	require.Equal(t, "1h 1m 40s", texts[len(texts)-1])
}

func TestCountdownStopIsIdempotent(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	scheduler, _ := newTestScheduler(t, now)

	scheduler.Start(now.Unix()+100, false)
	scheduler.Stop()
	scheduler.Stop()
}

func TestCountdownConcurrentStartsKeepSingleEntry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	scheduler, _ := newTestScheduler(t, now)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scheduler.Start(now.Unix()+100, false)
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, len(scheduler.cron.Entries()), 1)

	scheduler.Stop()
	require.Empty(t, scheduler.cron.Entries(), "no orphaned entries survive Stop")
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{1, "0h 0m 1s"},
		{59, "0h 0m 59s"},
		{100, "0h 1m 40s"},
		{3600, "1h 0m 0s"},
		{3661, "1h 1m 1s"},
		{90061, "25h 1m 1s"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, FormatRemaining(tt.seconds))
	}
}
