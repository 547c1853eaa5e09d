// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/ericfisherdev/heartsync/internal/domain/model"
	"github.com/ericfisherdev/heartsync/internal/domain/port/driven"
	"github.com/ericfisherdev/heartsync/internal/metrics"
)

// ErrServiceStopped is returned by Trigger once the loop has shut down.
var ErrServiceStopped = fmt.Errorf("sync service stopped: %w", context.Canceled)

// triggerRequest represents a manual sync trigger.
type triggerRequest struct {
	done chan triggerResult
}

type triggerResult struct {
	result model.SyncResult
	err    error
}

// Status is a point-in-time view of the sync service for the status API.
type Status struct {
	Last          *model.CycleStatus
	Schedule      ScheduleInfo
	SessionCached bool
}

// SyncService drives heart-rate synchronization: one cycle immediately, then
// one per schedule slot, plus manual triggers. Cycles never overlap.
type SyncService struct {
	auth     driven.Authenticator
	client   driven.MetricsClient
	store    driven.SampleStore
	session  driven.SessionCache
	schedule cron.Schedule
	now      func() time.Time

	triggerCh chan triggerRequest
	stopped   chan struct{} // Closed when Start returns.
	cycleMu   sync.Mutex // Held for the duration of a cycle.

	statusMu sync.RWMutex
	last     *model.CycleStatus
	sched    ScheduleInfo
}

// SyncServiceOption customizes a SyncService.
type SyncServiceOption func(*SyncService)

// WithClock overrides the wall clock used for windows and status timestamps.
func WithClock(now func() time.Time) SyncServiceOption {
	return func(s *SyncService) {
		s.now = now
	}
}

// NewSyncService creates a new SyncService with all required dependencies.
func NewSyncService(
	auth driven.Authenticator,
	client driven.MetricsClient,
	store driven.SampleStore,
	session driven.SessionCache,
	schedule cron.Schedule,
	opts ...SyncServiceOption,
) *SyncService {
	s := &SyncService{
		auth:      auth,
		client:    client,
		store:     store,
		session:   session,
		schedule:  schedule,
		now:       time.Now,
		triggerCh: make(chan triggerRequest),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs a cycle immediately, then one per schedule slot, and serves
// manual triggers. The next slot is computed after each scheduled cycle
// finishes, so slots that pass during a long cycle are skipped rather than
// queued. Cycle failures are logged and never stop the loop.
//
// Start blocks until ctx is canceled. Canceling ctx does not abort a cycle
// already in progress; Start returns once that cycle has finished. No cycle
// starts after cancellation, and pending triggers receive the context error.
func (s *SyncService) Start(ctx context.Context) {
	defer close(s.stopped)

	s.runLogged(ctx, "startup")

	timer := time.NewTimer(s.untilNextRun())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sync service stopped")
			return
		case <-timer.C:
			if ctx.Err() != nil {
				slog.Info("sync service stopped")
				return
			}
			s.runLogged(ctx, "scheduled")
			timer.Reset(s.untilNextRun())
		case req := <-s.triggerCh:
			if err := ctx.Err(); err != nil {
				req.done <- triggerResult{err: fmt.Errorf("%w: %w", ErrServiceStopped, err)}
				slog.Info("sync service stopped")
				return
			}
			result, err := s.runLogged(ctx, "manual")
			req.done <- triggerResult{result: result, err: err}
		}
	}
}

// Trigger requests an immediate cycle from the running loop and waits for its
// outcome. It blocks until the cycle completes or ctx is canceled, and fails
// with ErrServiceStopped once the loop has shut down.
func (s *SyncService) Trigger(ctx context.Context) (model.SyncResult, error) {
	done := make(chan triggerResult, 1)
	req := triggerRequest{done: done}

	select {
	case s.triggerCh <- req:
	case <-s.stopped:
		return model.SyncResult{}, ErrServiceStopped
	case <-ctx.Done():
		return model.SyncResult{}, ctx.Err()
	}

	select {
	case res := <-done:
		return res.result, res.err
	case <-ctx.Done():
		return model.SyncResult{}, ctx.Err()
	}
}

// Status returns the outcome of the most recent cycle and the schedule.
func (s *SyncService) Status() Status {
	_, cached := s.session.Get()

	s.statusMu.RLock()
	defer s.statusMu.RUnlock()

	var last *model.CycleStatus
	if s.last != nil {
		cp := *s.last
		last = &cp
	}
	return Status{Last: last, Schedule: s.sched, SessionCached: cached}
}

// RunCycle executes exactly one synchronization cycle and returns its result or
// the single error that terminated it. The returned result always carries the
// cycle id. Concurrent callers are serialized.
func (s *SyncService) RunCycle(ctx context.Context) (model.SyncResult, error) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	started := s.now()
	result := model.SyncResult{CycleID: uuid.NewString(), StartedAt: started}

	err := s.sync(ctx, &result)

	finished := s.now()
	result.Duration = finished.Sub(started)
	s.record(result, err, finished)

	return result, err
}

// sync is the cycle algorithm: credential, window, fetch with a single
// re-login on auth expiry, persist.
func (s *SyncService) sync(ctx context.Context, result *model.SyncResult) error {
	cred, err := s.credential(ctx)
	if err != nil {
		return err
	}

	watermark, ok, err := s.store.HighWaterMark(ctx)
	if err != nil {
		return fmt.Errorf("read high-water mark: %w: %w", driven.ErrStorage, err)
	}
	window := model.NewSyncWindow(watermark, ok, result.StartedAt)
	result.Window = window

	slog.Info("fetching heart rate",
		"cycle_id", result.CycleID,
		"start", window.Start.UTC().Format(time.RFC3339Nano),
		"end", window.End.UTC().Format(time.RFC3339Nano),
	)

	samples, err := s.client.FetchHeartRate(ctx, cred, window)
	if errors.Is(err, driven.ErrAuthExpired) {
		slog.Info("token rejected, re-authenticating", "cycle_id", result.CycleID)
		s.session.Clear()

		cred, err = s.login(ctx)
		if err != nil {
			return err
		}
		result.Relogins++

		samples, err = s.client.FetchHeartRate(ctx, cred, window)
	}
	if err != nil {
		return fmt.Errorf("fetch heart rate: %w", err)
	}

	result.UserID = cred.UserID
	result.Fetched = len(samples)

	if len(samples) == 0 {
		slog.Info("no new samples", "cycle_id", result.CycleID)
		return nil
	}

	inserted, err := s.store.InsertSamples(ctx, samples, cred.UserID)
	if err != nil {
		return fmt.Errorf("insert samples: %w: %w", driven.ErrStorage, err)
	}
	result.Inserted = inserted

	return nil
}

// credential returns the cached credential or performs a login.
func (s *SyncService) credential(ctx context.Context) (model.Credential, error) {
	if cred, ok := s.session.Get(); ok {
		return cred, nil
	}
	return s.login(ctx)
}

// login performs the interactive login, extracts the credential and caches it.
func (s *SyncService) login(ctx context.Context) (model.Credential, error) {
	slog.Info("logging in")

	cookies, err := s.auth.Login(ctx)
	if err != nil {
		metrics.RecordLogin(err)
		if !errors.Is(err, driven.ErrLoginFailed) {
			err = fmt.Errorf("%w: %w", driven.ErrLoginFailed, err)
		}
		return model.Credential{}, err
	}

	cred, err := ExtractCredential(cookies)
	metrics.RecordLogin(err)
	if err != nil {
		return model.Credential{}, err
	}

	s.session.Set(cred)

	slog.Info("authenticated",
		"user_id", cred.UserID,
		"expires_at", cred.ExpiresAt.UTC().Format(time.RFC3339),
	)

	return cred, nil
}

// runLogged runs a cycle detached from ctx cancellation and logs its outcome.
func (s *SyncService) runLogged(ctx context.Context, trigger string) (model.SyncResult, error) {
	result, err := s.RunCycle(context.WithoutCancel(ctx))
	if err != nil {
		slog.Error("sync cycle failed",
			"cycle_id", result.CycleID,
			"trigger", trigger,
			"kind", ErrorKind(err),
			"error", err,
		)
		return result, err
	}

	slog.Info("sync cycle complete",
		"cycle_id", result.CycleID,
		"trigger", trigger,
		"user_id", result.UserID,
		"fetched", result.Fetched,
		"inserted", result.Inserted,
		"duration", result.Duration.Round(time.Millisecond),
	)
	return result, nil
}

// untilNextRun computes the next schedule slot from now and returns the wait.
func (s *SyncService) untilNextRun() time.Duration {
	now := s.now()
	next := s.schedule.Next(now)

	s.statusMu.Lock()
	s.sched.NextRunAt = next
	s.statusMu.Unlock()

	return max(next.Sub(now), 0)
}

// record stores the cycle outcome for Status and updates metrics.
func (s *SyncService) record(result model.SyncResult, err error, finished time.Time) {
	status := &model.CycleStatus{
		CycleID:    result.CycleID,
		StartedAt:  result.StartedAt,
		FinishedAt: finished,
	}

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = ErrorKind(err)
		status.ErrorKind = outcome
		status.Error = err.Error()
	} else {
		r := result
		status.Result = &r
	}

	metrics.RecordCycle(outcome, result.Duration, result.Fetched, result.Inserted, finished)

	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.last = status
	s.sched.LastRunAt = result.StartedAt
}
