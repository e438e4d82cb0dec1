// Package scheduler runs named jobs on cron schedules. robfig/cron is only
// the timer; the job registry, overlap policy and failure accounting live
// here.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"io.winapps.pushrelay/internal/apperr"
	"io.winapps.pushrelay/internal/metrics"
)

// Action is the work of one job fire.
type Action func(ctx context.Context) error

// JobStatus is a snapshot of one registered job.
type JobStatus struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	Running   bool       `json:"running"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	Runs      int64      `json:"runs"`
	Failures  int64      `json:"failures"`
	Skipped   int64      `json:"skipped"`
	LastError string     `json:"last_error,omitempty"`
}

type job struct {
	name     string
	spec     string
	schedule cron.Schedule
	action   Action
	entryID  cron.EntryID

	running  atomic.Bool
	runs     atomic.Int64
	failures atomic.Int64
	skipped  atomic.Int64

	mu        sync.Mutex
	lastRun   time.Time
	lastError string
}

type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	jobs    map[string]*job
	started bool

	location *time.Location
	timeout  time.Duration
	logger   *zap.SugaredLogger
	metrics  *metrics.Metrics
}

type Option func(*Scheduler)

// WithLocation sets the time zone cron expressions are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithJobTimeout bounds each fire. Zero disables the bound.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.timeout = d
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		jobs:     make(map[string]*job),
		location: time.UTC,
		timeout:  5 * time.Minute,
		logger:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cron = cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(cronLogger{s.logger}),
	)
	return s
}

// Register adds a job under a unique name. spec is a standard five-field
// cron expression or a descriptor such as @hourly. A job registered while the
// scheduler is running is scheduled immediately.
func (s *Scheduler) Register(name, spec string, action Action) error {
	if name == "" || action == nil {
		return apperr.New(apperr.CodeInvalidArgument, "job name and action are required")
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return apperr.Wrap(apperr.CodeInvalidArgument, fmt.Sprintf("invalid schedule %q for job %s", spec, name), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return apperr.New(apperr.CodeConflict, "job already registered: "+name)
	}
	j := &job{name: name, spec: spec, schedule: schedule, action: action}
	s.jobs[name] = j
	if s.started {
		s.schedule(j)
	}
	return nil
}

// Start schedules every registered job. Calling Start twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	for _, j := range s.jobs {
		s.schedule(j)
	}
	s.cron.Start()
	s.started = true
	s.logger.Infow("Scheduler started", "jobs", len(s.jobs), "location", s.location.String())
}

// Stop unschedules every job. The returned context is done once fires that
// were already running have finished; they are not cancelled.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	for _, j := range s.jobs {
		s.cron.Remove(j.entryID)
		j.entryID = 0
	}
	s.started = false
	s.logger.Infow("Scheduler stopped")
	return s.cron.Stop()
}

// Jobs returns the status of every registered job, sorted by name.
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		st := JobStatus{
			Name:     j.name,
			Schedule: j.spec,
			Running:  j.running.Load(),
			Runs:     j.runs.Load(),
			Failures: j.failures.Load(),
			Skipped:  j.skipped.Load(),
		}
		if j.entryID != 0 {
			if next := s.cron.Entry(j.entryID).Next; !next.IsZero() {
				st.NextRun = &next
			}
		}
		j.mu.Lock()
		if !j.lastRun.IsZero() {
			last := j.lastRun
			st.LastRun = &last
		}
		st.LastError = j.lastError
		j.mu.Unlock()
		out = append(out, st)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// schedule must be called with s.mu held.
func (s *Scheduler) schedule(j *job) {
	j.entryID = s.cron.Schedule(j.schedule, cron.FuncJob(func() { s.fire(j) }))
}

// fire runs one invocation of j. A fire that arrives while the previous one
// is still running is skipped.
func (s *Scheduler) fire(j *job) {
	if !j.running.CompareAndSwap(false, true) {
		j.skipped.Add(1)
		s.metrics.ObserveJob(j.name, metrics.OutcomeSkipped)
		s.logger.Warnw("Skipping job fire, previous run still in progress", "job", j.name)
		return
	}
	defer j.running.Store(false)

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := invoke(ctx, j.action)
	elapsed := time.Since(start)

	j.runs.Add(1)
	j.mu.Lock()
	j.lastRun = start
	if err != nil {
		j.lastError = err.Error()
	} else {
		j.lastError = ""
	}
	j.mu.Unlock()

	if err != nil {
		j.failures.Add(1)
		s.metrics.ObserveJob(j.name, metrics.OutcomeFailure)
		s.logger.Errorw("Scheduled job failed", "job", j.name, "duration", elapsed, "error", err)
		return
	}
	s.metrics.ObserveJob(j.name, metrics.OutcomeSuccess)
	s.logger.Infow("Scheduled job completed", "job", j.name, "duration", elapsed)
}

// invoke converts a panic in action into an error.
func invoke(ctx context.Context, action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return action(ctx)
}

// cronLogger routes robfig/cron's internal logging to zap.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
