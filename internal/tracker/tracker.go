package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rdesitter/gym-tracker/internal/config"
	"github.com/rdesitter/gym-tracker/internal/courses"
	"github.com/rdesitter/gym-tracker/internal/domain"
	"github.com/rdesitter/gym-tracker/internal/notifier"
	"github.com/rdesitter/gym-tracker/internal/source"
	"github.com/sourcegraph/conc/pool"
)

type CourseSource interface {
	Fetch(ctx context.Context) (source.Result, error)
}

// Store is the subset of the repository a run reads and writes.
type Store interface {
	PreviousCourseIDs(ctx context.Context) ([]string, error)
	SavePreviousCourseIDs(ctx context.Context, ids []string) error
	UserConfigs(ctx context.Context) ([]domain.UserConfig, error)
}

// Tracker runs the fetch, diff, persist and notify pipeline. At most one run executes at a time.
type Tracker struct {
	source        CourseSource
	store         Store
	sender        notifier.Sender
	logger        *slog.Logger
	fetchTimeout  time.Duration
	notifyTimeout time.Duration
	concurrency   int
	now           func() time.Time

	running sync.Mutex
}

func New(cfg *config.Config, src CourseSource, store Store, sender notifier.Sender, logger *slog.Logger) *Tracker {
	concurrency := cfg.Tracker.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Tracker{
		source:        src,
		store:         store,
		sender:        sender,
		logger:        logger,
		fetchTimeout:  time.Duration(cfg.Tracker.FetchTimeout) * time.Second,
		notifyTimeout: time.Duration(cfg.Tracker.NotifyTimeout) * time.Second,
		concurrency:   concurrency,
		now:           time.Now,
	}
}

// Run executes one pass. It fails only with domain.ErrRunInProgress or when ctx is cancelled;
// every other failure is absorbed into the summary.
func (t *Tracker) Run(ctx context.Context) (*domain.RunSummary, error) {
	if !t.running.TryLock() {
		return nil, domain.ErrRunInProgress
	}
	defer t.running.Unlock()

	r := &run{
		Tracker: t,
		ctx:     ctx,
		summary: &domain.RunSummary{
			RunID:         uuid.NewString(),
			Notifications: []domain.NotificationResult{},
			Timestamp:     t.now().UTC(),
		},
	}
	r.logger = t.logger.With(slog.String("run_id", r.summary.RunID))

	if err := r.execute(); err != nil {
		r.logger.Warn("run aborted", slog.String("error", err.Error()))
		return nil, err
	}

	r.logger.Info("run finished",
		slog.Int("total_courses", r.summary.TotalCourses),
		slog.Int("new_courses", r.summary.NewCourses),
		slog.Int("notifications_sent", r.summary.NotificationsSent),
		slog.Int("notifications_failed", r.summary.NotificationsFailed),
		slog.Any("degraded", r.summary.Degraded),
	)
	return r.summary, nil
}

type run struct {
	*Tracker
	ctx     context.Context
	logger  *slog.Logger
	summary *domain.RunSummary
}

func (r *run) execute() error {
	current, err := r.fetch()
	if err != nil {
		return err
	}
	r.summary.TotalCourses = len(current)
	if len(current) == 0 {
		r.logger.Info("no courses found")
		return nil
	}

	previousIDs, err := r.store.PreviousCourseIDs(r.ctx)
	if err := r.check(StepLoadSnapshot, err); err != nil {
		return err
	}

	newCourses, next := courses.Diff(current, domain.Snapshot{CourseIDs: previousIDs})
	r.summary.NewCourses = len(newCourses)

	err = r.store.SavePreviousCourseIDs(r.ctx, next.CourseIDs)
	if err := r.check(StepSaveSnapshot, err); err != nil {
		return err
	}

	if len(newCourses) == 0 {
		return nil
	}

	configs, err := r.store.UserConfigs(r.ctx)
	if err := r.check(StepLoadSubscribers, err); err != nil {
		return err
	}

	return r.notifyAll(newCourses, configs)
}

func (r *run) fetch() ([]domain.Course, error) {
	ctx := r.ctx
	if r.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.fetchTimeout)
		defer cancel()
	}

	result, err := r.source.Fetch(ctx)
	if err != nil {
		return nil, r.check(StepFetch, err)
	}

	r.summary.Source = string(result.Origin)
	return result.Courses, nil
}

// check applies the policy to a step error. It returns nil unless the run must abort.
func (r *run) check(step Step, err error) error {
	if err == nil {
		return nil
	}

	switch Decide(r.ctx, step, err) {
	case Abort:
		return fmt.Errorf("%s: %w", step, r.ctx.Err())
	case Degrade:
		r.logger.Warn("step degraded", slog.String("step", string(step)), slog.String("error", err.Error()))
		r.summary.Degraded = append(r.summary.Degraded, string(step))
	}
	return nil
}

type indexedResult struct {
	index  int
	result domain.NotificationResult
}

func (r *run) notifyAll(newCourses []domain.Course, configs []domain.UserConfig) error {
	ctx := r.ctx
	if r.notifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.notifyTimeout)
		defer cancel()
	}

	p := pool.NewWithResults[*indexedResult]().WithMaxGoroutines(r.concurrency)
	for i := range configs {
		cfg := &configs[i]
		if !cfg.Notifiable() {
			continue
		}

		index := i
		p.Go(func() *indexedResult {
			matched := courses.FilterMatchingCourses(newCourses, cfg)
			if len(matched) == 0 {
				return nil
			}
			return &indexedResult{index: index, result: r.notify(ctx, cfg.Email, matched)}
		})
	}

	var results []*indexedResult
	for _, res := range p.Wait() {
		if res != nil {
			results = append(results, res)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })

	if r.ctx.Err() != nil {
		return fmt.Errorf("%s: %w", StepNotify, r.ctx.Err())
	}

	degraded := false
	for _, res := range results {
		r.summary.Notifications = append(r.summary.Notifications, res.result)
		if res.result.Sent() {
			r.summary.NotificationsSent++
		} else {
			r.summary.NotificationsFailed++
			degraded = true
		}
	}
	if degraded {
		r.summary.Degraded = append(r.summary.Degraded, string(StepNotify))
	}
	return nil
}

func (r *run) notify(ctx context.Context, email string, matched []domain.Course) domain.NotificationResult {
	result := domain.NotificationResult{Email: email, CoursesCount: len(matched)}

	err := r.sender.Send(ctx, domain.MailMessage{
		Type: domain.MailTypeNewCourses,
		To:   email,
		Data: domain.NewCoursesMailData{Courses: matched},
	})
	if err != nil {
		r.logger.Error("failed to notify subscriber", slog.String("to", email), slog.String("error", err.Error()))
		result.Error = err.Error()
		return result
	}

	r.logger.Info("subscriber notified", slog.String("to", email), slog.Int("courses", len(matched)))
	return result
}
