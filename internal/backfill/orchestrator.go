// Package backfill drives long-range historical ingestion from Diacloud
// into the relational store: windowing, per-window fetch/normalize/write,
// pacing, and dry-run measurement.
package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"healthboard-sync/internal/config"
	"healthboard-sync/internal/diacloud"
	"healthboard-sync/internal/metrics"
	"healthboard-sync/internal/records"
	"healthboard-sync/internal/units"
)

const (
	// DefaultGlucoseChunkDays bounds one glucose/insulin window
	DefaultGlucoseChunkDays = 5
	// DefaultActivityChunkDays bounds one activity window
	DefaultActivityChunkDays = 30
	// InterWindowDelay respects the platform's implicit rate limit
	InterWindowDelay = 500 * time.Millisecond

	// sourceTag marks rows ingested by this pull path
	sourceTag = "diacloud"
)

// Executor submits a statement list to the store in atomic batches
type Executor interface {
	ExecBatch(ctx context.Context, stmts []records.Statement) (int, error)
}

// Source is the Diacloud read surface the orchestrator drives
type Source interface {
	Login(ctx context.Context, email, password string) (*diacloud.Session, error)
	FetchGlucose(ctx context.Context, session *diacloud.Session, start, end time.Time) ([]diacloud.GlucoseRecord, error)
	FetchInsulin(ctx context.Context, session *diacloud.Session, start, end time.Time) ([]diacloud.DoseRecord, error)
	FetchActivities(ctx context.Context, session *diacloud.Session, start, end time.Time) ([]diacloud.ActivityRecord, error)
}

// Pacer sleeps between windows. It is an interface so tests can run
// without real wall-clock delay.
type Pacer interface {
	Pause(ctx context.Context) error
}

type sleepPacer struct{ delay time.Duration }

func (p sleepPacer) Pause(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.delay):
		return nil
	}
}

// Window is one bounded slice of historical time expressed as days-ago
// bounds, FromDays > ToDays.
type Window struct {
	FromDays int
	ToDays   int
}

// Range converts the days-ago bounds into a concrete [start, end) window
// relative to now.
func (w Window) Range(now time.Time) (time.Time, time.Time) {
	return now.AddDate(0, 0, -w.FromDays), now.AddDate(0, 0, -w.ToDays)
}

// Windows partitions [toDays, fromDays) into contiguous, non-overlapping
// chunks of at most chunkDays, furthest-in-the-past first.
func Windows(fromDays, toDays, chunkDays int) []Window {
	if fromDays <= toDays || chunkDays <= 0 {
		return nil
	}
	var out []Window
	for from := fromDays; from > toDays; {
		to := from - chunkDays
		if to < toDays {
			to = toDays
		}
		out = append(out, Window{FromDays: from, ToDays: to})
		from = to
	}
	return out
}

// Legacy gap windows used when no explicit range is given. These cover
// known holes from before the push path existed.
var (
	legacyGlucoseRanges  = []Window{{FromDays: 395, ToDays: 365}, {FromDays: 300, ToDays: 270}}
	legacyActivityRanges = []Window{{FromDays: 540, ToDays: 365}}
)

// Options configures one backfill invocation
type Options struct {
	// FromDays/ToDays are days-ago bounds with FromDays > ToDays. Zero
	// values select the legacy gap windows instead.
	FromDays int
	ToDays   int

	GlucoseChunkDays  int
	ActivityChunkDays int

	DryRun       bool
	SkipGlucose  bool
	SkipInsulin  bool
	SkipActivity bool
}

// StreamStats counts one metric stream's work within a run
type StreamStats struct {
	Windows    int
	Records    int
	Statements int
}

// RunStats summarizes one completed run
type RunStats struct {
	RunID    string
	DryRun   bool
	Glucose  StreamStats
	Insulin  StreamStats
	Activity StreamStats
}

// Orchestrator drives one historical backfill run: windows and metric
// streams strictly sequentially, with every batch flushed before the next
// window starts.
type Orchestrator struct {
	executor Executor
	source   Source
	creds    *config.Credentials
	opts     Options
	pacer    Pacer
	logger   *slog.Logger
	now      func() time.Time
}

// NewOrchestrator creates a backfill orchestrator. Credentials are passed
// in explicitly; nothing below this constructor reads ambient state.
func NewOrchestrator(executor Executor, source Source, creds *config.Credentials, opts Options) *Orchestrator {
	if opts.GlucoseChunkDays <= 0 {
		opts.GlucoseChunkDays = DefaultGlucoseChunkDays
	}
	if opts.ActivityChunkDays <= 0 {
		opts.ActivityChunkDays = DefaultActivityChunkDays
	}
	return &Orchestrator{
		executor: executor,
		source:   source,
		creds:    creds,
		opts:     opts,
		pacer:    sleepPacer{delay: InterWindowDelay},
		logger:   slog.Default(),
		now:      time.Now,
	}
}

// WithPacer replaces the inter-window pacer
func (o *Orchestrator) WithPacer(p Pacer) *Orchestrator {
	o.pacer = p
	return o
}

// WithClock replaces the time source
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Run executes the full backfill. It authenticates once, then processes
// every enabled stream window by window. The first fetch or batch failure
// aborts the run; committed windows stay durable and rerunning the same
// range is safe because every write is keyed.
func (o *Orchestrator) Run(ctx context.Context) (*RunStats, error) {
	start := o.now()
	stats := &RunStats{RunID: uuid.NewString(), DryRun: o.opts.DryRun}
	logger := o.logger.With("run_id", stats.RunID, "dry_run", o.opts.DryRun)

	session, err := o.source.Login(ctx, o.creds.Email, o.creds.Password)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	logger.Info("Authenticated with Diacloud", "account_id", session.AccountID)

	if !o.opts.SkipGlucose {
		if err := o.runStream(ctx, logger, metrics.StreamGlucose, o.glucoseWindows(), &stats.Glucose,
			func(ctx context.Context, start, end time.Time) ([]records.Statement, int, error) {
				return o.fetchGlucose(ctx, session, start, end)
			}); err != nil {
			return stats, err
		}
	}

	if !o.opts.SkipInsulin {
		if err := o.runStream(ctx, logger, metrics.StreamInsulin, o.glucoseWindows(), &stats.Insulin,
			func(ctx context.Context, start, end time.Time) ([]records.Statement, int, error) {
				return o.fetchInsulin(ctx, session, start, end)
			}); err != nil {
			return stats, err
		}
	}

	if !o.opts.SkipActivity {
		if err := o.runStream(ctx, logger, metrics.StreamActivity, o.activityWindows(), &stats.Activity,
			func(ctx context.Context, start, end time.Time) ([]records.Statement, int, error) {
				return o.fetchActivities(ctx, session, start, end)
			}); err != nil {
			return stats, err
		}
	}

	metrics.BackfillRunDuration.Observe(o.now().Sub(start).Seconds())
	logger.Info("Backfill run complete",
		"glucose_records", stats.Glucose.Records,
		"insulin_records", stats.Insulin.Records,
		"activity_records", stats.Activity.Records,
		"duration", o.now().Sub(start).String())

	return stats, nil
}

type windowFetch func(ctx context.Context, start, end time.Time) ([]records.Statement, int, error)

// runStream processes one metric stream's windows in order, flushing each
// window's statements before advancing. Windows run furthest-in-the-past
// first for predictable operator-visible progress.
func (o *Orchestrator) runStream(ctx context.Context, logger *slog.Logger, stream string, windows []Window, stats *StreamStats, fetch windowFetch) error {
	now := o.now()

	for i, w := range windows {
		if err := ctx.Err(); err != nil {
			return err
		}

		start, end := w.Range(now)
		stmts, fetched, err := fetch(ctx, start, end)
		if err != nil {
			metrics.BackfillWindowsTotal.WithLabelValues(stream, metrics.ResultFailure).Inc()
			return fmt.Errorf("%s window [%d,%d] failed: %w", stream, w.FromDays, w.ToDays, err)
		}

		stats.Windows++
		stats.Records += fetched
		stats.Statements += len(stmts)
		metrics.BackfillRecordsTotal.WithLabelValues(stream).Add(float64(fetched))

		if o.opts.DryRun {
			logger.Info("Dry run: skipping batch execution",
				"stream", stream,
				"window_from_days", w.FromDays,
				"window_to_days", w.ToDays,
				"statements", len(stmts),
				"bytes", measure(stmts))
		} else if len(stmts) > 0 {
			committed, err := o.executor.ExecBatch(ctx, stmts)
			if err != nil {
				metrics.BackfillWindowsTotal.WithLabelValues(stream, metrics.ResultFailure).Inc()
				return fmt.Errorf("%s window [%d,%d] batch failed after %d committed batches: %w",
					stream, w.FromDays, w.ToDays, committed, err)
			}
		}

		metrics.BackfillWindowsTotal.WithLabelValues(stream, metrics.ResultSuccess).Inc()
		logger.Info("Window processed",
			"stream", stream,
			"window_from_days", w.FromDays,
			"window_to_days", w.ToDays,
			"records", fetched,
			"statements", len(stmts))

		// Pace before the next window, not after the last one
		if i < len(windows)-1 {
			if err := o.pacer.Pause(ctx); err != nil {
				return err
			}
		}
	}

	return nil
}

func (o *Orchestrator) glucoseWindows() []Window {
	if o.opts.FromDays > 0 || o.opts.ToDays > 0 {
		return Windows(o.opts.FromDays, o.opts.ToDays, o.opts.GlucoseChunkDays)
	}
	var out []Window
	for _, r := range legacyGlucoseRanges {
		out = append(out, Windows(r.FromDays, r.ToDays, o.opts.GlucoseChunkDays)...)
	}
	return out
}

func (o *Orchestrator) activityWindows() []Window {
	if o.opts.FromDays > 0 || o.opts.ToDays > 0 {
		return Windows(o.opts.FromDays, o.opts.ToDays, o.opts.ActivityChunkDays)
	}
	var out []Window
	for _, r := range legacyActivityRanges {
		out = append(out, Windows(r.FromDays, r.ToDays, o.opts.ActivityChunkDays)...)
	}
	return out
}

func (o *Orchestrator) fetchGlucose(ctx context.Context, session *diacloud.Session, start, end time.Time) ([]records.Statement, int, error) {
	readings, err := o.source.FetchGlucose(ctx, session, start, end)
	if err != nil {
		return nil, 0, err
	}

	createdAt := o.now().UTC().Format(time.RFC3339)
	stmts := make([]records.Statement, 0, len(readings))
	for _, r := range readings {
		rec := records.GlucoseReading{
			Timestamp: r.Timestamp,
			Value:     r.Value,
			Trend:     r.Trend,
			Source:    sourceTag,
		}
		stmts = append(stmts, rec.Statement(createdAt))
	}
	return stmts, len(readings), nil
}

func (o *Orchestrator) fetchInsulin(ctx context.Context, session *diacloud.Session, start, end time.Time) ([]records.Statement, int, error) {
	doses, err := o.source.FetchInsulin(ctx, session, start, end)
	if err != nil {
		return nil, 0, err
	}

	createdAt := o.now().UTC().Format(time.RFC3339)
	stmts := make([]records.Statement, 0, len(doses))
	for _, d := range doses {
		rec := records.InsulinDose{
			Timestamp:       d.Timestamp,
			DoseType:        d.DoseType,
			Units:           d.Units,
			SubType:         d.SubType,
			DurationSeconds: units.DurationSeconds(d.Duration, d.DurationUnit),
			Source:          sourceTag,
		}
		stmts = append(stmts, rec.Statement(createdAt))
	}
	return stmts, len(doses), nil
}

// fetchActivities converts raw sessions into normalized session rows plus
// one additive aggregate delta per calendar date. Both go into the same
// window batch list; the additive merge is safe because windows within a
// run never overlap, so each source workout contributes at most once.
func (o *Orchestrator) fetchActivities(ctx context.Context, session *diacloud.Session, start, end time.Time) ([]records.Statement, int, error) {
	activities, err := o.source.FetchActivities(ctx, session, start, end)
	if err != nil {
		return nil, 0, err
	}

	createdAt := o.now().UTC().Format(time.RFC3339)
	sessions := make([]records.RunningSession, 0, len(activities))
	for _, a := range activities {
		distanceKm := units.DistanceKm(a.Distance, a.DistanceUnit)
		durationSec := units.DurationSeconds(a.Duration, a.DurationUnit)

		pace := 0.0
		if distanceKm > 0 {
			pace = (durationSec / 60) / distanceKm
		}

		sessions = append(sessions, records.RunningSession{
			StartTime:       a.StartTime,
			EndTime:         a.EndTime,
			DistanceKm:      distanceKm,
			DurationSeconds: durationSec,
			PaceMinPerKm:    pace,
			ActivityName:    units.ActivityType(a.Name),
			Calories:        a.Calories,
		})
	}

	stmts := make([]records.Statement, 0, len(sessions)*2)
	for _, s := range sessions {
		stmts = append(stmts, s.Statement(createdAt))
	}
	for _, delta := range AggregateByDate(sessions) {
		stmts = append(stmts, delta.Statement(createdAt))
	}

	return stmts, len(activities), nil
}

// AggregateByDate groups normalized sessions by the date portion of their
// start timestamp and returns one accumulated delta per date. The result
// is built once and consumed once; nothing already queued is revisited.
func AggregateByDate(sessions []records.RunningSession) []records.ActivityAggregateDelta {
	byDate := make(map[string]records.ActivityAggregateDelta)
	var order []string

	for _, s := range sessions {
		if len(s.StartTime) < 10 {
			continue
		}
		date := s.StartTime[:10]
		delta, seen := byDate[date]
		if !seen {
			delta.Date = date
			order = append(order, date)
		}
		delta.ActiveCalories += s.Calories
		delta.ExerciseMinutes += s.DurationSeconds / 60
		byDate[date] = delta
	}

	out := make([]records.ActivityAggregateDelta, 0, len(order))
	for _, date := range order {
		out = append(out, byDate[date])
	}
	return out
}

// measure estimates one statement list's wire size for dry-run reporting
func measure(stmts []records.Statement) int {
	total := 0
	for _, s := range stmts {
		total += len(s.SQL)
		for _, arg := range s.Args {
			total += len(fmt.Sprint(arg))
		}
	}
	return total
}
