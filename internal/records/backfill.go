package records

// Backfill records are written insert-or-ignore: re-running a historical
// range never duplicates rows and never overwrites what a previous run
// stored. The one exception is ActivityAggregateDelta, whose merge adds
// into existing totals; the orchestrator guarantees each source workout
// contributes at most once per run by processing non-overlapping windows.

// GlucoseReading is one CGM sample keyed on its timestamp.
type GlucoseReading struct {
	Timestamp string
	Value     float64
	Trend     string
	Source    string
}

func (r GlucoseReading) Kind() Kind { return KindGlucoseReading }

func (r GlucoseReading) Validate() *ValidationError {
	return requireTimestamp("timestamp", r.Timestamp)
}

func (r GlucoseReading) Statement(updatedAt string) Statement {
	return Statement{
		Table:     "glucose_readings",
		Ignorable: true,
		SQL: `INSERT INTO glucose_readings (timestamp, value, trend, source, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(timestamp) DO NOTHING`,
		Args: []any{r.Timestamp, r.Value, r.Trend, r.Source, updatedAt},
	}
}

// InsulinDose is one bolus or basal dose keyed on (timestamp, dose type).
type InsulinDose struct {
	Timestamp       string
	DoseType        string // "bolus" or "basal"
	Units           float64
	SubType         string
	DurationSeconds float64
	Source          string
}

func (r InsulinDose) Kind() Kind { return KindInsulinDose }

func (r InsulinDose) Validate() *ValidationError {
	if r.DoseType != "bolus" && r.DoseType != "basal" {
		return fieldError("doseType", "must be bolus or basal")
	}
	return requireTimestamp("timestamp", r.Timestamp)
}

func (r InsulinDose) Statement(updatedAt string) Statement {
	return Statement{
		Table:     "insulin_doses",
		Ignorable: true,
		SQL: `INSERT INTO insulin_doses (
			timestamp, dose_type, units, sub_type, duration_seconds, source, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(timestamp, dose_type) DO NOTHING`,
		Args: []any{
			r.Timestamp, r.DoseType, r.Units, r.SubType,
			r.DurationSeconds, r.Source, updatedAt,
		},
	}
}

// RunningSession is one backfilled activity session keyed on start time.
type RunningSession struct {
	StartTime       string
	EndTime         string
	DistanceKm      float64
	DurationSeconds float64
	PaceMinPerKm    float64
	ActivityName    string
	Calories        float64
}

func (r RunningSession) Kind() Kind { return KindRunningSession }

func (r RunningSession) Validate() *ValidationError {
	return requireTimestamp("startTime", r.StartTime)
}

func (r RunningSession) Statement(updatedAt string) Statement {
	return Statement{
		Table:     "running_sessions",
		Ignorable: true,
		SQL: `INSERT INTO running_sessions (
			start_time, end_time, distance_km, duration_seconds,
			pace_min_per_km, activity_name, calories, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(start_time) DO NOTHING`,
		Args: []any{
			r.StartTime, r.EndTime, r.DistanceKm, r.DurationSeconds,
			r.PaceMinPerKm, r.ActivityName, r.Calories, updatedAt,
		},
	}
}

// ActivityAggregateDelta is one per-date additive contribution to the
// daily activity aggregate. On collision the store adds into existing
// totals rather than overwriting them.
type ActivityAggregateDelta struct {
	Date            string
	ActiveCalories  float64
	ExerciseMinutes float64
}

func (r ActivityAggregateDelta) Kind() Kind { return KindActivityAggregate }

func (r ActivityAggregateDelta) Validate() *ValidationError {
	return requireDate("date", r.Date)
}

func (r ActivityAggregateDelta) Statement(updatedAt string) Statement {
	return Statement{
		Table: "daily_activity_aggregate",
		SQL: `INSERT INTO daily_activity_aggregate (
			date, active_calories, exercise_minutes, updated_at
		) VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			active_calories = daily_activity_aggregate.active_calories + excluded.active_calories,
			exercise_minutes = daily_activity_aggregate.exercise_minutes + excluded.exercise_minutes,
			updated_at = excluded.updated_at`,
		Args: []any{r.Date, r.ActiveCalories, r.ExerciseMinutes, updatedAt},
	}
}
