// Package records defines the typed metric record kinds the ingestion
// engine accepts, their natural keys, validation rules, and the idempotent
// write statements built from them.
package records

import (
	"time"

	"healthboard-sync/internal/units"
)

// Kind identifies one metric record kind. The set is closed; every kind
// maps to exactly one table and one natural key.
type Kind string

const (
	KindDailyActivity   Kind = "dailyActivity"
	KindWorkout         Kind = "workouts"
	KindHeartRateDaily  Kind = "heartRateDaily"
	KindVital           Kind = "vitals"
	KindSleepSession    Kind = "sleepSessions"
	KindBodyMeasurement Kind = "bodyMeasurements"

	KindGlucoseReading    Kind = "glucoseReadings"
	KindInsulinDose       Kind = "insulinDoses"
	KindRunningSession    Kind = "runningSessions"
	KindActivityAggregate Kind = "dailyActivityAggregate"
)

// RestingHRCeiling is the physiological ceiling for resting heart rate.
// Incoming values above it are stored as NULL; the source is known to
// occasionally report walking HR in the resting field.
const RestingHRCeiling = 80

// Statement is a single idempotent write against one table. Ignorable
// marks insert-or-ignore statements whose natural-key collisions mean
// "already ingested" and must be swallowed by the batch executor.
type Statement struct {
	Table     string
	SQL       string
	Args      []any
	Ignorable bool
}

// Record is one typed metric record. Validate reports the first offending
// field relative to the record itself; Statement builds the record's
// insert-or-merge write stamped with the given updated-at marker.
type Record interface {
	Kind() Kind
	Validate() *ValidationError
	Statement(updatedAt string) Statement
}

// DailyActivity is a per-date activity summary merged on date.
type DailyActivity struct {
	Date            string  `json:"date"`
	Steps           int64   `json:"steps"`
	ActiveCalories  float64 `json:"activeCalories"`
	BasalCalories   float64 `json:"basalCalories"`
	ExerciseMinutes float64 `json:"exerciseMinutes"`
	StandHours      float64 `json:"standHours"`
	WalkDistance    float64 `json:"walkDistance"`
	CycleDistance   float64 `json:"cycleDistance"`
	DistanceUnit    string  `json:"distanceUnit,omitempty"`
}

func (r DailyActivity) Kind() Kind { return KindDailyActivity }

func (r DailyActivity) Validate() *ValidationError {
	if err := requireDate("date", r.Date); err != nil {
		return err
	}
	if r.Steps < 0 {
		return fieldError("steps", "must not be negative")
	}
	return nil
}

func (r DailyActivity) Statement(updatedAt string) Statement {
	return Statement{
		Table: "daily_activity",
		SQL: `INSERT INTO daily_activity (
			date, steps, active_calories, basal_calories,
			exercise_minutes, stand_hours, walk_distance_km, cycle_distance_km,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			steps = excluded.steps,
			active_calories = excluded.active_calories,
			basal_calories = excluded.basal_calories,
			exercise_minutes = excluded.exercise_minutes,
			stand_hours = excluded.stand_hours,
			walk_distance_km = excluded.walk_distance_km,
			cycle_distance_km = excluded.cycle_distance_km,
			updated_at = excluded.updated_at`,
		Args: []any{
			r.Date, r.Steps, r.ActiveCalories, r.BasalCalories,
			r.ExerciseMinutes, r.StandHours,
			units.DistanceKm(r.WalkDistance, r.DistanceUnit),
			units.DistanceKm(r.CycleDistance, r.DistanceUnit),
			updatedAt,
		},
	}
}

// Workout is a single workout session merged on (workout type, start time).
type Workout struct {
	WorkoutType  string  `json:"workoutType"`
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
	Duration     float64 `json:"duration"`
	DurationUnit string  `json:"durationUnit,omitempty"`
	Distance     float64 `json:"distance"`
	DistanceUnit string  `json:"distanceUnit,omitempty"`
	Calories     float64 `json:"calories"`
	AvgHeartRate float64 `json:"avgHeartRate"`
	MaxHeartRate float64 `json:"maxHeartRate"`
}

func (r Workout) Kind() Kind { return KindWorkout }

func (r Workout) Validate() *ValidationError {
	if r.WorkoutType == "" {
		return fieldError("workoutType", "is required")
	}
	if err := requireTimestamp("startTime", r.StartTime); err != nil {
		return err
	}
	if r.EndTime != "" {
		if err := requireTimestamp("endTime", r.EndTime); err != nil {
			return err
		}
	}
	return nil
}

func (r Workout) Statement(updatedAt string) Statement {
	return Statement{
		Table: "workouts",
		SQL: `INSERT INTO workouts (
			workout_type, start_time, end_time, duration_seconds,
			distance_km, calories, avg_heart_rate, max_heart_rate, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(workout_type, start_time) DO UPDATE SET
			end_time = excluded.end_time,
			duration_seconds = excluded.duration_seconds,
			distance_km = excluded.distance_km,
			calories = excluded.calories,
			avg_heart_rate = excluded.avg_heart_rate,
			max_heart_rate = excluded.max_heart_rate,
			updated_at = excluded.updated_at`,
		Args: []any{
			r.WorkoutType, r.StartTime, r.EndTime,
			units.DurationSeconds(r.Duration, r.DurationUnit),
			units.DistanceKm(r.Distance, r.DistanceUnit),
			r.Calories, r.AvgHeartRate, r.MaxHeartRate, updatedAt,
		},
	}
}

// HeartRateDaily is a per-date heart rate summary merged on date.
type HeartRateDaily struct {
	Date         string   `json:"date"`
	RestingHR    *float64 `json:"restingHR,omitempty"`
	WalkingHRAvg *float64 `json:"walkingHRAvg,omitempty"`
	HRV          *float64 `json:"hrv,omitempty"`
}

func (r HeartRateDaily) Kind() Kind { return KindHeartRateDaily }

func (r HeartRateDaily) Validate() *ValidationError {
	return requireDate("date", r.Date)
}

func (r HeartRateDaily) Statement(updatedAt string) Statement {
	// Resting HR above the physiological ceiling is known bad source data.
	// Clamp to NULL rather than rejecting the record.
	restingHR := r.RestingHR
	if restingHR != nil && *restingHR > RestingHRCeiling {
		restingHR = nil
	}

	return Statement{
		Table: "heart_rate_daily",
		SQL: `INSERT INTO heart_rate_daily (
			date, resting_hr, walking_hr_avg, hrv, updated_at
		) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			resting_hr = excluded.resting_hr,
			walking_hr_avg = excluded.walking_hr_avg,
			hrv = excluded.hrv,
			updated_at = excluded.updated_at`,
		Args: []any{r.Date, restingHR, r.WalkingHRAvg, r.HRV, updatedAt},
	}
}

// VitalTypes is the bounded set of accepted vital kinds.
var VitalTypes = map[string]bool{
	"vo2max":           true,
	"respiratory_rate": true,
	"spo2":             true,
}

// Vital is a single vital reading merged on (vital type, date).
type Vital struct {
	VitalType string  `json:"vitalType"`
	Date      string  `json:"date"`
	Value     float64 `json:"value"`
}

func (r Vital) Kind() Kind { return KindVital }

func (r Vital) Validate() *ValidationError {
	if !VitalTypes[r.VitalType] {
		return fieldError("vitalType", "must be one of vo2max, respiratory_rate, spo2")
	}
	return requireDate("date", r.Date)
}

func (r Vital) Statement(updatedAt string) Statement {
	return Statement{
		Table: "vitals",
		SQL: `INSERT INTO vitals (vital_type, date, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(vital_type, date) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		Args: []any{r.VitalType, r.Date, r.Value, updatedAt},
	}
}

// SleepSession is one night of sleep merged on the night-of date.
type SleepSession struct {
	Date         string  `json:"date"`
	Bedtime      string  `json:"bedtime"`
	WakeTime     string  `json:"wakeTime"`
	TotalMinutes float64 `json:"totalMinutes"`
	REMMinutes   float64 `json:"remMinutes"`
	CoreMinutes  float64 `json:"coreMinutes"`
	DeepMinutes  float64 `json:"deepMinutes"`
	AwakeMinutes float64 `json:"awakeMinutes"`
}

func (r SleepSession) Kind() Kind { return KindSleepSession }

func (r SleepSession) Validate() *ValidationError {
	if err := requireDate("date", r.Date); err != nil {
		return err
	}
	if r.Bedtime != "" {
		if err := requireTimestamp("bedtime", r.Bedtime); err != nil {
			return err
		}
	}
	if r.WakeTime != "" {
		if err := requireTimestamp("wakeTime", r.WakeTime); err != nil {
			return err
		}
	}
	return nil
}

func (r SleepSession) Statement(updatedAt string) Statement {
	return Statement{
		Table: "sleep_sessions",
		SQL: `INSERT INTO sleep_sessions (
			date, bedtime, wake_time, total_minutes, rem_minutes,
			core_minutes, deep_minutes, awake_minutes, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			bedtime = excluded.bedtime,
			wake_time = excluded.wake_time,
			total_minutes = excluded.total_minutes,
			rem_minutes = excluded.rem_minutes,
			core_minutes = excluded.core_minutes,
			deep_minutes = excluded.deep_minutes,
			awake_minutes = excluded.awake_minutes,
			updated_at = excluded.updated_at`,
		Args: []any{
			r.Date, r.Bedtime, r.WakeTime, r.TotalMinutes, r.REMMinutes,
			r.CoreMinutes, r.DeepMinutes, r.AwakeMinutes, updatedAt,
		},
	}
}

// MeasurementTypes is the bounded set of accepted body measurement kinds.
var MeasurementTypes = map[string]bool{
	"weight":   true,
	"body_fat": true,
}

// BodyMeasurement is a single measurement merged on (measurement type, date).
type BodyMeasurement struct {
	MeasurementType string  `json:"measurementType"`
	Date            string  `json:"date"`
	Value           float64 `json:"value"`
}

func (r BodyMeasurement) Kind() Kind { return KindBodyMeasurement }

func (r BodyMeasurement) Validate() *ValidationError {
	if !MeasurementTypes[r.MeasurementType] {
		return fieldError("measurementType", "must be one of weight, body_fat")
	}
	return requireDate("date", r.Date)
}

func (r BodyMeasurement) Statement(updatedAt string) Statement {
	return Statement{
		Table: "body_measurements",
		SQL: `INSERT INTO body_measurements (measurement_type, date, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(measurement_type, date) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		Args: []any{r.MeasurementType, r.Date, r.Value, updatedAt},
	}
}

// CursorStatement builds the write that advances the push sync cursor to
// the payload's declared sync timestamp. Only the push path issues it.
func CursorStatement(syncTimestamp, updatedAt string) Statement {
	return Statement{
		Table: "sync_cursor",
		SQL: `INSERT INTO sync_cursor (key, value, updated_at)
		VALUES ('last_sync', ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		Args: []any{syncTimestamp, updatedAt},
	}
}

func requireDate(field, value string) *ValidationError {
	if value == "" {
		return fieldError(field, "is required")
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return fieldError(field, "must be a YYYY-MM-DD date")
	}
	return nil
}

func requireTimestamp(field, value string) *ValidationError {
	if value == "" {
		return fieldError(field, "is required")
	}
	if _, err := time.Parse(time.RFC3339, value); err != nil {
		return fieldError(field, "must be an ISO-8601 timestamp")
	}
	return nil
}
