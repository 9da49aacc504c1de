package database

// Schema contains all SQL statements for creating tables and indexes
const Schema = `
-- Daily activity summaries pushed by the device (merged on date)
CREATE TABLE IF NOT EXISTS daily_activity (
    date TEXT PRIMARY KEY,  -- YYYY-MM-DD

    steps INTEGER NOT NULL DEFAULT 0,
    active_calories REAL NOT NULL DEFAULT 0,
    basal_calories REAL NOT NULL DEFAULT 0,
    exercise_minutes REAL NOT NULL DEFAULT 0,
    stand_hours REAL NOT NULL DEFAULT 0,
    walk_distance_km REAL NOT NULL DEFAULT 0,
    cycle_distance_km REAL NOT NULL DEFAULT 0,

    updated_at TEXT NOT NULL
);

-- Workout sessions pushed by the device (merged on type + start time)
CREATE TABLE IF NOT EXISTS workouts (
    workout_type TEXT NOT NULL,
    start_time TEXT NOT NULL,  -- ISO-8601

    end_time TEXT,
    duration_seconds REAL NOT NULL DEFAULT 0,
    distance_km REAL NOT NULL DEFAULT 0,
    calories REAL NOT NULL DEFAULT 0,
    avg_heart_rate REAL,
    max_heart_rate REAL,

    updated_at TEXT NOT NULL,

    PRIMARY KEY (workout_type, start_time)
);

-- Daily heart rate summaries (merged on date)
CREATE TABLE IF NOT EXISTS heart_rate_daily (
    date TEXT PRIMARY KEY,

    resting_hr REAL,  -- NULL when the source value exceeded the resting ceiling
    walking_hr_avg REAL,
    hrv REAL,

    updated_at TEXT NOT NULL
);

-- Vitals: VO2max, respiratory rate, SpO2 (merged on type + date)
CREATE TABLE IF NOT EXISTS vitals (
    vital_type TEXT NOT NULL,
    date TEXT NOT NULL,
    value REAL NOT NULL,
    updated_at TEXT NOT NULL,

    PRIMARY KEY (vital_type, date)
);

-- Sleep sessions keyed on the night-of date
CREATE TABLE IF NOT EXISTS sleep_sessions (
    date TEXT PRIMARY KEY,

    bedtime TEXT,
    wake_time TEXT,
    total_minutes REAL NOT NULL DEFAULT 0,
    rem_minutes REAL NOT NULL DEFAULT 0,
    core_minutes REAL NOT NULL DEFAULT 0,
    deep_minutes REAL NOT NULL DEFAULT 0,
    awake_minutes REAL NOT NULL DEFAULT 0,

    updated_at TEXT NOT NULL
);

-- Body measurements: weight, body fat (merged on type + date)
CREATE TABLE IF NOT EXISTS body_measurements (
    measurement_type TEXT NOT NULL,
    date TEXT NOT NULL,
    value REAL NOT NULL,
    updated_at TEXT NOT NULL,

    PRIMARY KEY (measurement_type, date)
);

-- Push sync cursor singleton; only the push path writes it
CREATE TABLE IF NOT EXISTS sync_cursor (
    key TEXT PRIMARY KEY,  -- always 'last_sync'
    value TEXT NOT NULL,   -- ISO-8601 timestamp of the last ingested payload
    updated_at TEXT NOT NULL
);

-- Backfilled CGM readings (insert-or-ignore)
CREATE TABLE IF NOT EXISTS glucose_readings (
    timestamp TEXT PRIMARY KEY,
    value REAL NOT NULL,
    trend TEXT,
    source TEXT,
    created_at TEXT NOT NULL
);

-- Backfilled insulin doses (insert-or-ignore)
CREATE TABLE IF NOT EXISTS insulin_doses (
    timestamp TEXT NOT NULL,
    dose_type TEXT NOT NULL,  -- 'bolus' or 'basal'
    units REAL NOT NULL DEFAULT 0,
    sub_type TEXT,
    duration_seconds REAL NOT NULL DEFAULT 0,
    source TEXT,
    created_at TEXT NOT NULL,

    PRIMARY KEY (timestamp, dose_type)
);

-- Backfilled activity sessions (insert-or-ignore)
CREATE TABLE IF NOT EXISTS running_sessions (
    start_time TEXT PRIMARY KEY,
    end_time TEXT,
    distance_km REAL NOT NULL DEFAULT 0,
    duration_seconds REAL NOT NULL DEFAULT 0,
    pace_min_per_km REAL NOT NULL DEFAULT 0,
    activity_name TEXT,
    calories REAL NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);

-- Backfilled daily activity aggregates; collisions ADD into existing totals
CREATE TABLE IF NOT EXISTS daily_activity_aggregate (
    date TEXT PRIMARY KEY,
    active_calories REAL NOT NULL DEFAULT 0,
    exercise_minutes REAL NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL
);

-- Indexes for date-range reads by the dashboard's analytics side
CREATE INDEX IF NOT EXISTS idx_workouts_start_time ON workouts(start_time DESC);
CREATE INDEX IF NOT EXISTS idx_glucose_readings_created ON glucose_readings(created_at);
CREATE INDEX IF NOT EXISTS idx_insulin_doses_timestamp ON insulin_doses(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_running_sessions_start ON running_sessions(start_time DESC);
`

// Tables lists every table this engine writes, in a stable order for
// status reporting.
var Tables = []string{
	"daily_activity",
	"workouts",
	"heart_rate_daily",
	"vitals",
	"sleep_sessions",
	"body_measurements",
	"sync_cursor",
	"glucose_readings",
	"insulin_doses",
	"running_sessions",
	"daily_activity_aggregate",
}
