package records

import "fmt"

// ValidationError names the first offending field in an inbound payload.
// It is returned before any write happens; the caller can correct and
// resubmit the same payload safely.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed at %s: %s", e.Field, e.Reason)
}

func fieldError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Payload is one push sync call from the device. Each metric array is
// optional and validated independently: one malformed entry rejects its
// whole array (and the call), but arrays do not depend on each other.
type Payload struct {
	SyncTimestamp    string            `json:"syncTimestamp"`
	DailyActivity    []DailyActivity   `json:"dailyActivity,omitempty"`
	Workouts         []Workout         `json:"workouts,omitempty"`
	HeartRateDaily   []HeartRateDaily  `json:"heartRateDaily,omitempty"`
	Vitals           []Vital           `json:"vitals,omitempty"`
	SleepSessions    []SleepSession    `json:"sleepSessions,omitempty"`
	BodyMeasurements []BodyMeasurement `json:"bodyMeasurements,omitempty"`
}

// Validate checks the payload and returns the first offending field path,
// e.g. "workouts[2].startTime". Nothing is written before it passes.
func (p *Payload) Validate() *ValidationError {
	if err := requireTimestamp("syncTimestamp", p.SyncTimestamp); err != nil {
		return err
	}
	for i, r := range p.DailyActivity {
		if err := r.Validate(); err != nil {
			return prefixed(KindDailyActivity, i, err)
		}
	}
	for i, r := range p.Workouts {
		if err := r.Validate(); err != nil {
			return prefixed(KindWorkout, i, err)
		}
	}
	for i, r := range p.HeartRateDaily {
		if err := r.Validate(); err != nil {
			return prefixed(KindHeartRateDaily, i, err)
		}
	}
	for i, r := range p.Vitals {
		if err := r.Validate(); err != nil {
			return prefixed(KindVital, i, err)
		}
	}
	for i, r := range p.SleepSessions {
		if err := r.Validate(); err != nil {
			return prefixed(KindSleepSession, i, err)
		}
	}
	for i, r := range p.BodyMeasurements {
		if err := r.Validate(); err != nil {
			return prefixed(KindBodyMeasurement, i, err)
		}
	}
	return nil
}

// Statements builds the full ordered statement list for the payload: every
// metric record's upsert followed by the cursor advance. The payload must
// already be validated.
func (p *Payload) Statements(updatedAt string) ([]Statement, map[Kind]int) {
	var stmts []Statement
	counts := make(map[Kind]int)

	appendAll := func(kind Kind, n int, build func(i int) Statement) {
		if n == 0 {
			return
		}
		for i := 0; i < n; i++ {
			stmts = append(stmts, build(i))
		}
		counts[kind] = n
	}

	appendAll(KindDailyActivity, len(p.DailyActivity), func(i int) Statement {
		return p.DailyActivity[i].Statement(updatedAt)
	})
	appendAll(KindWorkout, len(p.Workouts), func(i int) Statement {
		return p.Workouts[i].Statement(updatedAt)
	})
	appendAll(KindHeartRateDaily, len(p.HeartRateDaily), func(i int) Statement {
		return p.HeartRateDaily[i].Statement(updatedAt)
	})
	appendAll(KindVital, len(p.Vitals), func(i int) Statement {
		return p.Vitals[i].Statement(updatedAt)
	})
	appendAll(KindSleepSession, len(p.SleepSessions), func(i int) Statement {
		return p.SleepSessions[i].Statement(updatedAt)
	})
	appendAll(KindBodyMeasurement, len(p.BodyMeasurements), func(i int) Statement {
		return p.BodyMeasurements[i].Statement(updatedAt)
	})

	stmts = append(stmts, CursorStatement(p.SyncTimestamp, updatedAt))
	return stmts, counts
}

func prefixed(kind Kind, index int, err *ValidationError) *ValidationError {
	return &ValidationError{
		Field:  fmt.Sprintf("%s[%d].%s", kind, index, err.Field),
		Reason: err.Reason,
	}
}
