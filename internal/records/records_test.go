package records

import (
	"strings"
	"testing"
)

func f64(v float64) *float64 { return &v }

func TestPayloadValidate(t *testing.T) {
	t.Run("ValidPayload", func(t *testing.T) {
		p := &Payload{
			SyncTimestamp: "2026-08-01T06:00:00Z",
			DailyActivity: []DailyActivity{{Date: "2026-08-01", Steps: 9000}},
			Vitals:        []Vital{{VitalType: "vo2max", Date: "2026-08-01", Value: 48.2}},
		}
		if err := p.Validate(); err != nil {
			t.Fatalf("Expected valid payload, got %v", err)
		}
	})

	t.Run("MissingSyncTimestamp", func(t *testing.T) {
		p := &Payload{}
		err := p.Validate()
		if err == nil {
			t.Fatal("Expected validation error")
		}
		if err.Field != "syncTimestamp" {
			t.Errorf("Expected syncTimestamp field, got %s", err.Field)
		}
	})

	t.Run("OffendingFieldPath", func(t *testing.T) {
		p := &Payload{
			SyncTimestamp: "2026-08-01T06:00:00Z",
			Workouts: []Workout{
				{WorkoutType: "Running", StartTime: "2026-08-01T07:00:00Z"},
				{WorkoutType: "Running", StartTime: "not-a-timestamp"},
			},
		}
		err := p.Validate()
		if err == nil {
			t.Fatal("Expected validation error")
		}
		if err.Field != "workouts[1].startTime" {
			t.Errorf("Expected workouts[1].startTime, got %s", err.Field)
		}
	})

	t.Run("BadDate", func(t *testing.T) {
		p := &Payload{
			SyncTimestamp:  "2026-08-01T06:00:00Z",
			HeartRateDaily: []HeartRateDaily{{Date: "08/01/2026"}},
		}
		err := p.Validate()
		if err == nil {
			t.Fatal("Expected validation error")
		}
		if err.Field != "heartRateDaily[0].date" {
			t.Errorf("Expected heartRateDaily[0].date, got %s", err.Field)
		}
	})

	t.Run("UnknownVitalType", func(t *testing.T) {
		p := &Payload{
			SyncTimestamp: "2026-08-01T06:00:00Z",
			Vitals:        []Vital{{VitalType: "blood_type", Date: "2026-08-01"}},
		}
		err := p.Validate()
		if err == nil {
			t.Fatal("Expected validation error")
		}
		if err.Field != "vitals[0].vitalType" {
			t.Errorf("Expected vitals[0].vitalType, got %s", err.Field)
		}
	})
}

func TestRestingHRClamp(t *testing.T) {
	t.Run("AboveCeilingStoredAsNull", func(t *testing.T) {
		r := HeartRateDaily{Date: "2026-08-01", RestingHR: f64(95)}
		stmt := r.Statement("2026-08-01T06:00:00Z")

		got, ok := stmt.Args[1].(*float64)
		if !ok || got != nil {
			t.Errorf("Expected resting HR arg to be nil, got %v", stmt.Args[1])
		}
	})

	t.Run("BelowCeilingUnchanged", func(t *testing.T) {
		r := HeartRateDaily{Date: "2026-08-01", RestingHR: f64(75)}
		stmt := r.Statement("2026-08-01T06:00:00Z")

		got, ok := stmt.Args[1].(*float64)
		if !ok || got == nil || *got != 75 {
			t.Errorf("Expected resting HR 75, got %v", stmt.Args[1])
		}
	})

	t.Run("ClampDoesNotMutateRecord", func(t *testing.T) {
		r := HeartRateDaily{Date: "2026-08-01", RestingHR: f64(95)}
		r.Statement("2026-08-01T06:00:00Z")
		if r.RestingHR == nil || *r.RestingHR != 95 {
			t.Error("Expected record to be left untouched")
		}
	})
}

func TestPayloadStatements(t *testing.T) {
	p := &Payload{
		SyncTimestamp: "2026-08-01T06:00:00Z",
		DailyActivity: []DailyActivity{{Date: "2026-08-01", Steps: 9000}},
		Workouts: []Workout{
			{WorkoutType: "Running", StartTime: "2026-08-01T07:00:00Z", Distance: 1, DistanceUnit: "miles"},
		},
	}

	stmts, counts := p.Statements("2026-08-01T06:00:00Z")

	// One statement per record plus the trailing cursor advance.
	if len(stmts) != 3 {
		t.Fatalf("Expected 3 statements, got %d", len(stmts))
	}
	if stmts[len(stmts)-1].Table != "sync_cursor" {
		t.Errorf("Expected cursor statement last, got table %s", stmts[len(stmts)-1].Table)
	}

	if counts[KindDailyActivity] != 1 || counts[KindWorkout] != 1 {
		t.Errorf("Unexpected counts: %v", counts)
	}

	var workoutStmt *Statement
	for i := range stmts {
		if stmts[i].Table == "workouts" {
			workoutStmt = &stmts[i]
		}
	}
	if workoutStmt == nil {
		t.Fatal("Expected a workouts statement")
	}
	km, ok := workoutStmt.Args[4].(float64)
	if !ok || km < 1.6093 || km > 1.6094 {
		t.Errorf("Expected distance 1.60934 km, got %v", workoutStmt.Args[4])
	}
}

func TestBackfillStatementsAreIgnorable(t *testing.T) {
	cases := []struct {
		name string
		rec  Record
	}{
		{"Glucose", GlucoseReading{Timestamp: "2026-07-01T10:00:00Z", Value: 6.2}},
		{"Insulin", InsulinDose{Timestamp: "2026-07-01T10:00:00Z", DoseType: "bolus", Units: 4}},
		{"Running", RunningSession{StartTime: "2026-07-01T10:00:00Z"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stmt := tc.rec.Statement("2026-07-01T10:00:00Z")
			if !stmt.Ignorable {
				t.Errorf("Expected %s statement to be ignorable", tc.name)
			}
			if !strings.Contains(stmt.SQL, "DO NOTHING") {
				t.Errorf("Expected DO NOTHING conflict clause in %s", tc.name)
			}
		})
	}
}

func TestAggregateDeltaIsAdditive(t *testing.T) {
	stmt := ActivityAggregateDelta{Date: "2026-07-01", ActiveCalories: 100}.Statement("2026-07-01T10:00:00Z")
	if stmt.Ignorable {
		t.Error("Aggregate merge must not be swallowed on conflict")
	}
	if !strings.Contains(stmt.SQL, "active_calories + excluded.active_calories") {
		t.Error("Expected additive conflict clause")
	}
}
