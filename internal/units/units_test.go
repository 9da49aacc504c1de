package units

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDistanceKm(t *testing.T) {
	t.Run("MilesToKm", func(t *testing.T) {
		got := DistanceKm(1, "miles")
		if !almostEqual(got, 1.60934) {
			t.Errorf("Expected 1.60934, got %v", got)
		}
	})

	t.Run("MetersToKm", func(t *testing.T) {
		got := DistanceKm(1000, "m")
		if !almostEqual(got, 1) {
			t.Errorf("Expected 1, got %v", got)
		}
	})

	t.Run("KmPassthrough", func(t *testing.T) {
		got := DistanceKm(5.2, "km")
		if !almostEqual(got, 5.2) {
			t.Errorf("Expected 5.2, got %v", got)
		}
	})

	t.Run("UnknownUnitIsIdentity", func(t *testing.T) {
		got := DistanceKm(3.1, "furlongs")
		if !almostEqual(got, 3.1) {
			t.Errorf("Expected 3.1, got %v", got)
		}
	})

	t.Run("CaseAndWhitespaceInsensitive", func(t *testing.T) {
		got := DistanceKm(2, " Miles ")
		if !almostEqual(got, 2*1.60934) {
			t.Errorf("Expected %v, got %v", 2*1.60934, got)
		}
	})
}

func TestDurationSeconds(t *testing.T) {
	t.Run("HoursToSeconds", func(t *testing.T) {
		got := DurationSeconds(1, "hours")
		if !almostEqual(got, 3600) {
			t.Errorf("Expected 3600, got %v", got)
		}
	})

	t.Run("MinutesToSeconds", func(t *testing.T) {
		got := DurationSeconds(30, "min")
		if !almostEqual(got, 1800) {
			t.Errorf("Expected 1800, got %v", got)
		}
	})

	t.Run("MillisecondsToSeconds", func(t *testing.T) {
		got := DurationSeconds(1500, "ms")
		if !almostEqual(got, 1.5) {
			t.Errorf("Expected 1.5, got %v", got)
		}
	})

	t.Run("SecondsPassthrough", func(t *testing.T) {
		got := DurationSeconds(42, "s")
		if !almostEqual(got, 42) {
			t.Errorf("Expected 42, got %v", got)
		}
	})
}

func TestActivityType(t *testing.T) {
	t.Run("SplitsOnSeparator", func(t *testing.T) {
		got := ActivityType("Running - 6.50 miles")
		if got != "Running" {
			t.Errorf("Expected Running, got %q", got)
		}
	})

	t.Run("WholeStringWithoutSeparator", func(t *testing.T) {
		got := ActivityType("Yoga")
		if got != "Yoga" {
			t.Errorf("Expected Yoga, got %q", got)
		}
	})

	t.Run("FirstSeparatorWins", func(t *testing.T) {
		got := ActivityType("Trail Run - morning - hills")
		if got != "Trail Run" {
			t.Errorf("Expected Trail Run, got %q", got)
		}
	})
}
