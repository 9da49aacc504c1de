package diacloud

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWindow() (time.Time, time.Time) {
	end := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -5), end
}

func TestLogin(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/auth/login", r.URL.Path)

			var creds map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			require.Equal(t, "user@example.com", creds["email"])

			json.NewEncoder(w).Encode(Session{Token: "tok123", AccountID: "acct9"})
		}))
		defer server.Close()

		client := NewClient(server.URL, nil)
		session, err := client.Login(context.Background(), "user@example.com", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, "tok123", session.Token)
		assert.Equal(t, "acct9", session.AccountID)
	})

	t.Run("BadCredentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
		}))
		defer server.Close()

		client := NewClient(server.URL, nil)
		_, err := client.Login(context.Background(), "user@example.com", "wrong")
		require.Error(t, err)

		authErr, ok := err.(*AuthError)
		require.True(t, ok, "expected *AuthError, got %T", err)
		assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	})
}

func TestFetchGlucose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/accounts/acct9/readings", r.URL.Path)
		require.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
		require.Equal(t, "glucose", r.URL.Query().Get("type"))
		require.NotEmpty(t, r.URL.Query().Get("start"))
		require.NotEmpty(t, r.URL.Query().Get("end"))

		json.NewEncoder(w).Encode([]GlucoseRecord{
			{Timestamp: "2026-07-05T10:00:00Z", Value: 6.4, Trend: "flat"},
			{Timestamp: "2026-07-05T10:05:00Z", Value: 6.8, Trend: "rising"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	session := &Session{Token: "tok123", AccountID: "acct9"}

	start, end := testWindow()
	readings, err := client.FetchGlucose(context.Background(), session, start, end)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, 6.4, readings[0].Value)
	assert.Equal(t, "rising", readings[1].Trend)
}

func TestFetchInsulin(t *testing.T) {
	t.Run("MergesBolusAndBasal", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			switch r.URL.Query().Get("type") {
			case "bolus":
				json.NewEncoder(w).Encode([]DoseRecord{
					{Timestamp: "2026-07-05T08:00:00Z", Units: 4.5, SubType: "normal"},
				})
			case "basal":
				json.NewEncoder(w).Encode([]DoseRecord{
					{Timestamp: "2026-07-05T00:00:00Z", Units: 12, SubType: "scheduled", Duration: 24, DurationUnit: "hours"},
				})
			default:
				http.Error(w, "unknown type", http.StatusBadRequest)
			}
		}))
		defer server.Close()

		client := NewClient(server.URL, nil)
		session := &Session{Token: "tok123", AccountID: "acct9"}

		start, end := testWindow()
		doses, err := client.FetchInsulin(context.Background(), session, start, end)
		require.NoError(t, err)
		require.Len(t, doses, 2)
		assert.Equal(t, int32(2), requests.Load())

		types := []string{doses[0].DoseType, doses[1].DoseType}
		sort.Strings(types)
		assert.Equal(t, []string{"basal", "bolus"}, types)
	})

	t.Run("PropagatesSubFetchFailure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("type") == "basal" {
				http.Error(w, "server error", http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode([]DoseRecord{})
		}))
		defer server.Close()

		client := NewClient(server.URL, nil)
		session := &Session{Token: "tok123", AccountID: "acct9"}

		start, end := testWindow()
		_, err := client.FetchInsulin(context.Background(), session, start, end)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "basal")
	})
}

func TestFetchActivities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "activity", r.URL.Query().Get("type"))
		json.NewEncoder(w).Encode([]ActivityRecord{
			{
				Name:         "Running - 6.50 miles",
				StartTime:    "2026-07-05T07:00:00Z",
				EndTime:      "2026-07-05T07:58:00Z",
				Distance:     6.5,
				DistanceUnit: "miles",
				Duration:     58,
				DurationUnit: "minutes",
				Calories:     610,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	session := &Session{Token: "tok123", AccountID: "acct9"}

	start, end := testWindow()
	activities, err := client.FetchActivities(context.Background(), session, start, end)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "Running - 6.50 miles", activities[0].Name)
}

func TestFetchErrorSurfacesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	session := &Session{Token: "tok123", AccountID: "acct9"}

	start, end := testWindow()
	_, err := client.FetchGlucose(context.Background(), session, start, end)
	require.Error(t, err)

	httpErr, ok := err.(*HTTPError)
	require.True(t, ok, "expected *HTTPError, got %T", err)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
}
