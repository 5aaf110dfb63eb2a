//go:build integration_test || all_tests

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymbuddy/internal/backup"
	"github.com/2beens/gymbuddy/internal/bodyweight"
	"github.com/2beens/gymbuddy/internal/history"
	"github.com/2beens/gymbuddy/internal/misc"
	"github.com/2beens/gymbuddy/internal/stats"
	"github.com/2beens/gymbuddy/internal/users"
	"github.com/2beens/gymbuddy/internal/workouts"
)

func pushPullTemplate() workouts.Template {
	return workouts.Template{
		Title:      "Push",
		SplitLabel: "A",
		Identifier: "A",
		Exercises: []workouts.Exercise{
			{Name: "Bench Press", SetCount: 3, RepRange: "8-10", Weight: ptr(100.0), Order: 1},
			{Name: "Squat", SetCount: 4, RepRange: "5", Weight: ptr(80.0), Order: 2},
		},
	}
}

func (s *IntegrationTestSuite) TestHealth() {
	ctx := context.Background()
	var resp misc.HealthResponse
	s.doJSON(ctx, http.MethodGet, "/health", "", nil, http.StatusOK, &resp)
	assert.Equal(s.T(), misc.StatusOK, resp.Status)
	assert.False(s.T(), resp.Timestamp.IsZero())
}

func (s *IntegrationTestSuite) TestAuthFlow() {
	ctx := context.Background()
	registered := s.registerUser(ctx)

	var profile users.User
	s.doJSON(ctx, http.MethodGet, "/api/profile", registered.Token, nil, http.StatusOK, &profile)
	assert.Equal(s.T(), registered.User.Email, profile.Email)

	// duplicate email
	status, _ := s.doRequest(ctx, http.MethodPost, "/api/auth/register", "", users.RegisterRequest{
		Name:     "Someone Else",
		Email:    registered.User.Email,
		Password: testPassword,
	})
	assert.Equal(s.T(), http.StatusBadRequest, status)

	status, _ = s.doRequest(ctx, http.MethodPost, "/api/auth/login", "", users.LoginRequest{
		Email:    registered.User.Email,
		Password: "wrong-password",
	})
	assert.Equal(s.T(), http.StatusUnauthorized, status)

	var loggedIn users.LoginResponse
	s.doJSON(ctx, http.MethodPost, "/api/auth/login", "", users.LoginRequest{
		Email:    registered.User.Email,
		Password: testPassword,
	}, http.StatusOK, &loggedIn)
	require.NotEmpty(s.T(), loggedIn.Token)
	assert.NotEqual(s.T(), registered.Token, loggedIn.Token)

	status, _ = s.doRequest(ctx, http.MethodPost, "/api/auth/logout", loggedIn.Token, nil)
	assert.Equal(s.T(), http.StatusOK, status)

	status, _ = s.doRequest(ctx, http.MethodGet, "/api/profile", loggedIn.Token, nil)
	assert.Equal(s.T(), http.StatusUnauthorized, status)

	// the session from registration is still valid
	status, _ = s.doRequest(ctx, http.MethodGet, "/api/profile", registered.Token, nil)
	assert.Equal(s.T(), http.StatusOK, status)
}

func (s *IntegrationTestSuite) TestWorkoutStatsFlow() {
	ctx := context.Background()
	user := s.registerUser(ctx)

	template := s.addTemplate(ctx, user.Token, pushPullTemplate())
	require.Len(s.T(), template.Exercises, 2)

	s.addRecord(ctx, user.Token, history.AddRecordRequest{
		TemplateID:      template.ID,
		ExecutedAt:      "2024-01-01T18:00:00Z",
		DurationSeconds: ptr(3600),
		TotalVolume:     ptr(1000.0),
	})
	// no stored volume, falls back to the template plan: 100*3 + 80*4
	s.addRecord(ctx, user.Token, history.AddRecordRequest{
		TemplateID:      template.ID,
		ExecutedAt:      "2024-01-02T18:00:00Z",
		DurationSeconds: ptr(1800),
	})
	assert.Equal(s.T(), 2, s.countRows("workout_record", user.User.ID))

	var sample bodyweight.Sample
	s.doJSON(ctx, http.MethodPost, "/api/bodyweight", user.Token, bodyweight.AddSampleRequest{
		Weight:     81.5,
		MeasuredAt: "2024-01-01",
	}, http.StatusCreated, &sample)

	var result stats.Stats
	s.doJSON(ctx, http.MethodGet,
		"/api/history/stats?now="+url.QueryEscape("2024-01-02T20:00:00Z"),
		user.Token, nil, http.StatusOK, &result,
	)

	assert.Equal(s.T(), 2, result.TotalWorkouts)
	assert.Equal(s.T(), 1620.0, result.TotalVolume)
	assert.Equal(s.T(), 5400, result.TotalDurationSeconds)
	assert.Equal(s.T(), 2, result.CurrentStreakDays)
	assert.Equal(s.T(), 2, result.BestStreakDays)
	assert.ElementsMatch(s.T(), []string{"Bench Press", "Squat"}, result.FavoriteExercises)
	require.Len(s.T(), result.WeeklyProgress, 4)
	weeklyWorkouts := 0
	for _, week := range result.WeeklyProgress {
		weeklyWorkouts += week.WorkoutCount
	}
	assert.Equal(s.T(), 2, weeklyWorkouts)
	assert.Equal(s.T(), []stats.WeightPoint{{Date: "2024-01-01", Weight: 81.5}}, result.WeightHistory)

	unlocked := map[string]bool{}
	for _, a := range result.Achievements {
		unlocked[a.ID] = a.Unlocked
	}
	assert.True(s.T(), unlocked["first-workout"])
	assert.False(s.T(), unlocked["consistency"])

	status, body := s.doRequest(ctx, http.MethodGet, "/api/history/stats?now=yesterday", user.Token, nil)
	assert.Equal(s.T(), http.StatusBadRequest, status, string(body))
}

func (s *IntegrationTestSuite) TestUserIsolation() {
	ctx := context.Background()
	owner := s.registerUser(ctx)
	other := s.registerUser(ctx)

	template := s.addTemplate(ctx, owner.Token, pushPullTemplate())
	record := s.addRecord(ctx, owner.Token, history.AddRecordRequest{
		TemplateID: template.ID,
		ExecutedAt: "2024-01-01T18:00:00Z",
	})

	status, _ := s.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/templates/%d", template.ID), other.Token, nil)
	assert.Equal(s.T(), http.StatusNotFound, status)

	status, _ = s.doRequest(ctx, http.MethodPost, "/api/history", other.Token, history.AddRecordRequest{
		TemplateID: template.ID,
	})
	assert.Equal(s.T(), http.StatusNotFound, status)

	status, _ = s.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/history/%d", record.ID), other.Token, nil)
	assert.Equal(s.T(), http.StatusNotFound, status)

	var otherStats stats.Stats
	s.doJSON(ctx, http.MethodGet, "/api/history/stats", other.Token, nil, http.StatusOK, &otherStats)
	assert.Zero(s.T(), otherStats.TotalWorkouts)

	assert.Equal(s.T(), 1, s.countRows("workout_record", owner.User.ID))
	assert.Zero(s.T(), s.countRows("workout_record", other.User.ID))
}

func (s *IntegrationTestSuite) TestTemplateDeleteKeepsHistory() {
	ctx := context.Background()
	user := s.registerUser(ctx)

	template := s.addTemplate(ctx, user.Token, pushPullTemplate())
	s.addRecord(ctx, user.Token, history.AddRecordRequest{
		TemplateID:  template.ID,
		ExecutedAt:  "2024-01-01T18:00:00Z",
		TotalVolume: ptr(500.0),
	})

	status, _ := s.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/templates/%d", template.ID), user.Token, nil)
	require.Equal(s.T(), http.StatusNoContent, status)

	var result stats.Stats
	s.doJSON(ctx, http.MethodGet,
		"/api/history/stats?now="+url.QueryEscape("2024-01-01T20:00:00Z"),
		user.Token, nil, http.StatusOK, &result,
	)
	assert.Equal(s.T(), 1, result.TotalWorkouts)
	assert.Equal(s.T(), 500.0, result.TotalVolume)
	assert.Empty(s.T(), result.FavoriteExercises)
}

func (s *IntegrationTestSuite) TestBackupExport() {
	ctx := context.Background()
	user := s.registerUser(ctx)
	template := s.addTemplate(ctx, user.Token, pushPullTemplate())
	s.addRecord(ctx, user.Token, history.AddRecordRequest{TemplateID: template.ID})

	status, body := s.doRequest(ctx, http.MethodGet, "/api/backup", user.Token, nil)
	require.Equal(s.T(), http.StatusOK, status)

	var export backup.Export
	require.NoError(s.T(), json.Unmarshal(body, &export))
	require.NotNil(s.T(), export.User)
	assert.Equal(s.T(), user.User.ID, export.User.ID)
	assert.Len(s.T(), export.Templates, 1)
	assert.Len(s.T(), export.History, 1)
	require.NotNil(s.T(), export.Stats)
	assert.Equal(s.T(), 1, export.Stats.TotalWorkouts)
}
