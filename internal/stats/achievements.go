package stats

import (
	"fmt"

	"github.com/2beens/gymbuddy/internal/config"
)

// Totals are the aggregates achievement rules are evaluated against.
type Totals struct {
	Workouts       int
	Volume         float64
	BestStreakDays int
}

type AchievementRule struct {
	ID          string
	Title       string
	Description string
	Icon        string
	Predicate   func(Totals) bool
}

type Metric string

const (
	MetricWorkouts   Metric = "workouts"
	MetricVolume     Metric = "volume"
	MetricBestStreak Metric = "best_streak"
)

// ThresholdRule unlocks once the given metric reaches threshold.
func ThresholdRule(id, title, description, icon string, metric Metric, threshold float64) (AchievementRule, error) {
	var predicate func(Totals) bool
	switch metric {
	case MetricWorkouts:
		predicate = func(t Totals) bool { return float64(t.Workouts) >= threshold }
	case MetricVolume:
		predicate = func(t Totals) bool { return t.Volume >= threshold }
	case MetricBestStreak:
		predicate = func(t Totals) bool { return float64(t.BestStreakDays) >= threshold }
	default:
		return AchievementRule{}, fmt.Errorf("achievement %s: unknown metric %q", id, metric)
	}
	return AchievementRule{
		ID:          id,
		Title:       title,
		Description: description,
		Icon:        icon,
		Predicate:   predicate,
	}, nil
}

func mustThresholdRule(id, title, description, icon string, metric Metric, threshold float64) AchievementRule {
	rule, err := ThresholdRule(id, title, description, icon, metric, threshold)
	if err != nil {
		panic(err)
	}
	return rule
}

func DefaultAchievements() []AchievementRule {
	return []AchievementRule{
		mustThresholdRule("first-workout", "First Step", "Complete your first workout", "🎯", MetricWorkouts, 1),
		mustThresholdRule("consistency", "Consistency", "Complete 5 workouts", "💪", MetricWorkouts, 5),
		mustThresholdRule("dedicated", "Dedicated", "Complete 10 workouts", "🔥", MetricWorkouts, 10),
		mustThresholdRule("week-streak", "Week Warrior", "Train 7 days in a row", "⚡", MetricBestStreak, 7),
		mustThresholdRule("ton-lifted", "One Ton", "Lift 1000 kg in total", "🏋️", MetricVolume, 1000),
	}
}

// RulesFromConfig builds the catalog from config, falling back to the defaults when empty.
func RulesFromConfig(achievements []config.Achievement) ([]AchievementRule, error) {
	if len(achievements) == 0 {
		return DefaultAchievements(), nil
	}
	rules := make([]AchievementRule, 0, len(achievements))
	for _, a := range achievements {
		rule, err := ThresholdRule(a.ID, a.Title, a.Description, a.Icon, Metric(a.Metric), a.Threshold)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
