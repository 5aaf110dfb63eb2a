package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/2beens/gymbuddy/internal/bodyweight"
	"github.com/2beens/gymbuddy/internal/history"
	"github.com/2beens/gymbuddy/internal/workouts"
	"github.com/2beens/gymbuddy/pkg"
)

const (
	DefaultWeeklyProgressWeeks    = 8
	DefaultFavoriteExercisesLimit = 5
	daysPerWeek                   = 7
)

type Stats struct {
	TotalWorkouts        int              `json:"totalWorkouts"`
	CurrentStreakDays    int              `json:"currentStreakDays"`
	BestStreakDays       int              `json:"bestStreakDays"`
	TotalVolume          float64          `json:"totalVolume"`
	TotalDurationSeconds int              `json:"totalDurationSeconds"`
	FavoriteExercises    []string         `json:"favoriteExercises"`
	WeeklyProgress       []WeeklyProgress `json:"weeklyProgress"`
	WeightHistory        []WeightPoint    `json:"weightHistory"`
	Achievements         []Achievement    `json:"achievements"`
}

type WeeklyProgress struct {
	// Date is the first day of the week window, YYYY-MM-DD.
	Date         string  `json:"date"`
	WorkoutCount int     `json:"workoutCount"`
	Volume       float64 `json:"volume"`
}

type WeightPoint struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
}

type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Unlocked    bool   `json:"unlocked"`
	// UnlockedAt is the evaluation time, not the moment the threshold was first crossed.
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
}

type EngineConfig struct {
	Location               *time.Location
	WeeklyProgressWeeks    int
	FavoriteExercisesLimit int
	Achievements           []AchievementRule
}

// Engine computes Stats snapshots. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	location               *time.Location
	weeklyProgressWeeks    int
	favoriteExercisesLimit int
	achievements           []AchievementRule
}

func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		location:               cfg.Location,
		weeklyProgressWeeks:    cfg.WeeklyProgressWeeks,
		favoriteExercisesLimit: cfg.FavoriteExercisesLimit,
		achievements:           cfg.Achievements,
	}
	if e.location == nil {
		e.location = time.UTC
	}
	if e.weeklyProgressWeeks <= 0 {
		e.weeklyProgressWeeks = DefaultWeeklyProgressWeeks
	}
	if e.favoriteExercisesLimit <= 0 {
		e.favoriteExercisesLimit = DefaultFavoriteExercisesLimit
	}
	if e.achievements == nil {
		e.achievements = DefaultAchievements()
	}
	return e
}

func (e *Engine) Location() *time.Location {
	return e.location
}

// Compute builds the stats snapshot of one user. Records after the day of now
// count toward totals but never toward streaks or weekly progress.
func (e *Engine) Compute(
	records []history.Record,
	templates []workouts.Template,
	weightSamples []bodyweight.Sample,
	now time.Time,
) (*Stats, error) {
	if now.IsZero() {
		return nil, &ValidationError{Field: "now", Reason: "timestamp missing"}
	}
	if err := validate(records, templates, weightSamples); err != nil {
		return nil, err
	}

	templatesByID := make(map[int]*workouts.Template, len(templates))
	for i := range templates {
		templatesByID[templates[i].ID] = &templates[i]
	}

	today := e.dayNumber(now)
	stats := &Stats{
		TotalWorkouts:     len(records),
		FavoriteExercises: []string{},
		WeeklyProgress:    e.emptyWeeks(today),
		WeightHistory:     []WeightPoint{},
	}

	workoutDays := make(map[int64]int)
	favorites := newCounter()
	for _, r := range records {
		tmpl := templatesByID[r.TemplateID]
		volume := recordVolume(r, tmpl)

		stats.TotalVolume += volume
		if r.DurationSeconds != nil {
			stats.TotalDurationSeconds += *r.DurationSeconds
		}

		day := e.dayNumber(r.ExecutedAt)
		workoutDays[day]++

		if age := today - day; age >= 0 && age < int64(len(stats.WeeklyProgress)*daysPerWeek) {
			week := &stats.WeeklyProgress[age/daysPerWeek]
			week.WorkoutCount++
			week.Volume += volume
		}

		if tmpl != nil {
			for _, ex := range tmpl.Exercises {
				favorites.add(ex.Name)
			}
		}
	}

	stats.CurrentStreakDays = currentStreak(workoutDays, today)
	stats.BestStreakDays = bestStreak(workoutDays, today)
	stats.FavoriteExercises = favorites.top(e.favoriteExercisesLimit)
	stats.WeightHistory = e.weightHistory(weightSamples, today)
	stats.Achievements = e.evaluateAchievements(Totals{
		Workouts:       stats.TotalWorkouts,
		Volume:         stats.TotalVolume,
		BestStreakDays: stats.BestStreakDays,
	}, now)

	return stats, nil
}

func validate(records []history.Record, templates []workouts.Template, weightSamples []bodyweight.Sample) error {
	for i, r := range records {
		switch {
		case r.ExecutedAt.IsZero():
			return &ValidationError{Field: fmt.Sprintf("records[%d].executedAt", i), Reason: "timestamp missing"}
		case r.DurationSeconds != nil && *r.DurationSeconds < 0:
			return &ValidationError{Field: fmt.Sprintf("records[%d].durationSeconds", i), Reason: "must not be negative"}
		case r.TotalVolume != nil && *r.TotalVolume < 0:
			return &ValidationError{Field: fmt.Sprintf("records[%d].totalVolume", i), Reason: "must not be negative"}
		}
	}
	for i, t := range templates {
		for j, ex := range t.Exercises {
			if ex.Weight != nil && *ex.Weight < 0 {
				return &ValidationError{Field: fmt.Sprintf("templates[%d].exercises[%d].weight", i, j), Reason: "must not be negative"}
			}
			if ex.SetCount < 0 {
				return &ValidationError{Field: fmt.Sprintf("templates[%d].exercises[%d].setCount", i, j), Reason: "must not be negative"}
			}
		}
	}
	for i, s := range weightSamples {
		if s.MeasuredAt.IsZero() {
			return &ValidationError{Field: fmt.Sprintf("weightSamples[%d].measuredAt", i), Reason: "timestamp missing"}
		}
		if s.Weight < 0 {
			return &ValidationError{Field: fmt.Sprintf("weightSamples[%d].weight", i), Reason: "must not be negative"}
		}
	}
	return nil
}

// recordVolume prefers the stored volume and falls back to the template plan.
// A record without stored volume and without template contributes nothing.
func recordVolume(r history.Record, tmpl *workouts.Template) float64 {
	if r.TotalVolume != nil {
		return *r.TotalVolume
	}
	if tmpl == nil {
		return 0
	}
	return tmpl.Volume()
}

// dayNumber maps t to its calendar day in the engine location,
// as days since 1970-01-01, so consecutive days differ by one.
func (e *Engine) dayNumber(t time.Time) int64 {
	y, m, d := t.In(e.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

func formatDay(day int64) string {
	return time.Unix(day*86400, 0).UTC().Format(pkg.DateLayout)
}

func currentStreak(workoutDays map[int64]int, today int64) int {
	streak := 0
	for day := today; workoutDays[day] > 0; day-- {
		streak++
	}
	return streak
}

func bestStreak(workoutDays map[int64]int, today int64) int {
	days := make([]int64, 0, len(workoutDays))
	for day := range workoutDays {
		if day <= today {
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	best, run := 0, 0
	for i, day := range days {
		if i > 0 && day == days[i-1]+1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// emptyWeeks returns the week windows ending today, most recent first.
func (e *Engine) emptyWeeks(today int64) []WeeklyProgress {
	weeks := make([]WeeklyProgress, e.weeklyProgressWeeks)
	for i := range weeks {
		weekStart := today - int64(i*daysPerWeek) - (daysPerWeek - 1)
		weeks[i] = WeeklyProgress{Date: formatDay(weekStart)}
	}
	return weeks
}

// weightHistory keeps the latest sample of each day, oldest day first.
func (e *Engine) weightHistory(samples []bodyweight.Sample, today int64) []WeightPoint {
	latest := make(map[int64]bodyweight.Sample)
	for _, s := range samples {
		day := e.dayNumber(s.MeasuredAt)
		if day > today {
			continue
		}
		if prev, ok := latest[day]; !ok || !s.MeasuredAt.Before(prev.MeasuredAt) {
			latest[day] = s
		}
	}

	days := make([]int64, 0, len(latest))
	for day := range latest {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	points := make([]WeightPoint, 0, len(days))
	for _, day := range days {
		points = append(points, WeightPoint{
			Date:   formatDay(day),
			Weight: latest[day].Weight,
		})
	}
	return points
}

func (e *Engine) evaluateAchievements(totals Totals, now time.Time) []Achievement {
	achievements := make([]Achievement, 0, len(e.achievements))
	for _, rule := range e.achievements {
		a := Achievement{
			ID:          rule.ID,
			Title:       rule.Title,
			Description: rule.Description,
			Icon:        rule.Icon,
		}
		if rule.Predicate != nil && rule.Predicate(totals) {
			unlockedAt := now
			a.Unlocked = true
			a.UnlockedAt = &unlockedAt
		}
		achievements = append(achievements, a)
	}
	return achievements
}

// counter counts names, remembering the order they were first seen.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(name string) {
	if _, seen := c.counts[name]; !seen {
		c.order = append(c.order, name)
	}
	c.counts[name]++
}

func (c *counter) top(n int) []string {
	names := make([]string, len(c.order))
	copy(names, c.order)
	sort.SliceStable(names, func(i, j int) bool {
		return c.counts[names[i]] > c.counts[names[j]]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}
