package main

import (
	"math"
	"time"

	"github.com/2beens/gymbuddy/internal/bodyweight"
	"github.com/2beens/gymbuddy/internal/history"
	"github.com/2beens/gymbuddy/internal/users"
	"github.com/2beens/gymbuddy/internal/workouts"

	"github.com/brianvoe/gofakeit/v6"
)

var demoSplits = []struct {
	label     string
	title     string
	exercises []string
}{
	{"A", "Push", []string{"Bench Press", "Overhead Press", "Dips", "Lateral Raise"}},
	{"B", "Pull", []string{"Deadlift", "Pull Up", "Barbell Row", "Biceps Curl"}},
	{"C", "Legs", []string{"Squat", "Leg Press", "Romanian Deadlift", "Calf Raise"}},
}

type demoWorkout struct {
	templateIndex int
	record        history.Record
}

type demoData struct {
	user      users.User
	password  string
	templates []workouts.Template
	workouts  []demoWorkout
	weights   []bodyweight.Sample
}

// newDemoData generates a user with an A/B/C split trained over the last days,
// roughly three times a week, plus a weekly body weight sample.
func newDemoData(faker *gofakeit.Faker, now time.Time, days int) demoData {
	startWeight := roundTo(faker.Float64Range(65, 95), 1)
	height := roundTo(faker.Float64Range(160, 195), 0)
	goal := faker.RandomString([]string{"hypertrophy", "strength", "fat loss"})

	data := demoData{
		user: users.User{
			Name:   faker.Name(),
			Email:  faker.Email(),
			Weight: &startWeight,
			Height: &height,
			Goal:   &goal,
		},
		password: faker.Password(true, true, true, false, false, 12),
	}

	for _, split := range demoSplits {
		template := workouts.Template{
			Title:      split.title,
			SplitLabel: split.label,
			Identifier: split.label,
		}
		for i, name := range split.exercises {
			weight := roundTo(faker.Float64Range(10, 120), 0)
			rest := faker.Number(60, 180)
			template.Exercises = append(template.Exercises, workouts.Exercise{
				Name:        name,
				SetCount:    faker.Number(3, 5),
				RepRange:    faker.RandomString([]string{"5", "8-10", "10-12", "12-15"}),
				Weight:      &weight,
				RestSeconds: &rest,
				Order:       i + 1,
			})
		}
		data.templates = append(data.templates, template)
	}

	next := 0
	weight := startWeight
	for day := days - 1; day >= 0; day-- {
		date := now.AddDate(0, 0, -day)
		if day%7 == 0 {
			weight = roundTo(weight+faker.Float64Range(-0.8, 0.6), 1)
			data.weights = append(data.weights, bodyweight.Sample{
				Weight:     weight,
				MeasuredAt: date,
			})
		}
		if faker.Number(0, 6) >= 3 {
			continue
		}

		duration := faker.Number(45, 90) * 60
		record := history.Record{
			ExecutedAt:      date.Add(-time.Duration(faker.Number(1, 10)) * time.Hour),
			DurationSeconds: &duration,
		}
		if faker.Bool() {
			notes := faker.Sentence(6)
			record.Notes = &notes
		}
		data.workouts = append(data.workouts, demoWorkout{templateIndex: next, record: record})
		next = (next + 1) % len(data.templates)
	}

	return data
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
