package workouts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Template is a reusable workout plan made of ordered exercises.
type Template struct {
	ID         int        `json:"id"`
	UserID     int        `json:"userId"`
	Title      string     `json:"title"`
	SplitLabel string     `json:"splitLabel"`
	Identifier string     `json:"identifier"`
	Exercises  []Exercise `json:"exercises"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

type Exercise struct {
	ID          int      `json:"id"`
	TemplateID  int      `json:"templateId"`
	Name        string   `json:"name"`
	SetCount    int      `json:"setCount"`
	RepRange    string   `json:"repRange"`
	Weight      *float64 `json:"weight,omitempty"`
	RestSeconds *int     `json:"restSeconds,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
	Order       int      `json:"order"`
}

// Volume is weight x sets, zero when no weight is set.
func (e Exercise) Volume() float64 {
	if e.Weight == nil {
		return 0
	}
	return *e.Weight * float64(e.SetCount)
}

// Volume sums the volume of all template exercises.
func (t Template) Volume() float64 {
	var v float64
	for _, e := range t.Exercises {
		v += e.Volume()
	}
	return v
}

func (t *Template) Validate() error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return errors.New("title empty")
	}
	if len(t.Exercises) == 0 {
		return errors.New("template must have at least one exercise")
	}

	orders := make(map[int]bool, len(t.Exercises))
	for i := range t.Exercises {
		e := &t.Exercises[i]
		if e.Order == 0 {
			e.Order = i + 1
		}
		if err := e.validate(); err != nil {
			return fmt.Errorf("exercise %d: %w", i+1, err)
		}
		if orders[e.Order] {
			return fmt.Errorf("exercise %d: duplicate order %d", i+1, e.Order)
		}
		orders[e.Order] = true
	}

	t.SortExercises()
	return nil
}

func (e *Exercise) validate() error {
	e.Name = strings.TrimSpace(e.Name)
	switch {
	case e.Name == "":
		return errors.New("name empty")
	case e.SetCount < 1:
		return errors.New("set count must be at least 1")
	case strings.TrimSpace(e.RepRange) == "":
		return errors.New("rep range empty")
	case e.Weight != nil && *e.Weight < 0:
		return errors.New("weight must not be negative")
	case e.RestSeconds != nil && *e.RestSeconds < 0:
		return errors.New("rest seconds must not be negative")
	case e.Order < 1:
		return errors.New("order must be positive")
	}
	return nil
}

func (t *Template) SortExercises() {
	sort.SliceStable(t.Exercises, func(i, j int) bool {
		return t.Exercises[i].Order < t.Exercises[j].Order
	})
}
