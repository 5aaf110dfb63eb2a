package calc

import (
	"errors"
	"math"
)

// MaxBrzyckiReps is the last rep count the Brzycki formula is defined for.
const MaxBrzyckiReps = 36

// defaultRPEFactor is used when the RPE table has no entry for the rpe and reps pair.
const defaultRPEFactor = 0.8

// rpeTable maps RPE -> reps -> fraction of 1RM.
var rpeTable = map[int]map[int]float64{
	6:  {1: 0.86, 2: 0.84, 3: 0.82, 4: 0.80, 5: 0.78},
	7:  {1: 0.89, 2: 0.87, 3: 0.85, 4: 0.83, 5: 0.81},
	8:  {1: 0.92, 2: 0.90, 3: 0.88, 4: 0.86, 5: 0.84},
	9:  {1: 0.95, 2: 0.93, 3: 0.91, 4: 0.89, 5: 0.87},
	10: {1: 1.00, 2: 0.97, 3: 0.94, 4: 0.92, 5: 0.89},
}

var (
	ErrNegativeWeight = errors.New("weight must not be negative")
	ErrRepsOutOfRange = errors.New("reps must be between 1 and 36")
	ErrZeroOneRepMax  = errors.New("one rep max must be positive")
)

// OneRepMax estimates the 1RM with the Brzycki formula, rounded to a whole number.
func OneRepMax(weight float64, reps int) (float64, error) {
	if weight < 0 {
		return 0, ErrNegativeWeight
	}
	if reps < 1 || reps > MaxBrzyckiReps {
		return 0, ErrRepsOutOfRange
	}
	if reps == 1 {
		return weight, nil
	}
	return math.Round(weight * (36 / float64(37-reps))), nil
}

func Volume(weight float64, sets, reps int) (float64, error) {
	if weight < 0 {
		return 0, ErrNegativeWeight
	}
	if sets < 0 || reps < 0 {
		return 0, errors.New("sets and reps must not be negative")
	}
	return weight * float64(sets) * float64(reps), nil
}

// Intensity is weight as a rounded percentage of the 1RM.
func Intensity(weight, oneRepMax float64) (int, error) {
	if weight < 0 {
		return 0, ErrNegativeWeight
	}
	if oneRepMax <= 0 {
		return 0, ErrZeroOneRepMax
	}
	return int(math.Round(weight / oneRepMax * 100)), nil
}

// SuggestWeight picks a working weight for the target reps at the given RPE.
func SuggestWeight(oneRepMax float64, targetReps, rpe int) (float64, error) {
	if oneRepMax <= 0 {
		return 0, ErrZeroOneRepMax
	}
	factor, ok := rpeTable[rpe][targetReps]
	if !ok {
		factor = defaultRPEFactor
	}
	return math.Round(oneRepMax * factor), nil
}
