package chess

import (
	"fmt"
	"math"
	"strings"
)

type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Expert       Difficulty = "expert"
	Master       Difficulty = "master"
)

// DifficultyPreset tunes the hint sampler. Weight is the exponent applied to
// the uniform draw; values closer to 1 favour the top-ranked candidate.
type DifficultyPreset struct {
	Name   Difficulty
	Label  string
	Weight float64
}

var difficultyOrder = []Difficulty{Beginner, Intermediate, Expert, Master}

var defaultPresets = map[Difficulty]DifficultyPreset{
	Beginner:     {Name: Beginner, Label: "Beginner", Weight: 0.3},
	Intermediate: {Name: Intermediate, Label: "Intermediate", Weight: 0.6},
	Expert:       {Name: Expert, Label: "Expert", Weight: 0.8},
	Master:       {Name: Master, Label: "Master", Weight: 0.95},
}

func ParseDifficulty(name string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(name)))
	switch d {
	case "easy", "level1":
		d = Beginner
	case "normal", "medium", "level2":
		d = Intermediate
	case "hard", "advanced", "level3":
		d = Expert
	case "level4":
		d = Master
	}
	_, ok := defaultPresets[d]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownDifficulty, name)
	}
	return d, nil
}

func GetPreset(name Difficulty) (DifficultyPreset, error) {
	d, err := ParseDifficulty(string(name))
	if err != nil {
		return DifficultyPreset{}, err
	}
	return defaultPresets[d], nil
}

// Next cycles beginner -> intermediate -> expert -> master -> beginner.
func (d Difficulty) Next() Difficulty {
	for i, v := range difficultyOrder {
		if v == d {
			return difficultyOrder[(i+1)%len(difficultyOrder)]
		}
	}
	return Beginner
}

func Difficulties() []Difficulty {
	return append([]Difficulty(nil), difficultyOrder...)
}

func ValidatePreset(p DifficultyPreset) error {
	switch {
	case strings.TrimSpace(string(p.Name)) == "":
		return fmt.Errorf("preset name required")
	case math.IsNaN(p.Weight) || math.IsInf(p.Weight, 0):
		return fmt.Errorf("preset %s weight must be finite", p.Name)
	case p.Weight <= 0 || p.Weight > 1:
		return fmt.Errorf("preset %s weight must be in (0,1]: %f", p.Name, p.Weight)
	}
	return nil
}
