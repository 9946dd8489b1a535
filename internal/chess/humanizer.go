package chess

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// Candidate is a scored legal move considered by the hint sampler.
type Candidate struct {
	From     Position
	To       Position
	Captured *Piece
	Score    float64
}

// CenterBonus rewards squares near the middle of the board. The four central
// squares score 2.5 and the corners 0.5.
func CenterBonus(p Position) float64 {
	return math.Max(3-math.Abs(float64(p.Row)-3.5), 3-math.Abs(float64(p.Col)-3.5))
}

// ScoreCandidates ranks every legal move of c by captured value x10 plus the
// destination's centre bonus, best first. Ties keep generation order.
func ScoreCandidates(b *Board, c Color, last *Move) []Candidate {
	moves := b.AllLegalMoves(c, last)
	out := make([]Candidate, 0, len(moves))
	for _, mv := range moves {
		cand := Candidate{From: mv.From, To: mv.To}
		if target := b.At(mv.To); target != nil {
			cand.Captured = target
			cand.Score = float64(target.Value * 10)
		}
		cand.Score += CenterBonus(mv.To)
		out = append(out, cand)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// SelectCandidate samples a ranked list. The index follows
// floor(u^weight * n) for a uniform u, drawn through a cumulative table:
// P(index <= i) = ((i+1)/n)^(1/weight).
func SelectCandidate(p DifficultyPreset, candidates []Candidate, r *rand.Rand) (Candidate, int, error) {
	if len(candidates) == 0 {
		return Candidate{}, -1, errors.New("no candidates to choose from")
	}
	if err := ValidatePreset(p); err != nil {
		return Candidate{}, -1, err
	}
	cdf := cumulativeWeights(len(candidates), p.Weight)
	threshold := r.Float64()
	index := sort.Search(len(cdf), func(i int) bool { return cdf[i] > threshold })
	if index >= len(candidates) {
		index = len(candidates) - 1
	}
	return candidates[index], index, nil
}

func cumulativeWeights(n int, weight float64) []float64 {
	cdf := make([]float64, n)
	inv := 1 / weight
	for i := range cdf {
		cdf[i] = math.Pow(float64(i+1)/float64(n), inv)
	}
	cdf[n-1] = 1
	return cdf
}
