package chess

import (
	"math/rand"
	"sync"
	"time"
)

// Engine produces hints. It is safe for concurrent use; each call draws a
// private random source seeded from the engine's own.
type Engine struct {
	randMu sync.Mutex
	rand   *rand.Rand
}

func NewEngine() *Engine {
	return &Engine{rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

type SuggestRequest struct {
	Board      *Board
	Color      Color
	LastMove   *Move
	Difficulty Difficulty
}

type SuggestResult struct {
	Preset     DifficultyPreset
	Candidates []Candidate
	Chosen     Candidate
	Rank       int
}

// Suggest returns nil with a nil error when the side has no legal move.
func (e *Engine) Suggest(req SuggestRequest) (*SuggestResult, error) {
	preset, err := GetPreset(req.Difficulty)
	if err != nil {
		return nil, err
	}
	candidates := ScoreCandidates(req.Board, req.Color, req.LastMove)
	if len(candidates) == 0 {
		return nil, nil
	}
	chosen, rank, err := SelectCandidate(preset, candidates, e.random())
	if err != nil {
		return nil, err
	}
	return &SuggestResult{
		Preset:     preset,
		Candidates: candidates,
		Chosen:     chosen,
		Rank:       rank,
	}, nil
}

func (e *Engine) random() *rand.Rand {
	e.randMu.Lock()
	seed := e.rand.Int63()
	e.randMu.Unlock()
	return rand.New(rand.NewSource(seed))
}

func (e *Engine) SetRandomSeed(seed int64) {
	e.randMu.Lock()
	e.rand = rand.New(rand.NewSource(seed))
	e.randMu.Unlock()
}
