package chess

import (
	"math/rand"
	"testing"
)

func TestCenterBonus(t *testing.T) {
	if got := CenterBonus(mustSquare(t, "e4")); got != 2.5 {
		t.Fatalf("e4 bonus = %f, want 2.5", got)
	}
	if got := CenterBonus(mustSquare(t, "a1")); got != -0.5 {
		t.Fatalf("a1 bonus = %f, want -0.5", got)
	}
	if CenterBonus(mustSquare(t, "d5")) <= CenterBonus(mustSquare(t, "b7")) {
		t.Fatalf("centre should outscore the wing")
	}
}

func TestScoreCandidatesPrefersCaptures(t *testing.T) {
	b := mustBoard(t, "4k3/8/8/3q4/8/8/3R4/4K3")
	candidates := ScoreCandidates(b, White, nil)
	if len(candidates) == 0 {
		t.Fatalf("no candidates")
	}
	top := candidates[0]
	if top.To != mustSquare(t, "d5") || top.Captured == nil || top.Captured.Type != Queen {
		t.Fatalf("top candidate = %+v, want Rxd5", top)
	}
	if top.Score != 90+CenterBonus(top.To) {
		t.Fatalf("score = %f", top.Score)
	}
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Score > candidates[i-1].Score {
			t.Fatalf("candidates not sorted at %d", i)
		}
	}
}

func TestSelectCandidateEmpty(t *testing.T) {
	p, _ := GetPreset(Master)
	if _, _, err := SelectCandidate(p, nil, rand.New(rand.NewSource(1))); err == nil {
		t.Fatalf("expected error for empty candidate list")
	}
}

func TestHintTopChoiceGrowsWithDifficulty(t *testing.T) {
	b := NewBoard()
	candidates := ScoreCandidates(b, White, nil)
	const trials = 20000

	prev := -1
	for _, d := range Difficulties() {
		preset, err := GetPreset(d)
		if err != nil {
			t.Fatalf("preset %s: %v", d, err)
		}
		r := rand.New(rand.NewSource(42))
		top := 0
		for i := 0; i < trials; i++ {
			_, rank, err := SelectCandidate(preset, candidates, r)
			if err != nil {
				t.Fatalf("select: %v", err)
			}
			if rank == 0 {
				top++
			}
		}
		if top <= prev {
			t.Fatalf("%s picked the top move %d times, not more than the previous level's %d", d, top, prev)
		}
		prev = top
	}
}

func TestEngineSuggest(t *testing.T) {
	e := NewEngine()
	e.SetRandomSeed(7)

	res, err := e.Suggest(SuggestRequest{Board: NewBoard(), Color: White, Difficulty: Master})
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if res == nil {
		t.Fatalf("expected a suggestion from the start position")
	}
	if !NewBoard().IsLegal(res.Chosen.From, res.Chosen.To, nil) {
		t.Fatalf("suggested move %s%s is not legal", res.Chosen.From, res.Chosen.To)
	}

	mated := mustBoard(t, "3R2k1/5ppp/8/8/8/8/8/6K1")
	res, err = e.Suggest(SuggestRequest{Board: mated, Color: Black, Difficulty: Beginner})
	if err != nil || res != nil {
		t.Fatalf("suggest on mate = %v, %v; want nil, nil", res, err)
	}

	if _, err := e.Suggest(SuggestRequest{Board: NewBoard(), Color: White, Difficulty: "grandmaster"}); err == nil {
		t.Fatalf("expected unknown difficulty error")
	}
}

func TestDifficultyCycle(t *testing.T) {
	d := Beginner
	seen := []Difficulty{d}
	for i := 0; i < 4; i++ {
		d = d.Next()
		seen = append(seen, d)
	}
	want := []Difficulty{Beginner, Intermediate, Expert, Master, Beginner}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("cycle[%d] = %s, want %s", i, seen[i], want[i])
		}
	}
	if d, err := ParseDifficulty("Advanced"); err != nil || d != Expert {
		t.Fatalf("ParseDifficulty(Advanced) = %s, %v", d, err)
	}
}

func TestValidatePreset(t *testing.T) {
	if err := ValidatePreset(DifficultyPreset{Name: "x", Weight: 0}); err == nil {
		t.Fatalf("zero weight should fail")
	}
	if err := ValidatePreset(DifficultyPreset{Name: "x", Weight: 1.5}); err == nil {
		t.Fatalf("weight above one should fail")
	}
}
