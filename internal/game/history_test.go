package game

import (
	"strconv"
	"testing"
	"time"

	"github.com/park285/void-chess/internal/chess"
)

func TestHistoryLogCapsAtLimit(t *testing.T) {
	h := NewHistoryLog(0)
	for i := 0; i < 12; i++ {
		h.Add(GameRecord{ID: strconv.Itoa(i)})
	}
	list := h.List()
	if len(list) != DefaultHistoryLimit {
		t.Fatalf("len = %d, want %d", len(list), DefaultHistoryLimit)
	}
	if list[0].ID != "11" || list[len(list)-1].ID != "2" {
		t.Fatalf("order = %s..%s, want newest first", list[0].ID, list[len(list)-1].ID)
	}
	if _, ok := h.Get("0"); ok {
		t.Fatalf("oldest record should have been evicted")
	}
	if rec, ok := h.Get("5"); !ok || rec.ID != "5" {
		t.Fatalf("Get(5) = %+v, %v", rec, ok)
	}
}

func TestNewRecordResult(t *testing.T) {
	at := time.Now()
	rec := newRecord("s", nil, chess.Checkmate, chess.Black, time.Minute, 2*time.Minute, at)
	if rec.Result != "White wins" || rec.Winner == nil || *rec.Winner != chess.White {
		t.Fatalf("record = %+v", rec)
	}
	if rec.ID == "" || rec.WhiteTimeRemaining != time.Minute || !rec.Date.Equal(at) {
		t.Fatalf("record fields = %+v", rec)
	}
	draw := newRecord("s", nil, chess.Stalemate, chess.White, 0, 0, at)
	if draw.Result != "Draw" || draw.Winner != nil {
		t.Fatalf("draw record = %+v", draw)
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[time.Duration]string{
		600 * time.Second: "10:00",
		65 * time.Second:  "1:05",
		0:                 "0:00",
		-time.Second:      "0:00",
	}
	for in, want := range cases {
		if got := FormatClock(in); got != want {
			t.Fatalf("FormatClock(%v) = %q, want %q", in, got, want)
		}
	}
}
