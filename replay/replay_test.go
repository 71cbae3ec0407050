package replay

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brensch/snakepit/game"
)

func sampleHeader() Header {
	return Header{
		Width: 10, Height: 8, FoodLifetime: 50, FoodValue: 5,
		Players: []PlayerInfo{{ID: 0, Name: "alice"}, {ID: 1, Name: "bob the bot"}},
	}
}

func sampleSnapshots() []game.Snapshot {
	return []game.Snapshot{
		{
			Turn: 0,
			Food: []game.FoodState{{Lifetime: 50, Pos: game.Point{X: 3, Y: 4}}},
			Players: []game.PlayerState{
				{ID: 0, Alive: true, Body: []game.Point{{X: 1, Y: 1}, {X: 0, Y: 1}}},
				{ID: 1},
			},
		},
		{
			Turn: 1,
			Players: []game.PlayerState{
				{ID: 0, Alive: true, Body: []game.Point{{X: 2, Y: 1}, {X: 1, Y: 1}}},
				{ID: 1, Alive: true, Body: []game.Point{{X: 7, Y: 7}}},
			},
		},
	}
}

func TestWriter_Format(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, false, sampleHeader())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	for _, s := range sampleSnapshots() {
		if err := w.Record(s); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	want := strings.Join([]string{
		"10 8 50 5 2",
		"0 alice",
		"1 bob the bot",
		"50 3 4",
		"0 1 1 0 1,",
		"",
		"0 2 1 1 1,1 7 7,",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("got:\n%q\nwant:\n%q", buf.String(), want)
	}
	if err := w.Record(sampleSnapshots()[0]); err == nil {
		t.Fatalf("record after close succeeded")
	}
}

func TestReplay_ReadBack(t *testing.T) {
	for _, compress := range []bool{false, true} {
		var buf bytes.Buffer
		w, err := NewWriter(&buf, compress, sampleHeader())
		if err != nil {
			t.Fatalf("new writer: %v", err)
		}
		for _, s := range sampleSnapshots() {
			if err := w.Record(s); err != nil {
				t.Fatalf("record: %v", err)
			}
		}
		w.Close()

		if compress && bytes.HasPrefix(buf.Bytes(), []byte("10 8")) {
			t.Fatalf("compressed replay is plain text")
		}

		r, err := NewReader(&buf)
		if err != nil {
			t.Fatalf("compress=%v reader: %v", compress, err)
		}
		if r.Header.Width != 10 || len(r.Header.Players) != 2 || r.Header.Players[1].Name != "bob the bot" {
			t.Fatalf("header=%+v", r.Header)
		}

		f0, err := r.Next()
		if err != nil {
			t.Fatalf("frame 0: %v", err)
		}
		if len(f0.Food) != 1 || f0.Food[0].Pos != (game.Point{X: 3, Y: 4}) || len(f0.Snakes) != 1 {
			t.Fatalf("frame 0=%+v", f0)
		}
		f1, err := r.Next()
		if err != nil {
			t.Fatalf("frame 1: %v", err)
		}
		if f1.Turn != 1 || len(f1.Food) != 0 || len(f1.Snakes) != 2 || f1.Snakes[1].Body[0] != (game.Point{X: 7, Y: 7}) {
			t.Fatalf("frame 1=%+v", f1)
		}
		if _, err := r.Next(); !errors.Is(err, io.EOF) {
			t.Fatalf("err=%v want EOF", err)
		}
		r.Close()
	}
}

func TestReader_Malformed(t *testing.T) {
	cases := map[string]string{
		"short header":   "10 8 50\n",
		"missing player": "10 8 50 5 2\n0 a\n",
		"bad food":       "10 8 50 5 0\n1 2\n\n",
		"bad snake":      "10 8 50 5 0\n\n0 1,\n",
		"truncated":      "10 8 50 5 0\n1 2 3\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			r, err := NewReader(strings.NewReader(raw))
			if err != nil {
				return
			}
			if _, err := r.Next(); err == nil || errors.Is(err, io.EOF) {
				t.Fatalf("err=%v want a format error", err)
			}
		})
	}
}

func TestCreate_FileName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "replays")
	w, err := Create(dir, "abc123", true, sampleHeader())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := w.Record(sampleSnapshots()[1]); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !strings.HasSuffix(w.Path(), "-abc123.rpl.zst") || filepath.Dir(w.Path()) != dir {
		t.Fatalf("path=%s", w.Path())
	}

	r, err := Open(w.Path())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	if f, err := r.Next(); err != nil || len(f.Snakes) != 2 {
		t.Fatalf("frame=%+v err=%v", f, err)
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)
	if got := FileName("r", "g", now, false); got != filepath.Join("r", "2024-03-05T07-08-09-g.rpl") {
		t.Fatalf("got=%s", got)
	}
}

func TestRender(t *testing.T) {
	h := Header{Width: 4, Height: 3}
	f := Frame{
		Turn: 7,
		Food: []game.FoodState{{Lifetime: 3, Pos: game.Point{X: 3, Y: 2}}},
		Snakes: []Snake{
			{ID: 1, Body: []game.Point{{X: 1, Y: 0}, {X: 0, Y: 0}}},
			{ID: 11, Body: []game.Point{{X: 2, Y: 1}}},
		},
	}
	got := Render(h, f)
	want := "turn 7  food=1  snakes=2\n" +
		"...*\n" +
		"..b.\n" +
		"#1..\n"
	if got != want {
		t.Fatalf("got=\n%s\nwant=\n%s", got, want)
	}
}
