package pagination

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{CreatedAt: time.Date(2026, 3, 1, 10, 30, 0, 123456789, time.UTC), ID: uuid.New()}
	got, err := ParseCursor(EncodeCursor(want))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || got.ID != want.ID {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"%%%", "bm8tc2VwYXJhdG9y", EncodeCursor(Cursor{})[:4]} {
		if _, err := ParseCursor(raw); !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("expected ErrInvalidCursor for %q, got %v", raw, err)
		}
	}
	if c, err := ParseCursor("  "); c != nil || err != nil {
		t.Fatalf("blank cursor should be nil, got %v %v", c, err)
	}
}

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 10: 10, MaxLimit + 1: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
	if LimitWithBuffer(10) != 11 {
		t.Fatalf("expected buffered limit")
	}
}

func TestBuildPage(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	type row struct {
		id uuid.UUID
		at time.Time
	}
	rows := []row{{uuid.New(), base.Add(3 * time.Second)}, {uuid.New(), base.Add(2 * time.Second)}, {uuid.New(), base.Add(time.Second)}}
	cursorOf := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	page := BuildPage(rows, 2, cursorOf)
	if len(page.Items) != 2 || page.NextCursor == "" {
		t.Fatalf("expected two items and a cursor, got %+v", page)
	}
	next, err := ParseCursor(page.NextCursor)
	if err != nil || next.ID != rows[1].id {
		t.Fatalf("cursor should point at the last kept row, got %+v err=%v", next, err)
	}

	last := BuildPage(rows[:1], 2, cursorOf)
	if last.NextCursor != "" || len(last.Items) != 1 {
		t.Fatalf("expected final page without cursor, got %+v", last)
	}
	empty := BuildPage[row](nil, 2, cursorOf)
	if empty.Items == nil {
		t.Fatalf("empty pages must serialize as []")
	}
}
