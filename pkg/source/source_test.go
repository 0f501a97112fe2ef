package source

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"

	"github.com/xplshn/plc0/pkg/token"
)

func TestNextTracksLines(t *testing.T) {
	s := FromString("ab\nc")
	var got []token.Pos
	for !s.IsEOF() {
		s.Next()
		got = append(got, s.PreviousPos())
	}
	want := []token.Pos{
		{Offset: 0, Line: 0, Column: 0},
		{Offset: 1, Line: 0, Column: 1},
		{Offset: 2, Line: 0, Column: 2},
		{Offset: 3, Line: 1, Column: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("positions (-want +got):\n%s", diff)
	}
	if end := s.CurrentPos(); end != (token.Pos{Offset: 4, Line: 1, Column: 1}) {
		t.Errorf("CurrentPos() at end = %+v", end)
	}
}

func TestPeekAndNextAtEOF(t *testing.T) {
	s := FromString("")
	if !s.IsEOF() {
		t.Fatal("empty source is not at EOF")
	}
	if r := s.Peek(); r != 0 {
		t.Errorf("Peek() = %q; want 0", r)
	}
	if r := s.Next(); r != 0 {
		t.Errorf("Next() = %q; want 0", r)
	}
	if s.CurrentPos() != (token.Pos{}) {
		t.Errorf("position moved past end: %+v", s.CurrentPos())
	}
}

func TestFromReader(t *testing.T) {
	s, err := FromReader(strings.NewReader("begin ä end"))
	if err != nil {
		t.Fatal(err)
	}
	if got := string(s.Text()); got != "begin ä end" {
		t.Errorf("Text() = %q", got)
	}
	if len(s.Text()) != 11 {
		t.Errorf("len(Text()) = %d; want 11 runes", len(s.Text()))
	}

	boom := errors.New("boom")
	if _, err := FromReader(iotest.ErrReader(boom)); !errors.Is(err, boom) {
		t.Errorf("FromReader error = %v; want wrapped %v", err, boom)
	}
}
