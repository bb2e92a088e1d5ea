package annotate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAnnotator(pairs ...string) *Annotator {
	d := NewDictionary()
	for i := 0; i+1 < len(pairs); i += 2 {
		d.Add(pairs[i], pairs[i+1])
	}
	a := New().WithLogger(quietLogger())
	a.SetDictionary(d)
	return a
}

func TestAnnotate(t *testing.T) {
	tests := []struct {
		name  string
		dict  []string
		text  string
		want  []Segment
	}{
		{
			name: "word in the middle",
			dict: []string{"HAPPY", "desc"},
			text: "I am HAPPY today",
			want: []Segment{{Text: "I am "}, {Text: "HAPPY", Tooltip: "desc"}, {Text: " today"}},
		},
		{
			name: "suffix stripped on lookup",
			dict: []string{"21D05", "tip"},
			text: "code 21D05M here",
			want: []Segment{{Text: "code "}, {Text: "21D05M", Tooltip: "tip"}, {Text: " here"}},
		},
		{
			name: "exact suffixed key wins over base",
			dict: []string{"21D05", "base", "21D05M", "suffixed"},
			text: "21D05M",
			want: []Segment{{Text: "21D05M", Tooltip: "suffixed"}},
		},
		{
			name: "token at both ends",
			dict: []string{"AB", "x"},
			text: "AB and AB",
			want: []Segment{{Text: "AB", Tooltip: "x"}, {Text: " and "}, {Text: "AB", Tooltip: "x"}},
		},
		{
			name: "not inside a longer word",
			dict: []string{"CAT", "x"},
			text: "CONCATENATE cats",
			want: []Segment{{Text: "CONCATENATE cats"}},
		},
		{
			name: "lowercase suffix is not a suffix",
			dict: []string{"21D05", "tip"},
			text: "21D05m",
			want: []Segment{{Text: "21D05m"}},
		},
		{
			name: "matched but unknown after stripping renders plain",
			dict: []string{"HAPPY", "desc"},
			text: "so HAPPYX now",
			want: []Segment{{Text: "so "}, {Text: "HAPPYX"}, {Text: " now"}},
		},
		{
			name: "first alternative wins over longer key",
			dict: []string{"AB", "short", "AB-CD", "long"},
			text: "AB-CD",
			want: []Segment{{Text: "AB", Tooltip: "short"}, {Text: "-CD"}},
		},
		{
			name: "longer key first",
			dict: []string{"AB-CD", "long", "AB", "short"},
			text: "AB-CD",
			want: []Segment{{Text: "AB-CD", Tooltip: "long"}},
		},
		{
			name: "metacharacters are literal",
			dict: []string{"A.B", "dotted"},
			text: "AXB A.B",
			want: []Segment{{Text: "AXB "}, {Text: "A.B", Tooltip: "dotted"}},
		},
		{
			name: "empty tooltip counts as missing",
			dict: []string{"NOP", ""},
			text: "NOP",
			want: []Segment{{Text: "NOP"}},
		},
		{
			name: "multibyte text preserved",
			dict: []string{"ALS", "advanced life support"},
			text: "Ünfall — ALS nötig",
			want: []Segment{{Text: "Ünfall — "}, {Text: "ALS", Tooltip: "advanced life support"}, {Text: " nötig"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newAnnotator(tt.dict...).Segments(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Segments(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
			if joined := Join(got); joined != tt.text {
				t.Errorf("Join = %q, want %q", joined, tt.text)
			}
		})
	}
}

func TestAnnotatePassThrough(t *testing.T) {
	texts := []string{"", "plain text", "21D05 HAPPY"}

	t.Run("no dictionary", func(t *testing.T) {
		a := New()
		if a.Ready() {
			t.Fatal("Ready() = true before any dictionary")
		}
		for _, text := range texts {
			want := []Segment{{Text: text}}
			if diff := cmp.Diff(want, a.Segments(text)); diff != "" {
				t.Errorf("Segments(%q) mismatch (-want +got):\n%s", text, diff)
			}
		}
	})

	t.Run("empty dictionary", func(t *testing.T) {
		a := New()
		a.SetDictionary(NewDictionary())
		if a.Ready() {
			t.Fatal("Ready() = true for empty dictionary")
		}
		if got := a.Segments("21D05"); len(got) != 1 || got[0].Decorated() {
			t.Errorf("Segments = %+v", got)
		}
	})

	t.Run("no matches", func(t *testing.T) {
		a := newAnnotator("HAPPY", "desc")
		text := "nothing to see here"
		want := []Segment{{Text: text}}
		if diff := cmp.Diff(want, a.Segments(text)); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestAnnotateRoundTrip(t *testing.T) {
	a := newAnnotator("21D05", "tip", "HAPPY", "desc", "X", "ex", "A+B", "plus")
	texts := []string{
		"",
		" ",
		"21D05",
		"21D05M21D05",
		"HAPPY,HAPPY;HAPPYHAPPY",
		"X X  X\tX\nX",
		"A+B A+BB (A+B)",
		"日本語 21D05M 終わり",
		"trailing HAPPY",
	}
	for _, text := range texts {
		if got := Join(a.Segments(text)); got != text {
			t.Errorf("Join(Segments(%q)) = %q", text, got)
		}
	}
}

func TestAnnotateEarlyStop(t *testing.T) {
	a := newAnnotator("X", "ex")
	n := 0
	for range a.Annotate("X X X X") {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("iterated %d segments, want 2", n)
	}
}

func TestAnnotateSnapshotsDictionary(t *testing.T) {
	a := newAnnotator("OLD", "old")
	seq := a.Annotate("OLD NEW")
	a.SetDictionary(FromMap(map[string]string{"NEW": "new"}))

	var got []Segment
	for s := range seq {
		got = append(got, s)
	}
	want := []Segment{{Text: "OLD", Tooltip: "old"}, {Text: " NEW"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

type failingLoader struct{ err error }

func (l failingLoader) LoadDictionary(context.Context) (*Dictionary, error) {
	return nil, l.err
}

func TestLoad(t *testing.T) {
	t.Run("failure leaves pass-through", func(t *testing.T) {
		a := New().WithLogger(quietLogger())
		a.Load(context.Background(), failingLoader{err: &DictionaryLoadError{Source: "x", Err: errors.New("boom")}})
		if a.Ready() {
			t.Error("Ready() = true after failed load")
		}
		if got := a.Segments("HAPPY"); len(got) != 1 || got[0].Text != "HAPPY" {
			t.Errorf("Segments = %+v", got)
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "hoverCodes.json")
		if err := os.WriteFile(path, []byte(`{"codes":{"HAPPY":"The User is Happy"}}`), 0o644); err != nil {
			t.Fatal(err)
		}
		a := New().WithLogger(quietLogger())
		a.Load(context.Background(), FileLoader{Path: path})
		if !a.Ready() {
			t.Fatal("Ready() = false after load")
		}
		got := a.Segments("HAPPY")
		if len(got) != 1 || got[0].Tooltip != "The User is Happy" {
			t.Errorf("Segments = %+v", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		a := New().WithLogger(quietLogger())
		a.Load(context.Background(), FileLoader{Path: filepath.Join(t.TempDir(), "absent.json")})
		if a.Ready() {
			t.Error("Ready() = true for missing file")
		}
	})
}
