package dataset

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/pokesag/pokesag/internal/query"
	"github.com/pokesag/pokesag/internal/store"
	"github.com/pokesag/pokesag/internal/testutil"
)

var end = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestPagesDeterministic(t *testing.T) {
	a := NewGenerator(7, end, time.Hour).Pages(50)
	b := NewGenerator(7, end, time.Hour).Pages(50)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed differs (-a +b):\n%s", diff)
	}
	c := NewGenerator(8, end, time.Hour).Pages(50)
	if cmp.Equal(a, c) {
		t.Error("different seeds produced identical pages")
	}
}

func TestPagesWithinSpan(t *testing.T) {
	pages := NewGenerator(1, end, 2*time.Hour).Pages(200)
	if len(pages) != 200 {
		t.Fatalf("len = %d", len(pages))
	}
	for _, p := range pages {
		if p.RxDate.After(end) || !p.RxDate.After(end.Add(-2*time.Hour-time.Second)) {
			t.Errorf("rx_date %s outside span", p.RxDate)
		}
		if !slices.Contains(Sources, p.Source) {
			t.Errorf("unknown source %q", p.Source)
		}
		if len(p.Recipient) != 7 || p.Content == "" {
			t.Errorf("bad page %+v", p)
		}
	}
	if !slices.IsSortedFunc(pages, func(a, b store.Message) int { return a.RxDate.Compare(b.RxDate) }) {
		t.Error("pages not sorted oldest first")
	}
}

func TestPagesInsertAndSearch(t *testing.T) {
	st := testutil.NewTestStore(t)
	pages := NewGenerator(3, end, time.Hour).Pages(120)
	testutil.SeedPages(t, st, pages)

	got, err := st.Pages(context.Background(), query.NewPlanner(100).Plan(query.SearchState{Mode: query.ModeLatest, Page: 2}))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 20 {
		t.Errorf("page 2 has %d rows, want 20", len(got))
	}
}
