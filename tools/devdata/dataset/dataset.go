// Package dataset generates synthetic pager traffic.
package dataset

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/pokesag/pokesag/internal/store"
)

// Sources are the decoder names pages appear under.
var Sources = []string{"POCSAG512", "POCSAG1200", "POCSAG2400", "FLEX-929", "FLEX_A"}

// templates are message bodies; %s is replaced by a dispatch code, %d by a
// street number.
var templates = []string{
	"CARDIAC ARREST %s at %d Main St",
	"FALL %s %d Station Rd, elderly female",
	"smoke alarm activation, %d High St, code %s",
	"Test page please ignore",
	"MVA %s, %d Ring Rd northbound",
	"fire alarm test %s",
	"shift swap approved",
}

var codes = []string{"21D05M", "09E01", "17B01G", "29D02P", "52C03", "21D05"}

// Generator produces deterministic pages.
type Generator struct {
	rng        *rand.Rand
	end        time.Time
	span       time.Duration
	recipients []string
}

// NewGenerator returns a generator whose pages fall in (end-span, end].
func NewGenerator(seed uint64, end time.Time, span time.Duration) *Generator {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	recipients := make([]string, 12)
	for i := range recipients {
		recipients[i] = fmt.Sprintf("%07d", 1000000+rng.IntN(9000000))
	}
	return &Generator{rng: rng, end: end.Truncate(time.Second), span: span, recipients: recipients}
}

// Pages returns n pages sorted oldest first, ready for insertion.
func (g *Generator) Pages(n int) []store.Message {
	pages := make([]store.Message, n)
	for i := range pages {
		pages[i] = g.page()
	}
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].RxDate.Before(pages[j].RxDate) })
	return pages
}

func (g *Generator) page() store.Message {
	offset := time.Duration(g.rng.Int64N(int64(g.span)))
	return store.Message{
		RxDate:    g.end.Add(-offset).Truncate(time.Second),
		Source:    Sources[g.rng.IntN(len(Sources))],
		Recipient: g.recipients[g.rng.IntN(len(g.recipients))],
		Content:   g.content(),
	}
}

func (g *Generator) content() string {
	t := templates[g.rng.IntN(len(templates))]
	code := codes[g.rng.IntN(len(codes))]
	num := 1 + g.rng.IntN(250)
	switch t {
	case templates[0], templates[1], templates[4]:
		return fmt.Sprintf(t, code, num)
	case templates[2]:
		return fmt.Sprintf(t, num, code)
	case templates[5]:
		return fmt.Sprintf(t, code)
	default:
		return t
	}
}
