package viewmodel

import (
	"time"

	"github.com/pokesag/pokesag/internal/annotate"
	"github.com/pokesag/pokesag/internal/colors"
	"github.com/pokesag/pokesag/internal/store"
)

// Row is a message prepared for display.
type Row struct {
	Message  store.Message
	Color    colors.HSL
	Segments []annotate.Segment
	Received string
}

// Clock selects how receive times are printed.
type Clock int

const (
	Clock24h Clock = iota
	Clock12h
)

// Toggle returns the other clock.
func (c Clock) Toggle() Clock {
	if c == Clock24h {
		return Clock12h
	}
	return Clock24h
}

// FormatReceived prints t in the local zone, with the date.
func FormatReceived(t time.Time, c Clock) string {
	if t.IsZero() {
		return "-"
	}
	t = t.Local()
	if c == Clock12h {
		return t.Format("2006-01-02 03:04:05 PM")
	}
	return t.Format("2006-01-02 15:04:05")
}

// Render prepares msgs for display: each recipient gets its color and each
// content string its annotation.
func Render(msgs []store.Message, a *annotate.Annotator, c Clock) []Row {
	rows := make([]Row, len(msgs))
	for i, m := range msgs {
		rows[i] = Row{
			Message:  m,
			Color:    colors.For(m.Recipient),
			Segments: a.Segments(m.Content),
			Received: FormatReceived(m.RxDate, c),
		}
	}
	return rows
}

// Rows renders the current messages.
func (vm *ViewModel) Rows(c Clock) []Row {
	return Render(vm.State().Messages, vm.annotator, c)
}
