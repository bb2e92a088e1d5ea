package testutil

import (
	"time"

	"github.com/pokesag/pokesag/internal/store"
)

// BaseTime is the receive time of the earliest fixture page.
var BaseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// MessageBuilder provides a fluent API for constructing store.Message in tests.
type MessageBuilder struct {
	m store.Message
}

// NewMessage creates a builder with sensible defaults.
func NewMessage(id int64) *MessageBuilder {
	return &MessageBuilder{
		m: store.Message{
			ID:        id,
			RxDate:    BaseTime,
			Source:    "POCSAG1200",
			Recipient: "1000000",
			Content:   "test page",
		},
	}
}

func (b *MessageBuilder) At(t time.Time) *MessageBuilder {
	b.m.RxDate = t
	return b
}

func (b *MessageBuilder) From(source string) *MessageBuilder {
	b.m.Source = source
	return b
}

func (b *MessageBuilder) To(recipient string) *MessageBuilder {
	b.m.Recipient = recipient
	return b
}

func (b *MessageBuilder) Content(c string) *MessageBuilder {
	b.m.Content = c
	return b
}

func (b *MessageBuilder) Build() store.Message {
	return b.m
}

// FixturePages is a small corpus covering every search mode. Listed in
// insertion order; ids are assigned 1..n on an empty database.
//
// Newest first, the latest ordering is 5, 4, 3, 2, 1, 6: pages 2 and 3
// share a receive time and sort by recipient.
func FixturePages() []store.Message {
	at := func(min int) time.Time { return BaseTime.Add(time.Hour + time.Duration(min)*time.Minute) }
	return []store.Message{
		NewMessage(1).At(at(0)).From("FLEX-929").To("1140792").Content("CARDIAC ARREST 21D05M at 12 Main St").Build(),
		NewMessage(2).At(at(5)).From("POCSAG1200").To("1140587").Content("Test page please ignore").Build(),
		NewMessage(3).At(at(5)).From("POCSAG1200").To("1140001").Content("smoke alarm activation ward 7").Build(),
		NewMessage(4).At(at(10)).From("POCSAG512").To("1234567").Content("100% free parking today").Build(),
		NewMessage(5).At(at(15)).From("FLEX_A").To("1140792").Content("fire alarm test 21D05").Build(),
		NewMessage(6).At(BaseTime).From("POCSAG1200").To("9999999").Content("discount: 100 free items").Build(),
	}
}
