package concierge

import (
	"strings"

	"github.com/villa-concierge/concierge-platform/internal/catalog"
	"github.com/villa-concierge/concierge-platform/internal/intent"
)

var isEvents = intent.MatchAny(
	`\bevent[oi]\b`, `\bevents?\b`, `concert\w*`, `\bmusica\b`, `\bfesta\b`, `\bserat[ae]\b`, `spettacol\w*`,
	`programma`, `\blive music\b`, `\bparty\b`, `vendemmia`,
)

var eventBooking = intent.MatchAny(`prenot\w*`, `partecip\w*`, `bigliett\w*`, `\bbook`, `\btickets?\b`)

// Events answers questions about upcoming events.
type Events struct {
	data catalog.Events
}

// NewEvents creates the events handler.
func NewEvents(data catalog.Events) *Events {
	return &Events{data: data}
}

// IsInfoRequest reports whether msg is about events.
func (e *Events) IsInfoRequest(msg string) bool {
	return isEvents(msg)
}

// Handle answers msg.
func (e *Events) Handle(msg string) string {
	text := e.list()
	if eventBooking(msg) {
		c := e.data.Booking
		text += "\n\nPer partecipare: " + contactLine(c.Phone, c.Email, c.Extension) + "."
	}
	return text
}

func (e *Events) list() string {
	var b strings.Builder
	b.WriteString(e.data.Intro)
	b.WriteString("\n\nEVENTI:")
	for _, ev := range e.data.Items {
		b.WriteString("\n- " + ev.Name + " (" + ev.Date)
		if ev.Time != "" {
			b.WriteString(", ore " + ev.Time)
		}
		b.WriteString(")")
		if ev.Description != "" {
			b.WriteString(": " + ev.Description)
		}
		b.WriteString(" - " + Price(ev.Price))
	}
	return b.String()
}
