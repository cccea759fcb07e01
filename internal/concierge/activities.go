package concierge

import (
	"strings"

	"github.com/villa-concierge/concierge-platform/internal/catalog"
	"github.com/villa-concierge/concierge-platform/internal/intent"
)

var (
	isActivities = intent.MatchAny(
		`attivit`, `escursion\w*`, `\btour\b`, `degustazion\w*`, `corso di cucina`, `cavallo`, `\byoga\b`,
		`e-?bike`, `\bactivit(y|ies)\b`, `esperienz\w*`, `cosa (posso |possiamo )?fare`, `what (can we |can i |to )?do`, `\bwine tasting\b`,
	)
	activityBooking = intent.MatchAny(`prenot\w*`, `iscriv\w*`, `\bbook`, `reserv\w*`)
	activityList    = intent.MatchAny(`\b(quali|elenco|lista|tutte|cosa|which|list|what)\b`, `prezz\w*`, `cost\w*`, `\bprice`)
)

// Activities answers questions about experiences on offer.
type Activities struct {
	data catalog.Activities
}

// NewActivities creates the activities handler.
func NewActivities(data catalog.Activities) *Activities {
	return &Activities{data: data}
}

// IsInfoRequest reports whether msg is about activities.
func (a *Activities) IsInfoRequest(msg string) bool {
	return isActivities(msg)
}

// Handle answers msg.
func (a *Activities) Handle(msg string) string {
	switch {
	case activityBooking(msg):
		c := a.data.Booking
		return "Per prenotare un'attività si rivolga alla reception: " +
			contactLine(c.Phone, c.Email, c.Extension) + ".\n" +
			"Consigliamo di prenotare almeno il giorno prima."
	case activityList(msg):
		return a.list()
	default:
		return a.list() + "\n\nPer prenotare basta chiedere alla reception."
	}
}

func (a *Activities) list() string {
	var b strings.Builder
	b.WriteString(a.data.Intro)
	b.WriteString("\n\nATTIVITÀ:")
	for _, it := range a.data.Items {
		b.WriteString("\n- " + it.Name)
		if it.Description != "" {
			b.WriteString(": " + it.Description)
		}
		b.WriteString(" (" + it.Duration)
		if it.Schedule != "" {
			b.WriteString(", " + it.Schedule)
		}
		b.WriteString(") - " + Price(it.Price))
	}
	return b.String()
}
