package concierge

import (
	"strings"

	"github.com/villa-concierge/concierge-platform/internal/catalog"
	"github.com/villa-concierge/concierge-platform/internal/intent"
)

// RestaurantTopic is what a restaurant question is about.
type RestaurantTopic string

const (
	TopicHours   RestaurantTopic = "hours"
	TopicMenu    RestaurantTopic = "menu"
	TopicBooking RestaurantTopic = "booking"
	TopicDietary RestaurantTopic = "dietary"
	TopicGeneral RestaurantTopic = "general"
)

var (
	isRestaurant = intent.MatchAny(
		`\b(ristorante|restaurant|cena|pranzo|mangiare|cucina|piatt[oi]|tavolo|chef|dinner|lunch|dish(es)?|food|menu\b)`,
		`men[uù]`,
	)
	isTableBooking = intent.MatchAny(
		`prenot\w*\s+(un|il)\s+tavolo`,
		`prenot\w*.{0,30}\b(per|a) (cena|pranzo)`,
		`\btavolo per\b`,
		`(book|reserve) a table`,
		`table for`,
	)
	restaurantTopics = []struct {
		topic RestaurantTopic
		match func(string) bool
	}{
		{TopicDietary, intent.MatchAny(`vegetarian\w*`, `vegan\w*`, `glutine`, `celiac\w*`, `allergi\w*`, `intolleran\w*`, `gluten`)},
		{TopicBooking, intent.MatchAny(`prenot\w*`, `\btavolo\b`, `\bbook`, `reserv\w*`)},
		{TopicHours, intent.MatchAny(`\borari?\b`, `\baper\w*`, `\bapre\b`, `\bchiud\w*`, `chiusura`, `a che ora`, `quando`, `\bhours?\b`, `\bopen`, `\bclos\w*`)},
		{TopicMenu, intent.MatchAny(`men[uù]`, `\bpiatt\w*`, `prezz\w*`, `cost\w*`, `mangiare`, `specialit`, `\bcarta\b`, `\bprices?\b`, `\bdish`)},
	}
)

// Restaurant answers questions about the villa restaurant.
type Restaurant struct {
	data catalog.Restaurant
}

// NewRestaurant creates the restaurant handler.
func NewRestaurant(data catalog.Restaurant) *Restaurant {
	return &Restaurant{data: data}
}

// IsInfoRequest reports whether msg is about the restaurant.
func (r *Restaurant) IsInfoRequest(msg string) bool {
	return isRestaurant(msg)
}

// IsBookingRequest reports whether msg asks to book a table.
func (r *Restaurant) IsBookingRequest(msg string) bool {
	return isTableBooking(msg)
}

// Topic classifies a restaurant question.
func (r *Restaurant) Topic(msg string) RestaurantTopic {
	for _, t := range restaurantTopics {
		if t.match(msg) {
			return t.topic
		}
	}
	return TopicGeneral
}

// Handle answers msg.
func (r *Restaurant) Handle(msg string) string {
	switch r.Topic(msg) {
	case TopicHours:
		return r.hours()
	case TopicMenu:
		return r.menu()
	case TopicBooking:
		return r.booking()
	case TopicDietary:
		return r.dietary()
	default:
		return r.general()
	}
}

func (r *Restaurant) hours() string {
	var b strings.Builder
	b.WriteString("Il ristorante " + r.data.Name + " è aperto:\n")
	b.WriteString("- Pranzo: " + r.data.Hours.Lunch + "\n")
	b.WriteString("- Cena: " + r.data.Hours.Dinner)
	if r.data.Hours.ClosedDay != "" {
		b.WriteString("\nChiuso " + r.data.Hours.ClosedDay + ".")
	}
	return b.String()
}

// MenuText renders the full menu with one priced item per line.
func (r *Restaurant) MenuText() string {
	var b strings.Builder
	b.WriteString("Ecco il menu del ristorante " + r.data.Name + ":")
	for _, course := range []struct {
		header string
		items  []catalog.MenuItem
	}{
		{"ANTIPASTI:", r.data.Menu.Antipasti},
		{"PRIMI:", r.data.Menu.Primi},
		{"SECONDI:", r.data.Menu.Secondi},
		{"DOLCI:", r.data.Menu.Dolci},
	} {
		b.WriteString("\n\n" + course.header)
		for _, it := range course.items {
			b.WriteString("\n- " + it.Name)
			if it.Description != "" {
				b.WriteString(" (" + it.Description + ")")
			}
			b.WriteString(" - " + Price(it.Price))
		}
	}
	return b.String()
}

func (r *Restaurant) menu() string {
	return r.MenuText()
}

func (r *Restaurant) booking() string {
	c := r.data.Booking
	text := "Per prenotare un tavolo al ristorante " + r.data.Name + ": " +
		contactLine(c.Phone, c.Email, c.Extension) + ".\n" +
		"Orari: pranzo " + r.data.Hours.Lunch + ", cena " + r.data.Hours.Dinner + "."
	if c.Notes != "" {
		text += "\n" + c.Notes
	}
	return text
}

func (r *Restaurant) dietary() string {
	var b strings.Builder
	b.WriteString("Il ristorante " + r.data.Name + " offre:")
	for _, d := range r.data.Dietary {
		b.WriteString("\n- " + d)
	}
	return b.String()
}

func (r *Restaurant) general() string {
	return r.data.Name + ": " + r.data.Description + "\n" +
		"Pranzo " + r.data.Hours.Lunch + ", cena " + r.data.Hours.Dinner + ".\n" +
		"Chieda pure il menu, gli orari o le opzioni vegetariane e senza glutine."
}
