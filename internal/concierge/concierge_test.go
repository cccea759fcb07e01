package concierge

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villa-concierge/concierge-platform/internal/catalog"
	"github.com/villa-concierge/concierge-platform/internal/intent"
)

func newHandlers(t *testing.T) *Handlers {
	t.Helper()
	return NewHandlers(catalog.Default(), NewBookingAssistant(newFakeBookings(), nil))
}

func TestRestaurantHoursScenario(t *testing.T) {
	h := newHandlers(t)
	msg := "Quali sono gli orari del ristorante?"

	assert.Equal(t, TopicHours, h.Restaurant.Topic(msg))

	res := h.Router().Route(context.Background(), intent.Request{Message: msg, Language: "it"})
	assert.Equal(t, intent.RestaurantInfo, res.Intent)
	assert.Equal(t, intent.SourceCatalog, res.Source)
	assert.Contains(t, res.Reply, "12:30 - 14:30")
	assert.Contains(t, res.Reply, "19:30 - 22:30")
}

func TestRestaurantMenuHasSectionsAndPrices(t *testing.T) {
	r := NewRestaurant(catalog.Default().Restaurant)

	menu := r.Handle("Cosa c'è nel menu?")

	for _, header := range []string{"ANTIPASTI:", "PRIMI:", "SECONDI:", "DOLCI:"} {
		assert.Contains(t, menu, header)
	}
	price := regexp.MustCompile(`€\d+`)
	for _, line := range strings.Split(menu, "\n") {
		if strings.HasPrefix(line, "- ") {
			assert.Regexp(t, price, line)
		}
	}
}

func TestRestaurantTopics(t *testing.T) {
	r := NewRestaurant(catalog.Default().Restaurant)

	tests := []struct {
		msg  string
		want RestaurantTopic
	}{
		{"A che ora apre il ristorante?", TopicHours},
		{"Quanto costano i piatti del ristorante?", TopicMenu},
		{"Avete piatti vegani al ristorante?", TopicDietary},
		{"Vorrei prenotare al ristorante", TopicBooking},
		{"Parlami del ristorante", TopicGeneral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Topic(tt.msg), tt.msg)
	}
	assert.Contains(t, r.Handle("Avete opzioni senza glutine?"), "senza glutine")
}

func TestRouterOrder(t *testing.T) {
	r := newHandlers(t).Router()

	tests := []struct {
		msg  string
		want intent.Intent
	}{
		{"ciao", intent.SimpleGreeting},
		{"Il ristorante e la spa sono aperti domenica?", intent.RestaurantInfo},
		{"Vorrei prenotare un tavolo per stasera", intent.RestaurantBooking},
		{"Che attività posso fare domani?", intent.ActivitiesInfo},
		{"Ci sono eventi questa settimana?", intent.EventsInfo},
		{"Quanto costa un massaggio alla spa?", intent.ServicesInfo},
		{"Mostrami le mie prenotazioni", intent.BookingQuery},
		{"Che tempo farà domani a Firenze?", intent.Generic},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Classify(tt.msg), tt.msg)
	}
	assert.Equal(t, []string{"greeting", "restaurant", "activities", "events", "services", "booking"}, r.Names())
}

func TestGreetingIsOneShortSentence(t *testing.T) {
	for lang, g := range greetings {
		assert.LessOrEqual(t, len([]rune(g)), 150, lang)
		assert.Equal(t, 1, strings.Count(g, "?")+strings.Count(g, "？"), lang)
	}
	assert.Equal(t, greetings["it"], Greeting("xx"))
}

func TestCatalogHandlers(t *testing.T) {
	h := newHandlers(t)

	acts := h.Activities.Handle("Quali attività organizzate?")
	assert.Contains(t, acts, "ATTIVITÀ:")
	assert.Contains(t, acts, "Degustazione in cantina")
	assert.Contains(t, acts, "€45")
	assert.Contains(t, h.Activities.Handle("Come posso prenotare una degustazione?"), "reception")

	events := h.Events.Handle("Quali eventi ci sono?")
	assert.Contains(t, events, "EVENTI:")
	assert.Contains(t, events, "venerdì")
	assert.Contains(t, h.Events.Handle("Come compro i biglietti per la festa?"), "Per partecipare")

	assert.True(t, strings.HasPrefix(h.Services.Handle("Orari della spa?"), "SPA E CENTRO BENESSERE:"))
	assert.True(t, strings.HasPrefix(h.Services.Handle("Avete un transfer per l'aeroporto?"), "TRANSFER:"))
	assert.Contains(t, h.Services.Handle("Quali servizi offrite?"), "SERVIZI:")
}

func TestPrice(t *testing.T) {
	assert.Equal(t, "€14", Price(14))
	assert.Equal(t, "€14.50", Price(14.5))
}

func TestBookingsFallThroughWithoutAssistant(t *testing.T) {
	r := NewHandlers(catalog.Default(), nil).Router()
	require.Equal(t, intent.Generic, r.Classify("Mostrami le mie prenotazioni"))
}
