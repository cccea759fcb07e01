package concierge

import (
	"strings"

	"github.com/villa-concierge/concierge-platform/internal/catalog"
	"github.com/villa-concierge/concierge-platform/internal/intent"
)

var (
	isServices = intent.MatchAny(
		`serviz[io]`, `\bspa\b`, `massagg\w*`, `piscina`, `sauna`, `benessere`, `transfer`, `navetta`,
		`aeroporto`, `\btaxi\b`, `lavanderia`, `room service`, `noleggio`, `parcheggio`, `wi-?fi`, `\bservices?\b`,
		`\bpool\b`, `\bmassage`, `\bairport\b`, `\blaundry\b`,
	)
	isSpa      = intent.MatchAny(`\bspa\b`, `massagg\w*`, `sauna`, `benessere`, `bagno turco`, `trattament\w*`, `\bmassage`, `wellness`)
	isTransfer = intent.MatchAny(`transfer`, `navetta`, `aeroporto`, `stazione`, `\btaxi\b`, `autista`, `\bairport\b`, `shuttle`)
)

// Services answers questions about guest services.
type Services struct {
	data catalog.Services
}

// NewServices creates the services handler.
func NewServices(data catalog.Services) *Services {
	return &Services{data: data}
}

// IsInfoRequest reports whether msg is about services.
func (s *Services) IsInfoRequest(msg string) bool {
	return isServices(msg)
}

// Handle answers msg.
func (s *Services) Handle(msg string) string {
	switch {
	case isSpa(msg):
		return detail(s.data.Spa)
	case isTransfer(msg):
		return detail(s.data.Transfer)
	default:
		return s.list()
	}
}

func (s *Services) list() string {
	var b strings.Builder
	b.WriteString(s.data.Intro)
	b.WriteString("\n\nSERVIZI:")
	for _, it := range s.data.Items {
		b.WriteString("\n- " + it.Name)
		if it.Description != "" {
			b.WriteString(": " + it.Description)
		}
		b.WriteString(" (" + it.Hours + ") - " + servicePrice(it))
	}
	return b.String()
}

func detail(svc catalog.Service) string {
	return strings.ToUpper(svc.Name) + ":\n" +
		svc.Description + "\n" +
		"Orari: " + svc.Hours + "\n" +
		"Prezzo: " + servicePrice(svc)
}

func servicePrice(svc catalog.Service) string {
	switch {
	case svc.Price > 0 && svc.PriceNote != "":
		return Price(svc.Price) + " (" + svc.PriceNote + ")"
	case svc.Price > 0:
		return Price(svc.Price)
	case svc.PriceNote != "":
		return svc.PriceNote
	}
	return "su richiesta"
}
