package conversation

import (
	"strings"

	"github.com/villa-concierge/concierge-platform/internal/model"
)

// Persona is the system message every conversation starts with.
const Persona = `Sei il concierge digitale di Villa Petriolo, una villa nella campagna toscana.
Rispondi con cortesia e concisione, nella stessa lingua usata dall'ospite.
Quando elenchi piatti, attività o eventi usa intestazioni in maiuscolo seguite dai due punti (per esempio "ANTIPASTI:") e un elemento per riga con il prezzo in euro.
Per i saluti rispondi con una sola frase breve.
Non inventare disponibilità o prenotazioni: per quelle invita l'ospite ad accedere al proprio account.`

// contextMarker separates the persona from per-turn context in the system message.
const contextMarker = "\n\n--- CONTESTO ---\n"

// WithContext returns a copy of msgs whose system message carries the persona
// followed by extra. Earlier context is replaced, never accumulated.
func WithContext(msgs []model.ChatMessage, extra string) []model.ChatMessage {
	out := make([]model.ChatMessage, len(msgs))
	copy(out, msgs)
	if len(out) == 0 || out[0].Role != model.RoleSystem {
		out = append([]model.ChatMessage{model.SystemMessage(Persona)}, out...)
	}
	base := out[0].Content
	if i := strings.Index(base, contextMarker); i >= 0 {
		base = base[:i]
	}
	if extra = strings.TrimSpace(extra); extra != "" {
		base += contextMarker + extra
	}
	out[0].Content = base
	return out
}
