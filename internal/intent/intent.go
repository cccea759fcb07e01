// Package intent classifies guest messages and routes them through an ordered
// list of strategies. The first strategy that matches and handles a message
// answers it; anything left over goes to the completion model.
package intent

import (
	"context"
	"regexp"
	"strings"
)

// Intent is the classified purpose of a single message.
type Intent string

const (
	SimpleGreeting    Intent = "simple-greeting"
	RestaurantInfo    Intent = "restaurant-info"
	RestaurantBooking Intent = "restaurant-booking"
	ActivitiesInfo    Intent = "activities-info"
	EventsInfo        Intent = "events-info"
	ServicesInfo      Intent = "services-info"
	BookingQuery      Intent = "booking-query"
	Generic           Intent = "generic"
)

// Response sources.
const (
	SourceGreeting = "greeting"
	SourceCatalog  = "catalog"
	SourceBooking  = "booking"
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// Request is the input to a strategy handler.
type Request struct {
	Message   string
	Language  string
	UserID    string
	SessionID string
}

// Result is what the router decided.
type Result struct {
	Intent  Intent
	Reply   string
	Source  string
	Handled bool
}

// Strategy pairs a predicate with the handler that answers matching messages.
// Handle may decline by returning false, in which case routing continues.
type Strategy struct {
	Name   string
	Source string
	Match  func(msg string) (Intent, bool)
	Handle func(ctx context.Context, req Request, in Intent) (string, bool)
}

// Router evaluates strategies in order.
type Router struct {
	strategies []Strategy
}

// NewRouter builds a router. Order is priority: a message matching several
// strategies is answered by the first.
func NewRouter(strategies ...Strategy) *Router {
	return &Router{strategies: strategies}
}

// Classify returns the intent of msg without running any handler.
func (r *Router) Classify(msg string) Intent {
	for _, s := range r.strategies {
		if in, ok := s.Match(msg); ok {
			return in
		}
	}
	return Generic
}

// Route answers req with the first strategy that matches and handles it. An
// unhandled result carries the Generic intent.
func (r *Router) Route(ctx context.Context, req Request) Result {
	for _, s := range r.strategies {
		in, ok := s.Match(req.Message)
		if !ok {
			continue
		}
		reply, handled := s.Handle(ctx, req, in)
		if !handled {
			continue
		}
		return Result{Intent: in, Reply: reply, Source: s.Source, Handled: true}
	}
	return Result{Intent: Generic}
}

// Names lists the strategies in evaluation order.
func (r *Router) Names() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name
	}
	return names
}

var greetingRe = regexp.MustCompile(`(?i)^\s*(ciao|salve|buongiorno|buonasera|buon pomeriggio|hello|hi|hey|good (morning|afternoon|evening)|bonjour|bonsoir|salut|hallo|guten (tag|morgen|abend)|hola|buenos d[ií]as|buenas (tardes|noches)|ol[aá]|oi|bom dia|boa (tarde|noite)|привет|здравствуйте|你好|こんにちは|안녕하세요)([\s,!.]+(a tutti|there|everyone|tutti))?[\s!.,?]*$`)

// IsGreeting reports whether msg is only a courtesy greeting.
func IsGreeting(msg string) bool {
	return greetingRe.MatchString(strings.TrimSpace(msg))
}

// MatchAny returns a predicate matching any of the patterns, case-insensitively.
func MatchAny(patterns ...string) func(string) bool {
	re := regexp.MustCompile(`(?i)(` + strings.Join(patterns, "|") + `)`)
	return re.MatchString
}
