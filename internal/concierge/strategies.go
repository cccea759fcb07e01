package concierge

import (
	"context"

	"github.com/villa-concierge/concierge-platform/internal/catalog"
	"github.com/villa-concierge/concierge-platform/internal/intent"
)

// Handlers bundles the domain handlers built from one catalog.
type Handlers struct {
	Restaurant *Restaurant
	Activities *Activities
	Events     *Events
	Services   *Services
	Bookings   *BookingAssistant
}

// NewHandlers builds the catalog handlers. bookings may be nil, in which case
// booking questions fall through to the completion model.
func NewHandlers(cat *catalog.Catalog, bookings *BookingAssistant) *Handlers {
	return &Handlers{
		Restaurant: NewRestaurant(cat.Restaurant),
		Activities: NewActivities(cat.Activities),
		Events:     NewEvents(cat.Events),
		Services:   NewServices(cat.Services),
		Bookings:   bookings,
	}
}

func catalogStrategy(name string, in intent.Intent, match func(string) bool, handle func(string) string) intent.Strategy {
	return intent.Strategy{
		Name:   name,
		Source: intent.SourceCatalog,
		Match: func(msg string) (intent.Intent, bool) {
			return in, match(msg)
		},
		Handle: func(_ context.Context, req intent.Request, _ intent.Intent) (string, bool) {
			return handle(req.Message), true
		},
	}
}

// Strategies returns the routing order: greeting, restaurant, activities,
// events, services, then room bookings.
func (h *Handlers) Strategies() []intent.Strategy {
	strategies := []intent.Strategy{
		{
			Name:   "greeting",
			Source: intent.SourceGreeting,
			Match: func(msg string) (intent.Intent, bool) {
				return intent.SimpleGreeting, intent.IsGreeting(msg)
			},
			Handle: func(_ context.Context, req intent.Request, _ intent.Intent) (string, bool) {
				return Greeting(req.Language), true
			},
		},
		{
			Name:   "restaurant",
			Source: intent.SourceCatalog,
			Match: func(msg string) (intent.Intent, bool) {
				switch {
				case h.Restaurant.IsBookingRequest(msg):
					return intent.RestaurantBooking, true
				case h.Restaurant.IsInfoRequest(msg):
					return intent.RestaurantInfo, true
				}
				return "", false
			},
			Handle: func(_ context.Context, req intent.Request, in intent.Intent) (string, bool) {
				if in == intent.RestaurantBooking {
					return h.Restaurant.booking(), true
				}
				return h.Restaurant.Handle(req.Message), true
			},
		},
		catalogStrategy("activities", intent.ActivitiesInfo, h.Activities.IsInfoRequest, h.Activities.Handle),
		catalogStrategy("events", intent.EventsInfo, h.Events.IsInfoRequest, h.Events.Handle),
		catalogStrategy("services", intent.ServicesInfo, h.Services.IsInfoRequest, h.Services.Handle),
	}
	if h.Bookings != nil {
		strategies = append(strategies, intent.Strategy{
			Name:   "booking",
			Source: intent.SourceBooking,
			Match: func(msg string) (intent.Intent, bool) {
				return intent.BookingQuery, h.Bookings.IsBookingQuery(msg)
			},
			Handle: func(ctx context.Context, req intent.Request, _ intent.Intent) (string, bool) {
				return h.Bookings.Handle(ctx, req.Message, req.UserID), true
			},
		})
	}
	return strategies
}

// Router returns an intent router over Strategies.
func (h *Handlers) Router() *intent.Router {
	return intent.NewRouter(h.Strategies()...)
}
