package concierge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
	"github.com/villa-concierge/concierge-platform/internal/intent"
	"github.com/villa-concierge/concierge-platform/internal/model"
	"github.com/villa-concierge/concierge-platform/pkg/logger"
)

// BookingBackend is the part of the booking service the chat assistant uses.
type BookingBackend interface {
	GetByUser(ctx context.Context, userID string) ([]model.Booking, error)
	GetByID(ctx context.Context, id, userID string) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id, userID, status string) (*model.Booking, error)
	UpdateSpecialRequests(ctx context.Context, id, userID, text string) (*model.Booking, error)
	CheckAvailability(ctx context.Context, checkIn, checkOut, roomType string) (*model.Availability, error)
	Create(ctx context.Context, userID string, req model.CreateBookingRequest) (*model.Booking, error)
}

var isBookingQuery = intent.MatchAny(
	`prenotazion\w*`, `prenot(are|o|a)\b`, `\bbookings?\b`, `\breservations?\b`, `\bcamer[ae]\b`, `\bstanz[ae]\b`,
	`soggiorno`, `check-?in`, `check-?out`, `disponibilit`, `\bsuite\b`, `\bdeluxe\b`,
)

// Messages used by the assistant.
const (
	msgLoginRequired = "Per consultare o gestire le sue prenotazioni deve prima accedere al suo account."
	msgUnavailable   = "Mi scusi, in questo momento non riesco ad accedere alle prenotazioni. Riprovi tra qualche minuto."
	msgNotFound      = "Non ho trovato una prenotazione con questo codice associata al suo account."
)

// BookingAssistant answers booking questions from chat.
type BookingAssistant struct {
	bookings BookingBackend
	logger   *logger.Logger
}

// NewBookingAssistant creates the assistant. log may be nil.
func NewBookingAssistant(bookings BookingBackend, log *logger.Logger) *BookingAssistant {
	if log == nil {
		log = logger.NewNop()
	}
	return &BookingAssistant{bookings: bookings, logger: log.Named("booking_assistant")}
}

// IsBookingQuery reports whether msg concerns a room booking.
func (a *BookingAssistant) IsBookingQuery(msg string) bool {
	return isBookingQuery(msg)
}

// Handle answers msg for userID. Missing details produce a clarifying
// question; each message is handled on its own, without state from earlier turns.
func (a *BookingAssistant) Handle(ctx context.Context, msg, userID string) string {
	if userID == "" {
		return msgLoginRequired
	}

	action := intent.ClassifyBooking(msg)
	id, hasID := intent.BookingID(msg)

	switch action {
	case intent.ActionList:
		return a.list(ctx, userID)
	case intent.ActionDetails:
		if !hasID {
			return "Mi indichi il codice della prenotazione (24 caratteri) e le mostro i dettagli. Può vederli tutti chiedendo \"le mie prenotazioni\"."
		}
		return a.details(ctx, id, userID)
	case intent.ActionCancel:
		if !hasID {
			return "Quale prenotazione desidera annullare? Mi indichi il codice della prenotazione."
		}
		return a.setStatus(ctx, id, userID, model.StatusCancelled)
	case intent.ActionUpdate:
		if !hasID {
			return "Quale prenotazione desidera modificare? Mi indichi il codice della prenotazione."
		}
		if strings.Contains(strings.ToLower(msg), "conferm") || strings.Contains(strings.ToLower(msg), "confirm") {
			return a.setStatus(ctx, id, userID, model.StatusConfirmed)
		}
		return "Posso confermare o annullare la prenotazione " + id + ", oppure aggiungere una richiesta speciale. Per cambiare le date la invitiamo a contattare la reception."
	case intent.ActionSpecialRequest:
		return a.specialRequest(ctx, msg, id, hasID, userID)
	case intent.ActionCheckAvailability:
		return a.availability(ctx, msg)
	case intent.ActionCreate:
		return a.create(ctx, msg, userID)
	default:
		return "Posso mostrarle le sue prenotazioni, verificare la disponibilità, creare una nuova prenotazione, annullarne una o aggiungere una richiesta speciale. Come posso aiutarla?"
	}
}

func (a *BookingAssistant) list(ctx context.Context, userID string) string {
	bookings, err := a.bookings.GetByUser(ctx, userID)
	if err != nil {
		return a.failure(err)
	}
	if len(bookings) == 0 {
		return "Non ha prenotazioni attive. Desidera verificare la disponibilità di una camera?"
	}
	var b strings.Builder
	b.WriteString("Ecco le sue prenotazioni:")
	for _, bk := range bookings {
		b.WriteString("\n- " + summary(bk))
	}
	return b.String()
}

func (a *BookingAssistant) details(ctx context.Context, id, userID string) string {
	bk, err := a.bookings.GetByID(ctx, id, userID)
	if err != nil {
		return a.failure(err)
	}
	text := "Prenotazione " + bk.ID + ":\n" +
		"- Ospite: " + bk.GuestName + "\n" +
		fmt.Sprintf("- Camera: %s per %d ospiti\n", bk.RoomType, bk.NumberOfGuests) +
		"- Dal " + bk.CheckIn.Format("02/01/2006") + " al " + bk.CheckOut.Format("02/01/2006") + "\n" +
		"- Stato: " + string(bk.Status) + "\n" +
		"- Totale: " + Price(bk.TotalPrice)
	if bk.SpecialRequests != "" {
		text += "\n- Richieste speciali: " + bk.SpecialRequests
	}
	return text
}

func (a *BookingAssistant) setStatus(ctx context.Context, id, userID string, status model.BookingStatus) string {
	bk, err := a.bookings.UpdateStatus(ctx, id, userID, string(status))
	if err != nil {
		return a.failure(err)
	}
	if status == model.StatusCancelled {
		return "La prenotazione " + bk.ID + " è stata annullata."
	}
	return "La prenotazione " + bk.ID + " è ora " + strings.ToLower(string(bk.Status)) + "."
}

func (a *BookingAssistant) specialRequest(ctx context.Context, msg, id string, hasID bool, userID string) string {
	text, ok := intent.SpecialRequest(msg)
	switch {
	case !hasID:
		return "A quale prenotazione vuole aggiungere la richiesta? Mi indichi il codice della prenotazione."
	case !ok:
		return "Quale richiesta speciale desidera aggiungere? Scriva per esempio \"richiesta speciale: culla in camera\"."
	}
	bk, err := a.bookings.UpdateSpecialRequests(ctx, id, userID, text)
	if err != nil {
		return a.failure(err)
	}
	return "Ho aggiunto la richiesta speciale alla prenotazione " + bk.ID + ": " + bk.SpecialRequests
}

func (a *BookingAssistant) availability(ctx context.Context, msg string) string {
	dates := intent.Dates(msg)
	room, hasRoom := intent.RoomType(msg)
	switch {
	case len(dates) < 2:
		return "Per quali date? Mi indichi arrivo e partenza, per esempio dal 2024-08-10 al 2024-08-12."
	case !hasRoom:
		return "Quale tipo di camera preferisce? Abbiamo " + roomChoices() + "."
	}
	av, err := a.bookings.CheckAvailability(ctx, dates[0], dates[1], string(room))
	if err != nil {
		return a.failure(err)
	}
	if av.Available {
		return fmt.Sprintf("Buone notizie: la camera %s è disponibile dal %s al %s (%s a notte). Desidera prenotarla?",
			room, dates[0], dates[1], Price(room.NightlyRate()))
	}
	return fmt.Sprintf("Mi dispiace, la camera %s non è disponibile dal %s al %s. Posso verificare un'altra tipologia o altre date.",
		room, dates[0], dates[1])
}

func (a *BookingAssistant) create(ctx context.Context, msg, userID string) string {
	dates := intent.Dates(msg)
	room, hasRoom := intent.RoomType(msg)
	guests, hasGuests := intent.Guests(msg)
	var missing []string
	if len(dates) < 2 {
		missing = append(missing, "le date di arrivo e partenza")
	}
	if !hasRoom {
		missing = append(missing, "il tipo di camera ("+roomChoices()+")")
	}
	if !hasGuests {
		missing = append(missing, "il numero di ospiti")
	}
	if len(missing) > 0 {
		return "Per completare la prenotazione mi servono " + strings.Join(missing, ", ") + ". Può indicarmeli in un unico messaggio?"
	}

	bk, err := a.bookings.Create(ctx, userID, model.CreateBookingRequest{
		GuestName:      "Ospite",
		CheckIn:        dates[0],
		CheckOut:       dates[1],
		NumberOfGuests: guests,
		RoomType:       room,
	})
	if err != nil {
		return a.failure(err)
	}
	return "Prenotazione creata: " + summary(*bk) + ". Il codice della prenotazione è " + bk.ID + "."
}

// failure turns a service error into a reply. Validation messages are shown
// as they are; store outages become an apology.
func (a *BookingAssistant) failure(err error) string {
	switch {
	case errors.Is(err, apperr.ErrNotFoundOrForbidden):
		return msgNotFound
	case errors.Is(err, apperr.ErrConflict):
		return "Mi dispiace, la camera non è disponibile per le date richieste."
	case errors.Is(err, apperr.ErrValidation):
		return "Non riesco a procedere: " + apperr.MessageOf(err) + "."
	}
	a.logger.Error("booking operation failed", zap.Error(err))
	return msgUnavailable
}

func summary(b model.Booking) string {
	return fmt.Sprintf("%s, camera %s dal %s al %s, %s (%s)",
		b.ID, b.RoomType, b.CheckIn.Format("02/01/2006"), b.CheckOut.Format("02/01/2006"),
		strings.ToLower(string(b.Status)), Price(b.TotalPrice))
}

func roomChoices() string {
	names := make([]string, len(model.RoomTypes))
	for i, t := range model.RoomTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
