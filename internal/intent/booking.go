package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/villa-concierge/concierge-platform/internal/model"
)

// BookingAction is the sub-intent of a booking-related message.
type BookingAction string

const (
	ActionList              BookingAction = "list"
	ActionDetails           BookingAction = "details"
	ActionCancel            BookingAction = "cancel"
	ActionUpdate            BookingAction = "update"
	ActionSpecialRequest    BookingAction = "specialRequest"
	ActionCheckAvailability BookingAction = "checkAvailability"
	ActionCreate            BookingAction = "createBooking"
	ActionGeneral           BookingAction = "general"
)

var (
	bookingIDRe = regexp.MustCompile(`(?i)\b[0-9a-f]{24}\b`)
	isoDateRe   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	euDateRe    = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	guestsRe    = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(persone|persona|ospiti|ospite|adulti|adulto|guests?|people|pax)\b`)
	roomTypeRe  = regexp.MustCompile(`(?i)\b(standard|deluxe|suite|villa)\b`)
	noteRe      = regexp.MustCompile(`(?i)\b(?:richiesta speciale|richieste speciali|nota|special request)\s*[:\-]\s*(.+)$`)
)

// actionRules are checked in order; the first match wins.
var actionRules = []struct {
	action BookingAction
	re     *regexp.Regexp
}{
	{ActionCancel, regexp.MustCompile(`(?i)\b(annull\w*|cancell\w*|disdir\w*|disdic\w*|cancel\w*)`)},
	{ActionSpecialRequest, regexp.MustCompile(`(?i)(richiest[ae] special[ei]|aggiung\w* (una )?(richiesta|nota)|special request|culla|letto aggiuntivo)`)},
	{ActionUpdate, regexp.MustCompile(`(?i)\b(modific\w*|cambi\w*|aggiorn\w*|spost\w*|conferm\w*|change|update|confirm)`)},
	{ActionCheckAvailability, regexp.MustCompile(`(?i)(disponibil\w*|\bliber[aoei]\b|available|availability)`)},
	{ActionCreate, regexp.MustCompile(`(?i)((vorrei|voglio|desidero|posso|vorremmo) prenotare|prenota(re)? (una|la) (camera|stanza|suite|villa)|nuova prenotazione|book a room|make a (booking|reservation))`)},
	{ActionDetails, regexp.MustCompile(`(?i)(dettagl\w*|informazioni sulla prenotazione|details)`)},
	{ActionList, regexp.MustCompile(`(?i)((le )?mie prenotazioni|elenco|lista|tutte le prenotazioni|my (bookings|reservations)|prenotazioni attive)`)},
}

// ClassifyBooking returns the sub-intent of a booking-related message. A
// booking id alone asks for details.
func ClassifyBooking(msg string) BookingAction {
	for _, r := range actionRules {
		if r.re.MatchString(msg) {
			return r.action
		}
	}
	if _, ok := BookingID(msg); ok {
		return ActionDetails
	}
	return ActionGeneral
}

// BookingID extracts a 24-hex booking id.
func BookingID(msg string) (string, bool) {
	id := bookingIDRe.FindString(msg)
	return strings.ToLower(id), id != ""
}

// Dates extracts dates written as 2006-01-02 or 02/01/2006, in order of
// appearance, normalized to 2006-01-02.
func Dates(msg string) []string {
	type hit struct {
		pos  int
		date string
	}
	var hits []hit
	for _, m := range isoDateRe.FindAllStringSubmatchIndex(msg, -1) {
		hits = append(hits, hit{m[0], msg[m[0]:m[1]]})
	}
	for _, m := range euDateRe.FindAllStringSubmatchIndex(msg, -1) {
		day, _ := strconv.Atoi(msg[m[2]:m[3]])
		month, _ := strconv.Atoi(msg[m[4]:m[5]])
		hits = append(hits, hit{m[0], fmt.Sprintf("%s-%02d-%02d", msg[m[6]:m[7]], month, day)})
	}
	// insertion sort by position; at most a handful of hits
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.date
	}
	return out
}

// RoomType extracts a room type name.
func RoomType(msg string) (model.RoomType, bool) {
	m := roomTypeRe.FindStringSubmatch(msg)
	if m == nil {
		return "", false
	}
	name := strings.ToLower(m[1])
	return model.RoomType(strings.ToUpper(name[:1]) + name[1:]), true
}

// Guests extracts a guest count such as "2 persone".
func Guests(msg string) (int, bool) {
	m := guestsRe.FindStringSubmatch(msg)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil && n > 0
}

// SpecialRequest extracts the text following "richiesta speciale:".
func SpecialRequest(msg string) (string, bool) {
	m := noteRe.FindStringSubmatch(msg)
	if m == nil {
		return "", false
	}
	text := strings.TrimSpace(m[1])
	return text, text != ""
}
