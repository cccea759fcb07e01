// Package catalog holds the static villa content the concierge answers from:
// restaurant, activities, events and services.
package catalog

// MenuItem is a dish with its price in euro.
type MenuItem struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Price       float64 `json:"price" yaml:"price"`
}

// Menu groups dishes by course.
type Menu struct {
	Antipasti []MenuItem `json:"antipasti" yaml:"antipasti"`
	Primi     []MenuItem `json:"primi" yaml:"primi"`
	Secondi   []MenuItem `json:"secondi" yaml:"secondi"`
	Dolci     []MenuItem `json:"dolci" yaml:"dolci"`
}

// Hours are opening windows formatted "HH:MM - HH:MM".
type Hours struct {
	Lunch     string `json:"lunch" yaml:"lunch"`
	Dinner    string `json:"dinner" yaml:"dinner"`
	ClosedDay string `json:"closedDay,omitempty" yaml:"closedDay,omitempty"`
}

// Contact is how guests book something.
type Contact struct {
	Phone     string `json:"phone" yaml:"phone"`
	Email     string `json:"email" yaml:"email"`
	Extension string `json:"extension,omitempty" yaml:"extension,omitempty"`
	Notes     string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Restaurant is the villa restaurant.
type Restaurant struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Hours       Hours    `json:"hours" yaml:"hours"`
	Menu        Menu     `json:"menu" yaml:"menu"`
	Dietary     []string `json:"dietary" yaml:"dietary"`
	Booking     Contact  `json:"booking" yaml:"booking"`
}

// Activity is a bookable experience.
type Activity struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Price       float64 `json:"price" yaml:"price"`
	Duration    string  `json:"duration" yaml:"duration"`
	Schedule    string  `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

// Activities lists the experiences on offer.
type Activities struct {
	Intro   string     `json:"intro" yaml:"intro"`
	Items   []Activity `json:"items" yaml:"items"`
	Booking Contact    `json:"booking" yaml:"booking"`
}

// Event is a dated happening at the villa.
type Event struct {
	Name        string  `json:"name" yaml:"name"`
	Date        string  `json:"date" yaml:"date"`
	Time        string  `json:"time,omitempty" yaml:"time,omitempty"`
	Description string  `json:"description" yaml:"description"`
	Price       float64 `json:"price" yaml:"price"`
}

// Events lists upcoming events.
type Events struct {
	Intro   string  `json:"intro" yaml:"intro"`
	Items   []Event `json:"items" yaml:"items"`
	Booking Contact `json:"booking" yaml:"booking"`
}

// Service is a guest service such as the spa or a transfer.
type Service struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Hours       string  `json:"hours" yaml:"hours"`
	Price       float64 `json:"price" yaml:"price"`
	PriceNote   string  `json:"priceNote,omitempty" yaml:"priceNote,omitempty"`
}

// Services lists guest services. Spa and Transfer carry the detailed answers.
type Services struct {
	Intro    string    `json:"intro" yaml:"intro"`
	Items    []Service `json:"items" yaml:"items"`
	Spa      Service   `json:"spa" yaml:"spa"`
	Transfer Service   `json:"transfer" yaml:"transfer"`
}

// Catalog is the complete content set.
type Catalog struct {
	Restaurant Restaurant `json:"restaurant" yaml:"restaurant"`
	Activities Activities `json:"activities" yaml:"activities"`
	Events     Events     `json:"events" yaml:"events"`
	Services   Services   `json:"services" yaml:"services"`
}
